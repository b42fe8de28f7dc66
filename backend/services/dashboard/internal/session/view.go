package session

import (
	"equipviz/backend/services/dashboard/internal/models"
	"equipviz/backend/services/dashboard/internal/notify"
	"equipviz/backend/services/dashboard/internal/upload"
	"equipviz/backend/services/dashboard/internal/viz"
)

// View is a snapshot of everything the page renders. Treat it as read-only: the chart
// bundle and table are shared between snapshots of the same load.
type View struct {
	Version           uint64               `json:"version"`
	Datasets          []models.Dataset     `json:"datasets"`
	SelectedDatasetID *int64               `json:"selected_dataset_id"`
	Loading           bool                 `json:"loading"`
	HasData           bool                 `json:"has_data"`
	CanExport         bool                 `json:"can_export"`
	Summary           *models.Summary      `json:"summary,omitempty"`
	Cards             []viz.SummaryCard    `json:"cards"`
	Charts            *viz.ChartBundle     `json:"charts,omitempty"`
	ChartsVersion     uint64               `json:"charts_version"`
	Table             viz.Table            `json:"table"`
	Notification      *notify.Notification `json:"notification"`
	Upload            upload.State         `json:"upload"`
}

// detail is a loaded dataset with its derived view models.
type detail struct {
	datasetID int64
	summary   models.Summary
	equipment []models.EquipmentRecord
	charts    viz.ChartBundle
	table     viz.Table
	cards     []viz.SummaryCard
	version   uint64
}

func buildDetail(id int64, summary models.Summary, equipment []models.EquipmentRecord, sample int) *detail {
	return &detail{
		datasetID: id,
		summary:   summary,
		equipment: equipment,
		charts:    viz.BuildSeriesSample(summary, equipment, sample),
		table:     viz.BuildTable(equipment),
		cards:     viz.BuildSummaryCards(summary),
	}
}

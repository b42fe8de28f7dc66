package models

import "time"

// Dataset is one uploaded CSV's record group as listed by the backend.
type Dataset struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	TotalCount int       `json:"total_count"`
	UploadedAt time.Time `json:"uploaded_at"`
	FileName   string    `json:"file_name,omitempty"`
}

// EquipmentRecord is one row of uploaded data. Nil measurements were absent in the CSV.
type EquipmentRecord struct {
	ID            int64    `json:"id"`
	DatasetID     int64    `json:"dataset,omitempty"`
	EquipmentName string   `json:"equipment_name"`
	EquipmentType string   `json:"equipment_type"`
	Flowrate      *float64 `json:"flowrate"`
	Pressure      *float64 `json:"pressure"`
	Temperature   *float64 `json:"temperature"`
}

// Averages are the server-computed parameter means.
type Averages struct {
	Flowrate    float64 `json:"flowrate"`
	Pressure    float64 `json:"pressure"`
	Temperature float64 `json:"temperature"`
}

// Summary holds the aggregate statistics of a dataset. The client never recomputes it.
type Summary struct {
	DatasetID        int64            `json:"dataset_id"`
	DatasetName      string           `json:"dataset_name"`
	TotalCount       int              `json:"total_count"`
	UploadedAt       time.Time        `json:"uploaded_at"`
	Averages         Averages         `json:"averages"`
	TypeDistribution TypeDistribution `json:"type_distribution"`
}

// Float returns a pointer to v, for building records with present measurements.
func Float(v float64) *float64 {
	return &v
}

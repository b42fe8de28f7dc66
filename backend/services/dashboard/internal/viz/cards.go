package viz

import (
	"strconv"

	"equipviz/backend/services/dashboard/internal/models"
)

// SummaryCard is one headline figure above the charts.
type SummaryCard struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// BuildSummaryCards returns total count and the three averages.
func BuildSummaryCards(summary models.Summary) []SummaryCard {
	return []SummaryCard{
		{Title: "Total Equipment", Value: strconv.Itoa(summary.TotalCount)},
		{Title: "Avg Flowrate", Value: formatFixed(summary.Averages.Flowrate)},
		{Title: "Avg Pressure", Value: formatFixed(summary.Averages.Pressure)},
		{Title: "Avg Temperature", Value: formatFixed(summary.Averages.Temperature)},
	}
}

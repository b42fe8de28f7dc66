package viz

import (
	"strconv"

	"equipviz/backend/services/dashboard/internal/models"
)

// NotAvailable stands in for an absent measurement.
const NotAvailable = "N/A"

// TableColumns are the equipment table headings.
var TableColumns = []string{"Equipment Name", "Type", "Flowrate", "Pressure", "Temperature"}

// Table is the equipment table view model.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    []TableRow `json:"rows"`
}

// TableRow is one formatted equipment record.
type TableRow struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Flowrate    string `json:"flowrate"`
	Pressure    string `json:"pressure"`
	Temperature string `json:"temperature"`
}

// BuildTable formats every record. Measurements use two decimals and N/A when absent.
func BuildTable(equipment []models.EquipmentRecord) Table {
	t := Table{
		Columns: append([]string(nil), TableColumns...),
		Rows:    make([]TableRow, 0, len(equipment)),
	}
	for _, rec := range equipment {
		t.Rows = append(t.Rows, TableRow{
			ID:          rec.ID,
			Name:        rec.EquipmentName,
			Type:        rec.EquipmentType,
			Flowrate:    FormatMeasurement(rec.Flowrate),
			Pressure:    FormatMeasurement(rec.Pressure),
			Temperature: FormatMeasurement(rec.Temperature),
		})
	}
	return t
}

// FormatMeasurement formats v with two decimals, or NotAvailable when v is nil.
func FormatMeasurement(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return formatFixed(*v)
}

func formatFixed(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

package testbackend

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"equipviz/backend/services/dashboard/internal/models"
)

var requiredColumns = []string{"Equipment Name", "Type", "Flowrate", "Pressure", "Temperature"}

// parseEquipmentCSV reads the header row and one record per data row. Unparseable
// measurements become absent, as the real backend coerces them to null.
func parseEquipmentCSV(r io.Reader) ([]models.EquipmentRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("No columns to parse from file")
		}
		return nil, err
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(col)] = i
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("Missing required columns: %s", strings.Join(missing, ", "))
	}

	var out []models.EquipmentRecord
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		field := func(col string) string {
			i := index[col]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		out = append(out, models.EquipmentRecord{
			EquipmentName: field("Equipment Name"),
			EquipmentType: field("Type"),
			Flowrate:      parseMeasurement(field("Flowrate")),
			Pressure:      parseMeasurement(field("Pressure")),
			Temperature:   parseMeasurement(field("Temperature")),
		})
	}
	return out, nil
}

func parseMeasurement(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func summarize(ds *dataset) models.Summary {
	var flow, press, temp []float64
	var dist models.TypeDistribution
	positions := map[string]int{}
	for _, rec := range ds.equipment {
		if rec.Flowrate != nil {
			flow = append(flow, *rec.Flowrate)
		}
		if rec.Pressure != nil {
			press = append(press, *rec.Pressure)
		}
		if rec.Temperature != nil {
			temp = append(temp, *rec.Temperature)
		}
		pos, ok := positions[rec.EquipmentType]
		if !ok {
			pos = len(dist)
			positions[rec.EquipmentType] = pos
			dist = append(dist, models.TypeCount{Type: rec.EquipmentType})
		}
		dist[pos].Count++
	}
	return models.Summary{
		DatasetID:   ds.meta.ID,
		DatasetName: ds.meta.Name,
		TotalCount:  ds.meta.TotalCount,
		UploadedAt:  ds.meta.UploadedAt,
		Averages: models.Averages{
			Flowrate:    mean(flow),
			Pressure:    mean(press),
			Temperature: mean(temp),
		},
		TypeDistribution: dist,
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

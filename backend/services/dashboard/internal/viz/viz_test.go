package viz_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"equipviz/backend/services/dashboard/internal/models"
	"equipviz/backend/services/dashboard/internal/viz"
)

func sampleSummary() models.Summary {
	return models.Summary{
		DatasetID:  3,
		TotalCount: 4,
		Averages:   models.Averages{Flowrate: 120.456, Pressure: 5.1, Temperature: 0},
		TypeDistribution: models.TypeDistribution{
			{Type: "Pump", Count: 2},
			{Type: "Valve", Count: 1},
			{Type: "Reactor", Count: 1},
		},
	}
}

func records(n int) []models.EquipmentRecord {
	out := make([]models.EquipmentRecord, n)
	for i := range out {
		out[i] = models.EquipmentRecord{
			ID:            int64(i + 1),
			EquipmentName: fmt.Sprintf("E-%d", i+1),
			EquipmentType: "Pump",
			Flowrate:      models.Float(float64(i)),
			Pressure:      models.Float(1.5),
			Temperature:   models.Float(100),
		}
	}
	return out
}

func TestBuildSeriesTypeDistribution(t *testing.T) {
	b := viz.BuildSeries(sampleSummary(), nil)

	require.Equal(t, []string{"Pump", "Valve", "Reactor"}, b.Types.Labels)
	require.Equal(t, []int{2, 1, 1}, b.Types.Values)
	require.Equal(t, []string{
		"rgba(102, 126, 234, 0.8)",
		"rgba(118, 75, 162, 0.8)",
		"rgba(255, 99, 132, 0.8)",
	}, b.Types.Colors)
	require.Equal(t, "rgba(102, 126, 234, 1)", b.Types.BorderColors[0])
}

func TestBuildSeriesPaletteWraps(t *testing.T) {
	s := models.Summary{}
	for i := 0; i < 7; i++ {
		s.TypeDistribution = append(s.TypeDistribution, models.TypeCount{Type: fmt.Sprint("T", i), Count: 1})
	}

	b := viz.BuildSeries(s, nil)
	require.Len(t, b.Types.Colors, 7)
	require.Equal(t, b.Types.Colors[0], b.Types.Colors[5])
	require.Equal(t, b.Types.Colors[1], b.Types.Colors[6])
}

func TestBuildSeriesAverages(t *testing.T) {
	b := viz.BuildSeries(sampleSummary(), nil)

	require.Equal(t, []string{"Flowrate", "Pressure", "Temperature"}, b.Averages.Labels)
	require.Equal(t, []float64{120.456, 5.1, 0}, b.Averages.Values)
}

func TestBuildSeriesTrendSamplesFirstTen(t *testing.T) {
	recs := records(15)
	b := viz.BuildSeries(sampleSummary(), recs)

	require.Len(t, b.Trend.Labels, viz.TrendSampleSize)
	require.Equal(t, "E-1", b.Trend.Labels[0])
	require.Equal(t, "E-10", b.Trend.Labels[9])
	require.Len(t, b.Trend.Series, 3)
	require.Equal(t, "Flowrate", b.Trend.Series[0].Name)
	require.Equal(t, 9.0, b.Trend.Series[0].Values[9])
}

func TestBuildSeriesTrendShortAndAbsent(t *testing.T) {
	recs := []models.EquipmentRecord{
		{EquipmentName: "R-1", Flowrate: nil, Pressure: models.Float(2), Temperature: nil},
	}
	b := viz.BuildSeries(sampleSummary(), recs)

	require.Equal(t, []string{"R-1"}, b.Trend.Labels)
	require.Equal(t, []float64{0}, b.Trend.Series[0].Values)
	require.Equal(t, []float64{2}, b.Trend.Series[1].Values)
	require.Equal(t, []float64{0}, b.Trend.Series[2].Values)

	empty := viz.BuildSeries(models.Summary{}, nil)
	require.Empty(t, empty.Trend.Labels)
	require.Empty(t, empty.Types.Labels)
}

func TestBuildSeriesIsPure(t *testing.T) {
	s := sampleSummary()
	recs := records(12)
	before := append([]models.EquipmentRecord(nil), recs...)
	dist := append(models.TypeDistribution(nil), s.TypeDistribution...)

	first := viz.BuildSeries(s, recs)
	second := viz.BuildSeries(s, recs)

	require.Equal(t, first, second)
	require.Equal(t, before, recs)
	require.Equal(t, dist, s.TypeDistribution)

	first.Trend.Labels[0] = "changed"
	require.Equal(t, "E-1", recs[0].EquipmentName)
}

func TestBuildTableFormatsAndMarksAbsent(t *testing.T) {
	recs := []models.EquipmentRecord{
		{ID: 1, EquipmentName: "P-1", EquipmentType: "Pump", Flowrate: models.Float(120.456), Pressure: nil, Temperature: models.Float(0)},
	}
	table := viz.BuildTable(recs)

	require.Equal(t, viz.TableColumns, table.Columns)
	require.Equal(t, []viz.TableRow{{
		ID:          1,
		Name:        "P-1",
		Type:        "Pump",
		Flowrate:    "120.46",
		Pressure:    "N/A",
		Temperature: "0.00",
	}}, table.Rows)

	require.NotNil(t, viz.BuildTable(nil).Rows)
}

func TestBuildSummaryCards(t *testing.T) {
	cards := viz.BuildSummaryCards(sampleSummary())

	require.Equal(t, []viz.SummaryCard{
		{Title: "Total Equipment", Value: "4"},
		{Title: "Avg Flowrate", Value: "120.46"},
		{Title: "Avg Pressure", Value: "5.10"},
		{Title: "Avg Temperature", Value: "0.00"},
	}, cards)
}

func TestParseKind(t *testing.T) {
	k, err := viz.ParseKind("trend")
	require.NoError(t, err)
	require.Equal(t, viz.KindTrend, k)

	_, err = viz.ParseKind("radar")
	require.ErrorIs(t, err, viz.ErrUnknownKind)
}

func TestRendererDrawsEveryKind(t *testing.T) {
	r := viz.NewRenderer(480, 320)
	bundles := map[string]viz.ChartBundle{
		"full":   viz.BuildSeries(sampleSummary(), records(12)),
		"single": viz.BuildSeries(sampleSummary(), records(1)),
		"empty":  viz.BuildSeries(models.Summary{}, nil),
	}

	for name, b := range bundles {
		for _, kind := range []viz.Kind{viz.KindTypes, viz.KindAverages, viz.KindTrend} {
			t.Run(name+"/"+string(kind), func(t *testing.T) {
				var buf bytes.Buffer
				require.NoError(t, r.Render(&buf, kind, b))
				require.True(t, strings.Contains(buf.String(), "<svg"), "output is svg")
			})
		}
	}
}

func TestRendererUnknownKind(t *testing.T) {
	var buf bytes.Buffer
	err := viz.NewRenderer(0, 0).Render(&buf, viz.Kind("radar"), viz.ChartBundle{})
	require.ErrorIs(t, err, viz.ErrUnknownKind)
	require.Zero(t, buf.Len())
}

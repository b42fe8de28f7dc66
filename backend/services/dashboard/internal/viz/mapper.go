// Package viz turns a loaded dataset into chart series, summary cards and table rows.
// Everything here is a pure function of its inputs except Renderer, which draws SVG.
package viz

import (
	"fmt"

	"equipviz/backend/services/dashboard/internal/models"
)

// TrendSampleSize is how many leading equipment records the trend chart plots.
const TrendSampleSize = 10

const (
	fillAlpha   = 0.8
	borderAlpha = 1.0
	trendAlpha  = 0.2
)

// RGB is a palette entry.
type RGB struct {
	R, G, B uint8
}

// CSS renders the color as a css rgba() value.
func (c RGB) CSS(alpha float64) string {
	return fmt.Sprintf("rgba(%d, %d, %d, %g)", c.R, c.G, c.B, alpha)
}

// Palette is assigned to type labels by position, wrapping around.
var Palette = []RGB{
	{102, 126, 234},
	{118, 75, 162},
	{255, 99, 132},
	{54, 162, 235},
	{255, 206, 86},
}

// PaletteColor returns the palette entry for the i-th label.
func PaletteColor(i int) RGB {
	return Palette[i%len(Palette)]
}

// ChartBundle holds the data for the three dashboard charts.
type ChartBundle struct {
	Types    PieSeries `json:"types"`
	Averages BarSeries `json:"averages"`
	Trend    LineChart `json:"trend"`
}

// PieSeries is the type distribution.
type PieSeries struct {
	Label        string   `json:"label"`
	Labels       []string `json:"labels"`
	Values       []int    `json:"values"`
	Colors       []string `json:"colors"`
	BorderColors []string `json:"border_colors"`
}

// BarSeries is the averages chart.
type BarSeries struct {
	Label       string    `json:"label"`
	Labels      []string  `json:"labels"`
	Values      []float64 `json:"values"`
	Color       string    `json:"color"`
	BorderColor string    `json:"border_color"`
}

// LineChart is the per-equipment trend of the sampled records.
type LineChart struct {
	Labels []string     `json:"labels"`
	Series []LineSeries `json:"series"`
}

// LineSeries is one measurement across the sampled records.
type LineSeries struct {
	Name        string    `json:"name"`
	Values      []float64 `json:"values"`
	Color       string    `json:"color"`
	BorderColor string    `json:"border_color"`
}

// Measurement names in chart order.
var Measurements = []string{"Flowrate", "Pressure", "Temperature"}

// BuildSeries maps a summary and its equipment to chart data using the default sample size.
func BuildSeries(summary models.Summary, equipment []models.EquipmentRecord) ChartBundle {
	return BuildSeriesSample(summary, equipment, TrendSampleSize)
}

// BuildSeriesSample is BuildSeries with an explicit trend sample size.
func BuildSeriesSample(summary models.Summary, equipment []models.EquipmentRecord, sample int) ChartBundle {
	return ChartBundle{
		Types:    buildTypes(summary.TypeDistribution),
		Averages: buildAverages(summary.Averages),
		Trend:    buildTrend(equipment, sample),
	}
}

func buildTypes(dist models.TypeDistribution) PieSeries {
	pie := PieSeries{
		Label:        "Equipment Count",
		Labels:       make([]string, 0, len(dist)),
		Values:       make([]int, 0, len(dist)),
		Colors:       make([]string, 0, len(dist)),
		BorderColors: make([]string, 0, len(dist)),
	}
	for i, tc := range dist {
		c := PaletteColor(i)
		pie.Labels = append(pie.Labels, tc.Type)
		pie.Values = append(pie.Values, tc.Count)
		pie.Colors = append(pie.Colors, c.CSS(fillAlpha))
		pie.BorderColors = append(pie.BorderColors, c.CSS(borderAlpha))
	}
	return pie
}

func buildAverages(avg models.Averages) BarSeries {
	c := PaletteColor(0)
	return BarSeries{
		Label:       "Average Values",
		Labels:      append([]string(nil), Measurements...),
		Values:      []float64{avg.Flowrate, avg.Pressure, avg.Temperature},
		Color:       c.CSS(fillAlpha),
		BorderColor: c.CSS(borderAlpha),
	}
}

func buildTrend(equipment []models.EquipmentRecord, sample int) LineChart {
	n := len(equipment)
	if sample >= 0 && n > sample {
		n = sample
	}

	trend := LineChart{Labels: make([]string, n)}
	values := [3][]float64{make([]float64, n), make([]float64, n), make([]float64, n)}
	for i, rec := range equipment[:n] {
		trend.Labels[i] = rec.EquipmentName
		values[0][i] = orZero(rec.Flowrate)
		values[1][i] = orZero(rec.Pressure)
		values[2][i] = orZero(rec.Temperature)
	}

	trend.Series = make([]LineSeries, len(Measurements))
	for i, name := range Measurements {
		c := PaletteColor(i)
		trend.Series[i] = LineSeries{
			Name:        name,
			Values:      values[i],
			Color:       c.CSS(trendAlpha),
			BorderColor: c.CSS(borderAlpha),
		}
	}
	return trend
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

package viz

import (
	"errors"
	"fmt"
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// SVGContentType is the media type Render writes.
const SVGContentType = "image/svg+xml"

// Kind names one of the dashboard charts.
type Kind string

const (
	KindTypes    Kind = "types"
	KindAverages Kind = "averages"
	KindTrend    Kind = "trend"
)

// ErrUnknownKind is returned for a chart name Render does not draw.
var ErrUnknownKind = errors.New("viz: unknown chart kind")

// ParseKind validates a chart name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindTypes, KindAverages, KindTrend:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

var (
	noDataColor = drawing.Color{R: 200, G: 200, B: 200, A: 255}
	chartBox    = chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}
)

// Renderer draws chart bundles as SVG. Every call builds its own chart values, so a
// Renderer holds nothing between renders and is safe for concurrent use.
type Renderer struct {
	width  int
	height int
}

// NewRenderer returns a renderer producing width x height images.
func NewRenderer(width, height int) *Renderer {
	if width <= 0 {
		width = 640
	}
	if height <= 0 {
		height = 360
	}
	return &Renderer{width: width, height: height}
}

// Render writes the kind chart of b to w.
func (r *Renderer) Render(w io.Writer, kind Kind, b ChartBundle) error {
	var err error
	switch kind {
	case KindTypes:
		err = r.pie(b.Types).Render(chart.SVG, w)
	case KindAverages:
		err = r.bars(b.Averages).Render(chart.SVG, w)
	case KindTrend:
		ch := r.trend(b.Trend)
		err = ch.Render(chart.SVG, w)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if err != nil {
		return fmt.Errorf("render %s chart: %w", kind, err)
	}
	return nil
}

func (r *Renderer) pie(p PieSeries) chart.PieChart {
	values := make([]chart.Value, 0, len(p.Values))
	for i, v := range p.Values {
		if v <= 0 {
			continue
		}
		c := PaletteColor(i)
		values = append(values, chart.Value{
			Label: p.Labels[i],
			Value: float64(v),
			Style: chart.Style{
				FillColor:   drawingColor(c, fillAlpha),
				StrokeColor: drawingColor(c, borderAlpha),
				StrokeWidth: 1,
			},
		})
	}
	if len(values) == 0 {
		values = []chart.Value{{Label: "No data", Value: 1, Style: chart.Style{FillColor: noDataColor}}}
	}
	return chart.PieChart{
		Title:      "Equipment Type Distribution",
		Width:      r.width,
		Height:     r.height,
		Background: chart.Style{Padding: chartBox},
		Values:     values,
	}
}

func (r *Renderer) bars(b BarSeries) chart.BarChart {
	c := PaletteColor(0)
	style := chart.Style{
		FillColor:   drawingColor(c, fillAlpha),
		StrokeColor: drawingColor(c, borderAlpha),
		StrokeWidth: 1,
	}
	bars := make([]chart.Value, len(b.Values))
	for i, v := range b.Values {
		bars[i] = chart.Value{Label: b.Labels[i], Value: v, Style: style}
	}
	if len(bars) == 0 {
		for _, m := range Measurements {
			bars = append(bars, chart.Value{Label: m, Style: style})
		}
	}
	lo, hi := valueRange(b.Values)
	return chart.BarChart{
		Title:      "Average Parameters",
		Width:      r.width,
		Height:     r.height,
		BarWidth:   r.width / 6,
		Background: chart.Style{Padding: chartBox},
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: lo, Max: hi}},
		Bars:       bars,
	}
}

func (r *Renderer) trend(l LineChart) *chart.Chart {
	n := len(l.Labels)
	xs := make([]float64, n)
	ticks := make([]chart.Tick, n)
	for i := range xs {
		xs[i] = float64(i)
		ticks[i] = chart.Tick{Value: float64(i), Label: l.Labels[i]}
	}
	// go-chart needs at least two X values per series.
	if n < 2 {
		xs = []float64{0, 1}
	}

	var all []float64
	series := make([]chart.Series, 0, len(l.Series))
	for i, s := range l.Series {
		ys := append([]float64(nil), s.Values...)
		switch len(ys) {
		case 0:
			ys = []float64{0, 0}
		case 1:
			ys = append(ys, ys[0])
		}
		all = append(all, ys...)
		c := PaletteColor(i)
		series = append(series, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: drawingColor(c, borderAlpha),
				FillColor:   drawingColor(c, trendAlpha),
				StrokeWidth: 2,
				DotWidth:    3,
				DotColor:    drawingColor(c, borderAlpha),
			},
		})
	}

	lo, hi := valueRange(all)
	ch := &chart.Chart{
		Title:      "Equipment Parameters (Sample)",
		Width:      r.width,
		Height:     r.height,
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 64}},
		XAxis: chart.XAxis{
			Ticks:     ticks,
			Range:     &chart.ContinuousRange{Min: xs[0], Max: xs[len(xs)-1]},
			TickStyle: chart.Style{TextRotationDegrees: 45},
		},
		YAxis:  chart.YAxis{Range: &chart.ContinuousRange{Min: lo, Max: hi}},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(ch)}
	return ch
}

// valueRange returns a non-empty axis range covering zero and every value.
func valueRange(values []float64) (float64, float64) {
	lo, hi := 0.0, 0.0
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		return lo, lo + 1
	}
	return lo, hi + (hi-lo)*0.1
}

func drawingColor(c RGB, alpha float64) drawing.Color {
	return drawing.Color{R: c.R, G: c.G, B: c.B, A: uint8(math.Round(alpha * 255))}
}

package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"insightdash/internal/dashboard"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var ErrUnsupportedFormat = errors.New("unsupported image format")

type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatSVG:
		return FormatSVG, nil
	case FormatPNG:
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnsupportedFormat, s)
	}
}

func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

func (f Format) provider() (chart.RendererProvider, error) {
	switch f {
	case FormatSVG:
		return chart.SVG, nil
	case FormatPNG:
		return chart.PNG, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedFormat, string(f))
	}
}

// Options sizes the output image. Zero values fall back to the defaults.
type Options struct {
	Width  int
	Height int
}

const (
	DefaultWidth  = 640
	DefaultHeight = 400
)

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	return o
}

// Render draws a bound chart to w in the given format.
func Render(w io.Writer, c dashboard.Chart, f Format, opts Options) error {
	rp, err := f.provider()
	if err != nil {
		return err
	}
	opts = opts.withDefaults()

	switch c.Spec.Kind {
	case dashboard.KindLine:
		return lineChart(c, opts).Render(rp, w)
	case dashboard.KindBar:
		bc, err := barChart(c, opts)
		if err != nil {
			return err
		}
		return bc.Render(rp, w)
	case dashboard.KindPie:
		if c.Spec.Hole > 0 {
			return donutChart(c, opts).Render(rp, w)
		}
		return pieChart(c, opts).Render(rp, w)
	default:
		return fmt.Errorf("chart %s: cannot render kind %q", c.Spec.ID, c.Spec.Kind)
	}
}

func Bytes(c dashboard.Chart, f Format, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, c, f, opts); err != nil {
		return nil, fmt.Errorf("rendering %s as %s: %w", c.Spec.ID, f, err)
	}
	return buf.Bytes(), nil
}

func lineChart(c dashboard.Chart, opts Options) chart.Chart {
	xs := make([]float64, len(c.Categories))
	ticks := make([]chart.Tick, len(c.Categories))
	for i, label := range c.Categories {
		xs[i] = float64(i)
		ticks[i] = chart.Tick{Value: float64(i), Label: label}
	}

	var series []chart.Series
	for _, s := range c.Series {
		color := drawing.ColorBlack
		if len(s.Colors) > 0 {
			color = hexColor(s.Colors[0])
		}
		series = append(series, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: s.Values,
			Style: chart.Style{
				StrokeColor: color,
				StrokeWidth: 2,
				DotColor:    color,
				DotWidth:    3,
			},
		})
	}

	return chart.Chart{
		Title:      c.Spec.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: c.Spec.X, Ticks: ticks},
		YAxis:      chart.YAxis{Name: strings.Join(c.Spec.Y, ", ")},
		Series:     series,
	}
}

// barChart lays grouped series side by side within each category; only the
// first bar of a group carries the category label.
func barChart(c dashboard.Chart, opts Options) (chart.BarChart, error) {
	if len(c.Series) == 0 {
		return chart.BarChart{}, fmt.Errorf("chart %s has no series", c.Spec.ID)
	}

	var bars []chart.Value
	for i, label := range c.Categories {
		for j, s := range c.Series {
			if i >= len(s.Values) {
				return chart.BarChart{}, fmt.Errorf("chart %s: series %q is shorter than its categories", c.Spec.ID, s.Name)
			}
			l := label
			if j > 0 {
				l = ""
			}
			color := hexColor(dashboard.PaletteColor(j))
			if i < len(s.Colors) {
				color = hexColor(s.Colors[i])
			}
			bars = append(bars, chart.Value{
				Label: l,
				Value: s.Values[i],
				Style: chart.Style{FillColor: color, StrokeColor: color, StrokeWidth: 1},
			})
		}
	}

	slot := (opts.Width - 120) / len(bars)
	if slot < 4 {
		slot = 4
	}
	return chart.BarChart{
		Title:      c.Spec.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		BarWidth:   slot * 3 / 4,
		BarSpacing: slot / 4,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		Bars:       bars,
	}, nil
}

func pieValues(c dashboard.Chart) []chart.Value {
	if len(c.Series) == 0 {
		return nil
	}
	s := c.Series[0]
	values := make([]chart.Value, 0, len(c.Categories))
	for i, label := range c.Categories {
		if i >= len(s.Values) {
			break
		}
		color := hexColor(dashboard.PaletteColor(i))
		if i < len(s.Colors) {
			color = hexColor(s.Colors[i])
		}
		values = append(values, chart.Value{
			Label: label,
			Value: s.Values[i],
			Style: chart.Style{FillColor: color, StrokeColor: drawing.ColorWhite},
		})
	}
	return values
}

func pieChart(c dashboard.Chart, opts Options) chart.PieChart {
	return chart.PieChart{
		Title:  c.Spec.Title,
		Width:  opts.Width,
		Height: opts.Height,
		Values: pieValues(c),
	}
}

func donutChart(c dashboard.Chart, opts Options) chart.DonutChart {
	return chart.DonutChart{
		Title:  c.Spec.Title,
		Width:  opts.Width,
		Height: opts.Height,
		Values: pieValues(c),
	}
}

func hexColor(hex string) drawing.Color {
	return drawing.ColorFromHex(hex)
}

package dashboard

import (
	"fmt"

	"insightdash/internal/domain"
)

// Series is one run of values drawn against a chart's categories. Colors
// holds one entry per value.
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
	Colors []string  `json:"colors"`
}

// Chart is a spec resolved against a dataset, ready for rendering.
type Chart struct {
	Spec       ChartSpec `json:"spec"`
	Categories []string  `json:"categories"`
	Series     []Series  `json:"series"`
}

// Select binds every chart the view shows. Each call reads only its
// arguments, so nothing from an earlier view survives into the result.
func Select(v View, ds domain.Dataset) ([]Chart, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("%w %q", ErrUnknownView, string(v))
	}
	ids := viewCharts[v]
	charts := make([]Chart, 0, len(ids))
	for _, id := range ids {
		spec, _ := SpecByID(id)
		c, err := Bind(spec, ds)
		if err != nil {
			return nil, fmt.Errorf("binding %s for %s: %w", id, v, err)
		}
		charts = append(charts, c)
	}
	return charts, nil
}

// Bind resolves one spec against the dataset.
func Bind(spec ChartSpec, ds domain.Dataset) (Chart, error) {
	frame, err := ds.Frame(spec.Table)
	if err != nil {
		return Chart{}, err
	}
	switch spec.Kind {
	case KindLine, KindBar:
		return bindXY(spec, frame)
	case KindPie:
		return bindPie(spec, frame)
	default:
		return Chart{}, fmt.Errorf("chart %s: unsupported kind %q", spec.ID, spec.Kind)
	}
}

func bindXY(spec ChartSpec, frame domain.Frame) (Chart, error) {
	categories, err := frame.Labels(spec.X)
	if err != nil {
		return Chart{}, err
	}

	var pointColors []string
	if spec.ColorBy != "" {
		groups, err := frame.Labels(spec.ColorBy)
		if err != nil {
			return Chart{}, err
		}
		pointColors = colorsByCategory(groups)
	}

	chart := Chart{Spec: spec, Categories: categories}
	for i, col := range spec.Y {
		values, err := frame.Numbers(col)
		if err != nil {
			return Chart{}, err
		}
		colors := pointColors
		if colors == nil {
			colors = repeatColor(PaletteColor(i), len(values))
		}
		chart.Series = append(chart.Series, Series{Name: col, Values: values, Colors: colors})
	}
	return chart, nil
}

func bindPie(spec ChartSpec, frame domain.Frame) (Chart, error) {
	names, err := frame.Labels(spec.Names)
	if err != nil {
		return Chart{}, err
	}

	var categories []string
	var values []float64
	if spec.Values == "" {
		index := map[string]int{}
		for _, n := range names {
			i, seen := index[n]
			if !seen {
				i = len(categories)
				index[n] = i
				categories = append(categories, n)
				values = append(values, 0)
			}
			values[i]++
		}
	} else {
		values, err = frame.Numbers(spec.Values)
		if err != nil {
			return Chart{}, err
		}
		categories = names
	}

	colors := make([]string, len(categories))
	for i := range categories {
		colors[i] = PaletteColor(i)
	}
	name := spec.Values
	if name == "" {
		name = "count"
	}
	return Chart{
		Spec:       spec,
		Categories: categories,
		Series:     []Series{{Name: name, Values: values, Colors: colors}},
	}, nil
}

// colorsByCategory gives each distinct label the palette slot of its first
// appearance.
func colorsByCategory(labels []string) []string {
	slots := map[string]int{}
	out := make([]string, len(labels))
	for i, l := range labels {
		slot, ok := slots[l]
		if !ok {
			slot = len(slots)
			slots[l] = slot
		}
		out[i] = PaletteColor(slot)
	}
	return out
}

func repeatColor(c string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = c
	}
	return out
}

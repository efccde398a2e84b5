package dashboard

import (
	"github.com/kartoza/spores-explorer/internal/config"
	"github.com/kartoza/spores-explorer/internal/explorer"
	"github.com/kartoza/spores-explorer/internal/reactive"
	"github.com/kartoza/spores-explorer/internal/urlstate"
)

// Cells of the dashboard graph, named "control-id.property"
const (
	CellHref       reactive.CellID = "url.href"
	CellSearch     reactive.CellID = "url.search"
	CellLayout     reactive.CellID = "page-layout.children"
	CellSelected   reactive.CellID = SelectionControl + ".data"
	CellChartClick reactive.CellID = ChartControl + ".clickData"
	CellDeselect   reactive.CellID = DeselectControl + ".n_clicks"
	CellReset      reactive.CellID = ResetControl + ".n_clicks"
	CellChart      reactive.CellID = ChartControl + ".figure"
	CellCount      reactive.CellID = "result-count.children"
	CellImage      reactive.CellID = "overview-image.src"
	CellSummary    reactive.CellID = "summary-data.children"
)

// SliderCell is the value cell of an indicator's slider
func SliderCell(ind config.Indicator) reactive.CellID {
	return reactive.CellID(ind.ControlID() + "." + urlstate.DefaultProperty)
}

// cells declares every cell, seeded from the initial layout
func (d *Dashboard) cells(href string, layout Layout) []reactive.Cell {
	cells := []reactive.Cell{
		{ID: CellHref, Initial: href},
		{ID: CellSearch, Initial: ""},
		{ID: CellLayout, Initial: layout},
		{ID: CellSelected, Initial: layout.SelectedID},
		{ID: CellChartClick, Initial: (*ClickData)(nil)},
		{ID: CellDeselect, Initial: 0},
		{ID: CellReset, Initial: 0},
		{ID: CellChart, Initial: explorer.Chart{}},
		{ID: CellCount, Initial: 0},
		{ID: CellImage, Initial: EmptyImage},
		{ID: CellSummary, Initial: (*Table)(nil)},
	}
	for i, ind := range d.engine.Indicators() {
		cells = append(cells, reactive.Cell{ID: SliderCell(ind), Initial: layout.Sliders[i].Value})
	}
	return cells
}

// rules wires the dashboard. Registration order is the tie-break order
// between rules that become ready together.
func (d *Dashboard) rules() []reactive.Rule {
	inds := d.engine.Indicators()
	data := d.engine.Dataset()

	sliders := make([]reactive.CellID, len(inds))
	for i, ind := range inds {
		sliders[i] = SliderCell(ind)
	}

	return []reactive.Rule{
		{
			Name:     "page-layout",
			Triggers: []reactive.CellID{CellHref},
			Outputs:  []reactive.CellID{CellLayout},
			Update: func(f reactive.Firing) []any {
				href, _ := f.Value(CellHref).(string)
				return []any{BuildLayout(d.cat, d.engine, urlstate.Decode(href))}
			},
		},
		{
			Name:     "reset-sliders",
			Triggers: []reactive.CellID{CellReset},
			Outputs:  sliders,
			Update: func(f reactive.Firing) []any {
				out := make([]any, len(inds))
				for i, ind := range inds {
					if !f.Triggered(CellReset) {
						out[i] = reactive.NoUpdate
						continue
					}
					b := d.engine.Bounds(ind)
					out[i] = explorer.Range{b.Min, b.Max}
				}
				return out
			},
		},
		{
			Name:     "select-spore",
			Triggers: []reactive.CellID{CellChartClick, CellDeselect, CellSelected},
			Outputs:  []reactive.CellID{CellSelected},
			Update: func(f reactive.Firing) []any {
				old, _ := f.Value(CellSelected).(string)
				return []any{resolveSelection(triggerOf(f), old, data)}
			},
		},
		{
			Name:     "update-figure",
			Triggers: sliders,
			Outputs:  []reactive.CellID{CellChart},
			Update: func(f reactive.Firing) []any {
				c := make(explorer.Constraints, len(inds))
				for i, ind := range inds {
					if r, ok := f.Value(sliders[i]).(explorer.Range); ok {
						c[ind.Column] = r
					}
				}
				return []any{d.engine.Chart(d.engine.Filter(c))}
			},
		},
		{
			Name:     "result-count",
			Triggers: []reactive.CellID{CellChart},
			Outputs:  []reactive.CellID{CellCount},
			Update: func(f reactive.Firing) []any {
				chart, _ := f.Value(CellChart).(explorer.Chart)
				return []any{chart.PointCount()}
			},
		},
		{
			Name:     "overview-image",
			Triggers: []reactive.CellID{CellSelected},
			Outputs:  []reactive.CellID{CellImage},
			Update: func(f reactive.Firing) []any {
				id, _ := f.Value(CellSelected).(string)
				return []any{ImagePath(data, id)}
			},
		},
		{
			Name:     "summary-data",
			Triggers: []reactive.CellID{CellSelected},
			Outputs:  []reactive.CellID{CellSummary},
			Update: func(f reactive.Firing) []any {
				id, _ := f.Value(CellSelected).(string)
				return []any{SummaryTable(data, id)}
			},
		},
		{
			Name:     "url-state",
			Triggers: append([]reactive.CellID{CellSelected}, sliders...),
			Outputs:  []reactive.CellID{CellSearch},
			Update: func(f reactive.Firing) []any {
				id, _ := f.Value(CellSelected).(string)
				ranges := make([]explorer.Range, len(inds))
				for i := range inds {
					ranges[i], _ = f.Value(sliders[i]).(explorer.Range)
				}
				search, err := EncodeSearch(inds, id, ranges)
				if err != nil {
					return []any{reactive.NoUpdate}
				}
				return []any{search}
			},
		},
	}
}

// EncodeSearch encodes the tracked controls: the selection first, then
// every slider in declaration order. No selection is written as None.
func EncodeSearch(inds []config.Indicator, selected string, ranges []explorer.Range) (string, error) {
	params := make([]urlstate.Param, 0, len(inds)+1)

	var sel any
	if selected != "" {
		sel = selected
	}
	params = append(params, urlstate.Param{ID: SelectionControl, Property: "data", Value: sel})

	for i, ind := range inds {
		params = append(params, urlstate.Param{
			ID:       ind.ControlID(),
			Property: urlstate.DefaultProperty,
			Value:    [2]float64(ranges[i]),
		})
	}
	return urlstate.Encode(params)
}

package dashboard

import (
	"github.com/kartoza/spores-explorer/internal/config"
	"github.com/kartoza/spores-explorer/internal/dataset"
	"github.com/kartoza/spores-explorer/internal/explorer"
	"github.com/kartoza/spores-explorer/internal/urlstate"
)

// Control ids shared with the page shell
const (
	SelectionControl = "spore-id"
	ResetControl     = "reset-sliders"
	DeselectControl  = "reset-spore"
	ChartControl     = "spores-scatter"
)

// Slider tracks span the normalized indicator scale
const (
	trackMin = 0.0
	trackMax = 1.0
)

// blankMarks hides the tick labels of every slider but the last
var blankMarks = map[string]string{"0": "", "0.2": "", "0.4": "", "0.6": "", "0.8": "", "1": ""}

// SliderControl is one labelled range slider
type SliderControl struct {
	ID     string            `json:"id"`
	Key    string            `json:"key"`
	Label  string            `json:"label"`
	Help   string            `json:"help,omitempty"`
	Column string            `json:"column"`
	Unit   string            `json:"unit,omitempty"`
	Min    float64           `json:"min"`
	Max    float64           `json:"max"`
	Bounds dataset.Bounds    `json:"bounds"`
	Value  explorer.Range    `json:"value"`
	Marks  map[string]string `json:"marks,omitempty"`
}

// Button is a push button of the control panel
type Button struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Tab is one tab of the detail panel, bound to the cell it displays
type Tab struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Content string `json:"content"`
}

// Layout is the control and panel tree of the page, with every control
// seeded either from its static default or from the URL
type Layout struct {
	Brand      string           `json:"brand"`
	Nav        []config.NavLink `json:"nav"`
	Buttons    []Button         `json:"buttons"`
	Sliders    []SliderControl  `json:"sliders"`
	SelectedID string           `json:"selected_id"`
	Chart      string           `json:"chart"`
	Tabs       []Tab            `json:"tabs"`
	ActiveTab  string           `json:"active_tab"`
}

// BuildLayout builds the page layout. Controls named in state take the
// decoded properties as overrides; values that do not fit a control are
// ignored, slider ranges are clamped to the indicator bounds and an
// unknown selected id is dropped.
func BuildLayout(cat config.Catalogue, engine *explorer.Engine, state urlstate.State) Layout {
	data := engine.Dataset()
	inds := engine.Indicators()

	layout := Layout{
		Brand: cat.Brand,
		Nav:   cat.Nav,
		Buttons: []Button{
			{ID: ResetControl, Label: "Reset sliders"},
			{ID: DeselectControl, Label: "Deselect SPORE"},
		},
		Sliders: make([]SliderControl, 0, len(inds)),
		Chart:   ChartControl,
		Tabs: []Tab{
			{ID: "overview", Label: "Overview", Content: string(CellImage)},
			{ID: "summary", Label: "Summary data", Content: string(CellSummary)},
		},
		ActiveTab: "overview",
	}

	for i, ind := range inds {
		b := engine.Bounds(ind)
		s := SliderControl{
			ID:     ind.ControlID(),
			Key:    ind.Key,
			Label:  ind.Label,
			Help:   ind.Help,
			Column: ind.Column,
			Unit:   data.Unit(ind.Column),
			Min:    trackMin,
			Max:    trackMax,
			Bounds: b,
			Value:  explorer.Range{b.Min, b.Max},
		}
		if i < len(inds)-1 {
			s.Marks = blankMarks
		}
		if v, ok := state.Get(s.ID, urlstate.DefaultProperty); ok {
			if r, ok := urlstate.AsRange(v); ok {
				s.Value = explorer.Range(r).Clamp(b)
			}
		}
		layout.Sliders = append(layout.Sliders, s)
	}

	if v, ok := state.Get(SelectionControl, "data"); ok {
		if id, ok := urlstate.AsString(v); ok && data.Has(id) {
			layout.SelectedID = id
		}
	}

	return layout
}

package dashboard

import (
	"github.com/kartoza/spores-explorer/internal/dataset"
	"github.com/kartoza/spores-explorer/internal/reactive"
)

// ClickPoint is one point of a chart click payload
type ClickPoint struct {
	CurveNumber int   `json:"curveNumber"`
	PointNumber int   `json:"pointNumber"`
	X           any   `json:"x,omitempty"`
	Y           any   `json:"y,omitempty"`
	CustomData  []any `json:"customdata"`
}

// ClickData is the payload the chart emits when a mark is clicked
type ClickData struct {
	Points []ClickPoint `json:"points"`
}

// RecordID returns the leading custom-data field of the first point
func (c *ClickData) RecordID() (string, bool) {
	if c == nil || len(c.Points) == 0 || len(c.Points[0].CustomData) == 0 {
		return "", false
	}
	id, ok := c.Points[0].CustomData[0].(string)
	return id, ok && id != ""
}

// TriggerKind tells which source caused the selection rule to fire
type TriggerKind int

const (
	// NoTrigger: neither a chart click nor a deselect caused the firing
	NoTrigger TriggerKind = iota
	// ChartClicked: a chart mark was clicked
	ChartClicked
	// DeselectClicked: the deselect button was pressed
	DeselectClicked
)

func (k TriggerKind) String() string {
	switch k {
	case ChartClicked:
		return "chart-clicked"
	case DeselectClicked:
		return "deselect-clicked"
	default:
		return "no-trigger"
	}
}

// Trigger is the event handed to the selection rule
type Trigger struct {
	Kind  TriggerKind
	Click *ClickData
}

// triggerOf derives the trigger from the cells that changed in a firing.
// A chart click wins over a deselect arriving in the same firing.
func triggerOf(f reactive.Firing) Trigger {
	switch {
	case f.Triggered(CellChartClick):
		click, _ := f.Value(CellChartClick).(*ClickData)
		return Trigger{Kind: ChartClicked, Click: click}
	case f.Triggered(CellDeselect):
		return Trigger{Kind: DeselectClicked}
	default:
		return Trigger{Kind: NoTrigger}
	}
}

// resolveSelection is the selection rule proper:
//   - a chart click selects the clicked record; an id unknown to the
//     dataset clears the selection, a payload without an id changes nothing
//   - a deselect clears the selection
//   - anything else keeps the previous value, so that a selection restored
//     from the URL survives the initial evaluation
func resolveSelection(t Trigger, old string, data *dataset.Dataset) any {
	switch t.Kind {
	case ChartClicked:
		id, ok := t.Click.RecordID()
		if !ok {
			return reactive.NoUpdate
		}
		if !data.Has(id) {
			return ""
		}
		return id
	case DeselectClicked:
		return ""
	default:
		return old
	}
}

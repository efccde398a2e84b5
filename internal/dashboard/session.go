// Package dashboard is the SPORES explorer proper: the reactive rule set
// that keeps sliders, the strip chart, the selected record, its detail
// panels and the URL in step for one browser session.
package dashboard

import (
	"errors"
	"fmt"
	"sync"

	"github.com/kartoza/spores-explorer/internal/config"
	"github.com/kartoza/spores-explorer/internal/explorer"
	"github.com/kartoza/spores-explorer/internal/reactive"
	"github.com/kartoza/spores-explorer/internal/urlstate"
)

var (
	// ErrUnknownControl is returned for slider events naming no slider
	ErrUnknownControl = errors.New("unknown control")
	// ErrUnknownEvent is returned for unsupported event types
	ErrUnknownEvent = errors.New("unknown event type")
)

// Dashboard holds what every session shares: the catalogue and the
// read-only filter engine
type Dashboard struct {
	cat      config.Catalogue
	engine   *explorer.Engine
	observer func(rule string)
}

// Option configures a Dashboard
type Option func(*Dashboard)

// WithRuleObserver is called with the rule name after every rule firing
func WithRuleObserver(fn func(rule string)) Option {
	return func(d *Dashboard) {
		d.observer = fn
	}
}

// New creates a Dashboard over engine
func New(cat config.Catalogue, engine *explorer.Engine, opts ...Option) *Dashboard {
	d := &Dashboard{cat: cat, engine: engine}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Engine returns the shared filter engine
func (d *Dashboard) Engine() *explorer.Engine {
	return d.engine
}

// Catalogue returns the indicator catalogue
func (d *Dashboard) Catalogue() config.Catalogue {
	return d.cat
}

// Layout builds the page layout for href without creating a session
func (d *Dashboard) Layout(href string) Layout {
	return BuildLayout(d.cat, d.engine, urlstate.Decode(href))
}

// Session is the private cell graph of one browser session. Its methods
// are serialized: one firing completes before the next event is applied.
type Session struct {
	mu        sync.Mutex
	d         *Dashboard
	graph     *reactive.Graph
	deselects int
	resets    int
}

// NewSession resolves the page layout for href first, seeds every control
// from it, then evaluates all rules once
func (d *Dashboard) NewSession(href string) (*Session, error) {
	layout := d.Layout(href)

	var opts []reactive.Option
	if d.observer != nil {
		opts = append(opts, reactive.WithObserver(d.observer))
	}
	g, err := reactive.New(d.cells(href, layout), d.rules(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build dashboard graph: %w", err)
	}
	if _, err := g.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialise dashboard: %w", err)
	}
	return &Session{d: d, graph: g}, nil
}

// Update reports the outcome of one event
type Update struct {
	Changes map[string]any `json:"changes"`
	Search  string         `json:"search"`
}

func (s *Session) update(changes reactive.Changes) Update {
	u := Update{Changes: make(map[string]any, len(changes))}
	for id, v := range changes {
		u.Changes[string(id)] = v
	}
	u.Search, _ = s.value(CellSearch).(string)
	return u
}

func (s *Session) value(id reactive.CellID) any {
	v, _ := s.graph.Get(id)
	return v
}

func (s *Session) set(updates map[reactive.CellID]any) (Update, error) {
	changes, err := s.graph.Set(updates)
	if err != nil {
		return Update{}, err
	}
	return s.update(changes), nil
}

// Navigate rebuilds the layout from href and re-seeds every control from
// it, as a page load does
func (s *Session) Navigate(href string) (Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changes, err := s.graph.Set(map[reactive.CellID]any{CellHref: href})
	if err != nil {
		return Update{}, err
	}
	layout, _ := s.value(CellLayout).(Layout)

	seeds := map[reactive.CellID]any{CellSelected: layout.SelectedID}
	for i, ind := range s.d.engine.Indicators() {
		seeds[SliderCell(ind)] = layout.Sliders[i].Value
	}
	more, err := s.graph.Set(seeds)
	for id, v := range more {
		changes[id] = v
	}
	if err != nil {
		return Update{}, err
	}
	return s.update(changes), nil
}

// MoveSlider is a user drag of the slider controlID. The range is ordered
// and clamped to the indicator bounds.
func (s *Session) MoveSlider(controlID string, r explorer.Range) (Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ind := range s.d.engine.Indicators() {
		if ind.ControlID() == controlID {
			return s.set(map[reactive.CellID]any{SliderCell(ind): r.Clamp(s.d.engine.Bounds(ind))})
		}
	}
	return Update{}, fmt.Errorf("%w: %s", ErrUnknownControl, controlID)
}

// ClickChart delivers a chart click payload
func (s *Session) ClickChart(click *ClickData) (Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set(map[reactive.CellID]any{CellChartClick: click})
}

// Deselect presses the deselect button
func (s *Session) Deselect() (Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deselects++
	return s.set(map[reactive.CellID]any{CellDeselect: s.deselects})
}

// ResetSliders presses the reset button
func (s *Session) ResetSliders() (Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
	return s.set(map[reactive.CellID]any{CellReset: s.resets})
}

// EventType names a user interaction
type EventType string

const (
	EventSlider   EventType = "slider"
	EventClick    EventType = "click"
	EventDeselect EventType = "deselect"
	EventReset    EventType = "reset"
	EventNavigate EventType = "navigate"
)

// Event is a user interaction in transport-neutral form
type Event struct {
	Type    EventType
	Control string
	Value   explorer.Range
	Click   *ClickData
	Href    string
}

// Apply dispatches ev to the matching session method
func (s *Session) Apply(ev Event) (Update, error) {
	switch ev.Type {
	case EventSlider:
		return s.MoveSlider(ev.Control, ev.Value)
	case EventClick:
		return s.ClickChart(ev.Click)
	case EventDeselect:
		return s.Deselect()
	case EventReset:
		return s.ResetSliders()
	case EventNavigate:
		return s.Navigate(ev.Href)
	}
	return Update{}, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
}

// View is the full state of a session
type View struct {
	Layout   Layout                    `json:"layout"`
	Sliders  map[string]explorer.Range `json:"sliders"`
	Selected string                    `json:"selected"`
	Chart    explorer.Chart            `json:"chart"`
	Count    int                       `json:"count"`
	Image    string                    `json:"image"`
	Summary  *Table                    `json:"summary"`
	Search   string                    `json:"search"`
}

// View returns a snapshot of every cell the page displays
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{Sliders: make(map[string]explorer.Range)}
	v.Layout, _ = s.value(CellLayout).(Layout)
	v.Selected, _ = s.value(CellSelected).(string)
	v.Chart, _ = s.value(CellChart).(explorer.Chart)
	v.Count, _ = s.value(CellCount).(int)
	v.Image, _ = s.value(CellImage).(string)
	v.Summary, _ = s.value(CellSummary).(*Table)
	v.Search, _ = s.value(CellSearch).(string)
	for _, ind := range s.d.engine.Indicators() {
		v.Sliders[ind.ControlID()], _ = s.value(SliderCell(ind)).(explorer.Range)
	}
	return v
}

// Package reactive implements a small synchronous dataflow graph: named
// cells hold values, rules recompute output cells from trigger cells.
//
// The dependency graph (cell -> dependent rules) is built once and walked
// deterministically: within a pass rules fire in dependency order, ties
// broken by registration order. A rule may trigger on its own output; that
// edge is the only cycle allowed and is resolved in a following pass.
package reactive

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
)

var (
	// ErrUnknownCell is returned when a rule or a write names an undeclared cell
	ErrUnknownCell = errors.New("unknown cell")
	// ErrCycle is returned when rules depend on each other in a loop
	ErrCycle = errors.New("dependency cycle between rules")
	// ErrNoFixedPoint is returned when propagation does not settle
	ErrNoFixedPoint = errors.New("propagation did not reach a fixed point")
)

// CellID names a cell, conventionally "control-id.property"
type CellID string

// noUpdate is the type of NoUpdate
type noUpdate struct{}

// NoUpdate may be returned for an output to leave that cell untouched
var NoUpdate any = noUpdate{}

// Cell declares a cell and its value before any rule has fired
type Cell struct {
	ID      CellID
	Initial any
}

// Rule recomputes its outputs from the current cell values. Update must be
// a pure function of the values it reads and return one value per output.
type Rule struct {
	Name     string
	Triggers []CellID
	Reads    []CellID
	Outputs  []CellID
	Update   func(f Firing) []any
}

// Firing is what a rule sees when it runs
type Firing struct {
	// Initial is set on the evaluation done by Graph.Init
	Initial bool
	// Changed holds the trigger cells whose change caused this firing. It
	// is empty on the initial evaluation.
	Changed map[CellID]bool
	values  map[CellID]any
}

// Value returns the current value of a trigger or read cell
func (f Firing) Value(id CellID) any {
	return f.values[id]
}

// Triggered reports whether id changed in this firing
func (f Firing) Triggered(id CellID) bool {
	return f.Changed[id]
}

// Changes maps every cell whose value changed to its new value
type Changes map[CellID]any

// Option configures a Graph
type Option func(*Graph)

// WithObserver registers fn to be called after every rule firing
func WithObserver(fn func(rule string)) Option {
	return func(g *Graph) {
		g.observer = fn
	}
}

// WithMaxPasses bounds the number of propagation passes per update
func WithMaxPasses(n int) Option {
	return func(g *Graph) {
		g.maxPasses = n
	}
}

// Graph holds cell values and the compiled rule order. It is not safe for
// concurrent use; callers serialize access per graph.
type Graph struct {
	values     map[CellID]any
	rules      []Rule
	order      []int
	position   []int
	dependents map[CellID][]int
	observer   func(rule string)
	maxPasses  int
}

// New validates cells and rules and builds the dependency order
func New(cells []Cell, rules []Rule, opts ...Option) (*Graph, error) {
	g := &Graph{
		values:     make(map[CellID]any, len(cells)),
		rules:      rules,
		dependents: make(map[CellID][]int),
		maxPasses:  8,
	}
	for _, opt := range opts {
		opt(g)
	}

	for _, c := range cells {
		if _, dup := g.values[c.ID]; dup {
			return nil, fmt.Errorf("cell %q declared twice", c.ID)
		}
		g.values[c.ID] = c.Initial
	}

	writer := make(map[CellID]int)
	for i, r := range rules {
		if r.Update == nil || len(r.Outputs) == 0 {
			return nil, fmt.Errorf("rule %q needs outputs and an update function", r.Name)
		}
		for _, id := range concat(r.Triggers, r.Reads, r.Outputs) {
			if _, ok := g.values[id]; !ok {
				return nil, fmt.Errorf("%w %q in rule %q", ErrUnknownCell, id, r.Name)
			}
		}
		for _, id := range r.Outputs {
			if w, taken := writer[id]; taken {
				return nil, fmt.Errorf("cell %q written by both %q and %q", id, rules[w].Name, r.Name)
			}
			writer[id] = i
		}
		for _, id := range r.Triggers {
			g.dependents[id] = append(g.dependents[id], i)
		}
	}

	order, err := sortRules(rules, g.dependents)
	if err != nil {
		return nil, err
	}
	g.order = order
	g.position = make([]int, len(rules))
	for pos, idx := range order {
		g.position[idx] = pos
	}
	return g, nil
}

func concat(lists ...[]CellID) []CellID {
	var out []CellID
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// sortRules orders rules so that a rule comes after every rule writing one
// of its triggers. Self edges are ignored. Among ready rules the lowest
// registration index goes first.
func sortRules(rules []Rule, dependents map[CellID][]int) ([]int, error) {
	indegree := make([]int, len(rules))
	edges := make([][]int, len(rules))
	for i, r := range rules {
		seen := map[int]bool{}
		for _, out := range r.Outputs {
			for _, d := range dependents[out] {
				if d == i || seen[d] {
					continue
				}
				seen[d] = true
				edges[i] = append(edges[i], d)
				indegree[d]++
			}
		}
	}

	var ready, order []int
	for i := range rules {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}
	for len(ready) > 0 {
		sort.Ints(ready)
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		for _, d := range edges[next] {
			indegree[d]--
			if indegree[d] == 0 {
				ready = append(ready, d)
			}
		}
	}
	if len(order) != len(rules) {
		return nil, ErrCycle
	}
	return order, nil
}

// Get returns the current value of a cell
func (g *Graph) Get(id CellID) (any, error) {
	v, ok := g.values[id]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownCell, id)
	}
	return v, nil
}

// Snapshot returns a copy of every cell value
func (g *Graph) Snapshot() map[CellID]any {
	out := make(map[CellID]any, len(g.values))
	for k, v := range g.values {
		out[k] = v
	}
	return out
}

// Init evaluates every rule once, in dependency order, with no trigger
// recorded, then propagates whatever changed
func (g *Graph) Init() (Changes, error) {
	pending := make(map[int]map[CellID]bool, len(g.rules))
	for i := range g.rules {
		pending[i] = map[CellID]bool{}
	}
	return g.propagate(pending, Changes{}, true)
}

// Set writes values coming from outside the graph (user input) and fires
// every rule triggered by them. Written cells count as changed even when
// the value is equal to the previous one, like a repeated click.
func (g *Graph) Set(updates map[CellID]any) (Changes, error) {
	ids := make([]CellID, 0, len(updates))
	for id := range updates {
		if _, ok := g.values[id]; !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownCell, id)
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	changes := Changes{}
	pending := map[int]map[CellID]bool{}
	for _, id := range ids {
		if !reflect.DeepEqual(g.values[id], updates[id]) {
			changes[id] = updates[id]
		}
		g.values[id] = updates[id]
		for _, d := range g.dependents[id] {
			mark(pending, d, id)
		}
	}
	return g.propagate(pending, changes, false)
}

func mark(pending map[int]map[CellID]bool, rule int, cell CellID) {
	if pending[rule] == nil {
		pending[rule] = map[CellID]bool{}
	}
	pending[rule][cell] = true
}

func (g *Graph) propagate(pending map[int]map[CellID]bool, changes Changes, initial bool) (Changes, error) {
	for pass := 0; len(pending) > 0; pass++ {
		if pass >= g.maxPasses {
			return changes, ErrNoFixedPoint
		}
		next := map[int]map[CellID]bool{}
		for _, idx := range g.order {
			changed, ok := pending[idx]
			if !ok {
				continue
			}
			g.fire(idx, changed, initial && pass == 0, pending, next, changes)
		}
		pending = next
	}
	return changes, nil
}

func (g *Graph) fire(idx int, changed map[CellID]bool, initial bool, pending, next map[int]map[CellID]bool, changes Changes) {
	r := g.rules[idx]
	outputs := r.Update(Firing{Initial: initial, Changed: changed, values: g.values})
	if g.observer != nil {
		g.observer(r.Name)
	}
	if len(outputs) != len(r.Outputs) {
		panic(fmt.Sprintf("reactive: rule %q returned %d values for %d outputs", r.Name, len(outputs), len(r.Outputs)))
	}

	for i, id := range r.Outputs {
		v := outputs[i]
		if v == NoUpdate || reflect.DeepEqual(g.values[id], v) {
			continue
		}
		g.values[id] = v
		changes[id] = v
		for _, d := range g.dependents[id] {
			if g.position[d] > g.position[idx] {
				mark(pending, d, id)
			} else {
				mark(next, d, id)
			}
		}
	}
}

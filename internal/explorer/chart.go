package explorer

import "github.com/kartoza/spores-explorer/internal/dataset"

// Palette colors indicators in declaration order, cycling past the ninth
var Palette = []string{
	"#0440fe",
	"#ff7c02",
	"#32ce4d",
	"#e9111c",
	"#933ae2",
	"#7f3901",
	"#f69adb",
	"#ffd85b",
	"#58e5fe",
}

// Mark is one plotted point: one record's value for one indicator
type Mark struct {
	Indicator  string  `json:"x"`
	Value      float64 `json:"y"`
	RecordID   string  `json:"id"`
	CustomData []any   `json:"customdata"`
	HoverName  string  `json:"hovertext"`
	Color      string  `json:"color"`
}

// Series groups the marks of one indicator
type Series struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Color string `json:"color"`
	Marks []Mark `json:"marks"`
}

// Margin is the plot margin in pixels
type Margin struct {
	L int `json:"l"`
	R int `json:"r"`
	T int `json:"t"`
	B int `json:"b"`
}

// Layout carries the presentation attributes of the chart
type Layout struct {
	Height             int    `json:"height"`
	Template           string `json:"template"`
	ShowLegend         bool   `json:"showlegend"`
	Margin             Margin `json:"margin"`
	TransitionDuration int    `json:"transition_duration"`
	ShowXTickLabels    bool   `json:"xaxis_showticklabels"`
}

// Chart is a declarative strip chart description: indicators on the
// categorical x axis, values on the y axis
type Chart struct {
	Type   string   `json:"type"`
	Series []Series `json:"series"`
	Layout Layout   `json:"layout"`
}

// DefaultLayout is the layout of every chart the engine produces
var DefaultLayout = Layout{
	Height:             350,
	Template:           "plotly_white",
	ShowLegend:         false,
	TransitionDuration: 500,
	ShowXTickLabels:    false,
}

// Chart builds one series per indicator holding a mark for every record
func (e *Engine) Chart(records []dataset.Record) Chart {
	chart := Chart{
		Type:   "strip",
		Series: make([]Series, len(e.indicators)),
		Layout: DefaultLayout,
	}
	for i, ind := range e.indicators {
		color := Palette[i%len(Palette)]
		s := Series{
			Name:  ind.Column,
			Label: ind.Label,
			Color: color,
			Marks: make([]Mark, 0, len(records)),
		}
		for _, r := range records {
			s.Marks = append(s.Marks, Mark{
				Indicator:  ind.Column,
				Value:      r.Values[ind.Column],
				RecordID:   r.ID,
				CustomData: []any{r.ID},
				HoverName:  r.ID,
				Color:      color,
			})
		}
		chart.Series[i] = s
	}
	return chart
}

// Marks returns every mark of every series
func (c Chart) Marks() []Mark {
	var out []Mark
	for _, s := range c.Series {
		out = append(out, s.Marks...)
	}
	return out
}

// PointCount is the number of marks in the first series, which is the
// number of records plotted
func (c Chart) PointCount() int {
	if len(c.Series) == 0 {
		return 0
	}
	return len(c.Series[0].Marks)
}

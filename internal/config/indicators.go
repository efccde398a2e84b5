package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Indicator describes one filterable indicator column of the dataset
type Indicator struct {
	Key    string `yaml:"key" json:"key"`
	Label  string `yaml:"label" json:"label"`
	Column string `yaml:"column" json:"column"`
	Help   string `yaml:"help,omitempty" json:"help,omitempty"`
}

// ControlID is the id of the range slider bound to this indicator
func (i Indicator) ControlID() string {
	return "slider-" + i.Key
}

// NavLink is a navigation bar entry of the page shell
type NavLink struct {
	Label string `yaml:"label" json:"label"`
	Icon  string `yaml:"icon,omitempty" json:"icon,omitempty"`
	Href  string `yaml:"href" json:"href"`
}

// Catalogue is the static description of the dashboard: its title,
// navigation and indicators in display order
type Catalogue struct {
	Brand      string      `yaml:"brand"`
	Nav        []NavLink   `yaml:"nav"`
	Indicators []Indicator `yaml:"indicators"`
}

// DefaultCatalogue returns the built-in nine-indicator catalogue
func DefaultCatalogue() Catalogue {
	return Catalogue{
		Brand: "Europe-wide energy system explorer",
		Nav: []NavLink{
			{Label: "See the paper", Icon: "bi-box-arrow-right", Href: "#"},
			{Label: "Download the data", Icon: "bi-download", Href: "#"},
		},
		Indicators: []Indicator{
			{Key: "storage", Label: "Storage capacity", Column: "Storage discharge capacity",
				Help: "Total discharge capacity of electricity storage technologies."},
			{Key: "curtailment", Label: "Curtailment", Column: "Curtailment",
				Help: "Share of available renewable generation that is curtailed."},
			{Key: "biofuel", Label: "Biofuel utilisation", Column: "Biofuel utilisation",
				Help: "Share of the available biofuel potential that is used."},
			{Key: "import", Label: "National import", Column: "Average national import",
				Help: "Average share of national demand met by imports."},
			{Key: "elec-gini", Label: "Electricity gini", Column: "Electricity production Gini coefficient",
				Help: "Inequality of electricity production across regions."},
			{Key: "fuel-gini", Label: "Fuel autarky", Column: "Fuel autarky Gini coefficient",
				Help: "Inequality of fuel self-sufficiency across regions."},
			{Key: "ev", Label: "EV as flexibility", Column: "EV as flexibility",
				Help: "Use of electric vehicle batteries as a source of flexibility."},
			{Key: "heat", Label: "Heat electrification", Column: "Heat electrification",
				Help: "Share of heat demand met by electricity."},
			{Key: "transport", Label: "Transport electrification", Column: "Transport electrification",
				Help: "Share of transport demand met by electricity."},
		},
	}
}

// LoadCatalogue reads a YAML catalogue from path. An empty path or a
// missing file yields the built-in catalogue.
func LoadCatalogue(path string) (Catalogue, error) {
	if path == "" {
		return DefaultCatalogue(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultCatalogue(), nil
		}
		return Catalogue{}, fmt.Errorf("failed to read indicator catalogue: %w", err)
	}

	cat := DefaultCatalogue()
	var override Catalogue
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Catalogue{}, fmt.Errorf("failed to parse indicator catalogue: %w", err)
	}
	if override.Brand != "" {
		cat.Brand = override.Brand
	}
	if override.Nav != nil {
		cat.Nav = override.Nav
	}
	if override.Indicators != nil {
		cat.Indicators = override.Indicators
	}
	if err := cat.Validate(); err != nil {
		return Catalogue{}, err
	}
	return cat, nil
}

// Validate checks that indicator keys and columns are present and unique
func (c Catalogue) Validate() error {
	if len(c.Indicators) == 0 {
		return errors.New("indicator catalogue is empty")
	}
	keys := make(map[string]bool, len(c.Indicators))
	cols := make(map[string]bool, len(c.Indicators))
	for _, ind := range c.Indicators {
		if ind.Key == "" || ind.Column == "" {
			return fmt.Errorf("indicator %q: key and column are required", ind.Label)
		}
		if keys[ind.Key] {
			return fmt.Errorf("duplicate indicator key %q", ind.Key)
		}
		if cols[ind.Column] {
			return fmt.Errorf("duplicate indicator column %q", ind.Column)
		}
		keys[ind.Key] = true
		cols[ind.Column] = true
	}
	return nil
}

// Columns returns the dataset column of every indicator in order
func (c Catalogue) Columns() []string {
	cols := make([]string, len(c.Indicators))
	for i, ind := range c.Indicators {
		cols[i] = ind.Column
	}
	return cols
}

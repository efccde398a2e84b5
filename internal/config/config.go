package config

import "time"

// Config holds the application configuration
type Config struct {
	Port           int
	DataDir        string
	AssetsDir      string
	SporesFile     string
	UnitsFile      string
	IndicatorsFile string
	SessionTTL     time.Duration
	Headless       bool
	Version        string
}

// Default file names inside the data directory
const (
	DefaultSporesFile = "spores_data.csv"
	DefaultUnitsFile  = "units.csv"
	DefaultSessionTTL = 30 * time.Minute
)

// Default returns the built-in configuration used when neither flags nor
// a settings file provide a value
func Default() Config {
	return Config{
		Port:       8050,
		DataDir:    "./data",
		AssetsDir:  "./assets",
		SporesFile: DefaultSporesFile,
		UnitsFile:  DefaultUnitsFile,
		SessionTTL: DefaultSessionTTL,
	}
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// SettingsFileName is the name of the settings file inside the config store
const SettingsFileName = "settings.toml"

// Settings holds values persisted in the TOML settings file. Zero values
// mean "not set" and leave the corresponding Config field untouched.
type Settings struct {
	Port           int    `toml:"port"`
	DataDir        string `toml:"data_dir"`
	AssetsDir      string `toml:"assets_dir"`
	SporesFile     string `toml:"spores_file"`
	UnitsFile      string `toml:"units_file"`
	IndicatorsFile string `toml:"indicators_file"`
	SessionTTL     string `toml:"session_ttl"`
	Headless       *bool  `toml:"headless"`
}

// ConfigStoreDir returns the per-user directory holding the settings file
func ConfigStoreDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(base, "spores-explorer"), nil
}

// DefaultSettingsPath returns the settings file location used when no
// explicit path is given
func DefaultSettingsPath() (string, error) {
	dir, err := ConfigStoreDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SettingsFileName), nil
}

// LoadSettings reads the settings file at path. A missing file yields empty
// settings and no error.
func LoadSettings(path string) (*Settings, error) {
	var s Settings
	if path == "" {
		return &s, nil
	}
	if _, err := toml.DecodeFile(path, &s); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &s, nil
		}
		return nil, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	return &s, nil
}

// Apply copies every value set in s onto cfg
func (s *Settings) Apply(cfg *Config) error {
	if s.Port != 0 {
		cfg.Port = s.Port
	}
	if s.DataDir != "" {
		cfg.DataDir = s.DataDir
	}
	if s.AssetsDir != "" {
		cfg.AssetsDir = s.AssetsDir
	}
	if s.SporesFile != "" {
		cfg.SporesFile = s.SporesFile
	}
	if s.UnitsFile != "" {
		cfg.UnitsFile = s.UnitsFile
	}
	if s.IndicatorsFile != "" {
		cfg.IndicatorsFile = s.IndicatorsFile
	}
	if s.SessionTTL != "" {
		ttl, err := time.ParseDuration(s.SessionTTL)
		if err != nil {
			return fmt.Errorf("invalid session_ttl %q: %w", s.SessionTTL, err)
		}
		cfg.SessionTTL = ttl
	}
	if s.Headless != nil {
		cfg.Headless = *s.Headless
	}
	return nil
}

// SporesPath resolves the primary table path against the data directory
func (c Config) SporesPath() string {
	return resolve(c.DataDir, c.SporesFile)
}

// UnitsPath resolves the units table path against the data directory
func (c Config) UnitsPath() string {
	return resolve(c.DataDir, c.UnitsFile)
}

func resolve(dir, name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsMissingFile(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Settings{}, *s)
}

func TestSettingsApply(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, SettingsFileName)
	content := `
port = 9000
data_dir = "/srv/spores"
spores_file = "spores.sqlite"
session_ttl = "5m"
headless = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	s, err := LoadSettings(path)
	require.NoError(t, err)

	cfg := Default()
	require.NoError(t, s.Apply(&cfg))

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "/srv/spores", cfg.DataDir)
	assert.Equal(t, "/srv/spores/spores.sqlite", cfg.SporesPath())
	assert.Equal(t, "/srv/spores/units.csv", cfg.UnitsPath())
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL)
	assert.True(t, cfg.Headless)
	assert.Equal(t, "./assets", cfg.AssetsDir)
}

func TestSettingsApplyBadTTL(t *testing.T) {
	s := &Settings{SessionTTL: "soon"}
	cfg := Default()
	assert.Error(t, s.Apply(&cfg))
}

func TestLoadSettingsInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), SettingsFileName)
	require.NoError(t, os.WriteFile(path, []byte("port = = 1"), 0644))

	_, err := LoadSettings(path)
	assert.Error(t, err)
}

func TestDefaultCatalogue(t *testing.T) {
	cat := DefaultCatalogue()
	require.NoError(t, cat.Validate())
	require.Len(t, cat.Indicators, 9)
	assert.Equal(t, "slider-storage", cat.Indicators[0].ControlID())
	assert.Equal(t, "Transport electrification", cat.Columns()[8])
}

func TestLoadCatalogueOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "indicators.yaml")
	content := `
brand: Test explorer
indicators:
  - key: storage
    label: Storage
    column: Storage discharge capacity
  - key: heat
    label: Heat
    column: Heat electrification
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cat, err := LoadCatalogue(path)
	require.NoError(t, err)
	assert.Equal(t, "Test explorer", cat.Brand)
	assert.Len(t, cat.Nav, 2, "nav falls back to defaults")
	require.Len(t, cat.Indicators, 2)
	assert.Equal(t, "heat", cat.Indicators[1].Key)
}

func TestLoadCatalogueDuplicateKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "indicators.yaml")
	content := `
indicators:
  - {key: a, label: A, column: X}
  - {key: a, label: B, column: Y}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := LoadCatalogue(path)
	assert.ErrorContains(t, err, "duplicate indicator key")
}

func TestLoadCatalogueMissingFile(t *testing.T) {
	cat, err := LoadCatalogue(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Len(t, cat.Indicators, 9)
}

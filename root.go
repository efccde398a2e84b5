package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kartoza/spores-explorer/internal/config"
)

// Global flag values.
var (
	configPath string
	noColor    bool
)

// rootCmd is the base command for spores-explorer.
var rootCmd = &cobra.Command{
	Use:   "spores-explorer",
	Short: "Explore SPORES energy system scenarios in the browser",
	Long: `spores-explorer serves an interactive dashboard over a table of SPORES
(spatially explicit practically optimal results). Range sliders filter the
records, a strip chart shows the survivors, and the whole view is kept in
the page URL so it can be bookmarked and shared.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "settings file (TOML); defaults to the user config directory")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(urlCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves the configuration: flags that were set win over the
// settings file, which wins over the built-in defaults
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	cfg.Version = Version

	path := configPath
	if path == "" {
		if p, err := config.DefaultSettingsPath(); err == nil {
			path = p
		}
	}
	settings, err := config.LoadSettings(path)
	if err != nil {
		return cfg, err
	}
	if err := settings.Apply(&cfg); err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if changed(flags, "port") {
		cfg.Port, _ = flags.GetInt("port")
	}
	if changed(flags, "data-dir") {
		cfg.DataDir, _ = flags.GetString("data-dir")
	}
	if changed(flags, "assets-dir") {
		cfg.AssetsDir, _ = flags.GetString("assets-dir")
	}
	if changed(flags, "indicators") {
		cfg.IndicatorsFile, _ = flags.GetString("indicators")
	}
	if changed(flags, "session-ttl") {
		cfg.SessionTTL, _ = flags.GetDuration("session-ttl")
	}
	if changed(flags, "headless") {
		cfg.Headless, _ = flags.GetBool("headless")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return cfg, fmt.Errorf("invalid port %d", cfg.Port)
	}
	return cfg, nil
}

// changed reports whether the flag name exists on flags and was set
func changed(flags *pflag.FlagSet, name string) bool {
	return flags.Lookup(name) != nil && flags.Changed(name)
}

// addDataFlags registers the flags locating the dataset
func addDataFlags(cmd *cobra.Command) {
	cmd.Flags().String("data-dir", "", "directory containing spores_data.csv and units.csv (or SQLite equivalents)")
	cmd.Flags().String("indicators", "", "YAML indicator catalogue overriding the built-in one")
}

package main

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kartoza/spores-explorer/internal/config"
	"github.com/kartoza/spores-explorer/internal/dataset"
	"github.com/kartoza/spores-explorer/internal/explorer"
)

// inspectCmd summarizes the dataset the server would load.
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Summarize the SPORES dataset",
	Long: `Load the SPORES table and its units exactly as serve does and print the
record count, every column with its unit and observed range, and the
indicators the dashboard filters on.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cat, err := config.LoadCatalogue(cfg.IndicatorsFile)
		if err != nil {
			return err
		}
		data, err := dataset.Load(cmd.Context(), cfg.SporesPath(), cfg.UnitsPath())
		if err != nil {
			return err
		}
		engine, err := explorer.NewEngine(data, cat.Indicators)
		if err != nil {
			return err
		}
		return printInspect(cmd.OutOrStdout(), cfg, engine)
	},
}

func init() {
	addDataFlags(inspectCmd)
}

func printInspect(out io.Writer, cfg config.Config, engine *explorer.Engine) error {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	dim := color.New(color.Faint)

	data := engine.Dataset()
	bold.Fprintf(out, "Dataset %s\n", cfg.SporesPath())
	fmt.Fprintf(out, "  records: %s\n", green.Sprint(data.Len()))
	fmt.Fprintf(out, "  columns: %s\n\n", green.Sprint(len(data.Columns())))

	indicators := make(map[string]string, len(engine.Indicators()))
	for _, ind := range engine.Indicators() {
		indicators[ind.Column] = ind.ControlID()
	}

	bold.Fprintln(out, "Columns")
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  COLUMN\tUNIT\tMIN\tMAX\tCONTROL")
	for _, col := range data.Columns() {
		b, err := data.Bounds(col)
		if err != nil {
			return err
		}
		unit := data.Unit(col)
		if unit == "" {
			unit = dim.Sprint("-")
		}
		control := indicators[col]
		if control == "" {
			control = dim.Sprint("-")
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", col, unit, formatBound(b.Min), formatBound(b.Max), control)
	}
	return tw.Flush()
}

func formatBound(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.4g", v)
}

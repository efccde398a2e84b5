package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kartoza/spores-explorer/internal/urlstate"
)

// urlCmd groups the dashboard URL helpers.
var urlCmd = &cobra.Command{
	Use:   "url",
	Short: "Encode and decode dashboard URL state",
}

var urlEncodeCmd = &cobra.Command{
	Use:   "encode KEY=LITERAL...",
	Short: "Encode control values into a query string",
	Long: `Encode control values into the query string the dashboard writes.
Keys are "id" or "id::property"; values are Python-style literals.

  spores-explorer url encode 'spore-id::data="S042"' 'slider-storage=[0.2, 0.9]'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := make([]urlstate.Param, 0, len(args))
		for _, arg := range args {
			key, literal, ok := strings.Cut(arg, "=")
			if !ok {
				return fmt.Errorf("expected KEY=LITERAL, got %q", arg)
			}
			id, prop, ok := urlstate.SplitKey(key)
			if !ok {
				return fmt.Errorf("invalid key %q", key)
			}
			v, err := urlstate.Parse(literal)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", key, err)
			}
			params = append(params, urlstate.Param{ID: id, Property: prop, Value: v})
		}
		search, err := urlstate.Encode(params)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), search)
		return nil
	},
}

var urlDecodeCmd = &cobra.Command{
	Use:   "decode URL",
	Short: "Decode a dashboard URL into control values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cyan := color.New(color.FgCyan)
		out := cmd.OutOrStdout()

		state := urlstate.Decode(args[0])
		ids := make([]string, 0, len(state))
		for id := range state {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			props := make([]string, 0, len(state[id]))
			for p := range state[id] {
				props = append(props, p)
			}
			sort.Strings(props)
			for _, p := range props {
				repr, err := urlstate.Repr(state[id][p])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s = %s\n", cyan.Sprint(urlstate.Key(id, p)), repr)
			}
		}
		return nil
	},
}

func init() {
	urlCmd.AddCommand(urlEncodeCmd)
	urlCmd.AddCommand(urlDecodeCmd)
}

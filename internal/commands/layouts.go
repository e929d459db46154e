package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/stmtmerge/internal/layout"
)

func newLayoutsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "layouts [name]",
		Short: "List the statement layouts stmtmerge recognizes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := layout.Default()
			if len(args) == 1 {
				d, ok := catalog.Get(args[0])
				if !ok {
					return fmt.Errorf("unknown layout %q", args[0])
				}
				catalog = layout.Catalog{d}
			}
			return printLayouts(cmd.OutOrStdout(), catalog)
		},
	}
}

func printLayouts(out io.Writer, catalog layout.Catalog) error {
	if err := catalog.Validate(); err != nil {
		return err
	}
	for i, d := range catalog {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%s\n", d.Name)

		switch s := d.Shape.(type) {
		case layout.Simple:
			fmt.Fprintf(out, "  shape:     simple\n")
		case layout.Directed:
			fmt.Fprintf(out, "  shape:     directed (%s = %q pays from %s)\n", s.DirectionColumn, s.OutboundMarker, s.One.IDColumn)
			fmt.Fprintf(out, "  subject:   %t\n", s.OneIsSubject)
		}
		fmt.Fprintf(out, "  time:      %s (%s", d.Time.Column, d.Time.Layout)
		if d.Time.FallbackLayout != "" {
			fmt.Fprintf(out, ", %s", d.Time.FallbackLayout)
		}
		fmt.Fprintln(out, ")")
		if d.DedupColumn != "" {
			fmt.Fprintf(out, "  dedup:     %s\n", d.DedupColumn)
		}
		fmt.Fprintf(out, "  requires:  %s\n", strings.Join(d.RequiredColumns(), ", "))
	}
	return nil
}

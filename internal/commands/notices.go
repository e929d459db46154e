package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/stmtmerge/internal/report"
)

func newNoticesCommand() *cobra.Command {
	var (
		configPath string
		outDir     string
		runID      string
		kind       string
	)

	cmd := &cobra.Command{
		Use:   "notices",
		Short: "Print skipped files and warnings recorded by earlier runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("out") {
				cfg.Output.Dir = outDir
			}
			return printNotices(cmd.OutOrStdout(), cfg.Output.Dir, runID, report.Kind(kind))
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory holding "+report.FileName)
	cmd.Flags().StringVar(&runID, "run", "", "only notices of this run id")
	cmd.Flags().StringVar(&kind, "kind", "", "only notices of this kind (skip, union_failure, warning)")

	return cmd
}

func printNotices(out io.Writer, dir, runID string, kind report.Kind) error {
	entries, err := report.Read(dir)
	if err != nil {
		return err
	}

	shown := 0
	for _, e := range entries {
		if runID != "" && e.RunID != runID {
			continue
		}
		if kind != "" && e.Kind != kind {
			continue
		}
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Kind, e.Path, e.Detail)
		shown++
	}
	if shown == 0 {
		fmt.Fprintln(out, "No notices.")
	}
	return nil
}

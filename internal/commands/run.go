package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/stmtmerge/internal/config"
	"github.com/cleared-dev/stmtmerge/internal/dataset"
	"github.com/cleared-dev/stmtmerge/internal/layout"
	"github.com/cleared-dev/stmtmerge/internal/logger"
	"github.com/cleared-dev/stmtmerge/internal/reader"
	"github.com/cleared-dev/stmtmerge/internal/report"
	"github.com/cleared-dev/stmtmerge/internal/writer"
)

type runFlags struct {
	configPath string
	outDir     string
	formats    []string
	workers    int
	noDedup    bool
}

func newRunCommand() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run <path>...",
		Short: "Merge statement files and folders into the canonical table",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(f.configPath)
			if err != nil {
				return err
			}
			f.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runMerge(cmd, cfg, args)
		},
	}

	cmd.Flags().StringVar(&f.configPath, "config", "", "config file (default ./"+config.FileName+" if present)")
	cmd.Flags().StringVar(&f.outDir, "out", "", "output directory")
	cmd.Flags().StringSliceVar(&f.formats, "format", nil, "output formats (parquet, csv)")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "files processed in parallel")
	cmd.Flags().BoolVar(&f.noDedup, "no-dedup", false, "keep duplicate transactions across files")

	return cmd
}

// apply overrides config values with flags the user set.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("out") {
		cfg.Output.Dir = f.outDir
	}
	if flags.Changed("format") {
		cfg.Output.Formats = f.formats
	}
	if flags.Changed("workers") {
		cfg.Processing.Workers = f.workers
	}
	if f.noDedup {
		cfg.Processing.Deduplicate = false
	}
}

func runMerge(cmd *cobra.Command, cfg *config.Config, paths []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	runID := uuid.NewString()
	log := logger.WithRun(logger.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Pretty), runID)

	readerOpts, err := cfg.ReaderOptions()
	if err != nil {
		return err
	}
	formats, err := cfg.OutputFormats()
	if err != nil {
		return err
	}

	notices := report.NewLog(runID)
	ds := dataset.New(layout.Default(), reader.DefaultRegistry(readerOpts),
		dataset.WithWorkers(cfg.Processing.Workers),
		dataset.WithLogger(log),
		dataset.WithNotices(notices),
		dataset.WithFormats(cfg.Input.Extensions),
	)

	var files []string
	var total dataset.Summary
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		sum, err := ds.AttachFolder(ctx, p)
		if err != nil {
			return err
		}
		total = add(total, sum)
	}
	if len(files) > 0 {
		total = add(total, ds.AttachMany(ctx, files))
	}

	removed := 0
	if cfg.Processing.Deduplicate {
		removed = ds.Deduplicate()
		log.Info().Int("removed", removed).Msg("deduplicated")
	}

	rows, err := ds.Finalize()
	if err != nil {
		return err
	}

	var written []string
	for _, format := range formats {
		path, err := writer.WriteFile(cfg.Output.Dir, cfg.Output.Basename, format, rows)
		if err != nil {
			return err
		}
		log.Info().Str("path", path).Int("rows", len(rows)).Msg("written")
		written = append(written, path)
	}
	if err := report.Append(cfg.Output.Dir, notices.Entries()); err != nil {
		return fmt.Errorf("writing notices: %w", err)
	}

	printSummary(out, total, removed, len(rows), written, notices)
	return nil
}

func add(a, b dataset.Summary) dataset.Summary {
	return dataset.Summary{
		Files:     a.Files + b.Files,
		Attached:  a.Attached + b.Attached,
		Skipped:   a.Skipped + b.Skipped,
		Cancelled: a.Cancelled + b.Cancelled,
		Rows:      a.Rows + b.Rows,
	}
}

func printSummary(out io.Writer, sum dataset.Summary, removed, rows int, written []string, notices *report.Log) {
	fmt.Fprintf(out, "Files:      %d found, %d merged, %d skipped", sum.Files, sum.Attached, sum.Skipped)
	if sum.Cancelled > 0 {
		fmt.Fprintf(out, ", %d cancelled", sum.Cancelled)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Rows:       %d attached, %d duplicates removed, %d written\n", sum.Rows, removed, rows)
	for _, p := range written {
		fmt.Fprintf(out, "Output:     %s\n", p)
	}
	if n := len(notices.Entries()); n > 0 {
		fmt.Fprintf(out, "Notices:    %d skipped, %d rejected, %d warnings (see %s)\n",
			notices.Count(report.KindSkip), notices.Count(report.KindUnion), notices.Count(report.KindWarning),
			report.FileName)
	}
}

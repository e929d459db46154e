package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/stmtmerge/internal/layout"
	"github.com/cleared-dev/stmtmerge/internal/reader"
)

func newDetectCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "detect <file>...",
		Short: "Print the layout each statement file matches",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			opts, err := cfg.ReaderOptions()
			if err != nil {
				return err
			}
			return runDetect(cmd.OutOrStdout(), reader.DefaultRegistry(opts), layout.Default(), args)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file")

	return cmd
}

func runDetect(out io.Writer, files *reader.Registry, catalog layout.Catalog, paths []string) error {
	failed := 0
	for _, path := range paths {
		t, err := files.ReadFile(path)
		if err != nil {
			fmt.Fprintf(out, "%s\terror: %v\n", path, err)
			failed++
			continue
		}

		d, err := catalog.Detect(t.Header)
		var unknown *layout.UnrecognizedLayoutError
		switch {
		case errors.As(err, &unknown):
			fmt.Fprintf(out, "%s\tunrecognized\t[%s]\n", path, strings.Join(unknown.Header, ", "))
			failed++
		case err != nil:
			return err
		default:
			fmt.Fprintf(out, "%s\t%s\t%d rows\n", path, d.Name, t.Len())
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files not recognized", failed, len(paths))
	}
	return nil
}

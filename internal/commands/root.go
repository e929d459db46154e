package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/stmtmerge/internal/buildinfo"
	"github.com/cleared-dev/stmtmerge/internal/config"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "stmtmerge",
		Short:   "Merge bank and payment statements into one transaction table",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newDetectCommand())
	rootCmd.AddCommand(newLayoutsCommand())
	rootCmd.AddCommand(newNoticesCommand())

	return rootCmd
}

// loadConfig reads the config at path. An empty path means stmtmerge.yaml in
// the working directory if there is one, and the defaults otherwise.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if _, err := os.Stat(config.FileName); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return config.Default(), nil
			}
			return nil, fmt.Errorf("checking %s: %w", config.FileName, err)
		}
		path = config.FileName
	}
	return config.Load(path)
}

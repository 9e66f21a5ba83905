package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"shipyard/internal/app"
	"shipyard/internal/config"
	"shipyard/internal/library"
	"shipyard/internal/workspace"
)

// cli carries the services built for the running command.
type cli struct {
	stdout io.Writer
	stderr io.Writer
	app    *app.App
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}
	var logLevel string

	root := &cobra.Command{
		Use:   "shipyard",
		Short: "Starship design persistence and migration tool.",
		Long: `shipyard loads starship design documents of any supported format version,
reports what was migrated or repaired, rewrites them in the current format and
keeps them in a named design library.

Configuration comes from SHIPYARD_* environment variables.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			a, err := app.New(cmd.Context(), cfg, c.stderr)
			if err != nil {
				return err
			}
			c.app = a
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if c.app == nil {
				return nil
			}
			return c.app.Close()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVarP(&logLevel, "loglevel", "l", "", "Set log level. Available: trace, debug, info, warn, error (default from SHIPYARD_LOG_LEVEL)")

	root.AddCommand(
		newInspectCmd(c),
		newHealCmd(c),
		newLibraryCmd(c),
		newCatalogCmd(c),
	)
	return root
}

// reader picks where design names are resolved.
func (c *cli) reader(fromLibrary bool) workspace.Reader {
	if fromLibrary {
		return library.NewFiles(c.app.Library)
	}
	return c.app.Files
}

func (c *cli) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.stdout, format, args...)
}

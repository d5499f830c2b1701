package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the propsync CLI application with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "propsync",
		Short:   "Property record reconciliation",
		Version: a.version,
		Long: `Propsync keeps a destination store of property records in line with an
external table source in which every lifecycle phase is a filtered view.

Each run reads every view, keeps the highest priority sighting of each
property, writes the changes and retags records that vanished from every
view as orphaned.

Settings come from flags, PROPSYNC_* environment variables, .env files and
~/.propsync.yaml, in that order.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "Core Commands:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "inspect",
		Title: "Inspection Commands:",
	})

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&a.config.Verbose, "verbose", "v", a.config.Verbose, "verbose output (shortcut for --log-level=debug)")
	flags.BoolVarP(&a.config.Quiet, "quiet", "q", a.config.Quiet, "minimal output (shortcut for --log-level=warn)")
	flags.BoolVar(&a.config.NoColor, "no-color", a.config.NoColor, "disable colored output")
	flags.StringVarP(&a.config.Format, "format", "o", a.config.Format, "output format: table, json, yaml, markdown")
	flags.StringVar(&a.config.LogLevel, "log-level", a.config.LogLevel, "log level: trace, debug, info, warn, error (overrides -v/-q)")

	flags.StringVar(&a.config.Source, "source", a.config.Source, "record source: tableapi or local")
	flags.StringVar(&a.config.FixturePath, "fixture", a.config.FixturePath, "fixture file for --source=local")
	flags.StringVar(&a.config.Database, "database", a.config.Database, "destination sqlite file, :memory: or memory")
	flags.StringVar(&a.config.MappingFile, "mapping", a.config.MappingFile, "field mapping file (defaults to the built-in mapping)")
	flags.BoolVar(&a.config.DryRun, "dry-run", a.config.DryRun, "compute changes without writing")
	flags.BoolVar(&a.config.Propagate, "propagate", a.config.Propagate, "write phase changes back to the source")
	flags.IntVar(&a.config.WriteConcurrency, "write-concurrency", a.config.WriteConcurrency, "parallel store writes")

	rootCmd.SetVersionTemplate("propsync {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	// Persistent flags write straight into a.config; only the shortcuts
	// need reconciling.
	verbose := mustGetBool(cmd, "verbose")
	quiet := mustGetBool(cmd, "quiet")
	noColor := mustGetBool(cmd, "no-color")
	format := mustGetString(cmd, "format")
	logLevel := mustGetString(cmd, "log-level")

	a.config.UpdateFromFlags(verbose, quiet, noColor, format, logLevel)

	logger := NewLogger(a.config)
	a.logger = &logger

	return nil
}

// ExitOnError prints err and exits with status 1.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

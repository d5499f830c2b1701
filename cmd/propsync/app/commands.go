package app

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/agentstation/propsync/cmd/propsync/cmd/phase"
	"github.com/agentstation/propsync/cmd/propsync/cmd/propagate"
	"github.com/agentstation/propsync/cmd/propsync/cmd/reconcile"
	"github.com/agentstation/propsync/cmd/propsync/cmd/status"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(reconcile.NewCommand(a))
	rootCmd.AddCommand(phase.NewCommand(a))
	rootCmd.AddCommand(propagate.NewCommand(a))

	// Inspection commands
	rootCmd.AddCommand(status.NewCommand(a))
	rootCmd.AddCommand(status.NewPartitionsCommand(a))

	// Utility commands
	rootCmd.AddCommand(a.NewVersionCommand())
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			_, err := fmt.Fprintf(w,
				"propsync version %s\ncommit: %s\nbuilt: %s\nbuilt by: %s\ngo version: %s\nplatform: %s/%s\n",
				a.version, a.commit, a.date, a.builtBy,
				runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return err
		},
	}
}

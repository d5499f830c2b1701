// Package status implements the read-only inspection commands.
package status

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/propsync/internal/appcontext"
	"github.com/agentstation/propsync/internal/cmd/output"
)

// NewCommand creates the status command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		GroupID: "inspect",
		Short:   "Show stored property counts per phase",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := output.Resolve(app.OutputFormat())
			if err != nil {
				return err
			}
			engine, err := app.Engine()
			if err != nil {
				return err
			}

			counts, err := engine.Status(cmd.Context())
			if err != nil {
				return err
			}
			return output.Write(cmd.OutOrStdout(), format, counts, func() output.Data {
				return output.StatusTable(counts)
			})
		},
	}
}

// NewPartitionsCommand creates the partitions command using app context.
func NewPartitionsCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "partitions",
		GroupID: "inspect",
		Short:   "List configured partitions by priority",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := output.Resolve(app.OutputFormat())
			if err != nil {
				return err
			}
			engine, err := app.Engine()
			if err != nil {
				return err
			}

			cfg := engine.Config()
			return output.Write(cmd.OutOrStdout(), format, cfg.PartitionsByPriority(), func() output.Data {
				return output.PartitionsTable(cfg)
			})
		},
	}
}

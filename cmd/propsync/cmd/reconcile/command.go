// Package reconcile implements the reconcile command.
package reconcile

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/propsync/internal/appcontext"
	"github.com/agentstation/propsync/internal/cmd/alerts"
	"github.com/agentstation/propsync/internal/cmd/output"
	"github.com/agentstation/propsync/pkg/errors"
)

// ErrRunFailed is returned when a run ended early or errored records.
var ErrRunFailed = errors.New("reconciliation did not succeed")

// NewCommand creates the reconcile command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reconcile",
		GroupID: "core",
		Short:   "Reconcile every partition into the store",
		Args:    cobra.NoArgs,
		Long: `Reconcile reads every partition of the source, keeps the highest
priority sighting of each property and writes the differences to the
destination store. Externally owned records that appear in no partition
are retagged as orphaned. Orphan detection is skipped for the whole run
when any partition fails to load or the run is interrupted, so a partial
run never orphans anything; the next complete run catches up.

The command exits non-zero when the run ended early or any record failed.`,
		Example: `  propsync reconcile                     # Full run
  propsync reconcile --dry-run           # Preview changes
  propsync reconcile -o json             # Machine-readable result`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := output.Resolve(app.OutputFormat())
			if err != nil {
				return err
			}

			engine, err := app.Engine()
			if err != nil {
				return err
			}

			result := engine.Reconcile(cmd.Context())
			if err := output.Write(cmd.OutOrStdout(), format, result, func() output.Data {
				return output.ResultTable(result)
			}); err != nil {
				return err
			}
			if format == output.FormatTable {
				_ = alerts.NewWriter(cmd.ErrOrStderr(), false).Write(alerts.ForResult(result))
			}

			if !result.Success {
				return fmt.Errorf("%w: %s", ErrRunFailed, result.Summary())
			}
			return nil
		},
	}

	return cmd
}

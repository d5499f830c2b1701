// Package phase implements the sync command, which mirrors a single
// lifecycle partition into the store.
package phase

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/propsync/internal/appcontext"
	"github.com/agentstation/propsync/internal/cmd/alerts"
	"github.com/agentstation/propsync/internal/cmd/output"
	"github.com/agentstation/propsync/pkg/errors"
	"github.com/agentstation/propsync/pkg/property"
)

// NewCommand creates the sync command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	phases := make([]string, 0, len(property.Phases()))
	for _, p := range property.Phases() {
		phases = append(phases, string(p))
	}

	return &cobra.Command{
		Use:       "sync <phase>",
		GroupID:   "core",
		Short:     "Mirror one phase partition into the store",
		Args:      cobra.ExactArgs(1),
		ValidArgs: phases,
		Long: fmt.Sprintf(`Sync reads the partition targeting one phase and upserts every record
with that phase, without priority resolution or orphan detection.

Phases: %s`, strings.Join(phases, ", ")),
		Example: `  propsync sync renovation
  propsync sync awaiting-settlement --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ok := property.ParsePhase(args[0])
			if !ok || p == property.PhaseOrphaned {
				return errors.NewValidationError("phase", args[0],
					"must be one of "+strings.Join(phases, ", "))
			}

			format, err := output.Resolve(app.OutputFormat())
			if err != nil {
				return err
			}
			engine, err := app.Engine()
			if err != nil {
				return err
			}

			result, err := engine.SyncPhase(cmd.Context(), p)
			if err != nil {
				return err
			}
			if err := output.Write(cmd.OutOrStdout(), format, result, func() output.Data {
				return output.PhaseResultTable(result)
			}); err != nil {
				return err
			}
			if format == output.FormatTable {
				_ = alerts.NewWriter(cmd.ErrOrStderr(), false).Write(alerts.ForPhase(result))
			}

			if !result.Success() {
				return fmt.Errorf("sync %s finished with %d errors", p, result.Errors)
			}
			return nil
		},
	}
}

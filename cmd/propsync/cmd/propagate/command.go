// Package propagate implements the propagate command.
package propagate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/propsync/internal/appcontext"
	"github.com/agentstation/propsync/internal/cmd/output"
	"github.com/agentstation/propsync/pkg/errors"
	prop "github.com/agentstation/propsync/pkg/propagate"
)

// Flags holds propagate-specific flags.
type Flags struct {
	Stored bool
}

// NewCommand creates the propagate command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "propagate <key> [field=value...]",
		GroupID: "core",
		Short:   "Write fields back to a source record",
		Args:    cobra.MinimumNArgs(1),
		Long: `Propagate finds the source record with the given business key and
updates the named source fields. With --stored, the configured propagated
fields of the stored property are sent instead.

Rate-limited calls are retried with backoff.`,
		Example: `  propsync propagate X-1 Phase=sold
  propsync propagate X-1 --stored`,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if flags.Stored && len(args) > 1 {
				return errors.NewValidationError("args", args[1:], "--stored takes no field assignments")
			}
			fields, err := ParseAssignments(args[1:])
			if err != nil {
				return err
			}
			if !flags.Stored && len(fields) == 0 {
				return errors.NewValidationError("args", key, "at least one field=value is required")
			}

			format, err := output.Resolve(app.OutputFormat())
			if err != nil {
				return err
			}
			engine, err := app.Engine()
			if err != nil {
				return err
			}

			var outcome prop.Outcome
			if flags.Stored {
				outcome, err = engine.PropagateStored(cmd.Context(), key)
				if err != nil {
					return err
				}
			} else {
				outcome = engine.Propagate(cmd.Context(), key, fields)
			}

			if err := output.Write(cmd.OutOrStdout(), format, output.NewOutcomeReport(outcome), func() output.Data {
				return output.OutcomeTable(outcome)
			}); err != nil {
				return err
			}
			return outcome.Err
		},
	}

	cmd.Flags().BoolVar(&flags.Stored, "stored", false, "send the stored property's propagated fields")

	return cmd
}

// ParseAssignments turns field=value arguments into a field map. Values
// that parse as numbers or booleans are sent typed; everything else is a
// string.
func ParseAssignments(args []string) (map[string]any, error) {
	fields := make(map[string]any, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, errors.NewValidationError("assignment", arg, fmt.Sprintf("expected field=value, got %q", arg))
		}
		fields[name] = typed(value)
	}
	return fields, nil
}

func typed(v string) any {
	switch strings.ToLower(v) {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n
	}
	return v
}

// Package alerts renders the one-line verdict printed after a run.
package alerts

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/agentstation/propsync/pkg/phasesync"
	"github.com/agentstation/propsync/pkg/reconciler"
)

// Level represents the severity of an alert.
type Level int

const (
	// LevelError indicates the run did not succeed.
	LevelError Level = iota
	// LevelWarning indicates the run succeeded with reservations.
	LevelWarning
	// LevelInfo indicates nothing happened.
	LevelInfo
	// LevelSuccess indicates changes were written.
	LevelSuccess
)

// String returns the string representation of the alert level.
func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelInfo:
		return "info"
	case LevelSuccess:
		return "success"
	default:
		return fmt.Sprintf("unknown(%d)", l)
	}
}

// Icon returns the icon for the alert level.
func (l Level) Icon() string {
	switch l {
	case LevelError:
		return "❌"
	case LevelWarning:
		return "⚠️"
	case LevelInfo:
		return "ℹ️"
	case LevelSuccess:
		return "✅"
	default:
		return "❓"
	}
}

func (l Level) color() string {
	switch l {
	case LevelError:
		return "\033[31m"
	case LevelWarning:
		return "\033[33m"
	case LevelInfo:
		return "\033[36m"
	case LevelSuccess:
		return "\033[32m"
	default:
		return "\033[0m"
	}
}

// Alert is a status notification.
type Alert struct {
	Level   Level
	Message string
	Details []string
}

// String returns the alert with its icon.
func (a *Alert) String() string {
	return a.Level.Icon() + " " + a.Message
}

// ForResult classifies a reconciliation result.
func ForResult(r *reconciler.Result) *Alert {
	a := &Alert{Message: r.Summary()}
	switch {
	case !r.Success:
		a.Level = LevelError
	case r.PropagationFailed > 0:
		a.Level = LevelWarning
		a.Details = append(a.Details, fmt.Sprintf("%d propagation writes failed", r.PropagationFailed))
	case r.HasChanges() && !r.DryRun:
		a.Level = LevelSuccess
	default:
		a.Level = LevelInfo
	}
	for _, id := range r.FailedPartitions() {
		a.Details = append(a.Details, "partition "+id+" was unavailable; orphan detection skipped")
	}
	return a
}

// ForPhase classifies a single partition sync.
func ForPhase(r *phasesync.PhaseResult) *Alert {
	msg := fmt.Sprintf("%s: %d fetched, %d created, %d updated, %d errors",
		r.Phase, r.Fetched, r.Created, r.Updated, r.Errors)
	switch {
	case !r.Success():
		return &Alert{Level: LevelError, Message: msg}
	case r.Created+r.Updated > 0 && !r.DryRun:
		return &Alert{Level: LevelSuccess, Message: msg}
	default:
		return &Alert{Level: LevelInfo, Message: msg}
	}
}

// Writer prints alerts, in color when w is a terminal.
type Writer struct {
	w     io.Writer
	color bool
}

// NewWriter creates a Writer for w. noColor forces plain output.
func NewWriter(w io.Writer, noColor bool) *Writer {
	return &Writer{w: w, color: !noColor && isTerminal(w)}
}

// Write prints the alert and its indented details.
func (wr *Writer) Write(a *Alert) error {
	line := a.String()
	if wr.color {
		line = a.Level.color() + line + "\033[0m"
	}
	if _, err := fmt.Fprintln(wr.w, line); err != nil {
		return err
	}
	for _, d := range a.Details {
		if _, err := fmt.Fprintf(wr.w, "   %s\n", d); err != nil {
			return err
		}
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

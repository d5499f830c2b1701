package output

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/propsync/pkg/config"
	"github.com/agentstation/propsync/pkg/phasesync"
	"github.com/agentstation/propsync/pkg/propagate"
	"github.com/agentstation/propsync/pkg/property"
	"github.com/agentstation/propsync/pkg/reconciler"
)

// Write renders raw in machine formats and table() in table and markdown
// formats.
func Write(w io.Writer, format Format, raw any, table func() Data) error {
	switch format {
	case FormatTable, FormatMarkdown, "":
		return NewFormatter(format).Format(w, table())
	default:
		return NewFormatter(format).Format(w, raw)
	}
}

// PhaseLabel renders a phase for humans, e.g. "Awaiting Settlement".
func PhaseLabel(p property.Phase) string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(p), "_", " "))
}

// ResultTable summarises a reconciliation run.
func ResultTable(r *reconciler.Result) Data {
	title := "Reconciliation " + r.RunID
	if r.DryRun {
		title += " (dry run)"
	}
	d := Data{
		Title:   title,
		Headers: []string{"Metric", "Count"},
		Numeric: []bool{false, true},
		Rows: [][]string{
			{"Processed", strconv.Itoa(r.Processed)},
			{"Created", strconv.Itoa(r.Created)},
			{"Updated", strconv.Itoa(r.Updated)},
			{"Unchanged", strconv.Itoa(r.Unchanged)},
			{"Orphaned", strconv.Itoa(r.Orphaned)},
			{"Skipped", strconv.Itoa(r.Skipped)},
			{"Errored", strconv.Itoa(r.Errored)},
		},
	}
	if r.Propagated+r.PropagationFailed > 0 {
		d.Rows = append(d.Rows,
			[]string{"Propagated", strconv.Itoa(r.Propagated)},
			[]string{"Propagation failed", strconv.Itoa(r.PropagationFailed)},
		)
	}
	for _, p := range sortedPhases(r.PhaseCounts) {
		d.Rows = append(d.Rows, []string{"Stored: " + PhaseLabel(p), strconv.Itoa(r.PhaseCounts[p])})
	}

	d.Notes = append(d.Notes, r.Summary())
	for _, p := range r.Partitions {
		if p.Failed() {
			d.Notes = append(d.Notes, fmt.Sprintf("partition %s failed: %s", p.ID, p.Error))
		}
	}
	d.Notes = append(d.Notes, r.Details...)
	if r.DetailsTruncated > 0 {
		d.Notes = append(d.Notes, fmt.Sprintf("... %d more", r.DetailsTruncated))
	}
	return d
}

// PhaseResultTable summarises a single partition sync.
func PhaseResultTable(r *phasesync.PhaseResult) Data {
	d := Data{
		Title:   fmt.Sprintf("%s (%s)", PhaseLabel(r.Phase), r.Partition),
		Headers: []string{"Fetched", "Created", "Updated", "Unchanged", "Skipped", "Errors"},
		Numeric: []bool{true, true, true, true, true, true},
		Rows: [][]string{{
			strconv.Itoa(r.Fetched),
			strconv.Itoa(r.Created),
			strconv.Itoa(r.Updated),
			strconv.Itoa(r.Unchanged),
			strconv.Itoa(r.Skipped),
			strconv.Itoa(r.Errors),
		}},
		Notes: slices.Clone(r.Details),
	}
	if r.DryRun {
		d.Title += " (dry run)"
	}
	return d
}

// StatusTable lists stored property counts per phase.
func StatusTable(counts map[property.Phase]int) Data {
	d := Data{
		Title:   "Stored properties",
		Headers: []string{"Phase", "Count"},
		Numeric: []bool{false, true},
	}
	total := 0
	for _, p := range property.AllPhases() {
		d.Rows = append(d.Rows, []string{PhaseLabel(p), strconv.Itoa(counts[p])})
		total += counts[p]
	}
	d.Rows = append(d.Rows, []string{"Total", strconv.Itoa(total)})
	return d
}

// PartitionsTable lists configured partitions, highest priority first.
func PartitionsTable(cfg config.Config) Data {
	d := Data{
		Title:   "Partitions of " + cfg.Source.Table,
		Headers: []string{"Priority", "Phase", "View"},
		Numeric: []bool{true, false, false},
	}
	for _, p := range cfg.PartitionsByPriority() {
		d.Rows = append(d.Rows, []string{strconv.Itoa(p.Priority), PhaseLabel(p.Phase), p.ID})
	}
	if o := cfg.Override; o != nil {
		d.Notes = append(d.Notes, fmt.Sprintf("%s records with %s move to %s",
			PhaseLabel(o.FromPhase), o.DateField, PhaseLabel(o.ToPhase)))
	}
	return d
}

// OutcomeReport is the machine-readable form of a propagation outcome.
type OutcomeReport struct {
	Key      string         `json:"key" yaml:"key"`
	RecordID string         `json:"record_id,omitempty" yaml:"record_id,omitempty"`
	Fields   map[string]any `json:"fields" yaml:"fields"`
	Applied  bool           `json:"applied" yaml:"applied"`
	Error    string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewOutcomeReport converts an outcome for JSON or YAML output.
func NewOutcomeReport(o propagate.Outcome) OutcomeReport {
	r := OutcomeReport{Key: o.Key, RecordID: o.RecordID, Fields: o.Fields, Applied: o.Applied}
	if r.Fields == nil {
		r.Fields = map[string]any{}
	}
	if o.Err != nil {
		r.Error = o.Err.Error()
	}
	return r
}

// OutcomeTable describes one propagation.
func OutcomeTable(o propagate.Outcome) Data {
	d := Data{
		Title:   "Propagation of " + o.Key,
		Headers: []string{"Field", "Value"},
	}
	names := make([]string, 0, len(o.Fields))
	for name := range o.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		d.Rows = append(d.Rows, []string{name, fmt.Sprint(o.Fields[name])})
	}
	switch {
	case o.Err != nil:
		d.Notes = append(d.Notes, "failed: "+o.Err.Error())
	case o.Applied:
		d.Notes = append(d.Notes, "applied to record "+o.RecordID)
	case len(o.Fields) == 0:
		d.Notes = append(d.Notes, "nothing to propagate")
	default:
		d.Notes = append(d.Notes, "not applied (dry run)")
	}
	return d
}

func sortedPhases(m map[property.Phase]int) []property.Phase {
	var out []property.Phase
	for _, p := range property.AllPhases() {
		if _, ok := m[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

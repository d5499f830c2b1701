package reconciler

import (
	"fmt"
	"sync"
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/propsync/pkg/differ"
	"github.com/agentstation/propsync/pkg/property"
)

// Result represents the outcome of a reconciliation run.
type Result struct {
	// RunID identifies the run in logs and in the run lock.
	RunID string `json:"run_id" yaml:"run_id"`

	// Timestamp is when the run started.
	Timestamp utc.Time `json:"timestamp" yaml:"timestamp"`

	// Duration of the run.
	Duration time.Duration `json:"duration" yaml:"duration"`

	// DryRun indicates no writes were made.
	DryRun bool `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`

	// Counts
	Processed int `json:"processed" yaml:"processed"`
	Created   int `json:"created" yaml:"created"`
	Updated   int `json:"updated" yaml:"updated"`
	Unchanged int `json:"unchanged" yaml:"unchanged"`
	Orphaned  int `json:"orphaned" yaml:"orphaned"`
	Errored   int `json:"errored" yaml:"errored"`
	Skipped   int `json:"skipped" yaml:"skipped"`

	// Propagation counts; failures do not affect Success.
	Propagated        int `json:"propagated,omitempty" yaml:"propagated,omitempty"`
	PropagationFailed int `json:"propagation_failed,omitempty" yaml:"propagation_failed,omitempty"`

	// PhaseCounts are the store totals after the run.
	PhaseCounts map[property.Phase]int `json:"phase_counts" yaml:"phase_counts"`

	// Partitions reports each partition fetch, highest priority first.
	Partitions []PartitionStat `json:"partitions" yaml:"partitions"`

	// Details are human-readable lines in insertion order, bounded by the
	// detail limit. DetailsTruncated counts the lines that did not fit.
	Details          []string `json:"details" yaml:"details"`
	DetailsTruncated int      `json:"details_truncated,omitempty" yaml:"details_truncated,omitempty"`

	// Success is false when the run ended early or any record errored.
	Success bool `json:"success" yaml:"success"`

	// Changeset is the computed diff; nil when the run ended before diffing.
	Changeset *differ.Changeset `json:"-" yaml:"-"`

	// Applied holds the writes that reached the store. Empty on dry runs.
	Applied *differ.Changeset `json:"-" yaml:"-"`

	mu    sync.Mutex
	limit int
}

// PartitionStat describes one partition fetch.
type PartitionStat struct {
	ID       string         `json:"id" yaml:"id"`
	Phase    property.Phase `json:"phase" yaml:"phase"`
	Priority int            `json:"priority" yaml:"priority"`
	Records  int            `json:"records" yaml:"records"`
	Duration time.Duration  `json:"duration" yaml:"duration"`
	Error    string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the fetch failed.
func (s PartitionStat) Failed() bool {
	return s.Error != ""
}

func newResult(runID string, now time.Time, limit int) *Result {
	return &Result{
		RunID:       runID,
		Timestamp:   utc.Time{Time: now.UTC()},
		PhaseCounts: make(map[property.Phase]int),
		Details:     []string{},
		Applied:     &differ.Changeset{},
		limit:       limit,
	}
}

// detail appends a line unless the limit is reached.
func (r *Result) detail(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detailLocked(format, args...)
}

func (r *Result) detailLocked(format string, args ...any) {
	if r.limit > 0 && len(r.Details) >= r.limit {
		r.DetailsTruncated++
		return
	}
	r.Details = append(r.Details, fmt.Sprintf(format, args...))
}

// errored counts one failed record with a detail line.
func (r *Result) errored(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errored++
	r.detailLocked(format, args...)
}

// fail marks the run as ended early.
func (r *Result) fail(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Success = false
	r.detailLocked(format, args...)
}

// WasApplied returns true if any change reached the store.
func (r *Result) WasApplied() bool {
	return r.Applied != nil && r.Applied.HasChanges()
}

// HasChanges returns true if the run found anything to write.
func (r *Result) HasChanges() bool {
	return r.Created+r.Updated+r.Orphaned > 0
}

// FailedPartitions returns the ids of partitions whose fetch failed.
func (r *Result) FailedPartitions() []string {
	var ids []string
	for _, p := range r.Partitions {
		if p.Failed() {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	counts := fmt.Sprintf("%d processed, %d created, %d updated, %d orphaned, %d errored",
		r.Processed, r.Created, r.Updated, r.Orphaned, r.Errored)
	switch {
	case r.DryRun && r.HasChanges():
		return "Dry run completed. " + counts
	case r.DryRun:
		return "Dry run completed. No changes detected."
	case !r.Success && r.Errored == 0:
		return "Reconciliation failed. " + counts
	case !r.Success:
		return "Reconciliation completed with errors. " + counts
	case r.HasChanges():
		return "Reconciliation successful. " + counts
	default:
		return "Reconciliation completed. No changes detected."
	}
}

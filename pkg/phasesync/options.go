package phasesync

import (
	"time"

	"github.com/agentstation/propsync/pkg/differ"
)

// Option configures a Syncer.
type Option func(*Syncer)

// WithDryRun computes the result without writing to the store.
func WithDryRun(enabled bool) Option {
	return func(s *Syncer) {
		s.dryRun = enabled
	}
}

// WithDetailLimit caps the detail lines on a result.
func WithDetailLimit(n int) Option {
	return func(s *Syncer) {
		if n > 0 {
			s.detailLimit = n
		}
	}
}

// WithDiffer replaces the default differ.
func WithDiffer(d *differ.Differ) Option {
	return func(s *Syncer) {
		if d != nil {
			s.differ = d
		}
	}
}

// WithLockTTL sets how long the run lock survives a crashed sync.
func WithLockTTL(d time.Duration) Option {
	return func(s *Syncer) {
		if d > 0 {
			s.lockTTL = d
		}
	}
}

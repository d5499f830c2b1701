package reconciler

import (
	"time"

	"github.com/agentstation/propsync/pkg/config"
	"github.com/agentstation/propsync/pkg/constants"
	"github.com/agentstation/propsync/pkg/differ"
	"github.com/agentstation/propsync/pkg/errors"
	"github.com/agentstation/propsync/pkg/propagate"
)

// options configures a reconciler.
type options struct {
	dryRun           bool
	detailLimit      int
	writeConcurrency int
	timeout          time.Duration
	lockTTL          time.Duration
	clock            func() time.Time
	differ           *differ.Differ
	propagator       *propagate.Propagator
}

func defaultOptions(cfg config.Config) *options {
	limit := cfg.DetailLimit
	if limit == 0 {
		limit = constants.MaxResultDetails
	}
	return &options{
		detailLimit:      limit,
		writeConcurrency: constants.DefaultWriteConcurrency,
		timeout:          constants.RunTimeout,
		lockTTL:          constants.RunLockTTL,
		clock:            time.Now,
		differ:           differ.FromConfig(cfg),
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// newOptions returns reconciler options with default values.
func newOptions(cfg config.Config, opts ...Option) (*options, error) {
	return defaultOptions(cfg).apply(opts...)
}

// WithDryRun computes the changeset without writing to the store or the
// source. Dry runs do not take the run lock.
func WithDryRun(enabled bool) Option {
	return func(o *options) error {
		o.dryRun = enabled
		return nil
	}
}

// WithDetailLimit caps the detail lines kept on the result.
func WithDetailLimit(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return &errors.ValidationError{
				Field:   "detail_limit",
				Value:   n,
				Message: "must be positive",
			}
		}
		o.detailLimit = n
		return nil
	}
}

// WithWriteConcurrency sets how many store writes run in parallel.
func WithWriteConcurrency(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return &errors.ValidationError{
				Field:   "write_concurrency",
				Value:   n,
				Message: "must be positive",
			}
		}
		o.writeConcurrency = n
		return nil
	}
}

// WithTimeout bounds a whole run. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(o *options) error {
		o.timeout = d
		return nil
	}
}

// WithLockTTL sets how long the run lock survives a crashed run.
func WithLockTTL(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return &errors.ValidationError{Field: "lock_ttl", Value: d, Message: "must be positive"}
		}
		o.lockTTL = d
		return nil
	}
}

// WithClock sets the time source for timestamps and durations.
func WithClock(clock func() time.Time) Option {
	return func(o *options) error {
		if clock == nil {
			return &errors.ValidationError{Field: "clock", Message: "cannot be nil"}
		}
		o.clock = clock
		return nil
	}
}

// WithDiffer replaces the differ built from the config.
func WithDiffer(d *differ.Differ) Option {
	return func(o *options) error {
		if d == nil {
			return &errors.ValidationError{Field: "differ", Message: "cannot be nil"}
		}
		o.differ = d
		return nil
	}
}

// WithPropagator enables writing propagated fields of every created or
// updated property back to the source.
func WithPropagator(p *propagate.Propagator) Option {
	return func(o *options) error {
		o.propagator = p
		return nil
	}
}

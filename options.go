package propsync

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/agentstation/propsync/pkg/config"
	"github.com/agentstation/propsync/pkg/constants"
	"github.com/agentstation/propsync/pkg/errors"
	"github.com/agentstation/propsync/pkg/retry"
	"github.com/agentstation/propsync/pkg/sources"
	"github.com/agentstation/propsync/pkg/store"
)

// options holds engine configuration
type options struct {
	config           config.Config
	backend          sources.Backend
	store            store.Store
	dryRun           bool
	propagate        bool
	writeConcurrency int
	fetchTimeout     time.Duration
	cache            *gocache.Cache
	retry            retry.Policy
}

func defaultOptions() *options {
	return &options{
		config:           config.Default(),
		writeConcurrency: constants.DefaultWriteConcurrency,
		fetchTimeout:     constants.PartitionFetchTimeout,
		cache:            sources.NewCache(),
		retry:            retry.Default(),
	}
}

func (o *options) apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return err
		}
	}
	return nil
}

func (o *options) fetcherOptions() []sources.Option {
	return []sources.Option{
		sources.WithTimeout(o.fetchTimeout),
		sources.WithCache(o.cache),
	}
}

// Option is a function that configures an Engine
type Option func(*options) error

// WithConfig sets the reconciliation configuration
func WithConfig(cfg config.Config) Option {
	return func(o *options) error {
		o.config = cfg.Clone()
		return nil
	}
}

// WithBackend sets the external record source
func WithBackend(b sources.Backend) Option {
	return func(o *options) error {
		if b == nil {
			return &errors.ValidationError{Field: "backend", Message: "cannot be nil"}
		}
		o.backend = b
		return nil
	}
}

// WithStore sets the destination store. The engine closes it on Close.
func WithStore(s store.Store) Option {
	return func(o *options) error {
		if s == nil {
			return &errors.ValidationError{Field: "store", Message: "cannot be nil"}
		}
		o.store = s
		return nil
	}
}

// WithDryRun computes results without writing to the store or the source
func WithDryRun(enabled bool) Option {
	return func(o *options) error {
		o.dryRun = enabled
		return nil
	}
}

// WithPropagation configures whether reconcile writes propagated fields of
// changed properties back to the source
func WithPropagation(enabled bool) Option {
	return func(o *options) error {
		o.propagate = enabled
		return nil
	}
}

// WithWriteConcurrency sets how many store writes a run performs in parallel
func WithWriteConcurrency(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return &errors.ValidationError{Field: "write_concurrency", Value: n, Message: "must be positive"}
		}
		o.writeConcurrency = n
		return nil
	}
}

// WithFetchTimeout bounds each partition fetch
func WithFetchTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return &errors.ValidationError{Field: "fetch_timeout", Value: d, Message: "must be positive"}
		}
		o.fetchTimeout = d
		return nil
	}
}

// WithRetryPolicy sets the policy wrapping writes back to the source
func WithRetryPolicy(p retry.Policy) Option {
	return func(o *options) error {
		o.retry = p
		return nil
	}
}

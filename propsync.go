// Package propsync reconciles property records from a prioritized,
// partitioned external record source into a destination store.
//
// An Engine wires a configuration, a source backend and a store together:
//
//	engine, err := propsync.New(
//	    propsync.WithConfig(cfg),
//	    propsync.WithBackend(backend),
//	    propsync.WithStore(db),
//	)
//	if err != nil {
//	    return err
//	}
//	defer engine.Close()
//
//	result := engine.Reconcile(ctx)
//	fmt.Println(result.Summary())
//
// Scheduling is left to the caller; every entry point runs once and returns.
package propsync

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentstation/propsync/pkg/config"
	"github.com/agentstation/propsync/pkg/errors"
	"github.com/agentstation/propsync/pkg/logging"
	"github.com/agentstation/propsync/pkg/phasesync"
	"github.com/agentstation/propsync/pkg/propagate"
	"github.com/agentstation/propsync/pkg/property"
	"github.com/agentstation/propsync/pkg/reconciler"
	"github.com/agentstation/propsync/pkg/sources"
)

// Engine runs reconciliations and their supporting operations.
type Engine interface {
	// Reconcile runs a full reconciliation across every partition.
	Reconcile(ctx context.Context) *reconciler.Result

	// SyncPhase mirrors the partition targeting phase into the store.
	SyncPhase(ctx context.Context, phase property.Phase) (*phasesync.PhaseResult, error)

	// Propagate writes fields back to the source record with business key key.
	Propagate(ctx context.Context, key string, fields map[string]any) propagate.Outcome

	// PropagateStored writes the configured propagated fields of a stored
	// property back to the source.
	PropagateStored(ctx context.Context, id string) (propagate.Outcome, error)

	// Status returns the stored property count per phase.
	Status(ctx context.Context) (map[property.Phase]int, error)

	// Config returns a copy of the active configuration.
	Config() config.Config

	// OnPropertyCreated registers a callback for properties created by a run
	OnPropertyCreated(PropertyCreatedHook)

	// OnPropertyUpdated registers a callback for properties updated by a run
	OnPropertyUpdated(PropertyUpdatedHook)

	// OnPropertyOrphaned registers a callback for properties re-tagged as orphaned
	OnPropertyOrphaned(PropertyOrphanedHook)

	// Close releases the store.
	Close() error
}

// engine is the internal implementation of the Engine interface
type engine struct {
	mu         sync.Mutex
	closed     bool
	options    *options
	fetcher    *sources.Fetcher
	reconciler *reconciler.Reconciler
	syncer     *phasesync.Syncer
	propagator *propagate.Propagator

	// Event hooks
	hooks *hooks
}

// New creates an Engine with the given options. A backend and a store are
// required.
func New(opts ...Option) (Engine, error) {
	o := defaultOptions()
	if err := o.apply(opts...); err != nil {
		return nil, fmt.Errorf("applying options: %w", err)
	}
	if o.backend == nil {
		return nil, &errors.ValidationError{Field: "backend", Message: "a source backend is required"}
	}
	if o.store == nil {
		return nil, &errors.ValidationError{Field: "store", Message: "a destination store is required"}
	}
	if err := o.config.Validate(); err != nil {
		return nil, err
	}

	e := &engine{
		options: o,
		hooks:   newHooks(),
	}
	e.fetcher = sources.NewFetcher(o.backend, o.config, o.fetcherOptions()...)
	e.propagator = propagate.New(o.backend, o.config, propagate.WithPolicy(o.retry))

	ropts := []reconciler.Option{
		reconciler.WithDryRun(o.dryRun),
		reconciler.WithWriteConcurrency(o.writeConcurrency),
	}
	if o.propagate {
		ropts = append(ropts, reconciler.WithPropagator(e.propagator))
	}
	r, err := reconciler.New(o.config, e.fetcher, o.store, ropts...)
	if err != nil {
		return nil, fmt.Errorf("creating reconciler: %w", err)
	}
	e.reconciler = r
	e.syncer = phasesync.New(e.fetcher, o.store, o.config, phasesync.WithDryRun(o.dryRun))

	return e, nil
}

// Reconcile runs a full reconciliation and fires hooks for applied changes.
func (e *engine) Reconcile(ctx context.Context) *reconciler.Result {
	ctx = logging.WithOperation(ctx, "reconcile")
	result := e.reconciler.Run(ctx)
	if result.WasApplied() {
		e.hooks.triggerChangeset(result.Applied)
	}
	return result
}

// SyncPhase mirrors one partition into the store.
func (e *engine) SyncPhase(ctx context.Context, phase property.Phase) (*phasesync.PhaseResult, error) {
	ctx = logging.WithOperation(ctx, "sync")
	return e.syncer.SyncPhaseByName(ctx, e.options.config, phase)
}

// Propagate writes fields back to the source.
func (e *engine) Propagate(ctx context.Context, key string, fields map[string]any) propagate.Outcome {
	if e.options.dryRun {
		return propagate.Outcome{Key: key, Fields: fields}
	}
	return e.propagator.Propagate(ctx, key, fields)
}

// PropagateStored propagates the configured fields of a stored property.
func (e *engine) PropagateStored(ctx context.Context, id string) (propagate.Outcome, error) {
	p, err := e.options.store.Get(ctx, id)
	if err != nil {
		return propagate.Outcome{Key: id}, err
	}
	if e.options.dryRun {
		return propagate.Outcome{Key: id, RecordID: p.ExternalID, Fields: e.propagator.Fields(p)}, nil
	}
	return e.propagator.PropagateProperty(ctx, p), nil
}

// Status returns stored counts per phase.
func (e *engine) Status(ctx context.Context) (map[property.Phase]int, error) {
	return e.options.store.CountByPhase(ctx)
}

// Config returns a copy of the active configuration.
func (e *engine) Config() config.Config {
	return e.options.config.Clone()
}

// OnPropertyCreated registers a callback for created properties
func (e *engine) OnPropertyCreated(fn PropertyCreatedHook) {
	e.hooks.OnPropertyCreated(fn)
}

// OnPropertyUpdated registers a callback for updated properties
func (e *engine) OnPropertyUpdated(fn PropertyUpdatedHook) {
	e.hooks.OnPropertyUpdated(fn)
}

// OnPropertyOrphaned registers a callback for orphaned properties
func (e *engine) OnPropertyOrphaned(fn PropertyOrphanedHook) {
	e.hooks.OnPropertyOrphaned(fn)
}

// Close releases the store. It is safe to call more than once.
func (e *engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.options.store.Close()
}

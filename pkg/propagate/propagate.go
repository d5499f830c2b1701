// Package propagate writes a subset of canonical fields back to the external
// source. Every outbound call goes through a retry.Policy, so a rate-limited
// source slows propagation down but never aborts the caller.
package propagate

import (
	"context"
	"maps"

	"github.com/agentstation/propsync/pkg/config"
	"github.com/agentstation/propsync/pkg/errors"
	"github.com/agentstation/propsync/pkg/logging"
	"github.com/agentstation/propsync/pkg/property"
	"github.com/agentstation/propsync/pkg/retry"
	"github.com/agentstation/propsync/pkg/sources"
)

// Outcome reports the result of propagating one record.
type Outcome struct {
	// Key is the business key the record was looked up by.
	Key string

	// RecordID is the source record id, empty when the lookup failed.
	RecordID string

	// Fields are the source field values that were (or would have been) sent.
	Fields map[string]any

	// Applied is true when the update reached the source.
	Applied bool

	// Err is the failure, if any. It is already logged.
	Err error
}

// OK reports whether the propagation succeeded or had nothing to send.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Propagator writes fields back to the source.
type Propagator struct {
	writer  sources.Writer
	table   string
	keys    []string
	mapping map[string]string
	policy  retry.Policy
}

// New creates a Propagator for the property table described by cfg.
func New(w sources.Writer, cfg config.Config, opts ...Option) *Propagator {
	p := &Propagator{
		writer:  w,
		table:   cfg.Source.Table,
		keys:    cfg.Keys.Business,
		mapping: maps.Clone(cfg.Propagated),
		policy:  retry.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Propagate finds the source record whose business key equals key and
// applies fields to it. Candidate key field names are tried in order.
func (p *Propagator) Propagate(ctx context.Context, key string, fields map[string]any) Outcome {
	out := Outcome{Key: key, Fields: fields}
	if len(fields) == 0 {
		return out
	}
	ctx = logging.WithOperation(logging.WithProperty(ctx, key), "propagate")

	id, err := p.find(ctx, key)
	if err != nil {
		return p.fail(ctx, out, err)
	}
	out.RecordID = id
	return p.update(ctx, out)
}

// PropagateProperty sends the configured propagated fields of prop. When the
// property carries its source record id the key lookup is skipped.
func (p *Propagator) PropagateProperty(ctx context.Context, prop property.Property) Outcome {
	fields := p.Fields(prop)
	if prop.ExternalID == "" {
		return p.Propagate(ctx, prop.ID, fields)
	}

	out := Outcome{Key: prop.ID, RecordID: prop.ExternalID, Fields: fields}
	if len(fields) == 0 {
		return out
	}
	ctx = logging.WithOperation(logging.WithProperty(ctx, prop.ID), "propagate")
	return p.update(ctx, out)
}

// PropagateAll propagates each property in turn. Calls are sequential so the
// source's rate limit applies to one stream of writes.
func (p *Propagator) PropagateAll(ctx context.Context, props []property.Property) []Outcome {
	outcomes := make([]Outcome, 0, len(props))
	for _, prop := range props {
		if ctx.Err() != nil {
			outcomes = append(outcomes, Outcome{Key: prop.ID, Err: ctx.Err()})
			continue
		}
		outcomes = append(outcomes, p.PropagateProperty(ctx, prop))
	}
	return outcomes
}

// Fields maps the propagated canonical fields of prop to source field
// names. Absent attributes are not sent.
func (p *Propagator) Fields(prop property.Property) map[string]any {
	fields := make(map[string]any, len(p.mapping))
	for name, target := range p.mapping {
		switch name {
		case "phase":
			if prop.Phase != "" {
				fields[target] = string(prop.Phase)
			}
		case "address":
			if prop.Address != "" {
				fields[target] = prop.Address
			}
		default:
			if v, ok := prop.Attributes[property.Field(name)]; ok {
				fields[target] = v
			}
		}
	}
	return fields
}

func (p *Propagator) find(ctx context.Context, key string) (string, error) {
	for _, field := range p.keys {
		var (
			id    string
			found bool
		)
		err := p.policy.Do(ctx, func(ctx context.Context) error {
			var err error
			id, found, err = p.writer.FindByField(ctx, p.table, field, key)
			return err
		})
		if err != nil {
			return "", err
		}
		if found {
			return id, nil
		}
	}
	return "", errors.NewNotFoundError("source record", key)
}

func (p *Propagator) update(ctx context.Context, out Outcome) Outcome {
	err := p.policy.Do(ctx, func(ctx context.Context) error {
		return p.writer.UpdateFields(ctx, p.table, out.RecordID, out.Fields)
	})
	if err != nil {
		return p.fail(ctx, out, err)
	}
	out.Applied = true
	logging.FromContext(ctx).Debug().
		Str("record_id", out.RecordID).
		Int("fields", len(out.Fields)).
		Msg("Propagated fields to source")
	return out
}

func (p *Propagator) fail(ctx context.Context, out Outcome, err error) Outcome {
	out.Err = err
	logging.FromContext(ctx).Warn().
		Err(err).
		Str("record_id", out.RecordID).
		Msg("Propagation failed")
	return out
}

package differ

import (
	"github.com/agentstation/propsync/pkg/config"
	"github.com/agentstation/propsync/pkg/property"
)

// Option is a functional option for configuring Differ.
type Option func(*Differ)

// WithTracked sets the materiality set: only changes to these fields (or to
// phase, address or ownership) cause an update.
func WithTracked(fields ...property.Field) Option {
	return func(d *Differ) {
		d.tracked = make(map[property.Field]bool, len(fields))
		for _, f := range fields {
			d.tracked[f] = true
		}
	}
}

// WithIgnoredFields excludes fields from comparison even when tracked.
func WithIgnoredFields(fields ...property.Field) Option {
	return func(d *Differ) {
		for _, f := range fields {
			d.ignore[f] = true
		}
	}
}

// WithImageProtection enables or disables image-list write suppression.
func WithImageProtection(enabled bool) Option {
	return func(d *Differ) {
		d.protectImages = enabled
	}
}

// FromConfig creates a Differ tracking cfg.Tracked. An empty list keeps the
// default of tracking every field.
func FromConfig(cfg config.Config, opts ...Option) *Differ {
	if len(cfg.Tracked) > 0 {
		opts = append([]Option{WithTracked(cfg.Tracked...)}, opts...)
	}
	return New(opts...)
}

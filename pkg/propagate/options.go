package propagate

import "github.com/agentstation/propsync/pkg/retry"

// Option configures a Propagator.
type Option func(*Propagator)

// WithPolicy replaces the default retry policy.
func WithPolicy(policy retry.Policy) Option {
	return func(p *Propagator) {
		p.policy = policy
	}
}

// WithTable overrides the table records are written to.
func WithTable(table string) Option {
	return func(p *Propagator) {
		if table != "" {
			p.table = table
		}
	}
}

package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/propsync/pkg/errors"
	"github.com/agentstation/propsync/pkg/property"
)

// Load reads a mapping file and overlays it on Default. Keys absent from the
// file keep their default values; synonyms and partitions in the file replace
// the defaults wholesale.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied config path
	if err != nil {
		return Config{}, errors.WrapIO("read", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		var pe *errors.ParseError
		if errors.As(err, &pe) {
			pe.File = path
		}
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML mapping data over Default and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) > 0 {
		// Decode into a fresh value so wholesale replacement of maps and
		// slices does not merge with defaults.
		var file Config
		if err := yaml.UnmarshalWithOptions(data, &file, yaml.DisallowUnknownField()); err != nil {
			return Config{}, errors.NewParseError("yaml", "", "invalid mapping file", err)
		}
		cfg = overlay(cfg, file)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func overlay(base, file Config) Config {
	if file.Source.Table != "" {
		base.Source.Table = file.Source.Table
	}
	if file.Source.ListSeparators != "" {
		base.Source.ListSeparators = file.Source.ListSeparators
	}
	if len(file.Partitions) > 0 {
		base.Partitions = file.Partitions
	}
	if len(file.Keys.Business) > 0 {
		base.Keys.Business = file.Keys.Business
	}
	if len(file.Keys.Address) > 0 {
		base.Keys.Address = file.Keys.Address
	}
	if len(file.Keys.Identifiers) > 0 {
		base.Keys.Identifiers = file.Keys.Identifiers
	}
	for f, names := range file.Synonyms {
		base.Synonyms[f] = names
	}
	if file.Links != nil {
		base.Links = file.Links
	}
	if file.StatusRules != nil {
		base.StatusRules = file.StatusRules
	}
	if file.Tracked != nil {
		base.Tracked = file.Tracked
	}
	if file.Propagated != nil {
		base.Propagated = file.Propagated
	}
	if file.Override != nil {
		base.Override = file.Override
	}
	if file.DetailLimit != 0 {
		base.DetailLimit = file.DetailLimit
	}
	return base
}

// Marshal renders the config as YAML.
func (c Config) Marshal() ([]byte, error) {
	data, err := yaml.MarshalWithOptions(c, yaml.Indent(2), yaml.IndentSequence(true))
	if err != nil {
		return nil, errors.WrapParse("yaml", "", err)
	}
	return data, nil
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Source.Table) == "" {
		return errors.NewConfigError("source", "table is required", nil)
	}
	if len(c.Partitions) == 0 {
		return errors.NewConfigError("partitions", "at least one partition is required", nil)
	}

	priorities := make(map[int]string, len(c.Partitions))
	ids := make(map[string]bool, len(c.Partitions))
	phases := make(map[property.Phase]bool, len(c.Partitions))
	for _, p := range c.Partitions {
		if strings.TrimSpace(p.ID) == "" {
			return errors.NewConfigError("partitions", fmt.Sprintf("partition for phase %q has no id", p.Phase), nil)
		}
		if !p.Phase.IsValid() || p.Phase == property.PhaseOrphaned {
			return errors.NewConfigError("partitions", fmt.Sprintf("partition %s has invalid phase %q", p.ID, p.Phase), nil)
		}
		if other, dup := priorities[p.Priority]; dup {
			return errors.NewConfigError("partitions",
				fmt.Sprintf("partitions %s and %s share priority %d", other, p.ID, p.Priority), nil)
		}
		if ids[p.ID] {
			return errors.NewConfigError("partitions", fmt.Sprintf("duplicate partition id %s", p.ID), nil)
		}
		if phases[p.Phase] {
			return errors.NewConfigError("partitions", fmt.Sprintf("phase %s is targeted by more than one partition", p.Phase), nil)
		}
		priorities[p.Priority] = p.ID
		ids[p.ID] = true
		phases[p.Phase] = true
	}

	if len(c.Keys.Business) == 0 {
		return errors.NewConfigError("keys", "at least one business key candidate is required", nil)
	}

	for f := range c.Synonyms {
		if !f.IsValid() {
			return errors.NewConfigError("synonyms", fmt.Sprintf("unknown field %q", f), nil)
		}
	}
	for _, f := range c.Tracked {
		if !f.IsValid() {
			return errors.NewConfigError("tracked", fmt.Sprintf("unknown field %q", f), nil)
		}
	}
	for name := range c.Propagated {
		if name == "phase" || name == "address" {
			continue
		}
		if !property.Field(name).IsValid() {
			return errors.NewConfigError("propagated", fmt.Sprintf("unknown field %q", name), nil)
		}
	}
	for _, l := range c.Links {
		if l.Field == "" || l.Table == "" || len(l.Attach) == 0 {
			return errors.NewConfigError("links", fmt.Sprintf("link %q needs field, table and attach", l.Field), nil)
		}
	}
	for _, r := range c.StatusRules {
		if !r.Phase.IsValid() {
			return errors.NewConfigError("status_rules", fmt.Sprintf("invalid phase %q", r.Phase), nil)
		}
	}
	if o := c.Override; o != nil {
		if !o.FromPhase.IsValid() || !o.ToPhase.IsValid() {
			return errors.NewConfigError("override", "from_phase and to_phase must be valid phases", nil)
		}
		if !o.DateField.IsValid() || o.DateField.Kind() != property.KindDate {
			return errors.NewConfigError("override", fmt.Sprintf("date_field %q must be a date field", o.DateField), nil)
		}
	}
	if c.DetailLimit < 0 {
		return errors.NewConfigError("detail_limit", "must not be negative", nil)
	}
	return nil
}

// Package mapper converts raw source records into canonical properties.
//
// Mapping is pure and deterministic. Field names are resolved through an
// ordered synonym table, values are normalized by field kind, and any field
// the source does not carry stays absent on the result.
package mapper

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/agentstation/propsync/pkg/config"
	"github.com/agentstation/propsync/pkg/errors"
	"github.com/agentstation/propsync/pkg/property"
	"github.com/agentstation/propsync/pkg/sources"
)

// Mapper maps records using an immutable configuration. It is safe for
// concurrent use.
type Mapper struct {
	cfg   config.Config
	rules []rule
}

type rule struct {
	phase    property.Phase
	keywords []string
}

// New creates a mapper for cfg.
func New(cfg config.Config) *Mapper {
	m := &Mapper{cfg: cfg.Clone()}
	fold := cases.Fold()
	for _, r := range m.cfg.StatusRules {
		kw := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			if k = strings.TrimSpace(k); k != "" {
				kw = append(kw, fold.String(k))
			}
		}
		m.rules = append(m.rules, rule{phase: r.Phase, keywords: kw})
	}
	return m
}

// Map converts one record. Fields absent in the source stay absent. A record
// with no resolvable business key returns *errors.MappingError.
func (m *Mapper) Map(r sources.Record) (property.Property, error) {
	raw, _ := Lookup(r.Fields, m.cfg.Keys.Business)
	key, ok := Text(raw)
	if !ok {
		_, hasIdentifiers := Lookup(r.Fields, m.cfg.Keys.Identifiers)
		return property.Property{}, errors.NewMissingKeyError(r.ID, hasIdentifiers)
	}

	p := property.Property{
		ID:         key,
		ExternalID: r.ID,
		Attributes: property.Attributes{},
	}
	if v, ok := Lookup(r.Fields, m.cfg.Keys.Address); ok {
		p.Address, _ = Text(v)
	}

	for _, f := range property.Fields() {
		candidates, ok := m.cfg.Synonyms[f]
		if !ok {
			continue
		}
		v, ok := Lookup(r.Fields, candidates)
		if !ok {
			continue
		}
		if value, ok := m.normalize(f, v); ok {
			p.Attributes.Set(f, value)
		}
	}

	if status, ok := p.Attributes.Text(property.FieldStatus); ok {
		if phase, ok := m.ClassifyStatus(status); ok {
			p.Phase = phase
		}
	}
	return p, nil
}

func (m *Mapper) normalize(f property.Field, v any) (any, bool) {
	switch f.Kind() {
	case property.KindNumber:
		return unwrapOK(Number(v))
	case property.KindDate:
		return unwrapOK(Date(v))
	case property.KindURLList:
		return unwrapOK(URLList(v, m.cfg.Source.ListSeparators))
	case property.KindList:
		return unwrapOK(List(v, m.cfg.Source.ListSeparators))
	default:
		return unwrapOK(Text(v))
	}
}

func unwrapOK[T any](v T, ok bool) (any, bool) {
	if !ok {
		return nil, false
	}
	return v, true
}

// ClassifyStatus derives a phase from a free status string using the
// configured keyword rules. The first rule with a matching keyword wins.
func (m *Mapper) ClassifyStatus(status string) (property.Phase, bool) {
	folded := cases.Fold().String(strings.TrimSpace(status))
	if folded == "" {
		return "", false
	}
	for _, r := range m.rules {
		for _, k := range r.keywords {
			if strings.Contains(folded, k) {
				return r.phase, true
			}
		}
	}
	return "", false
}

// Lookup returns the value of the first candidate field that is present and
// non-empty. Exact names are tried first, then case-insensitive matches, both
// in candidate order.
func Lookup(fields map[string]any, candidates []string) (any, bool) {
	for _, name := range candidates {
		if v, ok := fields[name]; ok && !isEmpty(v) {
			return v, true
		}
	}
	if len(fields) == 0 {
		return nil, false
	}
	fold := cases.Fold()
	folded := make(map[string]string, len(fields))
	for name := range fields {
		folded[fold.String(strings.TrimSpace(name))] = name
	}
	for _, name := range candidates {
		if actual, ok := folded[fold.String(name)]; ok {
			if v := fields[actual]; !isEmpty(v) {
				return v, true
			}
		}
	}
	return nil, false
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		for _, e := range t {
			if !isEmpty(e) {
				return false
			}
		}
		return true
	case []string:
		for _, e := range t {
			if strings.TrimSpace(e) != "" {
				return false
			}
		}
		return true
	case map[string]any:
		return len(t) == 0
	}
	return false
}

// Package memory implements store.Store in process memory. It backs tests
// and dry-run previews.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/agentstation/propsync/pkg/errors"
	"github.com/agentstation/propsync/pkg/property"
	"github.com/agentstation/propsync/pkg/store"
)

type lock struct {
	owner   string
	expires time.Time
}

// Store is a mutex-guarded in-memory store.
type Store struct {
	mu    sync.RWMutex
	rows  map[string]property.Property
	locks map[string]lock
	now   func() time.Time

	// FailUpsert, when set, is consulted before every upsert; a non-nil
	// return fails that write. Tests use it to inject write failures.
	FailUpsert func(p property.Property) error

	// FailSnapshot makes Snapshot fail with the given error.
	FailSnapshot error
}

var _ store.Store = (*Store)(nil)

// New creates an empty store, optionally seeded with rows.
func New(seed ...property.Property) *Store {
	s := &Store{
		rows:  make(map[string]property.Property, len(seed)),
		locks: make(map[string]lock),
		now:   time.Now,
	}
	for _, p := range seed {
		s.rows[p.ID] = p.Clone()
	}
	return s
}

// Snapshot implements store.Store.
func (s *Store) Snapshot(ctx context.Context) ([]property.Property, error) {
	if err := ctx.Err(); err != nil {
		return nil, &errors.SnapshotError{Err: err}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailSnapshot != nil {
		return nil, &errors.SnapshotError{Err: s.FailSnapshot}
	}

	out := make([]property.Property, 0, len(s.rows))
	for _, p := range s.rows {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get implements store.Store.
func (s *Store) Get(_ context.Context, id string) (property.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.rows[id]
	if !ok {
		return property.Property{}, errors.NewNotFoundError("property", id)
	}
	return p.Clone(), nil
}

// Upsert implements store.Store.
func (s *Store) Upsert(ctx context.Context, p property.Property) error {
	if err := ctx.Err(); err != nil {
		return errors.WrapWrite("upsert", p.ID, err)
	}
	if p.ID == "" {
		return errors.NewValidationError("id", p.ID, "property id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailUpsert != nil {
		if err := s.FailUpsert(p); err != nil {
			return errors.WrapWrite("upsert", p.ID, err)
		}
	}

	existing, ok := s.rows[p.ID]
	if !ok {
		s.rows[p.ID] = p.Clone()
		return nil
	}
	if p.Address != "" {
		existing.Address = p.Address
	}
	if p.ExternalID != "" {
		existing.ExternalID = p.ExternalID
	}
	existing.Phase = p.Phase
	existing.Attributes = existing.Attributes.Merge(p.Attributes)
	s.rows[p.ID] = existing
	return nil
}

// SetPhase implements store.Store.
func (s *Store) SetPhase(ctx context.Context, ids []string, phase property.Phase) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, errors.WrapWrite("set phase", string(phase), err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, id := range ids {
		p, ok := s.rows[id]
		if !ok {
			continue
		}
		p.Phase = phase
		s.rows[id] = p
		n++
	}
	return n, nil
}

// CountByPhase implements store.Store.
func (s *Store) CountByPhase(_ context.Context) (map[property.Phase]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[property.Phase]int)
	for _, p := range s.rows {
		counts[p.Phase]++
	}
	return counts, nil
}

// AcquireLock implements store.Store.
func (s *Store) AcquireLock(_ context.Context, name, owner string, ttl time.Duration) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if l, ok := s.locks[name]; ok && l.owner != owner && now.Before(l.expires) {
		return nil, &errors.LockError{Name: name, Holder: l.owner, Until: l.expires}
	}
	s.locks[name] = lock{owner: owner, expires: now.Add(ttl)}

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if l, ok := s.locks[name]; ok && l.owner == owner {
			delete(s.locks, name)
		}
	}, nil
}

// Close implements store.Store.
func (s *Store) Close() error {
	return nil
}

// Len returns the number of stored rows.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// Package store defines the destination store that canonical properties are
// reconciled into. Implementations live in the sqlite and memory
// subpackages.
//
// Every write is a single-row upsert or a bulk phase re-tag, so an
// interrupted run leaves the store partially updated but never corrupt.
// Properties are never deleted through this interface.
package store

import (
	"context"
	"time"

	"github.com/agentstation/propsync/pkg/property"
)

// Store is a destination for canonical properties.
type Store interface {
	// Snapshot returns every stored property ordered by id.
	Snapshot(ctx context.Context) ([]property.Property, error)

	// Get returns one property or an error matching errors.ErrNotFound.
	Get(ctx context.Context, id string) (property.Property, error)

	// Upsert inserts p or merges it into the stored row. Attributes absent
	// from p keep their stored values; an empty address or external id
	// never clears a stored one.
	Upsert(ctx context.Context, p property.Property) error

	// SetPhase re-tags the given ids and returns how many rows changed.
	SetPhase(ctx context.Context, ids []string, phase property.Phase) (int, error)

	// CountByPhase returns the number of stored properties per phase.
	CountByPhase(ctx context.Context) (map[property.Phase]int, error)

	// AcquireLock takes the named advisory lock for owner until ttl passes
	// or release is called. A live lock held by another owner returns an
	// error matching errors.ErrLocked.
	AcquireLock(ctx context.Context, name, owner string, ttl time.Duration) (release func(), err error)

	// Close releases resources.
	Close() error
}

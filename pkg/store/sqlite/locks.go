package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/agentstation/propsync/pkg/constants"
	"github.com/agentstation/propsync/pkg/errors"
	"github.com/agentstation/propsync/pkg/logging"
)

// AcquireLock implements store.Store. Taking the lock is one conditional
// upsert: it succeeds when the row is absent, expired, or already ours.
func (s *Store) AcquireLock(ctx context.Context, name, owner string, ttl time.Duration) (func(), error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO run_locks (name, owner, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			owner = excluded.owner,
			expires_at = excluded.expires_at
		WHERE run_locks.expires_at <= ? OR run_locks.owner = excluded.owner
	`, name, owner, now.Add(ttl).UnixNano(), now.UnixNano())
	if err != nil {
		return nil, errors.WrapResource("acquire", "lock", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, errors.WrapResource("acquire", "lock", name, err)
	}
	if n == 0 {
		lockErr := &errors.LockError{Name: name}
		var holder string
		var until int64
		err := s.db.QueryRowContext(ctx, `SELECT owner, expires_at FROM run_locks WHERE name = ?`, name).Scan(&holder, &until)
		if err == nil {
			lockErr.Holder = holder
			lockErr.Until = time.Unix(0, until).UTC()
		} else if err != sql.ErrNoRows {
			logging.FromContext(ctx).Debug().Err(err).Str("lock", name).Msg("Failed to read lock holder")
		}
		return nil, lockErr
	}

	release := func() {
		// The run context may already be canceled; release on a fresh one.
		rctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		if _, err := s.db.ExecContext(rctx, `DELETE FROM run_locks WHERE name = ? AND owner = ?`, name, owner); err != nil {
			logging.Warn().Err(err).Str("lock", name).Msg("Failed to release lock")
		}
	}
	return release, nil
}

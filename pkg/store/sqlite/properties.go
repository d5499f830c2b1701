package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/propsync/pkg/errors"
	"github.com/agentstation/propsync/pkg/property"
)

// maxVars keeps IN lists under SQLite's bound parameter limit.
const maxVars = 500

// Snapshot implements store.Store.
func (s *Store) Snapshot(ctx context.Context) ([]property.Property, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, address, phase, COALESCE(external_id, ''), attributes
		FROM properties
		ORDER BY id
	`)
	if err != nil {
		return nil, &errors.SnapshotError{Err: err}
	}
	defer rows.Close()

	out := []property.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, &errors.SnapshotError{Err: err}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &errors.SnapshotError{Err: err}
	}
	return out, nil
}

// Get implements store.Store.
func (s *Store) Get(ctx context.Context, id string) (property.Property, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, address, phase, COALESCE(external_id, ''), attributes
		FROM properties
		WHERE id = ?
	`, id)
	p, err := scanProperty(row)
	if err == sql.ErrNoRows {
		return property.Property{}, errors.NewNotFoundError("property", id)
	}
	if err != nil {
		return property.Property{}, errors.WrapResource("query", "property", id, err)
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProperty(sc scanner) (property.Property, error) {
	var (
		p     property.Property
		phase string
		attrs string
	)
	if err := sc.Scan(&p.ID, &p.Address, &phase, &p.ExternalID, &attrs); err != nil {
		return property.Property{}, err
	}
	p.Phase = property.Phase(phase)
	decoded, err := decodeAttributes(attrs)
	if err != nil {
		return property.Property{}, errors.WrapParse("json", "attributes of "+p.ID, err)
	}
	p.Attributes = decoded
	return p, nil
}

// Upsert implements store.Store. The merge happens in one statement:
// json_patch overlays the incoming attributes on the stored object.
func (s *Store) Upsert(ctx context.Context, p property.Property) error {
	if p.ID == "" {
		return errors.NewValidationError("id", p.ID, "property id is required")
	}
	attrs, err := encodeAttributes(p.Attributes)
	if err != nil {
		return errors.WrapWrite("upsert", p.ID, err)
	}
	now := timestamp(utc.Now())

	var externalID any
	if p.ExternalID != "" {
		externalID = p.ExternalID
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO properties (id, address, phase, external_id, attributes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			address     = CASE WHEN excluded.address <> '' THEN excluded.address ELSE properties.address END,
			phase       = excluded.phase,
			external_id = COALESCE(excluded.external_id, properties.external_id),
			attributes  = json_patch(properties.attributes, excluded.attributes),
			updated_at  = excluded.updated_at
	`, p.ID, p.Address, string(p.Phase), externalID, attrs, now, now)
	if err != nil {
		return errors.WrapWrite("upsert", p.ID, err)
	}
	return nil
}

// SetPhase implements store.Store. All batches share one transaction.
func (s *Store) SetPhase(ctx context.Context, ids []string, phase property.Phase) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.WrapWrite("set phase", string(phase), err)
	}
	defer func() { _ = tx.Rollback() }()

	now := timestamp(utc.Now())
	total := 0
	for start := 0; start < len(ids); start += maxVars {
		batch := ids[start:min(start+maxVars, len(ids))]
		args := make([]any, 0, len(batch)+2)
		args = append(args, string(phase), now)
		for _, id := range batch {
			args = append(args, id)
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE properties SET phase = ?, updated_at = ?
			WHERE id IN (`+placeholders(len(batch))+`)
		`, args...)
		if err != nil {
			return 0, errors.WrapWrite("set phase", string(phase), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, errors.WrapWrite("set phase", string(phase), err)
		}
		total += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.WrapWrite("set phase", string(phase), err)
	}
	return total, nil
}

// CountByPhase implements store.Store.
func (s *Store) CountByPhase(ctx context.Context) (map[property.Phase]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT phase, COUNT(*) FROM properties GROUP BY phase`)
	if err != nil {
		return nil, errors.WrapResource("count", "properties", "", err)
	}
	defer rows.Close()

	counts := make(map[property.Phase]int)
	for rows.Next() {
		var phase string
		var n int
		if err := rows.Scan(&phase, &n); err != nil {
			return nil, errors.WrapResource("count", "properties", "", err)
		}
		counts[property.Phase(phase)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapResource("count", "properties", "", err)
	}
	return counts, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func timestamp(t utc.Time) string {
	return t.Time.UTC().Format(time.RFC3339Nano)
}

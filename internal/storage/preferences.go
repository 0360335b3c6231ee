package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
)

// Preferences is a per-visitor key-value store.
type Preferences struct {
	db  *sql.DB
	now func() time.Time
}

func NewPreferences(db *sql.DB) *Preferences {
	return &Preferences{db: db, now: time.Now}
}

// Lookup returns the stored value; found is false when there is none.
func (p *Preferences) Lookup(ctx context.Context, visitorID, key string) (value string, found bool, err error) {
	err = p.db.QueryRowContext(ctx,
		`SELECT value FROM preferences WHERE visitor_id = ? AND key = ?`,
		visitorID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "lookup preference")
	}
	return value, true, nil
}

// Set upserts a value.
func (p *Preferences) Set(ctx context.Context, visitorID, key, value string) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO preferences (visitor_id, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (visitor_id, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		visitorID, key, value, p.now().UTC().Unix(),
	)
	return errors.Wrap(err, "set preference")
}

// CountByValue tallies the stored values of key across visitors.
func (p *Preferences) CountByValue(ctx context.Context, key string) (map[string]int64, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT value, COUNT(*) FROM preferences WHERE key = ? GROUP BY value`, key)
	if err != nil {
		return nil, errors.Wrap(err, "count preferences")
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var (
			value string
			n     int64
		)
		if err := rows.Scan(&value, &n); err != nil {
			return nil, errors.Wrap(err, "scan preference count")
		}
		out[value] = n
	}
	return out, errors.Wrap(rows.Err(), "iterate preference counts")
}

package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
)

// Visit is one tracked page view. The client IP is stored hashed.
type Visit struct {
	ID        int64     `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"timestamp"`
}

type VisitorStats struct {
	TotalVisitors    int64 `json:"total_visitors"`
	UniqueVisitors   int64 `json:"unique_visitors"`
	VisitorsToday    int64 `json:"visitors_today"`
	VisitorsThisWeek int64 `json:"visitors_this_week"`
}

type Visitors struct {
	db  *sql.DB
	now func() time.Time
}

func NewVisitors(db *sql.DB) *Visitors {
	return &Visitors{db: db, now: time.Now}
}

func (v *Visitors) Record(ctx context.Context, visit Visit) error {
	at := visit.CreatedAt
	if at.IsZero() {
		at = v.now()
	}
	_, err := v.db.ExecContext(ctx,
		`INSERT INTO visitors (hashed_ip, user_agent, path, created_at) VALUES (?, ?, ?, ?)`,
		visit.HashedIP, visit.UserAgent, visit.Path, at.UTC().Unix(),
	)
	return errors.Wrap(err, "record visit")
}

// Cleanup deletes visits older than retention and returns how many went.
func (v *Visitors) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := v.now().Add(-retention).UTC().Unix()
	res, err := v.db.ExecContext(ctx, `DELETE FROM visitors WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "cleanup visitors")
	}
	n, err := res.RowsAffected()
	return n, errors.Wrap(err, "cleanup visitors rows affected")
}

func (v *Visitors) Stats(ctx context.Context) (VisitorStats, error) {
	var stats VisitorStats
	now := v.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Unix()
	week := now.Add(-7 * 24 * time.Hour).Unix()

	err := v.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(DISTINCT hashed_ip),
			COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0)
		FROM visitors`, today, week,
	).Scan(&stats.TotalVisitors, &stats.UniqueVisitors, &stats.VisitorsToday, &stats.VisitorsThisWeek)
	if err != nil {
		return VisitorStats{}, errors.Wrap(err, "visitor stats")
	}
	return stats, nil
}

// Recent returns the latest visits, newest first.
func (v *Visitors) Recent(ctx context.Context, limit int) ([]Visit, error) {
	rows, err := v.db.QueryContext(ctx, `
		SELECT id, hashed_ip, COALESCE(user_agent, ''), COALESCE(path, ''), created_at
		FROM visitors
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "recent visitors")
	}
	defer rows.Close()

	var out []Visit
	for rows.Next() {
		var (
			visit Visit
			at    int64
		)
		if err := rows.Scan(&visit.ID, &visit.HashedIP, &visit.UserAgent, &visit.Path, &at); err != nil {
			return nil, errors.Wrap(err, "scan visitor")
		}
		visit.CreatedAt = time.Unix(at, 0).UTC()
		out = append(out, visit)
	}
	return out, errors.Wrap(rows.Err(), "iterate visitors")
}

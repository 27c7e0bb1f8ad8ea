package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sitepulse/internal/event"
	"sitepulse/internal/stats"
	"sitepulse/pkg/utils"
)

// Postgres is the event store: one append-only events table queried by the
// aggregation engine. The connection pool is shared across the API and
// worker processes; every method acquires and releases a connection within
// its own scope.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// InsertEvent persists one event as a single autocommitted insert and returns
// the store-assigned id. One message, one commit; no batching.
func (s *Postgres) InsertEvent(ctx context.Context, e event.Event) (int64, error) {
	const q = `
INSERT INTO events (site_id, event_type, path, user_id, "timestamp")
VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5)
RETURNING id
`
	var id int64
	if err := s.db.QueryRowContext(ctx, q,
		e.SiteID,
		e.EventType,
		e.Path,
		e.UserID,
		e.Timestamp.UTC(),
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	return id, nil
}

// DailyStats computes the per-site aggregate for one UTC day. The three
// queries run inside a read-only transaction so they observe one snapshot.
func (s *Postgres) DailyStats(ctx context.Context, siteID string, day time.Time) (stats.Daily, error) {
	start, end := event.DayWindow(day)

	var out stats.Daily
	err := utils.WithTx(ctx, s.db, &sql.TxOptions{ReadOnly: true}, func(ctx context.Context, tx *sql.Tx) error {
		const qTotal = `
SELECT COUNT(*)
FROM events
WHERE site_id = $1 AND "timestamp" >= $2 AND "timestamp" <= $3
`
		if err := tx.QueryRowContext(ctx, qTotal, siteID, start, end).Scan(&out.TotalViews); err != nil {
			return fmt.Errorf("count views: %w", err)
		}

		const qUnique = `
SELECT COUNT(DISTINCT user_id)
FROM events
WHERE site_id = $1 AND "timestamp" >= $2 AND "timestamp" <= $3 AND user_id IS NOT NULL
`
		if err := tx.QueryRowContext(ctx, qUnique, siteID, start, end).Scan(&out.UniqueUsers); err != nil {
			return fmt.Errorf("count unique users: %w", err)
		}

		// Ties rank lexically ascending so the ordering is deterministic.
		const qTopPaths = `
SELECT path, COUNT(*) AS views
FROM events
WHERE site_id = $1 AND "timestamp" >= $2 AND "timestamp" <= $3 AND path IS NOT NULL
GROUP BY path
ORDER BY COUNT(*) DESC, path ASC
LIMIT 10
`
		rows, err := tx.QueryContext(ctx, qTopPaths, siteID, start, end)
		if err != nil {
			return fmt.Errorf("top paths: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var pc stats.PathCount
			if err := rows.Scan(&pc.Path, &pc.Views); err != nil {
				return fmt.Errorf("top paths scan: %w", err)
			}
			out.TopPaths = append(out.TopPaths, pc)
		}
		return rows.Err()
	})
	if err != nil {
		return stats.Daily{}, err
	}
	return out, nil
}

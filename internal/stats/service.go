package stats

import (
	"context"
	"errors"
	"time"
)

// PathCount is one entry of the top-paths ranking.
type PathCount struct {
	Path  string `json:"path"`
	Views int64  `json:"views"`
}

// Daily is the per-site, per-day aggregate returned by GET /stats.
type Daily struct {
	SiteID      string      `json:"site_id"`
	Date        string      `json:"date"`
	TotalViews  int64       `json:"total_views"`
	UniqueUsers int64       `json:"unique_users"`
	TopPaths    []PathCount `json:"top_paths"`
}

// Repository computes aggregates over the event store for one site and one
// UTC calendar day (the inclusive window from event.DayWindow).
//
// Contract:
// - TotalViews counts every matching row regardless of user_id/path presence.
// - UniqueUsers counts distinct non-null user_id values.
// - TopPaths holds up to 10 distinct non-null paths ordered by views
//   descending, ties broken by path ascending (lexical) so results are
//   deterministic.
// - Query failures must surface as errors, never as silent zeros.
type Repository interface {
	DailyStats(ctx context.Context, siteID string, day time.Time) (Daily, error)
}

var ErrInvalidArgument = errors.New("stats: invalid argument")

type Service struct {
	repo Repository
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// Daily returns the aggregate for siteID on the given day. A zero day
// defaults to the current UTC date. Sites with no matching events yield
// zero counts and an empty (non-nil) TopPaths, not an error.
func (s *Service) Daily(ctx context.Context, siteID string, day time.Time) (Daily, error) {
	if siteID == "" {
		return Daily{}, ErrInvalidArgument
	}
	if s.repo == nil {
		return Daily{}, errors.New("stats: repository not configured")
	}

	if day.IsZero() {
		day = s.clock().UTC()
	}

	out, err := s.repo.DailyStats(ctx, siteID, day)
	if err != nil {
		return Daily{}, err
	}
	out.SiteID = siteID
	out.Date = day.UTC().Format("2006-01-02")
	if out.TopPaths == nil {
		out.TopPaths = []PathCount{}
	}
	return out, nil
}

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"sitepulse/internal/event"
	"sitepulse/internal/stats"
)

// Memory is an in-memory event store implementing the same insert and
// aggregation contract as Postgres. Useful for tests; not intended for
// production use.
type Memory struct {
	mu     sync.Mutex
	nextID int64
	events []event.Event
}

func NewMemory() *Memory {
	return &Memory{nextID: 1}
}

func (m *Memory) InsertEvent(ctx context.Context, e event.Event) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.nextID
	m.nextID++
	e.Timestamp = e.Timestamp.UTC()
	m.events = append(m.events, e)
	return e.ID, nil
}

func (m *Memory) DailyStats(ctx context.Context, siteID string, day time.Time) (stats.Daily, error) {
	start, end := event.DayWindow(day)

	m.mu.Lock()
	defer m.mu.Unlock()

	var out stats.Daily
	users := map[string]struct{}{}
	paths := map[string]int64{}

	for _, e := range m.events {
		if e.SiteID != siteID {
			continue
		}
		if e.Timestamp.Before(start) || e.Timestamp.After(end) {
			continue
		}
		out.TotalViews++
		if e.UserID != "" {
			users[e.UserID] = struct{}{}
		}
		if e.Path != "" {
			paths[e.Path]++
		}
	}
	out.UniqueUsers = int64(len(users))

	for p, n := range paths {
		out.TopPaths = append(out.TopPaths, stats.PathCount{Path: p, Views: n})
	}
	// Same ranking as the SQL query: views descending, path ascending.
	sort.Slice(out.TopPaths, func(i, j int) bool {
		if out.TopPaths[i].Views != out.TopPaths[j].Views {
			return out.TopPaths[i].Views > out.TopPaths[j].Views
		}
		return out.TopPaths[i].Path < out.TopPaths[j].Path
	})
	if len(out.TopPaths) > 10 {
		out.TopPaths = out.TopPaths[:10]
	}
	return out, nil
}

// Events returns a copy of all persisted events in insertion order.
func (m *Memory) Events() []event.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]event.Event, len(m.events))
	copy(out, m.events)
	return out
}

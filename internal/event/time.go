package event

import (
	"strings"
	"time"
)

// timestampLayouts cover ISO-8601 instants with and without an explicit
// offset. Inputs without an offset are taken as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

// ParseTimestamp interprets s as an ISO-8601 instant, normalizing a trailing
// zulu marker to an explicit +00:00 offset before parsing. An empty or
// unparseable value yields now().UTC() and parsed=false.
//
// The fallback is deliberate policy: ingestion never blocks or rejects on a
// bad timestamp. Callers must surface parsed=false (logs) so substitutions
// stay observable.
func ParseTimestamp(s string, now func() time.Time) (t time.Time, parsed bool) {
	if s == "" {
		return now().UTC(), false
	}
	v := s
	if strings.HasSuffix(v, "Z") {
		v = strings.TrimSuffix(v, "Z") + "+00:00"
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), true
		}
	}
	return now().UTC(), false
}

// DayWindow returns the inclusive UTC aggregation window
// [00:00:00, 23:59:59.999999999] for the calendar day containing d.
func DayWindow(d time.Time) (start, end time.Time) {
	d = d.UTC()
	start = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	end = start.Add(24*time.Hour - time.Nanosecond)
	return start, end
}

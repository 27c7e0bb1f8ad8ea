package event

import (
	"errors"
	"time"
)

// Event is one persisted analytics record.
//
// Invariants:
// - Rows are immutable once inserted; there is no update path.
// - ID is store-assigned and never reused.
// - Timestamp is always a valid UTC instant, even when the inbound payload
//   carried none or an unparseable value (the consumer substitutes consume time).
//
// Path and UserID use "" as absent; the repository maps "" to NULL so that
// aggregation treats them as missing.
type Event struct {
	ID        int64     `json:"id"`
	SiteID    string    `json:"site_id"`
	EventType string    `json:"event_type"`
	Path      string    `json:"path,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Payload is the inbound event shape accepted by POST /event and carried
// through the queue as JSON. Only these fields cross the wire; anything else
// in the request body is dropped at the boundary.
//
// Timestamp stays a string here: the ingestion endpoint passes it through
// unmodified and the consumer owns parsing (with its fallback policy).
type Payload struct {
	SiteID    string `json:"site_id"`
	EventType string `json:"event_type"`
	Path      string `json:"path,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

var (
	ErrSiteIDRequired    = errors.New("site_id required")
	ErrEventTypeRequired = errors.New("event_type required")
)

// Validate checks the producer-guaranteed fields. site_id is checked first;
// each missing field is reported independently.
func (p Payload) Validate() error {
	if p.SiteID == "" {
		return ErrSiteIDRequired
	}
	if p.EventType == "" {
		return ErrEventTypeRequired
	}
	return nil
}

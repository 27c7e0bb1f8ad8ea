package event

import (
	"testing"
	"time"
)

func TestPayloadValidate_RequiresSiteID(t *testing.T) {
	p := Payload{EventType: "pageview"}
	if err := p.Validate(); err != ErrSiteIDRequired {
		t.Fatalf("expected ErrSiteIDRequired, got %v", err)
	}
}

func TestPayloadValidate_RequiresEventType(t *testing.T) {
	p := Payload{SiteID: "site-a"}
	if err := p.Validate(); err != ErrEventTypeRequired {
		t.Fatalf("expected ErrEventTypeRequired, got %v", err)
	}
}

func TestPayloadValidate_SiteIDCheckedFirst(t *testing.T) {
	// Both missing: site_id wins, matching the ingest error order.
	if err := (Payload{}).Validate(); err != ErrSiteIDRequired {
		t.Fatalf("expected ErrSiteIDRequired, got %v", err)
	}
}

func TestPayloadValidate_AcceptsOptionalFieldsAbsent(t *testing.T) {
	p := Payload{SiteID: "site-a", EventType: "pageview"}
	if err := p.Validate(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestParseTimestamp_ZuluRoundTrip(t *testing.T) {
	now := fixedClock(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))

	got, parsed := ParseTimestamp("2024-01-15T10:30:00Z", now)
	if !parsed {
		t.Fatalf("expected parsed=true")
	}
	want := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestParseTimestamp_ExplicitOffsetNormalizedToUTC(t *testing.T) {
	now := fixedClock(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))

	got, parsed := ParseTimestamp("2024-01-15T12:30:00+02:00", now)
	if !parsed {
		t.Fatalf("expected parsed=true")
	}
	want := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestParseTimestamp_NaiveTakenAsUTC(t *testing.T) {
	now := fixedClock(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))

	got, parsed := ParseTimestamp("2024-01-15T10:30:00", now)
	if !parsed {
		t.Fatalf("expected parsed=true")
	}
	want := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestParseTimestamp_FractionalSeconds(t *testing.T) {
	now := fixedClock(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))

	got, parsed := ParseTimestamp("2024-01-15T10:30:00.123456Z", now)
	if !parsed {
		t.Fatalf("expected parsed=true")
	}
	if got.Nanosecond() != 123456000 {
		t.Fatalf("expected fractional seconds preserved, got %d", got.Nanosecond())
	}
}

func TestParseTimestamp_EmptyFallsBackToNow(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	got, parsed := ParseTimestamp("", fixedClock(fixed))
	if parsed {
		t.Fatalf("expected parsed=false")
	}
	if !got.Equal(fixed) {
		t.Fatalf("expected fallback to %v, got %v", fixed, got)
	}
}

func TestParseTimestamp_GarbageFallsBackToNow(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	got, parsed := ParseTimestamp("not-a-timestamp", fixedClock(fixed))
	if parsed {
		t.Fatalf("expected parsed=false")
	}
	if !got.Equal(fixed) {
		t.Fatalf("expected fallback to %v, got %v", fixed, got)
	}
}

func TestDayWindow_InclusiveBounds(t *testing.T) {
	start, end := DayWindow(time.Date(2024, 1, 15, 13, 45, 0, 0, time.UTC))

	if !start.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %v", start)
	}

	inside := time.Date(2024, 1, 15, 23, 59, 59, 999999999, time.UTC)
	if end.Before(inside) {
		t.Fatalf("expected end to include %v, got %v", inside, end)
	}
	nextDay := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)
	if !end.Before(nextDay) {
		t.Fatalf("expected end before %v, got %v", nextDay, end)
	}
}

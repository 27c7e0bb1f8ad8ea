package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sitepulse/internal/event"
	"sitepulse/internal/queue"

	"github.com/gin-gonic/gin"
)

func newTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/event", h.PostEvent)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/event", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPostEvent_AcceptsAndEnqueuesExactlyOne(t *testing.T) {
	q := queue.NewMemory()
	h := NewHandler(q, nil, nil)
	r := newTestRouter(h)

	w := postJSON(t, r, `{"site_id":"site-a","event_type":"pageview","path":"/x","user_id":"u1","timestamp":"2024-01-15T10:30:00Z"}`)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"accepted"`) {
		t.Fatalf("expected accepted status, got %s", w.Body.String())
	}

	n, _ := q.Len(context.Background())
	if n != 1 {
		t.Fatalf("expected exactly 1 enqueued message, got %d", n)
	}

	msg, ok, _ := q.PopBlocking(context.Background(), 100*time.Millisecond)
	if !ok {
		t.Fatalf("expected message")
	}
	var p event.Payload
	if err := json.Unmarshal(msg, &p); err != nil {
		t.Fatalf("message not valid JSON: %v", err)
	}
	if p.SiteID != "site-a" || p.EventType != "pageview" || p.Path != "/x" || p.UserID != "u1" {
		t.Fatalf("payload fields not carried through: %+v", p)
	}
	if p.Timestamp != "2024-01-15T10:30:00Z" {
		t.Fatalf("expected timestamp passed through unmodified, got %q", p.Timestamp)
	}
}

func TestPostEvent_MissingSiteIDRejectedWithoutEnqueue(t *testing.T) {
	q := queue.NewMemory()
	h := NewHandler(q, nil, nil)
	r := newTestRouter(h)

	w := postJSON(t, r, `{"event_type":"pageview"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "site_id required") {
		t.Fatalf("expected field-specific error, got %s", w.Body.String())
	}
	if n, _ := q.Len(context.Background()); n != 0 {
		t.Fatalf("expected no enqueue, got %d messages", n)
	}
}

func TestPostEvent_MissingEventTypeRejectedWithoutEnqueue(t *testing.T) {
	q := queue.NewMemory()
	h := NewHandler(q, nil, nil)
	r := newTestRouter(h)

	w := postJSON(t, r, `{"site_id":"site-a"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "event_type required") {
		t.Fatalf("expected field-specific error, got %s", w.Body.String())
	}
	if n, _ := q.Len(context.Background()); n != 0 {
		t.Fatalf("expected no enqueue, got %d messages", n)
	}
}

func TestPostEvent_InvalidJSONRejected(t *testing.T) {
	q := queue.NewMemory()
	h := NewHandler(q, nil, nil)
	r := newTestRouter(h)

	w := postJSON(t, r, `{"site_id":`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if n, _ := q.Len(context.Background()); n != 0 {
		t.Fatalf("expected no enqueue, got %d messages", n)
	}
}

func TestPostEvent_FillsMissingTimestampWithUTCZulu(t *testing.T) {
	q := queue.NewMemory()
	h := NewHandler(q, nil, nil)
	fixed := time.Date(2024, 3, 10, 9, 15, 0, 0, time.UTC)
	h.clock = func() time.Time { return fixed }
	r := newTestRouter(h)

	w := postJSON(t, r, `{"site_id":"site-a","event_type":"pageview"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}

	msg, ok, _ := q.PopBlocking(context.Background(), 100*time.Millisecond)
	if !ok {
		t.Fatalf("expected message")
	}
	var p event.Payload
	if err := json.Unmarshal(msg, &p); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if p.Timestamp != "2024-03-10T09:15:00Z" {
		t.Fatalf("expected filled UTC timestamp with zulu marker, got %q", p.Timestamp)
	}
	got, parsed := event.ParseTimestamp(p.Timestamp, time.Now)
	if !parsed || !got.Equal(fixed) {
		t.Fatalf("filled timestamp must round-trip through the consumer parser, got %v parsed=%v", got, parsed)
	}
}

func TestPostEvent_DuplicateSubmissionsBothEnqueued(t *testing.T) {
	q := queue.NewMemory()
	h := NewHandler(q, nil, nil)
	r := newTestRouter(h)

	body := `{"site_id":"site-a","event_type":"pageview","timestamp":"2024-01-15T10:30:00Z"}`
	for i := 0; i < 2; i++ {
		if w := postJSON(t, r, body); w.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d", w.Code)
		}
	}
	if n, _ := q.Len(context.Background()); n != 2 {
		t.Fatalf("expected 2 messages, no dedup, got %d", n)
	}
}

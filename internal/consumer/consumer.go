package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"sitepulse/internal/event"
	"sitepulse/internal/queue"
)

// Store is the persistence contract the consumer writes through.
// Implemented by store.Postgres (and store.Memory in tests).
type Store interface {
	InsertEvent(ctx context.Context, e event.Event) (int64, error)
}

// Config controls a consumer instance.
type Config struct {
	// PopTimeout bounds each blocking pop; on expiry the loop idles and
	// polls again (continuous mode) or exits (bounded mode).
	PopTimeout time.Duration

	// MaxEvents > 0 enables bounded-run mode: the consumer exits after
	// persisting that many events, or earlier once the queue is observed
	// empty. 0 runs until the context is canceled.
	MaxEvents int

	// RetryBackoff is the pause after a transient queue or store failure.
	RetryBackoff time.Duration
}

func (c Config) withDefaults() Config {
	out := c
	if out.PopTimeout <= 0 {
		out.PopTimeout = 5 * time.Second
	}
	if out.RetryBackoff <= 0 {
		out.RetryBackoff = time.Second
	}
	return out
}

// Consumer drains the queue and persists events one insert per message.
//
// Each cycle is Idle -> Decoding -> Parsing -> Persisting -> Idle. Decode and
// contract failures leave the loop via the dead-letter path, never silently.
// Shutdown is observed only at the Idle boundary; an in-flight message is
// always carried to a commit, a requeue, or the dead-letter list.
//
// Multiple instances may share one queue: pops are destructive and exclusive,
// so each instance processes a disjoint message stream.
type Consumer struct {
	queue queue.Queue
	store Store
	log   *slog.Logger
	cfg   Config
	// clock is injectable for deterministic timestamp-fallback tests.
	clock func() time.Time
}

func New(q queue.Queue, st Store, log *slog.Logger, cfg Config) *Consumer {
	if log == nil {
		log = slog.Default()
	}
	return &Consumer{queue: q, store: st, log: log, cfg: cfg.withDefaults(), clock: time.Now}
}

// Run executes the polling loop until the context is canceled or, in bounded
// mode, until MaxEvents events were persisted or the queue ran empty.
// Returns nil on every graceful stop.
func (c *Consumer) Run(ctx context.Context) error {
	if c.queue == nil || c.store == nil {
		return fmt.Errorf("consumer: queue and store are required")
	}

	bounded := c.cfg.MaxEvents > 0
	processed := 0
	c.log.Info("consumer started", "pop_timeout", c.cfg.PopTimeout, "max_events", c.cfg.MaxEvents)

	for {
		select {
		case <-ctx.Done():
			c.log.Info("consumer stopped", "processed", processed)
			return nil
		default:
		}

		raw, ok, err := c.queue.PopBlocking(ctx, c.cfg.PopTimeout)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("consumer stopped", "processed", processed)
				return nil
			}
			// Transient infra failure: keep the loop alive, retry the pop.
			c.log.Error("queue pop failed", "err", err)
			c.sleep(ctx, c.cfg.RetryBackoff)
			continue
		}
		if !ok {
			if bounded {
				c.log.Info("queue empty, bounded run done", "processed", processed)
				return nil
			}
			continue
		}

		persisted, err := c.processOne(ctx, raw)
		if err != nil {
			// The message went back on the queue; back off before retrying.
			c.log.Error("persist failed, message requeued", "err", err)
			c.sleep(ctx, c.cfg.RetryBackoff)
			continue
		}
		if !persisted {
			continue
		}

		processed++
		if bounded && processed >= c.cfg.MaxEvents {
			c.log.Info("max events reached, bounded run done", "processed", processed)
			return nil
		}
	}
}

// processOne takes full ownership of one popped message. It returns
// (false, nil) when the message was dead-lettered, (true, nil) after a
// successful commit, and (false, err) when the store rejected the insert and
// the message was requeued.
func (c *Consumer) processOne(ctx context.Context, raw []byte) (bool, error) {
	var p event.Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		c.deadLetter(ctx, raw, fmt.Errorf("decode message: %w", err))
		return false, nil
	}

	// site_id/event_type were validated at ingest; their absence here means a
	// producer broke the contract. Fail loudly, never silently discard.
	if err := p.Validate(); err != nil {
		c.deadLetter(ctx, raw, fmt.Errorf("producer contract violation: %w", err))
		return false, nil
	}

	ts, parsed := event.ParseTimestamp(p.Timestamp, c.clock)
	if !parsed {
		c.log.Warn("timestamp unusable, substituted consume time",
			"site_id", p.SiteID, "raw_timestamp", p.Timestamp, "timestamp_fallback", true)
	}

	e := event.Event{
		SiteID:    p.SiteID,
		EventType: p.EventType,
		Path:      p.Path,
		UserID:    p.UserID,
		Timestamp: ts,
	}

	id, err := c.store.InsertEvent(ctx, e)
	if err != nil {
		// One message, one commit: an uncommitted message stays on the queue.
		if rqErr := c.queue.Requeue(ctx, raw); rqErr != nil {
			c.log.Error("requeue failed, message lost", "err", rqErr, "raw", string(raw))
		}
		return false, fmt.Errorf("insert event: %w", err)
	}

	c.log.Debug("event persisted", "id", id, "site_id", p.SiteID, "event_type", p.EventType)
	return true, nil
}

func (c *Consumer) deadLetter(ctx context.Context, raw []byte, cause error) {
	c.log.Error("message dead-lettered", "err", cause, "raw", string(raw))
	if err := c.queue.DeadLetter(ctx, raw); err != nil {
		c.log.Error("dead-letter push failed", "err", err, "raw", string(raw))
	}
}

func (c *Consumer) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"sitepulse/internal/event"
	"sitepulse/internal/queue"
	"sitepulse/pkg/logger"
	"sitepulse/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const healthPingTimeout = 2 * time.Second

// Handler accepts analytics events and enqueues them for the consumer.
//
// Contract: a 202 means "durably queued", deliberately weaker than
// "persisted". The endpoint never touches the database on the ingest path
// and never deduplicates; duplicate submissions become duplicate rows.
type Handler struct {
	Queue queue.Queue

	// DB and Redis are only used by the health endpoint.
	DB    *sql.DB
	Redis *redis.Client

	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewHandler(q queue.Queue, db *sql.DB, rdb *redis.Client) *Handler {
	return &Handler{Queue: q, DB: db, Redis: rdb, clock: time.Now}
}

func (h *Handler) PostEvent(c *gin.Context) {
	if h.Queue == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "queue not configured"})
		return
	}

	var p event.Payload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := p.Validate(); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Missing timestamps are filled here so the consumer always has an
	// explicit-UTC instant to parse. Present values pass through untouched.
	if p.Timestamp == "" {
		p.Timestamp = h.clock().UTC().Format(time.RFC3339)
	}

	raw, err := json.Marshal(p)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "encode payload failed"})
		return
	}
	if err := h.Queue.Push(c.Request.Context(), raw); err != nil {
		logger.FromGin(c).Error("enqueue failed", "site_id", p.SiteID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "queue unavailable"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// Healthz reports liveness of the store and queue plus the current backlog.
func (h *Handler) Healthz(c *gin.Context) {
	ctx := c.Request.Context()

	if h.DB != nil {
		if err := utils.HealthCheck(ctx, h.DB, healthPingTimeout); err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
	}
	if h.Redis != nil {
		pingCtx, cancel := context.WithTimeout(ctx, healthPingTimeout)
		defer cancel()
		if err := h.Redis.Ping(pingCtx).Err(); err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
	}

	out := gin.H{"status": "ok"}
	if h.Queue != nil {
		if n, err := h.Queue.Len(ctx); err == nil {
			out["queue_depth"] = n
		}
	}
	c.JSON(http.StatusOK, out)
}

package stats

import (
	"errors"
	"net/http"
	"time"

	"sitepulse/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handler exposes the aggregation engine over HTTP.
// Keep it thin: parse/validate query params, call the service, return JSON.
type Handler struct {
	Stats *Service
}

func (h Handler) GetStats(c *gin.Context) {
	if h.Stats == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "stats not configured"})
		return
	}

	siteID := c.Query("site_id")
	if siteID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "site_id required"})
		return
	}

	var day time.Time
	if ds := c.Query("date"); ds != "" {
		parsed, err := time.Parse("2006-01-02", ds)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid date format, use YYYY-MM-DD"})
			return
		}
		day = parsed
	}

	out, err := h.Stats.Daily(c.Request.Context(), siteID, day)
	if errors.Is(err, ErrInvalidArgument) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "site_id required"})
		return
	}
	if err != nil {
		// Query failures carry their cause; never a silent zero result.
		logger.FromGin(c).Error("stats query failed", "site_id", siteID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

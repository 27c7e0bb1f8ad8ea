package main

import (
	"sitepulse/internal/ingest"
	"sitepulse/internal/stats"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, ing *ingest.Handler, st stats.Handler) {
	r.GET("/healthz", ing.Healthz)

	// Ingestion: a 202 means durably queued, not yet visible in /stats.
	r.POST("/event", ing.PostEvent)

	// Aggregation reads run concurrently with ongoing inserts; a query may
	// miss an event committed moments earlier.
	r.GET("/stats", st.GetStats)
}

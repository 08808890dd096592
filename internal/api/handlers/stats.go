package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brindlewood/storefront-api/internal/cache"
	"github.com/brindlewood/storefront-api/internal/gate"
)

// StatsHandler exposes cache and gate occupancy for operational checks
type StatsHandler struct {
	artifacts *cache.Cache
	configs   *cache.Cache
	gate      *gate.Gate
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(artifacts, configs *cache.Cache, g *gate.Gate) *StatsHandler {
	return &StatsHandler{
		artifacts: artifacts,
		configs:   configs,
		gate:      g,
	}
}

// CacheStats handles GET /api/v1/cache/stats
func (h *StatsHandler) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"artifacts": cacheStatsBlock(h.artifacts.Stats()),
		"configs":   cacheStatsBlock(h.configs.Stats()),
		"gate": gin.H{
			"inFlight": h.gate.InFlight(),
			"queued":   h.gate.Queued(),
		},
	})
}

func cacheStatsBlock(s cache.Stats) gin.H {
	block := gin.H{"size": s.Size}
	if !s.OldestEntry.IsZero() {
		block["oldestEntryTimestamp"] = s.OldestEntry.UTC().Format(time.RFC3339)
	}
	return block
}

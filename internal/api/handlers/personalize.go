package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openai/openai-go/responses"

	"github.com/brindlewood/storefront-api/internal/cache"
	"github.com/brindlewood/storefront-api/internal/models"
	"github.com/brindlewood/storefront-api/internal/observability"
	"github.com/brindlewood/storefront-api/internal/personalize"
	"github.com/brindlewood/storefront-api/internal/provider"
	"github.com/brindlewood/storefront-api/internal/visitor"
)

// PersonalizeHandler serves campaign-driven page configuration. The endpoint
// never fails a storefront: every reachable path answers 200 with a complete
// config, falling back to the deterministic themes when the provider cannot.
type PersonalizeHandler struct {
	normalizer *visitor.Normalizer
	engine     *personalize.Engine
	configs    *cache.Cache
}

// NewPersonalizeHandler creates a new personalize handler
func NewPersonalizeHandler(normalizer *visitor.Normalizer, engine *personalize.Engine, configs *cache.Cache) *PersonalizeHandler {
	return &PersonalizeHandler{
		normalizer: normalizer,
		engine:     engine,
		configs:    configs,
	}
}

// Personalize handles POST /api/v1/personalize
func (h *PersonalizeHandler) Personalize(c *gin.Context) {
	startTime := time.Now()

	var req models.PersonalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("❌ PERSONALIZE: invalid request body: %v", err)
		c.JSON(http.StatusBadRequest, models.PersonalizeResponse{
			Success:          false,
			Error:            "Invalid request body: " + err.Error(),
			ProcessingTimeMs: time.Since(startTime).Milliseconds(),
		})
		return
	}

	rc := h.normalizer.Normalize(c.Request.Context(), visitor.RawSignals{
		UTMSource:   req.UTMSource,
		UTMMedium:   req.UTMMedium,
		UTMCampaign: req.UTMCampaign,
		UTMContent:  req.UTMContent,
		UTMTerm:     req.UTMTerm,
		Referrer:    req.Referrer,

		ClientTime: req.ClientTime,
		Timezone:   req.Timezone,
	})

	log.Printf("📨 PERSONALIZE: source=%s campaign=%q catalog=%d items",
		rc.UTMSource, rc.UTMCampaign, len(req.Catalog))

	lfClient := observability.GetClient()
	trace := lfClient.StartTrace(c.Request.Context(), "personalize", map[string]interface{}{
		"utm_source":    rc.UTMSource,
		"utm_campaign":  rc.UTMCampaign,
		"catalog_items": len(req.Catalog),
	})
	defer trace.Finish()

	gen := trace.Generation("config", map[string]interface{}{
		"campaign": rc.UTMCampaign,
	})
	gen.Input(map[string]interface{}{
		"utm_source":   rc.UTMSource,
		"utm_medium":   rc.UTMMedium,
		"utm_campaign": rc.UTMCampaign,
		"utm_content":  rc.UTMContent,
		"utm_term":     rc.UTMTerm,
	})

	result, err := h.engine.Personalize(c.Request.Context(), rc, req.Catalog)
	if err != nil {
		// Only caller cancellation lands here. The client is likely gone,
		// but the contract stays: a complete config on every 200.
		log.Printf("⚠️ PERSONALIZE: request cancelled: %v", err)
		gen.SetLevel("ERROR")
		gen.Output(err.Error())
		gen.Finish()

		cfg := personalize.BuildFallbackConfig(rc)
		c.JSON(http.StatusOK, models.PersonalizeResponse{
			Success:          true,
			Fallback:         true,
			Config:           cfg,
			ProcessingTimeMs: time.Since(startTime).Milliseconds(),
		})
		return
	}

	if usage, ok := result.Usage.(responses.ResponseUsage); ok {
		model := provider.GetCallParams(provider.StageConfig).Model
		gen.Model(model)
		gen.Usage(map[string]interface{}{
			"input_tokens":  usage.InputTokens,
			"output_tokens": usage.OutputTokens,
			"total_tokens":  usage.TotalTokens,
			"cost_usd":      observability.CalculateOpenAICost(model, usage),
		})
	}
	gen.Output(result.Config)
	gen.Metadata(map[string]interface{}{
		"cached":    result.Cached,
		"fallback":  result.Fallback,
		"intensity": string(result.Config.Intensity),
		"theme":     result.Config.Theme,
	})
	gen.Finish()

	var order []string
	if len(req.Catalog) > 0 && result.Config.Intensity == models.IntensityFull {
		ranked := personalize.ApplyBoosts(req.Catalog, result.Config.TagBoosts, personalize.MinVisibleItems)
		order = make([]string, len(ranked))
		for i, item := range ranked {
			order[i] = item.Handle
		}
	}

	log.Printf("✅ PERSONALIZE: done in %v (intensity=%s, theme=%s, cached=%v, fallback=%v)",
		time.Since(startTime), result.Config.Intensity, result.Config.Theme, result.Cached, result.Fallback)

	c.JSON(http.StatusOK, models.PersonalizeResponse{
		Success:          true,
		Cached:           result.Cached,
		Fallback:         result.Fallback,
		Config:           result.Config,
		Order:            order,
		ProcessingTimeMs: time.Since(startTime).Milliseconds(),
	})
}

// Health handles GET /api/v1/personalize/health
func (h *PersonalizeHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"cacheSize": h.configs.Stats().Size,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

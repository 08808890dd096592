package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brindlewood/storefront-api/internal/models"
	"github.com/brindlewood/storefront-api/internal/observability"
	"github.com/brindlewood/storefront-api/internal/orchestrator"
	"github.com/brindlewood/storefront-api/internal/provider"
	"github.com/brindlewood/storefront-api/internal/visitor"
)

// GenerateHandler serves context-personalized artifact generation
type GenerateHandler struct {
	normalizer   *visitor.Normalizer
	orchestrator *orchestrator.Orchestrator
}

// NewGenerateHandler creates a new generate handler
func NewGenerateHandler(normalizer *visitor.Normalizer, orch *orchestrator.Orchestrator) *GenerateHandler {
	return &GenerateHandler{
		normalizer:   normalizer,
		orchestrator: orch,
	}
}

// subjectKinds is the allowlist of kinds a request may name. Anything else
// falls back to product so a typo in the storefront snippet never 500s.
var subjectKinds = map[models.SubjectKind]bool{
	models.SubjectProduct:    true,
	models.SubjectBanner:     true,
	models.SubjectCollection: true,
	models.SubjectTextBlock:  true,
}

func resolveSubjectKind(raw models.SubjectKind) models.SubjectKind {
	if subjectKinds[raw] {
		return raw
	}
	return models.SubjectProduct
}

// Generate handles POST /api/v1/artifacts/generate
func (h *GenerateHandler) Generate(c *gin.Context) {
	startTime := time.Now()

	var req models.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("❌ GENERATE: invalid request body: %v", err)
		c.JSON(http.StatusBadRequest, models.GenerateResponse{
			Success:          false,
			Error:            "Invalid request body: " + err.Error(),
			ProcessingTimeMs: time.Since(startTime).Milliseconds(),
			Context:          h.normalizer.Normalize(c.Request.Context(), visitor.RawSignals{}),
		})
		return
	}

	if strings.TrimSpace(req.SubjectURL) == "" {
		log.Printf("❌ GENERATE: missing subjectURL")
		c.JSON(http.StatusBadRequest, models.GenerateResponse{
			Success:          false,
			Error:            "subjectURL is required",
			ProcessingTimeMs: time.Since(startTime).Milliseconds(),
			Context:          h.normalizeForError(c, req),
		})
		return
	}

	rc := h.normalizer.Normalize(c.Request.Context(), signalsFromGenerateRequest(req))
	kind := resolveSubjectKind(req.SubjectKind)

	log.Printf("📨 GENERATE: subject=%s kind=%s source=%s time=%s season=%s force=%v",
		req.SubjectURL, kind, rc.TrafficSource, rc.TimeOfDay, rc.Season, req.ForceRegenerate)

	lfClient := observability.GetClient()
	trace := lfClient.StartTrace(c.Request.Context(), "generate-artifact", map[string]interface{}{
		"subject_url":    req.SubjectURL,
		"subject_kind":   string(kind),
		"traffic_source": string(rc.TrafficSource),
		"time_of_day":    string(rc.TimeOfDay),
		"season":         string(rc.Season),
	})
	defer trace.Finish()

	gen := trace.Generation("image-transform", map[string]interface{}{
		"subject_kind":     string(kind),
		"force_regenerate": req.ForceRegenerate,
	})
	gen.Input(req.SubjectURL)

	out, err := h.orchestrator.GenerateArtifact(c.Request.Context(), orchestrator.Input{
		SubjectURL:      req.SubjectURL,
		SubjectKind:     kind,
		Meta:            req.Subject,
		Context:         rc,
		ForceRegenerate: req.ForceRegenerate,
	})
	if err != nil {
		log.Printf("❌ GENERATE: generation failed: %v", err)
		gen.SetLevel("ERROR")
		gen.Output(err.Error())
		gen.Finish()

		status := http.StatusInternalServerError
		var provErr *provider.Error
		if errors.As(err, &provErr) {
			status = http.StatusBadGateway
		}
		c.JSON(status, models.GenerateResponse{
			Success:          false,
			Error:            err.Error(),
			Cached:           false,
			ProcessingTimeMs: time.Since(startTime).Milliseconds(),
			Context:          rc,
		})
		return
	}

	gen.Output(out.ArtifactURL)
	gen.Metadata(map[string]interface{}{
		"cached":       out.Cached,
		"prompt_chars": len(out.GeneratorInput),
	})
	gen.Finish()

	log.Printf("✅ GENERATE: done in %v (cached=%v, prompt=%q)",
		time.Since(startTime), out.Cached, truncate(out.GeneratorInput, maxLoggedPromptChars))

	c.JSON(http.StatusOK, models.GenerateResponse{
		Success:          true,
		ArtifactURL:      out.ArtifactURL,
		GeneratorInput:   out.GeneratorInput,
		Cached:           out.Cached,
		ProcessingTimeMs: time.Since(startTime).Milliseconds(),
		Context:          rc,
	})
}

// normalizeForError builds the context block for a rejected request without
// triggering a weather lookup on its coordinates
func (h *GenerateHandler) normalizeForError(c *gin.Context, req models.GenerateRequest) models.RequestContext {
	sig := signalsFromGenerateRequest(req)
	sig.Latitude = nil
	sig.Longitude = nil
	return h.normalizer.Normalize(c.Request.Context(), sig)
}

func signalsFromGenerateRequest(req models.GenerateRequest) visitor.RawSignals {
	return visitor.RawSignals{
		UTMSource:   req.UTMSource,
		UTMMedium:   req.UTMMedium,
		UTMCampaign: req.UTMCampaign,
		UTMContent:  req.UTMContent,
		UTMTerm:     req.UTMTerm,
		Referrer:    req.Referrer,

		ClientTime: req.ClientTime,
		Timezone:   req.Timezone,

		Latitude:  req.Latitude,
		Longitude: req.Longitude,

		TrafficSourceOverride: req.TrafficSourceOverride,
		TimeOfDayOverride:     req.TimeOfDayOverride,
		SeasonOverride:        req.SeasonOverride,
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

package personalize

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go/responses"

	"github.com/brindlewood/storefront-api/internal/cache"
	"github.com/brindlewood/storefront-api/internal/metrics"
	"github.com/brindlewood/storefront-api/internal/models"
	"github.com/brindlewood/storefront-api/internal/provider"
	"github.com/brindlewood/storefront-api/internal/visitor"
)

const defaultConfigTimeout = 8 * time.Second

// ConfigPromptBuilder assembles the prompts for a config generation call
type ConfigPromptBuilder interface {
	BuildSystemPrompt() (string, error)
	BuildUserPrompt(rc models.RequestContext, catalog []models.CatalogItem) string
}

// Engine decides the page configuration for one acquisition context. The AI
// path runs under a hard timeout and the deterministic fallback always wins
// when it fails, so Personalize returns a complete config on every path short
// of caller cancellation.
type Engine struct {
	configs *cache.Cache
	text    provider.TextProvider
	prompts ConfigPromptBuilder
	timeout time.Duration
	metrics *metrics.SentryMetrics
	cw      *metrics.Client
}

// Result carries one personalization decision
type Result struct {
	Config   *models.PersonalizationConfig
	Cached   bool
	Fallback bool

	// Usage is the provider's raw usage payload, present only when the AI
	// path produced the config on this call
	Usage any
}

func New(configs *cache.Cache, text provider.TextProvider, prompts ConfigPromptBuilder, timeout time.Duration, sentryMetrics *metrics.SentryMetrics, cw *metrics.Client) *Engine {
	if timeout <= 0 {
		timeout = defaultConfigTimeout
	}
	return &Engine{
		configs: configs,
		text:    text,
		prompts: prompts,
		timeout: timeout,
		metrics: sentryMetrics,
		cw:      cw,
	}
}

// Personalize resolves a page configuration for the given context. Visitors
// with no campaign signal get the generic config immediately; everyone else
// goes through the config cache and, on a miss, the text provider. Provider
// trouble of any kind resolves to the deterministic fallback, never cached,
// so the next request retries the AI path.
func (e *Engine) Personalize(ctx context.Context, rc models.RequestContext, catalog []models.CatalogItem) (*Result, error) {
	startTime := time.Now()

	if !rc.HasUTMSignal() {
		// Nothing to cache here: without campaign fields every direct
		// visitor would share one key anyway.
		log.Printf("📝 PERSONALIZE: no campaign signal, serving generic config")
		return &Result{Config: BuildFallbackConfig(rc)}, nil
	}

	fingerprint := visitor.CampaignFingerprint(rc, catalogIdentity(catalog))
	log.Printf("📝 PERSONALIZE REQUEST STARTED: campaign=%q, fingerprint=%s", rc.UTMCampaign, fingerprint)

	transaction := sentry.StartTransaction(ctx, "engine.personalize")
	defer transaction.Finish()

	transaction.SetTag("provider", e.text.Name())
	transaction.SetTag("fingerprint", fingerprint)

	if entry, ok := e.configs.Get(fingerprint); ok {
		var cfg models.PersonalizationConfig
		if err := json.Unmarshal([]byte(entry.Artifact), &cfg); err == nil {
			e.metrics.RecordCacheAccess(ctx, "config", true)
			e.cw.RecordCacheAccess("config", true)
			transaction.SetTag("cache_hit", "true")
			log.Printf("✅ CONFIG CACHE HIT: fingerprint=%s, age=%v", fingerprint, time.Since(entry.CreatedAt))
			return &Result{Config: &cfg, Cached: true}, nil
		}
		log.Printf("⚠️ CONFIG CACHE ENTRY UNDECODABLE, regenerating: fingerprint=%s", fingerprint)
	}

	e.metrics.RecordCacheAccess(ctx, "config", false)
	e.cw.RecordCacheAccess("config", false)
	transaction.SetTag("cache_hit", "false")

	systemPrompt, err := e.prompts.BuildSystemPrompt()
	if err != nil {
		sentry.CaptureException(err)
		return e.fallback(ctx, rc, transaction, "prompt_error", startTime), nil
	}
	userPrompt := e.prompts.BuildUserPrompt(rc, catalog)

	callParams := provider.GetCallParams(provider.StageConfig)

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	span := transaction.StartChild("provider.config")
	providerStart := time.Now()
	result, err := e.text.GenerateConfig(callCtx, &provider.ConfigRequest{
		SystemPrompt:  systemPrompt,
		UserPrompt:    userPrompt,
		Model:         callParams.Model,
		ReasoningMode: callParams.ReasoningMode,
		OutputSchema:  ConfigSchema(),
	})
	providerDuration := time.Since(providerStart)
	span.Finish()

	e.cw.RecordProviderCall(e.text.Name(), err == nil, providerDuration)

	if err != nil {
		if ctx.Err() != nil {
			// The caller is gone; there is nobody to serve a fallback to
			return nil, ctx.Err()
		}
		log.Printf("❌ CONFIG GENERATION FAILED after %v: %v", providerDuration, err)
		sentry.CaptureException(err)
		return e.fallback(ctx, rc, transaction, "provider_error", startTime), nil
	}

	cfg, err := ParseConfig(result.RawOutput, catalog)
	if err != nil {
		log.Printf("⚠️ CONFIG REJECTED BY VALIDATOR: %v", err)
		sentry.CaptureException(err)
		return e.fallback(ctx, rc, transaction, "invalid_config", startTime), nil
	}

	e.recordTokenUsage(ctx, callParams.Model, result.Usage)

	if payload, err := json.Marshal(cfg); err == nil {
		// Write through before returning so a concurrent miss finds the entry
		e.configs.Set(fingerprint, cache.Entry{Artifact: string(payload), GeneratorInput: userPrompt})
	}

	duration := time.Since(startTime)
	e.metrics.RecordGenerationDuration(ctx, duration, true)
	e.cw.RecordGenerationDuration(duration, true)
	transaction.SetTag("success", "true")
	log.Printf("✅ CONFIG GENERATED in %v: intensity=%s, theme=%s", duration, cfg.Intensity, cfg.Theme)

	return &Result{Config: cfg, Usage: result.Usage}, nil
}

// fallback resolves a failed AI path to the deterministic config. The result
// is never cached, so the next request for this campaign retries the provider.
func (e *Engine) fallback(ctx context.Context, rc models.RequestContext, transaction *sentry.Span, reason string, startTime time.Time) *Result {
	transaction.SetTag("success", "false")
	transaction.SetTag("fallback_reason", reason)

	duration := time.Since(startTime)
	e.metrics.RecordGenerationDuration(ctx, duration, false)
	e.cw.RecordGenerationDuration(duration, false)
	e.cw.RecordFallback("personalize")
	e.metrics.RecordCustomMetric("personalize.fallback", map[string]interface{}{
		"reason":   reason,
		"campaign": rc.UTMCampaign,
	})

	log.Printf("🔄 FALLBACK CONFIG SERVED: reason=%s, campaign=%q", reason, rc.UTMCampaign)
	return &Result{Config: BuildFallbackConfig(rc), Fallback: true}
}

// recordTokenUsage forwards provider token counts to both metrics backends.
// Only the OpenAI responses shape is understood; other payloads are skipped.
func (e *Engine) recordTokenUsage(ctx context.Context, model string, usage any) {
	u, ok := usage.(responses.ResponseUsage)
	if !ok {
		return
	}

	reasoningTokens := int(u.OutputTokensDetails.ReasoningTokens)
	e.metrics.RecordTokenUsage(ctx, model, int(u.TotalTokens), int(u.InputTokens), int(u.OutputTokens), reasoningTokens)
	e.cw.RecordTokenUsage(model, int(u.TotalTokens), int(u.InputTokens), int(u.OutputTokens), reasoningTokens)
}

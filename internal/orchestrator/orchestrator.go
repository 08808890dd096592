package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/brindlewood/storefront-api/internal/cache"
	"github.com/brindlewood/storefront-api/internal/gate"
	"github.com/brindlewood/storefront-api/internal/metrics"
	"github.com/brindlewood/storefront-api/internal/models"
	"github.com/brindlewood/storefront-api/internal/provider"
	"github.com/brindlewood/storefront-api/internal/visitor"
)

const defaultImageTimeout = 2 * time.Minute

// PromptBuilder produces the provider instruction for one subject
type PromptBuilder interface {
	Build(kind models.SubjectKind, meta models.SubjectMeta, rc models.RequestContext) (string, error)
}

// Orchestrator turns artifact cache misses into cache hits by calling the
// image provider. Failures are never cached and never retried here; a
// second concurrent miss on the same key is an accepted duplicate whose
// result simply overwrites.
type Orchestrator struct {
	artifacts *cache.Cache
	gate      *gate.Gate
	images    provider.ImageProvider
	prompts   PromptBuilder
	timeout   time.Duration
	metrics   *metrics.SentryMetrics
	cw        *metrics.Client
}

// Input describes one artifact generation request
type Input struct {
	SubjectURL      string
	SubjectKind     models.SubjectKind
	Meta            models.SubjectMeta
	Context         models.RequestContext
	ForceRegenerate bool
}

// Output is the resolved artifact
type Output struct {
	ArtifactURL    string
	GeneratorInput string
	Cached         bool
}

// New creates an orchestrator. A non-positive timeout selects the default
// image generation bound.
func New(
	artifacts *cache.Cache,
	g *gate.Gate,
	images provider.ImageProvider,
	prompts PromptBuilder,
	timeout time.Duration,
	sentryMetrics *metrics.SentryMetrics,
	cw *metrics.Client,
) *Orchestrator {
	if timeout <= 0 {
		timeout = defaultImageTimeout
	}

	return &Orchestrator{
		artifacts: artifacts,
		gate:      g,
		images:    images,
		prompts:   prompts,
		timeout:   timeout,
		metrics:   sentryMetrics,
		cw:        cw,
	}
}

// GenerateArtifact resolves one subject to an artifact: cache read (skipped
// on ForceRegenerate), gate admission, prompt build, provider call under the
// image timeout, then write-through. ForceRegenerate bypasses only the read;
// a successful result is always committed before returning.
func (o *Orchestrator) GenerateArtifact(ctx context.Context, input Input) (*Output, error) {
	startTime := time.Now()

	subject := visitor.SubjectIdentity(input.SubjectURL)
	fingerprint := visitor.Fingerprint(subject, input.SubjectKind, input.Context)

	log.Printf("🎨 ARTIFACT REQUEST STARTED: subject=%s, kind=%s", subject, input.SubjectKind)

	// Start Sentry transaction
	transaction := sentry.StartTransaction(ctx, "orchestrator.generate_artifact")
	defer transaction.Finish()

	transaction.SetTag("subject_kind", string(input.SubjectKind))
	transaction.SetTag("provider", o.images.Name())
	transaction.SetTag("fingerprint", fingerprint)

	if input.ForceRegenerate {
		transaction.SetTag("force_regenerate", "true")
		log.Printf("🔄 FORCE REGENERATE: skipping cache read for subject=%s", subject)
	} else {
		if entry, ok := o.artifacts.Get(fingerprint); ok {
			o.metrics.RecordCacheAccess(ctx, "artifact", true)
			o.cw.RecordCacheAccess("artifact", true)
			transaction.SetTag("cache_hit", "true")
			log.Printf("✅ ARTIFACT CACHE HIT: subject=%s, age=%v", subject, time.Since(entry.CreatedAt))

			return &Output{
				ArtifactURL:    entry.Artifact,
				GeneratorInput: entry.GeneratorInput,
				Cached:         true,
			}, nil
		}
		o.metrics.RecordCacheAccess(ctx, "artifact", false)
		o.cw.RecordCacheAccess("artifact", false)
	}
	transaction.SetTag("cache_hit", "false")

	// Admission control: wait for a slot in the current batch
	if err := o.gate.Enter(ctx); err != nil {
		transaction.SetTag("success", "false")
		transaction.SetTag("error_type", "gate_wait")
		return nil, fmt.Errorf("abandoned while waiting for a generation slot: %w", err)
	}
	defer o.gate.Leave()

	prompt, err := o.prompts.Build(input.SubjectKind, input.Meta, input.Context)
	if err != nil {
		transaction.SetTag("success", "false")
		transaction.SetTag("error_type", "prompt_build")
		sentry.CaptureException(err)
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	callParams := provider.GetCallParams(provider.StageImageTransform)

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	span := transaction.StartChild("provider.transform")
	providerStart := time.Now()
	result, err := o.images.Transform(callCtx, &provider.ImageRequest{
		SubjectURL: input.SubjectURL,
		Prompt:     prompt,
		Model:      callParams.Model,
	})
	providerDuration := time.Since(providerStart)
	span.Finish()

	o.cw.RecordProviderCall(o.images.Name(), err == nil, providerDuration)

	if err != nil {
		duration := time.Since(startTime)
		o.metrics.RecordGenerationDuration(ctx, duration, false)
		o.cw.RecordGenerationDuration(duration, false)
		transaction.SetTag("success", "false")
		transaction.SetTag("error_type", "provider_error")
		sentry.CaptureException(err)
		log.Printf("❌ ARTIFACT GENERATION FAILED after %v: %v", providerDuration, err)
		// Typed provider failures pass through so the handler can map them
		return nil, err
	}

	// Write through before returning so a concurrent miss finds the entry
	o.artifacts.Set(fingerprint, cache.Entry{
		Artifact:       result.ArtifactURL,
		GeneratorInput: prompt,
	})

	duration := time.Since(startTime)
	o.metrics.RecordGenerationDuration(ctx, duration, true)
	o.cw.RecordGenerationDuration(duration, true)
	transaction.SetTag("success", "true")
	log.Printf("✅ ARTIFACT GENERATION COMPLETE: subject=%s, duration=%v", subject, duration)

	return &Output{
		ArtifactURL:    result.ArtifactURL,
		GeneratorInput: prompt,
		Cached:         false,
	}, nil
}

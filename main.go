package main

import (
	"context"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/brindlewood/storefront-api/internal/api"
	"github.com/brindlewood/storefront-api/internal/cache"
	"github.com/brindlewood/storefront-api/internal/config"
	"github.com/brindlewood/storefront-api/internal/gate"
	"github.com/brindlewood/storefront-api/internal/metrics"
	"github.com/brindlewood/storefront-api/internal/observability"
	"github.com/brindlewood/storefront-api/internal/orchestrator"
	"github.com/brindlewood/storefront-api/internal/personalize"
	"github.com/brindlewood/storefront-api/internal/prompt"
	"github.com/brindlewood/storefront-api/internal/provider"
	"github.com/brindlewood/storefront-api/internal/visitor"
	"github.com/brindlewood/storefront-api/internal/weather"
)

const sentryFlushTimeout = 2 * time.Second

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

// GetVersion returns the current release version
func GetVersion() string {
	return releaseVersion
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	ctx := context.Background()

	// Initialize Sentry
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          "storefront-api@" + releaseVersion, // Use embedded release version
			EnableTracing:    true,                               // Enable tracing for spans
			TracesSampleRate: 1.0,                                // 100% sampling for now, adjust based on volume
			EnableLogs:       true,                               // Enable Sentry Logs feature
			Debug:            !cfg.IsProduction(),                // Enable debug in non-prod
			BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
				// Filter out sensitive data
				if event.Request != nil {
					event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
				}
				return event
			},
		}); err != nil {
			log.Printf("Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s, release: %s)", cfg.Environment, releaseVersion)
			// Flush on shutdown
			defer sentry.Flush(sentryFlushTimeout)
		}
	} else {
		log.Println("⚠️  Sentry not configured (SENTRY_DSN not set)")
	}

	// Initialize Langfuse tracing
	observability.InitializeLangfuse(ctx, cfg)

	// CloudWatch metrics (no-op outside production)
	cw, err := metrics.NewClient(ctx, cfg.Environment)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to initialize metrics client:", err)
	}

	// Generation caches: one for image artifacts, one for personalization
	// configs. Both live in-process; a restart simply starts cold.
	artifacts := cache.New(cache.Config{
		TTL:        cfg.ArtifactCacheTTL,
		MaxEntries: cfg.ArtifactCacheMax,
	})
	configs := cache.New(cache.Config{
		TTL:        cfg.ConfigCacheTTL,
		MaxEntries: cfg.ConfigCacheMax,
	})

	// Weather enrichment is optional: without it contexts simply carry no
	// weather block
	var weatherLookup visitor.WeatherLookup
	if cfg.WeatherEnabled {
		weatherLookup = weather.NewClient(cfg.WeatherAPIURL)
	} else {
		log.Println("⚠️  Weather enrichment disabled (WEATHER_ENABLED=false)")
	}
	normalizer := visitor.NewNormalizer(weatherLookup)

	// AI providers
	factory := provider.NewFactory(cfg.OpenAIAPIKey, cfg.GeminiAPIKey, cfg.ImageAPIURL, cfg.ImageAPIKey)

	images, err := factory.ImageProvider(ctx, cfg.ImageProvider)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to initialize image provider:", err)
	}

	text, err := factory.TextProvider(cfg.TextProvider)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to initialize text provider:", err)
	}

	log.Printf("✅ Providers ready (image: %s, text: %s)", images.Name(), text.Name())

	// Generation pipeline
	generationGate := gate.New(cfg.GateBatchSize)
	orch := orchestrator.New(artifacts, generationGate, images, prompt.NewImageBuilder(),
		cfg.ImageTimeout, metrics.NewSentryMetrics(), cw)
	engine := personalize.New(configs, text, prompt.NewPersonalizeBuilder(),
		cfg.TextTimeout, metrics.NewSentryMetrics(), cw)

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	router := api.SetupRouter(api.Dependencies{
		Config:       cfg,
		Metrics:      cw,
		Artifacts:    artifacts,
		Configs:      configs,
		Gate:         generationGate,
		Normalizer:   normalizer,
		Orchestrator: orch,
		Engine:       engine,
		Version:      GetVersion(),
	})

	// Start server
	log.Printf("🚀 Starting server on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to start server:", err)
	}
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string)
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"x-api-key":     true,
	}

	for k, v := range headers {
		if sensitiveKeys[k] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}

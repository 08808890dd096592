package api

import (
	"github.com/gin-gonic/gin"

	"github.com/brindlewood/storefront-api/internal/api/handlers"
	apimiddleware "github.com/brindlewood/storefront-api/internal/api/middleware"
	"github.com/brindlewood/storefront-api/internal/cache"
	"github.com/brindlewood/storefront-api/internal/config"
	"github.com/brindlewood/storefront-api/internal/gate"
	"github.com/brindlewood/storefront-api/internal/metrics"
	"github.com/brindlewood/storefront-api/internal/orchestrator"
	"github.com/brindlewood/storefront-api/internal/personalize"
	"github.com/brindlewood/storefront-api/internal/visitor"
)

// Dependencies carries the shared components the route handlers are built from
type Dependencies struct {
	Config       *config.Config
	Metrics      *metrics.Client
	Artifacts    *cache.Cache
	Configs      *cache.Cache
	Gate         *gate.Gate
	Normalizer   *visitor.Normalizer
	Orchestrator *orchestrator.Orchestrator
	Engine       *personalize.Engine
	Version      string
}

func SetupRouter(deps Dependencies) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(deps.Metrics))

	// CORS middleware: the generate and personalize endpoints are called
	// straight from storefront pages
	router.Use(apimiddleware.CORS(deps.Config.AllowedOrigin))

	// Health check
	healthHandler := handlers.NewHealthHandler(deps.Version)
	router.GET("/health", healthHandler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		// Artifact generation - context-styled imagery
		generateHandler := handlers.NewGenerateHandler(deps.Normalizer, deps.Orchestrator)
		v1.POST("/artifacts/generate", generateHandler.Generate)

		// Page personalization - campaign-driven configs
		personalizeHandler := handlers.NewPersonalizeHandler(deps.Normalizer, deps.Engine, deps.Configs)
		v1.POST("/personalize", personalizeHandler.Personalize)
		v1.GET("/personalize/health", personalizeHandler.Health)

		// Cache and gate occupancy
		statsHandler := handlers.NewStatsHandler(deps.Artifacts, deps.Configs, deps.Gate)
		v1.GET("/cache/stats", statsHandler.CacheStats)
	}

	return router
}

package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration
// Note: This is a stateless configuration - no database needed.
// Generated artifacts live in the in-process cache only.
type Config struct {
	// Environment
	Environment string
	Port        string

	// Provider API Keys
	OpenAIAPIKey string // OpenAI API key for text generation
	GeminiAPIKey string // Google Gemini API key for image generation

	// Hosted image endpoint (optional alternative to Gemini)
	ImageAPIURL string
	ImageAPIKey string

	// Provider selection
	// - TextProvider: "openai" (default)
	// - ImageProvider: "gemini" (default) or "hosted"
	TextProvider  string
	ImageProvider string

	// Weather enrichment (optional)
	WeatherAPIURL  string
	WeatherEnabled bool

	// Browser origin allowed to call the API; * for development
	AllowedOrigin string

	// Cache tuning
	ArtifactCacheTTL time.Duration
	ArtifactCacheMax int
	ConfigCacheTTL   time.Duration
	ConfigCacheMax   int

	// Provider concurrency
	GateBatchSize int

	// Per-call deadlines
	ImageTimeout time.Duration
	TextTimeout  time.Duration

	// Observability
	SentryDSN         string // Sentry DSN for error tracking
	LangfusePublicKey string // Langfuse public key
	LangfuseSecretKey string // Langfuse secret key
	LangfuseHost      string // Langfuse host URL (cloud or self-hosted)
	LangfuseEnabled   bool   // Feature flag for Langfuse
}

func Load() *Config {
	return &Config{
		Environment:       getEnv("ENVIRONMENT", "development"),
		Port:              getEnv("PORT", "8080"),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		ImageAPIURL:       getEnv("IMAGE_API_URL", ""),
		ImageAPIKey:       getEnv("IMAGE_API_KEY", ""),
		TextProvider:      getEnv("TEXT_PROVIDER", "openai"),
		ImageProvider:     getEnv("IMAGE_PROVIDER", "gemini"),
		WeatherAPIURL:     getEnv("WEATHER_API_URL", "https://api.open-meteo.com/v1/forecast"),
		WeatherEnabled:    getEnv("WEATHER_ENABLED", "true") == "true",
		AllowedOrigin:     getEnv("ALLOWED_ORIGIN", "*"),
		ArtifactCacheTTL:  getEnvDuration("ARTIFACT_CACHE_TTL", time.Hour),
		ArtifactCacheMax:  getEnvInt("ARTIFACT_CACHE_MAX", 500),
		ConfigCacheTTL:    getEnvDuration("CONFIG_CACHE_TTL", 2*time.Hour),
		ConfigCacheMax:    getEnvInt("CONFIG_CACHE_MAX", 200),
		GateBatchSize:     getEnvInt("GATE_BATCH_SIZE", 6),
		ImageTimeout:      getEnvDuration("IMAGE_TIMEOUT", 2*time.Minute),
		TextTimeout:       getEnvDuration("TEXT_TIMEOUT", 8*time.Second),
		SentryDSN:         getEnv("SENTRY_DSN", ""),
		LangfusePublicKey: getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey: getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseHost:      getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
		LangfuseEnabled:   getEnv("LANGFUSE_ENABLED", "false") == "true",
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

// IsProduction returns true when running with the production environment tag
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

package personalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/brindlewood/storefront-api/internal/models"
	"github.com/brindlewood/storefront-api/internal/provider"
)

// maxTagBoosts caps how many boost tags a config may carry. More than a
// handful stops being a boost and starts being a reshuffle.
const maxTagBoosts = 5

// ParseConfig decodes and validates a raw provider payload. Validation fails
// closed: any structural problem rejects the whole payload so the caller
// serves the deterministic fallback instead of a partial config.
func ParseConfig(raw string, catalog []models.CatalogItem) (*models.PersonalizationConfig, error) {
	var cfg models.PersonalizationConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, fmt.Errorf("config is not valid JSON: %w", err)
	}

	switch cfg.Intensity {
	case models.IntensityNone, models.IntensityLight, models.IntensityFull:
	default:
		return nil, fmt.Errorf("unknown intensity %q", cfg.Intensity)
	}

	if strings.TrimSpace(cfg.Theme) == "" {
		return nil, errors.New("config is missing a theme")
	}
	if strings.TrimSpace(cfg.Copy.Headline) == "" {
		return nil, errors.New("config is missing headline copy")
	}
	if strings.TrimSpace(cfg.Copy.Subheadline) == "" {
		return nil, errors.New("config is missing subheadline copy")
	}
	if strings.TrimSpace(cfg.Copy.Announcement) == "" {
		return nil, errors.New("config is missing announcement copy")
	}

	cfg.TagBoosts = normalizeBoosts(cfg.TagBoosts, catalog)
	return &cfg, nil
}

// normalizeBoosts lowercases, trims, dedupes and caps the boost list. When a
// catalog snapshot is present, boosts naming no real tag are dropped so the
// storefront never sorts by tags nothing carries.
func normalizeBoosts(boosts []string, catalog []models.CatalogItem) []string {
	known := make(map[string]bool)
	for _, item := range catalog {
		for _, tag := range item.Tags {
			known[strings.ToLower(strings.TrimSpace(tag))] = true
		}
	}

	seen := make(map[string]bool)
	out := make([]string, 0, len(boosts))
	for _, boost := range boosts {
		b := strings.ToLower(strings.TrimSpace(boost))
		if b == "" || seen[b] {
			continue
		}
		if len(known) > 0 && !known[b] {
			continue
		}
		seen[b] = true
		out = append(out, b)
		if len(out) == maxTagBoosts {
			break
		}
	}
	return out
}

// ConfigSchema is the strict output schema handed to the text provider.
// additionalProperties false everywhere keeps the model inside the shape
// ParseConfig expects.
func ConfigSchema() *provider.OutputSchema {
	return &provider.OutputSchema{
		Name:        "personalization_config",
		Description: "Page personalization configuration for one campaign context",
		Schema: map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"required":             []string{"intensity", "theme", "copy", "tagBoosts"},
			"properties": map[string]any{
				"intensity": map[string]any{
					"type": "string",
					"enum": []string{"none", "light", "full"},
				},
				"theme": map[string]any{
					"type":        "string",
					"description": "Short kebab-case slug naming the visual theme",
				},
				"copy": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"headline", "subheadline", "announcement"},
					"properties": map[string]any{
						"headline":     map[string]any{"type": "string"},
						"subheadline":  map[string]any{"type": "string"},
						"announcement": map[string]any{"type": "string"},
					},
				},
				"tagBoosts": map[string]any{
					"type":        "array",
					"description": "Catalog tags to rank first, most relevant first",
					"items":       map[string]any{"type": "string"},
				},
			},
		},
	}
}

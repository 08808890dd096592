package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/brindlewood/storefront-api/internal/models"
)

// PersonalizeBuilder composes the two prompts for the page-config
// generation call: a fixed system prompt carrying the decision rules and
// brand voice, and a per-request user prompt carrying the campaign signals.
type PersonalizeBuilder struct {
	loader *Loader
}

// NewPersonalizeBuilder creates a new personalization prompt builder
func NewPersonalizeBuilder() *PersonalizeBuilder {
	return &PersonalizeBuilder{loader: NewPromptLoader()}
}

// BuildSystemPrompt assembles the full system prompt for config generation
func (b *PersonalizeBuilder) BuildSystemPrompt() (string, error) {
	system, err := b.loader.GetPersonalizeSystemPrompt()
	if err != nil {
		return "", fmt.Errorf("failed to load personalize system prompt: %w", err)
	}
	voice, err := b.loader.GetBrandVoice()
	if err != nil {
		return "", fmt.Errorf("failed to load brand voice: %w", err)
	}
	guidance, err := b.loader.GetCopyGuidance()
	if err != nil {
		return "", fmt.Errorf("failed to load copy guidance: %w", err)
	}

	sections := []string{system, voice, guidance}

	return strings.Join(sections, "\n\n"), nil
}

// BuildUserPrompt serializes the campaign signals and catalog snapshot.
// Only fields that feed the campaign cache key may appear here, for the
// same reason as the image builder: a cached config must match what a
// fresh call with the same key would have produced.
func (b *PersonalizeBuilder) BuildUserPrompt(rc models.RequestContext, catalog []models.CatalogItem) string {
	lines := []string{"Campaign signals:"}
	for _, field := range []struct{ name, value string }{
		{"utm_source", rc.UTMSource},
		{"utm_medium", rc.UTMMedium},
		{"utm_campaign", rc.UTMCampaign},
		{"utm_content", rc.UTMContent},
		{"utm_term", rc.UTMTerm},
	} {
		if field.value != "" {
			lines = append(lines, fmt.Sprintf("- %s: %s", field.name, field.value))
		}
	}
	if len(lines) == 1 {
		lines = append(lines, "- (none)")
	}

	if len(catalog) > 0 {
		lines = append(lines, "", fmt.Sprintf("Catalog snapshot (%d items):", len(catalog)))
		for _, item := range catalog {
			line := "- " + item.Handle
			if item.Title != "" {
				line = fmt.Sprintf("- %s (%s)", item.Handle, item.Title)
			}
			if len(item.Tags) > 0 {
				line += ": " + strings.Join(item.Tags, ", ")
			}
			lines = append(lines, line)
		}
		if tags := collectTags(catalog); len(tags) > 0 {
			lines = append(lines, "", "Tags available for boosting: "+strings.Join(tags, ", "))
		}
	}

	lines = append(lines, "", "Produce the page configuration for this visitor.")

	return strings.Join(lines, "\n")
}

// collectTags returns the deduplicated, sorted, lowercased union of catalog tags
func collectTags(catalog []models.CatalogItem) []string {
	seen := make(map[string]struct{})
	for _, item := range catalog {
		for _, tag := range item.Tags {
			tag = strings.ToLower(strings.TrimSpace(tag))
			if tag != "" {
				seen[tag] = struct{}{}
			}
		}
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	return tags
}

package provider

const (
	// Tag boost constraints
	maxTagBoosts = 5
)

// GetPersonalizationConfigSchema returns the JSON schema for personalization
// config output. OpenAI strict mode requires additionalProperties: false and
// every property listed in required.
func GetPersonalizationConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"intensity": map[string]any{
				"type": "string",
				"enum": []string{"none", "light", "full"},
			},
			"theme": map[string]any{
				"type":        "string",
				"description": "Short lowercase theme token, e.g. dogs, cats, winter-sale",
			},
			"copy": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"headline": map[string]any{
						"type":        "string",
						"description": "Hero headline, at most 8 words",
					},
					"subheadline": map[string]any{"type": "string"},
					"announcement": map[string]any{
						"type":        "string",
						"description": "Announcement-bar text, one sentence",
					},
				},
				"required":             []string{"headline", "subheadline", "announcement"},
				"additionalProperties": false,
			},
			"tagBoosts": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"maxItems":    maxTagBoosts,
				"description": "Lowercase product tags to boost in collection ordering",
			},
		},
		"required":             []string{"intensity", "theme", "copy", "tagBoosts"},
		"additionalProperties": false,
	}
}

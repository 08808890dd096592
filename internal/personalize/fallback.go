package personalize

import (
	"github.com/brindlewood/storefront-api/internal/models"
)

// BuildFallbackConfig produces the deterministic configuration used whenever
// the AI path is unavailable, too slow, or not warranted. It cannot fail and
// every field is populated, so consumers never handle a partial config.
func BuildFallbackConfig(rc models.RequestContext) *models.PersonalizationConfig {
	text := rc.CampaignText()

	theme := MatchTheme(text)
	if theme == nil {
		theme = GenericTheme(text)
	}

	return &models.PersonalizationConfig{
		Intensity: DecideIntensity(rc),
		Theme:     theme.Slug,
		Copy:      theme.Copy,
		TagBoosts: append([]string(nil), theme.TagBoosts...),
	}
}

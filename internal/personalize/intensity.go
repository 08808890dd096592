package personalize

import (
	"github.com/brindlewood/storefront-api/internal/models"
)

// DecideIntensity maps campaign presence onto the three-level gate. A weak
// signal must never trigger structural page changes: reordering and layout
// shifts are reserved for campaigns that name something concrete.
func DecideIntensity(rc models.RequestContext) models.Intensity {
	if !rc.HasUTMSignal() {
		return models.IntensityNone
	}
	if MatchTheme(rc.CampaignText()) != nil {
		return models.IntensityFull
	}
	return models.IntensityLight
}

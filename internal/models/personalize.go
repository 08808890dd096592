package models

// Intensity gates how aggressively personalization may alter the page
type Intensity string

const (
	IntensityNone  Intensity = "none"  // no UTM signal: apply nothing
	IntensityLight Intensity = "light" // platform-only signal: copy + banner
	IntensityFull  Intensity = "full"  // concrete theme signal: copy + reordering + layout
)

// CatalogItem is one entry of the storefront catalog snapshot the collector
// sends along with a personalize request
type CatalogItem struct {
	Handle string   `json:"handle"`
	Title  string   `json:"title"`
	Tags   []string `json:"tags"`
}

// ConfigCopy is the content copy block of a personalization config
type ConfigCopy struct {
	Headline     string `json:"headline"`
	Subheadline  string `json:"subheadline"`
	Announcement string `json:"announcement"`
}

// PersonalizationConfig is the structured page-layout configuration returned
// by the personalize endpoint. Always complete: the deterministic fallback
// produces every field, so no consumer handles partial configs.
type PersonalizationConfig struct {
	Intensity Intensity  `json:"intensity"`
	Theme     string     `json:"theme"`
	Copy      ConfigCopy `json:"copy"`
	TagBoosts []string   `json:"tagBoosts"`
}

// PersonalizeRequest is the inbound body for the personalize endpoint
type PersonalizeRequest struct {
	UTMSource   string `json:"utmSource,omitempty"`
	UTMMedium   string `json:"utmMedium,omitempty"`
	UTMCampaign string `json:"utmCampaign,omitempty"`
	UTMContent  string `json:"utmContent,omitempty"`
	UTMTerm     string `json:"utmTerm,omitempty"`
	Referrer    string `json:"referrer,omitempty"`

	ClientTime string `json:"clientTime,omitempty"`
	Timezone   string `json:"timezone,omitempty"`

	Catalog []CatalogItem `json:"catalog,omitempty"`
}

// PersonalizeResponse mirrors GenerateResponse's always-complete contract
type PersonalizeResponse struct {
	Success          bool                   `json:"success"`
	Cached           bool                   `json:"cached"`
	Fallback         bool                   `json:"fallback"`
	Config           *PersonalizationConfig `json:"config,omitempty"`
	Order            []string               `json:"order,omitempty"`
	Error            string                 `json:"error,omitempty"`
	ProcessingTimeMs int64                  `json:"processingTimeMs"`
}

package models

// GenerateRequest is the inbound body for the generate-artifact endpoint.
// Only SubjectURL is required; everything else defaults during normalization.
type GenerateRequest struct {
	SubjectURL  string      `json:"subjectURL"`
	SubjectKind SubjectKind `json:"subjectKind,omitempty"`
	Subject     SubjectMeta `json:"subject,omitempty"`

	UTMSource   string `json:"utmSource,omitempty"`
	UTMMedium   string `json:"utmMedium,omitempty"`
	UTMCampaign string `json:"utmCampaign,omitempty"`
	UTMContent  string `json:"utmContent,omitempty"`
	UTMTerm     string `json:"utmTerm,omitempty"`
	Referrer    string `json:"referrer,omitempty"`

	ClientTime string `json:"clientTime,omitempty"`
	Timezone   string `json:"timezone,omitempty"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	// Explicit overrides win over derivation when they name a valid bucket
	TrafficSourceOverride string `json:"trafficSourceOverride,omitempty"`
	TimeOfDayOverride     string `json:"timeOfDayOverride,omitempty"`
	SeasonOverride        string `json:"seasonOverride,omitempty"`

	ForceRegenerate bool `json:"forceRegenerate,omitempty"`
}

// GenerateResponse is always schema-complete: failure paths still populate
// the context block so callers can parse every response the same way
type GenerateResponse struct {
	Success          bool           `json:"success"`
	ArtifactURL      string         `json:"artifactURL,omitempty"`
	GeneratorInput   string         `json:"generatorInput,omitempty"`
	Cached           bool           `json:"cached"`
	ProcessingTimeMs int64          `json:"processingTimeMs"`
	Error            string         `json:"error,omitempty"`
	Context          RequestContext `json:"context"`
}

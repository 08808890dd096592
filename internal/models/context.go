package models

// TrafficSource identifies the acquisition platform a visitor arrived from
type TrafficSource string

const (
	TrafficInstagram TrafficSource = "instagram"
	TrafficTikTok    TrafficSource = "tiktok"
	TrafficFacebook  TrafficSource = "facebook"
	TrafficGoogle    TrafficSource = "google"
	TrafficDirect    TrafficSource = "direct"
	TrafficOther     TrafficSource = "other"
)

// TimeOfDay buckets the visitor's local wall-clock hour
type TimeOfDay string

const (
	TimeMorning   TimeOfDay = "morning"   // 5-11h
	TimeAfternoon TimeOfDay = "afternoon" // 12-16h
	TimeEvening   TimeOfDay = "evening"   // 17-20h
	TimeNight     TimeOfDay = "night"     // 21-4h
)

// Season buckets the visitor's current month
type Season string

const (
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
	SeasonWinter Season = "winter"
)

// WeatherCondition is the bucketed sky condition at the visitor's location
type WeatherCondition string

const (
	WeatherSunny  WeatherCondition = "sunny"
	WeatherCloudy WeatherCondition = "cloudy"
	WeatherRainy  WeatherCondition = "rainy"
	WeatherSnowy  WeatherCondition = "snowy"
	WeatherStormy WeatherCondition = "stormy"
)

// TemperatureBand is the bucketed outdoor temperature at the visitor's location
type TemperatureBand string

const (
	TemperatureHot  TemperatureBand = "hot"
	TemperatureWarm TemperatureBand = "warm"
	TemperatureCool TemperatureBand = "cool"
	TemperatureCold TemperatureBand = "cold"
)

// Weather is present on a context only when the caller supplied coordinates
// and the lookup succeeded
type Weather struct {
	Condition   WeatherCondition `json:"condition"`
	Temperature TemperatureBand  `json:"temperature"`
}

// SubjectKind identifies what kind of page element an artifact is generated for
type SubjectKind string

const (
	SubjectProduct    SubjectKind = "product"
	SubjectBanner     SubjectKind = "banner"
	SubjectCollection SubjectKind = "collection"
	SubjectTextBlock  SubjectKind = "textBlock"
)

// RequestContext is the fully-resolved acquisition context for one request.
// Every derived field is always populated; only Weather is optional. Raw
// signals never reach downstream components - normalization happens once.
type RequestContext struct {
	TrafficSource TrafficSource `json:"trafficSource"`
	TimeOfDay     TimeOfDay     `json:"timeOfDay"`
	Season        Season        `json:"season"`
	Weather       *Weather      `json:"weather,omitempty"`

	// Campaign fields are free text: they feed cache keys and prompts but
	// are never parsed into enums here
	UTMSource   string `json:"utmSource,omitempty"`
	UTMMedium   string `json:"utmMedium,omitempty"`
	UTMCampaign string `json:"utmCampaign,omitempty"`
	UTMContent  string `json:"utmContent,omitempty"`
	UTMTerm     string `json:"utmTerm,omitempty"`
}

// HasUTMSignal reports whether any UTM field carried a value at all
func (rc RequestContext) HasUTMSignal() bool {
	return rc.UTMSource != "" || rc.UTMMedium != "" || rc.UTMCampaign != "" ||
		rc.UTMContent != "" || rc.UTMTerm != ""
}

// CampaignText joins the free-text campaign fields for keyword matching
func (rc RequestContext) CampaignText() string {
	text := rc.UTMCampaign
	if rc.UTMContent != "" {
		text += " " + rc.UTMContent
	}
	if rc.UTMTerm != "" {
		text += " " + rc.UTMTerm
	}
	return text
}

// SubjectMeta carries caller-supplied metadata about the subject being
// regenerated. All fields are optional; prompt strategies use what is present.
type SubjectMeta struct {
	ProductName     string   `json:"productName,omitempty"`
	ProductCategory string   `json:"productCategory,omitempty"`
	CollectionTitle string   `json:"collectionTitle,omitempty"`
	CollectionDesc  string   `json:"collectionDescription,omitempty"`
	CollectionItems []string `json:"collectionItems,omitempty"`
	TextContent     string   `json:"textContent,omitempty"`
}

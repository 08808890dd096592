package visitor

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/brindlewood/storefront-api/internal/logger"
	"github.com/brindlewood/storefront-api/internal/models"
)

// WeatherLookup resolves current conditions for a coordinate pair.
// Implemented by the weather client; nil disables enrichment entirely.
type WeatherLookup interface {
	Current(ctx context.Context, lat, lon float64) (*models.Weather, error)
}

// RawSignals carries everything the collector managed to observe about a
// visit. Every field is optional; normalization resolves all of them.
type RawSignals struct {
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	UTMContent  string
	UTMTerm     string
	Referrer    string

	ClientTime string
	Timezone   string

	Latitude  *float64
	Longitude *float64

	TrafficSourceOverride string
	TimeOfDayOverride     string
	SeasonOverride        string
}

// Normalizer turns raw visit signals into a fully-populated RequestContext.
// Normalize never fails: every branch resolves to a definite default.
type Normalizer struct {
	weather WeatherLookup
	now     func() time.Time
}

func NewNormalizer(weather WeatherLookup) *Normalizer {
	return &Normalizer{
		weather: weather,
		now:     time.Now,
	}
}

var validTrafficSources = map[string]models.TrafficSource{
	"instagram": models.TrafficInstagram,
	"tiktok":    models.TrafficTikTok,
	"facebook":  models.TrafficFacebook,
	"google":    models.TrafficGoogle,
	"direct":    models.TrafficDirect,
	"other":     models.TrafficOther,
}

var validTimesOfDay = map[string]models.TimeOfDay{
	"morning":   models.TimeMorning,
	"afternoon": models.TimeAfternoon,
	"evening":   models.TimeEvening,
	"night":     models.TimeNight,
}

var validSeasons = map[string]models.Season{
	"spring": models.SeasonSpring,
	"summer": models.SeasonSummer,
	"autumn": models.SeasonAutumn,
	"winter": models.SeasonWinter,
}

// sourceTokens are checked against the raw utm_source value, in order.
// Short tokens require an exact match so that e.g. "design" does not
// hit the "ig" shorthand.
var sourceTokens = []struct {
	token  string
	exact  bool
	source models.TrafficSource
}{
	{"instagram", false, models.TrafficInstagram},
	{"ig", true, models.TrafficInstagram},
	{"tiktok", false, models.TrafficTikTok},
	{"tt", true, models.TrafficTikTok},
	{"facebook", false, models.TrafficFacebook},
	{"fb", true, models.TrafficFacebook},
	{"google", false, models.TrafficGoogle},
}

// referrerDomains are matched as substrings of the referrer hostname.
// The trailing dot keeps "instagram." from matching unrelated hosts
// while still covering link-shim subdomains like l.instagram.com.
var referrerDomains = []struct {
	fragment string
	source   models.TrafficSource
}{
	{"instagram.", models.TrafficInstagram},
	{"tiktok.", models.TrafficTikTok},
	{"facebook.", models.TrafficFacebook},
	{"fb.com", models.TrafficFacebook},
	{"google.", models.TrafficGoogle},
}

// Normalize resolves every contextual field. Overrides win when they name a
// valid value; otherwise each field is derived from the raw signals and
// falls back to a safe default.
func (n *Normalizer) Normalize(ctx context.Context, raw RawSignals) models.RequestContext {
	resolved := n.resolveTime(raw.ClientTime, raw.Timezone)

	rc := models.RequestContext{
		TrafficSource: n.resolveTrafficSource(raw),
		TimeOfDay:     n.resolveTimeOfDay(raw.TimeOfDayOverride, resolved),
		Season:        n.resolveSeason(raw.SeasonOverride, resolved),
		Weather:       n.resolveWeather(ctx, raw),
		UTMSource:     raw.UTMSource,
		UTMMedium:     raw.UTMMedium,
		UTMCampaign:   raw.UTMCampaign,
		UTMContent:    raw.UTMContent,
		UTMTerm:       raw.UTMTerm,
	}

	return rc
}

func (n *Normalizer) resolveTrafficSource(raw RawSignals) models.TrafficSource {
	if src, ok := validTrafficSources[strings.ToLower(raw.TrafficSourceOverride)]; ok {
		return src
	}

	if raw.UTMSource != "" {
		token := strings.ToLower(strings.TrimSpace(raw.UTMSource))
		for _, t := range sourceTokens {
			if t.exact {
				if token == t.token {
					return t.source
				}
			} else if strings.Contains(token, t.token) {
				return t.source
			}
		}
		// Present but unrecognized: the visit is attributed, just not
		// to a platform we know.
		return models.TrafficOther
	}

	if raw.Referrer != "" {
		host := referrerHost(raw.Referrer)
		if host != "" {
			for _, d := range referrerDomains {
				if strings.Contains(host, d.fragment) {
					return d.source
				}
			}
		}
		return models.TrafficOther
	}

	return models.TrafficDirect
}

func referrerHost(referrer string) string {
	u, err := url.Parse(referrer)
	if err != nil {
		return strings.ToLower(referrer)
	}
	if u.Host == "" {
		// Bare hostnames parse as a path.
		return strings.ToLower(referrer)
	}
	return strings.ToLower(u.Hostname())
}

// resolveTime prefers a parseable client timestamp, then server time in the
// visitor's timezone, then plain server time. Unparseable input fails soft.
func (n *Normalizer) resolveTime(clientTime, timezone string) time.Time {
	if clientTime != "" {
		if t, err := time.Parse(time.RFC3339, clientTime); err == nil {
			return t
		}
		logger.Warn("Unparseable client timestamp, using server time", logger.Fields{
			"client_time": clientTime,
		})
	}

	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err == nil {
			return n.now().In(loc)
		}
		logger.Warn("Unknown timezone, using server time", logger.Fields{
			"timezone": timezone,
		})
	}

	return n.now()
}

func (n *Normalizer) resolveTimeOfDay(override string, t time.Time) models.TimeOfDay {
	if tod, ok := validTimesOfDay[strings.ToLower(override)]; ok {
		return tod
	}

	switch hour := t.Hour(); {
	case hour >= 5 && hour <= 11:
		return models.TimeMorning
	case hour >= 12 && hour <= 16:
		return models.TimeAfternoon
	case hour >= 17 && hour <= 20:
		return models.TimeEvening
	default:
		return models.TimeNight
	}
}

func (n *Normalizer) resolveSeason(override string, t time.Time) models.Season {
	if s, ok := validSeasons[strings.ToLower(override)]; ok {
		return s
	}

	// Boundaries use 0-indexed months: spring 2-4, summer 5-7, autumn 8-10,
	// winter 11, 0, 1.
	switch month := int(t.Month()) - 1; {
	case month >= 2 && month <= 4:
		return models.SeasonSpring
	case month >= 5 && month <= 7:
		return models.SeasonSummer
	case month >= 8 && month <= 10:
		return models.SeasonAutumn
	default:
		return models.SeasonWinter
	}
}

// resolveWeather only fires when both coordinates are present. Any failure
// degrades to absent weather; this path never blocks the request.
func (n *Normalizer) resolveWeather(ctx context.Context, raw RawSignals) *models.Weather {
	if n.weather == nil || raw.Latitude == nil || raw.Longitude == nil {
		return nil
	}

	w, err := n.weather.Current(ctx, *raw.Latitude, *raw.Longitude)
	if err != nil {
		logger.Warn("Weather lookup failed, continuing without weather", logger.Fields{
			"error": err.Error(),
		})
		return nil
	}
	return w
}

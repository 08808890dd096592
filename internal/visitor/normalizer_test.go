package visitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brindlewood/storefront-api/internal/models"
)

type stubWeather struct {
	weather *models.Weather
	err     error
	calls   int
}

func (s *stubWeather) Current(ctx context.Context, lat, lon float64) (*models.Weather, error) {
	s.calls++
	return s.weather, s.err
}

func fixedNormalizer(t time.Time) *Normalizer {
	n := NewNormalizer(nil)
	n.now = func() time.Time { return t }
	return n
}

func TestResolveTrafficSourceFromUTM(t *testing.T) {
	tests := []struct {
		utmSource string
		want      models.TrafficSource
	}{
		{"instagram", models.TrafficInstagram},
		{"Instagram_Stories", models.TrafficInstagram},
		{"ig", models.TrafficInstagram},
		{"tiktok", models.TrafficTikTok},
		{"tt", models.TrafficTikTok},
		{"facebook", models.TrafficFacebook},
		{"fb", models.TrafficFacebook},
		{"google", models.TrafficGoogle},
		{"Google_Ads", models.TrafficGoogle},
		{"newsletter", models.TrafficOther},
		// Contains "ig" and "tt" as substrings but neither as an exact token.
		{"design", models.TrafficOther},
		{"matter", models.TrafficOther},
	}

	n := fixedNormalizer(time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC))
	for _, tt := range tests {
		rc := n.Normalize(context.Background(), RawSignals{UTMSource: tt.utmSource})
		if rc.TrafficSource != tt.want {
			t.Errorf("utmSource %q: got %q, want %q", tt.utmSource, rc.TrafficSource, tt.want)
		}
	}
}

func TestResolveTrafficSourceFromReferrer(t *testing.T) {
	tests := []struct {
		referrer string
		want     models.TrafficSource
	}{
		{"https://www.instagram.com/p/abc", models.TrafficInstagram},
		{"https://l.instagram.com/?u=x", models.TrafficInstagram},
		{"https://www.tiktok.com/@shop", models.TrafficTikTok},
		{"https://m.facebook.com/", models.TrafficFacebook},
		{"https://fb.com/page", models.TrafficFacebook},
		{"https://www.google.com/search?q=dog+collars", models.TrafficGoogle},
		{"https://news.example.com/article", models.TrafficOther},
	}

	n := fixedNormalizer(time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC))
	for _, tt := range tests {
		rc := n.Normalize(context.Background(), RawSignals{Referrer: tt.referrer})
		if rc.TrafficSource != tt.want {
			t.Errorf("referrer %q: got %q, want %q", tt.referrer, rc.TrafficSource, tt.want)
		}
	}
}

func TestTrafficSourcePrecedence(t *testing.T) {
	n := fixedNormalizer(time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC))

	// UTM source is checked before the referrer.
	rc := n.Normalize(context.Background(), RawSignals{
		UTMSource: "google",
		Referrer:  "https://www.instagram.com/",
	})
	if rc.TrafficSource != models.TrafficGoogle {
		t.Errorf("got %q, want google", rc.TrafficSource)
	}

	// No signal at all defaults to direct.
	rc = n.Normalize(context.Background(), RawSignals{})
	if rc.TrafficSource != models.TrafficDirect {
		t.Errorf("got %q, want direct", rc.TrafficSource)
	}
}

func TestTrafficSourceOverride(t *testing.T) {
	n := fixedNormalizer(time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC))

	rc := n.Normalize(context.Background(), RawSignals{
		UTMSource:             "google",
		TrafficSourceOverride: "TikTok",
	})
	if rc.TrafficSource != models.TrafficTikTok {
		t.Errorf("valid override ignored: got %q", rc.TrafficSource)
	}

	// An override that is not an enum value falls through to derivation.
	rc = n.Normalize(context.Background(), RawSignals{
		UTMSource:             "google",
		TrafficSourceOverride: "carrier-pigeon",
	})
	if rc.TrafficSource != models.TrafficGoogle {
		t.Errorf("invalid override should fall through: got %q", rc.TrafficSource)
	}
}

func TestResolveTimeOfDay(t *testing.T) {
	tests := []struct {
		hour int
		want models.TimeOfDay
	}{
		{5, models.TimeMorning},
		{11, models.TimeMorning},
		{12, models.TimeAfternoon},
		{16, models.TimeAfternoon},
		{17, models.TimeEvening},
		{20, models.TimeEvening},
		{21, models.TimeNight},
		{0, models.TimeNight},
		{4, models.TimeNight},
	}

	for _, tt := range tests {
		n := fixedNormalizer(time.Date(2025, 6, 10, tt.hour, 30, 0, 0, time.UTC))
		rc := n.Normalize(context.Background(), RawSignals{})
		if rc.TimeOfDay != tt.want {
			t.Errorf("hour %d: got %q, want %q", tt.hour, rc.TimeOfDay, tt.want)
		}
	}
}

func TestResolveSeason(t *testing.T) {
	tests := []struct {
		month time.Month
		want  models.Season
	}{
		{time.March, models.SeasonSpring},
		{time.May, models.SeasonSpring},
		{time.June, models.SeasonSummer},
		{time.August, models.SeasonSummer},
		{time.September, models.SeasonAutumn},
		{time.November, models.SeasonAutumn},
		{time.December, models.SeasonWinter},
		{time.January, models.SeasonWinter},
		{time.February, models.SeasonWinter},
	}

	for _, tt := range tests {
		n := fixedNormalizer(time.Date(2025, tt.month, 10, 10, 0, 0, 0, time.UTC))
		rc := n.Normalize(context.Background(), RawSignals{})
		if rc.Season != tt.want {
			t.Errorf("month %v: got %q, want %q", tt.month, rc.Season, tt.want)
		}
	}
}

func TestTimeOfDayAndSeasonOverrides(t *testing.T) {
	n := fixedNormalizer(time.Date(2025, time.June, 10, 10, 0, 0, 0, time.UTC))

	rc := n.Normalize(context.Background(), RawSignals{
		TimeOfDayOverride: "night",
		SeasonOverride:    "winter",
	})
	if rc.TimeOfDay != models.TimeNight {
		t.Errorf("timeOfDay override ignored: got %q", rc.TimeOfDay)
	}
	if rc.Season != models.SeasonWinter {
		t.Errorf("season override ignored: got %q", rc.Season)
	}
}

func TestClientTimePreferredOverServerTime(t *testing.T) {
	// Server believes it is June morning; the client reports December night.
	n := fixedNormalizer(time.Date(2025, time.June, 10, 10, 0, 0, 0, time.UTC))

	rc := n.Normalize(context.Background(), RawSignals{
		ClientTime: "2025-12-24T23:15:00Z",
	})
	if rc.TimeOfDay != models.TimeNight {
		t.Errorf("got %q, want night from client time", rc.TimeOfDay)
	}
	if rc.Season != models.SeasonWinter {
		t.Errorf("got %q, want winter from client time", rc.Season)
	}
}

func TestUnparseableClientTimeFailsSoft(t *testing.T) {
	n := fixedNormalizer(time.Date(2025, time.June, 10, 10, 0, 0, 0, time.UTC))

	rc := n.Normalize(context.Background(), RawSignals{
		ClientTime: "yesterday-ish",
	})
	if rc.TimeOfDay != models.TimeMorning {
		t.Errorf("got %q, want morning from server time", rc.TimeOfDay)
	}
	if rc.Season != models.SeasonSummer {
		t.Errorf("got %q, want summer from server time", rc.Season)
	}
}

func TestTimezoneAppliedWhenClientTimeMissing(t *testing.T) {
	// 02:00 UTC is 21:00 the previous evening in New York.
	n := fixedNormalizer(time.Date(2025, time.June, 10, 2, 0, 0, 0, time.UTC))

	rc := n.Normalize(context.Background(), RawSignals{
		Timezone: "America/New_York",
	})
	if rc.TimeOfDay != models.TimeNight {
		t.Errorf("got %q, want night in visitor timezone", rc.TimeOfDay)
	}

	// A bogus timezone falls back to server time.
	rc = n.Normalize(context.Background(), RawSignals{
		Timezone: "Mars/Olympus_Mons",
	})
	if rc.TimeOfDay != models.TimeNight {
		t.Errorf("got %q, want night from server time", rc.TimeOfDay)
	}
}

func TestWeatherRequiresBothCoordinates(t *testing.T) {
	lat, lon := 52.52, 13.41
	stub := &stubWeather{weather: &models.Weather{
		Condition:   models.WeatherSunny,
		Temperature: models.TemperatureWarm,
	}}

	n := NewNormalizer(stub)
	n.now = func() time.Time { return time.Date(2025, time.June, 10, 10, 0, 0, 0, time.UTC) }

	rc := n.Normalize(context.Background(), RawSignals{Latitude: &lat})
	if rc.Weather != nil {
		t.Error("weather resolved with only latitude present")
	}
	if stub.calls != 0 {
		t.Errorf("lookup called %d times with missing longitude", stub.calls)
	}

	rc = n.Normalize(context.Background(), RawSignals{Latitude: &lat, Longitude: &lon})
	if rc.Weather == nil {
		t.Fatal("weather missing with both coordinates present")
	}
	if rc.Weather.Condition != models.WeatherSunny {
		t.Errorf("got condition %q, want sunny", rc.Weather.Condition)
	}
}

func TestWeatherFailureDegradesToAbsent(t *testing.T) {
	lat, lon := 52.52, 13.41
	stub := &stubWeather{err: errors.New("upstream down")}

	n := NewNormalizer(stub)
	n.now = func() time.Time { return time.Date(2025, time.June, 10, 10, 0, 0, 0, time.UTC) }

	rc := n.Normalize(context.Background(), RawSignals{Latitude: &lat, Longitude: &lon})
	if rc.Weather != nil {
		t.Error("weather lookup failure should resolve to absent weather")
	}
	if rc.TrafficSource != models.TrafficDirect {
		t.Errorf("rest of the context should still resolve, got source %q", rc.TrafficSource)
	}
}

func TestUTMFieldsPassThroughVerbatim(t *testing.T) {
	n := fixedNormalizer(time.Date(2025, time.June, 10, 10, 0, 0, 0, time.UTC))

	rc := n.Normalize(context.Background(), RawSignals{
		UTMSource:   "instagram",
		UTMMedium:   "paid_social",
		UTMCampaign: "Dog_Days_Sale",
		UTMContent:  "carousel-3",
		UTMTerm:     "dog collars",
	})

	if rc.UTMCampaign != "Dog_Days_Sale" {
		t.Errorf("utmCampaign mangled: %q", rc.UTMCampaign)
	}
	if rc.UTMMedium != "paid_social" || rc.UTMContent != "carousel-3" || rc.UTMTerm != "dog collars" {
		t.Error("free-text UTM fields must pass through unmodified")
	}
}

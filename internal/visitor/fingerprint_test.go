package visitor

import (
	"strings"
	"testing"

	"github.com/brindlewood/storefront-api/internal/models"
)

func baseContext() models.RequestContext {
	return models.RequestContext{
		TrafficSource: models.TrafficInstagram,
		TimeOfDay:     models.TimeEvening,
		Season:        models.SeasonSummer,
		UTMCampaign:   "dog_days",
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint("collar.jpg", models.SubjectProduct, baseContext())
	b := Fingerprint("collar.jpg", models.SubjectProduct, baseContext())

	if a != b {
		t.Errorf("identical inputs produced different fingerprints: %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, "art:") {
		t.Errorf("missing art: prefix: %s", a)
	}
	if len(a) != len("art:")+64 {
		t.Errorf("unexpected fingerprint length %d", len(a))
	}
}

func TestFingerprintDivergesOnKeyFields(t *testing.T) {
	base := Fingerprint("collar.jpg", models.SubjectProduct, baseContext())

	rc := baseContext()
	rc.TrafficSource = models.TrafficTikTok
	if Fingerprint("collar.jpg", models.SubjectProduct, rc) == base {
		t.Error("traffic source change must change the fingerprint")
	}

	rc = baseContext()
	rc.Season = models.SeasonWinter
	if Fingerprint("collar.jpg", models.SubjectProduct, rc) == base {
		t.Error("season change must change the fingerprint")
	}

	rc = baseContext()
	rc.UTMCampaign = "cat_days"
	if Fingerprint("collar.jpg", models.SubjectProduct, rc) == base {
		t.Error("campaign change must change the fingerprint")
	}

	rc = baseContext()
	rc.Weather = &models.Weather{Condition: models.WeatherRainy, Temperature: models.TemperatureCool}
	if Fingerprint("collar.jpg", models.SubjectProduct, rc) == base {
		t.Error("weather condition must change the fingerprint")
	}

	if Fingerprint("collar.jpg", models.SubjectBanner, baseContext()) == base {
		t.Error("subject kind must change the fingerprint")
	}

	if Fingerprint("leash.jpg", models.SubjectProduct, baseContext()) == base {
		t.Error("subject identity must change the fingerprint")
	}
}

func TestFingerprintIgnoresNonKeyFields(t *testing.T) {
	base := Fingerprint("collar.jpg", models.SubjectProduct, baseContext())

	// utm_medium, utm_content, utm_term and the temperature band are not part
	// of the artifact key; varying them must not fragment the cache.
	rc := baseContext()
	rc.UTMMedium = "paid_social"
	rc.UTMContent = "carousel-3"
	rc.UTMTerm = "dog collars"
	if Fingerprint("collar.jpg", models.SubjectProduct, rc) != base {
		t.Error("non-key UTM fields must not change the fingerprint")
	}

	withCool := baseContext()
	withCool.Weather = &models.Weather{Condition: models.WeatherSunny, Temperature: models.TemperatureCool}
	withHot := baseContext()
	withHot.Weather = &models.Weather{Condition: models.WeatherSunny, Temperature: models.TemperatureHot}
	if Fingerprint("collar.jpg", models.SubjectProduct, withCool) != Fingerprint("collar.jpg", models.SubjectProduct, withHot) {
		t.Error("temperature band must not change the fingerprint")
	}
}

func TestCampaignFingerprint(t *testing.T) {
	rc := baseContext()
	rc.UTMSource = "instagram"
	rc.UTMTerm = "dog collars"

	a := CampaignFingerprint(rc, "catalog-v1")
	b := CampaignFingerprint(rc, "catalog-v1")
	if a != b {
		t.Error("identical campaign contexts produced different fingerprints")
	}
	if !strings.HasPrefix(a, "camp:") {
		t.Errorf("missing camp: prefix: %s", a)
	}

	rc2 := rc
	rc2.UTMTerm = "cat toys"
	if CampaignFingerprint(rc2, "catalog-v1") == a {
		t.Error("utm_term change must change the campaign fingerprint")
	}

	if CampaignFingerprint(rc, "catalog-v2") == a {
		t.Error("catalog identity change must change the campaign fingerprint")
	}
}

func TestSubjectIdentity(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://cdn.brindlewood.shop/products/red-collar.jpg?v=2", "red-collar.jpg"},
		{"https://cdn.brindlewood.shop/products/IMG_0417.JPG", "img_0417.jpg"},
		{"/assets/banner-hero.png", "banner-hero.png"},
		{"red-collar.jpg", "red-collar.jpg"},
		// Invalid percent escape fails URL parsing; fall back to the raw string.
		{"https://cdn.brindlewood.shop/%zz", "https://cdn.brindlewood.shop/%zz"},
		// Host with no path keeps the raw string rather than returning "".
		{"https://cdn.brindlewood.shop", "https://cdn.brindlewood.shop"},
	}

	for _, tt := range tests {
		if got := SubjectIdentity(tt.in); got != tt.want {
			t.Errorf("SubjectIdentity(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

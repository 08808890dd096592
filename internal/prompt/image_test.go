package prompt

import (
	"strings"
	"testing"

	"github.com/brindlewood/storefront-api/internal/models"
)

func testImageContext() models.RequestContext {
	return models.RequestContext{
		TrafficSource: models.TrafficInstagram,
		TimeOfDay:     models.TimeMorning,
		Season:        models.SeasonAutumn,
	}
}

func TestNewImageBuilder(t *testing.T) {
	builder := NewImageBuilder()
	if builder == nil {
		t.Fatal("NewImageBuilder() returned nil")
		return
	}
	if builder.loader == nil {
		t.Fatal("NewImageBuilder() created builder with nil loader")
	}
}

func TestBuildProductPrompt(t *testing.T) {
	builder := NewImageBuilder()
	meta := models.SubjectMeta{ProductName: "Scruffy Dog Bed", ProductCategory: "Dog Bed"}

	prompt, err := builder.Build(models.SubjectProduct, meta, testImageContext())
	if err != nil {
		t.Fatalf("Build() returned error: %v", err)
	}

	if !strings.Contains(prompt, "Scruffy Dog Bed") {
		t.Error("product prompt does not name the product")
	}
	if !strings.Contains(prompt, "exactly as it appears") {
		t.Error("product prompt does not preserve the subject's literal appearance")
	}
	if !strings.Contains(prompt, "dog bed is naturally used") {
		t.Error("product prompt does not use the product category")
	}
}

func TestBuildProductPromptWithoutMeta(t *testing.T) {
	builder := NewImageBuilder()

	prompt, err := builder.Build(models.SubjectProduct, models.SubjectMeta{}, testImageContext())
	if err != nil {
		t.Fatalf("Build() returned error: %v", err)
	}

	if !strings.Contains(prompt, "the product in the source image") {
		t.Error("product prompt without metadata does not fall back to a generic subject")
	}
}

func TestBuildBannerPrompt(t *testing.T) {
	builder := NewImageBuilder()

	prompt, err := builder.Build(models.SubjectBanner, models.SubjectMeta{}, testImageContext())
	if err != nil {
		t.Fatalf("Build() returned error: %v", err)
	}

	// Banner latitude: full re-imagining, not restaging
	if !strings.Contains(prompt, "Re-imagine this hero banner") {
		t.Error("banner prompt does not grant full creative latitude")
	}
	if strings.Contains(prompt, "exactly as it appears") {
		t.Error("banner prompt carries product-style preservation language")
	}
}

func TestBuildCollectionPrompt(t *testing.T) {
	builder := NewImageBuilder()
	meta := models.SubjectMeta{
		CollectionTitle: "Winter Walks",
		CollectionDesc:  "Gear for cold-weather outings",
		CollectionItems: []string{"Wool Coat", "Reflective Leash"},
	}

	prompt, err := builder.Build(models.SubjectCollection, meta, testImageContext())
	if err != nil {
		t.Fatalf("Build() returned error: %v", err)
	}

	if !strings.Contains(prompt, "Winter Walks") {
		t.Error("collection prompt does not name the collection")
	}
	if !strings.Contains(prompt, "Gear for cold-weather outings") {
		t.Error("collection prompt does not include the description")
	}
	if !strings.Contains(prompt, "Wool Coat, Reflective Leash") {
		t.Error("collection prompt does not list member items")
	}
}

func TestBuildTextBlockPrompt(t *testing.T) {
	builder := NewImageBuilder()
	meta := models.SubjectMeta{TextContent: "Free treats with every first order"}

	prompt, err := builder.Build(models.SubjectTextBlock, meta, testImageContext())
	if err != nil {
		t.Fatalf("Build() returned error: %v", err)
	}

	if !strings.Contains(prompt, "Free treats with every first order") {
		t.Error("text-block prompt does not include the text content")
	}
	if !strings.Contains(prompt, "do not render the words") {
		t.Error("text-block prompt does not forbid rendering the text")
	}
}

func TestBuildUnknownKindDefaultsToProduct(t *testing.T) {
	builder := NewImageBuilder()

	prompt, err := builder.Build(models.SubjectKind("carousel"), models.SubjectMeta{}, testImageContext())
	if err != nil {
		t.Fatalf("Build() returned error: %v", err)
	}

	if !strings.Contains(prompt, "exactly as it appears") {
		t.Error("unknown kind did not get the conservative product treatment")
	}
}

func TestBuildIncludesStyleGuidance(t *testing.T) {
	builder := NewImageBuilder()

	prompt, err := builder.Build(models.SubjectProduct, models.SubjectMeta{}, testImageContext())
	if err != nil {
		t.Fatalf("Build() returned error: %v", err)
	}

	if !strings.Contains(prompt, "IMAGE STYLE") {
		t.Error("built prompt does not include the shared style guidance")
	}
	if !strings.Contains(prompt, "exactly one photographic image") {
		t.Error("built prompt does not include the output format rules")
	}
}

func TestBuildContextCues(t *testing.T) {
	builder := NewImageBuilder()

	tests := []struct {
		name string
		rc   models.RequestContext
		want string
	}{
		{
			name: "season",
			rc:   models.RequestContext{Season: models.SeasonWinter, TimeOfDay: models.TimeMorning, TrafficSource: models.TrafficDirect},
			want: "Winter:",
		},
		{
			name: "time of day",
			rc:   models.RequestContext{Season: models.SeasonSummer, TimeOfDay: models.TimeEvening, TrafficSource: models.TrafficDirect},
			want: "golden-hour",
		},
		{
			name: "weather",
			rc: models.RequestContext{
				Season:        models.SeasonAutumn,
				TimeOfDay:     models.TimeAfternoon,
				TrafficSource: models.TrafficDirect,
				Weather:       &models.Weather{Condition: models.WeatherRainy, Temperature: models.TemperatureCool},
			},
			want: "raining",
		},
		{
			name: "traffic source",
			rc:   models.RequestContext{Season: models.SeasonSpring, TimeOfDay: models.TimeMorning, TrafficSource: models.TrafficTikTok},
			want: "TikTok",
		},
		{
			name: "campaign",
			rc: models.RequestContext{
				Season:        models.SeasonSpring,
				TimeOfDay:     models.TimeMorning,
				TrafficSource: models.TrafficDirect,
				UTMCampaign:   "mud-season",
			},
			want: "mud-season",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt, err := builder.Build(models.SubjectProduct, models.SubjectMeta{}, tt.rc)
			if err != nil {
				t.Fatalf("Build() returned error: %v", err)
			}
			if !strings.Contains(prompt, tt.want) {
				t.Errorf("prompt missing context cue %q", tt.want)
			}
		})
	}
}

func TestBuildDirectVisitorGetsNoAudienceCue(t *testing.T) {
	builder := NewImageBuilder()
	rc := models.RequestContext{
		Season:        models.SeasonSummer,
		TimeOfDay:     models.TimeAfternoon,
		TrafficSource: models.TrafficDirect,
	}

	prompt, err := builder.Build(models.SubjectProduct, models.SubjectMeta{}, rc)
	if err != nil {
		t.Fatalf("Build() returned error: %v", err)
	}

	if strings.Contains(prompt, "came from") {
		t.Error("direct visitor prompt carries an audience cue")
	}
}

func TestBuildUsesOnlyCacheKeyAxes(t *testing.T) {
	// Two contexts that share a fingerprint must produce identical prompts,
	// so fields outside the key must never leak into the instruction text.
	builder := NewImageBuilder()

	base := models.RequestContext{
		TrafficSource: models.TrafficInstagram,
		TimeOfDay:     models.TimeMorning,
		Season:        models.SeasonAutumn,
		Weather:       &models.Weather{Condition: models.WeatherRainy, Temperature: models.TemperatureCool},
		UTMCampaign:   "rainy-walks",
	}
	variant := base
	variant.UTMMedium = "newsletter"
	variant.UTMContent = "carousel-b"
	variant.UTMTerm = "dog coat"
	variant.Weather = &models.Weather{Condition: models.WeatherRainy, Temperature: models.TemperatureCold}

	p1, err := builder.Build(models.SubjectProduct, models.SubjectMeta{}, base)
	if err != nil {
		t.Fatalf("Build() returned error: %v", err)
	}
	p2, err := builder.Build(models.SubjectProduct, models.SubjectMeta{}, variant)
	if err != nil {
		t.Fatalf("Build() returned error: %v", err)
	}

	if p1 != p2 {
		t.Error("prompt varies along axes the fingerprint does not distinguish")
	}
}

func TestBuildConsistency(t *testing.T) {
	builder := NewImageBuilder()
	meta := models.SubjectMeta{ProductName: "Rope Toy"}

	prompt1, err1 := builder.Build(models.SubjectProduct, meta, testImageContext())
	if err1 != nil {
		t.Fatalf("first Build() returned error: %v", err1)
	}

	prompt2, err2 := builder.Build(models.SubjectProduct, meta, testImageContext())
	if err2 != nil {
		t.Fatalf("second Build() returned error: %v", err2)
	}

	if prompt1 != prompt2 {
		t.Error("Build() returns inconsistent results")
	}
}

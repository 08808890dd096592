package prompt

import (
	"fmt"
	"strings"

	"github.com/brindlewood/storefront-api/internal/models"
)

// ImageBuilder composes the instruction string sent to the image provider.
// Strategy is selected by subject kind: product shots keep the subject's
// literal appearance and only restage the scene, while banner, collection
// and text-block imagery may be fully re-imagined as long as the brand
// style survives. That latitude difference is the point of the dispatch.
type ImageBuilder struct {
	loader *Loader
}

// NewImageBuilder creates a new image prompt builder
func NewImageBuilder() *ImageBuilder {
	return &ImageBuilder{loader: NewPromptLoader()}
}

// Build produces the full provider instruction for one subject.
// Only the cache-key axes of the context may shape the output: two requests
// that share a fingerprint must produce the same instruction string, or the
// cache would serve artifacts generated from a different prompt.
func (b *ImageBuilder) Build(kind models.SubjectKind, meta models.SubjectMeta, rc models.RequestContext) (string, error) {
	style, err := b.loader.GetImageStyleGuidance()
	if err != nil {
		return "", fmt.Errorf("failed to load image style guidance: %w", err)
	}

	sections := []string{
		b.subjectSection(kind, meta),
		b.contextSection(rc),
		style,
	}

	return strings.Join(sections, "\n\n"), nil
}

// subjectSection dispatches to the per-kind strategy. Unknown kinds get the
// product treatment, the most conservative latitude.
func (b *ImageBuilder) subjectSection(kind models.SubjectKind, meta models.SubjectMeta) string {
	switch kind {
	case models.SubjectBanner:
		return b.bannerInstructions()
	case models.SubjectCollection:
		return b.collectionInstructions(meta)
	case models.SubjectTextBlock:
		return b.textBlockInstructions(meta)
	default:
		return b.productInstructions(meta)
	}
}

func (b *ImageBuilder) productInstructions(meta models.SubjectMeta) string {
	subject := "the product in the source image"
	if meta.ProductName != "" {
		subject = fmt.Sprintf("%q", meta.ProductName)
	}

	lines := []string{
		fmt.Sprintf("Restage %s in a new scene.", subject),
		"Keep the product itself exactly as it appears in the source image: " +
			"same shape, colors, materials, labels and proportions. You may " +
			"reposition it, change the camera angle, and replace everything " +
			"around it.",
	}
	if meta.ProductCategory != "" {
		lines = append(lines, fmt.Sprintf(
			"Stage it the way a %s is naturally used or enjoyed.",
			strings.ToLower(meta.ProductCategory)))
	}

	return strings.Join(lines, "\n")
}

func (b *ImageBuilder) bannerInstructions() string {
	return "Re-imagine this hero banner from scratch. Composition, setting " +
		"and framing are all yours to change; only the brand look described " +
		"below must survive."
}

func (b *ImageBuilder) collectionInstructions(meta models.SubjectMeta) string {
	lines := []string{
		"Re-imagine this collection tile from scratch. You have full " +
			"creative latitude over the scene as long as the brand look " +
			"described below survives.",
	}
	if meta.CollectionTitle != "" {
		lines = append(lines, fmt.Sprintf("The collection is called %q.", meta.CollectionTitle))
	}
	if meta.CollectionDesc != "" {
		lines = append(lines, fmt.Sprintf("Collection description: %s", meta.CollectionDesc))
	}
	if len(meta.CollectionItems) > 0 {
		lines = append(lines, fmt.Sprintf(
			"It contains items such as: %s.", strings.Join(meta.CollectionItems, ", ")))
	}

	return strings.Join(lines, "\n")
}

func (b *ImageBuilder) textBlockInstructions(meta models.SubjectMeta) string {
	lines := []string{
		"Create a decorative backdrop for a text section of the page. The " +
			"scene is yours to invent, but it must stay calm enough for " +
			"overlaid text to remain readable.",
	}
	if meta.TextContent != "" {
		lines = append(lines, fmt.Sprintf(
			"The text it will sit behind reads: %q. Match its mood; do not render the words.",
			meta.TextContent))
	}

	return strings.Join(lines, "\n")
}

// contextSection turns the normalized visitor context into scene cues.
// A missing table entry simply contributes no cue.
func (b *ImageBuilder) contextSection(rc models.RequestContext) string {
	cues := make([]string, 0, 5)
	if cue, ok := seasonCues[rc.Season]; ok {
		cues = append(cues, cue)
	}
	if cue, ok := timeOfDayCues[rc.TimeOfDay]; ok {
		cues = append(cues, cue)
	}
	if rc.Weather != nil {
		if cue, ok := weatherCues[rc.Weather.Condition]; ok {
			cues = append(cues, cue)
		}
	}
	if cue, ok := audienceCues[rc.TrafficSource]; ok {
		cues = append(cues, cue)
	}
	if rc.UTMCampaign != "" {
		cues = append(cues, fmt.Sprintf(
			"The visitor followed a campaign called %q; let the scene nod to it when that fits naturally.",
			rc.UTMCampaign))
	}

	lines := []string{"Scene cues for this visitor:"}
	for _, cue := range cues {
		lines = append(lines, "- "+cue)
	}

	return strings.Join(lines, "\n")
}

var seasonCues = map[models.Season]string{
	models.SeasonSpring: "Spring: fresh greenery, blossoms, bright washed light.",
	models.SeasonSummer: "Summer: lush warmth, open doors and windows, long late shadows.",
	models.SeasonAutumn: "Autumn: fallen leaves, knit textures, amber tones.",
	models.SeasonWinter: "Winter: cozy interiors, soft blankets, cool light outside the window.",
}

var timeOfDayCues = map[models.TimeOfDay]string{
	models.TimeMorning:   "Morning: gentle side light, the day just starting.",
	models.TimeAfternoon: "Afternoon: full daylight, lively and unhurried.",
	models.TimeEvening:   "Evening: golden-hour glow, winding down.",
	models.TimeNight:     "Night: warm lamplight indoors, deep calm.",
}

var weatherCues = map[models.WeatherCondition]string{
	models.WeatherSunny:  "It is sunny where the visitor is; sunshine in the scene will land well.",
	models.WeatherCloudy: "Overcast skies there; soft diffused light suits the moment.",
	models.WeatherRainy:  "It is raining there; rain on a window or a dry cozy refuge both work.",
	models.WeatherSnowy:  "Snow outside there; frost on glass or an extra-warm interior fit the mood.",
	models.WeatherStormy: "Stormy weather there; make the scene feel like shelter from it.",
}

// Direct and unattributed visitors get no audience cue on purpose.
var audienceCues = map[models.TrafficSource]string{
	models.TrafficInstagram: "The visitor came from Instagram; favor an editorial, lifestyle-feed composition.",
	models.TrafficTikTok:    "The visitor came from TikTok; candid, energetic framing over formal staging.",
	models.TrafficFacebook:  "The visitor came from Facebook; familiar, homey scenes over high fashion.",
	models.TrafficGoogle:    "The visitor searched their way here; clarity of the subject beats atmosphere.",
}

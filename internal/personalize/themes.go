package personalize

import (
	"hash/fnv"
	"strings"

	"github.com/brindlewood/storefront-api/internal/models"
)

// Theme is one entry of the deterministic theme table. Species themes carry
// keyword sets matched against campaign text; generic themes have no keywords
// and are picked by hash when nothing matches.
type Theme struct {
	Slug      string
	Keywords  []string
	Copy      models.ConfigCopy
	TagBoosts []string
}

// speciesThemes are matched in table order; the first keyword hit wins.
var speciesThemes = []Theme{
	{
		Slug:     "dogs",
		Keywords: []string{"dog", "puppy", "pup", "canine"},
		Copy: models.ConfigCopy{
			Headline:     "Good Dogs Deserve Good Gear",
			Subheadline:  "Leads, beds and treats picked by people who walk dogs every day.",
			Announcement: "Fresh dog-approved picks just landed. Come sniff around.",
		},
		TagBoosts: []string{"dogs", "walks", "treats"},
	},
	{
		Slug:     "cats",
		Keywords: []string{"cat", "kitten", "kitty", "feline"},
		Copy: models.ConfigCopy{
			Headline:     "Everything Your Cat Already Owns You For",
			Subheadline:  "Scratchers, perches and quiet little luxuries for discerning cats.",
			Announcement: "New arrivals for cats. Approval not guaranteed, comfort is.",
		},
		TagBoosts: []string{"cats", "scratchers", "toys"},
	},
	{
		Slug:     "birds",
		Keywords: []string{"bird", "parrot", "parakeet", "budgie", "cockatiel"},
		Copy: models.ConfigCopy{
			Headline:     "Bright Things for Bright Birds",
			Subheadline:  "Perches, seed mixes and puzzle feeders for busy beaks.",
			Announcement: "The bird corner has new stock worth chirping about.",
		},
		TagBoosts: []string{"birds", "perches", "seed"},
	},
	{
		Slug:     "fish",
		Keywords: []string{"fish", "aquarium", "betta", "goldfish", "tank"},
		Copy: models.ConfigCopy{
			Headline:     "Calm Water, Happy Fish",
			Subheadline:  "Tanks, plants and food for underwater neighbourhoods.",
			Announcement: "Aquarium essentials restocked this week.",
		},
		TagBoosts: []string{"fish", "aquarium", "plants"},
	},
	{
		Slug:     "smallpets",
		Keywords: []string{"hamster", "rabbit", "bunny", "guinea", "gerbil", "ferret"},
		Copy: models.ConfigCopy{
			Headline:     "Small Pets, Big Personalities",
			Subheadline:  "Hideouts, hay and chew toys sized for the little ones.",
			Announcement: "Small-pet favourites are back in stock.",
		},
		TagBoosts: []string{"smallpets", "hay", "hideouts"},
	},
	{
		Slug:     "reptiles",
		Keywords: []string{"reptile", "gecko", "lizard", "snake", "terrarium", "turtle"},
		Copy: models.ConfigCopy{
			Headline:     "Warm Spots for Cold-Blooded Friends",
			Subheadline:  "Heat lamps, hides and terrarium kit for scaly companions.",
			Announcement: "New terrarium gear is in. Bask away.",
		},
		TagBoosts: []string{"reptiles", "terrarium", "heating"},
	},
}

// genericThemes are the seasonal defaults used when no species keyword
// matches. Selection is by hash of the campaign text, so a given campaign
// always lands on the same theme.
var genericThemes = []Theme{
	{
		Slug: "spring-refresh",
		Copy: models.ConfigCopy{
			Headline:     "Shake Off the Winter Coat",
			Subheadline:  "Fresh gear for muddy paws and longer evenings outside.",
			Announcement: "Spring stock is in across the whole shop.",
		},
		TagBoosts: []string{"spring", "outdoor"},
	},
	{
		Slug: "summer-days",
		Copy: models.ConfigCopy{
			Headline:     "Long Days, Cool Pets",
			Subheadline:  "Cooling mats, travel bowls and shade for the warm months.",
			Announcement: "Summer picks are out. Keep everybody watered.",
		},
		TagBoosts: []string{"summer", "cooling"},
	},
	{
		Slug: "autumn-cozy",
		Copy: models.ConfigCopy{
			Headline:     "Settle In Season",
			Subheadline:  "Blankets, burrow beds and slow-evening comforts.",
			Announcement: "The cozy shelf is freshly stocked for autumn.",
		},
		TagBoosts: []string{"autumn", "beds"},
	},
	{
		Slug: "winter-warmers",
		Copy: models.ConfigCopy{
			Headline:     "Keep the Small Ones Warm",
			Subheadline:  "Coats, heated pads and indoor games for the cold stretch.",
			Announcement: "Winter warmers are in, sized for every species.",
		},
		TagBoosts: []string{"winter", "coats"},
	},
}

// MatchTheme returns the species theme whose keyword set appears in the
// campaign text, or nil when nothing matches. Matching is case-insensitive
// substring containment, so "dog_days_2026" matches the dogs theme.
func MatchTheme(campaignText string) *Theme {
	text := strings.ToLower(campaignText)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	for i := range speciesThemes {
		for _, keyword := range speciesThemes[i].Keywords {
			if strings.Contains(text, keyword) {
				return &speciesThemes[i]
			}
		}
	}
	return nil
}

// HashPick deterministically maps free text onto one of n buckets using
// FNV-32a. The same text always lands in the same bucket across processes
// and restarts, which keeps theme selection stable for a campaign's lifetime.
func HashPick(text string, n int) int {
	if n <= 0 {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(text))
	return int(h.Sum32() % uint32(n))
}

// GenericTheme returns the generic theme hash-picked for the campaign text.
func GenericTheme(campaignText string) *Theme {
	return &genericThemes[HashPick(strings.ToLower(campaignText), len(genericThemes))]
}

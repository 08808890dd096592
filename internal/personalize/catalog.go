package personalize

import (
	"sort"
	"strings"

	"github.com/brindlewood/storefront-api/internal/models"
)

// MinVisibleItems is the reordering safety valve: a relevance filter that
// would leave fewer visible items than this is skipped entirely, because a
// near-empty page looks broken in a way an unfiltered one never does.
const MinVisibleItems = 2

// ApplyBoosts orders catalog items by how many boost tags they match, most
// matches first. The sort is stable, so the storefront's own ordering is
// preserved inside each match-count group. Items matching no boost are
// dropped unless that would leave fewer than minVisible items, in which case
// every item stays and only the ordering applies.
func ApplyBoosts(items []models.CatalogItem, boosts []string, minVisible int) []models.CatalogItem {
	if len(items) == 0 || len(boosts) == 0 {
		return items
	}

	type scored struct {
		item  models.CatalogItem
		score int
	}

	ranked := make([]scored, len(items))
	matched := 0
	for i, item := range items {
		score := matchCount(item.Tags, boosts)
		ranked[i] = scored{item: item, score: score}
		if score > 0 {
			matched++
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	keepAll := matched < minVisible
	out := make([]models.CatalogItem, 0, len(items))
	for _, r := range ranked {
		if keepAll || r.score > 0 {
			out = append(out, r.item)
		}
	}
	return out
}

// matchCount reports how many of an item's tags appear in the boost list.
// Each tag counts once however many boosts it matches.
func matchCount(tags, boosts []string) int {
	count := 0
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		for _, boost := range boosts {
			if strings.EqualFold(trimmed, boost) {
				count++
				break
			}
		}
	}
	return count
}

// catalogIdentity reduces a snapshot to a stable identity string for the
// campaign fingerprint. Handles are sorted so display order changes do not
// fragment the config cache.
func catalogIdentity(catalog []models.CatalogItem) string {
	if len(catalog) == 0 {
		return ""
	}

	handles := make([]string, len(catalog))
	for i, item := range catalog {
		handles[i] = strings.ToLower(strings.TrimSpace(item.Handle))
	}
	sort.Strings(handles)
	return strings.Join(handles, ",")
}

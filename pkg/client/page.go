package client

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MinVisibleItems is the reordering safety valve: a boost filter that would
// leave fewer visible cards is skipped entirely.
const MinVisibleItems = 2

// PageRequest describes one full storefront page load.
type PageRequest struct {
	Visit    VisitContext
	Catalog  []CatalogItem
	Subjects []Subject
}

// PageResult is the outcome of one personalized page load. Artifacts and
// Failures are keyed by subject URL; a subject filtered out by the config
// appears in neither.
type PageResult struct {
	Config    PageConfig
	Artifacts map[string]*Artifact
	Failures  map[string]error
}

// PersonalizePage drives a complete page load: fetch the configuration,
// apply ordering and filtering, and only then generate imagery for the
// subjects that remain visible. The sequencing is deliberate - a card the
// config hides must never cost a provider call.
//
// Generation runs in FIFO batches: every request in a batch resolves,
// success or failure, before the next batch starts.
func (c *Client) PersonalizePage(ctx context.Context, req PageRequest) (*PageResult, error) {
	config := c.personalizeOrFallback(ctx, req)

	if len(config.Order) == 0 && config.Intensity == "full" &&
		len(config.TagBoosts) > 0 && len(req.Catalog) > 0 {
		config.Order = OrderCatalog(req.Catalog, config.TagBoosts, MinVisibleItems)
	}

	result := &PageResult{
		Config:    config,
		Artifacts: make(map[string]*Artifact),
		Failures:  make(map[string]error),
	}

	visible := visibleSubjects(req.Subjects, config)

	var mu sync.Mutex
	for start := 0; start < len(visible); start += c.generateBatch {
		end := start + c.generateBatch
		if end > len(visible) {
			end = len(visible)
		}

		var wg sync.WaitGroup
		for _, subject := range visible[start:end] {
			wg.Add(1)
			go func(s Subject) {
				defer wg.Done()
				artifact, err := c.GenerateArtifact(ctx, GenerateRequest{Subject: s, Visit: req.Visit})

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					result.Failures[s.URL] = err
					return
				}
				result.Artifacts[s.URL] = artifact
			}(subject)
		}
		wg.Wait()

		if ctx.Err() != nil {
			return result, ctx.Err()
		}
	}

	return result, nil
}

// personalizeOrFallback never blocks the page on a slow or unreachable
// backend: any personalize failure renders the page unpersonalized.
func (c *Client) personalizeOrFallback(ctx context.Context, req PageRequest) PageConfig {
	config, err := c.Personalize(ctx, PersonalizeRequest{Visit: req.Visit, Catalog: req.Catalog})
	if err != nil {
		return PageConfig{Intensity: "none", Fallback: true}
	}
	return *config
}

// visibleSubjects applies the config's ordering decision to the page's
// subjects. Handle-less subjects (banners, collections, text blocks) are
// always visible and keep their place ahead of the ranked cards. Product
// cards survive only when their handle appears in the order; without an
// order, everything is visible.
func visibleSubjects(subjects []Subject, config PageConfig) []Subject {
	if config.Intensity != "full" || len(config.Order) == 0 {
		return subjects
	}

	rank := make(map[string]int, len(config.Order))
	for i, handle := range config.Order {
		rank[normalizeHandle(handle)] = i
	}

	visible := make([]Subject, 0, len(subjects))
	cards := make([]Subject, 0, len(subjects))
	for _, subject := range subjects {
		if subject.Handle == "" {
			visible = append(visible, subject)
			continue
		}
		if _, ok := rank[normalizeHandle(subject.Handle)]; ok {
			cards = append(cards, subject)
		}
	}

	sort.SliceStable(cards, func(i, j int) bool {
		return rank[normalizeHandle(cards[i].Handle)] < rank[normalizeHandle(cards[j].Handle)]
	})

	return append(visible, cards...)
}

// OrderCatalog ranks catalog handles by boost-tag relevance, mirroring how
// the backend orders a catalog snapshot. Items matching more boost tags
// rank earlier; ties keep catalog order. When fewer than minVisible items
// match at all, filtering is skipped and every handle is returned ranked.
func OrderCatalog(items []CatalogItem, boosts []string, minVisible int) []string {
	if len(items) == 0 {
		return nil
	}

	type scored struct {
		handle string
		score  int
	}

	matched := 0
	ranked := make([]scored, len(items))
	for i, item := range items {
		score := matchCount(item.Tags, boosts)
		if score > 0 {
			matched++
		}
		ranked[i] = scored{handle: item.Handle, score: score}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	keepAll := matched < minVisible

	handles := make([]string, 0, len(ranked))
	for _, entry := range ranked {
		if entry.score == 0 && !keepAll {
			continue
		}
		handles = append(handles, entry.handle)
	}
	return handles
}

func matchCount(tags, boosts []string) int {
	count := 0
	for _, boost := range boosts {
		boost = normalizeHandle(boost)
		if boost == "" {
			continue
		}
		for _, tag := range tags {
			if normalizeHandle(tag) == boost {
				count++
				break
			}
		}
	}
	return count
}

func normalizeHandle(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

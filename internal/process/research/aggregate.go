package research

import (
	"github.com/lueurxax/editorial-planner/internal/core/domain"
	"github.com/lueurxax/editorial-planner/internal/process/research/premium"
	"github.com/lueurxax/editorial-planner/internal/process/research/sources"
)

type aggregated struct {
	keyword    *domain.Keyword
	popularity *float64
	serp       domain.SERPFeatures
}

// Aggregate merges seeds and candidates into one keyword per normalized
// text, in first-seen order. The first source to mention a keyword owns
// its provenance; later sources only fill what is still empty. SERP flags
// are ORed and the highest popularity wins. Free-tier estimates are set on
// every keyword; premium fields stay nil.
func Aggregate(runID string, seeds []string, candidates []sources.Candidate) []*domain.Keyword {
	byText := make(map[string]*aggregated, len(seeds)+len(candidates))
	order := make([]string, 0, len(seeds)+len(candidates))

	add := func(c sources.Candidate) {
		text := domain.NormalizeKeyword(c.Keyword)
		if text == "" {
			return
		}

		if c.Source == "" {
			c.Source = sources.SourceSuggest
		}

		agg, ok := byText[text]
		if !ok {
			agg = &aggregated{keyword: &domain.Keyword{
				RunID:     runID,
				Text:      text,
				Source:    c.Source,
				SourceURL: c.SourceURL,
				Selection: domain.SelectionNone,
			}}
			byText[text] = agg
			order = append(order, text)
		} else if agg.keyword.SourceURL == "" {
			agg.keyword.SourceURL = c.SourceURL
		}

		if c.SERP != nil {
			agg.serp = agg.serp.Merge(*c.SERP)
		}

		if c.Popularity != nil && (agg.popularity == nil || *c.Popularity > *agg.popularity) {
			p := *c.Popularity
			agg.popularity = &p
		}
	}

	for _, seed := range seeds {
		add(sources.Candidate{Keyword: seed, Source: sources.SourceSeed})
	}

	for _, c := range candidates {
		add(c)
	}

	out := make([]*domain.Keyword, 0, len(order))

	for _, text := range order {
		agg := byText[text]
		kw := agg.keyword
		kw.SERP = agg.serp
		kw.FreeDifficulty = domain.EstimateDifficultyFree(kw.Text, agg.serp)
		kw.FreeVolume = domain.EstimateVolumeFree(agg.popularity)
		out = append(out, kw)
	}

	return out
}

// ApplyPremium copies premium metrics onto the matching keywords. Premium
// numbers replace nothing but nils, and premium SERP flags are ORed into
// the scraped ones. It returns how many keywords received data.
func ApplyPremium(keywords []*domain.Keyword, metrics map[string]premium.Metrics) int {
	if len(metrics) == 0 {
		return 0
	}

	applied := 0

	for _, kw := range keywords {
		m, ok := metrics[kw.Text]
		if !ok {
			continue
		}

		kw.PremiumVolume = firstNonNil(kw.PremiumVolume, m.Volume)
		kw.PremiumDifficulty = firstNonNil(kw.PremiumDifficulty, m.Difficulty)
		kw.PremiumCPC = firstNonNil(kw.PremiumCPC, m.CPC)
		kw.PremiumCompetition = firstNonNil(kw.PremiumCompetition, m.Competition)
		kw.SERP = kw.SERP.Merge(domain.SERPFeatures{
			FeaturedSnippet: m.FeaturedSnippet,
			PeopleAlsoAsk:   m.PeopleAlsoAsk,
		})

		applied++
	}

	return applied
}

func firstNonNil[T any](current, next *T) *T {
	if current != nil {
		return current
	}

	return next
}

// keywordTexts returns the normalized texts in order.
func keywordTexts(keywords []*domain.Keyword) []string {
	out := make([]string, len(keywords))
	for i, kw := range keywords {
		out[i] = kw.Text
	}

	return out
}

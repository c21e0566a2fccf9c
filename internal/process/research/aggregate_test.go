package research

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	"github.com/lueurxax/editorial-planner/internal/process/research/premium"
	"github.com/lueurxax/editorial-planner/internal/process/research/sources"
)

func TestInferSector(t *testing.T) {
	tests := []struct {
		name        string
		description string
		objectives  string
		want        string
	}{
		{name: "software", description: "B2B Software vendor", want: SectorTech},
		{name: "brand", objectives: "grow brand awareness", want: SectorMarketing},
		{name: "seo", description: "an SEO agency", want: SectorSEO},
		{name: "saas", description: "subscription SaaS", want: SectorSaaS},
		{name: "health", description: "Healthy recipes", want: SectorHealth},
		{name: "finance", objectives: "personal financial planning", want: SectorFinance},
		{name: "first match wins", description: "tech marketing", want: SectorTech},
		{name: "default", description: "gardening tips", want: SectorDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferSector(tt.description, tt.objectives))
		})
	}
}

func TestAggregate_MergesByNormalizedText(t *testing.T) {
	candidates := []sources.Candidate{
		{Keyword: "Cloud  Backup", Source: sources.SourceSuggest, Popularity: floatPtr(30)},
		{Keyword: "cloud backup pricing", Source: sources.SourceSuggest, Popularity: floatPtr(5)},
		{
			Keyword:   "cloud backup",
			Source:    sources.SourceSERP,
			SourceURL: "https://example.com/serp",
			SERP:      &domain.SERPFeatures{FeaturedSnippet: true},
		},
		{Keyword: "cloud backup", Source: sources.SourceReddit, SERP: &domain.SERPFeatures{PeopleAlsoAsk: true}, Popularity: floatPtr(60)},
		{Keyword: "nas drives"},
		{Keyword: "   "},
	}

	got := Aggregate("run-1", []string{"cloud backup"}, candidates)
	require.Len(t, got, 3)

	assert.Equal(t, []string{"cloud backup", "cloud backup pricing", "nas drives"}, keywordTexts(got))

	seed := got[0]
	assert.Equal(t, "run-1", seed.RunID)
	assert.Equal(t, sources.SourceSeed, seed.Source)
	assert.Equal(t, "https://example.com/serp", seed.SourceURL)
	assert.True(t, seed.SERP.FeaturedSnippet)
	assert.True(t, seed.SERP.PeopleAlsoAsk)
	assert.Equal(t, domain.VolumeRange1KTo10K, seed.FreeVolume)
	assert.Equal(t, domain.DifficultyHard, seed.FreeDifficulty)
	assert.Equal(t, domain.SelectionNone, seed.Selection)
	assert.False(t, seed.HasPremiumData())

	assert.Equal(t, domain.VolumeRange0To100, got[1].FreeVolume)
	assert.Equal(t, sources.SourceSuggest, got[2].Source)
}

func TestApplyPremium(t *testing.T) {
	keywords := keywordsFromTexts("cloud backup", "nas drives")
	keywords[0].SERP.PeopleAlsoAsk = true

	applied := ApplyPremium(keywords, map[string]premium.Metrics{
		"cloud backup": {Keyword: "cloud backup", Volume: intPtr(1900), Difficulty: intPtr(62), FeaturedSnippet: true},
	})

	assert.Equal(t, 1, applied)
	assert.Equal(t, 1900, keywords[0].Volume())
	assert.Equal(t, 62, keywords[0].DifficultyScore())
	assert.True(t, keywords[0].SERP.FeaturedSnippet)
	assert.True(t, keywords[0].SERP.PeopleAlsoAsk)
	assert.False(t, keywords[1].HasPremiumData())

	assert.Zero(t, ApplyPremium(keywords, nil))
}

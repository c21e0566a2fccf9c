package research

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	"github.com/lueurxax/editorial-planner/internal/core/llm"
)

func TestApplySelections(t *testing.T) {
	keywords := keywordsFromTexts("cloud backup", "backup pricing", "old topic")
	keywords[2].Overlap = true

	clusters := []*domain.Cluster{
		{Name: "Backup", Keywords: keywords[:2], Selection: domain.SelectionNone},
		{Name: "Legacy", Keywords: keywords[2:], Selection: domain.SelectionNone},
	}

	proposals := []selectionProposal{
		{ClusterName: " backup ", IsSelected: true, Rationale: "quick wins", SelectedKeywords: []string{"Cloud Backup"}},
		{ClusterName: "Legacy", IsSelected: true, Rationale: "refresh", SelectedKeywords: []string{"old topic"}},
	}

	selected := applySelections(clusters, proposals, true)
	assert.Equal(t, 1, selected)

	assert.Equal(t, domain.SelectionAutomatic, keywords[0].Selection)
	assert.Equal(t, "quick wins", keywords[0].SelectionRationale)
	assert.Equal(t, domain.SelectionNone, keywords[1].Selection)
	assert.Equal(t, domain.SelectionNone, keywords[2].Selection)
	assert.Equal(t, domain.SelectionAutomatic, clusters[0].Selection)
	assert.Equal(t, "quick wins", clusters[0].Rationale)

	// Without avoidance the overlapping keyword is taken.
	assert.Equal(t, 2, applySelections(clusters, proposals, false))
	assert.Equal(t, domain.SelectionAutomatic, keywords[2].Selection)
}

func TestFallbackScore(t *testing.T) {
	kw := &domain.Keyword{
		FreeDifficulty: domain.DifficultyEasy,
		PremiumVolume:  intPtr(300),
		SERP:           domain.SERPFeatures{FeaturedSnippet: true, PeopleAlsoAsk: true},
		Overlap:        true,
	}

	assert.Equal(t, 300-25+50+20-100, FallbackScore(kw))
}

func TestFallbackSelect(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		targetMax int
		want      int
	}{
		{name: "seventy percent", total: 10, targetMax: 100, want: 7},
		{name: "capped", total: 200, targetMax: 100, want: 100},
		{name: "at least one", total: 1, targetMax: 100, want: 1},
		{name: "three keywords", total: 3, targetMax: 100, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keywords := make([]*domain.Keyword, tt.total)
			for i := range keywords {
				keywords[i] = &domain.Keyword{FreeDifficulty: domain.DifficultyMedium, Selection: domain.SelectionNone}
			}

			picked := FallbackSelect(keywords, tt.targetMax)
			assert.Len(t, picked, tt.want)
			assert.Equal(t, tt.want, domain.CountSelections(keywords).Automatic)

			for _, kw := range picked {
				assert.Equal(t, FallbackRationale, kw.SelectionRationale)
			}
		})
	}
}

func TestFallbackSelect_RanksByScore(t *testing.T) {
	low := &domain.Keyword{Text: "low", FreeDifficulty: domain.DifficultyVeryHard}
	overlap := &domain.Keyword{Text: "overlap", FreeDifficulty: domain.DifficultyEasy, Overlap: true}
	snippet := &domain.Keyword{Text: "snippet", FreeDifficulty: domain.DifficultyMedium, SERP: domain.SERPFeatures{FeaturedSnippet: true}}
	volume := &domain.Keyword{Text: "volume", FreeDifficulty: domain.DifficultyHard, PremiumVolume: intPtr(500)}

	picked := FallbackSelect([]*domain.Keyword{low, overlap, snippet, volume}, 100)
	require.Len(t, picked, 2)
	assert.Equal(t, []string{"volume", "snippet"}, keywordTexts(picked))
	assert.False(t, low.Selection.IsSelected())
}

func TestSelector_FallsBackOnEmptySelection(t *testing.T) {
	client := newStubLLM()
	client.answers[llm.TaskSelect] = `[{"clusterName": "Backup", "isSelected": false, "selectedKeywords": []}]`

	keywords := keywordsFromTexts("a b", "c d", "e f", "g h")
	clusters := []*domain.Cluster{{Name: "Backup", Keywords: keywords, Selection: domain.SelectionNone}}

	fallback := NewSelector(client, 0, nopLogger()).Select(context.Background(), &domain.Project{Name: "p"}, clusters)
	assert.True(t, fallback)
	assert.Equal(t, 2, domain.CountSelections(keywords).Automatic)
	assert.Equal(t, domain.SelectionAutomatic, clusters[0].Selection)
}

func TestSelector_UsesCollaboratorPicks(t *testing.T) {
	client := newStubLLM()
	client.answers[llm.TaskSelect] = `Here you go: [{"clusterName": "Backup", "isSelected": true, "rationale": "fit", "selectedKeywords": ["c d"]}]`

	keywords := keywordsFromTexts("a b", "c d")
	clusters := []*domain.Cluster{{Name: "Backup", Keywords: keywords, Selection: domain.SelectionNone}}

	fallback := NewSelector(client, 0, nopLogger()).Select(context.Background(), &domain.Project{Name: "p"}, clusters)
	assert.False(t, fallback)
	assert.Equal(t, domain.SelectionNone, keywords[0].Selection)
	assert.Equal(t, domain.SelectionAutomatic, keywords[1].Selection)
}

func TestSelector_NoKeywords(t *testing.T) {
	client := newStubLLM()

	assert.False(t, NewSelector(client, 0, nopLogger()).Select(context.Background(), &domain.Project{}, nil))
	assert.Zero(t, client.calls(llm.TaskSelect))
}

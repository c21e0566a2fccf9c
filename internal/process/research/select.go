package research

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	"github.com/lueurxax/editorial-planner/internal/core/llm"
	"github.com/lueurxax/editorial-planner/internal/platform/observability"
)

type selectionProposal struct {
	ClusterName      string   `json:"clusterName"`
	IsSelected       bool     `json:"isSelected"`
	Rationale        string   `json:"rationale"`
	SelectedKeywords []string `json:"selectedKeywords"`
}

// Selector picks the keywords carried into content planning.
type Selector struct {
	client    llm.Client
	targetMax int
	logger    *zerolog.Logger
}

// NewSelector builds a Selector that picks at most targetMax keywords.
func NewSelector(client llm.Client, targetMax int, logger *zerolog.Logger) *Selector {
	if targetMax <= 0 {
		targetMax = defaultSelectionTargetMax
	}

	return &Selector{client: client, targetMax: targetMax, logger: logger}
}

// Select marks the collaborator's picks as automatic selections. When the
// collaborator fails or selects nothing from a non-empty keyword set, the
// heuristic ranking takes over and Select reports true.
func (s *Selector) Select(ctx context.Context, project *domain.Project, clusters []*domain.Cluster) bool {
	keywords := clusterKeywords(clusters)
	if len(keywords) == 0 {
		return false
	}

	proposals := s.propose(ctx, project, clusters)
	if applySelections(clusters, proposals, project.AvoidCannibalization) > 0 {
		return false
	}

	picked := FallbackSelect(keywords, s.targetMax)
	markClustersWithSelections(clusters)
	observability.FallbackSelections.Inc()
	s.logger.Warn().Int(logKeyCount, len(picked)).Msg("collaborator selected no keywords, using heuristic selection")

	return true
}

func (s *Selector) propose(ctx context.Context, project *domain.Project, clusters []*domain.Cluster) []selectionProposal {
	resp, err := s.client.Complete(ctx, llm.Request{
		Task:      llm.TaskSelect,
		Prompt:    buildSelectionPrompt(project, clusters),
		MaxTokens: selectMaxTokens,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str(logKeyTask, string(llm.TaskSelect)).Msg("keyword selection call failed")
		return nil
	}

	proposals, err := llm.DecodeJSON[[]selectionProposal](resp.Text, '[')
	if err != nil {
		observability.CollaboratorParseFailures.WithLabelValues(string(llm.TaskSelect)).Inc()
		s.logger.Warn().Err(err).Str(logKeyTask, string(llm.TaskSelect)).Msg("selection response unparsable")

		return nil
	}

	return proposals
}

// applySelections matches proposals to clusters by name and returns how
// many keywords were selected. Overlapping keywords are skipped when
// avoidOverlap is set.
func applySelections(clusters []*domain.Cluster, proposals []selectionProposal, avoidOverlap bool) int {
	byName := make(map[string]selectionProposal, len(proposals))

	for _, p := range proposals {
		key := strings.ToLower(strings.TrimSpace(p.ClusterName))
		if _, seen := byName[key]; !seen {
			byName[key] = p
		}
	}

	selected := 0

	for _, c := range clusters {
		p, ok := byName[strings.ToLower(strings.TrimSpace(c.Name))]
		if !ok {
			continue
		}

		c.Selection = c.Selection.WithAutomatic(p.IsSelected)
		if p.Rationale != "" {
			c.Rationale = p.Rationale
		}

		picks := make(map[string]struct{}, len(p.SelectedKeywords))
		for _, raw := range p.SelectedKeywords {
			picks[domain.NormalizeKeyword(raw)] = struct{}{}
		}

		for _, kw := range c.Keywords {
			if _, ok := picks[kw.Text]; !ok {
				continue
			}

			if avoidOverlap && kw.Overlap {
				continue
			}

			kw.Selection = kw.Selection.WithAutomatic(true)
			kw.SelectionRationale = p.Rationale
			selected++
		}
	}

	return selected
}

// FallbackScore ranks a keyword for heuristic selection: volume minus
// difficulty, plus 50 for a featured snippet and 20 for "people also ask",
// minus 100 when existing content already covers it.
func FallbackScore(kw *domain.Keyword) int {
	score := kw.Volume() - kw.DifficultyScore()

	if kw.SERP.FeaturedSnippet {
		score += fallbackFeaturedSnippetBonus
	}

	if kw.SERP.PeopleAlsoAsk {
		score += fallbackPAABonus
	}

	if kw.Overlap {
		score -= fallbackOverlapPenalty
	}

	return score
}

// FallbackSelect marks the best min(targetMax, 70% of all) keywords as
// automatically selected, at least one when keywords is non-empty. Ties
// keep input order. The picked keywords are returned.
func FallbackSelect(keywords []*domain.Keyword, targetMax int) []*domain.Keyword {
	if len(keywords) == 0 {
		return nil
	}

	ranked := make([]*domain.Keyword, len(keywords))
	copy(ranked, keywords)

	sort.SliceStable(ranked, func(i, j int) bool {
		return FallbackScore(ranked[i]) > FallbackScore(ranked[j])
	})

	n := min(targetMax, int(math.Floor(float64(len(keywords))*fallbackSelectionRatio)))
	n = max(1, n)

	picked := ranked[:n]
	for _, kw := range picked {
		kw.Selection = kw.Selection.WithAutomatic(true)
		kw.SelectionRationale = FallbackRationale
	}

	return picked
}

// markClustersWithSelections flags every cluster holding an automatic pick.
func markClustersWithSelections(clusters []*domain.Cluster) {
	for _, c := range clusters {
		for _, kw := range c.Keywords {
			if kw.Selection.ByAutomatic() {
				c.Selection = c.Selection.WithAutomatic(true)
				break
			}
		}
	}
}

func clusterKeywords(clusters []*domain.Cluster) []*domain.Keyword {
	var out []*domain.Keyword
	for _, c := range clusters {
		out = append(out, c.Keywords...)
	}

	return out
}

package research

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	coreerrors "github.com/lueurxax/editorial-planner/internal/core/errors"
	"github.com/lueurxax/editorial-planner/internal/core/llm"
	"github.com/lueurxax/editorial-planner/internal/platform/observability"
)

type clusterProposal struct {
	Name      string   `json:"name"`
	Rationale string   `json:"rationale"`
	Keywords  []string `json:"keywords"`
}

// Clusterer groups classified keywords into topical clusters.
type Clusterer struct {
	client llm.Client
	logger *zerolog.Logger
}

// NewClusterer builds a Clusterer on top of the LLM client.
func NewClusterer(client llm.Client, logger *zerolog.Logger) *Clusterer {
	return &Clusterer{client: client, logger: logger}
}

// Cluster asks the collaborator for a grouping and builds scored clusters
// from it. An unparsable answer yields a single cluster holding every
// keyword.
func (c *Clusterer) Cluster(ctx context.Context, project *domain.Project, runID string, keywords []*domain.Keyword) ([]*domain.Cluster, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	resp, err := c.client.Complete(ctx, llm.Request{
		Task:      llm.TaskCluster,
		Prompt:    buildClusteringPrompt(project, keywords),
		MaxTokens: clusterMaxTokens,
	})
	if err != nil {
		return nil, coreerrors.Wrap(coreerrors.CodeAIServiceError, "keyword clustering failed", err)
	}

	proposals, err := llm.DecodeJSON[[]clusterProposal](resp.Text, '[')
	if err != nil {
		observability.CollaboratorParseFailures.WithLabelValues(string(llm.TaskCluster)).Inc()
		c.logger.Warn().Err(err).Str(logKeyTask, string(llm.TaskCluster)).Msg("clustering response unparsable, using a single cluster")
	}

	return BuildClusters(runID, proposals, keywords), nil
}

// BuildClusters assigns every keyword to exactly one cluster. A keyword
// named by several proposals joins the first. Proposals matching no
// keyword are dropped and unassigned keywords go to a trailing "Other
// topics" cluster. Metrics are computed for every cluster.
func BuildClusters(runID string, proposals []clusterProposal, keywords []*domain.Keyword) []*domain.Cluster {
	byText := make(map[string]*domain.Keyword, len(keywords))
	for _, kw := range keywords {
		byText[kw.Text] = kw
	}

	assigned := make(map[string]bool, len(keywords))
	clusters := make([]*domain.Cluster, 0, len(proposals)+1)

	for _, p := range proposals {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}

		var members []*domain.Keyword

		for _, raw := range p.Keywords {
			text := domain.NormalizeKeyword(raw)

			kw, ok := byText[text]
			if !ok || assigned[text] {
				continue
			}

			assigned[text] = true
			members = append(members, kw)
		}

		if len(members) == 0 {
			continue
		}

		clusters = append(clusters, &domain.Cluster{
			RunID:     runID,
			Name:      name,
			Rationale: strings.TrimSpace(p.Rationale),
			Keywords:  members,
		})
	}

	var rest []*domain.Keyword

	for _, kw := range keywords {
		if !assigned[kw.Text] {
			rest = append(rest, kw)
		}
	}

	if len(rest) > 0 {
		clusters = append(clusters, &domain.Cluster{RunID: runID, Name: OtherTopicsCluster, Keywords: rest})
	}

	for i, c := range clusters {
		c.OrderIndex = i
		c.Selection = domain.SelectionNone
		ComputeMetrics(c)
	}

	return clusters
}

// ComputeMetrics sets the aggregate figures of c from its keywords.
func ComputeMetrics(c *domain.Cluster) {
	c.TotalKeywords = len(c.Keywords)
	c.TotalVolume = 0
	c.AvgDifficulty = 0

	if len(c.Keywords) == 0 {
		c.PriorityScore = PriorityScore(nil, 0, 0)
		return
	}

	funnels := make([]domain.FunnelStage, 0, len(c.Keywords))
	intents := make([]domain.SearchIntent, 0, len(c.Keywords))
	difficulty := 0

	for _, kw := range c.Keywords {
		c.TotalVolume += kw.Volume()
		difficulty += kw.DifficultyScore()
		funnels = append(funnels, kw.Funnel)
		intents = append(intents, kw.Intent)
	}

	c.AvgDifficulty = float64(difficulty) / float64(len(c.Keywords))
	c.DominantFunnel = mostCommon(funnels)
	c.DominantIntent = mostCommon(intents)
	c.PriorityScore = PriorityScore(c.Keywords, c.AvgDifficulty, c.TotalVolume)
}

// PriorityScore ranks a cluster: half inverse difficulty, 40% volume
// (per hundred searches, capped at 100) and 10% a bonus of 5 for every
// EASY keyword with a featured snippet.
func PriorityScore(keywords []*domain.Keyword, avgDifficulty float64, totalVolume int) float64 {
	difficultyScore := priorityMaxDifficulty - avgDifficulty
	volumeScore := min(priorityVolumeCap, float64(totalVolume)/priorityVolumeDivisor)

	bonus := 0

	for _, kw := range keywords {
		if kw.SERP.FeaturedSnippet && kw.FreeDifficulty == domain.DifficultyEasy {
			bonus += prioritySnippetIncrement
		}
	}

	return difficultyScore*priorityDifficultyWeight + volumeScore*priorityVolumeWeight + float64(bonus)*priorityBonusWeight
}

// mostCommon returns the most frequent value; ties go to the value seen first.
func mostCommon[T comparable](values []T) T {
	var best T

	counts := make(map[T]int, len(values))
	for _, v := range values {
		counts[v]++
	}

	bestCount := 0

	for _, v := range values {
		if counts[v] > bestCount {
			best = v
			bestCount = counts[v]
		}
	}

	return best
}

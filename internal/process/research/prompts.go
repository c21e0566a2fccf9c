package research

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
)

const classificationPromptTemplate = `You are an SEO expert classifying keywords for an editorial calendar project.

# PROJECT CONTEXT
%s

# KEYWORDS TO CLASSIFY (%d total)
%s

# YOUR TASK
For each keyword, classify:
1. Search intent: INFORMATIONAL, NAVIGATIONAL, TRANSACTIONAL or COMMERCIAL
2. Funnel stage: ToF (awareness), MoF (consideration) or BoF (decision)
3. Cannibalization: does the keyword already exist in the blog or main site content?

# OUTPUT FORMAT
Respond ONLY with a JSON array:
[
  {
    "keyword": "keyword phrase",
    "searchIntent": "INFORMATIONAL",
    "funnelStage": "ToF",
    "isInExistingContent": false,
    "existingContentUrl": null
  }
]`

const clusteringPromptTemplate = `You are an SEO strategist grouping keywords into thematic clusters.

# PROJECT CONTEXT
Business: %s
Objectives: %s
Target: %s

# KEYWORDS (%d total)
%s

# YOUR TASK
Group these keywords into 5-10 thematic clusters based on topic similarity,
search intent alignment, funnel stage coherence and business objective fit.
Each cluster has a clear descriptive name, 10-30 related keywords and a
strategic rationale. Use the keywords exactly as written.

# OUTPUT FORMAT
Respond ONLY with a JSON array:
[
  {
    "name": "Cluster Name",
    "rationale": "Why this cluster matters for the business",
    "keywords": ["keyword1", "keyword2"]
  }
]`

const selectionPromptTemplate = `You are an SEO strategist selecting optimal keywords for a 30-post editorial calendar.

# PROJECT CONTEXT
%s

# KEYWORD CLUSTERS (%d clusters, %d keywords)
%s

# YOUR TASK
Select the best keywords for a 30-post strategy:
1. Prioritize quick wins: low difficulty and high opportunity
2. Balance funnel coverage: 60%% ToF, 30%% MoF, 10%% BoF
3. Every important cluster gets some keywords selected
4. %s
5. Featured snippets are an opportunity

Total to select: about 80-120 keywords, to be spread across 30 posts.

# OUTPUT FORMAT
Respond ONLY with a JSON array:
[
  {
    "clusterName": "Cluster Name",
    "isSelected": true,
    "rationale": "Why selected or rejected",
    "selectedKeywords": ["keyword1", "keyword2"]
  }
]`

const (
	cannibalizationAvoid  = "Avoid cannibalization: skip keywords already covered by existing content"
	cannibalizationIgnore = "Existing content overlap may be ignored for this project"
)

// projectContext is the project summary shared with the collaborator.
type projectContext struct {
	Name                 string   `json:"name"`
	Description          string   `json:"description,omitempty"`
	Language             string   `json:"language"`
	Target               string   `json:"target,omitempty"`
	Objectives           string   `json:"objectives,omitempty"`
	KeywordSeeds         []string `json:"keywordSeeds,omitempty"`
	CompetitorURLs       []string `json:"competitorUrls,omitempty"`
	BlogURL              string   `json:"blogUrl,omitempty"`
	MainSiteURL          string   `json:"mainSiteUrl,omitempty"`
	AvoidCannibalization bool     `json:"avoidCannibalization"`
}

func renderProjectContext(p *domain.Project) string {
	data, err := json.MarshalIndent(projectContext{
		Name:                 p.Name,
		Description:          p.Description,
		Language:             p.Language,
		Target:               p.Target,
		Objectives:           p.Objectives,
		KeywordSeeds:         p.KeywordSeeds,
		CompetitorURLs:       p.CompetitorURLs,
		BlogURL:              p.BlogURL,
		MainSiteURL:          p.MainSiteURL,
		AvoidCannibalization: p.AvoidCannibalization,
	}, "", "  ")
	if err != nil {
		return p.Name
	}

	return string(data)
}

func buildClassificationPrompt(p *domain.Project, batch []*domain.Keyword) string {
	return fmt.Sprintf(classificationPromptTemplate,
		renderProjectContext(p), len(batch), strings.Join(keywordTexts(batch), "\n"))
}

func buildClusteringPrompt(p *domain.Project, keywords []*domain.Keyword) string {
	var sb strings.Builder

	for _, kw := range keywords {
		fmt.Fprintf(&sb, "- %s [%s] [%s]\n", kw.Text, kw.Funnel, kw.Intent)
	}

	return fmt.Sprintf(clusteringPromptTemplate, p.Name, p.Objectives, p.Target, len(keywords), sb.String())
}

func buildSelectionPrompt(p *domain.Project, clusters []*domain.Cluster) string {
	var (
		sb    strings.Builder
		total int
	)

	for _, c := range clusters {
		total += c.TotalKeywords

		top := keywordTexts(c.Keywords[:min(selectionPromptTopKeywords, len(c.Keywords))])

		fmt.Fprintf(&sb, "\n## %s\n", c.Name)
		fmt.Fprintf(&sb, "- Total Keywords: %d\n", c.TotalKeywords)
		fmt.Fprintf(&sb, "- Avg Difficulty: %.1f\n", c.AvgDifficulty)
		fmt.Fprintf(&sb, "- Total Volume: %d\n", c.TotalVolume)
		fmt.Fprintf(&sb, "- Priority Score: %.1f\n", c.PriorityScore)
		fmt.Fprintf(&sb, "- Dominant Funnel: %s\n", c.DominantFunnel)
		fmt.Fprintf(&sb, "- Top Keywords: %s\n", strings.Join(top, ", "))
	}

	rule := cannibalizationIgnore
	if p.AvoidCannibalization {
		rule = cannibalizationAvoid
	}

	return fmt.Sprintf(selectionPromptTemplate, renderProjectContext(p), len(clusters), total, sb.String(), rule)
}

package strategy

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	"github.com/lueurxax/editorial-planner/internal/platform/schedule"
)

const strategyPromptTemplate = `You are an expert SEO strategist creating a data-driven editorial calendar.

# PROJECT CONTEXT
Name: %s
Language: %s
Target Audience: %s
Business Objectives: %s
Blog URL: %s
Main Site URL: %s
First Publish Date: %s

# KNOWLEDGE BASE (source of truth - DO NOT invent facts not present here)
%s

# KEYWORD RESEARCH DATA (YOUR PRIMARY INPUT)

## Research Summary
- Total Keywords Found: %d
- Total Clusters: %d
- Selected Clusters: %d
- Selected Keywords: %d

## Selected Keyword Clusters
%s
## All Selected Keywords (%d listed)
%s

# CRITICAL CONSTRAINTS

## 1. KEYWORD USAGE RULES
- Use ONLY keywords from the selected list above
- Each post has ONE primary keyword, unique across the whole calendar
- Each post has 2-4 secondary keywords from the same or related clusters

## 2. ANTI-CANNIBALIZATION (%s)
%s

## 3. DATA-DRIVEN PRIORITIZATION
Prioritize low difficulty with high volume, featured snippet opportunities,
high priority clusters and a balanced funnel (60%% ToF, 30%% MoF, 10%% BoF).

## 4. PILLARS
Create 3-5 thematic pillars derived from the selected clusters and
distribute the posts proportionally across them.

# YOUR TASK
Create 3-5 pillars and about 30 posts published over %d days starting %s.
Each post has a pillar index, title, primary keyword, secondary keywords,
search intent (INFORMATIONAL, NAVIGATIONAL, TRANSACTIONAL, COMMERCIAL),
funnel stage (ToF, MoF, BoF), rationale (MAX 120 chars), publish date
(YYYY-MM-DD), 2-4 internal links by post index and 2-3 external links.
%s
# OUTPUT FORMAT
Respond ONLY with a JSON object, no text before { or after }:
{
  "versionNumber": %d,
  "globalRationale": "Overall strategy MAX 400 chars",
  "identifiedGaps": "Opportunities vs competitors MAX 300 chars",
  "pillars": [
    {"name": "Pillar Name", "rationale": "MAX 150 chars", "focusKeywords": ["keyword"], "orderIndex": 0, "color": "#3B82F6"}
  ],
  "posts": [
    {
      "pillarIndex": 0,
      "publishDate": "2025-01-20",
      "title": "SEO title including the primary keyword",
      "primaryKeyword": "exact keyword from research",
      "secondaryKeywords": ["secondary1", "secondary2"],
      "searchIntent": "INFORMATIONAL",
      "funnelStage": "ToF",
      "rationale": "Vol: X Diff: Y SERP: Z",
      "keywordMetrics": {"volume": 1200, "difficulty": 45, "hasFeaturedSnippet": false, "hasPAA": true},
      "internalLinks": [{"postIndex": 5, "anchorText": "related article"}],
      "externalLinks": [{"url": "https://example.com", "anchorText": "source", "reason": "Industry research"}]
    }
  ],
  "changesSummary": "What changed and why, MAX 200 chars"
}`

const previousStrategyTemplate = `
# PREVIOUS STRATEGY (v%d)
Global Rationale: %s

Pillars:
%s
Total Posts: %d
Primary Keywords Used: %s

# USER MODIFICATION REQUEST
"%s"

Modify the strategy according to the request, explain the changes in
changesSummary and keep primary keywords unique.
`

const (
	cannibalizationOn = `Cannibalization prevention is mandatory: never use keywords marked
EXISTING CONTENT as primary keywords; use a long-tail variant instead.`
	cannibalizationOff = `You may use keywords already covered by existing content when
strategically valuable. Still avoid duplicates within the new calendar.`
)

// Input is everything the generator needs for one strategy draft.
type Input struct {
	Project       *domain.Project
	Run           *domain.ResearchRun
	Clusters      []*domain.Cluster
	Previous      *domain.StrategyVersion
	Request       string
	VersionNumber int
	// Window overrides the publish window derived from the project.
	Window *schedule.Window
}

// selectedClusters returns the clusters that were picked or contain a
// picked keyword.
func selectedClusters(clusters []*domain.Cluster) []*domain.Cluster {
	var out []*domain.Cluster

	for _, c := range clusters {
		if c.Selection.IsSelected() || slices.ContainsFunc(c.Keywords, func(kw *domain.Keyword) bool {
			return kw.Selection.IsSelected()
		}) {
			out = append(out, c)
		}
	}

	return out
}

func selectedKeywords(clusters []*domain.Cluster) []*domain.Keyword {
	var out []*domain.Keyword

	for _, c := range clusters {
		for _, kw := range c.Keywords {
			if kw.Selection.IsSelected() {
				out = append(out, kw)
			}
		}
	}

	return out
}

// truncateKnowledgeBase cuts kb to limit runes and marks the cut.
func truncateKnowledgeBase(kb string, limit int) string {
	runes := []rune(kb)
	if len(runes) <= limit {
		return kb
	}

	return string(runes[:limit]) + truncatedMarker
}

func formatClusters(clusters []*domain.Cluster) string {
	var sb strings.Builder

	for i, c := range clusters {
		picked := slices.DeleteFunc(slices.Clone(c.Keywords), func(kw *domain.Keyword) bool {
			return !kw.Selection.IsSelected()
		})
		slices.SortStableFunc(picked, func(a, b *domain.Keyword) int {
			return cmp.Compare(b.Volume(), a.Volume())
		})

		top := make([]string, 0, clusterTopKeywords)
		for _, kw := range picked[:min(clusterTopKeywords, len(picked))] {
			top = append(top, kw.Text)
		}

		rationale := c.Rationale
		if rationale == "" {
			rationale = notProvided
		}

		fmt.Fprintf(&sb, "\n### Cluster %d: %s\n", i+1, c.Name)
		fmt.Fprintf(&sb, "- Total Keywords: %d\n", c.TotalKeywords)
		fmt.Fprintf(&sb, "- Priority Score: %.1f\n", c.PriorityScore)
		fmt.Fprintf(&sb, "- Avg Difficulty: %.1f\n", c.AvgDifficulty)
		fmt.Fprintf(&sb, "- Total Volume: %d\n", c.TotalVolume)
		fmt.Fprintf(&sb, "- Dominant Funnel: %s\n", orNA(string(c.DominantFunnel)))
		fmt.Fprintf(&sb, "- Dominant Intent: %s\n", orNA(string(c.DominantIntent)))
		fmt.Fprintf(&sb, "- Rationale: %s\n", rationale)
		fmt.Fprintf(&sb, "- Top Keywords (by volume): %s\n", strings.Join(top, ", "))
	}

	return sb.String()
}

func formatKeywords(keywords []*domain.Keyword) string {
	var sb strings.Builder

	for _, kw := range keywords {
		volume := kw.FreeVolume
		if kw.PremiumVolume != nil {
			volume = fmt.Sprintf("%d", *kw.PremiumVolume)
		}

		difficulty := string(kw.FreeDifficulty)
		if kw.PremiumDifficulty != nil {
			difficulty = fmt.Sprintf("%d", *kw.PremiumDifficulty)
		}

		var serp []string
		if kw.SERP.FeaturedSnippet {
			serp = append(serp, "FS")
		}

		if kw.SERP.PeopleAlsoAsk {
			serp = append(serp, "PAA")
		}

		if kw.SERP.VideoCarousel {
			serp = append(serp, "Video")
		}

		fmt.Fprintf(&sb, "- %q | Vol: %s | Diff: %s | %s | %s", kw.Text, orNA(volume), orNA(difficulty), kw.Funnel, kw.Intent)

		if len(serp) > 0 {
			fmt.Fprintf(&sb, " [%s]", strings.Join(serp, ","))
		}

		if kw.Overlap {
			sb.WriteString(" EXISTING CONTENT")
		}

		sb.WriteByte('\n')
	}

	return sb.String()
}

func formatPrevious(prev *domain.StrategyVersion, request string) string {
	if prev == nil || strings.TrimSpace(request) == "" {
		return ""
	}

	var pillars strings.Builder
	for i, p := range prev.Pillars {
		fmt.Fprintf(&pillars, "%d. %s - %s\n", i+1, p.Name, p.Rationale)
	}

	keywords := make([]string, 0, len(prev.Items))
	for _, item := range prev.Items {
		keywords = append(keywords, item.PrimaryKeyword)
	}

	return fmt.Sprintf(previousStrategyTemplate, prev.VersionNumber, prev.GlobalRationale,
		pillars.String(), len(prev.Items), strings.Join(keywords, ", "), request)
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}

	return s
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}

	return s
}

// buildPrompt renders the strategy prompt. Keywords beyond maxKeywords and
// knowledge base text beyond kbMax are left out.
func buildPrompt(in Input, start string, periodDays, maxKeywords, kbMax int) string {
	p := in.Project
	clusters := selectedClusters(in.Clusters)
	keywords := selectedKeywords(in.Clusters)
	listed := keywords[:min(maxKeywords, len(keywords))]

	mode, rule := "DISABLED", cannibalizationOff
	if p.AvoidCannibalization {
		mode, rule = "ENABLED", cannibalizationOn
	}

	firstPublish := notSpecified
	if p.FirstPublishDate != nil {
		firstPublish = p.FirstPublishDate.Format(dateLayout)
	}

	var totalKeywords, totalClusters int
	if in.Run != nil {
		totalKeywords, totalClusters = in.Run.TotalKeywords, in.Run.TotalClusters
	}

	return fmt.Sprintf(strategyPromptTemplate,
		p.Name, p.Language, orDefault(p.Target, notProvided), orDefault(p.Objectives, notProvided),
		orDefault(p.BlogURL, notProvided), orDefault(p.MainSiteURL, notProvided), firstPublish,
		truncateKnowledgeBase(p.KnowledgeBase, kbMax),
		totalKeywords, totalClusters, len(clusters), len(keywords),
		formatClusters(clusters),
		len(listed), formatKeywords(listed),
		mode, rule,
		periodDays, start,
		formatPrevious(in.Previous, in.Request),
		in.VersionNumber,
	)
}

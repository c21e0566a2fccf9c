package strategy

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	"github.com/lueurxax/editorial-planner/internal/core/llm"
	"github.com/lueurxax/editorial-planner/internal/platform/schedule"
)

var (
	errNoPillars = errors.New("no pillars defined in strategy")
	errNoPosts   = errors.New("no posts defined in strategy")
)

type draft struct {
	GlobalRationale string        `json:"globalRationale"`
	IdentifiedGaps  string        `json:"identifiedGaps"`
	ChangesSummary  string        `json:"changesSummary"`
	Pillars         []draftPillar `json:"pillars"`
	Posts           []draftPost   `json:"posts"`
}

type draftPillar struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Rationale     string   `json:"rationale"`
	FocusKeywords []string `json:"focusKeywords"`
	OrderIndex    *int     `json:"orderIndex"`
	Color         string   `json:"color"`
}

type draftPost struct {
	PillarIndex       int            `json:"pillarIndex"`
	PublishDate       string         `json:"publishDate"`
	Title             string         `json:"title"`
	PrimaryKeyword    string         `json:"primaryKeyword"`
	SecondaryKeywords []string       `json:"secondaryKeywords"`
	SearchIntent      string         `json:"searchIntent"`
	FunnelStage       string         `json:"funnelStage"`
	Rationale         string         `json:"rationale"`
	KeywordMetrics    *draftMetrics  `json:"keywordMetrics"`
	InternalLinks     []internalLink `json:"internalLinks"`
	ExternalLinks     []externalLink `json:"externalLinks"`
}

type draftMetrics struct {
	Volume             json.RawMessage `json:"volume"`
	Difficulty         json.RawMessage `json:"difficulty"`
	HasFeaturedSnippet bool            `json:"hasFeaturedSnippet"`
	HasPAA             bool            `json:"hasPAA"`
}

type internalLink struct {
	PostIndex  *int   `json:"postIndex"`
	AnchorText string `json:"anchorText"`
}

type externalLink struct {
	URL        string `json:"url"`
	AnchorText string `json:"anchorText"`
	Reason     string `json:"reason"`
}

// parseDraft decodes a strategy answer. The answer must hold a JSON object
// with at least one pillar and one post.
func parseDraft(text string) (*draft, error) {
	d, err := llm.DecodeJSON[draft](text, '{')
	if err != nil {
		return nil, err
	}

	if len(d.Pillars) == 0 {
		return nil, errNoPillars
	}

	if len(d.Posts) == 0 {
		return nil, errNoPosts
	}

	return &d, nil
}

// toVersion converts a parsed draft into an unsaved version. Posts without a
// title or primary keyword are dropped. Dates that do not parse fall back to
// the evenly spread calendar starting at start.
func (d *draft) toVersion(sessionID string, start time.Time, periodDays int, research map[string]*domain.Keyword) (*domain.StrategyVersion, int) {
	v := &domain.StrategyVersion{
		SessionID:       sessionID,
		GlobalRationale: orDefault(d.GlobalRationale, defaultGlobalRationale),
		IdentifiedGaps:  orDefault(d.IdentifiedGaps, defaultIdentifiedGaps),
		Pillars:         make([]domain.Pillar, len(d.Pillars)),
	}

	for i, p := range d.Pillars {
		order := i
		if p.OrderIndex != nil {
			order = *p.OrderIndex
		}

		color := strings.TrimSpace(p.Color)
		if color == "" {
			color = PillarColor(i)
		}

		description := p.Description
		if description == "" && len(p.FocusKeywords) > 0 {
			description = strings.Join(p.FocusKeywords, ", ")
		}

		v.Pillars[i] = domain.Pillar{
			Name:        strings.TrimSpace(p.Name),
			Description: description,
			Rationale:   p.Rationale,
			Color:       color,
			OrderIndex:  order,
		}
	}

	spread := schedule.DistributePostDates(start, len(d.Posts), periodDays)
	dropped := 0

	for i, post := range d.Posts {
		title := strings.TrimSpace(post.Title)
		primary := strings.TrimSpace(post.PrimaryKeyword)

		if title == "" || primary == "" {
			dropped++
			continue
		}

		pillar := post.PillarIndex
		if pillar < 0 || pillar >= len(v.Pillars) {
			pillar = 0
		}

		publish, err := schedule.ParseDate(post.PublishDate, start.Location())
		if err != nil {
			publish = spread[i]
		}

		v.Items = append(v.Items, domain.ContentItem{
			PillarIndex:       pillar,
			OrderIndex:        len(v.Items),
			Title:             title,
			PrimaryKeyword:    primary,
			SecondaryKeywords: cleanStrings(post.SecondaryKeywords),
			Intent:            parseIntent(post.SearchIntent),
			Funnel:            parseFunnel(post.FunnelStage),
			PublishDate:       publish,
			Rationale:         post.Rationale,
			Metrics:           itemMetrics(post.KeywordMetrics, research[domain.NormalizeKeyword(primary)]),
			InternalLinks:     internalLinks(post.InternalLinks, d.Posts),
			ExternalLinks:     externalLinks(post.ExternalLinks),
			Status:            domain.ItemProposed,
		})
	}

	return v, dropped
}

func parseIntent(s string) domain.SearchIntent {
	intent := domain.SearchIntent(strings.ToUpper(strings.TrimSpace(s)))
	if intent.Valid() {
		return intent
	}

	return domain.IntentInformational
}

func parseFunnel(s string) domain.FunnelStage {
	s = strings.TrimSpace(s)

	for _, f := range []domain.FunnelStage{domain.FunnelToF, domain.FunnelMoF, domain.FunnelBoF} {
		if strings.EqualFold(s, string(f)) {
			return f
		}
	}

	return domain.FunnelToF
}

func cleanStrings(in []string) []string {
	out := make([]string, 0, len(in))

	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}

	return out
}

// itemMetrics prefers the research data of the primary keyword and falls
// back to what the collaborator reported.
func itemMetrics(m *draftMetrics, kw *domain.Keyword) domain.KeywordMetrics {
	var out domain.KeywordMetrics

	var snippet, paa bool

	if m != nil {
		out.Volume = rawInt(m.Volume)
		out.Difficulty = rawInt(m.Difficulty)
		snippet, paa = m.HasFeaturedSnippet, m.HasPAA
	}

	if kw != nil {
		if kw.PremiumVolume != nil {
			out.Volume = kw.PremiumVolume
		}

		difficulty := kw.DifficultyScore()
		out.Difficulty = &difficulty
		snippet = snippet || kw.SERP.FeaturedSnippet
		paa = paa || kw.SERP.PeopleAlsoAsk
	}

	var opportunities []string
	if snippet {
		opportunities = append(opportunities, "featured snippet")
	}

	if paa {
		opportunities = append(opportunities, "people also ask")
	}

	out.Opportunity = strings.Join(opportunities, ", ")

	return out
}

// rawInt reads a number, a numeric string or a categorical difficulty.
func rawInt(raw json.RawMessage) *int {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		v := int(f)
		return &v
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}

	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return &n
	}

	switch d := domain.Difficulty(strings.ToUpper(s)); d {
	case domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard, domain.DifficultyVeryHard:
		v := d.Score()
		return &v
	}

	return nil
}

func internalLinks(links []internalLink, posts []draftPost) []string {
	out := make([]string, 0, len(links))

	for _, l := range links {
		anchor := strings.TrimSpace(l.AnchorText)

		if l.PostIndex != nil && *l.PostIndex >= 0 && *l.PostIndex < len(posts) {
			target := strings.TrimSpace(posts[*l.PostIndex].Title)
			if anchor == "" {
				anchor = target
			}

			out = append(out, fmt.Sprintf("%s -> %s", anchor, target))

			continue
		}

		if anchor != "" {
			out = append(out, anchor)
		}
	}

	return out
}

func externalLinks(links []externalLink) []string {
	out := make([]string, 0, len(links))

	for _, l := range links {
		if u := strings.TrimSpace(l.URL); u != "" {
			out = append(out, u)
		}
	}

	return out
}

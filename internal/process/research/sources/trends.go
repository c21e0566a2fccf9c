package sources

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	"github.com/lueurxax/editorial-planner/internal/platform/config"
)

const (
	trendsExtensionNS      = "ht"
	trendsExtensionTraffic = "approx_traffic"
	trendsPopularityScale  = 25.0
	trendsMaxPopularity    = 100.0
)

// TrendsSource reads the daily trending-searches feed and keeps the
// entries that share a term with the seeds.
type TrendsSource struct {
	feedURL   string
	client    *http.Client
	userAgent string
	logger    *zerolog.Logger
}

// NewTrendsSource builds a TrendsSource.
func NewTrendsSource(cfg config.SourcesConfig, logger *zerolog.Logger) *TrendsSource {
	return &TrendsSource{
		feedURL:   cfg.TrendsFeedURL,
		client:    &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.BotUserAgent,
		logger:    logger,
	}
}

func (s *TrendsSource) Name() string {
	return SourceTrends
}

func (s *TrendsSource) Fetch(ctx context.Context, q Query) ([]Candidate, error) {
	params := url.Values{}
	params.Set("geo", domain.RegionForLanguage(q.Language))

	body, err := fetch(ctx, s.client, s.feedURL+"?"+params.Encode(), s.userAgent)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse trends feed: %w", err)
	}

	terms := seedTerms(q.Seeds)

	var candidates []Candidate

	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		if title == "" || !sharesTerm(title, terms) {
			continue
		}

		candidates = append(candidates, Candidate{
			Keyword:    title,
			Source:     SourceTrends,
			SourceURL:  item.Link,
			Popularity: trafficPopularity(item),
		})
	}

	s.logger.Debug().Int("items", len(feed.Items)).Int("matched", len(candidates)).Msg("trends feed read")

	return candidates, nil
}

func seedTerms(seeds []string) map[string]struct{} {
	terms := make(map[string]struct{})

	for _, seed := range seeds {
		for _, t := range ExtractKeywords(seed, maxTextKeywords) {
			terms[t] = struct{}{}
		}
	}

	return terms
}

func sharesTerm(text string, terms map[string]struct{}) bool {
	for _, t := range ExtractKeywords(text, maxTextKeywords) {
		if _, ok := terms[t]; ok {
			return true
		}
	}

	return false
}

// trafficPopularity maps the "200+" style traffic estimate onto 0-100 on a
// log scale.
func trafficPopularity(item *gofeed.Item) *float64 {
	ext, ok := item.Extensions[trendsExtensionNS][trendsExtensionTraffic]
	if !ok || len(ext) == 0 {
		return nil
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}

		return -1
	}, ext[0].Value)

	traffic, err := strconv.Atoi(digits)
	if err != nil || traffic <= 0 {
		return nil
	}

	p := math.Min(trendsMaxPopularity, trendsPopularityScale*math.Log10(float64(traffic)))

	return &p
}

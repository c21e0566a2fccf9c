package sources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	"github.com/lueurxax/editorial-planner/internal/platform/config"
	"github.com/lueurxax/editorial-planner/internal/platform/worker"
)

const (
	defaultSERPMaxSeeds   = 5
	maxRelatedSearches    = 8
	maxPeopleAlsoAsk      = 5
	selectorRelated       = "div.s75CSd"
	selectorPeopleAlsoAsk = "div.related-question-pair"
)

// SERPPage is what one result page reveals about a keyword.
type SERPPage struct {
	Keyword         string
	Features        domain.SERPFeatures
	RelatedSearches []string
	Questions       []string
}

// SERPSource scrapes result pages for feature flags and related queries.
// Requests are sequential with a fixed delay in between.
type SERPSource struct {
	baseURL   string
	client    *http.Client
	delay     time.Duration
	maxSeeds  int
	userAgent string
	logger    *zerolog.Logger
}

// NewSERPSource builds a SERPSource.
func NewSERPSource(cfg config.SourcesConfig, logger *zerolog.Logger) *SERPSource {
	maxSeeds := cfg.SERPMaxSeeds
	if maxSeeds <= 0 {
		maxSeeds = defaultSERPMaxSeeds
	}

	return &SERPSource{
		baseURL:   cfg.SERPBaseURL,
		client:    &http.Client{Timeout: cfg.Timeout},
		delay:     cfg.SERPDelay,
		maxSeeds:  maxSeeds,
		userAgent: cfg.BrowserUserAgent,
		logger:    logger,
	}
}

func (s *SERPSource) Name() string {
	return SourceSERP
}

// Fetch returns each scraped seed with its feature flags, followed by its
// related searches and questions as plain candidates.
func (s *SERPSource) Fetch(ctx context.Context, q Query) ([]Candidate, error) {
	seeds := q.Seeds
	if len(seeds) > s.maxSeeds {
		seeds = seeds[:s.maxSeeds]
	}

	var (
		candidates []Candidate
		errs       []error
	)

	for i, seed := range seeds {
		if i > 0 {
			if err := worker.Wait(ctx, s.delay); err != nil {
				return candidates, err
			}
		}

		page, err := s.scrape(ctx, seed, q.Language)
		if err != nil {
			s.logger.Warn().Err(err).Str(logKeySeed, seed).Msg("serp scrape failed for seed")
			errs = append(errs, err)

			continue
		}

		candidates = append(candidates, page.candidates()...)
	}

	if len(seeds) > 0 && len(errs) == len(seeds) {
		return nil, errors.Join(errs...)
	}

	return candidates, nil
}

func (s *SERPSource) scrape(ctx context.Context, keyword, language string) (*SERPPage, error) {
	params := url.Values{}
	params.Set("q", keyword)
	params.Set("hl", language)

	body, err := fetch(ctx, s.client, s.baseURL+"?"+params.Encode(), s.userAgent)
	if err != nil {
		return nil, err
	}

	return ParseSERPPage(keyword, body)
}

// ParseSERPPage detects feature markers and extracts related searches and
// "people also ask" questions.
func ParseSERPPage(keyword string, body []byte) (*SERPPage, error) {
	raw := string(body)

	page := &SERPPage{
		Keyword: keyword,
		Features: domain.SERPFeatures{
			FeaturedSnippet: strings.Contains(raw, "featured-snippet") || strings.Contains(raw, "xpdopen"),
			PeopleAlsoAsk:   strings.Contains(raw, "related-question-pair"),
			VideoCarousel:   strings.Contains(raw, "video-voyager"),
			ImagePack:       strings.Contains(raw, "isch"),
			LocalPack:       strings.Contains(raw, "lclpk"),
		},
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse serp html: %w", err)
	}

	page.RelatedSearches = collectText(doc.Find(selectorRelated), maxRelatedSearches)
	page.Questions = collectText(doc.Find(selectorPeopleAlsoAsk), maxPeopleAlsoAsk)

	return page, nil
}

func (p *SERPPage) candidates() []Candidate {
	features := p.Features

	out := make([]Candidate, 0, 1+len(p.RelatedSearches)+len(p.Questions))
	out = append(out, Candidate{Keyword: p.Keyword, Source: SourceSERP, SERP: &features})

	for _, related := range p.RelatedSearches {
		out = append(out, Candidate{Keyword: related, Source: SourceSERP})
	}

	for _, question := range p.Questions {
		out = append(out, Candidate{Keyword: question, Source: SourceSERP})
	}

	return out
}

// collectText returns the trimmed non-empty texts of the selection, up to limit.
func collectText(sel *goquery.Selection, limit int) []string {
	out := make([]string, 0, limit)

	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if text := strings.TrimSpace(s.Text()); text != "" {
			out = append(out, text)
		}

		return len(out) < limit
	})

	return out
}

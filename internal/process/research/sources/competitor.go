package sources

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/editorial-planner/internal/platform/config"
	"github.com/lueurxax/editorial-planner/internal/platform/worker"
)

const defaultCompetitorMax = 3

// CompetitorSource scrapes competitor pages for their declared and body
// keywords. Pages are fetched one at a time with a delay in between.
type CompetitorSource struct {
	client    *http.Client
	delay     time.Duration
	maxURLs   int
	userAgent string
	logger    *zerolog.Logger
}

// NewCompetitorSource builds a CompetitorSource.
func NewCompetitorSource(cfg config.SourcesConfig, logger *zerolog.Logger) *CompetitorSource {
	maxURLs := cfg.CompetitorMax
	if maxURLs <= 0 {
		maxURLs = defaultCompetitorMax
	}

	return &CompetitorSource{
		client:    &http.Client{Timeout: cfg.CompetitorTimeout},
		delay:     cfg.CompetitorDelay,
		maxURLs:   maxURLs,
		userAgent: cfg.BrowserUserAgent,
		logger:    logger,
	}
}

func (s *CompetitorSource) Name() string {
	return SourceCompetitor
}

func (s *CompetitorSource) Fetch(ctx context.Context, q Query) ([]Candidate, error) {
	urls := q.CompetitorURLs
	if len(urls) > s.maxURLs {
		urls = urls[:s.maxURLs]
	}

	var (
		candidates []Candidate
		errs       []error
	)

	for i, pageURL := range urls {
		if i > 0 {
			if err := worker.Wait(ctx, s.delay); err != nil {
				return candidates, err
			}
		}

		page, err := s.scrape(ctx, pageURL)
		if err != nil {
			s.logger.Warn().Err(err).Str(logKeyURL, pageURL).Msg("competitor scrape failed")
			errs = append(errs, err)

			continue
		}

		candidates = append(candidates, competitorCandidates(page)...)
	}

	if len(urls) > 0 && len(errs) == len(urls) {
		return nil, errors.Join(errs...)
	}

	return candidates, nil
}

func (s *CompetitorSource) scrape(ctx context.Context, pageURL string) (*Page, error) {
	body, err := fetch(ctx, s.client, pageURL, s.userAgent)
	if err != nil {
		return nil, err
	}

	return ParsePage(body, pageURL)
}

func competitorCandidates(page *Page) []Candidate {
	keywords := make([]string, 0, len(page.MetaKeywords)+maxTextKeywords)
	keywords = append(keywords, page.MetaKeywords...)
	keywords = append(keywords, ExtractKeywords(page.BodyText, maxTextKeywords)...)

	keywords = uniqueStrings(keywords)
	out := make([]Candidate, 0, len(keywords))

	for _, kw := range keywords {
		out = append(out, Candidate{Keyword: kw, Source: SourceCompetitor, SourceURL: page.URL})
	}

	return out
}

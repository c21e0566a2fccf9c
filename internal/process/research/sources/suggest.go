package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/lueurxax/editorial-planner/internal/platform/config"
)

const (
	defaultSuggestMax    = 10
	suggestTopPopularity = 60.0
)

// SuggestSource expands seeds through the public autocomplete endpoint.
type SuggestSource struct {
	baseURL   string
	client    *http.Client
	max       int
	userAgent string
	logger    *zerolog.Logger
}

// NewSuggestSource builds a SuggestSource.
func NewSuggestSource(cfg config.SourcesConfig, logger *zerolog.Logger) *SuggestSource {
	maxSuggestions := cfg.SuggestMax
	if maxSuggestions <= 0 {
		maxSuggestions = defaultSuggestMax
	}

	return &SuggestSource{
		baseURL:   cfg.SuggestBaseURL,
		client:    &http.Client{Timeout: cfg.Timeout},
		max:       maxSuggestions,
		userAgent: cfg.BrowserUserAgent,
		logger:    logger,
	}
}

func (s *SuggestSource) Name() string {
	return SourceSuggest
}

// Fetch queries every seed in turn. A failing seed is skipped; an error is
// returned only when every seed failed.
func (s *SuggestSource) Fetch(ctx context.Context, q Query) ([]Candidate, error) {
	var (
		candidates []Candidate
		errs       []error
	)

	for _, seed := range q.Seeds {
		suggestions, err := s.suggest(ctx, seed, q.Language)
		if err != nil {
			if ctx.Err() != nil {
				return candidates, fmt.Errorf("suggest interrupted: %w", ctx.Err())
			}

			s.logger.Warn().Err(err).Str(logKeySeed, seed).Msg("suggest failed for seed")
			errs = append(errs, err)

			continue
		}

		for i, text := range suggestions {
			candidates = append(candidates, Candidate{
				Keyword:    text,
				Source:     SourceSuggest,
				Popularity: rankPopularity(i, len(suggestions)),
			})
		}
	}

	if len(q.Seeds) > 0 && len(errs) == len(q.Seeds) {
		return nil, errors.Join(errs...)
	}

	return candidates, nil
}

func (s *SuggestSource) suggest(ctx context.Context, seed, language string) ([]string, error) {
	params := url.Values{}
	params.Set("client", "firefox")
	params.Set("q", seed)
	params.Set("hl", language)

	body, err := fetch(ctx, s.client, s.baseURL+"?"+params.Encode(), s.userAgent)
	if err != nil {
		return nil, err
	}

	suggestions, err := parseSuggestResponse(body)
	if err != nil {
		return nil, err
	}

	if len(suggestions) > s.max {
		suggestions = suggestions[:s.max]
	}

	return suggestions, nil
}

// parseSuggestResponse reads the ["query", ["s1", "s2"], ...] shape.
func parseSuggestResponse(body []byte) ([]string, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse suggest json: %w", err)
	}

	if len(raw) < 2 {
		return nil, nil
	}

	var suggestions []string
	if err := json.Unmarshal(raw[1], &suggestions); err != nil {
		return nil, fmt.Errorf("parse suggest list: %w", err)
	}

	return uniqueStrings(suggestions), nil
}

// rankPopularity scores autocomplete position: the first suggestion is the
// most popular and the score decays linearly.
func rankPopularity(rank, total int) *float64 {
	if total <= 0 {
		return nil
	}

	p := suggestTopPopularity * float64(total-rank) / float64(total)

	return &p
}

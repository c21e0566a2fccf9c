package premium

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	coreerrors "github.com/lueurxax/editorial-planner/internal/core/errors"
	"github.com/lueurxax/editorial-planner/internal/platform/config"
)

const (
	ahrefsMaxBatch         = 50
	ahrefsKeywordsPath     = "/v3/keywords-explorer/keyword"
	ahrefsDomainPath       = "/v3/site-explorer/domain"
	ahrefsFeatureSnippet   = "featured_snippet"
	ahrefsFeaturePAA       = "people_also_ask"
	ahrefsValidationTarget = "example.com"
)

// Ahrefs reads volume, difficulty and SERP features from Keywords Explorer.
type Ahrefs struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewAhrefs builds an Ahrefs client.
func NewAhrefs(cfg config.PremiumConfig) *Ahrefs {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Ahrefs{
		baseURL:    strings.TrimRight(cfg.AhrefsBaseURL, "/"),
		apiKey:     cfg.AhrefsAPIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (p *Ahrefs) Name() string {
	return providerAhrefs
}

func (p *Ahrefs) MaxBatch() int {
	return ahrefsMaxBatch
}

type ahrefsRequest struct {
	Keywords []string `json:"keywords"`
	Country  string   `json:"country"`
	Mode     string   `json:"mode"`
}

type ahrefsResponse struct {
	Keywords []struct {
		Keyword    string   `json:"keyword"`
		Volume     int      `json:"volume"`
		Difficulty int      `json:"difficulty"`
		CPC        float64  `json:"cpc"`
		Features   []string `json:"features"`
	} `json:"keywords"`
}

func (p *Ahrefs) Lookup(ctx context.Context, keywords []string, language string) ([]Metrics, error) {
	if len(keywords) > ahrefsMaxBatch {
		keywords = keywords[:ahrefsMaxBatch]
	}

	req, err := p.newJSONRequest(ctx, ahrefsKeywordsPath, ahrefsRequest{
		Keywords: keywords,
		Country:  strings.ToLower(domain.RegionForLanguage(language)),
		Mode:     "exact",
	})
	if err != nil {
		return nil, err
	}

	body, err := do(p.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("ahrefs keywords explorer: %w", err)
	}

	return parseAhrefsResponse(body)
}

func parseAhrefsResponse(body []byte) ([]Metrics, error) {
	var resp ahrefsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse ahrefs json: %w", err)
	}

	out := make([]Metrics, 0, len(resp.Keywords))

	for _, kw := range resp.Keywords {
		out = append(out, Metrics{
			Keyword:         kw.Keyword,
			Volume:          intPtr(kw.Volume),
			Difficulty:      nonZeroInt(kw.Difficulty),
			CPC:             nonZeroFloat(kw.CPC),
			FeaturedSnippet: slices.Contains(kw.Features, ahrefsFeatureSnippet),
			PeopleAlsoAsk:   slices.Contains(kw.Features, ahrefsFeaturePAA),
		})
	}

	return out, nil
}

// Validate calls a cheap endpoint; any 2xx answer means the key works.
func (p *Ahrefs) Validate(ctx context.Context) error {
	req, err := p.newJSONRequest(ctx, ahrefsDomainPath, map[string]string{
		"target": ahrefsValidationTarget,
		"mode":   "domain",
	})
	if err != nil {
		return err
	}

	if _, err := do(p.httpClient, req); err != nil {
		return fmt.Errorf("%w: %w", coreerrors.ErrInvalidCredentials, err)
	}

	return nil
}

func (p *Ahrefs) newJSONRequest(ctx context.Context, path string, payload any) (*http.Request, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal ahrefs request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf(errFmtCreateRequest, err)
	}

	req.Header.Set(headerAuthorization, "Bearer "+p.apiKey)
	req.Header.Set(headerContentType, contentTypeJSON)

	return req, nil
}

package premium

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	coreerrors "github.com/lueurxax/editorial-planner/internal/core/errors"
	"github.com/lueurxax/editorial-planner/internal/platform/config"
)

const (
	dataForSEOMaxBatch   = 100
	dataForSEOStatusOK   = 20000
	dataForSEOVolumePath = "/v3/keywords_data/google_ads/search_volume/live"
	dataForSEOUserPath   = "/v3/appendix/user_data"
)

// DataForSEO reads Google Ads search volume and competition.
type DataForSEO struct {
	baseURL    string
	credential string
	httpClient *http.Client
}

// NewDataForSEO builds a DataForSEO client.
func NewDataForSEO(cfg config.PremiumConfig) *DataForSEO {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &DataForSEO{
		baseURL:    strings.TrimRight(cfg.DataForSEOBaseURL, "/"),
		credential: base64.StdEncoding.EncodeToString([]byte(cfg.DataForSEOAPIKey + ":")),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (p *DataForSEO) Name() string {
	return providerDataForSEO
}

func (p *DataForSEO) MaxBatch() int {
	return dataForSEOMaxBatch
}

type dataForSEOTaskRequest struct {
	LanguageCode string   `json:"language_code"`
	Keywords     []string `json:"keywords"`
}

type dataForSEOResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Tasks         []struct {
		StatusCode    int                `json:"status_code"`
		StatusMessage string             `json:"status_message"`
		Result        []dataForSEOResult `json:"result"`
	} `json:"tasks"`
}

type dataForSEOResult struct {
	Keyword      string          `json:"keyword"`
	SearchVolume *int            `json:"search_volume"`
	CPC          *float64        `json:"cpc"`
	Competition  json.RawMessage `json:"competition"`
}

func (p *DataForSEO) Lookup(ctx context.Context, keywords []string, language string) ([]Metrics, error) {
	if len(keywords) > dataForSEOMaxBatch {
		keywords = keywords[:dataForSEOMaxBatch]
	}

	payload, err := json.Marshal([]dataForSEOTaskRequest{{LanguageCode: language, Keywords: keywords}})
	if err != nil {
		return nil, fmt.Errorf("marshal dataforseo request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+dataForSEOVolumePath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf(errFmtCreateRequest, err)
	}

	req.Header.Set(headerAuthorization, "Basic "+p.credential)
	req.Header.Set(headerContentType, contentTypeJSON)

	body, err := do(p.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("dataforseo search volume: %w", err)
	}

	return parseDataForSEOResponse(body)
}

func parseDataForSEOResponse(body []byte) ([]Metrics, error) {
	var resp dataForSEOResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse dataforseo json: %w", err)
	}

	if resp.StatusCode != dataForSEOStatusOK {
		return nil, fmt.Errorf("%w: dataforseo %d %s", coreerrors.ErrProviderRejected, resp.StatusCode, resp.StatusMessage)
	}

	if len(resp.Tasks) == 0 {
		return nil, nil
	}

	task := resp.Tasks[0]
	if task.StatusCode != 0 && task.StatusCode != dataForSEOStatusOK {
		return nil, fmt.Errorf("%w: dataforseo task %d %s", coreerrors.ErrProviderRejected, task.StatusCode, task.StatusMessage)
	}

	out := make([]Metrics, 0, len(task.Result))

	for _, item := range task.Result {
		volume := 0
		if item.SearchVolume != nil {
			volume = *item.SearchVolume
		}

		competition := parseCompetition(item.Competition)

		out = append(out, Metrics{
			Keyword:     item.Keyword,
			Volume:      intPtr(volume),
			CPC:         nonZeroPtr(item.CPC),
			Competition: competition,
			Difficulty:  difficultyFromCompetition(competition),
		})
	}

	return out, nil
}

// parseCompetition accepts a 0-1 number or a LOW/MEDIUM/HIGH label.
func parseCompetition(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return nonZeroFloat(n)
	}

	var label string
	if err := json.Unmarshal(raw, &label); err != nil {
		return nil
	}

	switch strings.ToUpper(label) {
	case "LOW":
		n = competitionLowLabel
	case "MEDIUM":
		n = competitionMediumLabel
	case "HIGH":
		n = competitionHighLabel
	default:
		return nil
	}

	return &n
}

func nonZeroPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}

	return nonZeroFloat(*v)
}

// Validate reads the account endpoint, which answers 20000 for valid keys.
func (p *DataForSEO) Validate(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+dataForSEOUserPath, nil)
	if err != nil {
		return fmt.Errorf(errFmtCreateRequest, err)
	}

	req.Header.Set(headerAuthorization, "Basic "+p.credential)

	body, err := do(p.httpClient, req)
	if err != nil {
		return fmt.Errorf("%w: %w", coreerrors.ErrInvalidCredentials, err)
	}

	var resp dataForSEOResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.StatusCode != dataForSEOStatusOK {
		return fmt.Errorf("%w: dataforseo status %d", coreerrors.ErrInvalidCredentials, resp.StatusCode)
	}

	return nil
}

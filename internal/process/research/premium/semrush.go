package premium

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	coreerrors "github.com/lueurxax/editorial-planner/internal/core/errors"
	"github.com/lueurxax/editorial-planner/internal/platform/config"
)

const (
	semrushMaxBatch      = 50
	semrushRequestSpace  = 100 * time.Millisecond
	semrushExportColumns = "Ph,Nq,Cp,Co,Nr,Kd"
	semrushErrorMarker   = "ERROR"
	semrushFieldSep      = ";"
	semrushDefaultDB     = "us"

	semrushColKeyword     = 0
	semrushColVolume      = 1
	semrushColCPC         = 2
	semrushColCompetition = 3
	semrushColDifficulty  = 5
)

// SEMrush reads phrase metrics one keyword per request.
type SEMrush struct {
	baseURL     string
	apiKey      string
	database    string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *zerolog.Logger
}

// NewSEMrush builds a SEMrush client. The database defaults to the US one.
func NewSEMrush(cfg config.PremiumConfig, logger *zerolog.Logger) *SEMrush {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	database := cfg.SEMrushDatabase
	if database == "" {
		database = semrushDefaultDB
	}

	return &SEMrush{
		baseURL:     strings.TrimRight(cfg.SEMrushBaseURL, "/"),
		apiKey:      cfg.SEMrushAPIKey,
		database:    database,
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: rate.NewLimiter(rate.Every(semrushRequestSpace), 1),
		logger:      logger,
	}
}

func (p *SEMrush) Name() string {
	return providerSEMrush
}

func (p *SEMrush) MaxBatch() int {
	return semrushMaxBatch
}

// Lookup queries each keyword in turn. Keywords that fail are skipped; an
// error is returned only when all of them failed.
func (p *SEMrush) Lookup(ctx context.Context, keywords []string, _ string) ([]Metrics, error) {
	if len(keywords) > semrushMaxBatch {
		keywords = keywords[:semrushMaxBatch]
	}

	var (
		out  []Metrics
		errs []error
	)

	for _, kw := range keywords {
		if err := p.rateLimiter.Wait(ctx); err != nil {
			return out, fmt.Errorf("semrush rate limit: %w", err)
		}

		m, err := p.phrase(ctx, kw)
		if err != nil {
			p.logger.Warn().Err(err).Str(logKeyKeyword, kw).Msg("semrush phrase lookup failed")
			errs = append(errs, err)

			continue
		}

		if m != nil {
			out = append(out, *m)
		}
	}

	if len(keywords) > 0 && len(errs) == len(keywords) {
		return nil, errors.Join(errs...)
	}

	return out, nil
}

func (p *SEMrush) phrase(ctx context.Context, keyword string) (*Metrics, error) {
	params := url.Values{}
	params.Set("type", "phrase_this")
	params.Set("key", p.apiKey)
	params.Set("phrase", keyword)
	params.Set("database", p.database)
	params.Set("export_columns", semrushExportColumns)

	body, err := p.get(ctx, params)
	if err != nil {
		return nil, err
	}

	return parseSEMrushPhrase(string(body))
}

// parseSEMrushPhrase reads the first data row of the semicolon CSV answer.
func parseSEMrushPhrase(text string) (*Metrics, error) {
	if strings.HasPrefix(strings.TrimSpace(text), semrushErrorMarker) {
		return nil, fmt.Errorf("%w: %s", coreerrors.ErrProviderRejected, truncate(strings.TrimSpace(text)))
	}

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[1]) == "" {
		return nil, nil //nolint:nilnil // no data row means the phrase is unknown
	}

	values := strings.Split(lines[1], semrushFieldSep)
	if len(values) <= semrushColCompetition {
		return nil, nil //nolint:nilnil // truncated row carries no metrics
	}

	m := &Metrics{
		Keyword:     strings.TrimSpace(values[semrushColKeyword]),
		Volume:      intPtr(atoi(values[semrushColVolume])),
		CPC:         nonZeroFloat(atof(values[semrushColCPC])),
		Competition: nonZeroFloat(atof(values[semrushColCompetition])),
	}

	if len(values) > semrushColDifficulty {
		m.Difficulty = nonZeroInt(int(atof(values[semrushColDifficulty])))
	}

	return m, nil
}

// Validate asks for a domain report; invalid keys answer with an ERROR line.
func (p *SEMrush) Validate(ctx context.Context) error {
	params := url.Values{}
	params.Set("type", "domain_ranks")
	params.Set("key", p.apiKey)
	params.Set("export_columns", "Db")
	params.Set("domain", "example.com")

	body, err := p.get(ctx, params)
	if err != nil {
		return fmt.Errorf("%w: %w", coreerrors.ErrInvalidCredentials, err)
	}

	if strings.Contains(string(body), semrushErrorMarker) {
		return fmt.Errorf("%w: %s", coreerrors.ErrInvalidCredentials, truncate(string(body)))
	}

	return nil
}

func (p *SEMrush) get(ctx context.Context, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf(errFmtCreateRequest, err)
	}

	return do(p.httpClient, req)
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}

	return n
}

func atof(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}

	return f
}

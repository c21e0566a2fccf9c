// Package validation checks drafted content items against the project
// knowledge base. Verdicts are advisory: a failing collaborator downgrades
// an item to LOW confidence instead of failing the version.
package validation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	"github.com/lueurxax/editorial-planner/internal/core/llm"
	"github.com/lueurxax/editorial-planner/internal/core/ports"
	"github.com/lueurxax/editorial-planner/internal/platform/config"
	"github.com/lueurxax/editorial-planner/internal/platform/observability"
	"github.com/lueurxax/editorial-planner/internal/platform/worker"
)

// Service checks content items against the project knowledge base and
// stores a confidence level with warnings on each item.
type Service struct {
	projects ports.ProjectStore
	store    ports.StrategyStore
	client   llm.Client
	cfg      config.ValidationConfig
	logger   *zerolog.Logger

	now  func() time.Time
	wait func(ctx context.Context, d time.Duration) error
}

// NewService builds a Service, filling zero batch settings with defaults.
func NewService(projects ports.ProjectStore, store ports.StrategyStore, client llm.Client, cfg config.ValidationConfig, logger *zerolog.Logger) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}

	if cfg.BatchDelay <= 0 {
		cfg.BatchDelay = defaultBatchDelay
	}

	if cfg.KBSnapshotLen <= 0 {
		cfg.KBSnapshotLen = defaultKBSnapshotLen
	}

	return &Service{
		projects: projects,
		store:    store,
		client:   client,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		wait:     worker.Wait,
	}
}

// ValidateVersion validates every item of the version in batches and stores
// the verdicts. Items of one batch are checked concurrently; batches run one
// after another with a pause in between. It returns the number of items
// validated.
func (s *Service) ValidateVersion(ctx context.Context, versionID string) (int, error) {
	v, err := s.store.GetVersion(ctx, versionID)
	if err != nil {
		return 0, err
	}

	session, err := s.store.GetSession(ctx, v.SessionID)
	if err != nil {
		return 0, err
	}

	project, err := s.projects.GetProject(ctx, session.ProjectID)
	if err != nil {
		return 0, err
	}

	kb := project.KnowledgeBase
	snapshot := snapshotOf(kb, s.cfg.KBSnapshotLen)
	batches := (len(v.Items) + s.cfg.BatchSize - 1) / s.cfg.BatchSize
	validated := 0

	for start := 0; start < len(v.Items); start += s.cfg.BatchSize {
		batch := v.Items[start:min(start+s.cfg.BatchSize, len(v.Items))]

		s.logger.Debug().Str(logKeyVersionID, v.ID).
			Str(logKeyBatch, fmt.Sprintf("%d/%d", start/s.cfg.BatchSize+1, batches)).
			Msg("validating batch")

		results := make([]domain.ValidationResult, len(batch))

		var g errgroup.Group

		for i, item := range batch {
			g.Go(func() error {
				results[i] = s.validateItem(ctx, item, kb, snapshot)
				return nil
			})
		}

		_ = g.Wait()

		for _, result := range results {
			if err := s.store.SaveValidation(ctx, result); err != nil {
				return validated, fmt.Errorf("save validation of %s: %w", result.ItemID, err)
			}

			observability.ValidationOutcomes.WithLabelValues(string(result.Confidence)).Inc()
			validated++
		}

		if start+s.cfg.BatchSize < len(v.Items) {
			if err := s.wait(ctx, s.cfg.BatchDelay); err != nil {
				return validated, err
			}
		}
	}

	s.logger.Info().Str(logKeyVersionID, v.ID).Int("items", validated).Msg("strategy version validated")

	return validated, nil
}

// verdict is the collaborator's answer. IsValid is a pointer so a missing
// field can default to valid.
type verdict struct {
	IsValid         *bool            `json:"isValid"`
	ConfidenceLevel string           `json:"confidenceLevel"`
	Warnings        []domain.Warning `json:"warnings"`
}

func (s *Service) validateItem(ctx context.Context, item domain.ContentItem, kb, snapshot string) domain.ValidationResult {
	result := domain.ValidationResult{
		ItemID:      item.ID,
		IsValid:     true,
		Confidence:  domain.ConfidenceMedium,
		Warnings:    []domain.Warning{},
		KBSnapshot:  snapshot,
		ValidatedAt: s.now().UTC(),
	}

	resp, err := s.client.Complete(ctx, llm.Request{
		Task:      llm.TaskValidate,
		Prompt:    buildPrompt(item, kb),
		MaxTokens: validateMaxTokens,
	})
	if err != nil {
		observability.ValidationServiceFailures.Inc()
		s.logger.Warn().Err(err).Str(logKeyItemID, item.ID).Msg("validation service failed")

		return downgraded(result, msgServiceUnavailable, err)
	}

	answer, err := llm.DecodeJSON[verdict](resp.Text, '{')
	if err != nil {
		observability.CollaboratorParseFailures.WithLabelValues(string(llm.TaskValidate)).Inc()
		s.logger.Warn().Err(err).Str(logKeyItemID, item.ID).Msg("validation response unparsable")

		return downgraded(result, msgParseFailed, err)
	}

	if answer.IsValid != nil {
		result.IsValid = *answer.IsValid
	}

	if c := parseConfidence(answer.ConfidenceLevel); c != "" {
		result.Confidence = c
	}

	for _, w := range answer.Warnings {
		w.Type = parseWarningType(w.Type)
		result.Warnings = append(result.Warnings, w)
	}

	return result
}

func downgraded(result domain.ValidationResult, message string, err error) domain.ValidationResult {
	result.IsValid = true
	result.Confidence = domain.ConfidenceLow
	result.Warnings = []domain.Warning{{Type: domain.WarningGeneric, Message: message, Detail: err.Error()}}

	return result
}

func parseConfidence(s string) domain.Confidence {
	switch c := domain.Confidence(strings.ToUpper(strings.TrimSpace(s))); c {
	case domain.ConfidenceHigh, domain.ConfidenceMedium, domain.ConfidenceLow:
		return c
	}

	return ""
}

func parseWarningType(t domain.WarningType) domain.WarningType {
	switch t {
	case domain.WarningClaimNotInKB, domain.WarningKeywordUnverified, domain.WarningServiceMismatch, domain.WarningGeneric:
		return t
	}

	return domain.WarningGeneric
}

// snapshotOf returns the first n runes of kb.
func snapshotOf(kb string, n int) string {
	runes := []rune(kb)
	if len(runes) <= n {
		return kb
	}

	return string(runes[:n])
}

package strategy

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	coreerrors "github.com/lueurxax/editorial-planner/internal/core/errors"
	"github.com/lueurxax/editorial-planner/internal/core/llm"
	"github.com/lueurxax/editorial-planner/internal/platform/config"
	"github.com/lueurxax/editorial-planner/internal/platform/observability"
	"github.com/lueurxax/editorial-planner/internal/platform/schedule"
)

// Generator drafts strategy versions from approved keyword research.
type Generator struct {
	client llm.Client
	cfg    config.StrategyConfig
	logger *zerolog.Logger

	now func() time.Time
}

// NewGenerator builds a Generator, filling zero settings with defaults.
func NewGenerator(client llm.Client, cfg config.StrategyConfig, logger *zerolog.Logger) *Generator {
	if cfg.PeriodDays <= 0 {
		cfg.PeriodDays = defaultPeriodDays
	}

	if cfg.MaxKeywords <= 0 {
		cfg.MaxKeywords = defaultMaxKeywords
	}

	if cfg.KnowledgeBaseMax <= 0 {
		cfg.KnowledgeBaseMax = defaultKnowledgeBaseMax
	}

	return &Generator{client: client, cfg: cfg, logger: logger, now: time.Now}
}

// Generate asks the collaborator for a strategy and returns it as an unsaved
// version of the given session. A failed call and an answer without pillars
// or posts are both AI_SERVICE_ERROR.
func (g *Generator) Generate(ctx context.Context, sessionID string, in Input) (*domain.StrategyVersion, error) {
	start, periodDays := g.startDate(in.Project), g.cfg.PeriodDays
	if in.Window != nil {
		start, periodDays = in.Window.Start, max(in.Window.Days(), 1)
	}

	resp, err := g.client.Complete(ctx, llm.Request{
		Task:      llm.TaskStrategy,
		Prompt:    buildPrompt(in, start.Format(dateLayout), periodDays, g.cfg.MaxKeywords, g.cfg.KnowledgeBaseMax),
		MaxTokens: strategyMaxTokens,
	})
	if err != nil {
		return nil, coreerrors.Wrap(coreerrors.CodeAIServiceError, "strategy generation failed", err)
	}

	d, err := parseDraft(resp.Text)
	if err != nil {
		observability.CollaboratorParseFailures.WithLabelValues(string(llm.TaskStrategy)).Inc()
		g.logger.Warn().Err(err).Str(logKeySessionID, sessionID).Int("response_len", len(resp.Text)).
			Msg("strategy response unparsable")

		return nil, coreerrors.Wrap(coreerrors.CodeAIServiceError, "failed to parse strategy response", err)
	}

	v, dropped := d.toVersion(sessionID, start, periodDays, researchIndex(in.Clusters))
	if len(v.Items) == 0 {
		return nil, coreerrors.Wrap(coreerrors.CodeAIServiceError, "failed to parse strategy response", errNoPosts)
	}

	if dropped > 0 {
		g.logger.Warn().Str(logKeySessionID, sessionID).Int(logKeyCount, dropped).Msg("strategy posts without title or keyword dropped")
	}

	g.logger.Info().
		Str(logKeySessionID, sessionID).
		Int("pillars", len(v.Pillars)).
		Int("posts", len(v.Items)).
		Str("provider", string(resp.Provider)).
		Str("changes", d.ChangesSummary).
		Msg("strategy drafted")

	return v, nil
}

// startDate is the project's first publish date when it is still ahead,
// otherwise today.
func (g *Generator) startDate(p *domain.Project) time.Time {
	today := schedule.DateOnly(g.now().UTC())

	if p.FirstPublishDate != nil {
		if first := schedule.DateOnly(p.FirstPublishDate.UTC()); first.After(today) {
			return first
		}
	}

	return today
}

func researchIndex(clusters []*domain.Cluster) map[string]*domain.Keyword {
	index := make(map[string]*domain.Keyword)

	for _, c := range clusters {
		for _, kw := range c.Keywords {
			index[domain.NormalizeKeyword(kw.Text)] = kw
		}
	}

	return index
}

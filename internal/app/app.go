// Package app provides the application bootstrap and runtime orchestration.
//
// The App type wires together all dependencies and exposes one method per
// operational mode:
//
//   - Worker mode: claims pending research runs and executes the pipeline
//   - API mode: HTTP JSON API for research, strategies and content items
//   - One-shot modes: run research, approve a run, generate, extend,
//     replace or approve a strategy, validate a version
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lueurxax/editorial-planner/internal/api"
	"github.com/lueurxax/editorial-planner/internal/core/llm"
	"github.com/lueurxax/editorial-planner/internal/core/ports"
	"github.com/lueurxax/editorial-planner/internal/platform/config"
	"github.com/lueurxax/editorial-planner/internal/platform/observability"
	"github.com/lueurxax/editorial-planner/internal/process/projects"
	"github.com/lueurxax/editorial-planner/internal/process/research"
	"github.com/lueurxax/editorial-planner/internal/process/research/premium"
	"github.com/lueurxax/editorial-planner/internal/process/research/sources"
	"github.com/lueurxax/editorial-planner/internal/process/strategy"
	"github.com/lueurxax/editorial-planner/internal/process/validation"
	db "github.com/lueurxax/editorial-planner/internal/storage"
)

const (
	logKeyProjectID = "project_id"
	logKeyRunID     = "run_id"
	logKeySessionID = "session_id"
	logKeyVersionID = "version_id"
)

var (
	errMissingFlag  = errors.New("missing required flag")
	errMissingToken = errors.New("API_TOKEN must be set in api mode")
)

var (
	_ ports.ProjectStore  = (*db.DB)(nil)
	_ ports.ResearchStore = (*db.DB)(nil)
	_ ports.StrategyStore = (*db.DB)(nil)
)

// App holds the application dependencies and provides methods to run different modes.
type App struct {
	cfg      *config.Config
	database *db.DB
	logger   *zerolog.Logger
}

// Options carries the one-shot mode flags.
type Options struct {
	ProjectID string
	RunID     string
	SessionID string
	VersionID string
	Request   string
	Days      int
}

// New creates a new App instance with the given dependencies.
func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) *App {
	return &App{
		cfg:      cfg,
		database: database,
		logger:   logger,
	}
}

// StartHealthServer starts the health check and metrics server.
func (a *App) StartHealthServer(ctx context.Context) error {
	srv := observability.NewServer(a.database, a.cfg.HealthPort, a.logger)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("health server start: %w", err)
	}

	return nil
}

// services holds the wired domain services.
type services struct {
	projects  *projects.Service
	research  *research.Service
	strategy  *strategy.Manager
	validator *validation.Service
}

func (a *App) buildServices(ctx context.Context) (*services, error) {
	client := llm.New(ctx, a.cfg.LLMCfg(), a.logger)

	pipeline, err := a.buildPipeline(client)
	if err != nil {
		return nil, err
	}

	validator := validation.NewService(a.database, a.database, client, a.cfg.ValidationCfg(), a.logger)
	generator := strategy.NewGenerator(client, a.cfg.StrategyCfg(), a.logger)

	return &services{
		projects:  projects.NewService(a.database, a.logger),
		research:  research.NewService(a.database, a.database, pipeline, a.cfg.ResearchCfg(), a.logger),
		strategy:  strategy.NewManager(a.database, a.database, a.database, generator, validator, a.logger),
		validator: validator,
	}, nil
}

func (a *App) buildPipeline(client llm.Client) (*research.Pipeline, error) {
	srcCfg := a.cfg.SourcesCfg()
	researchCfg := a.cfg.ResearchCfg()

	free := []sources.Source{
		sources.NewSuggestSource(srcCfg, a.logger),
		sources.NewSERPSource(srcCfg, a.logger),
		sources.NewRedditSource(srcCfg, a.logger),
		sources.NewCompetitorSource(srcCfg, a.logger),
	}

	if srcCfg.TrendsFeedEnabled {
		free = append(free, sources.NewTrendsSource(srcCfg, a.logger))
	}

	deps := research.PipelineDeps{
		Collector:  sources.NewCollector(srcCfg.Timeout, a.logger, free...),
		Analyzer:   sources.NewOwnContentAnalyzer(srcCfg, a.logger),
		Classifier: research.NewClassifier(client, researchCfg.ClassifyBatchSize, a.logger),
		Clusterer:  research.NewClusterer(client, a.logger),
		Selector:   research.NewSelector(client, researchCfg.SelectionTargetMax, a.logger),
	}

	premiumCfg := a.cfg.PremiumCfg()

	provider, err := premium.NewProvider(premiumCfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("premium provider: %w", err)
	}

	if provider != nil {
		deps.Enricher = premium.NewEnricher(provider, premiumCfg, a.logger)

		a.logger.Info().Str("provider", provider.Name()).Msg("premium enrichment enabled")
	}

	return research.NewPipeline(deps, a.logger), nil
}

// RunWorker processes queued research runs until ctx is cancelled.
func (a *App) RunWorker(ctx context.Context) error {
	svc, err := a.buildServices(ctx)
	if err != nil {
		return err
	}

	a.logger.Info().Msg("research worker starting")

	return svc.research.RunWorker(ctx)
}

// RunAPI serves the HTTP API until ctx is cancelled.
func (a *App) RunAPI(ctx context.Context) error {
	apiCfg := a.cfg.APICfg()
	if apiCfg.Token == "" {
		return errMissingToken
	}

	svc, err := a.buildServices(ctx)
	if err != nil {
		return err
	}

	srv := api.NewServer(svc.projects, svc.research, svc.strategy, svc.validator, apiCfg.Token, apiCfg.Port, a.logger)

	return srv.Start(ctx)
}

// RunResearch queues a run for the project and executes it in-process.
func (a *App) RunResearch(ctx context.Context, opts Options) error {
	if err := require("project", opts.ProjectID); err != nil {
		return err
	}

	svc, err := a.buildServices(ctx)
	if err != nil {
		return err
	}

	run, err := svc.research.Start(ctx, opts.ProjectID)
	if err != nil {
		return err
	}

	run, err = svc.research.RunNow(ctx, run.ID)
	if err != nil {
		return err
	}

	a.logger.Info().
		Str(logKeyProjectID, opts.ProjectID).
		Str(logKeyRunID, run.ID).
		Str("status", string(run.Status)).
		Int("keywords", run.TotalKeywords).
		Int("clusters", run.TotalClusters).
		Int("selected", run.SelectedKeywords).
		Bool("fallback_selection", run.FallbackSelection).
		Msg("research finished")

	return nil
}

// ApproveRun approves a completed research run.
func (a *App) ApproveRun(ctx context.Context, opts Options) error {
	if err := require("run", opts.RunID); err != nil {
		return err
	}

	svc, err := a.buildServices(ctx)
	if err != nil {
		return err
	}

	run, err := svc.research.Approve(ctx, opts.RunID)
	if err != nil {
		return err
	}

	a.logger.Info().Str(logKeyRunID, run.ID).Int("selected", run.SelectedKeywords).Msg("research run approved")

	return nil
}

// Generate drafts a strategy version for a session, or for the project's
// open session.
func (a *App) Generate(ctx context.Context, opts Options) error {
	if opts.ProjectID == "" && opts.SessionID == "" {
		return fmt.Errorf("%w: -project or -session", errMissingFlag)
	}

	svc, err := a.buildServices(ctx)
	if err != nil {
		return err
	}

	v, err := svc.strategy.Generate(ctx, strategy.GenerateRequest{
		ProjectID: opts.ProjectID,
		SessionID: opts.SessionID,
		Request:   opts.Request,
	})
	if err != nil {
		return err
	}

	a.logger.Info().
		Str(logKeySessionID, v.SessionID).
		Str(logKeyVersionID, v.ID).
		Int("version", v.VersionNumber).
		Bool("active", v.IsActive).
		Int("posts", len(v.Items)).
		Msg("strategy generated")

	return nil
}

// Extend drafts a longer calendar from a version. The result is a draft
// that Replace activates.
func (a *App) Extend(ctx context.Context, opts Options) error {
	if err := require("version", opts.VersionID); err != nil {
		return err
	}

	svc, err := a.buildServices(ctx)
	if err != nil {
		return err
	}

	v, err := svc.strategy.Extend(ctx, opts.VersionID, opts.Days)
	if err != nil {
		return err
	}

	a.logger.Info().
		Str(logKeySessionID, v.SessionID).
		Str(logKeyVersionID, v.ID).
		Int("version", v.VersionNumber).
		Int("posts", len(v.Items)).
		Msg("strategy extended")

	return nil
}

// Replace activates a version of the session.
func (a *App) Replace(ctx context.Context, opts Options) error {
	if err := require("session", opts.SessionID); err != nil {
		return err
	}

	if err := require("version", opts.VersionID); err != nil {
		return err
	}

	svc, err := a.buildServices(ctx)
	if err != nil {
		return err
	}

	result, err := svc.strategy.Replace(ctx, opts.SessionID, opts.VersionID)
	if err != nil {
		return err
	}

	a.logger.Info().
		Str(logKeySessionID, opts.SessionID).
		Str("replaced", result.ReplacedVersionID).
		Str(logKeyVersionID, result.ActiveVersionID).
		Int("rejected", result.RejectedItems).
		Msg("strategy replaced")

	return nil
}

// ApproveStrategy approves the session's active version.
func (a *App) ApproveStrategy(ctx context.Context, opts Options) error {
	if err := require("session", opts.SessionID); err != nil {
		return err
	}

	svc, err := a.buildServices(ctx)
	if err != nil {
		return err
	}

	n, err := svc.strategy.Approve(ctx, opts.SessionID)
	if err != nil {
		return err
	}

	a.logger.Info().Str(logKeySessionID, opts.SessionID).Int("approved", n).Msg("strategy approved")

	return nil
}

// Validate re-validates every item of a version.
func (a *App) Validate(ctx context.Context, opts Options) error {
	if err := require("version", opts.VersionID); err != nil {
		return err
	}

	svc, err := a.buildServices(ctx)
	if err != nil {
		return err
	}

	n, err := svc.validator.ValidateVersion(ctx, opts.VersionID)
	if err != nil {
		return err
	}

	a.logger.Info().Str(logKeyVersionID, opts.VersionID).Int("items", n).Msg("strategy validated")

	return nil
}

func require(flag, value string) error {
	if value == "" {
		return fmt.Errorf("%w: -%s", errMissingFlag, flag)
	}

	return nil
}

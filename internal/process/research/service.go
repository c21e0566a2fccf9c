package research

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	coreerrors "github.com/lueurxax/editorial-planner/internal/core/errors"
	"github.com/lueurxax/editorial-planner/internal/core/ports"
	"github.com/lueurxax/editorial-planner/internal/platform/config"
	"github.com/lueurxax/editorial-planner/internal/platform/observability"
	"github.com/lueurxax/editorial-planner/internal/platform/worker"
)

// Runner executes the research pipeline for one run.
type Runner interface {
	Run(ctx context.Context, project *domain.Project, runID string) (*Outcome, error)
}

// Service owns the research run lifecycle and operator selection edits.
type Service struct {
	projects ports.ProjectStore
	store    ports.ResearchStore
	runner   Runner
	cfg      config.ResearchConfig
	logger   *zerolog.Logger

	now func() time.Time
}

// NewService builds a Service. A zero MinApprovalKeywords falls back to
// the domain default.
func NewService(projects ports.ProjectStore, store ports.ResearchStore, runner Runner, cfg config.ResearchConfig, logger *zerolog.Logger) *Service {
	if cfg.MinApprovalKeywords <= 0 {
		cfg.MinApprovalKeywords = domain.MinApprovalKeywords
	}

	return &Service{
		projects: projects,
		store:    store,
		runner:   runner,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// View is a research run with its clusters and their keywords.
type View struct {
	Run      *domain.ResearchRun
	Clusters []*domain.Cluster
}

// Start queues a research run for the project. Archived projects are
// refused, as is a project whose previous run is still pending or running.
func (s *Service) Start(ctx context.Context, projectID string) (*domain.ResearchRun, error) {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if project.Archived {
		return nil, coreerrors.New(coreerrors.CodeProjectArchived, "project is archived")
	}

	if _, err := s.ReapStale(ctx); err != nil {
		return nil, err
	}

	run := &domain.ResearchRun{ProjectID: project.ID}
	if err := s.store.CreateRun(ctx, run); err != nil {
		return nil, err
	}

	s.logger.Info().Str(logKeyRunID, run.ID).Str(logKeyProjectID, project.ID).Msg("research run queued")

	return run, nil
}

// ReapStale fails the runs left IN_PROGRESS for longer than the configured
// stale age and returns how many it failed.
func (s *Service) ReapStale(ctx context.Context) (int, error) {
	if s.cfg.StaleAfter <= 0 {
		return 0, nil
	}

	cutoff := s.now().Add(-s.cfg.StaleAfter)

	n, err := s.store.FailStaleRuns(ctx, cutoff, fmt.Sprintf("abandoned after %s in progress", s.cfg.StaleAfter))
	if err != nil {
		return 0, fmt.Errorf("reap stale runs: %w", err)
	}

	if n > 0 {
		observability.ResearchRuns.WithLabelValues(statusFailed).Add(float64(n))
		s.logger.Warn().Int(logKeyCount, n).Time("cutoff", cutoff).Msg("failed abandoned research runs")
	}

	return n, nil
}

// ProcessNext reaps abandoned runs, then claims the oldest pending run and
// executes it. It reports false when nothing is waiting.
func (s *Service) ProcessNext(ctx context.Context) (bool, error) {
	if _, err := s.ReapStale(ctx); err != nil {
		return false, err
	}

	run, err := s.store.ClaimPendingRun(ctx)
	if err != nil {
		return false, fmt.Errorf("claim pending run: %w", err)
	}

	if run == nil {
		return false, nil
	}

	return true, s.Execute(ctx, run)
}

// RunNow starts the given pending run and executes it synchronously.
func (s *Service) RunNow(ctx context.Context, runID string) (*domain.ResearchRun, error) {
	run, err := s.store.StartRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	if err := s.Execute(ctx, run); err != nil {
		return nil, err
	}

	return s.store.GetRun(ctx, runID)
}

// RunWorker polls for pending runs until ctx is canceled.
func (s *Service) RunWorker(ctx context.Context) error {
	return worker.Loop(ctx, worker.Config{
		Name:         "research",
		PollInterval: s.cfg.PollInterval,
		Claim:        s.ProcessNext,
		Logger:       s.logger,
	})
}

// Execute runs the pipeline for an IN_PROGRESS run and persists the result.
// Any failure marks the run FAILED, which restores the project's previous
// status; the returned error is coded RESEARCH_FAILED.
func (s *Service) Execute(ctx context.Context, run *domain.ResearchRun) (err error) {
	logger := s.logger.With().Str(logKeyRunID, run.ID).Str(logKeyProjectID, run.ProjectID).Logger()
	started := s.now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("research run panicked: %v", r)
		}

		observability.ResearchRunDuration.Observe(s.now().Sub(started).Seconds())

		if err == nil {
			observability.ResearchRuns.WithLabelValues(statusCompleted).Inc()
			return
		}

		observability.ResearchRuns.WithLabelValues(statusFailed).Inc()
		logger.Error().Err(err).Msg("research run failed")

		// The run context may already be done; the failure must still be recorded.
		if failErr := s.store.FailRun(context.WithoutCancel(ctx), run.ID, err.Error()); failErr != nil {
			logger.Error().Err(failErr).Msg("failed to mark research run as failed")
		}

		err = coreerrors.Wrap(coreerrors.CodeResearchFailed, "keyword research failed", err)
	}()

	logger.Info().Msg("research run started")

	return worker.RunWithTimeout(ctx, s.cfg.RunTimeout, func(ctx context.Context) error {
		return s.execute(ctx, run, &logger)
	})
}

func (s *Service) execute(ctx context.Context, run *domain.ResearchRun, logger *zerolog.Logger) error {
	project, err := s.projects.GetProject(ctx, run.ProjectID)
	if err != nil {
		return err
	}

	outcome, err := s.runner.Run(ctx, project, run.ID)
	if err != nil {
		return err
	}

	if err := s.persist(ctx, outcome); err != nil {
		return err
	}

	counts := domain.CountSelections(outcome.Keywords)
	run.TotalKeywords = len(outcome.Keywords)
	run.TotalClusters = len(outcome.Clusters)
	run.AutomaticSelected = counts.Automatic
	run.OperatorSelected = counts.Operator
	run.SelectedKeywords = counts.Selected
	run.UsedPremium = outcome.UsedPremium
	run.PremiumProvider = outcome.PremiumProvider
	run.FallbackSelection = outcome.FallbackSelection

	if err := s.store.CompleteRun(ctx, run); err != nil {
		return fmt.Errorf("complete run: %w", err)
	}

	observability.ResearchKeywords.Observe(float64(run.TotalKeywords))
	logger.Info().
		Int("keywords", run.TotalKeywords).
		Int("clusters", run.TotalClusters).
		Int("selected", run.SelectedKeywords).
		Bool("fallback_selection", run.FallbackSelection).
		Bool("premium", run.UsedPremium).
		Msg("research run completed")

	return nil
}

// persist stores clusters first so keywords can reference them.
func (s *Service) persist(ctx context.Context, outcome *Outcome) error {
	if err := s.store.SaveClusters(ctx, outcome.Clusters); err != nil {
		return fmt.Errorf("save clusters: %w", err)
	}

	for _, c := range outcome.Clusters {
		for _, kw := range c.Keywords {
			kw.ClusterID = c.ID
		}
	}

	if err := s.store.SaveKeywords(ctx, outcome.Keywords); err != nil {
		return fmt.Errorf("save keywords: %w", err)
	}

	return nil
}

// Get returns the run with its clusters.
func (s *Service) Get(ctx context.Context, runID string) (*View, error) {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	clusters, err := s.store.ListClusters(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("list clusters: %w", err)
	}

	return &View{Run: run, Clusters: clusters}, nil
}

// Approve marks a completed run approved. It needs at least the configured
// number of selected keywords, counting a keyword once whoever selected it.
func (s *Service) Approve(ctx context.Context, runID string) (*domain.ResearchRun, error) {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	if run.Status != domain.RunCompleted {
		return nil, coreerrors.Newf(coreerrors.CodeValidationFailed, "research run is %s, not COMPLETED", run.Status)
	}

	keywords, err := s.store.ListKeywords(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("list keywords: %w", err)
	}

	selected := domain.CountSelections(keywords).Selected
	if selected < s.cfg.MinApprovalKeywords {
		return nil, coreerrors.Newf(coreerrors.CodeValidationFailed,
			"not enough keywords selected: need at least %d, got %d", s.cfg.MinApprovalKeywords, selected)
	}

	if err := s.store.ApproveRun(ctx, runID, s.now().UTC()); err != nil {
		return nil, err
	}

	s.logger.Info().Str(logKeyRunID, runID).Int("selected", selected).Msg("research run approved")

	return s.store.GetRun(ctx, runID)
}

// UpdateKeywordSelection selects or deselects a keyword on behalf of
// origin and refreshes the run's counters. An operator deselecting an
// automatic pick they never confirmed removes it from the selection.
func (s *Service) UpdateKeywordSelection(ctx context.Context, keywordID string, selected bool, origin domain.SelectionOrigin) (*domain.Keyword, error) {
	if !origin.Valid() {
		return nil, coreerrors.Newf(coreerrors.CodeInvalidInput, "unknown selection type %q", origin)
	}

	kw, err := s.store.GetKeyword(ctx, keywordID)
	if err != nil {
		return nil, err
	}

	kw.Selection = kw.Selection.Apply(origin, selected)

	if err := s.store.UpdateKeywordSelections(ctx, map[string]domain.Selection{kw.ID: kw.Selection}); err != nil {
		return nil, err
	}

	if err := s.recount(ctx, kw.RunID); err != nil {
		return nil, err
	}

	s.logger.Debug().Str(logKeyKeywordID, kw.ID).Str("selection", string(kw.Selection)).Msg("keyword selection updated")

	return kw, nil
}

// UpdateClusterSelection applies an operator decision to a cluster and
// every keyword in it.
func (s *Service) UpdateClusterSelection(ctx context.Context, clusterID string, selected bool) (*domain.Cluster, error) {
	cluster, err := s.store.GetCluster(ctx, clusterID)
	if err != nil {
		return nil, err
	}

	cluster.Selection = cluster.Selection.WithOperator(selected)
	if err := s.store.UpdateClusterSelection(ctx, cluster.ID, cluster.Selection); err != nil {
		return nil, err
	}

	updates := make(map[string]domain.Selection, len(cluster.Keywords))

	for _, kw := range cluster.Keywords {
		kw.Selection = kw.Selection.WithOperator(selected)
		updates[kw.ID] = kw.Selection
	}

	if len(updates) > 0 {
		if err := s.store.UpdateKeywordSelections(ctx, updates); err != nil {
			return nil, err
		}
	}

	if err := s.recount(ctx, cluster.RunID); err != nil {
		return nil, err
	}

	s.logger.Debug().Str(logKeyClusterID, cluster.ID).Int(logKeyCount, len(updates)).Msg("cluster selection updated")

	return cluster, nil
}

// Consolidate turns every BOTH selection of the run into OPERATOR and
// returns how many keywords changed.
func (s *Service) Consolidate(ctx context.Context, runID string) (int, error) {
	if _, err := s.store.GetRun(ctx, runID); err != nil {
		return 0, err
	}

	keywords, err := s.store.ListKeywords(ctx, runID)
	if err != nil {
		return 0, fmt.Errorf("list keywords: %w", err)
	}

	updates := make(map[string]domain.Selection)

	for _, kw := range keywords {
		if next := kw.Selection.Consolidate(); next != kw.Selection {
			updates[kw.ID] = next
		}
	}

	if len(updates) > 0 {
		if err := s.store.UpdateKeywordSelections(ctx, updates); err != nil {
			return 0, err
		}
	}

	if err := s.recount(ctx, runID); err != nil {
		return 0, err
	}

	return len(updates), nil
}

func (s *Service) recount(ctx context.Context, runID string) error {
	keywords, err := s.store.ListKeywords(ctx, runID)
	if err != nil {
		return fmt.Errorf("list keywords: %w", err)
	}

	if err := s.store.UpdateRunCounts(ctx, runID, domain.CountSelections(keywords)); err != nil {
		return fmt.Errorf("update run counts: %w", err)
	}

	return nil
}

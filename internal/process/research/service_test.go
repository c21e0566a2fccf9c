package research

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	coreerrors "github.com/lueurxax/editorial-planner/internal/core/errors"
	"github.com/lueurxax/editorial-planner/internal/core/llm"
	"github.com/lueurxax/editorial-planner/internal/core/ports/mocks"
	"github.com/lueurxax/editorial-planner/internal/platform/config"
	"github.com/lueurxax/editorial-planner/internal/process/research/premium"
	"github.com/lueurxax/editorial-planner/internal/process/research/sources"
)

// fixedRunner returns n keywords in one cluster, the first selected ones
// marked AUTOMATIC.
type fixedRunner struct {
	total    int
	selected int
}

func (r fixedRunner) Run(_ context.Context, _ *domain.Project, runID string) (*Outcome, error) {
	keywords := make([]*domain.Keyword, r.total)
	for i := range keywords {
		sel := domain.SelectionNone
		if i < r.selected {
			sel = domain.SelectionAutomatic
		}

		keywords[i] = &domain.Keyword{
			RunID:          runID,
			Text:           fmt.Sprintf("keyword %d", i),
			FreeDifficulty: domain.DifficultyMedium,
			FreeVolume:     domain.VolumeRange0To100,
			Selection:      sel,
		}
	}

	cluster := &domain.Cluster{RunID: runID, Name: "All", Keywords: keywords, Selection: domain.SelectionAutomatic}

	return &Outcome{Keywords: keywords, Clusters: []*domain.Cluster{cluster}}, nil
}

func newTestService(t *testing.T, runner Runner) (*Service, *mocks.Store, *domain.Project) {
	t.Helper()

	store := mocks.NewStore()
	project := &domain.Project{
		Name:         "Backup Co",
		Language:     "en",
		KeywordSeeds: []string{"cloud backup"},
	}
	require.NoError(t, store.CreateProject(context.Background(), project))

	return NewService(store, store, runner, config.ResearchConfig{}, nopLogger()), store, project
}

func runResearch(t *testing.T, svc *Service, projectID string) *domain.ResearchRun {
	t.Helper()

	run, err := svc.Start(context.Background(), projectID)
	require.NoError(t, err)

	done, err := svc.RunNow(context.Background(), run.ID)
	require.NoError(t, err)

	return done
}

func TestService_FreeTierRunWithFallbackSelection(t *testing.T) {
	client := newStubLLM()
	client.answers[llm.TaskClassify] = "[]"
	client.answers[llm.TaskCluster] = "[]"
	client.answers[llm.TaskSelect] = "[]"

	collector := &stubCollector{results: []sources.Result{
		{Source: sources.SourceSuggest, Candidates: suggestCandidates("cloud backup pricing", "cloud backup for business")},
		{Source: sources.SourceReddit, Err: errors.New("reddit unavailable")},
	}}
	enricher := &stubEnricher{err: errors.New("all premium batches failed")}

	svc, store, project := newTestService(t, newTestPipeline(client, collector, enricher, nil))

	run := runResearch(t, svc, project.ID)
	assert.Equal(t, domain.RunCompleted, run.Status)
	assert.Equal(t, 3, run.TotalKeywords)
	assert.Equal(t, 1, run.TotalClusters)
	assert.True(t, run.FallbackSelection)
	assert.False(t, run.UsedPremium)
	assert.Equal(t, 2, run.SelectedKeywords)
	assert.Equal(t, 2, run.AutomaticSelected)
	assert.Equal(t, domain.ProjectResearchReady, store.ProjectStatus(project.ID))

	keywords, err := store.ListKeywords(context.Background(), run.ID)
	require.NoError(t, err)
	require.Len(t, keywords, 3)

	for _, kw := range keywords {
		assert.False(t, kw.HasPremiumData(), kw.Text)
		assert.NotEmpty(t, kw.FreeDifficulty, kw.Text)
		assert.NotEmpty(t, kw.FreeVolume, kw.Text)
		assert.NotEmpty(t, kw.ClusterID, kw.Text)
		assert.Equal(t, domain.IntentInformational, kw.Intent, kw.Text)
	}

	assert.NotNil(t, findKeyword(keywords, "cloud backup for business"))

	clusters, err := store.ListClusters(context.Background(), run.ID)
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, OtherTopicsCluster, clusters[0].Name)
	assert.Len(t, clusters[0].Keywords, 3)
}

func TestService_CollaboratorAnswersAreApplied(t *testing.T) {
	client := newStubLLM()
	client.answers[llm.TaskClassify] = `[{"keyword": "cloud backup", "searchIntent": "TRANSACTIONAL", "funnelStage": "BoF", "isInExistingContent": false}]`
	client.answers[llm.TaskCluster] = `[{"name": "Backup", "rationale": "core", "keywords": ["cloud backup", "cloud backup pricing", "cloud backup for business"]}]`
	client.answers[llm.TaskSelect] = `[{"clusterName": "Backup", "isSelected": true, "rationale": "core", "selectedKeywords": ["cloud backup pricing"]}]`

	collector := &stubCollector{results: []sources.Result{
		{Source: sources.SourceSuggest, Candidates: suggestCandidates("cloud backup pricing", "cloud backup for business")},
	}}

	svc, store, project := newTestService(t, newTestPipeline(client, collector, nil, nil))

	run := runResearch(t, svc, project.ID)
	assert.False(t, run.FallbackSelection)
	assert.Equal(t, 1, run.AutomaticSelected)
	assert.Equal(t, 1, client.calls(llm.TaskCluster))

	keywords, err := store.ListKeywords(context.Background(), run.ID)
	require.NoError(t, err)

	seed := findKeyword(keywords, "cloud backup")
	require.NotNil(t, seed)
	assert.Equal(t, domain.IntentTransactional, seed.Intent)
	assert.Equal(t, domain.FunnelBoF, seed.Funnel)

	for _, text := range []string{"cloud backup pricing", "cloud backup for business"} {
		kw := findKeyword(keywords, text)
		require.NotNil(t, kw, text)
		assert.Equal(t, domain.IntentInformational, kw.Intent, text)
		assert.Equal(t, domain.FunnelToF, kw.Funnel, text)
	}

	assert.Equal(t, domain.SelectionAutomatic, findKeyword(keywords, "cloud backup pricing").Selection)

	clusters, err := store.ListClusters(context.Background(), run.ID)
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, "Backup", clusters[0].Name)
	assert.Equal(t, domain.SelectionAutomatic, clusters[0].Selection)
}

func TestService_PremiumMetricsApplied(t *testing.T) {
	client := newStubLLM()
	enricher := &stubEnricher{metrics: map[string]premium.Metrics{
		"cloud backup": {Keyword: "cloud backup", Volume: intPtr(2400), Difficulty: intPtr(48)},
	}}

	svc, store, project := newTestService(t, newTestPipeline(client, &stubCollector{}, enricher, nil))

	run := runResearch(t, svc, project.ID)
	assert.True(t, run.UsedPremium)
	assert.Equal(t, "stubseo", run.PremiumProvider)

	keywords, err := store.ListKeywords(context.Background(), run.ID)
	require.NoError(t, err)
	require.Len(t, keywords, 1)
	assert.Equal(t, 2400, keywords[0].Volume())
	assert.Equal(t, 48, keywords[0].DifficultyScore())
}

func TestService_StartRefusesArchivedProject(t *testing.T) {
	store := mocks.NewStore()
	project := &domain.Project{Name: "Old", Archived: true}
	require.NoError(t, store.CreateProject(context.Background(), project))

	svc := NewService(store, store, fixedRunner{}, config.ResearchConfig{}, nopLogger())

	_, err := svc.Start(context.Background(), project.ID)
	require.Error(t, err)
	assert.Equal(t, coreerrors.CodeProjectArchived, coreerrors.CodeOf(err))
	assert.Equal(t, domain.ProjectDraft, store.ProjectStatus(project.ID))
}

func TestService_StartRefusesSecondActiveRun(t *testing.T) {
	svc, _, project := newTestService(t, fixedRunner{})

	_, err := svc.Start(context.Background(), project.ID)
	require.NoError(t, err)

	_, err = svc.Start(context.Background(), project.ID)
	require.Error(t, err)
	assert.Equal(t, coreerrors.CodeResearchFailed, coreerrors.CodeOf(err))
}

func TestService_StartSupersedesPreviousRuns(t *testing.T) {
	ctx := context.Background()
	svc, store, project := newTestService(t, fixedRunner{total: 40, selected: domain.MinApprovalKeywords})

	approved := runResearch(t, svc, project.ID)
	_, err := svc.Approve(ctx, approved.ID)
	require.NoError(t, err)

	completed := runResearch(t, svc, project.ID)

	keywords, err := store.ListKeywords(ctx, completed.ID)
	require.NoError(t, err)
	require.Len(t, keywords, 40)

	next, err := svc.Start(ctx, project.ID)
	require.NoError(t, err)

	_, err = svc.Get(ctx, completed.ID)
	assert.Equal(t, coreerrors.CodeResearchNotFound, coreerrors.CodeOf(err))

	_, err = store.GetKeyword(ctx, keywords[0].ID)
	assert.Equal(t, coreerrors.CodeKeywordNotFound, coreerrors.CodeOf(err))

	view, err := svc.Get(ctx, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunApproved, view.Run.Status)
	assert.Len(t, view.Clusters, 1)

	assert.Equal(t, 2, store.RunCount(project.ID))
	assert.Equal(t, domain.RunPending, next.Status)
}

func TestService_ReapStale(t *testing.T) {
	ctx := context.Background()
	svc, store, project := newTestService(t, fixedRunner{total: 3})
	svc.cfg.StaleAfter = time.Hour

	abandoned, err := svc.Start(ctx, project.ID)
	require.NoError(t, err)

	_, err = store.StartRun(ctx, abandoned.ID)
	require.NoError(t, err)

	n, err := svc.ReapStale(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = svc.Start(ctx, project.ID)
	assert.True(t, coreerrors.HasCode(err, coreerrors.CodeResearchFailed))

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	run, err := svc.Start(ctx, project.ID)
	require.NoError(t, err)

	_, err = store.GetRun(ctx, abandoned.ID)
	assert.Equal(t, coreerrors.CodeResearchNotFound, coreerrors.CodeOf(err), "failed run is superseded by the new one")

	found, err := svc.ProcessNext(ctx)
	require.NoError(t, err)
	assert.True(t, found)

	done, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, done.Status)
}

func TestService_ProcessNextReapsAbandonedRun(t *testing.T) {
	ctx := context.Background()
	svc, store, project := newTestService(t, fixedRunner{})
	svc.cfg.StaleAfter = time.Minute
	require.NoError(t, store.UpdateProjectStatus(ctx, project.ID, domain.ProjectResearchReady))

	run, err := svc.Start(ctx, project.ID)
	require.NoError(t, err)

	_, err = store.StartRun(ctx, run.ID)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(time.Hour) }

	found, err := svc.ProcessNext(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	stored, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, stored.Status)
	assert.Contains(t, stored.ErrorMessage, "abandoned")
	assert.Equal(t, domain.ProjectResearchReady, store.ProjectStatus(project.ID))
}

func TestService_FailureRestoresProjectStatus(t *testing.T) {
	client := newStubLLM()
	client.errs[llm.TaskClassify] = coreerrors.ErrCircuitBreakerOpen

	svc, store, project := newTestService(t, newTestPipeline(client, &stubCollector{}, nil, nil))
	require.NoError(t, store.UpdateProjectStatus(context.Background(), project.ID, domain.ProjectResearchReady))

	run, err := svc.Start(context.Background(), project.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectResearchPending, store.ProjectStatus(project.ID))

	found, err := svc.ProcessNext(context.Background())
	assert.True(t, found)
	require.Error(t, err)
	assert.Equal(t, coreerrors.CodeResearchFailed, coreerrors.CodeOf(err))
	assert.ErrorIs(t, err, coreerrors.ErrCircuitBreakerOpen)

	stored, err := store.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, stored.Status)
	assert.NotEmpty(t, stored.ErrorMessage)
	assert.Equal(t, domain.ProjectResearchReady, store.ProjectStatus(project.ID))
}

func TestService_PersistFailureFailsRun(t *testing.T) {
	svc, store, project := newTestService(t, fixedRunner{total: 3})
	store.SaveKeywordsFn = func(context.Context, []*domain.Keyword) error {
		return mocks.ErrInjected
	}

	run, err := svc.Start(context.Background(), project.ID)
	require.NoError(t, err)

	_, err = svc.RunNow(context.Background(), run.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, mocks.ErrInjected)

	stored, err := store.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, stored.Status)
	assert.Equal(t, domain.ProjectDraft, store.ProjectStatus(project.ID))
}

func TestService_ProcessNextWithoutPendingRun(t *testing.T) {
	svc, _, _ := newTestService(t, fixedRunner{})

	found, err := svc.ProcessNext(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestService_Approve(t *testing.T) {
	tests := []struct {
		name     string
		selected int
		wantCode coreerrors.Code
	}{
		{name: "below floor", selected: domain.MinApprovalKeywords - 1, wantCode: coreerrors.CodeValidationFailed},
		{name: "at floor", selected: domain.MinApprovalKeywords},
		{name: "above floor", selected: domain.MinApprovalKeywords + 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, project := newTestService(t, fixedRunner{total: 40, selected: tt.selected})
			run := runResearch(t, svc, project.ID)

			approved, err := svc.Approve(context.Background(), run.ID)

			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, coreerrors.CodeOf(err))
				assert.Equal(t, domain.ProjectResearchReady, store.ProjectStatus(project.ID))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, domain.RunApproved, approved.Status)
			assert.NotNil(t, approved.ApprovedAt)
			assert.Equal(t, domain.ProjectStrategyReady, store.ProjectStatus(project.ID))
		})
	}
}

func TestService_ApproveRequiresCompletedRun(t *testing.T) {
	svc, _, project := newTestService(t, fixedRunner{})

	run, err := svc.Start(context.Background(), project.ID)
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), run.ID)
	require.Error(t, err)
	assert.Equal(t, coreerrors.CodeValidationFailed, coreerrors.CodeOf(err))
}

func TestService_OperatorSelectionCountsOnce(t *testing.T) {
	svc, store, project := newTestService(t, fixedRunner{total: 40, selected: domain.MinApprovalKeywords - 1})
	run := runResearch(t, svc, project.ID)

	keywords, err := store.ListKeywords(context.Background(), run.ID)
	require.NoError(t, err)

	// Confirming an automatic pick adds no selected keyword.
	kw, err := svc.UpdateKeywordSelection(context.Background(), keywords[0].ID, true, domain.OriginOperator)
	require.NoError(t, err)
	assert.Equal(t, domain.SelectionBoth, kw.Selection)

	_, err = svc.Approve(context.Background(), run.ID)
	require.Error(t, err)

	kw, err = svc.UpdateKeywordSelection(context.Background(), keywords[39].ID, true, domain.OriginOperator)
	require.NoError(t, err)
	assert.Equal(t, domain.SelectionOperator, kw.Selection)

	stored, err := store.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MinApprovalKeywords, stored.SelectedKeywords)
	assert.Equal(t, domain.MinApprovalKeywords-1, stored.AutomaticSelected)
	assert.Equal(t, 2, stored.OperatorSelected)

	_, err = svc.Approve(context.Background(), run.ID)
	require.NoError(t, err)
}

func TestService_UpdateKeywordSelection(t *testing.T) {
	ctx := context.Background()
	svc, store, project := newTestService(t, fixedRunner{total: 3, selected: 2})
	run := runResearch(t, svc, project.ID)

	keywords, err := store.ListKeywords(ctx, run.ID)
	require.NoError(t, err)

	// An operator can drop an automatic pick they never confirmed.
	kw, err := svc.UpdateKeywordSelection(ctx, keywords[0].ID, false, domain.OriginOperator)
	require.NoError(t, err)
	assert.Equal(t, domain.SelectionNone, kw.Selection)

	stored, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.SelectedKeywords)
	assert.Equal(t, 1, stored.AutomaticSelected)

	// Dropping a confirmation keeps the automatic pick.
	_, err = svc.UpdateKeywordSelection(ctx, keywords[1].ID, true, domain.OriginOperator)
	require.NoError(t, err)

	kw, err = svc.UpdateKeywordSelection(ctx, keywords[1].ID, false, domain.OriginOperator)
	require.NoError(t, err)
	assert.Equal(t, domain.SelectionAutomatic, kw.Selection)

	kw, err = svc.UpdateKeywordSelection(ctx, keywords[1].ID, false, domain.OriginAutomatic)
	require.NoError(t, err)
	assert.Equal(t, domain.SelectionNone, kw.Selection)

	stored, err = store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.SelectedKeywords)

	_, err = svc.UpdateKeywordSelection(ctx, keywords[2].ID, true, "robot")
	assert.True(t, coreerrors.HasCode(err, coreerrors.CodeInvalidInput))

	_, err = svc.UpdateKeywordSelection(ctx, "missing", true, domain.OriginOperator)
	require.Error(t, err)
	assert.Equal(t, coreerrors.CodeKeywordNotFound, coreerrors.CodeOf(err))
}

func TestService_UpdateClusterSelection(t *testing.T) {
	svc, store, project := newTestService(t, fixedRunner{total: 4, selected: 2})
	run := runResearch(t, svc, project.ID)

	view, err := svc.Get(context.Background(), run.ID)
	require.NoError(t, err)
	require.Len(t, view.Clusters, 1)

	cluster, err := svc.UpdateClusterSelection(context.Background(), view.Clusters[0].ID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.SelectionBoth, cluster.Selection)

	keywords, err := store.ListKeywords(context.Background(), run.ID)
	require.NoError(t, err)

	for _, kw := range keywords {
		assert.True(t, kw.Selection.ByOperator(), kw.Text)
	}

	stored, err := store.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.SelectedKeywords)
	assert.Equal(t, 4, stored.OperatorSelected)

	_, err = svc.UpdateClusterSelection(context.Background(), view.Clusters[0].ID, false)
	require.NoError(t, err)

	stored, err = store.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.SelectedKeywords)
	assert.Zero(t, stored.OperatorSelected)
}

func TestService_Consolidate(t *testing.T) {
	svc, store, project := newTestService(t, fixedRunner{total: 3, selected: 2})
	run := runResearch(t, svc, project.ID)

	keywords, err := store.ListKeywords(context.Background(), run.ID)
	require.NoError(t, err)

	_, err = svc.UpdateKeywordSelection(context.Background(), keywords[0].ID, true, domain.OriginOperator)
	require.NoError(t, err)

	changed, err := svc.Consolidate(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	keywords, err = store.ListKeywords(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SelectionOperator, keywords[0].Selection)
	assert.Equal(t, domain.SelectionAutomatic, keywords[1].Selection)
	assert.Equal(t, domain.SelectionNone, keywords[2].Selection)

	stored, err := store.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.SelectedKeywords)
	assert.Equal(t, 1, stored.AutomaticSelected)

	_, err = svc.Consolidate(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, coreerrors.CodeResearchNotFound, coreerrors.CodeOf(err))
}

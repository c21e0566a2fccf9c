package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	"github.com/lueurxax/editorial-planner/internal/core/llm"
	"github.com/lueurxax/editorial-planner/internal/core/ports/mocks"
)

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	args := m.Called(ctx, req)

	return args.Get(0).(llm.Response), args.Error(1)
}

// queueDrafter hands out prepared versions in order and records inputs.
type queueDrafter struct {
	versions []*domain.StrategyVersion
	err      error
	inputs   []Input
}

func (d *queueDrafter) Generate(_ context.Context, sessionID string, in Input) (*domain.StrategyVersion, error) {
	d.inputs = append(d.inputs, in)

	if d.err != nil {
		return nil, d.err
	}

	v := d.versions[0]
	d.versions = d.versions[1:]
	v.SessionID = sessionID

	return v, nil
}

type countingValidator struct {
	calls []string
	err   error
}

func (v *countingValidator) ValidateVersion(_ context.Context, versionID string) (int, error) {
	v.calls = append(v.calls, versionID)

	return 0, v.err
}

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// newVersion builds an unsaved single-pillar version holding items.
func newVersion(items ...domain.ContentItem) *domain.StrategyVersion {
	return &domain.StrategyVersion{
		GlobalRationale: "plan",
		Pillars:         []domain.Pillar{{Name: "Backups", Color: PillarColor(0)}},
		Items:           items,
	}
}

func item(title, keyword string, status domain.ItemStatus) domain.ContentItem {
	return domain.ContentItem{
		Title:          title,
		PrimaryKeyword: keyword,
		Intent:         domain.IntentInformational,
		Funnel:         domain.FunnelToF,
		Status:         status,
		PublishDate:    time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

// seedApprovedProject stores a project with an approved research run whose
// single cluster holds the given keywords, all selected.
func seedApprovedProject(t *testing.T, store *mocks.Store, texts ...string) *domain.Project {
	t.Helper()

	ctx := context.Background()

	project := &domain.Project{Name: "Backup Co", Language: "en", KnowledgeBase: "We sell cloud backup."}
	require.NoError(t, store.CreateProject(ctx, project))

	run := &domain.ResearchRun{ProjectID: project.ID}
	require.NoError(t, store.CreateRun(ctx, run))

	_, err := store.StartRun(ctx, run.ID)
	require.NoError(t, err)

	cluster := &domain.Cluster{RunID: run.ID, Name: "Backups", Selection: domain.SelectionAutomatic}
	require.NoError(t, store.SaveClusters(ctx, []*domain.Cluster{cluster}))

	keywords := make([]*domain.Keyword, len(texts))
	for i, text := range texts {
		keywords[i] = &domain.Keyword{
			RunID:          run.ID,
			ClusterID:      cluster.ID,
			Text:           text,
			FreeDifficulty: domain.DifficultyEasy,
			Selection:      domain.SelectionAutomatic,
		}
	}

	require.NoError(t, store.SaveKeywords(ctx, keywords))

	run.TotalKeywords = len(keywords)
	run.TotalClusters = 1
	require.NoError(t, store.CompleteRun(ctx, run))
	require.NoError(t, store.ApproveRun(ctx, run.ID, time.Now()))

	return project
}

func newTestManager(store *mocks.Store, drafter Drafter, validator VersionValidator) *Manager {
	return NewManager(store, store, store, drafter, validator, nopLogger())
}

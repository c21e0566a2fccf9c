package mocks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	coreerrors "github.com/lueurxax/editorial-planner/internal/core/errors"
	"github.com/lueurxax/editorial-planner/internal/core/ports"
)

func newProject(t *testing.T, store *Store) *domain.Project {
	t.Helper()

	p := &domain.Project{Name: "Backup Blog"}
	require.NoError(t, store.CreateProject(context.Background(), p))

	return p
}

func TestStore_CreateRunRejectsSecondActiveRun(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	p := newProject(t, store)

	first := &domain.ResearchRun{ProjectID: p.ID}
	require.NoError(t, store.CreateRun(ctx, first))
	assert.Equal(t, domain.ProjectResearchPending, store.ProjectStatus(p.ID))
	assert.Equal(t, domain.ProjectDraft, first.PreviousProjectStatus)

	err := store.CreateRun(ctx, &domain.ResearchRun{ProjectID: p.ID})
	assert.True(t, coreerrors.HasCode(err, coreerrors.CodeResearchFailed))
}

func TestStore_FailRunRestoresProjectStatus(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	p := newProject(t, store)
	require.NoError(t, store.UpdateProjectStatus(ctx, p.ID, domain.ProjectResearchReady))

	run := &domain.ResearchRun{ProjectID: p.ID}
	require.NoError(t, store.CreateRun(ctx, run))

	claimed, err := store.ClaimPendingRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, domain.RunInProgress, claimed.Status)

	require.NoError(t, store.FailRun(ctx, run.ID, "collaborator timeout"))
	assert.Equal(t, domain.ProjectResearchReady, store.ProjectStatus(p.ID))

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, got.Status)
	assert.Equal(t, "collaborator timeout", got.ErrorMessage)
}

func TestStore_CreateRunDeletesSupersededRuns(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	p := newProject(t, store)

	complete := func() *domain.ResearchRun {
		run := &domain.ResearchRun{ProjectID: p.ID}
		require.NoError(t, store.CreateRun(ctx, run))

		_, err := store.StartRun(ctx, run.ID)
		require.NoError(t, err)

		cluster := &domain.Cluster{RunID: run.ID, Name: "Backups"}
		require.NoError(t, store.SaveClusters(ctx, []*domain.Cluster{cluster}))
		require.NoError(t, store.SaveKeywords(ctx, []*domain.Keyword{{RunID: run.ID, ClusterID: cluster.ID, Text: "cloud backup"}}))
		require.NoError(t, store.CompleteRun(ctx, run))

		return run
	}

	approved := complete()
	require.NoError(t, store.ApproveRun(ctx, approved.ID, store.now()))

	completed := complete()
	assert.Equal(t, 2, store.RunCount(p.ID))

	require.NoError(t, store.CreateRun(ctx, &domain.ResearchRun{ProjectID: p.ID}))
	assert.Equal(t, 2, store.RunCount(p.ID))

	_, err := store.GetRun(ctx, completed.ID)
	assert.True(t, coreerrors.HasCode(err, coreerrors.CodeResearchNotFound))

	keywords, err := store.ListKeywords(ctx, completed.ID)
	require.NoError(t, err)
	assert.Empty(t, keywords)

	clusters, err := store.ListClusters(ctx, approved.ID)
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Len(t, clusters[0].Keywords, 1)
}

func TestStore_FailStaleRuns(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	p := newProject(t, store)
	require.NoError(t, store.UpdateProjectStatus(ctx, p.ID, domain.ProjectResearchReady))

	run := &domain.ResearchRun{ProjectID: p.ID}
	require.NoError(t, store.CreateRun(ctx, run))

	started, err := store.StartRun(ctx, run.ID)
	require.NoError(t, err)

	n, err := store.FailStaleRuns(ctx, started.StartedAt.Add(-time.Minute), "stale")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = store.FailStaleRuns(ctx, started.StartedAt.Add(time.Minute), "stale")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, got.Status)
	assert.Equal(t, "stale", got.ErrorMessage)
	assert.Equal(t, domain.ProjectResearchReady, store.ProjectStatus(p.ID))
}

func TestStore_SaveKeywordsUpsertsByText(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.SaveKeywords(ctx, []*domain.Keyword{{RunID: "r1", Text: "cloud backup"}}))

	again := &domain.Keyword{RunID: "r1", Text: "cloud backup", Intent: domain.IntentCommercial}
	require.NoError(t, store.SaveKeywords(ctx, []*domain.Keyword{again}))

	keywords, err := store.ListKeywords(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, keywords, 1)
	assert.Equal(t, domain.IntentCommercial, keywords[0].Intent)
	assert.Equal(t, again.ID, keywords[0].ID)
}

func TestStore_CreateVersionNumbering(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	session := &domain.StrategySession{ProjectID: "p1"}
	require.NoError(t, store.CreateSession(ctx, session))

	v1 := &domain.StrategyVersion{SessionID: session.ID}
	v2 := &domain.StrategyVersion{SessionID: session.ID}

	require.NoError(t, store.CreateVersion(ctx, v1))
	require.NoError(t, store.CreateVersion(ctx, v2))

	assert.Equal(t, 1, v1.VersionNumber)
	assert.True(t, v1.IsActive)
	assert.Equal(t, 2, v2.VersionNumber)
	assert.False(t, v2.IsActive)
	assert.Equal(t, 1, store.ActiveVersionCount(session.ID))
}

func TestStore_InReplaceTxRollsBack(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	session := &domain.StrategySession{ProjectID: "p1"}
	require.NoError(t, store.CreateSession(ctx, session))

	v1 := &domain.StrategyVersion{SessionID: session.ID}
	require.NoError(t, store.CreateVersion(ctx, v1))

	err := store.InReplaceTx(ctx, func(tx ports.ReplaceTx) error {
		if err := tx.DeactivateVersion(ctx, v1.ID, "other", store.Now()); err != nil {
			return err
		}

		return ErrInjected
	})
	require.ErrorIs(t, err, ErrInjected)

	active, err := store.GetActiveVersion(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, v1.ID, active.ID)
}

func TestStore_UpdateContentItemRejectsDuplicateKeyword(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	session := &domain.StrategySession{ProjectID: "p1"}
	require.NoError(t, store.CreateSession(ctx, session))

	v := &domain.StrategyVersion{
		SessionID: session.ID,
		Items: []domain.ContentItem{
			{Title: "A", PrimaryKeyword: "cloud backup"},
			{Title: "B", PrimaryKeyword: "backup pricing"},
		},
	}
	require.NoError(t, store.CreateVersion(ctx, v))

	item := v.Items[1]
	item.PrimaryKeyword = "  Cloud Backup "

	err := store.UpdateContentItem(ctx, &item)
	assert.True(t, coreerrors.HasCode(err, coreerrors.CodeDuplicateKeyword))
}

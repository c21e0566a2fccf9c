package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	coreerrors "github.com/lueurxax/editorial-planner/internal/core/errors"
	"github.com/lueurxax/editorial-planner/internal/core/ports/mocks"
)

func TestManager_GenerateRequiresApprovedResearch(t *testing.T) {
	store := mocks.NewStore()
	project := &domain.Project{Name: "Fresh"}
	require.NoError(t, store.CreateProject(context.Background(), project))

	drafter := &queueDrafter{}
	m := newTestManager(store, drafter, nil)

	_, err := m.Generate(context.Background(), GenerateRequest{ProjectID: project.ID})
	require.Error(t, err)
	assert.Equal(t, coreerrors.CodeValidationFailed, coreerrors.CodeOf(err))
	assert.Empty(t, drafter.inputs)
}

func TestManager_GenerateNeedsProjectOrSession(t *testing.T) {
	m := newTestManager(mocks.NewStore(), &queueDrafter{}, nil)

	_, err := m.Generate(context.Background(), GenerateRequest{})
	require.Error(t, err)
	assert.Equal(t, coreerrors.CodeInvalidInput, coreerrors.CodeOf(err))
}

func TestManager_GenerateVersions(t *testing.T) {
	store := mocks.NewStore()
	project := seedApprovedProject(t, store, "cloud backup", "cloud backup pricing")

	drafter := &queueDrafter{versions: []*domain.StrategyVersion{
		newVersion(item("Cloud backup guide", "cloud backup", "")),
		newVersion(item("Cloud backup pricing", "cloud backup pricing", "")),
	}}
	validator := &countingValidator{}
	m := newTestManager(store, drafter, validator)

	v1, err := m.Generate(context.Background(), GenerateRequest{ProjectID: project.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, v1.VersionNumber)
	assert.True(t, v1.IsActive)
	require.Len(t, v1.Items, 1)
	assert.Equal(t, domain.ItemProposed, v1.Items[0].Status)
	assert.Equal(t, v1.Pillars[0].ID, v1.Items[0].PillarID)

	v2, err := m.Generate(context.Background(), GenerateRequest{SessionID: v1.SessionID, Request: "focus on pricing"})
	require.NoError(t, err)
	assert.Equal(t, 2, v2.VersionNumber)
	assert.False(t, v2.IsActive)
	assert.Equal(t, v1.SessionID, v2.SessionID)
	assert.Equal(t, 1, store.ActiveVersionCount(v1.SessionID))

	require.Len(t, drafter.inputs, 2)
	assert.Nil(t, drafter.inputs[0].Previous)
	require.NotNil(t, drafter.inputs[1].Previous)
	assert.Equal(t, v1.ID, drafter.inputs[1].Previous.ID)
	assert.Equal(t, "focus on pricing", drafter.inputs[1].Request)
	assert.Equal(t, 2, drafter.inputs[1].VersionNumber)
	require.Len(t, drafter.inputs[0].Clusters, 1)
	assert.Len(t, drafter.inputs[0].Clusters[0].Keywords, 2)

	assert.Equal(t, []string{v1.ID, v2.ID}, validator.calls)

	versions, err := m.ListVersions(context.Background(), v1.SessionID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 1, versions[0].VersionNumber)
	assert.Equal(t, 2, versions[1].VersionNumber)
}

func TestManager_GenerateRejectsDuplicatePrimaryKeywords(t *testing.T) {
	store := mocks.NewStore()
	project := seedApprovedProject(t, store, "cloud backup")

	drafter := &queueDrafter{versions: []*domain.StrategyVersion{
		newVersion(
			item("Cloud backup guide", "Cloud Backup", ""),
			item("Why cloud backup", "cloud backup ", ""),
		),
	}}
	m := newTestManager(store, drafter, nil)

	_, err := m.Generate(context.Background(), GenerateRequest{ProjectID: project.ID})
	require.Error(t, err)
	assert.Equal(t, coreerrors.CodeDuplicateKeyword, coreerrors.CodeOf(err))

	session, err := store.GetOpenSession(context.Background(), project.ID)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Zero(t, store.ActiveVersionCount(session.ID))
}

func TestManager_ValidationFailureKeepsVersion(t *testing.T) {
	store := mocks.NewStore()
	project := seedApprovedProject(t, store, "cloud backup")

	drafter := &queueDrafter{versions: []*domain.StrategyVersion{newVersion(item("Guide", "cloud backup", ""))}}
	m := newTestManager(store, drafter, &countingValidator{err: mocks.ErrInjected})

	v, err := m.Generate(context.Background(), GenerateRequest{ProjectID: project.ID})
	require.NoError(t, err)
	assert.True(t, v.IsActive)
}

func TestManager_GenerateDrafterFailure(t *testing.T) {
	store := mocks.NewStore()
	project := seedApprovedProject(t, store, "cloud backup")

	drafter := &queueDrafter{err: coreerrors.New(coreerrors.CodeAIServiceError, "strategy generation failed")}
	m := newTestManager(store, drafter, nil)

	_, err := m.Generate(context.Background(), GenerateRequest{ProjectID: project.ID})
	require.Error(t, err)
	assert.Equal(t, coreerrors.CodeAIServiceError, coreerrors.CodeOf(err))
}

func TestManager_Approve(t *testing.T) {
	store := mocks.NewStore()
	project := seedApprovedProject(t, store, "cloud backup", "nas backup")

	drafter := &queueDrafter{versions: []*domain.StrategyVersion{newVersion(
		item("Cloud backup guide", "cloud backup", ""),
		item("NAS backup", "nas backup", domain.ItemRejected),
	)}}
	m := newTestManager(store, drafter, nil)

	v, err := m.Generate(context.Background(), GenerateRequest{ProjectID: project.ID})
	require.NoError(t, err)

	approved, err := m.Approve(context.Background(), v.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, approved)
	assert.Equal(t, domain.ProjectActive, store.ProjectStatus(project.ID))

	stored, err := store.GetVersion(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ItemApproved, stored.Items[0].Status)
	assert.NotNil(t, stored.Items[0].ApprovedAt)
	assert.Equal(t, domain.ItemRejected, stored.Items[1].Status)

	_, err = m.Approve(context.Background(), v.SessionID)
	require.Error(t, err)
	assert.Equal(t, coreerrors.CodeSessionCompleted, coreerrors.CodeOf(err))

	_, err = m.Generate(context.Background(), GenerateRequest{SessionID: v.SessionID})
	require.Error(t, err)
	assert.Equal(t, coreerrors.CodeSessionCompleted, coreerrors.CodeOf(err))

	_, err = m.Replace(context.Background(), v.SessionID, v.ID)
	require.Error(t, err)
	assert.Equal(t, coreerrors.CodeSessionCompleted, coreerrors.CodeOf(err))
}

func TestManager_ReplaceRejectsApprovedOrphans(t *testing.T) {
	store := mocks.NewStore()
	project := seedApprovedProject(t, store, "a", "b", "c", "d")

	drafter := &queueDrafter{versions: []*domain.StrategyVersion{
		newVersion(
			item("Title A", "a", domain.ItemApproved),
			item("Title B", "b", domain.ItemApproved),
			item("Title C", "c", domain.ItemProposed),
		),
		newVersion(
			item("Title A", "a", ""),
			item("Title D", "d", ""),
		),
	}}
	m := newTestManager(store, drafter, nil)

	v1, err := m.Generate(context.Background(), GenerateRequest{ProjectID: project.ID})
	require.NoError(t, err)

	v2, err := m.Generate(context.Background(), GenerateRequest{SessionID: v1.SessionID})
	require.NoError(t, err)

	result, err := m.Replace(context.Background(), v1.SessionID, v2.ID)
	require.NoError(t, err)
	assert.Equal(t, v1.ID, result.ReplacedVersionID)
	assert.Equal(t, v2.ID, result.ActiveVersionID)
	assert.Equal(t, 2, result.VersionNumber)
	assert.Equal(t, 1, result.RejectedItems)

	old, err := store.GetVersion(context.Background(), v1.ID)
	require.NoError(t, err)
	assert.False(t, old.IsActive)
	assert.Equal(t, v2.ID, old.ReplacedByID)
	assert.NotNil(t, old.ReplacedAt)

	assert.Equal(t, domain.ItemApproved, old.Items[0].Status)
	assert.Equal(t, domain.ItemRejected, old.Items[1].Status)
	assert.Equal(t, "Removed by strategy v2 replacement", old.Items[1].RejectionReason)
	assert.Equal(t, domain.ItemProposed, old.Items[2].Status)
	assert.Empty(t, old.Items[2].RejectionReason)

	active, err := store.GetActiveVersion(context.Background(), v1.SessionID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, v2.ID, active.ID)
	assert.NotNil(t, active.ActivatedAt)
	assert.Equal(t, 1, store.ActiveVersionCount(v1.SessionID))
}

func TestManager_ReplacePreconditions(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewStore()
	project := seedApprovedProject(t, store, "a", "b")

	drafter := &queueDrafter{versions: []*domain.StrategyVersion{
		newVersion(item("Title A", "a", domain.ItemApproved)),
	}}
	m := newTestManager(store, drafter, nil)

	v1, err := m.Generate(ctx, GenerateRequest{ProjectID: project.ID})
	require.NoError(t, err)

	other := &domain.StrategySession{ProjectID: project.ID}
	require.NoError(t, store.CreateSession(ctx, other))

	foreign := newVersion(item("Title B", "b", ""))
	foreign.SessionID = other.ID
	require.NoError(t, store.CreateVersion(ctx, foreign))

	empty := &domain.StrategySession{ProjectID: project.ID}
	require.NoError(t, store.CreateSession(ctx, empty))

	tests := []struct {
		name      string
		sessionID string
		versionID string
		want      coreerrors.Code
	}{
		{name: "unknown session", sessionID: "missing", versionID: v1.ID, want: coreerrors.CodeSessionNotFound},
		{name: "no active version", sessionID: empty.ID, versionID: v1.ID, want: coreerrors.CodeNoActiveStrategy},
		{name: "unknown version", sessionID: v1.SessionID, versionID: "missing", want: coreerrors.CodeStrategyNotFound},
		{name: "version of another session", sessionID: v1.SessionID, versionID: foreign.ID, want: coreerrors.CodeInvalidInput},
		{name: "already active", sessionID: v1.SessionID, versionID: v1.ID, want: coreerrors.CodeStrategyAlreadyActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Replace(ctx, tt.sessionID, tt.versionID)
			require.Error(t, err)
			assert.Equal(t, tt.want, coreerrors.CodeOf(err))

			stored, err := store.GetVersion(ctx, v1.ID)
			require.NoError(t, err)
			assert.True(t, stored.IsActive)
			assert.Empty(t, stored.ReplacedByID)
			assert.Equal(t, domain.ItemApproved, stored.Items[0].Status)
			assert.Equal(t, 1, store.ActiveVersionCount(other.ID))
		})
	}
}

func TestManager_UpdateContentItem(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewStore()
	project := seedApprovedProject(t, store, "cloud backup", "nas backup")

	drafter := &queueDrafter{versions: []*domain.StrategyVersion{newVersion(
		item("Cloud backup guide", "cloud backup", ""),
		item("NAS backup", "nas backup", ""),
	)}}
	m := newTestManager(store, drafter, nil)

	v, err := m.Generate(ctx, GenerateRequest{ProjectID: project.ID})
	require.NoError(t, err)

	first, second := v.Items[0].ID, v.Items[1].ID

	title := "  The cloud backup handbook "
	funnel := domain.FunnelMoF
	secondary := []string{"offsite backup", " "}

	updated, err := m.UpdateContentItem(ctx, first, ItemUpdate{Title: &title, Funnel: &funnel, SecondaryKeywords: &secondary})
	require.NoError(t, err)
	assert.Equal(t, "The cloud backup handbook", updated.Title)
	assert.Equal(t, domain.FunnelMoF, updated.Funnel)
	assert.Equal(t, []string{"offsite backup"}, updated.SecondaryKeywords)
	assert.Equal(t, domain.ItemModified, updated.Status)
	assert.True(t, updated.ManuallyEdited)

	stored, err := store.GetContentItem(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, domain.ItemModified, stored.Status)

	sameKeyword := "Cloud Backup"
	_, err = m.UpdateContentItem(ctx, first, ItemUpdate{PrimaryKeyword: &sameKeyword})
	require.NoError(t, err)

	taken := "NAS Backup"
	_, err = m.UpdateContentItem(ctx, first, ItemUpdate{PrimaryKeyword: &taken})
	require.Error(t, err)
	assert.Equal(t, coreerrors.CodeDuplicateKeyword, coreerrors.CodeOf(err))

	untouched, err := store.GetContentItem(ctx, second)
	require.NoError(t, err)
	assert.False(t, untouched.ManuallyEdited)
	assert.Equal(t, domain.ItemProposed, untouched.Status)
}

func TestManager_UpdateContentItemInvalid(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewStore()
	project := seedApprovedProject(t, store, "cloud backup")

	drafter := &queueDrafter{versions: []*domain.StrategyVersion{newVersion(item("Guide", "cloud backup", ""))}}
	m := newTestManager(store, drafter, nil)

	v, err := m.Generate(ctx, GenerateRequest{ProjectID: project.ID})
	require.NoError(t, err)

	blank := " "
	funnel := domain.FunnelStage("TOP")
	intent := domain.SearchIntent("BUY")

	tests := []struct {
		name   string
		itemID string
		upd    ItemUpdate
		want   coreerrors.Code
	}{
		{name: "no changes", itemID: v.Items[0].ID, want: coreerrors.CodeInvalidInput},
		{name: "blank title", itemID: v.Items[0].ID, upd: ItemUpdate{Title: &blank}, want: coreerrors.CodeInvalidInput},
		{name: "blank keyword", itemID: v.Items[0].ID, upd: ItemUpdate{PrimaryKeyword: &blank}, want: coreerrors.CodeInvalidInput},
		{name: "unknown funnel", itemID: v.Items[0].ID, upd: ItemUpdate{Funnel: &funnel}, want: coreerrors.CodeInvalidInput},
		{name: "unknown intent", itemID: v.Items[0].ID, upd: ItemUpdate{Intent: &intent}, want: coreerrors.CodeInvalidInput},
		{name: "unknown item", itemID: "missing", upd: ItemUpdate{Title: &blank}, want: coreerrors.CodePostNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.UpdateContentItem(ctx, tt.itemID, tt.upd)
			require.Error(t, err)
			assert.Equal(t, tt.want, coreerrors.CodeOf(err))
		})
	}

	stored, err := store.GetContentItem(ctx, v.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ItemProposed, stored.Status)
}

package projects

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	coreerrors "github.com/lueurxax/editorial-planner/internal/core/errors"
	"github.com/lueurxax/editorial-planner/internal/core/ports/mocks"
)

var knowledgeBase = strings.Repeat("We sell encrypted cloud backup. ", 3)

func newTestService(store *mocks.Store) *Service {
	logger := zerolog.Nop()
	svc := NewService(store, &logger)
	svc.now = func() time.Time { return time.Date(2026, 5, 4, 15, 30, 0, 0, time.UTC) }

	return svc
}

func ptr[T any](v T) *T {
	return &v
}

func TestService_Create(t *testing.T) {
	store := mocks.NewStore()
	svc := newTestService(store)

	p, err := svc.Create(context.Background(), Fields{
		Name:           ptr("  Backup Co "),
		KnowledgeBase:  ptr("  " + knowledgeBase),
		CompetitorURLs: ptr([]string{"https://rival.example", " ", ""}),
		KeywordSeeds:   ptr([]string{" cloud backup ", "\t"}),
		BlogURL:        ptr(" https://backup.example/blog "),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Backup Co", p.Name)
	assert.Equal(t, strings.TrimSpace(knowledgeBase), p.KnowledgeBase)
	assert.Equal(t, []string{"https://rival.example"}, p.CompetitorURLs)
	assert.Equal(t, []string{"cloud backup"}, p.KeywordSeeds)
	assert.Equal(t, "https://backup.example/blog", p.BlogURL)
	assert.Equal(t, "en", p.Language)
	assert.True(t, p.AvoidCannibalization)
	assert.Equal(t, domain.ProjectDraft, p.Status)
	require.NotNil(t, p.FirstPublishDate)
	assert.Equal(t, time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC), *p.FirstPublishDate)

	stored, err := svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, stored.Name)
}

func TestService_CreateHonorsExplicitDefaults(t *testing.T) {
	svc := newTestService(mocks.NewStore())

	p, err := svc.Create(context.Background(), Fields{
		Name:                 ptr("Backup Co"),
		KnowledgeBase:        ptr(knowledgeBase),
		Language:             ptr(" IT "),
		FirstPublishDate:     ptr(time.Date(2026, 6, 1, 18, 45, 0, 0, time.UTC)),
		AvoidCannibalization: ptr(false),
	})
	require.NoError(t, err)

	assert.Equal(t, "it", p.Language)
	assert.False(t, p.AvoidCannibalization)
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), *p.FirstPublishDate)
}

func TestService_CreateInvalid(t *testing.T) {
	tests := []struct {
		name   string
		fields Fields
	}{
		{name: "missing name", fields: Fields{KnowledgeBase: ptr(knowledgeBase)}},
		{name: "blank name", fields: Fields{Name: ptr("  "), KnowledgeBase: ptr(knowledgeBase)}},
		{name: "missing knowledge base", fields: Fields{Name: ptr("Backup Co")}},
		{name: "short knowledge base", fields: Fields{Name: ptr("Backup Co"), KnowledgeBase: ptr("  We sell backup.  ")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewStore()

			_, err := newTestService(store).Create(context.Background(), tt.fields)
			require.Error(t, err)
			assert.Equal(t, coreerrors.CodeInvalidInput, coreerrors.CodeOf(err))

			projects, err := store.ListProjects(context.Background(), true)
			require.NoError(t, err)
			assert.Empty(t, projects)
		})
	}
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewStore()
	svc := newTestService(store)

	p, err := svc.Create(ctx, Fields{Name: ptr("Backup Co"), KnowledgeBase: ptr(knowledgeBase), KeywordSeeds: ptr([]string{"nas"})})
	require.NoError(t, err)
	require.NoError(t, store.UpdateProjectStatus(ctx, p.ID, domain.ProjectResearchReady))

	updated, err := svc.Update(ctx, p.ID, Fields{Objectives: ptr(" More trials "), CompetitorURLs: ptr([]string{" "})})
	require.NoError(t, err)
	assert.Equal(t, "More trials", updated.Objectives)
	assert.Empty(t, updated.CompetitorURLs)
	assert.Equal(t, []string{"nas"}, updated.KeywordSeeds)

	stored, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "More trials", stored.Objectives)
	assert.Equal(t, domain.ProjectResearchReady, stored.Status)

	_, err = svc.Update(ctx, p.ID, Fields{})
	assert.Equal(t, coreerrors.CodeInvalidInput, coreerrors.CodeOf(err))

	_, err = svc.Update(ctx, p.ID, Fields{KnowledgeBase: ptr("too short")})
	assert.Equal(t, coreerrors.CodeInvalidInput, coreerrors.CodeOf(err))

	_, err = svc.Update(ctx, "missing", Fields{Name: ptr("x")})
	assert.Equal(t, coreerrors.CodeProjectNotFound, coreerrors.CodeOf(err))
}

func TestService_Archive(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewStore()
	svc := newTestService(store)

	tick := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	store.Now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}

	kept, err := svc.Create(ctx, Fields{Name: ptr("Kept"), KnowledgeBase: ptr(knowledgeBase)})
	require.NoError(t, err)

	gone, err := svc.Create(ctx, Fields{Name: ptr("Gone"), KnowledgeBase: ptr(knowledgeBase)})
	require.NoError(t, err)

	archived, err := svc.Archive(ctx, gone.ID)
	require.NoError(t, err)
	assert.True(t, archived.Archived)
	require.NotNil(t, archived.ArchivedAt)

	visible, err := svc.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, kept.ID, visible[0].ID)

	all, err := svc.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, gone.ID, all[0].ID)

	_, err = svc.Archive(ctx, gone.ID)
	assert.Equal(t, coreerrors.CodeProjectArchived, coreerrors.CodeOf(err))

	_, err = svc.Update(ctx, gone.ID, Fields{Name: ptr("Back")})
	assert.Equal(t, coreerrors.CodeProjectArchived, coreerrors.CodeOf(err))

	_, err = svc.Archive(ctx, "missing")
	assert.Equal(t, coreerrors.CodeProjectNotFound, coreerrors.CodeOf(err))
}

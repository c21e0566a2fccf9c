package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	coreerrors "github.com/lueurxax/editorial-planner/internal/core/errors"
	"github.com/lueurxax/editorial-planner/internal/core/ports"
)

// Store is an in-memory implementation of the storage ports.
type Store struct {
	mu sync.Mutex

	projects map[string]*domain.Project

	runs         map[string]*domain.ResearchRun
	clusters     map[string]*domain.Cluster
	clusterOrder []string
	keywords     map[string]*domain.Keyword
	keywordOrder []string

	sessions map[string]*domain.StrategySession
	versions map[string]*domain.StrategyVersion

	// SaveKeywordsFn allows overriding SaveKeywords behavior.
	SaveKeywordsFn func(ctx context.Context, keywords []*domain.Keyword) error

	// UpdateContentItemFn allows overriding UpdateContentItem behavior.
	UpdateContentItemFn func(ctx context.Context, item *domain.ContentItem) error

	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		projects: make(map[string]*domain.Project),
		runs:     make(map[string]*domain.ResearchRun),
		clusters: make(map[string]*domain.Cluster),
		keywords: make(map[string]*domain.Keyword),
		sessions: make(map[string]*domain.StrategySession),
		versions: make(map[string]*domain.StrategyVersion),
		Now:      time.Now,
	}
}

var (
	_ ports.ProjectStore  = (*Store)(nil)
	_ ports.ResearchStore = (*Store)(nil)
	_ ports.StrategyStore = (*Store)(nil)
)

func (s *Store) now() time.Time {
	return s.Now().UTC()
}

func newID(id string) string {
	if id != "" {
		return id
	}

	return uuid.NewString()
}

// CreateProject stores a project, defaulting its status to DRAFT.
func (s *Store) CreateProject(_ context.Context, p *domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = newID(p.ID)

	if p.Status == "" {
		p.Status = domain.ProjectDraft
	}

	now := s.now()
	p.CreatedAt = now
	p.UpdatedAt = now

	cp := *p
	s.projects[p.ID] = &cp

	return nil
}

// GetProject returns a copy of the stored project.
func (s *Store) GetProject(_ context.Context, id string) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, coreerrors.New(coreerrors.CodeProjectNotFound, "project not found")
	}

	cp := *p

	return &cp, nil
}

// UpdateProjectStatus sets the project status.
func (s *Store) UpdateProjectStatus(_ context.Context, id string, status domain.ProjectStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return coreerrors.New(coreerrors.CodeProjectNotFound, "project not found")
	}

	p.Status = status
	p.UpdatedAt = s.now()

	return nil
}

func cloneProject(p *domain.Project) *domain.Project {
	cp := *p
	cp.CompetitorURLs = append([]string(nil), p.CompetitorURLs...)
	cp.KeywordSeeds = append([]string(nil), p.KeywordSeeds...)

	return &cp
}

// ListProjects returns projects newest first, skipping archived ones unless asked.
func (s *Store) ListProjects(_ context.Context, includeArchived bool) ([]*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Project

	for _, p := range s.projects {
		if p.Archived && !includeArchived {
			continue
		}

		out = append(out, cloneProject(p))
	}

	return sortedByOrder(out, func(a, b *domain.Project) bool { return a.CreatedAt.After(b.CreatedAt) }), nil
}

// UpdateProject stores the editable fields of p.
func (s *Store) UpdateProject(_ context.Context, p *domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.projects[p.ID]
	if !ok {
		return coreerrors.New(coreerrors.CodeProjectNotFound, "project not found")
	}

	cp := cloneProject(p)
	cp.Status = stored.Status
	cp.Archived = stored.Archived
	cp.ArchivedAt = stored.ArchivedAt
	cp.CreatedAt = stored.CreatedAt
	cp.UpdatedAt = s.now()
	p.UpdatedAt = cp.UpdatedAt
	s.projects[p.ID] = cp

	return nil
}

// ArchiveProject marks the project archived.
func (s *Store) ArchiveProject(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return coreerrors.New(coreerrors.CodeProjectNotFound, "project not found")
	}

	p.Archived = true
	p.ArchivedAt = &at
	p.UpdatedAt = s.now()

	return nil
}

// ProjectStatus returns the stored status of a project, for assertions.
func (s *Store) ProjectStatus(id string) domain.ProjectStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.projects[id]; ok {
		return p.Status
	}

	return ""
}

func (s *Store) setProjectStatus(id string, status domain.ProjectStatus) {
	if p, ok := s.projects[id]; ok {
		p.Status = status
		p.UpdatedAt = s.now()
	}
}

func sortedByOrder[T any](items []T, less func(a, b T) bool) []T {
	sort.SliceStable(items, func(i, j int) bool {
		return less(items[i], items[j])
	})

	return items
}

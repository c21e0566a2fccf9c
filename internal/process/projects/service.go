// Package projects manages editorial project records: creation with input
// cleanup, metadata edits and archiving.
package projects

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	coreerrors "github.com/lueurxax/editorial-planner/internal/core/errors"
	"github.com/lueurxax/editorial-planner/internal/core/ports"
	"github.com/lueurxax/editorial-planner/internal/platform/schedule"
)

const (
	// MinKnowledgeBase is the shortest knowledge base a project accepts.
	MinKnowledgeBase = 50

	defaultLanguage = "en"
	logKeyProjectID = "project_id"
)

// Service creates and edits projects.
type Service struct {
	store  ports.ProjectStore
	logger *zerolog.Logger

	now func() time.Time
}

// NewService builds a Service on top of the project store.
func NewService(store ports.ProjectStore, logger *zerolog.Logger) *Service {
	return &Service{store: store, logger: logger, now: time.Now}
}

// Fields holds operator-supplied project fields. On create every nil field
// takes its default; on update nil fields are left unchanged.
type Fields struct {
	Name                 *string    `json:"name,omitempty"`
	Description          *string    `json:"description,omitempty"`
	Language             *string    `json:"language,omitempty"`
	Target               *string    `json:"target,omitempty"`
	Objectives           *string    `json:"objectives,omitempty"`
	BlogURL              *string    `json:"blogUrl,omitempty"`
	MainSiteURL          *string    `json:"mainSiteUrl,omitempty"`
	CompetitorURLs       *[]string  `json:"competitorUrls,omitempty"`
	KeywordSeeds         *[]string  `json:"keywordSeeds,omitempty"`
	KnowledgeBase        *string    `json:"knowledgeBase,omitempty"`
	FirstPublishDate     *time.Time `json:"firstPublishDate,omitempty"`
	AvoidCannibalization *bool      `json:"avoidCannibalization,omitempty"`
}

func (f Fields) empty() bool {
	return f == Fields{}
}

// Create stores a DRAFT project. A name and a knowledge base of at least
// MinKnowledgeBase characters are required. The first publish date defaults
// to today and cannibalization checks default to on.
func (s *Service) Create(ctx context.Context, f Fields) (*domain.Project, error) {
	p := &domain.Project{
		Language:             defaultLanguage,
		AvoidCannibalization: true,
	}

	if f.Name == nil {
		return nil, coreerrors.New(coreerrors.CodeInvalidInput, "project name is required")
	}

	if f.KnowledgeBase == nil {
		return nil, errShortKnowledgeBase()
	}

	if err := apply(p, f); err != nil {
		return nil, err
	}

	if p.FirstPublishDate == nil {
		today := schedule.DateOnly(s.now().UTC())
		p.FirstPublishDate = &today
	}

	if err := s.store.CreateProject(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info().Str(logKeyProjectID, p.ID).Str("name", p.Name).Msg("project created")

	return p, nil
}

// Get returns one project.
func (s *Service) Get(ctx context.Context, id string) (*domain.Project, error) {
	return s.store.GetProject(ctx, id)
}

// List returns projects newest first.
func (s *Service) List(ctx context.Context, includeArchived bool) ([]*domain.Project, error) {
	return s.store.ListProjects(ctx, includeArchived)
}

// Update edits the project's metadata and knowledge base. Archived projects
// are PROJECT_ARCHIVED.
func (s *Service) Update(ctx context.Context, id string, f Fields) (*domain.Project, error) {
	if f.empty() {
		return nil, coreerrors.New(coreerrors.CodeInvalidInput, "no changes given")
	}

	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Archived {
		return nil, coreerrors.New(coreerrors.CodeProjectArchived, "project is archived")
	}

	if err := apply(p, f); err != nil {
		return nil, err
	}

	if err := s.store.UpdateProject(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info().Str(logKeyProjectID, p.ID).Msg("project updated")

	return p, nil
}

// Archive hides the project from listings and freezes it against research,
// strategy generation and edits. Archiving twice is PROJECT_ARCHIVED.
func (s *Service) Archive(ctx context.Context, id string) (*domain.Project, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Archived {
		return nil, coreerrors.New(coreerrors.CodeProjectArchived, "project is already archived")
	}

	if err := s.store.ArchiveProject(ctx, id, s.now().UTC()); err != nil {
		return nil, err
	}

	s.logger.Info().Str(logKeyProjectID, id).Msg("project archived")

	return s.store.GetProject(ctx, id)
}

func errShortKnowledgeBase() error {
	return coreerrors.Newf(coreerrors.CodeInvalidInput, "knowledge base must be at least %d characters", MinKnowledgeBase)
}

func apply(p *domain.Project, f Fields) error {
	if f.Name != nil {
		name := strings.TrimSpace(*f.Name)
		if name == "" {
			return coreerrors.New(coreerrors.CodeInvalidInput, "project name is required")
		}

		p.Name = name
	}

	if f.KnowledgeBase != nil {
		kb := strings.TrimSpace(*f.KnowledgeBase)
		if len([]rune(kb)) < MinKnowledgeBase {
			return errShortKnowledgeBase()
		}

		p.KnowledgeBase = kb
	}

	if f.Language != nil {
		p.Language = strings.ToLower(strings.TrimSpace(*f.Language))
		if p.Language == "" {
			p.Language = defaultLanguage
		}
	}

	setTrimmed(&p.Description, f.Description)
	setTrimmed(&p.Target, f.Target)
	setTrimmed(&p.Objectives, f.Objectives)
	setTrimmed(&p.BlogURL, f.BlogURL)
	setTrimmed(&p.MainSiteURL, f.MainSiteURL)

	if f.CompetitorURLs != nil {
		p.CompetitorURLs = nonBlank(*f.CompetitorURLs)
	}

	if f.KeywordSeeds != nil {
		p.KeywordSeeds = nonBlank(*f.KeywordSeeds)
	}

	if f.FirstPublishDate != nil {
		day := schedule.DateOnly(f.FirstPublishDate.UTC())
		p.FirstPublishDate = &day
	}

	if f.AvoidCannibalization != nil {
		p.AvoidCannibalization = *f.AvoidCannibalization
	}

	return nil
}

func setTrimmed(dst, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))

	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}

	return out
}

// Package ports provides domain-centric interfaces for external dependencies.
// These interfaces follow the ports and adapters (hexagonal) architecture pattern,
// allowing business logic to remain independent of infrastructure concerns.
//
// Lookups of a single record return a coded not-found error
// (PROJECT_NOT_FOUND, SESSION_NOT_FOUND, STRATEGY_NOT_FOUND, POST_NOT_FOUND)
// unless documented to return nil, nil.
package ports

import (
	"context"
	"time"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
)

// ProjectStore persists editorial projects.
type ProjectStore interface {
	CreateProject(ctx context.Context, p *domain.Project) error
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	UpdateProjectStatus(ctx context.Context, id string, status domain.ProjectStatus) error
	// ListProjects returns the newest projects first. Archived projects are
	// left out unless includeArchived is set.
	ListProjects(ctx context.Context, includeArchived bool) ([]*domain.Project, error)
	// UpdateProject stores the editable fields of p. Status and archive state
	// are left alone.
	UpdateProject(ctx context.Context, p *domain.Project) error
	// ArchiveProject marks the project archived at the given time.
	ArchiveProject(ctx context.Context, id string, at time.Time) error
}

// ResearchRunRepository handles the research run lifecycle.
type ResearchRunRepository interface {
	// CreateRun inserts a PENDING run, remembers the project's current status
	// and moves the project to RESEARCH_PENDING. The project's COMPLETED and
	// FAILED runs are deleted with their clusters and keywords. It fails with
	// RESEARCH_FAILED when the project already has a PENDING or IN_PROGRESS run.
	CreateRun(ctx context.Context, run *domain.ResearchRun) error
	GetRun(ctx context.Context, id string) (*domain.ResearchRun, error)
	// GetApprovedRun returns nil, nil when the project has no approved run.
	GetApprovedRun(ctx context.Context, projectID string) (*domain.ResearchRun, error)
	// ClaimPendingRun moves the oldest PENDING run to IN_PROGRESS.
	// It returns nil, nil when no run is waiting.
	ClaimPendingRun(ctx context.Context) (*domain.ResearchRun, error)
	// StartRun moves the given PENDING run to IN_PROGRESS.
	StartRun(ctx context.Context, id string) (*domain.ResearchRun, error)
	// CompleteRun stores the final counters, marks the run COMPLETED and the
	// project RESEARCH_READY.
	CompleteRun(ctx context.Context, run *domain.ResearchRun) error
	// FailRun marks the run FAILED and restores the project's pre-run status.
	FailRun(ctx context.Context, id, message string) error
	// FailStaleRuns fails the IN_PROGRESS runs started before cutoff the way
	// FailRun does and returns how many there were.
	FailStaleRuns(ctx context.Context, cutoff time.Time, message string) (int, error)
	// ApproveRun marks a COMPLETED run APPROVED, demotes any previously
	// approved run of the project to COMPLETED and moves the project to
	// STRATEGY_READY.
	ApproveRun(ctx context.Context, id string, at time.Time) error
	UpdateRunCounts(ctx context.Context, runID string, counts domain.SelectionCounts) error
}

// KeywordRepository handles keywords and clusters of a run. Saves are
// idempotent upserts.
type KeywordRepository interface {
	SaveClusters(ctx context.Context, clusters []*domain.Cluster) error
	SaveKeywords(ctx context.Context, keywords []*domain.Keyword) error
	ListKeywords(ctx context.Context, runID string) ([]*domain.Keyword, error)
	// ListClusters returns the run's clusters by order index with their keywords.
	ListClusters(ctx context.Context, runID string) ([]*domain.Cluster, error)
	GetKeyword(ctx context.Context, id string) (*domain.Keyword, error)
	GetCluster(ctx context.Context, id string) (*domain.Cluster, error)
	UpdateKeywordSelections(ctx context.Context, selections map[string]domain.Selection) error
	UpdateClusterSelection(ctx context.Context, id string, sel domain.Selection) error
}

// ResearchStore combines run and keyword persistence.
type ResearchStore interface {
	ResearchRunRepository
	KeywordRepository
}

// ReplaceTx is the view of strategy storage inside a replacement
// transaction. Returned versions carry their items.
type ReplaceTx interface {
	// LockActiveVersion returns nil, nil when the session has no active version.
	LockActiveVersion(ctx context.Context, sessionID string) (*domain.StrategyVersion, error)
	// LockVersion returns nil, nil when the version does not exist.
	LockVersion(ctx context.Context, id string) (*domain.StrategyVersion, error)
	DeactivateVersion(ctx context.Context, id, replacedByID string, at time.Time) error
	ActivateVersion(ctx context.Context, id string, at time.Time) error
	RejectItems(ctx context.Context, ids []string, reason string) error
}

// StrategyStore persists strategy sessions, versions, pillars and content items.
type StrategyStore interface {
	CreateSession(ctx context.Context, s *domain.StrategySession) error
	GetSession(ctx context.Context, id string) (*domain.StrategySession, error)
	// GetOpenSession returns the project's ACTIVE session or nil, nil.
	GetOpenSession(ctx context.Context, projectID string) (*domain.StrategySession, error)
	// CreateVersion numbers the version after the session's highest one and
	// stores it with its pillars and items. The first version of a session
	// is stored active; later ones are drafts.
	CreateVersion(ctx context.Context, v *domain.StrategyVersion) error
	GetVersion(ctx context.Context, id string) (*domain.StrategyVersion, error)
	// GetActiveVersion returns nil, nil when the session has no active version.
	GetActiveVersion(ctx context.Context, sessionID string) (*domain.StrategyVersion, error)
	ListVersions(ctx context.Context, sessionID string) ([]*domain.StrategyVersion, error)
	// ApproveSession approves the PROPOSED items of the active version,
	// completes the session and activates the project. It returns the number
	// of approved items.
	ApproveSession(ctx context.Context, sessionID string, at time.Time) (int, error)
	// InReplaceTx runs fn in one transaction. Nothing fn wrote is kept when
	// it returns an error.
	InReplaceTx(ctx context.Context, fn func(tx ReplaceTx) error) error
	GetContentItem(ctx context.Context, id string) (*domain.ContentItem, error)
	// UpdateContentItem fails with DUPLICATE_KEYWORD when the primary keyword
	// collides with another item of the same version.
	UpdateContentItem(ctx context.Context, item *domain.ContentItem) error
	// UpdatePublishDates moves the items keyed by ID in one transaction and
	// marks them MODIFIED and manually edited. An unknown ID is POST_NOT_FOUND
	// and nothing moves.
	UpdatePublishDates(ctx context.Context, dates map[string]time.Time) error
	SaveValidation(ctx context.Context, result domain.ValidationResult) error
}

// Package strategy drafts editorial strategies from approved keyword
// research and owns the version lifecycle of a strategy session: creation,
// approval, transactional replacement and content item edits.
package strategy

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	coreerrors "github.com/lueurxax/editorial-planner/internal/core/errors"
	"github.com/lueurxax/editorial-planner/internal/core/ports"
	"github.com/lueurxax/editorial-planner/internal/platform/observability"
)

// Drafter produces an unsaved strategy version for a session.
type Drafter interface {
	Generate(ctx context.Context, sessionID string, in Input) (*domain.StrategyVersion, error)
}

// VersionValidator annotates the items of a stored version.
type VersionValidator interface {
	ValidateVersion(ctx context.Context, versionID string) (int, error)
}

// Manager owns strategy sessions and their versions.
type Manager struct {
	projects  ports.ProjectStore
	research  ports.ResearchStore
	store     ports.StrategyStore
	drafter   Drafter
	validator VersionValidator
	logger    *zerolog.Logger

	now func() time.Time
}

// NewManager builds a Manager. validator may be nil, in which case new
// versions are stored without validation.
func NewManager(
	projects ports.ProjectStore,
	research ports.ResearchStore,
	store ports.StrategyStore,
	drafter Drafter,
	validator VersionValidator,
	logger *zerolog.Logger,
) *Manager {
	return &Manager{
		projects:  projects,
		research:  research,
		store:     store,
		drafter:   drafter,
		validator: validator,
		logger:    logger,
		now:       time.Now,
	}
}

// GenerateRequest names the session to extend, or the project whose open
// session should be used (and created when missing).
type GenerateRequest struct {
	ProjectID string
	SessionID string
	Request   string
}

// ReplaceResult reports the effect of a replacement.
type ReplaceResult struct {
	ReplacedVersionID string `json:"replacedVersionId"`
	ActiveVersionID   string `json:"activeVersionId"`
	VersionNumber     int    `json:"versionNumber"`
	RejectedItems     int    `json:"rejectedItems"`
}

// Generate drafts and stores a new version. The first version of a session
// is active; later ones are drafts until they replace the active one.
func (m *Manager) Generate(ctx context.Context, req GenerateRequest) (*domain.StrategyVersion, error) {
	var session *domain.StrategySession

	projectID := req.ProjectID

	if req.SessionID != "" {
		s, err := m.store.GetSession(ctx, req.SessionID)
		if err != nil {
			return nil, err
		}

		session, projectID = s, s.ProjectID
	}

	if projectID == "" {
		return nil, coreerrors.New(coreerrors.CodeInvalidInput, "project or session is required")
	}

	project, err := m.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if project.Archived {
		return nil, coreerrors.New(coreerrors.CodeProjectArchived, "project is archived")
	}

	run, err := m.research.GetApprovedRun(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("get approved run: %w", err)
	}

	if run == nil {
		return nil, coreerrors.New(coreerrors.CodeValidationFailed, "keyword research must be approved before generating a strategy")
	}

	if session == nil {
		if session, err = m.openSession(ctx, project.ID, run.ID); err != nil {
			return nil, err
		}
	}

	if session.Status == domain.SessionCompleted {
		return nil, coreerrors.New(coreerrors.CodeSessionCompleted, "strategy session is completed")
	}

	clusters, err := m.research.ListClusters(ctx, run.ID)
	if err != nil {
		return nil, fmt.Errorf("list clusters: %w", err)
	}

	previous, err := m.store.GetActiveVersion(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("get active version: %w", err)
	}

	versions, err := m.store.ListVersions(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}

	v, err := m.drafter.Generate(ctx, session.ID, Input{
		Project:       project,
		Run:           run,
		Clusters:      clusters,
		Previous:      previous,
		Request:       req.Request,
		VersionNumber: len(versions) + 1,
	})
	if err != nil {
		return nil, err
	}

	if conflicts := domain.FindKeywordConflicts(v.Items); len(conflicts) > 0 {
		m.logger.Warn().Str(logKeySessionID, session.ID).Int(logKeyCount, len(conflicts)).
			Str("keyword", conflicts[0].Keyword).Msg("drafted strategy reuses primary keywords")

		return nil, coreerrors.Newf(coreerrors.CodeDuplicateKeyword,
			"%d duplicate primary keywords in the drafted strategy, first %q", len(conflicts), conflicts[0].Keyword)
	}

	return m.saveVersion(ctx, v)
}

// saveVersion stores v, validates its items and returns the stored version.
// A failed validation is logged and leaves the version unvalidated.
func (m *Manager) saveVersion(ctx context.Context, v *domain.StrategyVersion) (*domain.StrategyVersion, error) {
	if err := m.store.CreateVersion(ctx, v); err != nil {
		return nil, err
	}

	observability.StrategyVersionsCreated.Inc()
	m.logger.Info().
		Str(logKeySessionID, v.SessionID).
		Str(logKeyVersionID, v.ID).
		Int("version", v.VersionNumber).
		Bool("active", v.IsActive).
		Msg("strategy version created")

	if m.validator != nil {
		if _, err := m.validator.ValidateVersion(ctx, v.ID); err != nil {
			m.logger.Warn().Err(err).Str(logKeyVersionID, v.ID).Msg("strategy validation failed")
		}
	}

	return m.store.GetVersion(ctx, v.ID)
}

func (m *Manager) openSession(ctx context.Context, projectID, runID string) (*domain.StrategySession, error) {
	session, err := m.store.GetOpenSession(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("get open session: %w", err)
	}

	if session != nil {
		return session, nil
	}

	session = &domain.StrategySession{ProjectID: projectID, ResearchRunID: runID}
	if err := m.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	m.logger.Info().Str(logKeyProjectID, projectID).Str(logKeySessionID, session.ID).Msg("strategy session opened")

	return session, nil
}

// Approve approves the PROPOSED items of the session's active version and
// completes the session. It returns the number of approved items.
func (m *Manager) Approve(ctx context.Context, sessionID string) (int, error) {
	session, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return 0, err
	}

	if session.Status == domain.SessionCompleted {
		return 0, coreerrors.New(coreerrors.CodeSessionCompleted, "strategy session is already completed")
	}

	approved, err := m.store.ApproveSession(ctx, sessionID, m.now().UTC())
	if err != nil {
		return 0, err
	}

	m.logger.Info().Str(logKeySessionID, sessionID).Int(logKeyCount, approved).Msg("strategy approved")

	return approved, nil
}

// Replace makes versionID the active version of the session. In one
// transaction it deactivates the current version, activates the target and
// rejects the approved items of the old version whose titles the new
// version no longer has. Nothing changes when a precondition fails. A
// completed session keeps its approved version and is SESSION_COMPLETED.
func (m *Manager) Replace(ctx context.Context, sessionID, versionID string) (*ReplaceResult, error) {
	session, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Status == domain.SessionCompleted {
		return nil, coreerrors.New(coreerrors.CodeSessionCompleted, "strategy session is completed")
	}

	var result ReplaceResult

	err = m.store.InReplaceTx(ctx, func(tx ports.ReplaceTx) error {
		current, err := tx.LockActiveVersion(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("lock active version: %w", err)
		}

		if current == nil {
			return coreerrors.New(coreerrors.CodeNoActiveStrategy, "no active strategy found for this session")
		}

		target, err := tx.LockVersion(ctx, versionID)
		if err != nil {
			return fmt.Errorf("lock version: %w", err)
		}

		if target == nil {
			return coreerrors.New(coreerrors.CodeStrategyNotFound, "strategy version not found")
		}

		if target.SessionID != sessionID {
			return coreerrors.New(coreerrors.CodeInvalidInput, "strategy version does not belong to this session")
		}

		if target.ID == current.ID {
			return coreerrors.New(coreerrors.CodeStrategyAlreadyActive, "strategy version is already active")
		}

		now := m.now().UTC()

		if err := tx.DeactivateVersion(ctx, current.ID, target.ID, now); err != nil {
			return fmt.Errorf("deactivate version: %w", err)
		}

		if err := tx.ActivateVersion(ctx, target.ID, now); err != nil {
			return fmt.Errorf("activate version: %w", err)
		}

		orphans := domain.ComputeOrphans(current.Items, domain.Titles(target.Items))
		if len(orphans) > 0 {
			ids := make([]string, len(orphans))
			for i, item := range orphans {
				ids[i] = item.ID
			}

			if err := tx.RejectItems(ctx, ids, domain.ReplacementReason(target.VersionNumber)); err != nil {
				return fmt.Errorf("reject orphaned items: %w", err)
			}
		}

		result = ReplaceResult{
			ReplacedVersionID: current.ID,
			ActiveVersionID:   target.ID,
			VersionNumber:     target.VersionNumber,
			RejectedItems:     len(orphans),
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.StrategyReplacements.Inc()
	observability.OrphanedItemsRejected.Add(float64(result.RejectedItems))

	m.logger.Info().
		Str(logKeySessionID, sessionID).
		Str("replaced", result.ReplacedVersionID).
		Str(logKeyVersionID, result.ActiveVersionID).
		Int("rejected", result.RejectedItems).
		Msg("active strategy replaced")

	return &result, nil
}

// ListVersions returns the session's versions by version number.
func (m *Manager) ListVersions(ctx context.Context, sessionID string) ([]*domain.StrategyVersion, error) {
	if _, err := m.store.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	return m.store.ListVersions(ctx, sessionID)
}

// GetVersion returns one version with its pillars and items.
func (m *Manager) GetVersion(ctx context.Context, versionID string) (*domain.StrategyVersion, error) {
	return m.store.GetVersion(ctx, versionID)
}

// ItemUpdate holds operator edits to a content item. Nil fields are left
// unchanged.
type ItemUpdate struct {
	Title             *string              `json:"title,omitempty"`
	PrimaryKeyword    *string              `json:"primaryKeyword,omitempty"`
	SecondaryKeywords *[]string            `json:"secondaryKeywords,omitempty"`
	PublishDate       *time.Time           `json:"publishDate,omitempty"`
	Funnel            *domain.FunnelStage  `json:"funnelStage,omitempty"`
	Intent            *domain.SearchIntent `json:"searchIntent,omitempty"`
	Rationale         *string              `json:"rationale,omitempty"`
}

func (u ItemUpdate) empty() bool {
	return u.Title == nil && u.PrimaryKeyword == nil && u.SecondaryKeywords == nil &&
		u.PublishDate == nil && u.Funnel == nil && u.Intent == nil && u.Rationale == nil
}

// UpdateContentItem applies operator edits, marking the item MODIFIED and
// manually edited. A primary keyword already used by another item of the
// same version is DUPLICATE_KEYWORD.
func (m *Manager) UpdateContentItem(ctx context.Context, itemID string, upd ItemUpdate) (*domain.ContentItem, error) {
	if upd.empty() {
		return nil, coreerrors.New(coreerrors.CodeInvalidInput, "no changes given")
	}

	item, err := m.store.GetContentItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if err := applyUpdate(item, upd); err != nil {
		return nil, err
	}

	if upd.PrimaryKeyword != nil {
		if err := m.checkKeywordUnique(ctx, item); err != nil {
			return nil, err
		}
	}

	item.Status = domain.ItemModified
	item.ManuallyEdited = true

	if err := m.store.UpdateContentItem(ctx, item); err != nil {
		return nil, err
	}

	m.logger.Debug().Str(logKeyItemID, item.ID).Msg("content item updated")

	return item, nil
}

func applyUpdate(item *domain.ContentItem, upd ItemUpdate) error {
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return coreerrors.New(coreerrors.CodeInvalidInput, "title must not be empty")
		}

		item.Title = title
	}

	if upd.PrimaryKeyword != nil {
		keyword := strings.TrimSpace(*upd.PrimaryKeyword)
		if keyword == "" {
			return coreerrors.New(coreerrors.CodeInvalidInput, "primary keyword must not be empty")
		}

		item.PrimaryKeyword = keyword
	}

	if upd.SecondaryKeywords != nil {
		item.SecondaryKeywords = cleanStrings(*upd.SecondaryKeywords)
	}

	if upd.PublishDate != nil {
		item.PublishDate = upd.PublishDate.UTC()
	}

	if upd.Funnel != nil {
		if !upd.Funnel.Valid() {
			return coreerrors.Newf(coreerrors.CodeInvalidInput, "unknown funnel stage %q", *upd.Funnel)
		}

		item.Funnel = *upd.Funnel
	}

	if upd.Intent != nil {
		if !upd.Intent.Valid() {
			return coreerrors.Newf(coreerrors.CodeInvalidInput, "unknown search intent %q", *upd.Intent)
		}

		item.Intent = *upd.Intent
	}

	if upd.Rationale != nil {
		item.Rationale = *upd.Rationale
	}

	return nil
}

func (m *Manager) checkKeywordUnique(ctx context.Context, item *domain.ContentItem) error {
	v, err := m.store.GetVersion(ctx, item.VersionID)
	if err != nil {
		return err
	}

	key := domain.PrimaryKeywordKey(item.PrimaryKeyword)

	if slices.ContainsFunc(v.Items, func(other domain.ContentItem) bool {
		return other.ID != item.ID && domain.PrimaryKeywordKey(other.PrimaryKeyword) == key
	}) {
		return coreerrors.Newf(coreerrors.CodeDuplicateKeyword, "primary keyword %q is already used in this strategy", item.PrimaryKeyword)
	}

	return nil
}

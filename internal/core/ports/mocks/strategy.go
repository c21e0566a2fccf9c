package mocks

import (
	"context"
	"time"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	coreerrors "github.com/lueurxax/editorial-planner/internal/core/errors"
	"github.com/lueurxax/editorial-planner/internal/core/ports"
)

func errVersionNotFound() error {
	return coreerrors.New(coreerrors.CodeStrategyNotFound, "strategy version not found")
}

func errSessionNotFound() error {
	return coreerrors.New(coreerrors.CodeSessionNotFound, "strategy session not found")
}

func cloneItem(item domain.ContentItem) domain.ContentItem {
	item.SecondaryKeywords = append([]string(nil), item.SecondaryKeywords...)
	item.InternalLinks = append([]string(nil), item.InternalLinks...)
	item.ExternalLinks = append([]string(nil), item.ExternalLinks...)
	item.Warnings = append([]domain.Warning(nil), item.Warnings...)

	return item
}

func cloneVersion(v *domain.StrategyVersion) *domain.StrategyVersion {
	cp := *v
	cp.Pillars = append([]domain.Pillar(nil), v.Pillars...)
	cp.Items = make([]domain.ContentItem, len(v.Items))

	for i, item := range v.Items {
		cp.Items[i] = cloneItem(item)
	}

	return &cp
}

// CreateSession stores a new ACTIVE session.
func (s *Store) CreateSession(_ context.Context, session *domain.StrategySession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session.ID = newID(session.ID)
	session.Status = domain.SessionActive
	session.CreatedAt = s.now()

	cp := *session
	s.sessions[session.ID] = &cp

	return nil
}

// GetSession returns a copy of the stored session.
func (s *Store) GetSession(_ context.Context, id string) (*domain.StrategySession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, errSessionNotFound()
	}

	cp := *session

	return &cp, nil
}

// GetOpenSession returns the project's ACTIVE session or nil.
func (s *Store) GetOpenSession(_ context.Context, projectID string) (*domain.StrategySession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, session := range s.sessions {
		if session.ProjectID == projectID && session.Status == domain.SessionActive {
			cp := *session

			return &cp, nil
		}
	}

	return nil, nil //nolint:nilnil // nil,nil indicates no open session
}

// CreateVersion numbers and stores a version with its pillars and items.
func (s *Store) CreateVersion(_ context.Context, v *domain.StrategyVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[v.SessionID]; !ok {
		return errSessionNotFound()
	}

	if conflicts := domain.FindKeywordConflicts(v.Items); len(conflicts) > 0 {
		return coreerrors.Newf(coreerrors.CodeDuplicateKeyword, "primary keyword %q is used twice", conflicts[0].Keyword)
	}

	maxVersion := 0

	for _, existing := range s.versions {
		if existing.SessionID == v.SessionID && existing.VersionNumber > maxVersion {
			maxVersion = existing.VersionNumber
		}
	}

	now := s.now()
	v.ID = newID(v.ID)
	v.VersionNumber = maxVersion + 1
	v.IsActive = maxVersion == 0
	v.CreatedAt = now

	if v.IsActive {
		v.ActivatedAt = &now
	}

	for i := range v.Pillars {
		v.Pillars[i].ID = newID(v.Pillars[i].ID)
		v.Pillars[i].VersionID = v.ID
	}

	for i := range v.Items {
		item := &v.Items[i]
		item.ID = newID(item.ID)
		item.VersionID = v.ID

		if item.PillarIndex >= 0 && item.PillarIndex < len(v.Pillars) {
			item.PillarID = v.Pillars[item.PillarIndex].ID
		}

		if item.Status == "" {
			item.Status = domain.ItemProposed
		}

		item.CreatedAt = now
		item.UpdatedAt = now
	}

	s.versions[v.ID] = cloneVersion(v)

	return nil
}

// GetVersion returns a copy of the stored version.
func (s *Store) GetVersion(_ context.Context, id string) (*domain.StrategyVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.versions[id]
	if !ok {
		return nil, errVersionNotFound()
	}

	return cloneVersion(v), nil
}

// GetActiveVersion returns the session's active version or nil.
func (s *Store) GetActiveVersion(_ context.Context, sessionID string) (*domain.StrategyVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v := s.activeVersion(sessionID); v != nil {
		return cloneVersion(v), nil
	}

	return nil, nil //nolint:nilnil // nil,nil indicates no active version
}

func (s *Store) activeVersion(sessionID string) *domain.StrategyVersion {
	for _, v := range s.versions {
		if v.SessionID == sessionID && v.IsActive {
			return v
		}
	}

	return nil
}

// ListVersions returns the session's versions by version number.
func (s *Store) ListVersions(_ context.Context, sessionID string) ([]*domain.StrategyVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.StrategyVersion

	for _, v := range s.versions {
		if v.SessionID == sessionID {
			out = append(out, cloneVersion(v))
		}
	}

	return sortedByOrder(out, func(a, b *domain.StrategyVersion) bool { return a.VersionNumber < b.VersionNumber }), nil
}

// ActiveVersionCount returns how many versions of the session are active, for assertions.
func (s *Store) ActiveVersionCount(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0

	for _, v := range s.versions {
		if v.SessionID == sessionID && v.IsActive {
			n++
		}
	}

	return n
}

// ApproveSession approves the active version's PROPOSED items and completes the session.
func (s *Store) ApproveSession(_ context.Context, sessionID string, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return 0, errSessionNotFound()
	}

	active := s.activeVersion(sessionID)
	if active == nil {
		return 0, coreerrors.New(coreerrors.CodeNoActiveStrategy, "session has no active strategy")
	}

	approved := 0

	for i := range active.Items {
		if active.Items[i].Status == domain.ItemProposed {
			active.Items[i].Status = domain.ItemApproved
			active.Items[i].ApprovedAt = &at
			approved++
		}
	}

	session.Status = domain.SessionCompleted
	session.CompletedAt = &at
	s.setProjectStatus(session.ProjectID, domain.ProjectActive)

	return approved, nil
}

// InReplaceTx runs fn under the store lock and restores every version when fn fails.
func (s *Store) InReplaceTx(_ context.Context, fn func(tx ports.ReplaceTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(map[string]*domain.StrategyVersion, len(s.versions))
	for id, v := range s.versions {
		snapshot[id] = cloneVersion(v)
	}

	if err := fn(&replaceTx{store: s}); err != nil {
		s.versions = snapshot

		return err
	}

	return nil
}

// replaceTx operates on the store while InReplaceTx holds its lock.
type replaceTx struct {
	store *Store
}

func (tx *replaceTx) LockActiveVersion(_ context.Context, sessionID string) (*domain.StrategyVersion, error) {
	if v := tx.store.activeVersion(sessionID); v != nil {
		return cloneVersion(v), nil
	}

	return nil, nil //nolint:nilnil // nil,nil indicates no active version
}

func (tx *replaceTx) LockVersion(_ context.Context, id string) (*domain.StrategyVersion, error) {
	if v, ok := tx.store.versions[id]; ok {
		return cloneVersion(v), nil
	}

	return nil, nil //nolint:nilnil // nil,nil indicates missing version
}

func (tx *replaceTx) DeactivateVersion(_ context.Context, id, replacedByID string, at time.Time) error {
	v, ok := tx.store.versions[id]
	if !ok {
		return errVersionNotFound()
	}

	v.IsActive = false
	v.ReplacedByID = replacedByID
	v.ReplacedAt = &at

	return nil
}

func (tx *replaceTx) ActivateVersion(_ context.Context, id string, at time.Time) error {
	v, ok := tx.store.versions[id]
	if !ok {
		return errVersionNotFound()
	}

	v.IsActive = true
	v.ActivatedAt = &at

	return nil
}

func (tx *replaceTx) RejectItems(_ context.Context, ids []string, reason string) error {
	reject := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		reject[id] = struct{}{}
	}

	for _, v := range tx.store.versions {
		for i := range v.Items {
			if _, ok := reject[v.Items[i].ID]; ok {
				v.Items[i].Status = domain.ItemRejected
				v.Items[i].RejectionReason = reason
			}
		}
	}

	return nil
}

func (s *Store) findItem(id string) (*domain.StrategyVersion, int) {
	for _, v := range s.versions {
		for i := range v.Items {
			if v.Items[i].ID == id {
				return v, i
			}
		}
	}

	return nil, -1
}

// GetContentItem returns a copy of the stored item.
func (s *Store) GetContentItem(_ context.Context, id string) (*domain.ContentItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, i := s.findItem(id)
	if v == nil {
		return nil, coreerrors.New(coreerrors.CodePostNotFound, "content item not found")
	}

	item := cloneItem(v.Items[i])

	return &item, nil
}

// UpdateContentItem replaces the stored item, enforcing primary keyword uniqueness.
func (s *Store) UpdateContentItem(ctx context.Context, item *domain.ContentItem) error {
	if s.UpdateContentItemFn != nil {
		return s.UpdateContentItemFn(ctx, item)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v, idx := s.findItem(item.ID)
	if v == nil {
		return coreerrors.New(coreerrors.CodePostNotFound, "content item not found")
	}

	key := domain.PrimaryKeywordKey(item.PrimaryKeyword)

	for i, other := range v.Items {
		if i != idx && domain.PrimaryKeywordKey(other.PrimaryKeyword) == key {
			return coreerrors.Newf(coreerrors.CodeDuplicateKeyword, "primary keyword %q is already used", item.PrimaryKeyword)
		}
	}

	item.UpdatedAt = s.now()
	v.Items[idx] = cloneItem(*item)

	return nil
}

// UpdatePublishDates moves the items, leaving every item untouched when one is unknown.
func (s *Store) UpdatePublishDates(_ context.Context, dates map[string]time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range dates {
		if v, _ := s.findItem(id); v == nil {
			return coreerrors.New(coreerrors.CodePostNotFound, "content item not found")
		}
	}

	now := s.now()

	for id, date := range dates {
		v, i := s.findItem(id)
		v.Items[i].PublishDate = date
		v.Items[i].Status = domain.ItemModified
		v.Items[i].ManuallyEdited = true
		v.Items[i].UpdatedAt = now
	}

	return nil
}

// SaveValidation stores a validation verdict on its item.
func (s *Store) SaveValidation(_ context.Context, result domain.ValidationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, i := s.findItem(result.ItemID)
	if v == nil {
		return coreerrors.New(coreerrors.CodePostNotFound, "content item not found")
	}

	at := result.ValidatedAt
	v.Items[i].Confidence = result.Confidence
	v.Items[i].Warnings = append([]domain.Warning(nil), result.Warnings...)
	v.Items[i].KBSnapshot = result.KBSnapshot
	v.Items[i].ValidatedAt = &at

	return nil
}

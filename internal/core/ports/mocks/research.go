package mocks

import (
	"context"
	"slices"
	"time"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	coreerrors "github.com/lueurxax/editorial-planner/internal/core/errors"
)

func errRunNotFound() error {
	return coreerrors.New(coreerrors.CodeResearchNotFound, "research run not found")
}

// CreateRun stores a PENDING run and moves the project to RESEARCH_PENDING.
func (s *Store) CreateRun(_ context.Context, run *domain.ResearchRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[run.ProjectID]
	if !ok {
		return coreerrors.New(coreerrors.CodeProjectNotFound, "project not found")
	}

	for _, existing := range s.runs {
		if existing.ProjectID == run.ProjectID && existing.Status.IsActive() {
			return coreerrors.New(coreerrors.CodeResearchFailed, "research already in progress")
		}
	}

	s.deleteSupersededRuns(run.ProjectID)

	now := s.now()
	run.ID = newID(run.ID)
	run.Status = domain.RunPending
	run.PreviousProjectStatus = p.Status
	run.CreatedAt = now
	run.UpdatedAt = now

	cp := *run
	s.runs[run.ID] = &cp
	s.setProjectStatus(run.ProjectID, domain.ProjectResearchPending)

	return nil
}

// deleteSupersededRuns drops the project's COMPLETED and FAILED runs with
// their clusters and keywords.
func (s *Store) deleteSupersededRuns(projectID string) {
	for id, run := range s.runs {
		if run.ProjectID != projectID || (run.Status != domain.RunCompleted && run.Status != domain.RunFailed) {
			continue
		}

		delete(s.runs, id)

		s.clusterOrder = slices.DeleteFunc(s.clusterOrder, func(cid string) bool {
			c, ok := s.clusters[cid]
			if ok && c.RunID == id {
				delete(s.clusters, cid)
				return true
			}

			return false
		})

		s.keywordOrder = slices.DeleteFunc(s.keywordOrder, func(kid string) bool {
			kw, ok := s.keywords[kid]
			if ok && kw.RunID == id {
				delete(s.keywords, kid)
				return true
			}

			return false
		})
	}
}

// RunCount returns how many runs the project has.
func (s *Store) RunCount(projectID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0

	for _, run := range s.runs {
		if run.ProjectID == projectID {
			n++
		}
	}

	return n
}

// GetRun returns a copy of the stored run.
func (s *Store) GetRun(_ context.Context, id string) (*domain.ResearchRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, errRunNotFound()
	}

	cp := *run

	return &cp, nil
}

// GetApprovedRun returns the project's approved run or nil.
func (s *Store) GetApprovedRun(_ context.Context, projectID string) (*domain.ResearchRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, run := range s.runs {
		if run.ProjectID == projectID && run.Status == domain.RunApproved {
			cp := *run

			return &cp, nil
		}
	}

	return nil, nil //nolint:nilnil // nil,nil indicates no approved run
}

// ClaimPendingRun moves the oldest PENDING run to IN_PROGRESS.
func (s *Store) ClaimPendingRun(_ context.Context) (*domain.ResearchRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var oldest *domain.ResearchRun

	for _, run := range s.runs {
		if run.Status != domain.RunPending {
			continue
		}

		if oldest == nil || run.CreatedAt.Before(oldest.CreatedAt) {
			oldest = run
		}
	}

	if oldest == nil {
		return nil, nil //nolint:nilnil // nil,nil indicates no pending run
	}

	s.markStarted(oldest)
	cp := *oldest

	return &cp, nil
}

// StartRun moves a PENDING run to IN_PROGRESS.
func (s *Store) StartRun(_ context.Context, id string) (*domain.ResearchRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, errRunNotFound()
	}

	if run.Status != domain.RunPending {
		return nil, coreerrors.Newf(coreerrors.CodeResearchFailed, "research run is %s, not PENDING", run.Status)
	}

	s.markStarted(run)
	cp := *run

	return &cp, nil
}

func (s *Store) markStarted(run *domain.ResearchRun) {
	now := s.now()
	run.Status = domain.RunInProgress
	run.StartedAt = &now
	run.UpdatedAt = now
}

// CompleteRun marks the run COMPLETED and the project RESEARCH_READY.
func (s *Store) CompleteRun(_ context.Context, run *domain.ResearchRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.runs[run.ID]
	if !ok {
		return errRunNotFound()
	}

	now := s.now()
	stored.Status = domain.RunCompleted
	stored.TotalKeywords = run.TotalKeywords
	stored.TotalClusters = run.TotalClusters
	stored.AutomaticSelected = run.AutomaticSelected
	stored.OperatorSelected = run.OperatorSelected
	stored.SelectedKeywords = run.SelectedKeywords
	stored.UsedPremium = run.UsedPremium
	stored.PremiumProvider = run.PremiumProvider
	stored.FallbackSelection = run.FallbackSelection
	stored.CompletedAt = &now
	stored.UpdatedAt = now

	s.setProjectStatus(stored.ProjectID, domain.ProjectResearchReady)

	return nil
}

// FailRun marks the run FAILED and restores the project's pre-run status.
func (s *Store) FailRun(_ context.Context, id, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return errRunNotFound()
	}

	s.failLocked(run, message)

	return nil
}

func (s *Store) failLocked(run *domain.ResearchRun, message string) {
	now := s.now()
	run.Status = domain.RunFailed
	run.ErrorMessage = message
	run.CompletedAt = &now
	run.UpdatedAt = now

	previous := run.PreviousProjectStatus
	if previous == "" {
		previous = domain.ProjectDraft
	}

	s.setProjectStatus(run.ProjectID, previous)
}

// FailStaleRuns fails the IN_PROGRESS runs started before cutoff.
func (s *Store) FailStaleRuns(_ context.Context, cutoff time.Time, message string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0

	for _, run := range s.runs {
		if run.Status != domain.RunInProgress || run.StartedAt == nil || !run.StartedAt.Before(cutoff) {
			continue
		}

		s.failLocked(run, message)
		n++
	}

	return n, nil
}

// ApproveRun marks a COMPLETED run APPROVED.
func (s *Store) ApproveRun(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return errRunNotFound()
	}

	if run.Status != domain.RunCompleted {
		return coreerrors.Newf(coreerrors.CodeValidationFailed, "research run is %s, not COMPLETED", run.Status)
	}

	for _, other := range s.runs {
		if other.ProjectID == run.ProjectID && other.Status == domain.RunApproved {
			other.Status = domain.RunCompleted
			other.ApprovedAt = nil
		}
	}

	run.Status = domain.RunApproved
	run.ApprovedAt = &at
	run.UpdatedAt = s.now()

	s.setProjectStatus(run.ProjectID, domain.ProjectStrategyReady)

	return nil
}

// UpdateRunCounts stores selection counters.
func (s *Store) UpdateRunCounts(_ context.Context, runID string, counts domain.SelectionCounts) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return errRunNotFound()
	}

	run.AutomaticSelected = counts.Automatic
	run.OperatorSelected = counts.Operator
	run.SelectedKeywords = counts.Selected
	run.UpdatedAt = s.now()

	return nil
}

// SaveClusters upserts clusters by id.
func (s *Store) SaveClusters(_ context.Context, clusters []*domain.Cluster) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range clusters {
		c.ID = newID(c.ID)

		if _, exists := s.clusters[c.ID]; !exists {
			s.clusterOrder = append(s.clusterOrder, c.ID)
		}

		cp := *c
		cp.Keywords = nil
		s.clusters[c.ID] = &cp
	}

	return nil
}

// SaveKeywords upserts keywords by (run, text).
func (s *Store) SaveKeywords(ctx context.Context, keywords []*domain.Keyword) error {
	if s.SaveKeywordsFn != nil {
		return s.SaveKeywordsFn(ctx, keywords)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byText := make(map[string]string, len(s.keywords))
	for id, kw := range s.keywords {
		byText[kw.RunID+"\x00"+kw.Text] = id
	}

	now := s.now()

	for _, kw := range keywords {
		if id, ok := byText[kw.RunID+"\x00"+kw.Text]; ok {
			kw.ID = id
		} else {
			kw.ID = newID(kw.ID)
			kw.CreatedAt = now
			s.keywordOrder = append(s.keywordOrder, kw.ID)
			byText[kw.RunID+"\x00"+kw.Text] = kw.ID
		}

		kw.UpdatedAt = now
		cp := *kw
		s.keywords[kw.ID] = &cp
	}

	return nil
}

// ListKeywords returns the run's keywords in insertion order.
func (s *Store) ListKeywords(_ context.Context, runID string) ([]*domain.Keyword, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.keywordsWhere(func(kw *domain.Keyword) bool { return kw.RunID == runID }), nil
}

func (s *Store) keywordsWhere(match func(*domain.Keyword) bool) []*domain.Keyword {
	var out []*domain.Keyword

	for _, id := range s.keywordOrder {
		kw := s.keywords[id]
		if match(kw) {
			cp := *kw
			out = append(out, &cp)
		}
	}

	return out
}

// ListClusters returns the run's clusters by order index with their keywords.
func (s *Store) ListClusters(_ context.Context, runID string) ([]*domain.Cluster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Cluster

	for _, id := range s.clusterOrder {
		c := s.clusters[id]
		if c.RunID == runID {
			out = append(out, s.clusterWithKeywords(c))
		}
	}

	return sortedByOrder(out, func(a, b *domain.Cluster) bool { return a.OrderIndex < b.OrderIndex }), nil
}

func (s *Store) clusterWithKeywords(c *domain.Cluster) *domain.Cluster {
	cp := *c
	cp.Keywords = s.keywordsWhere(func(kw *domain.Keyword) bool { return kw.ClusterID == c.ID })

	return &cp
}

// GetKeyword returns a copy of the stored keyword.
func (s *Store) GetKeyword(_ context.Context, id string) (*domain.Keyword, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kw, ok := s.keywords[id]
	if !ok {
		return nil, coreerrors.New(coreerrors.CodeKeywordNotFound, "keyword not found")
	}

	cp := *kw

	return &cp, nil
}

// GetCluster returns a copy of the stored cluster with its keywords.
func (s *Store) GetCluster(_ context.Context, id string) (*domain.Cluster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clusters[id]
	if !ok {
		return nil, coreerrors.New(coreerrors.CodeClusterNotFound, "cluster not found")
	}

	return s.clusterWithKeywords(c), nil
}

// UpdateKeywordSelections sets the selection of each keyword id.
func (s *Store) UpdateKeywordSelections(_ context.Context, selections map[string]domain.Selection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range selections {
		if _, ok := s.keywords[id]; !ok {
			return coreerrors.New(coreerrors.CodeKeywordNotFound, "keyword not found")
		}
	}

	now := s.now()

	for id, sel := range selections {
		s.keywords[id].Selection = sel
		s.keywords[id].UpdatedAt = now
	}

	return nil
}

// UpdateClusterSelection sets the cluster's own selection.
func (s *Store) UpdateClusterSelection(_ context.Context, id string, sel domain.Selection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clusters[id]
	if !ok {
		return coreerrors.New(coreerrors.CodeClusterNotFound, "cluster not found")
	}

	c.Selection = sel

	return nil
}

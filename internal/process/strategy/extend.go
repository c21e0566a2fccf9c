package strategy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	coreerrors "github.com/lueurxax/editorial-planner/internal/core/errors"
	"github.com/lueurxax/editorial-planner/internal/platform/schedule"
)

const (
	defaultExtendDays = 30
	maxExtendDays     = 365
	daysPerPost       = 7
)

// Extend drafts a continuation of a version. The result is a new draft
// version holding every item of the base followed by about one post a week
// for days more days, starting the day after the base's last publish date.
// Drafted posts whose pillar the base lacks or whose primary keyword the base
// already uses are dropped. The draft becomes active through Replace.
func (m *Manager) Extend(ctx context.Context, versionID string, days int) (*domain.StrategyVersion, error) {
	if days == 0 {
		days = defaultExtendDays
	}

	if days < 0 || days > maxExtendDays {
		return nil, coreerrors.Newf(coreerrors.CodeInvalidInput, "additional days must be between 1 and %d", maxExtendDays)
	}

	base, err := m.store.GetVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}

	session, err := m.store.GetSession(ctx, base.SessionID)
	if err != nil {
		return nil, err
	}

	if session.Status == domain.SessionCompleted {
		return nil, coreerrors.New(coreerrors.CodeSessionCompleted, "strategy session is completed")
	}

	project, err := m.projects.GetProject(ctx, session.ProjectID)
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
		return nil, coreerrors.New(coreerrors.CodeValidationFailed, "keyword research must be approved before extending a strategy")
	}

	clusters, err := m.research.ListClusters(ctx, run.ID)
	if err != nil {
		return nil, fmt.Errorf("list clusters: %w", err)
	}

	versions, err := m.store.ListVersions(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}

	window := schedule.NextAvailableWindow(publishDates(base.Items), days, m.now().UTC())
	posts := (days + daysPerPost - 1) / daysPerPost

	draft, err := m.drafter.Generate(ctx, session.ID, Input{
		Project:       project,
		Run:           run,
		Clusters:      clusters,
		Previous:      base,
		Request:       extendRequest(posts, window.Start),
		Window:        &window,
		VersionNumber: len(versions) + 1,
	})
	if err != nil {
		return nil, err
	}

	v, dropped := mergeExtension(base, draft)
	if dropped > 0 {
		m.logger.Warn().Str(logKeyVersionID, base.ID).Int(logKeyCount, dropped).
			Msg("extension posts with unknown pillar or reused keyword dropped")
	}

	if added := len(v.Items) - len(base.Items); added == 0 {
		return nil, coreerrors.New(coreerrors.CodeAIServiceError, "strategy extension added no posts")
	}

	m.logger.Info().
		Str(logKeyVersionID, base.ID).
		Time("window_start", window.Start).
		Int("days", days).
		Int("posts", len(v.Items)-len(base.Items)).
		Msg("strategy extension drafted")

	return m.saveVersion(ctx, v)
}

func extendRequest(posts int, start time.Time) string {
	return fmt.Sprintf("Continue the editorial calendar with %d additional posts, maintaining the same pillars "+
		"and strategic direction. Start from %s.", posts, start.Format(dateLayout))
}

func publishDates(items []domain.ContentItem) []time.Time {
	dates := make([]time.Time, 0, len(items))
	for _, item := range items {
		if !item.PublishDate.IsZero() {
			dates = append(dates, item.PublishDate)
		}
	}

	return dates
}

// mergeExtension copies base into an unsaved version and appends the drafted
// posts. It returns the number of drafted posts it dropped.
func mergeExtension(base, draft *domain.StrategyVersion) (*domain.StrategyVersion, int) {
	v := &domain.StrategyVersion{
		SessionID:       base.SessionID,
		GlobalRationale: base.GlobalRationale,
		IdentifiedGaps:  base.IdentifiedGaps,
		Pillars:         make([]domain.Pillar, len(base.Pillars)),
		Items:           make([]domain.ContentItem, 0, len(base.Items)+len(draft.Items)),
	}

	byID := make(map[string]int, len(base.Pillars))
	byName := make(map[string]int, len(base.Pillars))

	for i, p := range base.Pillars {
		v.Pillars[i] = domain.Pillar{
			Name:        p.Name,
			Description: p.Description,
			Rationale:   p.Rationale,
			Color:       p.Color,
			OrderIndex:  p.OrderIndex,
		}
		byID[p.ID] = i
		byName[pillarKey(p.Name)] = i
	}

	used := make(map[string]struct{}, cap(v.Items))

	for _, item := range base.Items {
		pillar, ok := byID[item.PillarID]
		if !ok {
			pillar = -1
		}

		item.ID, item.VersionID, item.PillarID = "", "", ""
		item.PillarIndex = pillar
		item.OrderIndex = len(v.Items)
		item.SecondaryKeywords = append([]string(nil), item.SecondaryKeywords...)
		item.InternalLinks = append([]string(nil), item.InternalLinks...)
		item.ExternalLinks = append([]string(nil), item.ExternalLinks...)
		item.Warnings = append([]domain.Warning(nil), item.Warnings...)

		used[domain.PrimaryKeywordKey(item.PrimaryKeyword)] = struct{}{}
		v.Items = append(v.Items, item)
	}

	dropped := 0

	for _, item := range draft.Items {
		if item.PillarIndex < 0 || item.PillarIndex >= len(draft.Pillars) {
			dropped++
			continue
		}

		pillar, ok := byName[pillarKey(draft.Pillars[item.PillarIndex].Name)]
		if !ok {
			dropped++
			continue
		}

		key := domain.PrimaryKeywordKey(item.PrimaryKeyword)
		if _, dup := used[key]; dup {
			dropped++
			continue
		}

		used[key] = struct{}{}
		item.PillarIndex = pillar
		item.OrderIndex = len(v.Items)
		v.Items = append(v.Items, item)
	}

	return v, dropped
}

func pillarKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// DateUpdate moves one content item to a new publish date.
type DateUpdate struct {
	ItemID      string    `json:"postId"`
	PublishDate time.Time `json:"publishDate"`
}

// UpdatePublishDates moves several items of one version in a single
// transaction. Every item must belong to the version; moved items are marked
// MODIFIED and manually edited. It returns the number of moved items.
func (m *Manager) UpdatePublishDates(ctx context.Context, versionID string, updates []DateUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, coreerrors.New(coreerrors.CodeInvalidInput, "no date updates given")
	}

	v, err := m.store.GetVersion(ctx, versionID)
	if err != nil {
		return 0, err
	}

	members := make(map[string]struct{}, len(v.Items))
	for _, item := range v.Items {
		members[item.ID] = struct{}{}
	}

	dates := make(map[string]time.Time, len(updates))

	for _, u := range updates {
		if u.PublishDate.IsZero() {
			return 0, coreerrors.Newf(coreerrors.CodeInvalidInput, "publish date is required for content item %s", u.ItemID)
		}

		if _, ok := members[u.ItemID]; !ok {
			return 0, coreerrors.Newf(coreerrors.CodePostNotFound, "content item %s is not part of this strategy", u.ItemID)
		}

		if _, dup := dates[u.ItemID]; dup {
			return 0, coreerrors.Newf(coreerrors.CodeInvalidInput, "content item %s is moved twice", u.ItemID)
		}

		dates[u.ItemID] = u.PublishDate.UTC()
	}

	if err := m.store.UpdatePublishDates(ctx, dates); err != nil {
		return 0, err
	}

	m.logger.Info().Str(logKeyVersionID, versionID).Int(logKeyCount, len(dates)).Msg("publish dates updated")

	return len(dates), nil
}

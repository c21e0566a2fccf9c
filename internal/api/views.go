package api

import (
	"time"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	"github.com/lueurxax/editorial-planner/internal/process/research"
)

type projectView struct {
	ID                   string               `json:"id"`
	Name                 string               `json:"name"`
	Description          string               `json:"description"`
	Language             string               `json:"language"`
	Target               string               `json:"target"`
	Objectives           string               `json:"objectives"`
	BlogURL              string               `json:"blogUrl,omitempty"`
	MainSiteURL          string               `json:"mainSiteUrl,omitempty"`
	CompetitorURLs       []string             `json:"competitorUrls"`
	KeywordSeeds         []string             `json:"keywordSeeds"`
	KnowledgeBase        string               `json:"knowledgeBase"`
	FirstPublishDate     string               `json:"firstPublishDate,omitempty"`
	AvoidCannibalization bool                 `json:"avoidCannibalization"`
	Status               domain.ProjectStatus `json:"status"`
	Archived             bool                 `json:"archived"`
	ArchivedAt           *time.Time           `json:"archivedAt,omitempty"`
	CreatedAt            time.Time            `json:"createdAt"`
	UpdatedAt            time.Time            `json:"updatedAt"`
}

type runView struct {
	ID                string           `json:"id"`
	ProjectID         string           `json:"projectId"`
	Status            domain.RunStatus `json:"status"`
	TotalKeywords     int              `json:"totalKeywords"`
	TotalClusters     int              `json:"totalClusters"`
	AutomaticSelected int              `json:"aiSelectedCount"`
	OperatorSelected  int              `json:"userSelectedCount"`
	SelectedKeywords  int              `json:"selectedCount"`
	UsedPremium       bool             `json:"usedPremium"`
	PremiumProvider   string           `json:"premiumProvider,omitempty"`
	FallbackSelection bool             `json:"fallbackSelection"`
	ErrorMessage      string           `json:"errorMessage,omitempty"`
	StartedAt         *time.Time       `json:"startedAt,omitempty"`
	CompletedAt       *time.Time       `json:"completedAt,omitempty"`
	ApprovedAt        *time.Time       `json:"approvedAt,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
	Clusters          []clusterView    `json:"clusters,omitempty"`
}

type clusterView struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	OrderIndex     int                 `json:"orderIndex"`
	TotalKeywords  int                 `json:"totalKeywords"`
	AvgDifficulty  float64             `json:"avgDifficulty"`
	TotalVolume    int                 `json:"totalVolume"`
	DominantFunnel domain.FunnelStage  `json:"dominantFunnel,omitempty"`
	DominantIntent domain.SearchIntent `json:"dominantIntent,omitempty"`
	PriorityScore  float64             `json:"priorityScore"`
	SelectedByAI   bool                `json:"isSelectedByAI"`
	SelectedByUser bool                `json:"isSelectedByUser"`
	Rationale      string              `json:"rationale,omitempty"`
	Keywords       []keywordView       `json:"keywords,omitempty"`
}

type keywordView struct {
	ID                 string              `json:"id"`
	ClusterID          string              `json:"clusterId,omitempty"`
	Text               string              `json:"keyword"`
	FreeVolume         string              `json:"volumeRange,omitempty"`
	FreeDifficulty     domain.Difficulty   `json:"difficultyLevel,omitempty"`
	Volume             *int                `json:"searchVolume,omitempty"`
	Difficulty         *int                `json:"difficulty,omitempty"`
	CPC                *float64            `json:"cpc,omitempty"`
	Competition        *float64            `json:"competition,omitempty"`
	SERP               domain.SERPFeatures `json:"serpFeatures"`
	Intent             domain.SearchIntent `json:"searchIntent,omitempty"`
	Funnel             domain.FunnelStage  `json:"funnelStage,omitempty"`
	Overlap            bool                `json:"hasExistingContent"`
	OverlapURL         string              `json:"existingContentUrl,omitempty"`
	SelectedByAI       bool                `json:"isSelectedByAI"`
	SelectedByUser     bool                `json:"isSelectedByUser"`
	SelectionRationale string              `json:"selectionRationale,omitempty"`
	Source             string              `json:"source,omitempty"`
}

type versionView struct {
	ID              string       `json:"id"`
	SessionID       string       `json:"sessionId"`
	VersionNumber   int          `json:"versionNumber"`
	IsActive        bool         `json:"isActive"`
	GlobalRationale string       `json:"globalRationale"`
	IdentifiedGaps  string       `json:"identifiedGaps"`
	ActivatedAt     *time.Time   `json:"activatedAt,omitempty"`
	ReplacedByID    string       `json:"replacedById,omitempty"`
	ReplacedAt      *time.Time   `json:"replacedAt,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	Pillars         []pillarView `json:"pillars"`
	Items           []itemView   `json:"posts"`
}

type pillarView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Rationale   string `json:"rationale,omitempty"`
	Color       string `json:"color"`
	OrderIndex  int    `json:"orderIndex"`
}

type itemView struct {
	ID                string                `json:"id"`
	PillarID          string                `json:"pillarId"`
	OrderIndex        int                   `json:"orderIndex"`
	Title             string                `json:"title"`
	PrimaryKeyword    string                `json:"primaryKeyword"`
	SecondaryKeywords []string              `json:"secondaryKeywords"`
	Intent            domain.SearchIntent   `json:"searchIntent"`
	Funnel            domain.FunnelStage    `json:"funnelStage"`
	PublishDate       string                `json:"publishDate"`
	Rationale         string                `json:"rationale,omitempty"`
	Metrics           domain.KeywordMetrics `json:"keywordMetrics"`
	InternalLinks     []string              `json:"internalLinks"`
	ExternalLinks     []string              `json:"externalLinks"`
	Status            domain.ItemStatus     `json:"status"`
	ApprovedAt        *time.Time            `json:"approvedAt,omitempty"`
	RejectionReason   string                `json:"rejectionReason,omitempty"`
	ManuallyEdited    bool                  `json:"manuallyEdited"`
	Confidence        domain.Confidence     `json:"confidenceLevel,omitempty"`
	Warnings          []domain.Warning      `json:"warnings"`
	ValidatedAt       *time.Time            `json:"validatedAt,omitempty"`
}

func newProjectView(p *domain.Project) projectView {
	v := projectView{
		ID:                   p.ID,
		Name:                 p.Name,
		Description:          p.Description,
		Language:             p.Language,
		Target:               p.Target,
		Objectives:           p.Objectives,
		BlogURL:              p.BlogURL,
		MainSiteURL:          p.MainSiteURL,
		CompetitorURLs:       nonNil(p.CompetitorURLs),
		KeywordSeeds:         nonNil(p.KeywordSeeds),
		KnowledgeBase:        p.KnowledgeBase,
		AvoidCannibalization: p.AvoidCannibalization,
		Status:               p.Status,
		Archived:             p.Archived,
		ArchivedAt:           p.ArchivedAt,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}

	if p.FirstPublishDate != nil {
		v.FirstPublishDate = p.FirstPublishDate.Format(time.DateOnly)
	}

	return v
}

func newRunView(run *domain.ResearchRun, clusters []*domain.Cluster) runView {
	v := runView{
		ID:                run.ID,
		ProjectID:         run.ProjectID,
		Status:            run.Status,
		TotalKeywords:     run.TotalKeywords,
		TotalClusters:     run.TotalClusters,
		AutomaticSelected: run.AutomaticSelected,
		OperatorSelected:  run.OperatorSelected,
		SelectedKeywords:  run.SelectedKeywords,
		UsedPremium:       run.UsedPremium,
		PremiumProvider:   run.PremiumProvider,
		FallbackSelection: run.FallbackSelection,
		ErrorMessage:      run.ErrorMessage,
		StartedAt:         run.StartedAt,
		CompletedAt:       run.CompletedAt,
		ApprovedAt:        run.ApprovedAt,
		CreatedAt:         run.CreatedAt,
	}

	for _, c := range clusters {
		v.Clusters = append(v.Clusters, newClusterView(c))
	}

	return v
}

func newResearchView(view *research.View) runView {
	return newRunView(view.Run, view.Clusters)
}

func newClusterView(c *domain.Cluster) clusterView {
	v := clusterView{
		ID:             c.ID,
		Name:           c.Name,
		OrderIndex:     c.OrderIndex,
		TotalKeywords:  c.TotalKeywords,
		AvgDifficulty:  c.AvgDifficulty,
		TotalVolume:    c.TotalVolume,
		DominantFunnel: c.DominantFunnel,
		DominantIntent: c.DominantIntent,
		PriorityScore:  c.PriorityScore,
		SelectedByAI:   c.Selection.ByAutomatic(),
		SelectedByUser: c.Selection.ByOperator(),
		Rationale:      c.Rationale,
	}

	for _, kw := range c.Keywords {
		v.Keywords = append(v.Keywords, newKeywordView(kw))
	}

	return v
}

func newKeywordView(kw *domain.Keyword) keywordView {
	return keywordView{
		ID:                 kw.ID,
		ClusterID:          kw.ClusterID,
		Text:               kw.Text,
		FreeVolume:         kw.FreeVolume,
		FreeDifficulty:     kw.FreeDifficulty,
		Volume:             kw.PremiumVolume,
		Difficulty:         kw.PremiumDifficulty,
		CPC:                kw.PremiumCPC,
		Competition:        kw.PremiumCompetition,
		SERP:               kw.SERP,
		Intent:             kw.Intent,
		Funnel:             kw.Funnel,
		Overlap:            kw.Overlap,
		OverlapURL:         kw.OverlapURL,
		SelectedByAI:       kw.Selection.ByAutomatic(),
		SelectedByUser:     kw.Selection.ByOperator(),
		SelectionRationale: kw.SelectionRationale,
		Source:             kw.Source,
	}
}

func newVersionView(v *domain.StrategyVersion) versionView {
	out := versionView{
		ID:              v.ID,
		SessionID:       v.SessionID,
		VersionNumber:   v.VersionNumber,
		IsActive:        v.IsActive,
		GlobalRationale: v.GlobalRationale,
		IdentifiedGaps:  v.IdentifiedGaps,
		ActivatedAt:     v.ActivatedAt,
		ReplacedByID:    v.ReplacedByID,
		ReplacedAt:      v.ReplacedAt,
		CreatedAt:       v.CreatedAt,
		Pillars:         make([]pillarView, 0, len(v.Pillars)),
		Items:           make([]itemView, 0, len(v.Items)),
	}

	for _, p := range v.Pillars {
		out.Pillars = append(out.Pillars, pillarView{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Rationale:   p.Rationale,
			Color:       p.Color,
			OrderIndex:  p.OrderIndex,
		})
	}

	for i := range v.Items {
		out.Items = append(out.Items, newItemView(&v.Items[i]))
	}

	return out
}

func newItemView(item *domain.ContentItem) itemView {
	return itemView{
		ID:                item.ID,
		PillarID:          item.PillarID,
		OrderIndex:        item.OrderIndex,
		Title:             item.Title,
		PrimaryKeyword:    item.PrimaryKeyword,
		SecondaryKeywords: nonNil(item.SecondaryKeywords),
		Intent:            item.Intent,
		Funnel:            item.Funnel,
		PublishDate:       item.PublishDate.Format(time.DateOnly),
		Rationale:         item.Rationale,
		Metrics:           item.Metrics,
		InternalLinks:     nonNil(item.InternalLinks),
		ExternalLinks:     nonNil(item.ExternalLinks),
		Status:            item.Status,
		ApprovedAt:        item.ApprovedAt,
		RejectionReason:   item.RejectionReason,
		ManuallyEdited:    item.ManuallyEdited,
		Confidence:        item.Confidence,
		Warnings:          nonNil(item.Warnings),
		ValidatedAt:       item.ValidatedAt,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}

	return s
}

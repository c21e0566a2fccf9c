package domain

import "time"

// ProjectStatus is the lifecycle state of an editorial project.
type ProjectStatus string

// Project status values.
const (
	ProjectDraft           ProjectStatus = "DRAFT"
	ProjectResearchPending ProjectStatus = "RESEARCH_PENDING"
	ProjectResearchReady   ProjectStatus = "RESEARCH_READY"
	ProjectStrategyReady   ProjectStatus = "STRATEGY_READY"
	ProjectActive          ProjectStatus = "ACTIVE"
)

// Project is the owner of research runs and strategy sessions.
type Project struct {
	ID                   string
	Name                 string
	Description          string
	Language             string
	Target               string
	Objectives           string
	BlogURL              string
	MainSiteURL          string
	CompetitorURLs       []string
	KeywordSeeds         []string
	KnowledgeBase        string
	FirstPublishDate     *time.Time
	AvoidCannibalization bool
	Status               ProjectStatus
	Archived             bool
	ArchivedAt           *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// RunStatus is the lifecycle state of a research run.
type RunStatus string

// Research run status values.
const (
	RunPending    RunStatus = "PENDING"
	RunInProgress RunStatus = "IN_PROGRESS"
	RunCompleted  RunStatus = "COMPLETED"
	RunFailed     RunStatus = "FAILED"
	RunApproved   RunStatus = "APPROVED"
)

var runTransitions = map[RunStatus][]RunStatus{
	RunPending:    {RunInProgress, RunFailed},
	RunInProgress: {RunCompleted, RunFailed},
	RunCompleted:  {RunApproved},
}

// CanTransition reports whether a run may move from s to next.
func (s RunStatus) CanTransition(next RunStatus) bool {
	for _, allowed := range runTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// IsActive reports whether the run still occupies the project's research slot.
func (s RunStatus) IsActive() bool {
	return s == RunPending || s == RunInProgress
}

// MinApprovalKeywords is the selected-keyword floor for approving a run.
const MinApprovalKeywords = 30

// ResearchRun is one execution of the keyword research pipeline.
type ResearchRun struct {
	ID                    string
	ProjectID             string
	Status                RunStatus
	PreviousProjectStatus ProjectStatus
	TotalKeywords         int
	TotalClusters         int
	AutomaticSelected     int
	OperatorSelected      int
	SelectedKeywords      int
	UsedPremium           bool
	PremiumProvider       string
	FallbackSelection     bool
	ErrorMessage          string
	StartedAt             *time.Time
	CompletedAt           *time.Time
	ApprovedAt            *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Cluster is a named group of keywords sharing a topic.
type Cluster struct {
	ID             string
	RunID          string
	Name           string
	OrderIndex     int
	TotalKeywords  int
	AvgDifficulty  float64
	TotalVolume    int
	DominantFunnel FunnelStage
	DominantIntent SearchIntent
	PriorityScore  float64
	Selection      Selection
	Rationale      string
	Keywords       []*Keyword
}

// SelectionCounts tallies selection provenance over a keyword set.
// Selected counts a keyword once even when both provenances apply.
type SelectionCounts struct {
	Automatic int
	Operator  int
	Selected  int
}

// CountSelections tallies the selection state of the given keywords.
func CountSelections(keywords []*Keyword) SelectionCounts {
	var c SelectionCounts

	for _, kw := range keywords {
		if kw.Selection.ByAutomatic() {
			c.Automatic++
		}

		if kw.Selection.ByOperator() {
			c.Operator++
		}

		if kw.Selection.IsSelected() {
			c.Selected++
		}
	}

	return c
}

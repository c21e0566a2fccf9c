package domain

import (
	"fmt"
	"strings"
	"time"
)

// SessionStatus is the lifecycle state of a strategy session.
type SessionStatus string

// Session status values.
const (
	SessionActive    SessionStatus = "ACTIVE"
	SessionCompleted SessionStatus = "COMPLETED"
)

// StrategySession groups the competing strategy versions of a project.
type StrategySession struct {
	ID            string
	ProjectID     string
	ResearchRunID string
	Status        SessionStatus
	CompletedAt   *time.Time
	CreatedAt     time.Time
}

// StrategyVersion is a numbered snapshot of an editorial plan.
// At most one version per session is active.
type StrategyVersion struct {
	ID              string
	SessionID       string
	VersionNumber   int
	IsActive        bool
	GlobalRationale string
	IdentifiedGaps  string
	ActivatedAt     *time.Time
	ReplacedByID    string
	ReplacedAt      *time.Time
	CreatedAt       time.Time
	Pillars         []Pillar
	Items           []ContentItem
}

// Pillar is a thematic column of a strategy version.
type Pillar struct {
	ID          string
	VersionID   string
	Name        string
	Description string
	Rationale   string
	Color       string
	OrderIndex  int
}

// ItemStatus is the review state of a content item.
type ItemStatus string

// Content item status values.
const (
	ItemProposed ItemStatus = "PROPOSED"
	ItemApproved ItemStatus = "APPROVED"
	ItemRejected ItemStatus = "REJECTED"
	ItemModified ItemStatus = "MODIFIED"
)

// Confidence is the validator's confidence in a content item.
type Confidence string

// Confidence levels.
const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// WarningType classifies a validation warning.
type WarningType string

// Warning types.
const (
	WarningClaimNotInKB      WarningType = "claim_not_in_kb"
	WarningKeywordUnverified WarningType = "keyword_unverified"
	WarningServiceMismatch   WarningType = "service_mismatch"
	WarningGeneric           WarningType = "generic_warning"
)

// Warning is one validator annotation on a content item.
type Warning struct {
	Type    WarningType `json:"type"`
	Message string      `json:"message"`
	Detail  string      `json:"detail,omitempty"`
}

// KeywordMetrics is the metric snapshot attached to a content item.
type KeywordMetrics struct {
	Volume      *int   `json:"volume,omitempty"`
	Difficulty  *int   `json:"difficulty,omitempty"`
	Opportunity string `json:"opportunity,omitempty"`
}

// ContentItem is one planned unit of content in a strategy version.
type ContentItem struct {
	ID                string
	VersionID         string
	PillarID          string
	PillarIndex       int
	OrderIndex        int
	Title             string
	PrimaryKeyword    string
	SecondaryKeywords []string
	Intent            SearchIntent
	Funnel            FunnelStage
	PublishDate       time.Time
	Rationale         string
	Metrics           KeywordMetrics
	InternalLinks     []string
	ExternalLinks     []string
	Status            ItemStatus
	ApprovedAt        *time.Time
	RejectionReason   string
	ManuallyEdited    bool
	Confidence        Confidence
	Warnings          []Warning
	ValidatedAt       *time.Time
	KBSnapshot        string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ReplacementReason is the rejection reason stamped on orphaned approved items.
func ReplacementReason(versionNumber int) string {
	return fmt.Sprintf("Removed by strategy v%d replacement", versionNumber)
}

// ComputeOrphans returns the items of the old version that were APPROVED and
// whose title does not appear among the new version's titles. Titles compare
// exactly. Proposed, modified and rejected items are never orphans.
func ComputeOrphans(oldItems []ContentItem, newTitles []string) []ContentItem {
	keep := make(map[string]struct{}, len(newTitles))
	for _, t := range newTitles {
		keep[t] = struct{}{}
	}

	var orphans []ContentItem

	for _, item := range oldItems {
		if item.Status != ItemApproved {
			continue
		}

		if _, ok := keep[item.Title]; ok {
			continue
		}

		orphans = append(orphans, item)
	}

	return orphans
}

// Titles returns the titles of the given items in order.
func Titles(items []ContentItem) []string {
	titles := make([]string, 0, len(items))
	for _, item := range items {
		titles = append(titles, item.Title)
	}

	return titles
}

// KeywordConflict describes two items sharing a primary keyword.
type KeywordConflict struct {
	Keyword string
	First   int
	Second  int
}

// PrimaryKeywordKey is the case-insensitive identity of a primary keyword.
func PrimaryKeywordKey(keyword string) string {
	return strings.ToLower(strings.TrimSpace(keyword))
}

// FindKeywordConflicts returns every pair of items whose primary keywords
// collide case-insensitively. Indexes refer to the input slice.
func FindKeywordConflicts(items []ContentItem) []KeywordConflict {
	seen := make(map[string]int, len(items))

	var conflicts []KeywordConflict

	for i, item := range items {
		key := PrimaryKeywordKey(item.PrimaryKeyword)
		if first, ok := seen[key]; ok {
			conflicts = append(conflicts, KeywordConflict{Keyword: key, First: first, Second: i})
			continue
		}

		seen[key] = i
	}

	return conflicts
}

// ValidationResult is the validator's verdict on one content item.
type ValidationResult struct {
	ItemID      string
	IsValid     bool
	Confidence  Confidence
	Warnings    []Warning
	KBSnapshot  string
	ValidatedAt time.Time
}

package strategy

const (
	logKeyProjectID = "project_id"
	logKeySessionID = "session_id"
	logKeyVersionID = "version_id"
	logKeyItemID    = "item_id"
	logKeyCount     = "count"

	defaultMaxKeywords      = 150
	defaultKnowledgeBaseMax = 4000
	defaultPeriodDays       = 30

	strategyMaxTokens = 16000

	truncatedMarker = "...[truncated]"

	clusterTopKeywords = 10

	defaultGlobalRationale = "No rationale provided"
	defaultIdentifiedGaps  = "No gaps identified"

	notProvided  = "Not provided"
	notSpecified = "Not specified"
	notAvailable = "N/A"

	dateLayout = "2006-01-02"
)

// pillarPalette is cycled when the collaborator leaves a pillar without a colour.
var pillarPalette = []string{
	"#3B82F6",
	"#10B981",
	"#F59E0B",
	"#EF4444",
	"#8B5CF6",
	"#EC4899",
	"#06B6D4",
	"#F97316",
}

// PillarColor returns the palette colour for the pillar at index.
func PillarColor(index int) string {
	if index < 0 {
		index = -index
	}

	return pillarPalette[index%len(pillarPalette)]
}

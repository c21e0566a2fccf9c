package research

const (
	logKeyRunID     = "run_id"
	logKeyProjectID = "project_id"
	logKeyTask      = "task"
	logKeyBatch     = "batch"
	logKeyCount     = "count"
	logKeyKeywordID = "keyword_id"
	logKeyClusterID = "cluster_id"

	defaultClassifyBatchSize  = 200
	defaultSelectionTargetMax = 100

	classifyMaxTokens = 8000
	clusterMaxTokens  = 16000
	selectMaxTokens   = 16000

	// OtherTopicsCluster collects keywords the clustering collaborator left out.
	OtherTopicsCluster = "Other topics"

	// FallbackRationale marks keywords chosen by the heuristic selector.
	FallbackRationale = "Auto-selected: Optimal volume/difficulty ratio"

	fallbackSelectionRatio       = 0.7
	fallbackFeaturedSnippetBonus = 50
	fallbackPAABonus             = 20
	fallbackOverlapPenalty       = 100

	priorityDifficultyWeight = 0.5
	priorityVolumeWeight     = 0.4
	priorityBonusWeight      = 0.1
	priorityVolumeDivisor    = 100
	priorityVolumeCap        = 100
	priorityMaxDifficulty    = 100
	prioritySnippetIncrement = 5

	selectionPromptTopKeywords = 5

	statusCompleted = "completed"
	statusFailed    = "failed"
)

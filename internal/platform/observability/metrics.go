package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ResearchRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_research_runs_total",
		Help: "Research runs by terminal status",
	}, []string{"status"})

	ResearchRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "planner_research_run_duration_seconds",
		Help:    "Duration of research pipeline executions",
		Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200},
	})

	ResearchKeywords = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "planner_research_keywords",
		Help:    "Aggregated keywords per research run",
		Buckets: []float64{10, 25, 50, 100, 200, 400, 800},
	})

	SourceResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_source_results_total",
		Help: "Keyword candidates returned per free source",
	}, []string{"source"})

	SourceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_source_failures_total",
		Help: "Free source invocations that failed or timed out",
	}, []string{"source"})

	SourceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planner_source_duration_seconds",
		Help:    "Duration of free source invocations",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	PremiumBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_premium_batches_total",
		Help: "Premium enrichment batches by provider and outcome",
	}, []string{"provider", "status"})

	PremiumKeywordsEnriched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_premium_keywords_enriched_total",
		Help: "Keywords that received premium metrics",
	}, []string{"provider"})

	CollaboratorParseFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_collaborator_parse_failures_total",
		Help: "Collaborator responses that could not be parsed",
	}, []string{"task"})

	ClassificationDefaults = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planner_classification_defaults_total",
		Help: "Keywords that received default classification",
	})

	FallbackSelections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planner_fallback_selections_total",
		Help: "Research runs where the heuristic selector was used",
	})

	StrategyVersionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planner_strategy_versions_created_total",
		Help: "Strategy versions created",
	})

	StrategyReplacements = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planner_strategy_replacements_total",
		Help: "Active strategy replacements",
	})

	OrphanedItemsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planner_orphaned_items_rejected_total",
		Help: "Approved content items rejected by a strategy replacement",
	})

	ValidationOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_validation_outcomes_total",
		Help: "Content item validations by confidence",
	}, []string{"confidence"})

	ValidationServiceFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planner_validation_service_failures_total",
		Help: "Validations downgraded because the collaborator failed",
	})

	// LLM provider metrics

	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_llm_requests_total",
		Help: "Total LLM requests by provider, model, task, and status",
	}, []string{"provider", "model", "task", "status"})

	LLMTokensPrompt = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_llm_tokens_prompt_total",
		Help: "Total prompt tokens by provider, model, and task",
	}, []string{"provider", "model", "task"})

	LLMTokensCompletion = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_llm_tokens_completion_total",
		Help: "Total completion tokens by provider, model, and task",
	}, []string{"provider", "model", "task"})

	LLMRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planner_llm_request_latency_seconds",
		Help:    "LLM request latency by provider, model, and task",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"provider", "model", "task"})

	LLMFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_llm_fallbacks_total",
		Help: "LLM fallbacks from one provider to another",
	}, []string{"from_provider", "to_provider", "task"})

	LLMProviderAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "planner_llm_provider_available",
		Help: "Whether an LLM provider is available (1) or not (0)",
	}, []string{"provider"})

	LLMCircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "planner_llm_circuit_breaker_state",
		Help: "Circuit breaker state per provider (0 closed, 1 open)",
	}, []string{"provider"})

	LLMCircuitBreakerOpens = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_llm_circuit_breaker_opens_total",
		Help: "Times a provider circuit breaker opened",
	}, []string{"provider"})
)

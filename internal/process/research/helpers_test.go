package research

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	"github.com/lueurxax/editorial-planner/internal/core/llm"
	"github.com/lueurxax/editorial-planner/internal/process/research/premium"
	"github.com/lueurxax/editorial-planner/internal/process/research/sources"
)

// stubLLM answers each task with a fixed text or error and records prompts.
type stubLLM struct {
	mu      sync.Mutex
	answers map[llm.TaskType]string
	errs    map[llm.TaskType]error
	prompts map[llm.TaskType][]string
}

func newStubLLM() *stubLLM {
	return &stubLLM{
		answers: make(map[llm.TaskType]string),
		errs:    make(map[llm.TaskType]error),
		prompts: make(map[llm.TaskType][]string),
	}
}

func (s *stubLLM) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prompts[req.Task] = append(s.prompts[req.Task], req.Prompt)

	if err := s.errs[req.Task]; err != nil {
		return llm.Response{}, err
	}

	return llm.Response{Text: s.answers[req.Task], Provider: "stub"}, nil
}

func (s *stubLLM) calls(task llm.TaskType) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.prompts[task])
}

type stubCollector struct {
	results []sources.Result
}

func (c *stubCollector) Collect(context.Context, sources.Query) []sources.Result {
	return c.results
}

type stubEnricher struct {
	metrics map[string]premium.Metrics
	err     error
}

func (e *stubEnricher) ProviderName() string { return "stubseo" }

func (e *stubEnricher) Enrich(context.Context, []string, string) (map[string]premium.Metrics, error) {
	return e.metrics, e.err
}

type stubAnalyzer struct {
	own *sources.OwnContent
	err error
}

func (a *stubAnalyzer) Analyze(context.Context, string) (*sources.OwnContent, error) {
	return a.own, a.err
}

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func newTestPipeline(client llm.Client, collector SourceCollector, enricher PremiumEnricher, analyzer ContentAnalyzer) *Pipeline {
	logger := nopLogger()

	return NewPipeline(PipelineDeps{
		Collector:  collector,
		Analyzer:   analyzer,
		Enricher:   enricher,
		Classifier: NewClassifier(client, 0, logger),
		Clusterer:  NewClusterer(client, logger),
		Selector:   NewSelector(client, 0, logger),
	}, logger)
}

func keywordsFromTexts(texts ...string) []*domain.Keyword {
	out := make([]*domain.Keyword, len(texts))
	for i, t := range texts {
		out[i] = &domain.Keyword{
			Text:           domain.NormalizeKeyword(t),
			FreeDifficulty: domain.DifficultyMedium,
			Selection:      domain.SelectionNone,
		}
	}

	return out
}

func intPtr(v int) *int {
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}

func findKeyword(keywords []*domain.Keyword, text string) *domain.Keyword {
	for _, kw := range keywords {
		if kw.Text == text {
			return kw
		}
	}

	return nil
}

func suggestCandidates(texts ...string) []sources.Candidate {
	out := make([]sources.Candidate, len(texts))
	for i, t := range texts {
		out[i] = sources.Candidate{Keyword: strings.ToUpper(t[:1]) + t[1:], Source: sources.SourceSuggest}
	}

	return out
}

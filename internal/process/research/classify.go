package research

import (
	"context"
	"slices"

	"github.com/rs/zerolog"

	"github.com/lueurxax/editorial-planner/internal/core/domain"
	coreerrors "github.com/lueurxax/editorial-planner/internal/core/errors"
	"github.com/lueurxax/editorial-planner/internal/core/llm"
	"github.com/lueurxax/editorial-planner/internal/platform/observability"
	"github.com/lueurxax/editorial-planner/internal/process/research/sources"
)

type classification struct {
	Keyword             string  `json:"keyword"`
	SearchIntent        string  `json:"searchIntent"`
	FunnelStage         string  `json:"funnelStage"`
	IsInExistingContent bool    `json:"isInExistingContent"`
	ExistingContentURL  *string `json:"existingContentUrl"`
}

// Classifier assigns intent, funnel stage and existing-content overlap.
type Classifier struct {
	client    llm.Client
	batchSize int
	logger    *zerolog.Logger
}

// NewClassifier builds a Classifier that sends batchSize keywords per call.
func NewClassifier(client llm.Client, batchSize int, logger *zerolog.Logger) *Classifier {
	if batchSize <= 0 {
		batchSize = defaultClassifyBatchSize
	}

	return &Classifier{client: client, batchSize: batchSize, logger: logger}
}

// Classify labels keywords in place, one collaborator call per batch.
// Keywords the collaborator omits, or labels it with unknown values, get
// INFORMATIONAL / ToF / no overlap. Overlap found in own content is always
// kept. Only a failed collaborator call is returned as an error; an
// unparsable answer falls back to defaults.
func (c *Classifier) Classify(ctx context.Context, project *domain.Project, keywords []*domain.Keyword, own *sources.OwnContent) error {
	batch := 0

	for chunk := range slices.Chunk(keywords, c.batchSize) {
		batch++

		labels, err := c.classifyBatch(ctx, project, chunk, batch)
		if err != nil {
			return err
		}

		defaults := applyClassifications(chunk, labels, own)
		if defaults > 0 {
			observability.ClassificationDefaults.Add(float64(defaults))
			c.logger.Debug().Int(logKeyBatch, batch).Int(logKeyCount, defaults).Msg("keywords classified with defaults")
		}
	}

	return nil
}

func (c *Classifier) classifyBatch(ctx context.Context, project *domain.Project, chunk []*domain.Keyword, batch int) (map[string]classification, error) {
	resp, err := c.client.Complete(ctx, llm.Request{
		Task:      llm.TaskClassify,
		Prompt:    buildClassificationPrompt(project, chunk),
		MaxTokens: classifyMaxTokens,
	})
	if err != nil {
		return nil, coreerrors.Wrap(coreerrors.CodeAIServiceError, "keyword classification failed", err)
	}

	parsed, err := llm.DecodeJSON[[]classification](resp.Text, '[')
	if err != nil {
		observability.CollaboratorParseFailures.WithLabelValues(string(llm.TaskClassify)).Inc()
		c.logger.Warn().Err(err).Str(logKeyTask, string(llm.TaskClassify)).Int(logKeyBatch, batch).
			Msg("classification response unparsable, using defaults")

		return nil, nil //nolint:nilnil // no labels means every keyword gets defaults
	}

	labels := make(map[string]classification, len(parsed))

	for _, item := range parsed {
		key := domain.NormalizeKeyword(item.Keyword)
		if _, seen := labels[key]; key == "" || seen {
			continue
		}

		labels[key] = item
	}

	return labels, nil
}

// applyClassifications writes labels onto keywords and returns how many
// keywords were left without a collaborator label.
func applyClassifications(keywords []*domain.Keyword, labels map[string]classification, own *sources.OwnContent) int {
	defaults := 0

	for _, kw := range keywords {
		kw.Intent = domain.IntentInformational
		kw.Funnel = domain.FunnelToF
		kw.Overlap = false
		kw.OverlapURL = ""

		label, ok := labels[kw.Text]
		if !ok {
			defaults++
		} else {
			if intent := domain.SearchIntent(label.SearchIntent); intent.Valid() {
				kw.Intent = intent
			}

			if funnel := domain.FunnelStage(label.FunnelStage); funnel.Valid() {
				kw.Funnel = funnel
			}

			kw.Overlap = label.IsInExistingContent
			if label.ExistingContentURL != nil {
				kw.OverlapURL = *label.ExistingContentURL
			}
		}

		if url, covered := own.Covers(kw.Text); covered {
			kw.Overlap = true
			if kw.OverlapURL == "" {
				kw.OverlapURL = url
			}
		}
	}

	return defaults
}

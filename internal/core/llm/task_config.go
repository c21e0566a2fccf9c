package llm

// TaskType identifies the type of LLM task.
type TaskType string

// Task type constants.
const (
	TaskClassify TaskType = "classify"
	TaskCluster  TaskType = "cluster"
	TaskSelect   TaskType = "select"
	TaskStrategy TaskType = "strategy"
	TaskValidate TaskType = "validate"
)

// ProviderModel specifies a provider and model combination.
type ProviderModel struct {
	Provider ProviderName
	Model    string
}

// TaskProviderChain defines the provider/model fallback chain for a task.
type TaskProviderChain struct {
	Default   ProviderModel
	Fallbacks []ProviderModel
}

// DefaultTaskConfig returns the default provider/model fallback chain per task.
func DefaultTaskConfig() map[TaskType]TaskProviderChain {
	return map[TaskType]TaskProviderChain{
		// Classify: high volume, cheap models
		TaskClassify: {
			Default: ProviderModel{Provider: ProviderOpenAI, Model: "gpt-4o-mini"},
			Fallbacks: []ProviderModel{
				{Provider: ProviderAnthropic, Model: "claude-haiku-4-5"},
				{Provider: ProviderGoogle, Model: "gemini-2.0-flash"},
			},
		},

		TaskCluster: {
			Default: ProviderModel{Provider: ProviderAnthropic, Model: "claude-sonnet-4-5"},
			Fallbacks: []ProviderModel{
				{Provider: ProviderOpenAI, Model: "gpt-4o"},
				{Provider: ProviderGoogle, Model: "gemini-2.5-pro"},
			},
		},

		TaskSelect: {
			Default: ProviderModel{Provider: ProviderAnthropic, Model: "claude-sonnet-4-5"},
			Fallbacks: []ProviderModel{
				{Provider: ProviderOpenAI, Model: "gpt-4o"},
				{Provider: ProviderGoogle, Model: "gemini-2.5-pro"},
			},
		},

		// Strategy: long structured output
		TaskStrategy: {
			Default: ProviderModel{Provider: ProviderAnthropic, Model: "claude-sonnet-4-5"},
			Fallbacks: []ProviderModel{
				{Provider: ProviderOpenAI, Model: "gpt-4o"},
				{Provider: ProviderGoogle, Model: "gemini-2.5-pro"},
			},
		},

		TaskValidate: {
			Default: ProviderModel{Provider: ProviderOpenAI, Model: "gpt-4o-mini"},
			Fallbacks: []ProviderModel{
				{Provider: ProviderAnthropic, Model: "claude-haiku-4-5"},
				{Provider: ProviderGoogle, Model: "gemini-2.0-flash"},
			},
		},
	}
}

// GetProviderChain returns the ordered list of provider/model combinations for a task.
func (tc TaskProviderChain) GetProviderChain() []ProviderModel {
	chain := make([]ProviderModel, 0, 1+len(tc.Fallbacks))
	chain = append(chain, tc.Default)
	chain = append(chain, tc.Fallbacks...)

	return chain
}

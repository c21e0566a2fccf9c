package config

import "time"

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	PostgresDSN       string
	MaxConnections    int32
	MinConnections    int32
	MaxConnIdleTime   time.Duration
	MaxConnLifetime   time.Duration
	HealthCheckPeriod time.Duration
}

// LLMConfig holds collaborator provider settings.
type LLMConfig struct {
	OpenAIAPIKey     string
	AnthropicAPIKey  string
	GoogleAPIKey     string
	RateLimitRPS     int
	Timeout          time.Duration
	CircuitThreshold int
	CircuitTimeout   time.Duration

	// Per-task model overrides
	ClassifyModel string
	ClusterModel  string
	SelectModel   string
	StrategyModel string
	ValidateModel string
}

// SourcesConfig holds free keyword source settings.
type SourcesConfig struct {
	Timeout            time.Duration
	SuggestMax         int
	SuggestBaseURL     string
	SERPBaseURL        string
	SERPDelay          time.Duration
	SERPMaxSeeds       int
	RedditBaseURL      string
	TrendsMinScore     int
	TrendsFeedURL      string
	TrendsFeedEnabled  bool
	CompetitorMax      int
	CompetitorDelay    time.Duration
	CompetitorTimeout  time.Duration
	BrowserUserAgent   string
	BotUserAgent       string
	OwnContentMaxPosts int
}

// PremiumConfig holds metered keyword-data provider settings.
type PremiumConfig struct {
	Provider          string
	DataForSEOAPIKey  string
	DataForSEOBaseURL string
	AhrefsAPIKey      string
	AhrefsBaseURL     string
	SEMrushAPIKey     string
	SEMrushBaseURL    string
	SEMrushDatabase   string
	BatchSize         int
	BatchDelay        time.Duration
	Timeout           time.Duration
}

// Enabled reports whether a premium provider is selected.
func (p PremiumConfig) Enabled() bool {
	return p.Provider != "" && p.Provider != PremiumNone
}

// ResearchConfig holds research pipeline settings.
type ResearchConfig struct {
	ClassifyBatchSize   int
	SelectionTargetMax  int
	MinApprovalKeywords int
	PollInterval        time.Duration
	RunTimeout          time.Duration

	// StaleAfter is how long a run may stay IN_PROGRESS before it is
	// failed as abandoned. Zero disables reaping.
	StaleAfter time.Duration
}

// StrategyConfig holds strategy generation settings.
type StrategyConfig struct {
	PeriodDays       int
	MaxKeywords      int
	KnowledgeBaseMax int
}

// ValidationConfig holds post validator settings.
type ValidationConfig struct {
	BatchSize     int
	BatchDelay    time.Duration
	KBSnapshotLen int
}

// APIConfig holds HTTP API settings.
type APIConfig struct {
	Port  int
	Token string
}

// DatabaseCfg returns the database configuration.
func (c *Config) DatabaseCfg() DatabaseConfig {
	return DatabaseConfig{
		PostgresDSN:       c.PostgresDSN,
		MaxConnections:    c.DBMaxConnections,
		MinConnections:    c.DBMinConnections,
		MaxConnIdleTime:   c.DBMaxConnIdleTime,
		MaxConnLifetime:   c.DBMaxConnLifetime,
		HealthCheckPeriod: c.DBHealthCheckPeriod,
	}
}

// LLMCfg returns the collaborator provider configuration.
func (c *Config) LLMCfg() LLMConfig {
	return LLMConfig{
		OpenAIAPIKey:     c.OpenAIAPIKey,
		AnthropicAPIKey:  c.AnthropicAPIKey,
		GoogleAPIKey:     c.GoogleAPIKey,
		RateLimitRPS:     c.LLMRateLimitRPS,
		Timeout:          c.LLMTimeout,
		CircuitThreshold: c.CircuitThreshold,
		CircuitTimeout:   c.CircuitTimeout,
		ClassifyModel:    c.ClassifyModel,
		ClusterModel:     c.ClusterModel,
		SelectModel:      c.SelectModel,
		StrategyModel:    c.StrategyModel,
		ValidateModel:    c.ValidateModel,
	}
}

// SourcesCfg returns the free source configuration.
func (c *Config) SourcesCfg() SourcesConfig {
	return SourcesConfig{
		Timeout:            c.SourceTimeout,
		SuggestMax:         c.SuggestMax,
		SuggestBaseURL:     c.SuggestBaseURL,
		SERPBaseURL:        c.SERPBaseURL,
		SERPDelay:          c.SERPDelay,
		SERPMaxSeeds:       c.SERPMaxSeeds,
		RedditBaseURL:      c.RedditBaseURL,
		TrendsMinScore:     c.TrendsMinScore,
		TrendsFeedURL:      c.TrendsFeedURL,
		TrendsFeedEnabled:  c.TrendsFeedEnabled,
		CompetitorMax:      c.CompetitorMax,
		CompetitorDelay:    c.CompetitorDelay,
		CompetitorTimeout:  c.CompetitorTimeout,
		BrowserUserAgent:   c.BrowserUserAgent,
		BotUserAgent:       c.BotUserAgent,
		OwnContentMaxPosts: c.OwnContentMaxPosts,
	}
}

// PremiumCfg returns the premium provider configuration.
func (c *Config) PremiumCfg() PremiumConfig {
	return PremiumConfig{
		Provider:          c.PremiumProvider,
		DataForSEOAPIKey:  c.DataForSEOAPIKey,
		DataForSEOBaseURL: c.DataForSEOBaseURL,
		AhrefsAPIKey:      c.AhrefsAPIKey,
		AhrefsBaseURL:     c.AhrefsBaseURL,
		SEMrushAPIKey:     c.SEMrushAPIKey,
		SEMrushBaseURL:    c.SEMrushBaseURL,
		SEMrushDatabase:   c.SEMrushDatabase,
		BatchSize:         c.PremiumBatchSize,
		BatchDelay:        c.PremiumBatchDelay,
		Timeout:           c.PremiumTimeout,
	}
}

// ResearchCfg returns the research pipeline configuration.
func (c *Config) ResearchCfg() ResearchConfig {
	return ResearchConfig{
		ClassifyBatchSize:   c.ClassifyBatchSize,
		SelectionTargetMax:  c.SelectionTargetMax,
		MinApprovalKeywords: c.MinApprovalKeywords,
		PollInterval:        c.ResearchPollInterval,
		RunTimeout:          c.ResearchRunTimeout,
		StaleAfter:          c.ResearchStaleAfter,
	}
}

// StrategyCfg returns the strategy generation configuration.
func (c *Config) StrategyCfg() StrategyConfig {
	return StrategyConfig{
		PeriodDays:       c.StrategyPeriodDays,
		MaxKeywords:      c.StrategyMaxKeywords,
		KnowledgeBaseMax: c.KnowledgeBaseMaxLen,
	}
}

// ValidationCfg returns the post validator configuration.
func (c *Config) ValidationCfg() ValidationConfig {
	return ValidationConfig{
		BatchSize:     c.ValidationBatchSize,
		BatchDelay:    c.ValidationBatchDelay,
		KBSnapshotLen: c.KBSnapshotLen,
	}
}

// APICfg returns the HTTP API configuration.
func (c *Config) APICfg() APIConfig {
	return APIConfig{
		Port:  c.APIPort,
		Token: c.APIToken,
	}
}

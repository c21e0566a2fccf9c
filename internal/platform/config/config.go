package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Premium provider names accepted by PREMIUM_PROVIDER.
const (
	PremiumNone       = "none"
	PremiumDataForSEO = "dataforseo"
	PremiumAhrefs     = "ahrefs"
	PremiumSEMrush    = "semrush"
)

// Config is the flat environment configuration of every mode.
type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	PostgresDSN string `env:"POSTGRES_DSN,required"`
	HealthPort  int    `env:"HEALTH_PORT" envDefault:"8080"`
	APIPort     int    `env:"API_PORT" envDefault:"8090"`
	APIToken    string `env:"API_TOKEN"`

	// Database pool
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"25"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"5"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// LLM providers
	OpenAIAPIKey     string        `env:"OPENAI_API_KEY"`
	AnthropicAPIKey  string        `env:"ANTHROPIC_API_KEY"`
	GoogleAPIKey     string        `env:"GOOGLE_API_KEY"`
	LLMRateLimitRPS  int           `env:"LLM_RATE_LIMIT_RPS" envDefault:"1"`
	LLMTimeout       time.Duration `env:"LLM_TIMEOUT" envDefault:"90s"`
	CircuitThreshold int           `env:"LLM_CIRCUIT_THRESHOLD" envDefault:"5"`
	CircuitTimeout   time.Duration `env:"LLM_CIRCUIT_TIMEOUT" envDefault:"1m"`
	ClassifyModel    string        `env:"LLM_MODEL_CLASSIFY"`
	ClusterModel     string        `env:"LLM_MODEL_CLUSTER"`
	SelectModel      string        `env:"LLM_MODEL_SELECT"`
	StrategyModel    string        `env:"LLM_MODEL_STRATEGY"`
	ValidateModel    string        `env:"LLM_MODEL_VALIDATE"`

	// Free sources
	SourceTimeout      time.Duration `env:"SOURCE_TIMEOUT" envDefault:"45s"`
	SuggestMax         int           `env:"SUGGEST_MAX" envDefault:"10"`
	SuggestBaseURL     string        `env:"SUGGEST_BASE_URL" envDefault:"https://suggestqueries.google.com/complete/search"`
	SERPBaseURL        string        `env:"SERP_BASE_URL" envDefault:"https://www.google.com/search"`
	SERPDelay          time.Duration `env:"SERP_DELAY" envDefault:"2s"`
	SERPMaxSeeds       int           `env:"SERP_MAX_SEEDS" envDefault:"5"`
	RedditBaseURL      string        `env:"REDDIT_BASE_URL" envDefault:"https://www.reddit.com"`
	TrendsMinScore     int           `env:"TRENDS_MIN_SCORE" envDefault:"50"`
	TrendsFeedURL      string        `env:"TRENDS_FEED_URL" envDefault:"https://trends.google.com/trending/rss"`
	TrendsFeedEnabled  bool          `env:"TRENDS_FEED_ENABLED" envDefault:"true"`
	CompetitorMax      int           `env:"COMPETITOR_MAX" envDefault:"3"`
	CompetitorDelay    time.Duration `env:"COMPETITOR_DELAY" envDefault:"1500ms"`
	CompetitorTimeout  time.Duration `env:"COMPETITOR_TIMEOUT" envDefault:"10s"`
	BrowserUserAgent   string        `env:"SCRAPER_USER_AGENT" envDefault:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"`
	BotUserAgent       string        `env:"BOT_USER_AGENT" envDefault:"EditorialCalendar/1.0 (Keyword Research Bot)"`
	OwnContentMaxPosts int           `env:"OWN_CONTENT_MAX_POSTS" envDefault:"50"`

	// Premium providers
	PremiumProvider   string        `env:"PREMIUM_PROVIDER" envDefault:"none"`
	DataForSEOAPIKey  string        `env:"DATAFORSEO_API_KEY"`
	DataForSEOBaseURL string        `env:"DATAFORSEO_BASE_URL" envDefault:"https://api.dataforseo.com"`
	AhrefsAPIKey      string        `env:"AHREFS_API_KEY"`
	AhrefsBaseURL     string        `env:"AHREFS_BASE_URL" envDefault:"https://api.ahrefs.com"`
	SEMrushAPIKey     string        `env:"SEMRUSH_API_KEY"`
	SEMrushBaseURL    string        `env:"SEMRUSH_BASE_URL" envDefault:"https://api.semrush.com"`
	SEMrushDatabase   string        `env:"SEMRUSH_DATABASE" envDefault:"us"`
	PremiumBatchSize  int           `env:"PREMIUM_BATCH_SIZE" envDefault:"50"`
	PremiumBatchDelay time.Duration `env:"PREMIUM_BATCH_DELAY" envDefault:"1s"`
	PremiumTimeout    time.Duration `env:"PREMIUM_TIMEOUT" envDefault:"30s"`

	// Research pipeline
	ClassifyBatchSize    int           `env:"CLASSIFY_BATCH_SIZE" envDefault:"200"`
	SelectionTargetMax   int           `env:"SELECTION_TARGET_MAX" envDefault:"100"`
	MinApprovalKeywords  int           `env:"MIN_APPROVAL_KEYWORDS" envDefault:"30"`
	ResearchPollInterval time.Duration `env:"RESEARCH_POLL_INTERVAL" envDefault:"10s"`
	ResearchRunTimeout   time.Duration `env:"RESEARCH_RUN_TIMEOUT" envDefault:"30m"`
	ResearchStaleAfter   time.Duration `env:"RESEARCH_STALE_AFTER" envDefault:"1h"`

	// Strategy and validation
	StrategyPeriodDays   int           `env:"STRATEGY_PERIOD_DAYS" envDefault:"30"`
	StrategyMaxKeywords  int           `env:"STRATEGY_MAX_KEYWORDS" envDefault:"150"`
	KnowledgeBaseMaxLen  int           `env:"KNOWLEDGE_BASE_MAX_LEN" envDefault:"4000"`
	ValidationBatchSize  int           `env:"VALIDATION_BATCH_SIZE" envDefault:"5"`
	ValidationBatchDelay time.Duration `env:"VALIDATION_BATCH_DELAY" envDefault:"1s"`
	KBSnapshotLen        int           `env:"KB_SNAPSHOT_LEN" envDefault:"1000"`
}

// Load reads an optional .env file and parses the environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	applyLegacyAliases(cfg)
	cfg.PremiumProvider = strings.ToLower(strings.TrimSpace(cfg.PremiumProvider))

	return cfg, nil
}

// applyLegacyAliases maps the older single-key variables onto the
// provider-specific ones when the latter are not set.
func applyLegacyAliases(cfg *Config) {
	if !hasEnv("OPENAI_API_KEY") {
		setStringFromEnv("LLM_API_KEY", &cfg.OpenAIAPIKey)
	}

	if !hasEnv("SERP_DELAY") {
		setDurationFromEnv("SERP_SCRAPE_DELAY", &cfg.SERPDelay)
	}

	if !hasEnv("PREMIUM_BATCH_SIZE") {
		setIntFromEnv("ENRICHMENT_BATCH_SIZE", &cfg.PremiumBatchSize)
	}

	applyPremiumKeyAlias(cfg)
}

// applyPremiumKeyAlias routes PREMIUM_API_KEY to the selected provider.
func applyPremiumKeyAlias(cfg *Config) {
	switch strings.ToLower(cfg.PremiumProvider) {
	case PremiumDataForSEO:
		if !hasEnv("DATAFORSEO_API_KEY") {
			setStringFromEnv("PREMIUM_API_KEY", &cfg.DataForSEOAPIKey)
		}
	case PremiumAhrefs:
		if !hasEnv("AHREFS_API_KEY") {
			setStringFromEnv("PREMIUM_API_KEY", &cfg.AhrefsAPIKey)
		}
	case PremiumSEMrush:
		if !hasEnv("SEMRUSH_API_KEY") {
			setStringFromEnv("PREMIUM_API_KEY", &cfg.SEMrushAPIKey)
		}
	}
}

func hasEnv(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

func setStringFromEnv(key string, target *string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	val = strings.TrimSpace(val)
	if val == "" {
		return
	}

	*target = val
}

func setIntFromEnv(key string, target *int) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	parsed, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return
	}

	*target = parsed
}

func setDurationFromEnv(key string, target *time.Duration) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	parsed, err := time.ParseDuration(strings.TrimSpace(val))
	if err != nil {
		return
	}

	*target = parsed
}

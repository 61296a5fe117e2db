package config

import "time"

// Config is the root application configuration.
type Config struct {
	Database      DatabaseConfig      `yaml:"database"`
	Log           LogConfig           `yaml:"log"`
	Redis         RedisConfig         `yaml:"redis"`
	Enrichment    EnrichmentConfig    `yaml:"enrichment"`
	Risk          RiskConfig          `yaml:"risk"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Metrics       MetricsConfig       `yaml:"metrics"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	// StatementTimeout bounds every query on the pool; 0 leaves the server default.
	StatementTimeout time.Duration `yaml:"statement_timeout" env:"DATABASE_STATEMENT_TIMEOUT" env-default:"30s"`
	AutoMigrate      bool          `yaml:"auto_migrate"      env:"DATABASE_AUTO_MIGRATE"      env-default:"false"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// RedisConfig configures the optional fingerprint seen-cache.
// An empty Addr disables the cache.
type RedisConfig struct {
	Addr      string        `yaml:"addr"      env:"REDIS_ADDR"`
	Password  string        `yaml:"password"  env:"REDIS_PASSWORD"`
	DB        int           `yaml:"db"        env:"REDIS_DB"        env-default:"0"`
	SeenTTL   time.Duration `yaml:"seen_ttl"  env:"REDIS_SEEN_TTL"  env-default:"72h"`
	KeyPrefix string        `yaml:"key_prefix" env:"REDIS_KEY_PREFIX" env-default:"signalflow:fp:"`
}

// Enabled reports whether a redis address was configured.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// EnrichmentConfig holds text-generation settings for the orchestrator.
type EnrichmentConfig struct {
	AutoGenerate      bool          `yaml:"auto_generate"       env:"ENRICH_AUTO_GENERATE"       env-default:"true"`
	Provider          string        `yaml:"provider"            env:"ENRICH_PROVIDER"            env-default:"anthropic"`
	Model             string        `yaml:"model"               env:"ENRICH_MODEL"               env-default:"claude-3-5-haiku-latest"`
	APIKey            string        `yaml:"api_key"             env:"ENRICH_API_KEY"`
	Timeout           time.Duration `yaml:"timeout"             env:"ENRICH_TIMEOUT"             env-default:"20s"`
	ContextMessages   int           `yaml:"context_messages"    env:"ENRICH_CONTEXT_MESSAGES"    env-default:"10"`
	MaxInsights       int           `yaml:"max_insights"        env:"ENRICH_MAX_INSIGHTS"        env-default:"5"`
	ReplyWordBudget   int           `yaml:"reply_word_budget"   env:"ENRICH_REPLY_WORD_BUDGET"   env-default:"200"`
	ReplyTone         string        `yaml:"reply_tone"          env:"ENRICH_REPLY_TONE"          env-default:"empathetic and encouraging"`
	ClassifyWithModel bool          `yaml:"classify_with_model" env:"ENRICH_CLASSIFY_WITH_MODEL" env-default:"true"`
}

// RiskConfig holds the risk aggregator parameters.
type RiskConfig struct {
	WeightInactivity       float64       `yaml:"weight_inactivity"        env:"RISK_WEIGHT_INACTIVITY"        env-default:"0.30"`
	WeightOverdue          float64       `yaml:"weight_overdue"           env:"RISK_WEIGHT_OVERDUE"           env-default:"0.20"`
	WeightNegativeInsights float64       `yaml:"weight_negative_insights" env:"RISK_WEIGHT_NEGATIVE_INSIGHTS" env-default:"0.25"`
	WeightSentiment        float64       `yaml:"weight_sentiment"         env:"RISK_WEIGHT_SENTIMENT"         env-default:"0.15"`
	WeightPain             float64       `yaml:"weight_pain"              env:"RISK_WEIGHT_PAIN"              env-default:"0.10"`
	Alpha                  float64       `yaml:"alpha"                    env:"RISK_ALPHA"                    env-default:"0.5"`
	HighThreshold          float64       `yaml:"high_threshold"           env:"RISK_HIGH_THRESHOLD"           env-default:"65"`
	MediumThreshold        float64       `yaml:"medium_threshold"         env:"RISK_MEDIUM_THRESHOLD"         env-default:"35"`
	SentimentWindow        int           `yaml:"sentiment_window"         env:"RISK_SENTIMENT_WINDOW"         env-default:"7"`
	InsightWindow          int           `yaml:"insight_window"           env:"RISK_INSIGHT_WINDOW"           env-default:"5"`
	InsightLookback        time.Duration `yaml:"insight_lookback"         env:"RISK_INSIGHT_LOOKBACK"         env-default:"336h"`
	PainLookback           time.Duration `yaml:"pain_lookback"            env:"RISK_PAIN_LOOKBACK"            env-default:"168h"`
	BatchConcurrency       int           `yaml:"batch_concurrency"        env:"RISK_BATCH_CONCURRENCY"        env-default:"4"`
}

// TranscriptionConfig configures the speech-to-text capability.
// An empty LanguageCode disables transcription.
type TranscriptionConfig struct {
	LanguageCode string        `yaml:"language_code" env:"TRANSCRIBE_LANGUAGE_CODE"`
	Model        string        `yaml:"model"         env:"TRANSCRIBE_MODEL"         env-default:"latest_long"`
	Timeout      time.Duration `yaml:"timeout"       env:"TRANSCRIBE_TIMEOUT"       env-default:"60s"`
	MaxAttempts  int           `yaml:"max_attempts"  env:"TRANSCRIBE_MAX_ATTEMPTS"  env-default:"3"`
}

// Enabled reports whether transcription is configured.
func (c TranscriptionConfig) Enabled() bool { return c.LanguageCode != "" }

// MetricsConfig holds the Prometheus exposition settings.
type MetricsConfig struct {
	Addr string `yaml:"addr" env:"METRICS_ADDR"`
}

// Text-generation providers accepted by EnrichmentConfig.Provider.
const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderNone      = "none"
)

package config

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ignite/engage/internal/domain"
)

// Config holds all configuration for the application.
// Unknown keys in the YAML file are rejected at load.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Engine     EngineConfig     `yaml:"engine"`
	Routing    RoutingConfig    `yaml:"routing"`
	Priority   PriorityConfig   `yaml:"priority"`
	Sentiment  SentimentConfig  `yaml:"sentiment"`
	Intent     IntentConfig     `yaml:"intent"`
	Topics     TopicsConfig     `yaml:"topics"`
	Scheduling SchedulingConfig `yaml:"scheduling"`
	Publishing PublishingConfig `yaml:"publishing"`
	Quality    QualityConfig    `yaml:"quality_assurance"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Bedrock    BedrockConfig    `yaml:"bedrock"`
	Platforms  PlatformsConfig  `yaml:"platforms"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection.
func (c ServerConfig) GetHost() string {
	// In a container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	URL             string `yaml:"url"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_minutes"`
}

// RedisConfig holds Redis connection settings for caching, limits, and locks.
type RedisConfig struct {
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

// EngineConfig holds decision engine knobs.
type EngineConfig struct {
	MaxConcurrentDecisions int  `yaml:"max_concurrent_decisions"`
	DecisionTimeoutMs      int  `yaml:"decision_timeout_ms"`
	EnableDecisionCaching  bool `yaml:"enable_decision_caching"`
	CacheExpirationMs      int  `yaml:"cache_expiration_ms"`
}

// DecisionTimeout returns the pipeline deadline as a duration.
func (c EngineConfig) DecisionTimeout() time.Duration {
	return time.Duration(c.DecisionTimeoutMs) * time.Millisecond
}

// CacheExpiration returns the decision cache TTL as a duration.
func (c EngineConfig) CacheExpiration() time.Duration {
	return time.Duration(c.CacheExpirationMs) * time.Millisecond
}

// ConfidenceThresholds route decisions by overall confidence.
// Values must be in [0,1] and monotonically decreasing.
type ConfidenceThresholds struct {
	AutoResponse float64 `yaml:"auto_response"`
	Suggestion   float64 `yaml:"suggestion"`
	HumanReview  float64 `yaml:"human_review"`
}

// OverrideCondition is a structured routing-override guard. Conditions are
// expression trees over known event fields; there is no string evaluation.
type OverrideCondition struct {
	Field string               `yaml:"field,omitempty"` // platform, intent, urgency, priority, follower_count, verified, engagement_rate
	Op    string               `yaml:"op,omitempty"`    // eq, ne, lt, le, gt, ge, in
	Value string               `yaml:"value,omitempty"`
	Values []string            `yaml:"values,omitempty"`
	All    []OverrideCondition `yaml:"all,omitempty"` // and
	Any    []OverrideCondition `yaml:"any,omitempty"` // or
	Not    *OverrideCondition  `yaml:"not,omitempty"`
}

// ConfidenceOverride rewrites the overall confidence when its condition holds.
type ConfidenceOverride struct {
	Name          string            `yaml:"name"`
	When          OverrideCondition `yaml:"when"`
	NewConfidence float64           `yaml:"new_confidence"`
}

// RoutingConfig holds router thresholds and rules.
type RoutingConfig struct {
	ConfidenceThresholds ConfidenceThresholds `yaml:"confidence_thresholds"`
	ConfidenceOverrides  []ConfidenceOverride `yaml:"confidence_overrides"`
	AlwaysHumanIntents   []string             `yaml:"always_human_intents"`
	AlwaysHumanUrgencies []string             `yaml:"always_human_urgencies"`
	AlwaysHumanPriority  float64              `yaml:"always_human_priority"`
	NeverAutoIntents     []string             `yaml:"never_auto_intents"`
	BaseWaitMinutes      int                  `yaml:"base_wait_minutes"`
}

// PriorityWeights are the outer composite weights. They must sum to 1 ±1e-6.
type PriorityWeights struct {
	Urgency   float64 `yaml:"urgency"`
	Impact    float64 `yaml:"impact"`
	Sentiment float64 `yaml:"sentiment"`
	Reach     float64 `yaml:"reach"`
	BrandRisk float64 `yaml:"brand_risk"`
}

// Sum returns the total of all weights.
func (w PriorityWeights) Sum() float64 {
	return w.Urgency + w.Impact + w.Sentiment + w.Reach + w.BrandRisk
}

// PriorityConfig holds priority scorer knobs.
type PriorityConfig struct {
	Weights             PriorityWeights `yaml:"weights"`
	DecayBase           float64         `yaml:"decay_base"`
	DecayPeriodHours    float64         `yaml:"decay_period_hours"`
	MinScore            float64         `yaml:"min_score"`
	MaxScore            float64         `yaml:"max_score"`
	EscalationThreshold float64         `yaml:"escalation_threshold"`
}

// ConfidenceTier maps an absolute-score floor to a confidence value.
type ConfidenceTier struct {
	MinAbsScore float64 `yaml:"min_abs_score"`
	Confidence  float64 `yaml:"confidence"`
}

// PlatformTilt is the per-platform sentiment adjustment.
type PlatformTilt struct {
	PositiveBoost float64 `yaml:"positive_boost"`
	NegativeBoost float64 `yaml:"negative_boost"`
	NeutralZone   float64 `yaml:"neutral_zone"` // scores inside ±zone are zeroed
}

// AspectConfig names an aspect and its synonyms for windowed analysis.
type AspectConfig struct {
	Name     string   `yaml:"name"`
	Synonyms []string `yaml:"synonyms"`
}

// SentimentConfig holds sentiment analyzer knobs.
type SentimentConfig struct {
	ModelWeights    map[string]float64             `yaml:"model_weights"`
	PlatformTilts   map[domain.Platform]PlatformTilt `yaml:"platform_tilts"`
	ConfidenceTiers []ConfidenceTier               `yaml:"confidence_tiers"`
	Aspects         []AspectConfig                 `yaml:"aspects"`
	AspectWindow    int                            `yaml:"aspect_window"` // ± characters around a mention
}

// IntentConfig holds intent classifier knobs.
type IntentConfig struct {
	IntentWeights     map[string]float64                    `yaml:"intent_weights"`
	PlatformModifiers map[domain.Platform]map[string]float64 `yaml:"platform_modifiers"`
}

// TopicsConfig holds clustering and trend/spike detection knobs.
type TopicsConfig struct {
	Epsilon            float64 `yaml:"epsilon"`
	MinPoints          int     `yaml:"min_points"`
	Metric             string  `yaml:"metric"` // cosine, euclidean, jaccard
	Vocabulary         []string `yaml:"vocabulary"`
	TrendWindowMinutes int     `yaml:"trend_window_minutes"`
	TrendGrowthRate    float64 `yaml:"trend_growth_rate"`
	TrendMinEvents     int     `yaml:"trend_min_events"`
	BaselineMinutes    int     `yaml:"baseline_minutes"`
	SpikeIntensity     float64 `yaml:"spike_intensity"`
	SpikeMinEvents     int     `yaml:"spike_min_events"`
}

// PlatformLimit caps publish volume for one platform.
type PlatformLimit struct {
	DailyLimit         int `yaml:"daily_limit"`
	HourlyLimit        int `yaml:"hourly_limit"`
	MinIntervalMinutes int `yaml:"min_interval_minutes"`
}

// SchedulingConfig holds scheduling engine knobs.
type SchedulingConfig struct {
	PlatformLimits     map[domain.Platform]PlatformLimit `yaml:"platform_limits"`
	DefaultMaxRetries  int                               `yaml:"default_max_retries"`
	MinLeadTimeMinutes int                               `yaml:"min_lead_time_minutes"`
}

// PublishingConfig holds the dispatch loop knobs.
type PublishingConfig struct {
	TickSeconds        int `yaml:"tick_seconds"`
	DuePageSize        int `yaml:"due_page_size"`
	RetryBaseSeconds   int `yaml:"retry_base_seconds"`
	RetryCapSeconds    int `yaml:"retry_cap_seconds"`
	PrePublishMinutes  int `yaml:"pre_publish_minutes"`
}

// Tick returns the dispatch loop interval.
func (c PublishingConfig) Tick() time.Duration {
	return time.Duration(c.TickSeconds) * time.Second
}

// QualityConfig holds the decision quality gate knobs.
type QualityConfig struct {
	EnableValidation         bool    `yaml:"enable_validation"`
	RequireMinimumConfidence float64 `yaml:"require_minimum_confidence"`
	EnableAuditLogging       bool    `yaml:"enable_audit_logging"`
}

// FeedConfig is one RSS/Atom feed to ingest as rss-platform events.
type FeedConfig struct {
	URL     string `yaml:"url"`
	BrandID string `yaml:"brand_id"`
}

// IngestConfig holds feed ingestion settings.
type IngestConfig struct {
	Enabled             bool         `yaml:"enabled"`
	Feeds               []FeedConfig `yaml:"feeds"`
	PollIntervalMinutes int          `yaml:"poll_interval_minutes"`
}

// BedrockConfig holds the optional ML sentiment model settings.
type BedrockConfig struct {
	Enabled bool   `yaml:"enabled"`
	ModelID string `yaml:"model_id"`
	Region  string `yaml:"region"`
}

// WebhookEndpoint is one outbound webhook target.
type WebhookEndpoint struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

// PlatformsConfig wires outbound platform integrations. Publish maps each
// platform to its publishing webhook; Response is where auto-responses are
// posted.
type PlatformsConfig struct {
	Publish  map[domain.Platform]WebhookEndpoint `yaml:"publish"`
	Response WebhookEndpoint                     `yaml:"response"`
}

// Load reads, parses, defaults, and validates the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file (if present) is loaded first, so secrets can live in .env
// locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cfg.Redis.URL = redisURL
		cfg.Redis.Enabled = true
	}
	if modelID := os.Getenv("BEDROCK_MODEL_ID"); modelID != "" {
		cfg.Bedrock.ModelID = modelID
	}
	if region := os.Getenv("AWS_REGION"); region != "" && cfg.Bedrock.Region == "" {
		cfg.Bedrock.Region = region
	}
	if token := os.Getenv("WEBHOOK_TOKEN"); token != "" {
		for platform, ep := range cfg.Platforms.Publish {
			if ep.Token == "" {
				ep.Token = token
				cfg.Platforms.Publish[platform] = ep
			}
		}
		if cfg.Platforms.Response.Token == "" {
			cfg.Platforms.Response.Token = token
		}
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Engine.MaxConcurrentDecisions == 0 {
		c.Engine.MaxConcurrentDecisions = 50
	}
	if c.Engine.DecisionTimeoutMs == 0 {
		c.Engine.DecisionTimeoutMs = 5000
	}
	if c.Engine.CacheExpirationMs == 0 {
		c.Engine.CacheExpirationMs = 300000 // 5 minutes
	}
	if c.Routing.ConfidenceThresholds == (ConfidenceThresholds{}) {
		c.Routing.ConfidenceThresholds = ConfidenceThresholds{
			AutoResponse: 0.85,
			Suggestion:   0.6,
			HumanReview:  0.0,
		}
	}
	if c.Routing.AlwaysHumanPriority == 0 {
		c.Routing.AlwaysHumanPriority = 80
	}
	if c.Routing.BaseWaitMinutes == 0 {
		c.Routing.BaseWaitMinutes = 60
	}
	if len(c.Routing.AlwaysHumanIntents) == 0 {
		c.Routing.AlwaysHumanIntents = []string{"COMPLAINT", "REFUND_REQUEST"}
	}
	if len(c.Routing.AlwaysHumanUrgencies) == 0 {
		c.Routing.AlwaysHumanUrgencies = []string{"critical"}
	}
	if len(c.Routing.NeverAutoIntents) == 0 {
		c.Routing.NeverAutoIntents = []string{"SPAM"}
	}
	if c.Priority.Weights.Sum() == 0 {
		c.Priority.Weights = PriorityWeights{
			Urgency: 0.3, Impact: 0.25, Sentiment: 0.2, Reach: 0.15, BrandRisk: 0.1,
		}
	}
	if c.Priority.DecayBase == 0 {
		c.Priority.DecayBase = 0.95
	}
	if c.Priority.DecayPeriodHours == 0 {
		c.Priority.DecayPeriodHours = 6
	}
	if c.Priority.MaxScore == 0 {
		c.Priority.MaxScore = 100
	}
	if c.Priority.EscalationThreshold == 0 {
		c.Priority.EscalationThreshold = 85
	}
	if len(c.Sentiment.ModelWeights) == 0 {
		c.Sentiment.ModelWeights = map[string]float64{"lexical": 1.0}
	}
	if len(c.Sentiment.ConfidenceTiers) == 0 {
		c.Sentiment.ConfidenceTiers = []ConfidenceTier{
			{MinAbsScore: 0.6, Confidence: 0.9},
			{MinAbsScore: 0.3, Confidence: 0.75},
			{MinAbsScore: 0.1, Confidence: 0.6},
			{MinAbsScore: 0.0, Confidence: 0.5},
		}
	}
	if c.Sentiment.AspectWindow == 0 {
		c.Sentiment.AspectWindow = 50
	}
	if c.Topics.Epsilon == 0 {
		c.Topics.Epsilon = 0.35
	}
	if c.Topics.MinPoints == 0 {
		c.Topics.MinPoints = 3
	}
	if c.Topics.Metric == "" {
		c.Topics.Metric = "cosine"
	}
	if c.Topics.TrendWindowMinutes == 0 {
		c.Topics.TrendWindowMinutes = 60
	}
	if c.Topics.TrendGrowthRate == 0 {
		c.Topics.TrendGrowthRate = 2.0
	}
	if c.Topics.TrendMinEvents == 0 {
		c.Topics.TrendMinEvents = 5
	}
	if c.Topics.BaselineMinutes == 0 {
		c.Topics.BaselineMinutes = 240
	}
	if c.Topics.SpikeIntensity == 0 {
		c.Topics.SpikeIntensity = 3.0
	}
	if c.Topics.SpikeMinEvents == 0 {
		c.Topics.SpikeMinEvents = 5
	}
	if c.Scheduling.PlatformLimits == nil {
		c.Scheduling.PlatformLimits = make(map[domain.Platform]PlatformLimit)
	}
	// Limit tables must be total over the platform enum
	for _, p := range domain.AllPlatforms {
		if _, ok := c.Scheduling.PlatformLimits[p]; !ok {
			c.Scheduling.PlatformLimits[p] = PlatformLimit{
				DailyLimit:         10,
				HourlyLimit:        3,
				MinIntervalMinutes: 15,
			}
		}
	}
	if c.Scheduling.DefaultMaxRetries == 0 {
		c.Scheduling.DefaultMaxRetries = 3
	}
	if c.Scheduling.MinLeadTimeMinutes == 0 {
		c.Scheduling.MinLeadTimeMinutes = 5
	}
	if c.Publishing.TickSeconds == 0 {
		c.Publishing.TickSeconds = 30
	}
	if c.Publishing.DuePageSize == 0 {
		c.Publishing.DuePageSize = 100
	}
	if c.Publishing.RetryBaseSeconds == 0 {
		c.Publishing.RetryBaseSeconds = 60 // 1 minute
	}
	if c.Publishing.RetryCapSeconds == 0 {
		c.Publishing.RetryCapSeconds = 3600 // 1 hour
	}
	if c.Quality.RequireMinimumConfidence == 0 {
		c.Quality.RequireMinimumConfidence = 0.3
	}
	if c.Ingest.PollIntervalMinutes == 0 {
		c.Ingest.PollIntervalMinutes = 15
	}
	if c.Bedrock.Region == "" {
		c.Bedrock.Region = "us-east-1"
	}
}

// Validate checks numeric weights and thresholds. It is called by Load;
// callers constructing Config directly in tests should call it themselves.
func (c *Config) Validate() error {
	t := c.Routing.ConfidenceThresholds
	for name, v := range map[string]float64{
		"auto_response": t.AutoResponse,
		"suggestion":    t.Suggestion,
		"human_review":  t.HumanReview,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("confidence threshold %s = %v out of [0,1]", name, v)
		}
	}
	if !(t.AutoResponse >= t.Suggestion && t.Suggestion >= t.HumanReview) {
		return fmt.Errorf("confidence thresholds must be monotonically decreasing: auto=%v suggestion=%v human=%v",
			t.AutoResponse, t.Suggestion, t.HumanReview)
	}

	w := c.Priority.Weights
	for name, v := range map[string]float64{
		"urgency": w.Urgency, "impact": w.Impact, "sentiment": w.Sentiment,
		"reach": w.Reach, "brand_risk": w.BrandRisk,
	} {
		if v < 0 {
			return fmt.Errorf("priority weight %s is negative: %v", name, v)
		}
	}
	if math.Abs(w.Sum()-1.0) > 1e-6 {
		return fmt.Errorf("priority weights must sum to 1.0, got %v", w.Sum())
	}

	if c.Priority.MinScore < 0 || c.Priority.MaxScore > 100 || c.Priority.MinScore >= c.Priority.MaxScore {
		return fmt.Errorf("priority score bounds invalid: [%v,%v]", c.Priority.MinScore, c.Priority.MaxScore)
	}

	for model, mw := range c.Sentiment.ModelWeights {
		if mw < 0 {
			return fmt.Errorf("sentiment model weight %s is negative: %v", model, mw)
		}
	}

	switch c.Topics.Metric {
	case "cosine", "euclidean", "jaccard":
	default:
		return fmt.Errorf("unknown clustering metric %q", c.Topics.Metric)
	}

	for p, lim := range c.Scheduling.PlatformLimits {
		if !p.Valid() {
			return fmt.Errorf("platform limit for unknown platform %q", p)
		}
		if lim.DailyLimit <= 0 || lim.HourlyLimit <= 0 {
			return fmt.Errorf("platform %s limits must be positive", p)
		}
	}

	if c.Quality.RequireMinimumConfidence < 0 || c.Quality.RequireMinimumConfidence > 1 {
		return fmt.Errorf("require_minimum_confidence out of [0,1]: %v", c.Quality.RequireMinimumConfidence)
	}

	return nil
}

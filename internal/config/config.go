// Package config loads the placement-matcher configuration from an optional file, a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jonathan/placement-matcher/internal/llm"
	"github.com/jonathan/placement-matcher/internal/types"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every configuration key read from the environment
const EnvPrefix = "PLACEMENT"

// Config is the full application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Cache     CacheConfig     `mapstructure:"cache"`
	History   HistoryConfig   `mapstructure:"history"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	Shortlist ShortlistConfig `mapstructure:"shortlist"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigin      string        `mapstructure:"cors_origin"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	Format string `mapstructure:"format"`
	Level  string `mapstructure:"level"`
}

// LLMConfig selects the chat model provider
type LLMConfig struct {
	Provider      string            `mapstructure:"provider"`
	BaseURL       string            `mapstructure:"base_url"`
	Temperature   float32           `mapstructure:"temperature"`
	Models        map[string]string `mapstructure:"models"`
	GeminiAPIKey  string            `mapstructure:"gemini_api_key"`
	GroqAPIKey    string            `mapstructure:"groq_api_key"`
	MistralAPIKey string            `mapstructure:"mistral_api_key"`
}

// EmbeddingConfig selects the sentence embedding backend
type EmbeddingConfig struct {
	// Provider is "gemini" or "hashing"
	Provider  string `mapstructure:"provider"`
	Model     string `mapstructure:"model"`
	Dimension int    `mapstructure:"dimension"`
}

// CacheConfig configures the embedding and verdict cache
type CacheConfig struct {
	RedisURL   string        `mapstructure:"redis_url"`
	MaxEntries int           `mapstructure:"max_entries"`
	TTL        time.Duration `mapstructure:"ttl"`
}

// HistoryConfig configures the score history store
type HistoryConfig struct {
	// Driver is "sqlite", "postgres" or "memory"
	Driver      string        `mapstructure:"driver"`
	Path        string        `mapstructure:"path"`
	DatabaseURL string        `mapstructure:"database_url"`
	Retention   time.Duration `mapstructure:"retention"`
}

// MatchingConfig holds the match defaults
type MatchingConfig struct {
	UseLLM  bool               `mapstructure:"use_llm"`
	Weights map[string]float64 `mapstructure:"weights"`
}

// ShortlistConfig holds the shortlisting defaults
type ShortlistConfig struct {
	Concurrency int  `mapstructure:"concurrency"`
	MinScore    int  `mapstructure:"min_score"`
	RequireCert bool `mapstructure:"require_cert"`
	TopN        int  `mapstructure:"top_n"`
}

// QueueConfig configures the AMQP worker
type QueueConfig struct {
	URL          string `mapstructure:"url"`
	RequestQueue string `mapstructure:"request_queue"`
	ResultQueue  string `mapstructure:"result_queue"`
}

// AuthConfig configures bearer token auth; an empty secret disables it
type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	JWTExpiration time.Duration `mapstructure:"jwt_expiration"`
	Issuer        string        `mapstructure:"issuer"`
}

// RateLimitConfig configures the per-client request limiter
type RateLimitConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	DefaultLimit    int           `mapstructure:"default_limit"`
	DefaultWindow   time.Duration `mapstructure:"default_window"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	Whitelist       []string      `mapstructure:"whitelist"`
	Blacklist       []string      `mapstructure:"blacklist"`
}

// unprefixed lists well-known variables accepted without the PLACEMENT_ prefix
var unprefixed = map[string]string{
	"llm.gemini_api_key":   "GEMINI_API_KEY",
	"llm.groq_api_key":     "GROQ_API_KEY",
	"llm.mistral_api_key":  "MISTRAL_API_KEY",
	"history.database_url": "DATABASE_URL",
	"cache.redis_url":      "REDIS_URL",
	"queue.url":            "AMQP_URL",
	"auth.jwt_secret":      "JWT_SECRET",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.cors_origin", "*")

	v.SetDefault("log.format", "console")
	v.SetDefault("log.level", "info")

	v.SetDefault("llm.provider", string(llm.ProviderGemini))
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.models", map[string]string{})
	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.groq_api_key", "")
	v.SetDefault("llm.mistral_api_key", "")

	v.SetDefault("embedding.provider", "hashing")
	v.SetDefault("embedding.model", "")
	v.SetDefault("embedding.dimension", 0)

	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.max_entries", 10000)
	v.SetDefault("cache.ttl", 24*time.Hour)

	v.SetDefault("history.driver", "sqlite")
	v.SetDefault("history.path", "data/candidate_scores.db")
	v.SetDefault("history.database_url", "")
	v.SetDefault("history.retention", time.Duration(0))

	weights := map[string]float64{}
	for key, w := range types.DefaultWeights() {
		weights[string(key)] = w
	}
	v.SetDefault("matching.use_llm", false)
	v.SetDefault("matching.weights", weights)

	filters := types.DefaultFilters()
	v.SetDefault("shortlist.concurrency", 1)
	v.SetDefault("shortlist.min_score", filters.MinScore)
	v.SetDefault("shortlist.require_cert", filters.RequireCert)
	v.SetDefault("shortlist.top_n", filters.TopN)

	v.SetDefault("queue.url", "")
	v.SetDefault("queue.request_queue", "shortlist_requests")
	v.SetDefault("queue.result_queue", "shortlist_results")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_expiration", 24*time.Hour)
	v.SetDefault("auth.issuer", "placement-matcher")

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.default_limit", 1000)
	v.SetDefault("ratelimit.default_window", time.Minute)
	v.SetDefault("ratelimit.cleanup_interval", 5*time.Minute)
	v.SetDefault("ratelimit.whitelist", []string{})
	v.SetDefault("ratelimit.blacklist", []string{})
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Load reads .env (if present), then path (if non-empty), then the environment, and validates the result
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range unprefixed {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration has usable values
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: 'server.port' must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("config error: 'log.format' must be json or console, got %q", c.Log.Format)
	}
	if _, err := llm.ConfigFor(llm.Provider(c.LLM.Provider)); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	switch c.Embedding.Provider {
	case "gemini", "hashing":
	default:
		return fmt.Errorf("config error: 'embedding.provider' must be gemini or hashing, got %q", c.Embedding.Provider)
	}

	switch c.History.Driver {
	case "sqlite":
		if c.History.Path == "" {
			return fmt.Errorf("config error: 'history.path' is required for the sqlite driver")
		}
	case "postgres":
		if c.History.DatabaseURL == "" {
			return fmt.Errorf("config error: 'history.database_url' is required for the postgres driver")
		}
	case "memory":
	default:
		return fmt.Errorf("config error: 'history.driver' must be sqlite, postgres or memory, got %q", c.History.Driver)
	}
	if c.History.Retention < 0 {
		return fmt.Errorf("config error: 'history.retention' must be non-negative")
	}

	if _, err := c.Matching.WeightSet().Normalize(); err != nil {
		return fmt.Errorf("config error: 'matching.weights': %w", err)
	}

	if c.Shortlist.Concurrency < 1 {
		return fmt.Errorf("config error: 'shortlist.concurrency' must be at least 1")
	}
	if c.Shortlist.MinScore < 0 || c.Shortlist.MinScore > 100 {
		return fmt.Errorf("config error: 'shortlist.min_score' must be between 0 and 100")
	}
	if c.Shortlist.TopN < 0 {
		return fmt.Errorf("config error: 'shortlist.top_n' must be non-negative")
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("config error: 'cache.max_entries' must be non-negative")
	}
	return nil
}

// WeightSet converts the configured weights to section weights
func (m MatchingConfig) WeightSet() types.WeightSet {
	out := make(types.WeightSet, len(m.Weights))
	for key, w := range m.Weights {
		out[types.SectionKey(strings.ToLower(key))] = w
	}
	return out
}

// Filters returns the default shortlist filters
func (s ShortlistConfig) Filters() types.FilterSet {
	return types.FilterSet{MinScore: s.MinScore, RequireCert: s.RequireCert, TopN: s.TopN}
}

// ClientConfig builds the LLM client configuration of the selected provider
func (l LLMConfig) ClientConfig() (*llm.Config, error) {
	cfg, err := llm.ConfigFor(llm.Provider(l.Provider))
	if err != nil {
		return nil, err
	}
	for tier, model := range l.Models {
		if model != "" {
			cfg = cfg.WithModel(llm.ModelTier(strings.ToLower(tier)), model)
		}
	}
	if l.BaseURL != "" {
		cfg.BaseURL = l.BaseURL
	}
	if l.Temperature > 0 {
		cfg.Temperature = l.Temperature
	}
	return cfg, nil
}

// APIKey returns the key of the selected provider
func (l LLMConfig) APIKey() string {
	switch llm.Provider(l.Provider) {
	case llm.ProviderGroq:
		return l.GroqAPIKey
	case llm.ProviderMistral:
		return l.MistralAPIKey
	default:
		return l.GeminiAPIKey
	}
}

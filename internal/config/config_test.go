package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonathan/placement-matcher/internal/llm"
	"github.com/jonathan/placement-matcher/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range unprefixed {
		t.Setenv(env, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "sqlite", cfg.History.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "shortlist_requests", cfg.Queue.RequestQueue)
	assert.Equal(t, types.DefaultFilters(), cfg.Shortlist.Filters())
	assert.Equal(t, 1, cfg.Shortlist.Concurrency)
	assert.Equal(t, types.DefaultWeights(), cfg.Matching.WeightSet())
}

func TestLoad_FileAndEnv(t *testing.T) {
	clearEnv(t)
	content := `
server:
  port: 9000
log:
  format: json
llm:
  provider: groq
  models:
    advanced: llama-3.1-70b
history:
  driver: memory
  retention: 720h
matching:
  weights:
    skills: 60
    experience: 40
`
	path := filepath.Join(t.TempDir(), "placement.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("PLACEMENT_SHORTLIST_TOP_N", "3")
	t.Setenv("GROQ_API_KEY", "groq-key")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "memory", cfg.History.Driver)
	assert.Equal(t, 720*time.Hour, cfg.History.Retention)
	assert.Equal(t, 3, cfg.Shortlist.TopN)
	assert.Equal(t, "groq-key", cfg.LLM.APIKey())

	weights := cfg.Matching.WeightSet()
	assert.Equal(t, 60.0, weights[types.SectionSkills])
	assert.Equal(t, 40.0, weights[types.SectionExperience])

	clientCfg, err := cfg.LLM.ClientConfig()
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderGroq, clientCfg.Provider)
	assert.Equal(t, "llama-3.1-70b", clientCfg.GetModel(llm.TierAdvanced))
	assert.Equal(t, "llama-3.1-8b-instant", clientCfg.GetModel(llm.TierLite))
}

func TestLoad_PrefixedOverridesUnprefixed(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "plain")
	t.Setenv("PLACEMENT_LLM_GEMINI_API_KEY", "prefixed")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.LLM.GeminiAPIKey)
}

func TestLoad_UnprefixedVariables(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/placement")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/placement", cfg.History.DatabaseURL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Cache.RedisURL)
	assert.True(t, cfg.Auth.Enabled())
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestLoad_InvalidValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("PLACEMENT_HISTORY_DRIVER", "mongodb")

	_, err := Load("")
	assert.ErrorContains(t, err, "history.driver")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "port", mutate: func(c *Config) { c.Server.Port = 0 }, want: "server.port"},
		{name: "log format", mutate: func(c *Config) { c.Log.Format = "xml" }, want: "log.format"},
		{name: "provider", mutate: func(c *Config) { c.LLM.Provider = "openai" }, want: "unknown LLM provider"},
		{name: "embedding", mutate: func(c *Config) { c.Embedding.Provider = "bert" }, want: "embedding.provider"},
		{name: "postgres url", mutate: func(c *Config) { c.History.Driver = "postgres" }, want: "history.database_url"},
		{name: "sqlite path", mutate: func(c *Config) { c.History.Path = "" }, want: "history.path"},
		{name: "retention", mutate: func(c *Config) { c.History.Retention = -time.Hour }, want: "history.retention"},
		{name: "weights", mutate: func(c *Config) { c.Matching.Weights = map[string]float64{"hobbies": 10} }, want: "matching.weights"},
		{name: "zero weights", mutate: func(c *Config) { c.Matching.Weights = map[string]float64{"skills": 0} }, want: "matching.weights"},
		{name: "concurrency", mutate: func(c *Config) { c.Shortlist.Concurrency = 0 }, want: "shortlist.concurrency"},
		{name: "min score", mutate: func(c *Config) { c.Shortlist.MinScore = 101 }, want: "shortlist.min_score"},
		{name: "top n", mutate: func(c *Config) { c.Shortlist.TopN = -1 }, want: "shortlist.top_n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestLLMConfig_APIKey(t *testing.T) {
	l := LLMConfig{GeminiAPIKey: "g", GroqAPIKey: "q", MistralAPIKey: "m"}

	l.Provider = "gemini"
	assert.Equal(t, "g", l.APIKey())
	l.Provider = "groq"
	assert.Equal(t, "q", l.APIKey())
	l.Provider = "mistral"
	assert.Equal(t, "m", l.APIKey())
}

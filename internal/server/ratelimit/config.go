package ratelimit

import (
	"strings"
	"time"

	"github.com/jonathan/placement-matcher/internal/config"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// LoadConfig builds the limiter configuration from the application settings.
func LoadConfig(rl config.RateLimitConfig) *Config {
	if !rl.Enabled {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    rl.DefaultLimit,
		DefaultWindow:   rl.DefaultWindow,
		CleanupInterval: rl.CleanupInterval,
		Whitelist:       toSet(rl.Whitelist),
		Blacklist:       toSet(rl.Blacklist),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// LLM-heavy operations
		{Path: "/api/batch-process", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/api/shortlist-candidates", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/api/summarize-jd", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},

		// Embedding-only unless use_llm is set
		{Path: "/api/match-resume", Method: "POST", Limit: 300, Window: time.Minute, Burst: 30},

		// Reads use the default limit; the health check is unlimited
	}
}

// toSet parses a list of IP addresses into a set, ignoring blanks.
func toSet(list []string) map[string]bool {
	result := make(map[string]bool, len(list))
	for _, item := range list {
		for _, ip := range strings.Split(item, ",") {
			if ip = strings.TrimSpace(ip); ip != "" {
				result[ip] = true
			}
		}
	}
	return result
}

var unlimited = &EndpointConfig{}

// MatchEndpoint finds the configuration for a request. An exact path wins; otherwise the longest
// configured path ending in "/" that prefixes the request path is used. GET /health is never limited.
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	if method == "GET" && path == "/health" {
		return unlimited
	}

	var best *EndpointConfig
	for i := range configs {
		c := &configs[i]
		if c.Method != method {
			continue
		}
		if c.Path == path {
			return c
		}
		if strings.HasSuffix(c.Path, "/") && strings.HasPrefix(path, c.Path) &&
			(best == nil || len(c.Path) > len(best.Path)) {
			best = c
		}
	}
	return best
}

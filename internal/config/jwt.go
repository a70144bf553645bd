package config

import (
	"fmt"
	"time"
)

// JWTConfig holds configuration for API token generation and validation.
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// NewJWTConfig builds the JWT configuration from the auth section.
// A zero expiration defaults to 24 hours.
func NewJWTConfig(auth AuthConfig) (*JWTConfig, error) {
	cfg := &JWTConfig{
		Secret:     auth.JWTSecret,
		Expiration: auth.JWTExpiration,
		Issuer:     auth.Issuer,
	}
	if cfg.Expiration == 0 {
		cfg.Expiration = 24 * time.Hour
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Enabled reports whether API auth is configured
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != ""
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("JWT_SECRET cannot be empty")
	}
	if c.Expiration < time.Minute {
		return fmt.Errorf("JWT expiration must be at least one minute, got: %s", c.Expiration)
	}
	return nil
}

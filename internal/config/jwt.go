package config

import (
	"fmt"
	"time"
)

// JWTConfig holds configuration for API bearer token generation and validation.
type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// NewJWTConfig builds a JWT configuration from a resolved signing secret and token lifetime.
// The secret itself lives in the secret source named by auth.jwt_secret_name.
func NewJWTConfig(secret string, ttl time.Duration) (*JWTConfig, error) {
	cfg := &JWTConfig{
		Secret: secret,
		TTL:    ttl,
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("jwt secret cannot be empty")
	}
	if len(c.Secret) < 16 {
		return fmt.Errorf("jwt secret must be at least 16 bytes, got: %d", len(c.Secret))
	}
	if c.TTL < time.Minute {
		return fmt.Errorf("auth.token_ttl must be at least 1 minute, got: %s", c.TTL)
	}
	return nil
}

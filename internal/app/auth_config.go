package app

import (
	"strings"

	"github.com/cinetheque/api/internal/auth"
)

const defaultJWTIssuer = "cinetheque"

// JWTServiceConfig adapts the loaded settings into an auth.JWTConfig,
// filling in defaults where the configuration is silent.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	cfg := auth.JWTConfig{
		Secret:         strings.TrimSpace(c.JWT.Secret),
		Issuer:         strings.TrimSpace(c.JWT.Issuer),
		AccessTokenTTL: c.JWT.TTL,
	}
	if cfg.Issuer == "" {
		cfg.Issuer = defaultJWTIssuer
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = auth.DefaultAccessTokenTTL
	}
	return cfg
}

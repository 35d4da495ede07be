// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
)

type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	JWTSecret          string
	TokenEncryptionKey string
	LogLevel           string
	LogFormat          string

	// Reddit mirroring. All four must be set together; when absent the
	// server runs without an external forum mirror.
	RedditClientID    string
	RedditSecret      string
	RedditRedirectURI string
	RedditUserAgent   string
	// Refresh token of the bot account used for submissions and mod actions.
	RedditBotRefreshToken string

	SessionSecret string
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		Port:                  getEnv("PORT", "8080"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		JWTSecret:             getEnv("JWT_SECRET", ""),
		TokenEncryptionKey:    getEnv("TOKEN_ENCRYPTION_KEY", ""),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "text"),
		RedditClientID:        getEnv("REDDIT_CLIENT_ID", ""),
		RedditSecret:          getEnv("REDDIT_SECRET", ""),
		RedditRedirectURI:     getEnv("REDDIT_REDIRECT_URI", ""),
		RedditUserAgent:       getEnv("REDDIT_USER_AGENT", "enceladus-api"),
		RedditBotRefreshToken: getEnv("REDDIT_BOT_REFRESH_TOKEN", ""),
		SessionSecret:         getEnv("SESSION_SECRET", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}

	// Reddit config: client id, secret, and redirect URI must be set together.
	if cfg.RedditClientID != "" || cfg.RedditSecret != "" || cfg.RedditRedirectURI != "" {
		if cfg.RedditClientID == "" || cfg.RedditSecret == "" || cfg.RedditRedirectURI == "" {
			return nil, fmt.Errorf("REDDIT_CLIENT_ID, REDDIT_SECRET, and REDDIT_REDIRECT_URI must be set together")
		}
	}

	if cfg.TokenEncryptionKey != "" {
		keyBytes, err := hex.DecodeString(cfg.TokenEncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("TOKEN_ENCRYPTION_KEY must be valid hex: %w", err)
		}
		if len(keyBytes) != 32 {
			return nil, fmt.Errorf("TOKEN_ENCRYPTION_KEY must be exactly 64 hex characters (32 bytes), got %d bytes", len(keyBytes))
		}
	}

	return cfg, nil
}

// RedditEnabled reports whether the external forum mirror is configured.
func (c *Config) RedditEnabled() bool {
	return c.RedditClientID != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

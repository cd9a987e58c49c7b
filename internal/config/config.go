package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds every process-wide setting. It is built once in main and
// injected into the components that need it; nothing else reads the
// environment.
type Config struct {
	Port        string
	DatabaseDSN string
	ClientURL   string

	// Token secrets, one per token class.
	AccessTokenSecret  string
	RefreshTokenSecret string
	EmailTokenSecret   string
	ResetTokenSecret   string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	EmailTokenTTL   time.Duration
	ResetTokenTTL   time.Duration

	// Email delivery (Resend). An empty API key switches the mailer to
	// dev mode, which logs instead of sending.
	ResendAPIKey string
	EmailFrom    string

	// Rate limiting. An empty RedisURL falls back to in-process counters.
	RedisURL string

	CookieDomain string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        envString("PORT", "3000"),
		DatabaseDSN: os.Getenv("DATABASE_URL"),
		ClientURL:   envString("CLIENT_URL", "http://localhost:5173"),

		AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		EmailTokenSecret:   os.Getenv("EMAIL_TOKEN_SECRET"),
		ResetTokenSecret:   os.Getenv("RESET_TOKEN_SECRET"),

		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 30 * 24 * time.Hour,
		EmailTokenTTL:   10 * time.Minute,
		ResetTokenTTL:   10 * time.Minute,

		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		EmailFrom:    envString("EMAIL_FROM", "noreply@zeroscroll.app"),

		RedisURL: os.Getenv("REDIS_URL"),

		CookieDomain: os.Getenv("DOMAIN"),
	}

	if cfg.DatabaseDSN == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	for _, s := range []struct {
		key   string
		value string
	}{
		{"ACCESS_TOKEN_SECRET", cfg.AccessTokenSecret},
		{"REFRESH_TOKEN_SECRET", cfg.RefreshTokenSecret},
		{"EMAIL_TOKEN_SECRET", cfg.EmailTokenSecret},
		{"RESET_TOKEN_SECRET", cfg.ResetTokenSecret},
	} {
		if s.value == "" {
			return nil, fmt.Errorf("%s environment variable is not set", s.key)
		}
	}

	return cfg, nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

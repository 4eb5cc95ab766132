// SPDX-License-Identifier: MIT

// Package config loads gateway configuration with precedence ENV > file > defaults.
package config

import (
	"fmt"
	"strings"
	"time"
)

// AppConfig holds the full runtime configuration of the gateway.
type AppConfig struct {
	ListenAddr  string // API listen address
	MetricsAddr string // Prometheus listen address, empty disables the listener
	LogLevel    string

	// Africa's Talking gateway credentials.
	ATUsername string
	ATAPIKey   string
	ATSenderID string
	ATBaseURL  string

	// Session store.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration

	// Report store.
	DBPath string

	// Inbound webhook rate limit (requests per minute per client IP, 0 disables).
	RateLimitRPM int

	// Default official phone numbers alerted about new reports.
	OfficialContacts []string
}

// Defaults returns the built-in configuration defaults.
func Defaults() AppConfig {
	return AppConfig{
		ListenAddr:   ":8080",
		MetricsAddr:  ":9090",
		LogLevel:     "info",
		ATUsername:   "sandbox",
		ATBaseURL:    "https://api.africastalking.com",
		RedisAddr:    "127.0.0.1:6379",
		SessionTTL:   120 * time.Second,
		DBPath:       "abiahub.db",
		RateLimitRPM: 120,
	}
}

// Validate rejects configurations the daemon cannot start with.
func (c AppConfig) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.ATUsername == "" {
		return fmt.Errorf("AT username must not be empty")
	}
	if c.ATBaseURL == "" {
		return fmt.Errorf("AT base URL must not be empty")
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("redis address must not be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive, got %s", c.SessionTTL)
	}
	if c.DBPath == "" {
		return fmt.Errorf("database path must not be empty")
	}
	return nil
}

// Load builds the configuration: defaults, then the optional YAML file at
// path, then environment overrides.
func Load(path string) (AppConfig, error) {
	cfg := Defaults()

	if path != "" {
		if err := mergeFile(&cfg, path); err != nil {
			return AppConfig{}, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	mergeEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func mergeEnv(cfg *AppConfig) {
	cfg.ListenAddr = ParseString("ABIAHUB_LISTEN", cfg.ListenAddr)
	cfg.MetricsAddr = ParseString("ABIAHUB_METRICS_ADDR", cfg.MetricsAddr)
	cfg.LogLevel = ParseString("ABIAHUB_LOG_LEVEL", cfg.LogLevel)

	cfg.ATUsername = ParseString("ABIAHUB_AT_USERNAME", cfg.ATUsername)
	cfg.ATAPIKey = ParseString("ABIAHUB_AT_API_KEY", cfg.ATAPIKey)
	cfg.ATSenderID = ParseString("ABIAHUB_AT_SENDER_ID", cfg.ATSenderID)
	cfg.ATBaseURL = ParseString("ABIAHUB_AT_BASE_URL", cfg.ATBaseURL)

	cfg.RedisAddr = ParseString("ABIAHUB_REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = ParseString("ABIAHUB_REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = ParseInt("ABIAHUB_REDIS_DB", cfg.RedisDB)
	cfg.SessionTTL = ParseDuration("ABIAHUB_SESSION_TTL", cfg.SessionTTL)

	cfg.DBPath = ParseString("ABIAHUB_DB_PATH", cfg.DBPath)

	cfg.RateLimitRPM = ParseInt("ABIAHUB_RATE_LIMIT_RPM", cfg.RateLimitRPM)

	if raw := ParseString("ABIAHUB_OFFICIAL_CONTACTS", ""); raw != "" {
		cfg.OfficialContacts = splitCSV(raw)
	}
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

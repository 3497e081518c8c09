package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config captures runtime configuration for the flyer-to-calendar service.
type Config struct {
	ListenAddr       string
	AnthropicAPIKey  string
	AnthropicBaseURL string
	Model            string
	LLMMaxTokens     int
	DefaultDuration  time.Duration
	DropUnresolvable bool
	JWTSecret        string
	TokenTTL         time.Duration
	FreeScanLimit    int
	RequestTimeout   time.Duration
}

// FromEnv creates a configuration instance sourced from environment variables.
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ListenAddr:       getEnv("FLYERCAL_LISTEN_ADDR", ":8000"),
		AnthropicAPIKey:  getEnv("FLYERCAL_ANTHROPIC_API_KEY", ""),
		AnthropicBaseURL: getEnv("FLYERCAL_ANTHROPIC_BASE_URL", ""),
		Model:            getEnv("FLYERCAL_MODEL", "claude-sonnet-4-20250514"),
		LLMMaxTokens:     2048,
		DefaultDuration:  2 * time.Hour,
		DropUnresolvable: true,
		JWTSecret:        getEnv("FLYERCAL_JWT_SECRET", "your-secret-key-here"),
		TokenTTL:         72 * time.Hour,
		FreeScanLimit:    3,
		RequestTimeout:   90 * time.Second,
	}

	if tokens := os.Getenv("FLYERCAL_LLM_MAX_TOKENS"); tokens != "" {
		if _, err := fmt.Sscanf(tokens, "%d", &cfg.LLMMaxTokens); err != nil {
			return Config{}, fmt.Errorf("parse FLYERCAL_LLM_MAX_TOKENS: %w", err)
		}
	}

	if hours := os.Getenv("FLYERCAL_DEFAULT_EVENT_HOURS"); hours != "" {
		var h int
		if _, err := fmt.Sscanf(hours, "%d", &h); err != nil {
			return Config{}, fmt.Errorf("parse FLYERCAL_DEFAULT_EVENT_HOURS: %w", err)
		}
		cfg.DefaultDuration = time.Duration(h) * time.Hour
	}

	if policy := os.Getenv("FLYERCAL_START_POLICY"); policy != "" {
		switch policy {
		case "drop":
			cfg.DropUnresolvable = true
		case "default":
			cfg.DropUnresolvable = false
		default:
			return Config{}, fmt.Errorf("parse FLYERCAL_START_POLICY: want drop or default, got %q", policy)
		}
	}

	if limit := os.Getenv("FLYERCAL_FREE_SCAN_LIMIT"); limit != "" {
		if _, err := fmt.Sscanf(limit, "%d", &cfg.FreeScanLimit); err != nil {
			return Config{}, fmt.Errorf("parse FLYERCAL_FREE_SCAN_LIMIT: %w", err)
		}
	}

	if ttl := os.Getenv("FLYERCAL_TOKEN_TTL_H"); ttl != "" {
		var hours int
		if _, err := fmt.Sscanf(ttl, "%d", &hours); err != nil {
			return Config{}, fmt.Errorf("parse FLYERCAL_TOKEN_TTL_H: %w", err)
		}
		cfg.TokenTTL = time.Duration(hours) * time.Hour
	}

	if timeout := os.Getenv("FLYERCAL_REQUEST_TIMEOUT_S"); timeout != "" {
		var seconds int
		if _, err := fmt.Sscanf(timeout, "%d", &seconds); err != nil {
			return Config{}, fmt.Errorf("parse FLYERCAL_REQUEST_TIMEOUT_S: %w", err)
		}
		cfg.RequestTimeout = time.Duration(seconds) * time.Second
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// loads configuration from environment variables
func LoadEnvironmentVariables() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		_ = err // not an error - production environments may not have .env file
	}

	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	env := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		Port:             env("PORT", "8080"),
		Environment:      env("ENVIRONMENT", "development"),
		LogLevel:         env("LOG_LEVEL", ""),
		DatabaseURL:      env("DATABASE_URL", ""),
		JWTSecret:        env("JWT_SECRET", ""),
		IPRateLimit:      env("IP_RATE_LIMIT", "120-M"),
		AIProvider:       strings.ToLower(env("AI_PROVIDER", "gemini")),
		GeminiKey:        env("GEMINI_API_KEY", ""),
		AnthropicKey:     env("ANTHROPIC_API_KEY", ""),
		AIModel:          env("AI_MODEL", ""),
		RateLimitBackend: strings.ToLower(env("RATE_LIMIT_BACKEND", BackendMemory)),
		RedisURL:         env("REDIS_URL", ""),
	}

	if origins := env("CORS_ORIGINS", ""); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	switch cfg.AIProvider {
	case "gemini":
		if cfg.GeminiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
		}
	case "anthropic":
		if cfg.AnthropicKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is required")
		}
	default:
		return nil, fmt.Errorf("AI_PROVIDER must be gemini or anthropic, got %q", cfg.AIProvider)
	}

	switch cfg.RateLimitBackend {
	case BackendMemory:
	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL environment variable is required when RATE_LIMIT_BACKEND=redis")
		}
	default:
		return nil, fmt.Errorf("RATE_LIMIT_BACKEND must be memory or redis, got %q", cfg.RateLimitBackend)
	}

	var err error

	if cfg.AITimeout, err = parseDuration("AI_TIMEOUT", env("AI_TIMEOUT", "30s")); err != nil {
		return nil, err
	}

	if cfg.RateLimitWindow, err = parseDuration("RATE_LIMIT_WINDOW", env("RATE_LIMIT_WINDOW", "10s")); err != nil {
		return nil, err
	}

	if cfg.ErrorCleanupInterval, err = parseDuration("ERROR_CLEANUP_INTERVAL", env("ERROR_CLEANUP_INTERVAL", "24h")); err != nil {
		return nil, err
	}

	if cfg.RateLimitMax, err = parsePositiveInt("RATE_LIMIT_MAX", env("RATE_LIMIT_MAX", "1")); err != nil {
		return nil, err
	}

	if cfg.HourlyCredits, err = parsePositiveInt("HOURLY_CREDITS", env("HOURLY_CREDITS", "5")); err != nil {
		return nil, err
	}

	if cfg.DailyCredits, err = parsePositiveInt("DAILY_CREDITS", env("DAILY_CREDITS", "20")); err != nil {
		return nil, err
	}

	if cfg.ErrorRetentionDays, err = parsePositiveInt("ERROR_RETENTION_DAYS", env("ERROR_RETENTION_DAYS", "30")); err != nil {
		return nil, err
	}

	if cfg.CreditLocation, err = time.LoadLocation(env("CREDIT_TIMEZONE", "UTC")); err != nil {
		return nil, fmt.Errorf("CREDIT_TIMEZONE is not a valid timezone: %w", err)
	}

	return cfg, nil
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration such as 30s: %w", key, err)
	}

	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, value)
	}

	return d, nil
}

func parsePositiveInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}

	if n < 1 {
		return 0, fmt.Errorf("%s must be at least 1, got %d", key, n)
	}

	return n, nil
}

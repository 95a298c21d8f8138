package config

import "time"

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	DatabaseURL string
	JWTSecret   string
	CORSOrigins []string
	// ulule/limiter formatted rate, e.g. "120-M"
	IPRateLimit string

	AIProvider   string
	GeminiKey    string
	AnthropicKey string
	AIModel      string
	AITimeout    time.Duration

	RateLimitBackend string
	RedisURL         string
	RateLimitWindow  time.Duration
	RateLimitMax     int

	HourlyCredits  int
	DailyCredits   int
	CreditLocation *time.Location

	ErrorRetentionDays   int
	ErrorCleanupInterval time.Duration
}

// the API key for the selected AI provider
func (c *Config) AIKey() string {
	if c.AIProvider == "anthropic" {
		return c.AnthropicKey
	}

	return c.GeminiKey
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

package llm

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultTimeout     = 30 * time.Second
	defaultMaxTokens   = 1024
	defaultTemperature = 0.7
)

// creates the generator for the configured provider
func NewGenerator(ctx context.Context, config Config) (TextGenerator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key is required for provider %q", config.Provider)
	}

	var generator TextGenerator

	switch config.Provider {
	case ProviderGemini, "":
		g, err := NewGeminiGenerator(ctx, config)
		if err != nil {
			return nil, err
		}
		generator = g
	case ProviderAnthropic:
		generator = NewAnthropicGenerator(config)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", config.Provider)
	}

	return WithTimeout(generator, config.Timeout), nil
}

// bounds every GenerateText call with a deadline
type timeoutGenerator struct {
	next    TextGenerator
	timeout time.Duration
}

// wraps a generator so no call outlives timeout
func WithTimeout(next TextGenerator, timeout time.Duration) TextGenerator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &timeoutGenerator{next: next, timeout: timeout}
}

func (g *timeoutGenerator) GenerateText(ctx context.Context, req TextGenerationRequest) (*TextGenerationResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.next.GenerateText(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("generation timed out after %s: %w", g.timeout, ctx.Err())
		}
		return nil, err
	}

	return resp, nil
}

func (g *timeoutGenerator) Model() string {
	return g.next.Model()
}

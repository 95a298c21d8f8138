package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// represents different LLM providers
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderAnthropic Provider = "anthropic"
)

var (
	// the provider answered but produced no usable text
	ErrEmptyResponse = errors.New("no content in response")

	// the provider answered 200 with a body that could not be decoded
	ErrMalformedResponse = errors.New("malformed provider response")
)

// generates free text from a prompt
type TextGenerator interface {
	GenerateText(ctx context.Context, req TextGenerationRequest) (*TextGenerationResponse, error)
	Model() string
}

// a single prompt sent to the provider
type TextGenerationRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int // 0 uses the generator default
}

type TextGenerationResponse struct {
	Text  string
	Usage Usage
}

type Usage struct {
	InputTokens  int
	OutputTokens int
}

// holds configuration for generator initialization
type Config struct {
	Provider    Provider
	APIKey      string
	Model       string  // e.g., "gemini-2.0-flash"
	MaxTokens   int     // max tokens for response
	Temperature float32 // 0.0 to 1.0

	// bounds every call; zero means DefaultTimeout
	Timeout time.Duration
}

// a fault reported by the provider itself (non-2xx status or API error body)
type ProviderError struct {
	Provider   Provider
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s API request failed with status %d: %s", e.Provider, e.StatusCode, e.Message)
}

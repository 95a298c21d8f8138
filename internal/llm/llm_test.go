package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type mockGenerator struct {
	generateFunc func(ctx context.Context, req TextGenerationRequest) (*TextGenerationResponse, error)
}

func (m *mockGenerator) GenerateText(ctx context.Context, req TextGenerationRequest) (*TextGenerationResponse, error) {
	return m.generateFunc(ctx, req)
}

func (m *mockGenerator) Model() string {
	return "mock-model"
}

func newTestAnthropic(t *testing.T, handler http.HandlerFunc) *AnthropicGenerator {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	g := NewAnthropicGenerator(Config{Provider: ProviderAnthropic, APIKey: "test-key"})
	g.endpoint = server.URL
	g.httpClient = server.Client()
	g.limiter = rate.NewLimiter(rate.Inf, 1)

	return g
}

func TestAnthropicGenerator_GenerateText(t *testing.T) {
	var got messagesRequest

	g := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"  three sets of ten  "}],"usage":{"input_tokens":12,"output_tokens":5}}`))
	})

	resp, err := g.GenerateText(context.Background(), TextGenerationRequest{
		SystemPrompt: "you are a coach",
		UserPrompt:   "plan my week",
	})

	require.NoError(t, err)
	assert.Equal(t, "three sets of ten", resp.Text)
	assert.Equal(t, 12, resp.Usage.InputTokens)
	assert.Equal(t, 5, resp.Usage.OutputTokens)

	assert.Equal(t, defaultAnthropicModel, got.Model)
	assert.Equal(t, defaultMaxTokens, got.MaxTokens)
	assert.Equal(t, "you are a coach", got.System)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "plan my week", got.Messages[0].Content)
}

func TestAnthropicGenerator_ProviderError(t *testing.T) {
	g := newTestAnthropic(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"overloaded"}`))
	})

	_, err := g.GenerateText(context.Background(), TextGenerationRequest{UserPrompt: "hi"})

	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, ProviderAnthropic, providerErr.Provider)
	assert.Equal(t, http.StatusTooManyRequests, providerErr.StatusCode)
	assert.Contains(t, providerErr.Message, "overloaded")
}

func TestAnthropicGenerator_EmptyResponse(t *testing.T) {
	g := newTestAnthropic(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"content":[]}`))
	})

	_, err := g.GenerateText(context.Background(), TextGenerationRequest{UserPrompt: "hi"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestAnthropicGenerator_MalformedResponse(t *testing.T) {
	g := newTestAnthropic(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>upstream proxy error</html>`))
	})

	_, err := g.GenerateText(context.Background(), TextGenerationRequest{UserPrompt: "hi"})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestWithTimeout(t *testing.T) {
	t.Run("passes through successful responses", func(t *testing.T) {
		g := WithTimeout(&mockGenerator{
			generateFunc: func(_ context.Context, _ TextGenerationRequest) (*TextGenerationResponse, error) {
				return &TextGenerationResponse{Text: "ok"}, nil
			},
		}, time.Second)

		resp, err := g.GenerateText(context.Background(), TextGenerationRequest{})
		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Text)
		assert.Equal(t, "mock-model", g.Model())
	})

	t.Run("reports deadline exceeded", func(t *testing.T) {
		g := WithTimeout(&mockGenerator{
			generateFunc: func(ctx context.Context, _ TextGenerationRequest) (*TextGenerationResponse, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
		}, 10*time.Millisecond)

		_, err := g.GenerateText(context.Background(), TextGenerationRequest{})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("keeps provider errors intact", func(t *testing.T) {
		want := &ProviderError{Provider: ProviderGemini, StatusCode: 500, Message: "boom"}
		g := WithTimeout(&mockGenerator{
			generateFunc: func(_ context.Context, _ TextGenerationRequest) (*TextGenerationResponse, error) {
				return nil, want
			},
		}, time.Second)

		_, err := g.GenerateText(context.Background(), TextGenerationRequest{})
		assert.True(t, errors.Is(err, want))
	})

	t.Run("zero timeout uses default", func(t *testing.T) {
		g := WithTimeout(&mockGenerator{}, 0).(*timeoutGenerator)
		assert.Equal(t, DefaultTimeout, g.timeout)
	})
}

func TestNewGenerator(t *testing.T) {
	t.Run("requires an API key", func(t *testing.T) {
		_, err := NewGenerator(context.Background(), Config{Provider: ProviderAnthropic})
		assert.Error(t, err)
	})

	t.Run("rejects unknown providers", func(t *testing.T) {
		_, err := NewGenerator(context.Background(), Config{Provider: "openai", APIKey: "k"})
		assert.Error(t, err)
	})

	t.Run("builds anthropic with timeout wrapper", func(t *testing.T) {
		g, err := NewGenerator(context.Background(), Config{Provider: ProviderAnthropic, APIKey: "k", Model: "claude-test"})
		require.NoError(t, err)
		assert.Equal(t, "claude-test", g.Model())

		_, ok := g.(*timeoutGenerator)
		assert.True(t, ok)
	})
}

func TestProviderError(t *testing.T) {
	err := &ProviderError{Provider: ProviderGemini, StatusCode: 503, Message: "unavailable"}
	assert.Equal(t, "gemini API request failed with status 503: unavailable", err.Error())
}

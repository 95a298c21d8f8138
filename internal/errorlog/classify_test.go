package errorlog

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"codeberg.org/fittrack/server/internal/llm"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, TypeUnknown},
		{"deadline", fmt.Errorf("generation timed out: %w", context.DeadlineExceeded), TypeNetwork},
		{"net op error", &net.OpError{Op: "dial", Err: errors.New("refused")}, TypeNetwork},
		{"provider error", &llm.ProviderError{Provider: llm.ProviderGemini, StatusCode: 500}, TypeAIModel},
		{"wrapped provider error", fmt.Errorf("call: %w", &llm.ProviderError{StatusCode: 429}), TypeAIModel},
		{"empty response", llm.ErrEmptyResponse, TypeAIModel},
		{"malformed response", fmt.Errorf("%w: invalid character '<' looking for beginning of value", llm.ErrMalformedResponse), TypeAIModel},
		{"postgres error", &pgconn.PgError{Code: "23505"}, TypeAPI},
		{"no rows", fmt.Errorf("lookup: %w", pgx.ErrNoRows), TypeAPI},
		{"message mentions connection", errors.New("connection reset by peer"), TypeNetwork},
		{"message mentions validation", errors.New("validation failed for field"), TypeValidation},
		{"message mentions database", errors.New("database is locked"), TypeAPI},
		{"anything else", errors.New("something odd"), TypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

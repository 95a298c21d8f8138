package errorlog

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"codeberg.org/fittrack/server/internal/llm"
)

// maps an error to the taxonomy. typed errors are checked first, then the message text.
func Classify(err error) ErrorType {
	if err == nil {
		return TypeUnknown
	}

	// timeouts count as network faults even when a provider wrapped them
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return TypeNetwork
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return TypeNetwork
	}

	var providerErr *llm.ProviderError
	if errors.As(err, &providerErr) || errors.Is(err, llm.ErrEmptyResponse) || errors.Is(err, llm.ErrMalformedResponse) {
		return TypeAIModel
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) || errors.Is(err, pgx.ErrNoRows) {
		return TypeAPI
	}

	errMsg := strings.ToLower(err.Error())

	switch {
	case containsAny(errMsg, "timeout", "deadline", "connection", "network", "dial", "no such host"):
		return TypeNetwork
	case containsAny(errMsg, "validation", "binding", "invalid", "required"):
		return TypeValidation
	case containsAny(errMsg, "database", "sql", "postgres", "pgx"):
		return TypeAPI
	default:
		return TypeUnknown
	}
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

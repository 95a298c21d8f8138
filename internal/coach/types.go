// package coach runs a coaching request end to end: admission, the AI call,
// plan storage, error logging and the credit debit.
package coach

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codeberg.org/fittrack/server/fittrack/plans"
	"codeberg.org/fittrack/server/fittrack/users"
	"codeberg.org/fittrack/server/internal/admission"
	"codeberg.org/fittrack/server/internal/credits"
	"codeberg.org/fittrack/server/internal/errorlog"
)

var (
	// the caller has no user record
	ErrUnknownUser = errors.New("unknown user")
)

// persists successful responses
type PlanStore interface {
	Create(ctx context.Context, userID string, req plans.CreatePlanRequest) (*plans.Plan, error)
}

// supplies profile data for context-enriched prompts
type ProfileProvider interface {
	Profile(ctx context.Context, userID string) (*users.Profile, error)
}

// receives AI call and settle measurements, implemented by the metrics package
type Recorder interface {
	AICall(kind admission.Kind, outcome string, elapsed time.Duration, inputTokens, outputTokens int)
	SettleRetried()
}

type Request struct {
	Identity       string
	SessionID      string
	Kind           string
	Question       string
	IncludeContext bool
}

type Result struct {
	Response      string
	Kind          admission.Kind
	Credits       credits.State
	NextResetTime string
	PlanID        string
}

// a request that failed after admission. carries the id of the logged record
// and never the provider's own error text.
type Failure struct {
	ErrorID string
	Type    errorlog.ErrorType
	Err     error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("coaching failed (%s, error id %s): %v", f.Type, f.ErrorID, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// retry schedule for the credit debit that follows a successful AI call
type SettlePolicy struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultSettlePolicy() SettlePolicy {
	return SettlePolicy{
		MaxTries:        3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     time.Second,
	}
}

// package admission decides whether a coaching request may reach the AI provider.
// each request moves RECEIVED -> RATE_CHECK -> CREDIT_CHECK and ends ALLOWED or DENIED.
package admission

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"codeberg.org/fittrack/server/internal/credits"
)

// longest question accepted for a coaching request
const MaxQuestionLength = 2000

var (
	ErrInvalidKind = errors.New("invalid request kind")
)

// the type of coaching a request asks for
type Kind string

const (
	KindWorkoutPlan      Kind = "workout_plan"
	KindMealPlan         Kind = "meal_plan"
	KindSleepAnalysis    Kind = "sleep_analysis"
	KindGoalReview       Kind = "goal_review"
	KindProgressAnalysis Kind = "progress_analysis"
	KindGeneralQuestion  Kind = "general_question"
)

var allKinds = []Kind{
	KindWorkoutPlan,
	KindMealPlan,
	KindSleepAnalysis,
	KindGoalReview,
	KindProgressAnalysis,
	KindGeneralQuestion,
}

// lists every valid kind in a stable order
func Kinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

func (k Kind) IsValid() bool {
	for _, valid := range allKinds {
		if k == valid {
			return true
		}
	}
	return false
}

// whether the kind is meaningless without a user question
func (k Kind) RequiresQuestion() bool {
	return k == KindGeneralQuestion
}

// parses a kind, case-insensitively
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
	return k, nil
}

// why a request was denied
type Reason string

const (
	ReasonValidation  Reason = "VALIDATION_ERROR"
	ReasonRateLimit   Reason = "RATE_LIMIT"
	ReasonHourlyLimit Reason = "HOURLY_LIMIT"
	ReasonDailyLimit  Reason = "DAILY_LIMIT"
)

// stage of the admission state machine
type Stage string

const (
	StageReceived    Stage = "RECEIVED"
	StageRateCheck   Stage = "RATE_CHECK"
	StageCreditCheck Stage = "CREDIT_CHECK"
	StageAllowed     Stage = "ALLOWED"
	StageDenied      Stage = "DENIED"
)

// an incoming coaching request as seen by the controller
type Request struct {
	Identity string
	Kind     string
	Question string
}

// the controller's verdict for an admitted request
type Decision struct {
	Kind    Kind
	Credits credits.State
	Reset   credits.Reset
}

// a denied request. returned as an error from Admit so callers can branch with errors.As.
type Denial struct {
	Reason  Reason
	Stage   Stage
	Message string

	// hourly countdown as M:SS, set for rate and hourly denials
	WaitTime string
	// daily countdown as "Hh Mm", set for daily denials
	ResetTime string
	// how long the caller should wait before retrying
	RetryAfter time.Duration

	// state after reconcile; zero for denials decided before the credit check
	Credits credits.State
	// whether Credits was loaded
	HasCredits bool
}

func (d *Denial) Error() string {
	return fmt.Sprintf("admission denied (%s): %s", d.Reason, d.Message)
}

// result of debiting a credit after a successful AI call
type Settlement struct {
	Credits credits.State

	// the state had nothing left to debit, so the call went unpaid
	Drift bool
}

// receives admission outcomes, implemented by the metrics package
type Observer interface {
	Admitted(kind Kind)
	Denied(reason Reason)
	SettleDrift()
}

package admission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"codeberg.org/fittrack/server/internal/credits"
	"codeberg.org/fittrack/server/internal/logger"
	"codeberg.org/fittrack/server/internal/ratelimit"
)

const (
	msgKindRequired     = "Request kind is required"
	msgKindInvalid      = "Unknown request kind"
	msgQuestionRequired = "A question is required for this request kind"
	msgQuestionTooLong  = "Question is too long"
	msgRateLimited      = "Too many requests. Please wait a few seconds."
	msgHourlyLimit      = "Hourly limit reached"
	msgDailyLimit       = "Daily limit reached"
)

// composes the rate limiter and the credit ledger into one admission decision
type Controller struct {
	limiter  ratelimit.Limiter
	ledger   *credits.Ledger
	store    credits.Store
	observer Observer
}

func NewController(limiter ratelimit.Limiter, ledger *credits.Ledger, store credits.Store) *Controller {
	return &Controller{
		limiter: limiter,
		ledger:  ledger,
		store:   store,
	}
}

// attaches an observer notified of every outcome
func (c *Controller) WithObserver(o Observer) *Controller {
	c.observer = o
	return c
}

func (c *Controller) Ledger() *credits.Ledger {
	return c.ledger
}

// runs the admission state machine for one request. a denial is returned as a
// *Denial error; any other error means the decision could not be made.
func (c *Controller) Admit(ctx context.Context, req Request) (*Decision, error) {
	// RECEIVED
	kind, denial := validate(req)
	if denial != nil {
		return nil, c.deny(denial)
	}

	// RATE_CHECK
	rl, err := c.limiter.Allow(ctx, req.Identity)
	if err != nil {
		// the shared store being down must not take coaching offline with it
		logger.FromContext(ctx).Warn("rate limiter unavailable, admitting request",
			"error", err,
			"identity", req.Identity,
		)
	} else if !rl.Allowed {
		denial := &Denial{
			Reason:     ReasonRateLimit,
			Stage:      StageRateCheck,
			Message:    msgRateLimited,
			WaitTime:   formatWait(rl.RetryAfter),
			RetryAfter: rl.RetryAfter,
		}

		// throttled callers get a read-only view, never a row lock
		if state, err := c.store.Snapshot(ctx, req.Identity); err == nil {
			c.ledger.Reconcile(&state)
			denial.Credits = state
			denial.HasCredits = true
		}

		return nil, c.deny(denial)
	}

	// CREDIT_CHECK
	var reset credits.Reset
	state, err := c.store.UpdateCredits(ctx, req.Identity, func(s *credits.State) error {
		denial = nil
		reset = c.ledger.Reconcile(s)

		// hourly first, it resets sooner
		switch {
		case c.ledger.HourlyExhausted(*s):
			minutes, seconds := c.ledger.TimeUntilHourlyReset(*s)
			denial = &Denial{
				Reason:     ReasonHourlyLimit,
				Message:    msgHourlyLimit,
				WaitTime:   c.ledger.FormatHourlyReset(*s),
				RetryAfter: time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second,
			}
		case c.ledger.DailyExhausted(*s):
			hours, minutes := c.ledger.TimeUntilDailyReset()
			denial = &Denial{
				Reason:     ReasonDailyLimit,
				Message:    msgDailyLimit,
				ResetTime:  c.ledger.FormatDailyReset(),
				RetryAfter: time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute,
			}
		}

		// the reconciled state is persisted whatever the outcome
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to check credits: %w", err)
	}

	if denial != nil {
		denial.Stage = StageCreditCheck
		denial.Credits = state
		denial.HasCredits = true
		return nil, c.deny(denial)
	}

	if c.observer != nil {
		c.observer.Admitted(kind)
	}

	return &Decision{
		Kind:    kind,
		Credits: state,
		Reset:   reset,
	}, nil
}

// debits one credit after a successful AI call. when overlapping requests have
// already spent the last credit the state is left at its bounds and the
// settlement reports drift instead of failing.
func (c *Controller) Settle(ctx context.Context, identity string) (Settlement, error) {
	var drift bool

	state, err := c.store.UpdateCredits(ctx, identity, func(s *credits.State) error {
		drift = false
		c.ledger.Reconcile(s)

		if err := c.ledger.Consume(s); err != nil {
			if errors.Is(err, credits.ErrInsufficientCredits) {
				drift = true
				return nil
			}
			return err
		}

		return nil
	})

	if err != nil {
		return Settlement{}, fmt.Errorf("failed to settle credits: %w", err)
	}

	if drift {
		logger.FromContext(ctx).Warn("credit settle found no credit to debit",
			"identity", identity,
			"hourly_remaining", state.HourlyRemaining,
			"daily_used", state.DailyUsed,
		)

		if c.observer != nil {
			c.observer.SettleDrift()
		}
	}

	return Settlement{Credits: state, Drift: drift}, nil
}

// reconciles and persists the identity's credit state without spending anything
func (c *Controller) Credits(ctx context.Context, identity string) (credits.State, error) {
	state, err := c.store.UpdateCredits(ctx, identity, func(s *credits.State) error {
		c.ledger.Reconcile(s)
		return nil
	})

	if err != nil {
		return credits.State{}, fmt.Errorf("failed to load credits: %w", err)
	}

	return state, nil
}

func (c *Controller) deny(d *Denial) *Denial {
	if d.Stage == "" {
		d.Stage = StageReceived
	}

	if c.observer != nil {
		c.observer.Denied(d.Reason)
	}

	return d
}

func validate(req Request) (Kind, *Denial) {
	if strings.TrimSpace(req.Kind) == "" {
		return "", &Denial{Reason: ReasonValidation, Message: msgKindRequired}
	}

	kind, err := ParseKind(req.Kind)
	if err != nil {
		return "", &Denial{Reason: ReasonValidation, Message: msgKindInvalid}
	}

	question := strings.TrimSpace(req.Question)

	if kind.RequiresQuestion() && question == "" {
		return "", &Denial{Reason: ReasonValidation, Message: msgQuestionRequired}
	}

	if len([]rune(question)) > MaxQuestionLength {
		return "", &Denial{Reason: ReasonValidation, Message: msgQuestionTooLong}
	}

	return kind, nil
}

// formats a wait as M:SS, rounding partial seconds up
func formatWait(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	total := int((d + time.Second - 1) / time.Second)

	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

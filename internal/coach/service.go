package coach

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"codeberg.org/fittrack/server/fittrack/plans"
	"codeberg.org/fittrack/server/fittrack/users"
	"codeberg.org/fittrack/server/internal/admission"
	"codeberg.org/fittrack/server/internal/credits"
	"codeberg.org/fittrack/server/internal/errorlog"
	"codeberg.org/fittrack/server/internal/llm"
	"codeberg.org/fittrack/server/internal/logger"
	"codeberg.org/fittrack/server/internal/metrics"
)

const (
	codeValidation   = "VALIDATION_FAILED"
	codeAIFailed     = "AI_REQUEST_FAILED"
	codeLookupFailed = "CREDIT_LOOKUP_FAILED"
	codeSettleFailed = "CREDIT_SETTLE_FAILED"
	codePlanFailed   = "PLAN_SAVE_FAILED"
)

type Service struct {
	controller *admission.Controller
	generator  llm.TextGenerator
	errors     *errorlog.Logger
	plans      PlanStore
	profiles   ProfileProvider
	recorder   Recorder
	settle     SettlePolicy
}

func NewService(
	controller *admission.Controller,
	generator llm.TextGenerator,
	errorLog *errorlog.Logger,
	planStore PlanStore,
	profiles ProfileProvider,
) *Service {
	return &Service{
		controller: controller,
		generator:  generator,
		errors:     errorLog,
		plans:      planStore,
		profiles:   profiles,
		settle:     DefaultSettlePolicy(),
	}
}

func (s *Service) WithRecorder(r Recorder) *Service {
	s.recorder = r
	return s
}

func (s *Service) WithSettlePolicy(p SettlePolicy) *Service {
	s.settle = p
	return s
}

func (s *Service) Ledger() *credits.Ledger {
	return s.controller.Ledger()
}

// handles one coaching request. denials come back as *admission.Denial, failures
// after admission as *Failure, and an unknown caller as ErrUnknownUser.
func (s *Service) Coach(ctx context.Context, req Request) (*Result, error) {
	decision, err := s.controller.Admit(ctx, admission.Request{
		Identity: req.Identity,
		Kind:     req.Kind,
		Question: req.Question,
	})

	if err != nil {
		return nil, s.admissionError(ctx, req, err)
	}

	var profile *users.Profile
	if req.IncludeContext && s.profiles != nil {
		profile, err = s.profiles.Profile(ctx, req.Identity)
		if err != nil {
			logger.FromContext(ctx).Warn("coaching context unavailable, continuing without it",
				"error", err,
				"user_id", req.Identity,
			)
			profile = nil
		}
	}

	prompt := buildPrompt(decision.Kind, profile, req.Question)

	start := time.Now()
	resp, err := s.generator.GenerateText(ctx, llm.TextGenerationRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   prompt,
	})
	elapsed := time.Since(start)

	if err != nil {
		s.recordAICall(decision.Kind, metrics.OutcomeFailure, elapsed, llm.Usage{})
		return nil, s.fail(ctx, req, errorlog.Classify(err), codeAIFailed, err, map[string]any{
			"kind":       string(decision.Kind),
			"model":      s.generator.Model(),
			"elapsed_ms": elapsed.Milliseconds(),
		})
	}

	s.recordAICall(decision.Kind, metrics.OutcomeSuccess, elapsed, resp.Usage)

	state := s.settleCredits(ctx, req, decision)

	result := &Result{
		Response:      resp.Text,
		Kind:          decision.Kind,
		Credits:       state,
		NextResetTime: s.controller.Ledger().FormatHourlyReset(state),
	}

	if plan := s.savePlan(ctx, req, decision.Kind, prompt, resp.Text, state); plan != nil {
		result.PlanID = plan.ID
	}

	return result, nil
}

// reconciles and returns the caller's current credit state
func (s *Service) Credits(ctx context.Context, identity string) (credits.State, error) {
	state, err := s.controller.Credits(ctx, identity)
	if isUnknownUser(err) {
		return credits.State{}, ErrUnknownUser
	}

	return state, err
}

func (s *Service) admissionError(ctx context.Context, req Request, err error) error {
	var denial *admission.Denial
	if errors.As(err, &denial) {
		errType := errorlog.TypeRateLimit
		code := string(denial.Reason)

		if denial.Reason == admission.ReasonValidation {
			errType = errorlog.TypeValidation
			code = codeValidation
		}

		details := map[string]any{
			"kind":   req.Kind,
			"reason": string(denial.Reason),
			"stage":  string(denial.Stage),
		}

		if denial.WaitTime != "" {
			details["waitTime"] = denial.WaitTime
		}

		if denial.ResetTime != "" {
			details["resetTime"] = denial.ResetTime
		}

		s.errors.Log(ctx, errorlog.Entry{
			Identity:  req.Identity,
			SessionID: req.SessionID,
			Type:      errType,
			Code:      code,
			Message:   denial.Message,
			Details:   details,
		})

		return denial
	}

	if isUnknownUser(err) {
		return ErrUnknownUser
	}

	return s.fail(ctx, req, errorlog.Classify(err), codeLookupFailed, err, map[string]any{
		"kind": req.Kind,
	})
}

// logs a post-admission failure and wraps it with an opaque error id
func (s *Service) fail(
	ctx context.Context,
	req Request,
	errType errorlog.ErrorType,
	code string,
	err error,
	details map[string]any,
) *Failure {
	errorID := uuid.NewString()

	rec := s.errors.Log(ctx, errorlog.Entry{
		Identity:  req.Identity,
		SessionID: req.SessionID,
		Type:      errType,
		Code:      code,
		Message:   err.Error(),
		Details:   details,
	})

	if rec != nil {
		errorID = rec.ID
	}

	return &Failure{ErrorID: errorID, Type: errType, Err: err}
}

// debits the credit, retrying transient store failures. when every attempt
// fails the response still goes out and the missed debit is logged as drift.
func (s *Service) settleCredits(ctx context.Context, req Request, decision *admission.Decision) credits.State {
	// the AI response is already paid for upstream, so a client disconnect must not skip the debit
	settleCtx := context.WithoutCancel(ctx)

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = s.settle.InitialInterval
	expo.MaxInterval = s.settle.MaxInterval

	settlement, err := backoff.Retry(settleCtx, func() (admission.Settlement, error) {
		settlement, err := s.controller.Settle(settleCtx, req.Identity)
		if isUnknownUser(err) {
			// a missing row will not reappear on retry
			return settlement, backoff.Permanent(err)
		}
		return settlement, err
	},
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(s.settle.MaxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.FromContext(ctx).Warn("retrying credit settle",
				"error", err,
				"user_id", req.Identity,
				"next_attempt_in", next,
			)
			if s.recorder != nil {
				s.recorder.SettleRetried()
			}
		}),
	)

	if err == nil {
		return settlement.Credits
	}

	s.errors.Log(ctx, errorlog.Entry{
		Identity:  req.Identity,
		SessionID: req.SessionID,
		Type:      errorlog.Classify(err),
		Code:      codeSettleFailed,
		Message:   fmt.Sprintf("credit debit lost after successful AI call: %v", err),
		Details:   map[string]any{"kind": string(decision.Kind)},
	})

	// report what the balance would have been had the debit landed
	state := decision.Credits
	_ = s.controller.Ledger().Consume(&state) //nolint:errcheck

	return state
}

func (s *Service) savePlan(
	ctx context.Context,
	req Request,
	kind admission.Kind,
	prompt, response string,
	state credits.State,
) *plans.Plan {
	if s.plans == nil {
		return nil
	}

	plan, err := s.plans.Create(ctx, req.Identity, plans.CreatePlanRequest{
		Kind:     string(kind),
		Prompt:   prompt,
		Response: response,
		Credits: plans.CreditsSnapshot{
			Hourly: state.HourlyRemaining,
			Daily:  state.DailyUsed,
		},
	})

	if err != nil {
		s.errors.Log(ctx, errorlog.Entry{
			Identity:  req.Identity,
			SessionID: req.SessionID,
			Type:      errorlog.TypeUnknown,
			Code:      codePlanFailed,
			Message:   err.Error(),
			Details:   map[string]any{"kind": string(kind)},
			Severity:  errorlog.SeverityLow,
		})
		return nil
	}

	return plan
}

func (s *Service) recordAICall(kind admission.Kind, outcome string, elapsed time.Duration, usage llm.Usage) {
	if s.recorder == nil {
		return
	}

	s.recorder.AICall(kind, outcome, elapsed, usage.InputTokens, usage.OutputTokens)
}

func isUnknownUser(err error) bool {
	return errors.Is(err, users.ErrUserNotFound) || errors.Is(err, credits.ErrStateNotFound)
}

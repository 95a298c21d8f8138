package coach

import (
	stderrors "errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"codeberg.org/fittrack/server/internal/admission"
	"codeberg.org/fittrack/server/internal/auth"
	"codeberg.org/fittrack/server/internal/coach"
	"codeberg.org/fittrack/server/internal/errors"
)

const failureMessage = "Sorry, the coach could not answer right now. Please try again in a moment."

// CoachHandler godoc
// @Summary Ask the AI coach
// @Description Runs admission (rate limit, hourly pool, daily cap), calls the AI provider and debits one credit on success
// @Tags coach
// @Accept json
// @Produce json
// @Param request body CoachRequest true "Coaching request"
// @Success 200 {object} CoachResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 429 {object} LimitResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/coach [post]
// @Security BearerAuth
func CoachHandler(service *coach.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.GetUserID(c)
		if !ok {
			errors.Unauthorized(c, "")
			return
		}

		var req CoachRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.BadRequest(c, "invalid request body", err)
			return
		}

		result, err := service.Coach(c.Request.Context(), coach.Request{
			Identity:       userID,
			SessionID:      c.GetString("request_id"),
			Kind:           req.Kind,
			Question:       req.Question,
			IncludeContext: req.IncludeContext,
		})

		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, CoachResponse{
			Response:         result.Response,
			Kind:             string(result.Kind),
			CreditsRemaining: result.Credits.HourlyRemaining,
			DailyUsed:        result.Credits.DailyUsed,
			NextResetTime:    result.NextResetTime,
			PlanID:           result.PlanID,
		})
	}
}

// GetCreditsHandler godoc
// @Summary Get the caller's AI credits
// @Description Applies any due hourly or daily reset and returns the current balance with countdowns
// @Tags coach
// @Produce json
// @Success 200 {object} CreditsResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/coach/credits [get]
// @Security BearerAuth
func GetCreditsHandler(service *coach.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.GetUserID(c)
		if !ok {
			errors.Unauthorized(c, "")
			return
		}

		state, err := service.Credits(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}

		ledger := service.Ledger()
		policy := ledger.Policy()

		c.JSON(http.StatusOK, CreditsResponse{
			CreditsRemaining: state.HourlyRemaining,
			DailyUsed:        state.DailyUsed,
			HourlyLimit:      policy.HourlyPool,
			DailyLimit:       policy.DailyCap,
			NextResetTime:    ledger.FormatHourlyReset(state),
			DailyResetTime:   ledger.FormatDailyReset(),
		})
	}
}

// maps service errors to responses
func respondError(c *gin.Context, err error) {
	var denial *admission.Denial
	if stderrors.As(err, &denial) {
		respondDenial(c, denial)
		return
	}

	if stderrors.Is(err, coach.ErrUnknownUser) {
		errors.NotFound(c, "user")
		return
	}

	var failure *coach.Failure
	if stderrors.As(err, &failure) {
		errors.InternalErrorWithID(c, failureMessage, failure.ErrorID, failure)
		return
	}

	errors.InternalError(c, failureMessage, err)
}

func respondDenial(c *gin.Context, d *admission.Denial) {
	if d.Reason == admission.ReasonValidation {
		c.JSON(http.StatusBadRequest, errors.ErrorResponse{
			Error:   errors.CodeValidationError,
			Message: d.Message,
		})
		return
	}

	resp := LimitResponse{
		Error:     d.Message,
		Reason:    string(d.Reason),
		WaitTime:  d.WaitTime,
		ResetTime: d.ResetTime,
	}

	if d.HasCredits {
		remaining := d.Credits.HourlyRemaining
		used := d.Credits.DailyUsed
		resp.CreditsRemaining = &remaining
		resp.DailyUsed = &used
	}

	if d.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(d.RetryAfter.Seconds()))))
	}

	c.JSON(http.StatusTooManyRequests, resp)
}

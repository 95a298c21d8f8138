package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/fittrack/server/fittrack/plans"
	"codeberg.org/fittrack/server/internal/admission"
	"codeberg.org/fittrack/server/internal/auth"
	"codeberg.org/fittrack/server/internal/coach"
	"codeberg.org/fittrack/server/internal/credits"
	"codeberg.org/fittrack/server/internal/errorlog"
	"codeberg.org/fittrack/server/internal/errors"
	"codeberg.org/fittrack/server/internal/llm"
	"codeberg.org/fittrack/server/internal/ratelimit"
)

const testSecret = "coach-handler-secret"

type stubGenerator struct {
	err error
}

func (g *stubGenerator) GenerateText(_ context.Context, _ llm.TextGenerationRequest) (*llm.TextGenerationResponse, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &llm.TextGenerationResponse{Text: "3x10 goblet squats"}, nil
}

func (g *stubGenerator) Model() string {
	return "stub"
}

type stubPlans struct{}

func (stubPlans) Create(_ context.Context, userID string, req plans.CreatePlanRequest) (*plans.Plan, error) {
	return &plans.Plan{ID: "plan-42", UserID: userID, Kind: req.Kind}, nil
}

type harness struct {
	router    *gin.Engine
	memory    *credits.MemoryStore
	errStore  *errorlog.MemoryStore
	generator *stubGenerator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)
	gin.SetMode(gin.TestMode)

	h := &harness{
		memory:    credits.NewMemoryStore(),
		errStore:  errorlog.NewMemoryStore(),
		generator: &stubGenerator{},
	}

	controller := admission.NewController(
		ratelimit.NewMemoryLimiter(ratelimit.DefaultConfig()),
		credits.NewLedger(credits.DefaultPolicy()),
		h.memory,
	)

	service := coach.NewService(controller, h.generator, errorlog.NewLogger(h.errStore), stubPlans{}, nil).
		WithSettlePolicy(coach.SettlePolicy{MaxTries: 1, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond})

	h.router = gin.New()
	RegisterRoutes(h.router.Group("/api/v1"), service)

	return h
}

func (h *harness) seed(identity string, hourly, daily int) {
	now := time.Now()
	h.memory.Put(identity, credits.State{
		HourlyRemaining: hourly,
		HourlyResetAt:   now,
		DailyUsed:       daily,
		DailyResetAt:    now,
	})
}

func (h *harness) do(t *testing.T, method, path, identity string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	if identity != "" {
		token, err := auth.GenerateJWT(identity, identity+"@example.com", false)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func TestCoachHandlerSuccess(t *testing.T) {
	h := newHarness(t)
	h.seed("user-1", 2, 3)

	w := h.do(t, http.MethodPost, "/api/v1/coach", "user-1", CoachRequest{Kind: "workout_plan"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp CoachResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "3x10 goblet squats", resp.Response)
	assert.Equal(t, "workout_plan", resp.Kind)
	assert.Equal(t, 1, resp.CreditsRemaining)
	assert.Equal(t, 4, resp.DailyUsed)
	assert.Equal(t, "plan-42", resp.PlanID)
	assert.NotEmpty(t, resp.NextResetTime)
}

func TestCoachHandlerRateLimited(t *testing.T) {
	h := newHarness(t)
	h.seed("user-1", 5, 0)

	first := h.do(t, http.MethodPost, "/api/v1/coach", "user-1", CoachRequest{Kind: "meal_plan"})
	require.Equal(t, http.StatusOK, first.Code)

	w := h.do(t, http.MethodPost, "/api/v1/coach", "user-1", CoachRequest{Kind: "meal_plan"})
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var resp LimitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "RATE_LIMIT", resp.Reason)
	assert.Equal(t, "Too many requests. Please wait a few seconds.", resp.Error)
	assert.Regexp(t, `^0:\d{2}$`, resp.WaitTime)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	require.NotNil(t, resp.CreditsRemaining)
	assert.Equal(t, 4, *resp.CreditsRemaining)
}

func TestCoachHandlerHourlyLimit(t *testing.T) {
	h := newHarness(t)
	h.seed("user-1", 0, 7)

	w := h.do(t, http.MethodPost, "/api/v1/coach", "user-1", CoachRequest{Kind: "workout_plan"})
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var resp LimitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "HOURLY_LIMIT", resp.Reason)
	assert.Equal(t, "Hourly limit reached", resp.Error)
	assert.NotEmpty(t, resp.WaitTime)
	require.NotNil(t, resp.DailyUsed)
	assert.Equal(t, 7, *resp.DailyUsed)
}

func TestCoachHandlerValidation(t *testing.T) {
	h := newHarness(t)
	h.seed("user-1", 5, 0)

	tests := []struct {
		name string
		body any
	}{
		{"missing kind", CoachRequest{}},
		{"unknown kind", CoachRequest{Kind: "yoga_retreat"}},
		{"question required", CoachRequest{Kind: "general_question"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do(t, http.MethodPost, "/api/v1/coach", "user-1", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var resp errors.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, errors.CodeValidationError, resp.Error)
			assert.NotEmpty(t, resp.Message)
		})
	}

	state, ok := h.memory.Get("user-1")
	require.True(t, ok)
	assert.Equal(t, 5, state.HourlyRemaining)
}

func TestCoachHandlerMalformedBody(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/coach", bytes.NewBufferString("{"))
	token, err := auth.GenerateJWT("user-1", "user-1@example.com", false)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCoachHandlerUnknownUser(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/api/v1/coach", "ghost", CoachRequest{Kind: "workout_plan"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCoachHandlerAIFailure(t *testing.T) {
	h := newHarness(t)
	h.seed("user-1", 5, 0)
	h.generator.err = &llm.ProviderError{Provider: llm.ProviderGemini, StatusCode: 503, Message: "upstream secret detail"}

	w := h.do(t, http.MethodPost, "/api/v1/coach", "user-1", CoachRequest{Kind: "sleep_analysis"})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "upstream secret detail")

	var resp errors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, failureMessage, resp.Message)

	records, _, err := h.errStore.List(context.Background(), errorlog.Filter{}, 0, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, records[0].ID, resp.ErrorID)

	state, ok := h.memory.Get("user-1")
	require.True(t, ok)
	assert.Equal(t, 5, state.HourlyRemaining)
}

func TestCoachHandlerRequiresAuth(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/api/v1/coach", "", CoachRequest{Kind: "workout_plan"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetCreditsHandler(t *testing.T) {
	h := newHarness(t)
	h.seed("user-1", 3, 9)

	w := h.do(t, http.MethodGet, "/api/v1/coach/credits", "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp CreditsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, 3, resp.CreditsRemaining)
	assert.Equal(t, 9, resp.DailyUsed)
	assert.Equal(t, credits.DefaultHourlyPool, resp.HourlyLimit)
	assert.Equal(t, credits.DefaultDailyCap, resp.DailyLimit)
	assert.NotEmpty(t, resp.NextResetTime)
	assert.NotEmpty(t, resp.DailyResetTime)

	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/api/v1/coach/credits", "ghost", nil).Code)
}

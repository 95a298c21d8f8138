package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/coach", nil)
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestInternalErrorHidesDetails(t *testing.T) {
	c, w := newContext()

	InternalError(c, "failed to generate coaching response", fmt.Errorf("gemini: quota exceeded for key abc123"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	resp := decode(t, w)
	assert.Equal(t, CodeServerError, resp.Error)
	assert.True(t, IsValidUUID(resp.ErrorID))
	assert.Empty(t, resp.Details)
	assert.NotContains(t, w.Body.String(), "abc123")
}

func TestInternalErrorWithID(t *testing.T) {
	c, w := newContext()

	InternalErrorWithID(c, "", "7d5c8f51-2a0e-4a7e-9c55-4b1f1f7e2a10", fmt.Errorf("boom"))

	resp := decode(t, w)
	assert.Equal(t, "an error occurred", resp.Message)
	assert.Equal(t, "7d5c8f51-2a0e-4a7e-9c55-4b1f1f7e2a10", resp.ErrorID)
}

func TestSimpleResponses(t *testing.T) {
	tests := []struct {
		name   string
		write  func(c *gin.Context)
		status int
		code   string
		msg    string
	}{
		{"unauthorized", func(c *gin.Context) { Unauthorized(c, "") }, http.StatusUnauthorized, CodeUnauthorized, "authentication required"},
		{"forbidden", func(c *gin.Context) { Forbidden(c, "") }, http.StatusForbidden, CodeForbidden, "permission denied"},
		{"not found", func(c *gin.Context) { NotFound(c, "plan") }, http.StatusNotFound, CodeNotFound, "plan not found"},
		{"bad request", func(c *gin.Context) { BadRequest(c, "", nil) }, http.StatusBadRequest, CodeBadRequest, "invalid request"},
		{"too many", func(c *gin.Context) { TooManyRequests(c, "") }, http.StatusTooManyRequests, CodeTooManyRequests, "too many requests"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newContext()
			tt.write(c)

			assert.Equal(t, tt.status, w.Code)
			resp := decode(t, w)
			assert.Equal(t, tt.code, resp.Error)
			assert.Equal(t, tt.msg, resp.Message)
		})
	}
}

func TestClassifyErrorProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	tests := []struct {
		name     string
		err      error
		category string
		message  string
	}{
		{"pg error", &pgconn.PgError{Message: "relation users does not exist"}, CategoryDatabase, "database operation failed"},
		{"deadline", context.DeadlineExceeded, CategoryTimeout, "request timed out"},
		{"not found", fmt.Errorf("plan not found"), CategoryNotFound, "resource not found"},
		{"network", fmt.Errorf("dial tcp: connection refused"), CategoryNetwork, "connection error occurred"},
		{"validation", fmt.Errorf("field kind is required"), CategoryValidation, "validation failed"},
		{"unknown", fmt.Errorf("weird"), CategoryUnknown, "an error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := classifyError(tt.err)
			assert.Equal(t, tt.category, info.category)
			assert.Equal(t, tt.message, info.sanitized)
		})
	}
}

func TestClassifyErrorDevelopmentKeepsMessage(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")

	info := classifyError(fmt.Errorf("dial tcp: connection refused"))
	assert.Equal(t, "dial tcp: connection refused", info.sanitized)
}

func TestIsValidUUID(t *testing.T) {
	assert.True(t, IsValidUUID("7D5C8F51-2A0E-4A7E-9C55-4B1F1F7E2A10"))
	assert.False(t, IsValidUUID(""))
	assert.False(t, IsValidUUID("not-a-uuid"))
}

func TestValidatePathUUID(t *testing.T) {
	c, w := newContext()
	c.Params = gin.Params{{Key: "id", Value: "nope"}}

	_, ok := ValidatePathUUID(c, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusNotFound, w.Code)

	c, _ = newContext()
	c.Params = gin.Params{{Key: "id", Value: "7d5c8f51-2a0e-4a7e-9c55-4b1f1f7e2a10"}}

	id, ok := ValidatePathUUID(c, "id")
	assert.True(t, ok)
	assert.Equal(t, "7d5c8f51-2a0e-4a7e-9c55-4b1f1f7e2a10", id)
}

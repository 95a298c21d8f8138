package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestDefaultParams(t *testing.T) {
	assert.Equal(t, Params{Limit: 10, Offset: 0}, DefaultParams(0, -5, 10, 20))
	assert.Equal(t, Params{Limit: 20, Offset: 40}, DefaultParams(500, 40, 10, 20))
	assert.Equal(t, Params{Limit: 7, Offset: 3}, DefaultParams(7, 3, 10, 20))
}

func TestNewMeta(t *testing.T) {
	meta := NewMeta(Params{Limit: 10, Offset: 10}, 25)
	assert.True(t, meta.HasMore)

	meta = NewMeta(Params{Limit: 10, Offset: 20}, 25)
	assert.False(t, meta.HasMore)
	assert.Equal(t, 25, meta.Total)
}

func TestFromQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query string
		want  Params
	}{
		{"", Params{Limit: 10, Offset: 0}},
		{"?limit=5&offset=15", Params{Limit: 5, Offset: 15}},
		{"?limit=100", Params{Limit: 20, Offset: 0}},
		{"?limit=abc&offset=-1", Params{Limit: 10, Offset: 0}},
	}

	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/plans"+tt.query, nil)

		assert.Equal(t, tt.want, FromQuery(c, 10, 20), tt.query)
	}
}

package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const checkTimeout = 2 * time.Second

// a named dependency probe
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// represents the health check response
type Response struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// reports overall health and the reachability of each dependency.
// any failing check turns the response into a 503.
func Handler(version string, checks ...Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
		defer cancel()

		resp := Response{
			Status:  "healthy",
			Service: "fittrack",
			Version: version,
			Checks:  make(map[string]string, len(checks)),
		}

		status := http.StatusOK

		for _, check := range checks {
			if err := check.Probe(ctx); err != nil {
				resp.Checks[check.Name] = "unreachable"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[check.Name] = "ok"
		}

		c.JSON(status, resp)
	}
}

// responds with pong for testing
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

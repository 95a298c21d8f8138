package main

import (
	"context"

	"github.com/gin-gonic/gin"

	"codeberg.org/fittrack/server/api/rest/admin"
	"codeberg.org/fittrack/server/api/rest/coach"
	"codeberg.org/fittrack/server/api/rest/health"
	"codeberg.org/fittrack/server/api/rest/plans"
)

// sets up all API routes and middleware
func RegisterRoutes(router *gin.Engine, server *Server) error {
	router.Use(CORSMiddleware(server.config.CORSOrigins))

	checks := []health.Check{
		{Name: "database", Probe: server.db.Ping},
	}

	if server.redis != nil {
		checks = append(checks, health.Check{
			Name: "redis",
			Probe: func(ctx context.Context) error {
				return server.redis.Ping(ctx).Err()
			},
		})
	}

	router.GET("/health", health.Handler(version, checks...))
	router.GET("/metrics", gin.WrapH(server.metrics.Handler()))

	ipLimit, err := server.IPRateLimitMiddleware(server.config)
	if err != nil {
		return err
	}

	v1 := router.Group("/api/v1")
	v1.Use(ipLimit)

	{
		v1.GET("/ping", health.PingHandler)

		coach.RegisterRoutes(v1, server.coach)
		plans.RegisterRoutes(v1, server.planRepo)
		admin.RegisterRoutes(v1, server.errorLog)
	}

	return nil
}

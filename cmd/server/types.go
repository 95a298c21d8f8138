package main

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"codeberg.org/fittrack/server/fittrack/plans"
	"codeberg.org/fittrack/server/internal/coach"
	"codeberg.org/fittrack/server/internal/config"
	"codeberg.org/fittrack/server/internal/errorlog"
	"codeberg.org/fittrack/server/internal/metrics"
	"codeberg.org/fittrack/server/internal/ratelimit"
)

// holds all dependencies and state for the API server
type Server struct {
	db     *pgxpool.Pool
	config *config.Config

	// nil unless RATE_LIMIT_BACKEND=redis
	redis redis.UniversalClient

	// nil unless the memory backend is in use; its sweeper runs for the process lifetime
	memoryLimiter *ratelimit.MemoryLimiter

	planRepo  *plans.Repository
	coach     *coach.Service
	errorLog  *errorlog.Logger
	retention *errorlog.RetentionService
	metrics   *metrics.Metrics
	router    *gin.Engine
}

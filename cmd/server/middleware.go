package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	limiter "github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"codeberg.org/fittrack/server/internal/config"
	"codeberg.org/fittrack/server/internal/errors"
	"codeberg.org/fittrack/server/internal/logger"
)

const ipLimiterPrefix = "fittrack:ip"

// allows the configured origins, or every origin when none are configured
func CORSMiddleware(origins []string) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: len(origins) > 0,
		MaxAge:           12 * time.Hour,
	}

	if len(origins) > 0 {
		corsConfig.AllowOrigins = origins
	} else {
		corsConfig.AllowAllOrigins = true
	}

	return cors.New(corsConfig)
}

// coarse per-IP request guard in front of the whole API. shares the redis
// store with the coaching throttle when that backend is configured.
func (s *Server) IPRateLimitMiddleware(cfg *config.Config) (gin.HandlerFunc, error) {
	rate, err := limiter.NewRateFromFormatted(cfg.IPRateLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid IP_RATE_LIMIT %q: %w", cfg.IPRateLimit, err)
	}

	var store limiter.Store

	if s.redis != nil {
		store, err = sredis.NewStoreWithOptions(s.redis, limiter.StoreOptions{
			Prefix:   ipLimiterPrefix,
			MaxRetry: 3,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis limiter store: %w", err)
		}
	} else {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          ipLimiterPrefix,
			CleanUpInterval: time.Minute,
		})
	}

	middleware := mgin.NewMiddleware(
		limiter.New(store, rate),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			errors.TooManyRequests(c, "")
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			// fail open: a store outage must not take the API down
			logger.FromContext(c.Request.Context()).Warn("ip rate limiter unavailable, admitting request",
				"error", err,
				"client_ip", c.ClientIP(),
			)
			c.Next()
		}),
	)

	logger.Info("ip rate limiter initialized",
		"rate", cfg.IPRateLimit,
		"shared_store", s.redis != nil,
	)

	return middleware, nil
}

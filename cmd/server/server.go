package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"codeberg.org/fittrack/server/fittrack/plans"
	"codeberg.org/fittrack/server/fittrack/users"
	"codeberg.org/fittrack/server/internal/admission"
	"codeberg.org/fittrack/server/internal/coach"
	"codeberg.org/fittrack/server/internal/config"
	"codeberg.org/fittrack/server/internal/credits"
	"codeberg.org/fittrack/server/internal/errorlog"
	"codeberg.org/fittrack/server/internal/llm"
	"codeberg.org/fittrack/server/internal/logger"
	"codeberg.org/fittrack/server/internal/metrics"
	"codeberg.org/fittrack/server/internal/ratelimit"
)

// creates and configures a new server instance with all dependencies
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, err := connectDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	server := &Server{
		db:       db,
		config:   cfg,
		planRepo: plans.NewRepository(db),
		metrics:  metrics.New(),
	}

	limiter, err := server.newLimiter(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	userRepo := users.NewRepository(db)

	ledger := credits.NewLedger(credits.Policy{
		HourlyPool:     cfg.HourlyCredits,
		DailyCap:       cfg.DailyCredits,
		HourlyInterval: credits.DefaultHourlyInterval,
		Location:       cfg.CreditLocation,
	})

	controller := admission.NewController(limiter, ledger, userRepo).
		WithObserver(server.metrics)

	server.errorLog = errorlog.NewLogger(errorlog.NewPostgresStore(db)).
		WithObserver(server.metrics)

	server.retention = errorlog.NewRetentionService(
		server.errorLog,
		cfg.ErrorCleanupInterval,
		cfg.ErrorRetentionDays,
	)

	generator, err := llm.NewGenerator(ctx, llm.Config{
		Provider: llm.Provider(cfg.AIProvider),
		APIKey:   cfg.AIKey(),
		Model:    cfg.AIModel,
		Timeout:  cfg.AITimeout,
	})

	if err != nil {
		server.Close()
		return nil, fmt.Errorf("failed to create AI generator: %w", err)
	}

	server.coach = coach.NewService(controller, generator, server.errorLog, server.planRepo, userRepo).
		WithRecorder(server.metrics)

	logger.Info("coach service initialized",
		"provider", cfg.AIProvider,
		"model", generator.Model(),
		"rate_limit_backend", cfg.RateLimitBackend,
		"hourly_credits", ledger.Policy().HourlyPool,
		"daily_credits", ledger.Policy().DailyCap,
		"credit_timezone", ledger.Policy().Location.String(),
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	server.router = gin.New()
	server.router.Use(gin.Recovery(), logger.Middleware())

	if err := RegisterRoutes(server.router, server); err != nil {
		server.Close()
		return nil, fmt.Errorf("failed to register routes: %w", err)
	}

	return server, nil
}

func connectDatabase(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// every coaching request holds a row lock for one short transaction, so a small pool is enough
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	// PgBouncer in transaction mode doesn't support prepared statements
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// builds the per-identity throttle for the configured backend
func (s *Server) newLimiter(cfg *config.Config) (ratelimit.Limiter, error) {
	rlConfig := ratelimit.Config{
		Window:      cfg.RateLimitWindow,
		MaxRequests: cfg.RateLimitMax,
	}

	if cfg.RateLimitBackend == config.BackendRedis {
		limiter, err := ratelimit.NewRedisLimiterFromURL(cfg.RedisURL, rlConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis rate limiter: %w", err)
		}

		s.redis = limiter.Client()
		return limiter, nil
	}

	s.memoryLimiter = ratelimit.NewMemoryLimiter(rlConfig)
	return s.memoryLimiter, nil
}

// releases external connections
func (s *Server) Close() {
	if s.redis != nil {
		s.redis.Close() //nolint:errcheck,gosec // best-effort cleanup on shutdown
	}

	s.db.Close()
}

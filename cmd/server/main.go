package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"codeberg.org/fittrack/server/internal/config"
	"codeberg.org/fittrack/server/internal/logger"
)

// set at build time with -ldflags "-X main.version=..."
var version = "dev"

// @title FitTrack Coach API
// @version 1.0
// @description AI fitness coaching with per-user rate limits and credit quotas
// @description
// @description Features:
// @description - Workout, meal, sleep, goal and progress coaching from an AI provider
// @description - Hourly credit pool with a daily cap, debited only on success
// @description - Saved plans history
// @description - Admin error log with a resolve workflow

// @contact.name API Support
// @contact.url https://codeberg.org/fittrack/server

// @license.name GPL-3.0
// @license.url https://www.gnu.org/licenses/gpl-3.0.html

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authenticated requests. Format: Bearer {token}

func main() {
	// load configuration from environment
	cfg, err := config.LoadEnvironmentVariables()
	if err != nil {
		logger.Fatal("failed to load configuration", "error", err)
	}

	logger.SetDefault(logger.New(cfg.Environment, cfg.LogLevel))
	logger.Info("starting fittrack server", "version", version, "environment", cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := NewServer(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to create server", "error", err)
	}

	// a coaching call may take the whole AI timeout before it writes
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      srv.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AITimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		srv.retention.Start(gctx)
		return nil
	})

	if srv.memoryLimiter != nil {
		g.Go(func() error {
			srv.memoryLimiter.StartSweeper(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		// graceful shutdown with 10 second timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.ErrorErr(err, "server stopped with error")
	}

	srv.Close()
	logger.Info("server stopped")
}

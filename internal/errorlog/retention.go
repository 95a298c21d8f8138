package errorlog

import (
	"context"
	"time"

	"codeberg.org/fittrack/server/internal/logger"
)

// periodically deletes resolved and ignored records past the retention age
type RetentionService struct {
	log           *Logger
	checkInterval time.Duration
	retentionDays int
}

// creates a new retention service
func NewRetentionService(log *Logger, checkInterval time.Duration, retentionDays int) *RetentionService {
	if retentionDays < 1 {
		retentionDays = DefaultRetentionDays
	}

	return &RetentionService{
		log:           log,
		checkInterval: checkInterval,
		retentionDays: retentionDays,
	}
}

// begins the retention background loop
func (s *RetentionService) Start(ctx context.Context) {
	logger.Info("starting error retention service",
		"check_interval", s.checkInterval,
		"retention_days", s.retentionDays,
	)

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("error retention service stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *RetentionService) sweep(ctx context.Context) {
	deleted, err := s.log.DeleteOld(ctx, s.retentionDays)
	if err != nil {
		logger.ErrorErr(err, "failed to delete old error records")
		return
	}

	if deleted > 0 {
		logger.Info("deleted old error records", "count", deleted, "retention_days", s.retentionDays)
	}
}

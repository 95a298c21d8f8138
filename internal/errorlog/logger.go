package errorlog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"codeberg.org/fittrack/server/internal/logger"
)

const (
	DefaultRetentionDays = 30
	DefaultRecentLimit   = 50
	MaxRecentLimit       = 200

	// how long Log may spend persisting before it gives up
	logWriteTimeout = 5 * time.Second
)

// durable error log. Log never fails the caller; the query methods return errors normally.
type Logger struct {
	store    Store
	observer Observer
	now      func() time.Time
}

// creates a new error logger
func NewLogger(store Store) *Logger {
	return &Logger{
		store: store,
		now:   time.Now,
	}
}

// attaches an observer notified after each successful write
func (l *Logger) WithObserver(o Observer) *Logger {
	l.observer = o
	return l
}

// replaces the clock, used by tests
func (l *Logger) WithClock(now func() time.Time) *Logger {
	l.now = now
	return l
}

// records a failure or denial. returns nil when the record could not be stored;
// persistence errors are logged and swallowed.
func (l *Logger) Log(ctx context.Context, entry Entry) *Record {
	if l == nil || l.store == nil {
		return nil
	}

	errType := entry.Type
	if !errType.IsValid() {
		errType = TypeUnknown
	}

	rec := &Record{
		ID:        uuid.NewString(),
		Identity:  entry.Identity,
		SessionID: entry.SessionID,
		Type:      errType,
		Code:      entry.Code,
		Message:   entry.Message,
		Details:   entry.Details,
		Severity:  DeriveSeverity(errType, entry.Severity),
		Status:    StatusOpen,
		CreatedAt: l.now(),
	}

	// a cancelled request must not prevent the audit write
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), logWriteTimeout)
	defer cancel()

	if err := l.store.Insert(writeCtx, rec); err != nil {
		logger.FromContext(ctx).Error("failed to persist error log",
			"error", err,
			"error_type", rec.Type,
			"error_code", rec.Code,
			"identity", rec.Identity,
		)
		return nil
	}

	logger.FromContext(ctx).Log(ctx, levelFor(rec.Severity), "error logged",
		"error_id", rec.ID,
		"error_type", rec.Type,
		"error_code", rec.Code,
		"severity", rec.Severity,
		"identity", rec.Identity,
		"message", rec.Message,
	)

	if l.observer != nil {
		l.observer.ErrorLogged(rec.Type, rec.Severity)
	}

	return rec
}

// aggregate counts across all records
func (l *Logger) Stats(ctx context.Context) (*Stats, error) {
	stats, err := l.store.Stats(ctx, l.now().Add(-24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to compute error stats: %w", err)
	}
	return stats, nil
}

// newest records first
func (l *Logger) Recent(ctx context.Context, limit int) ([]Record, error) {
	records, _, err := l.store.List(ctx, Filter{}, clampLimit(limit), 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent errors: %w", err)
	}
	return records, nil
}

// newest records for one identity
func (l *Logger) ByIdentity(ctx context.Context, identity string, limit int) ([]Record, error) {
	records, _, err := l.store.List(ctx, Filter{Identity: identity}, clampLimit(limit), 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list errors for identity: %w", err)
	}
	return records, nil
}

// filtered, paginated listing with the total match count
func (l *Logger) List(ctx context.Context, filter Filter, limit, offset int) ([]Record, int, error) {
	records, total, err := l.store.List(ctx, filter, clampLimit(limit), offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list errors: %w", err)
	}
	return records, total, nil
}

// moves a record to a new status. resolving stamps the time and the actor;
// any other status clears them, which is how a resolved record is re-opened.
func (l *Logger) UpdateStatus(ctx context.Context, id string, status Status, actor string, notes *string) (*Record, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	update := StatusUpdate{
		Status: status,
		Notes:  notes,
	}

	if status == StatusResolved {
		resolvedAt := l.now()
		update.ResolvedAt = &resolvedAt
		update.ResolvedBy = actor
	}

	rec, err := l.store.UpdateStatus(ctx, id, update)
	if err != nil {
		return nil, err
	}

	return rec, nil
}

func (l *Logger) Delete(ctx context.Context, id string) error {
	return l.store.Delete(ctx, id)
}

// removes resolved and ignored records created more than daysOld days ago.
// open and investigating records are kept whatever their age.
func (l *Logger) DeleteOld(ctx context.Context, daysOld int) (int64, error) {
	if daysOld < 1 {
		return 0, ErrInvalidDays
	}

	cutoff := l.now().AddDate(0, 0, -daysOld)

	deleted, err := l.store.DeleteTerminalBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old errors: %w", err)
	}

	return deleted, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}

	if limit > MaxRecentLimit {
		return MaxRecentLimit
	}

	return limit
}

func levelFor(s Severity) slog.Level {
	switch s {
	case SeverityHigh, SeverityCritical:
		return slog.LevelError
	case SeverityMedium:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

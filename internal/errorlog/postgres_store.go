package errorlog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// implements Store on the error_logs table
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, rec *Record) error {
	_, err := s.db.Exec(
		ctx,
		queryInsert,
		rec.ID,
		rec.Identity,
		nullIfEmpty(rec.SessionID),
		string(rec.Type),
		rec.Code,
		rec.Message,
		rec.Details,
		string(rec.Severity),
		string(rec.Status),
		rec.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert error log: %w", err)
	}

	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Record, error) {
	rec, err := scanRecord(s.db.QueryRow(ctx, queryGet, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}

	return rec, err
}

func (s *PostgresStore) List(ctx context.Context, filter Filter, limit, offset int) ([]Record, int, error) {
	where, args := buildWhere(filter)

	var total int
	countQuery := "SELECT COUNT(*) FROM error_logs" + where
	if err := s.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count error logs: %w", err)
	}

	listQuery := fmt.Sprintf(
		"SELECT %s FROM error_logs%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		recordColumns, where, len(args)+1, len(args)+2,
	)

	rows, err := s.db.Query(ctx, listQuery, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list error logs: %w", err)
	}

	defer rows.Close()
	records := []Record{}

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, update StatusUpdate) (*Record, error) {
	rec, err := scanRecord(s.db.QueryRow(
		ctx,
		queryUpdateStatus,
		id,
		string(update.Status),
		update.Notes,
		update.ResolvedAt,
		nullIfEmpty(update.ResolvedBy),
	))

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}

	return rec, err
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, queryDelete, id)
	if err != nil {
		return fmt.Errorf("failed to delete error log: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}

	return nil
}

func (s *PostgresStore) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, queryDeleteTerminalBefore, cutoff)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Stats(ctx context.Context, since time.Time) (*Stats, error) {
	stats := newStats()

	if err := s.db.QueryRow(ctx, queryStatsTotals, since).Scan(&stats.Total, &stats.Open, &stats.Last24h); err != nil {
		return nil, fmt.Errorf("failed to count error logs: %w", err)
	}

	if err := s.groupCounts(ctx, queryStatsByStatus, func(key string, n int) { stats.ByStatus[Status(key)] = n }); err != nil {
		return nil, err
	}

	if err := s.groupCounts(ctx, queryStatsBySeverity, func(key string, n int) { stats.BySeverity[Severity(key)] = n }); err != nil {
		return nil, err
	}

	if err := s.groupCounts(ctx, queryStatsByType, func(key string, n int) { stats.ByType[ErrorType(key)] = n }); err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *PostgresStore) groupCounts(ctx context.Context, query string, set func(key string, n int)) error {
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to group error logs: %w", err)
	}

	defer rows.Close()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		set(key, n)
	}

	return rows.Err()
}

// builds a WHERE clause with positional args for the non-empty filter fields
func buildWhere(f Filter) (string, []any) {
	var clauses []string
	var args []any

	add := func(column string, value string) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if f.Identity != "" {
		add("identity", f.Identity)
	}

	if f.Status != "" {
		add("status", string(f.Status))
	}

	if f.Severity != "" {
		add("severity", string(f.Severity))
	}

	if f.Type != "" {
		add("error_type", string(f.Type))
	}

	if len(clauses) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	var sessionID, notes, resolvedBy *string
	var errType, severity, status string

	err := row.Scan(
		&rec.ID,
		&rec.Identity,
		&sessionID,
		&errType,
		&rec.Code,
		&rec.Message,
		&rec.Details,
		&severity,
		&status,
		&notes,
		&rec.CreatedAt,
		&rec.ResolvedAt,
		&resolvedBy,
	)

	if err != nil {
		return nil, err
	}

	rec.Type = ErrorType(errType)
	rec.Severity = Severity(severity)
	rec.Status = Status(status)
	rec.SessionID = deref(sessionID)
	rec.Notes = deref(notes)
	rec.ResolvedBy = deref(resolvedBy)

	return &rec, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"codeberg.org/fittrack/server/internal/credits"
)

// creates a new user repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// locks the user's credit columns, applies fn and writes the result in one
// transaction. overlapping requests for the same user queue on the row lock.
func (r *Repository) UpdateCredits(
	ctx context.Context,
	userID string,
	fn func(*credits.State) error,
) (credits.State, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return credits.State{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var state credits.State

	err = tx.QueryRow(ctx, queryLockCredits, userID).Scan(
		&state.HourlyRemaining,
		&state.HourlyResetAt,
		&state.DailyUsed,
		&state.DailyResetAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return credits.State{}, ErrUserNotFound
	}

	if err != nil {
		return credits.State{}, fmt.Errorf("failed to lock credits: %w", err)
	}

	if err := fn(&state); err != nil {
		return credits.State{}, err
	}

	_, err = tx.Exec(
		ctx,
		queryUpdateCredits,
		userID,
		state.HourlyRemaining,
		state.HourlyResetAt,
		state.DailyUsed,
		state.DailyResetAt,
	)

	if err != nil {
		return credits.State{}, fmt.Errorf("failed to update credits: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return credits.State{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return state, nil
}

// reads the user's credit columns without taking the row lock
func (r *Repository) Snapshot(ctx context.Context, userID string) (credits.State, error) {
	var state credits.State

	err := r.db.QueryRow(ctx, queryCredits, userID).Scan(
		&state.HourlyRemaining,
		&state.HourlyResetAt,
		&state.DailyUsed,
		&state.DailyResetAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return credits.State{}, ErrUserNotFound
	}

	if err != nil {
		return credits.State{}, fmt.Errorf("failed to read credits: %w", err)
	}

	return state, nil
}

// loads the fields used to personalise coaching prompts
func (r *Repository) Profile(ctx context.Context, userID string) (*Profile, error) {
	var p Profile

	err := r.db.QueryRow(ctx, queryProfile, userID).Scan(
		&p.DisplayName,
		&p.FitnessLevel,
		&p.Goals,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, err
	}

	return &p, nil
}

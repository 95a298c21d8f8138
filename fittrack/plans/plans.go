package plans

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, userID string, req CreatePlanRequest) (*Plan, error) {
	return scanPlan(r.db.QueryRow(
		ctx,
		queryCreate,
		userID,
		req.Kind,
		req.Prompt,
		req.Response,
		req.Credits,
	))
}

// newest first. limit is capped at MaxListLimit.
func (r *Repository) List(ctx context.Context, userID string, limit, offset int) ([]Plan, int, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}

	if offset < 0 {
		offset = 0
	}

	// get total count first
	var total int
	if err := r.db.QueryRow(ctx, queryCountByUser, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, queryList, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	defer rows.Close()
	plans := []Plan{}

	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, 0, err
		}
		plans = append(plans, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return plans, total, nil
}

// flags a plan as applied. plans owned by someone else are reported as not found.
func (r *Repository) MarkApplied(ctx context.Context, planID, userID string) (*Plan, error) {
	p, err := scanPlan(r.db.QueryRow(ctx, queryMarkApplied, planID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlanNotFound
	}

	return p, err
}

func (r *Repository) Delete(ctx context.Context, planID, userID string) error {
	result, err := r.db.Exec(ctx, queryDelete, planID, userID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrPlanNotFound
	}

	return nil
}

func scanPlan(row pgx.Row) (*Plan, error) {
	var p Plan

	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Kind,
		&p.Prompt,
		&p.Response,
		&p.Credits,
		&p.Applied,
		&p.CreatedAt,
	)

	if err != nil {
		return nil, err
	}

	return &p, nil
}

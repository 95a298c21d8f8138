package plans

import (
	"context"

	"codeberg.org/fittrack/server/api/rest/pagination"
	"codeberg.org/fittrack/server/fittrack/plans"
)

// default page size for plan listings
const defaultListLimit = 10

// plan persistence used by the handlers
type PlanRepository interface {
	List(ctx context.Context, userID string, limit, offset int) ([]plans.Plan, int, error)
	MarkApplied(ctx context.Context, planID, userID string) (*plans.Plan, error)
	Delete(ctx context.Context, planID, userID string) error
}

// a page of the caller's saved plans
type ListPlansResponse struct {
	Plans      []plans.Plan    `json:"plans"`
	Pagination pagination.Meta `json:"pagination"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

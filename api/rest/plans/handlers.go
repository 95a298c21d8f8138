package plans

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"codeberg.org/fittrack/server/api/rest/pagination"
	"codeberg.org/fittrack/server/fittrack/plans"
	"codeberg.org/fittrack/server/internal/auth"
	"codeberg.org/fittrack/server/internal/errors"
)

// ListPlansHandler godoc
// @Summary List saved coaching plans
// @Description Returns the caller's saved AI responses, newest first
// @Tags plans
// @Produce json
// @Param limit query int false "Page size (max 20)" default(10)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} ListPlansResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/coach/plans [get]
// @Security BearerAuth
func ListPlansHandler(planRepo PlanRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.GetUserID(c)
		if !ok {
			errors.Unauthorized(c, "")
			return
		}

		params := pagination.FromQuery(c, defaultListLimit, plans.MaxListLimit)

		list, total, err := planRepo.List(c.Request.Context(), userID, params.Limit, params.Offset)
		if err != nil {
			errors.InternalError(c, "failed to list plans", err)
			return
		}

		c.JSON(http.StatusOK, ListPlansResponse{
			Plans:      list,
			Pagination: pagination.NewMeta(params, total),
		})
	}
}

// ApplyPlanHandler godoc
// @Summary Mark a plan as applied
// @Tags plans
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} plans.Plan
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/coach/plans/{id}/apply [patch]
// @Security BearerAuth
func ApplyPlanHandler(planRepo PlanRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.GetUserID(c)
		if !ok {
			errors.Unauthorized(c, "")
			return
		}

		planID, ok := errors.ValidatePathUUID(c, "id")
		if !ok {
			return
		}

		plan, err := planRepo.MarkApplied(c.Request.Context(), planID, userID)
		if stderrors.Is(err, plans.ErrPlanNotFound) {
			errors.NotFound(c, "plan")
			return
		}

		if err != nil {
			errors.InternalError(c, "failed to update plan", err)
			return
		}

		c.JSON(http.StatusOK, plan)
	}
}

// DeletePlanHandler godoc
// @Summary Delete a saved plan
// @Tags plans
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/coach/plans/{id} [delete]
// @Security BearerAuth
func DeletePlanHandler(planRepo PlanRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.GetUserID(c)
		if !ok {
			errors.Unauthorized(c, "")
			return
		}

		planID, ok := errors.ValidatePathUUID(c, "id")
		if !ok {
			return
		}

		err := planRepo.Delete(c.Request.Context(), planID, userID)
		if stderrors.Is(err, plans.ErrPlanNotFound) {
			errors.NotFound(c, "plan")
			return
		}

		if err != nil {
			errors.InternalError(c, "failed to delete plan", err)
			return
		}

		c.JSON(http.StatusOK, MessageResponse{Message: "plan deleted"})
	}
}

package plans

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/fittrack/server/internal/auth"
)

func RegisterRoutes(router *gin.RouterGroup, planRepo PlanRepository) {
	plansGroup := router.Group("/coach/plans")
	plansGroup.Use(auth.AuthMiddleware())
	{
		plansGroup.GET("", ListPlansHandler(planRepo))
		plansGroup.PATCH("/:id/apply", ApplyPlanHandler(planRepo))
		plansGroup.DELETE("/:id", DeletePlanHandler(planRepo))
	}
}

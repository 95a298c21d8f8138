package coach

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/fittrack/server/internal/auth"
	"codeberg.org/fittrack/server/internal/coach"
)

func RegisterRoutes(router *gin.RouterGroup, service *coach.Service) {
	coachGroup := router.Group("/coach")
	coachGroup.Use(auth.AuthMiddleware())
	{
		coachGroup.POST("", CoachHandler(service))
		coachGroup.GET("/credits", GetCreditsHandler(service))
	}
}

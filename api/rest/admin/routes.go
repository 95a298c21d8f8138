package admin

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/fittrack/server/internal/auth"
	"codeberg.org/fittrack/server/internal/errorlog"
)

func RegisterRoutes(router *gin.RouterGroup, errorLog *errorlog.Logger) {
	admin := router.Group("/admin")
	admin.Use(auth.AuthMiddleware(), auth.AdminMiddleware())

	admin.GET("/errors", ListErrors(errorLog))
	admin.GET("/errors/stats", GetErrorStats(errorLog))
	admin.GET("/errors/recent", GetRecentErrors(errorLog))
	admin.GET("/errors/users/:identity", GetUserErrors(errorLog))
	admin.PUT("/errors/:id/status", UpdateErrorStatus(errorLog))
	admin.DELETE("/errors/:id", DeleteError(errorLog))
	admin.POST("/errors/cleanup", CleanupErrors(errorLog))
}

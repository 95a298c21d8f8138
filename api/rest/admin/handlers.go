package admin

import (
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"codeberg.org/fittrack/server/api/rest/pagination"
	"codeberg.org/fittrack/server/internal/auth"
	"codeberg.org/fittrack/server/internal/errorlog"
	"codeberg.org/fittrack/server/internal/errors"
)

// ListErrors godoc
// @Summary List logged errors
// @Description Admin-only filtered, paginated listing of the error log, newest first
// @Tags admin
// @Produce json
// @Param status query string false "OPEN, INVESTIGATING, RESOLVED or IGNORED"
// @Param severity query string false "LOW, MEDIUM, HIGH or CRITICAL"
// @Param errorType query string false "Error type, e.g. AI_MODEL_ERROR"
// @Param limit query int false "Page size (max 200)" default(50)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} ListErrorsResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/admin/errors [get]
// @Security BearerAuth
func ListErrors(errorLog *errorlog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, err := filterFromQuery(c)
		if err != nil {
			errors.BadRequest(c, err.Error(), nil)
			return
		}

		params := pagination.FromQuery(c, errorlog.DefaultRecentLimit, errorlog.MaxRecentLimit)

		records, total, err := errorLog.List(c.Request.Context(), filter, params.Limit, params.Offset)
		if err != nil {
			errors.InternalError(c, "failed to list errors", err)
			return
		}

		c.JSON(http.StatusOK, ListErrorsResponse{
			Errors:     records,
			Pagination: pagination.NewMeta(params, total),
		})
	}
}

// GetErrorStats godoc
// @Summary Error log statistics
// @Description Counts by status, severity and type, plus the last 24 hours
// @Tags admin
// @Produce json
// @Success 200 {object} errorlog.Stats
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/admin/errors/stats [get]
// @Security BearerAuth
func GetErrorStats(errorLog *errorlog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := errorLog.Stats(c.Request.Context())
		if err != nil {
			errors.InternalError(c, "failed to compute error stats", err)
			return
		}

		c.JSON(http.StatusOK, stats)
	}
}

// GetRecentErrors godoc
// @Summary Most recent errors
// @Tags admin
// @Produce json
// @Param limit query int false "Number of records (max 200)" default(50)
// @Success 200 {object} RecordsResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/admin/errors/recent [get]
// @Security BearerAuth
func GetRecentErrors(errorLog *errorlog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := errorLog.Recent(c.Request.Context(), queryLimit(c))
		if err != nil {
			errors.InternalError(c, "failed to list recent errors", err)
			return
		}

		c.JSON(http.StatusOK, RecordsResponse{Errors: records})
	}
}

// GetUserErrors godoc
// @Summary Errors for one user
// @Tags admin
// @Produce json
// @Param identity path string true "User identity"
// @Param limit query int false "Number of records (max 200)" default(50)
// @Success 200 {object} RecordsResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/admin/errors/users/{identity} [get]
// @Security BearerAuth
func GetUserErrors(errorLog *errorlog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := c.Param("identity")
		if identity == "" {
			errors.BadRequest(c, "identity required", nil)
			return
		}

		records, err := errorLog.ByIdentity(c.Request.Context(), identity, queryLimit(c))
		if err != nil {
			errors.InternalError(c, "failed to list user errors", err)
			return
		}

		c.JSON(http.StatusOK, RecordsResponse{Errors: records})
	}
}

// UpdateErrorStatus godoc
// @Summary Change an error's status
// @Description Resolving stamps the time and the acting admin; any other status clears them
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Error ID"
// @Param request body UpdateStatusRequest true "New status"
// @Success 200 {object} errorlog.Record
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/admin/errors/{id}/status [put]
// @Security BearerAuth
func UpdateErrorStatus(errorLog *errorlog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		errorID, ok := errors.ValidatePathUUID(c, "id")
		if !ok {
			return
		}

		var req UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		status, err := errorlog.ParseStatus(req.Status)
		if err != nil {
			errors.BadRequest(c, err.Error(), nil)
			return
		}

		actor, _ := auth.GetUserID(c)

		rec, err := errorLog.UpdateStatus(c.Request.Context(), errorID, status, actor, req.Notes)
		if stderrors.Is(err, errorlog.ErrRecordNotFound) {
			errors.NotFound(c, "error record")
			return
		}

		if err != nil {
			errors.InternalError(c, "failed to update error status", err)
			return
		}

		c.JSON(http.StatusOK, rec)
	}
}

// DeleteError godoc
// @Summary Delete an error record
// @Tags admin
// @Produce json
// @Param id path string true "Error ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/admin/errors/{id} [delete]
// @Security BearerAuth
func DeleteError(errorLog *errorlog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		errorID, ok := errors.ValidatePathUUID(c, "id")
		if !ok {
			return
		}

		err := errorLog.Delete(c.Request.Context(), errorID)
		if stderrors.Is(err, errorlog.ErrRecordNotFound) {
			errors.NotFound(c, "error record")
			return
		}

		if err != nil {
			errors.InternalError(c, "failed to delete error", err)
			return
		}

		c.JSON(http.StatusOK, MessageResponse{Message: "error record deleted"})
	}
}

// CleanupErrors godoc
// @Summary Purge old resolved errors
// @Description Deletes RESOLVED and IGNORED records older than daysOld days (default 30); open records are kept
// @Tags admin
// @Accept json
// @Produce json
// @Param request body CleanupRequest false "Age threshold"
// @Success 200 {object} CleanupResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/admin/errors/cleanup [post]
// @Security BearerAuth
func CleanupErrors(errorLog *errorlog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CleanupRequest

		// an empty body means the default age
		if err := c.ShouldBindJSON(&req); err != nil && !stderrors.Is(err, io.EOF) {
			errors.ValidationError(c, err)
			return
		}

		if req.DaysOld == 0 {
			req.DaysOld = defaultCleanupDays
		}

		deleted, err := errorLog.DeleteOld(c.Request.Context(), req.DaysOld)
		if stderrors.Is(err, errorlog.ErrInvalidDays) {
			errors.BadRequest(c, err.Error(), nil)
			return
		}

		if err != nil {
			errors.InternalError(c, "failed to clean up errors", err)
			return
		}

		c.JSON(http.StatusOK, CleanupResponse{Deleted: deleted, DaysOld: req.DaysOld})
	}
}

func filterFromQuery(c *gin.Context) (errorlog.Filter, error) {
	var filter errorlog.Filter

	if v := c.Query("status"); v != "" {
		status, err := errorlog.ParseStatus(v)
		if err != nil {
			return filter, err
		}
		filter.Status = status
	}

	if v := c.Query("severity"); v != "" {
		severity, err := errorlog.ParseSeverity(v)
		if err != nil {
			return filter, err
		}
		filter.Severity = severity
	}

	if v := c.Query("errorType"); v != "" {
		errType, err := errorlog.ParseErrorType(v)
		if err != nil {
			return filter, err
		}
		filter.Type = errType
	}

	return filter, nil
}

// zero lets the logger apply its default
func queryLimit(c *gin.Context) int {
	limit, _ := strconv.Atoi(c.Query("limit")) //nolint:errcheck // zero falls back to default
	return limit
}

package admin

import (
	"codeberg.org/fittrack/server/api/rest/pagination"
	"codeberg.org/fittrack/server/internal/errorlog"
)

// records older than this are purged when a cleanup request names no age
const defaultCleanupDays = errorlog.DefaultRetentionDays

type ListErrorsResponse struct {
	Errors     []errorlog.Record `json:"errors"`
	Pagination pagination.Meta   `json:"pagination"`
}

type RecordsResponse struct {
	Errors []errorlog.Record `json:"errors"`
}

type UpdateStatusRequest struct {
	Status string  `json:"status" binding:"required"`
	Notes  *string `json:"notes,omitempty"`
}

type CleanupRequest struct {
	DaysOld int `json:"daysOld"`
}

type CleanupResponse struct {
	Deleted int64 `json:"deleted"`
	DaysOld int   `json:"daysOld"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

package errors

// represents a standardized error response
type ErrorResponse struct {
	Error   string `json:"error"`             // error code (e.g., "unauthorized", "not_found")
	Message string `json:"message"`           // user-friendly message
	Details string `json:"details,omitempty"` // optional details (sanitized in production)
	ErrorID string `json:"errorId,omitempty"` // opaque id for 500s, matches the server log
}

type errorInfo struct {
	category  string
	sanitized string
}

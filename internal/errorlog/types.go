// package errorlog records every coaching failure and admission denial in a durable,
// queryable log with derived severity and an admin-driven status workflow.
package errorlog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrRecordNotFound = errors.New("error record not found")
	ErrInvalidType    = errors.New("invalid error type")
	ErrInvalidSev     = errors.New("invalid severity")
	ErrInvalidStatus  = errors.New("invalid status")
	ErrInvalidDays    = errors.New("daysOld must be at least 1")
)

// classification of a logged failure
type ErrorType string

const (
	TypeAPI        ErrorType = "API_ERROR"
	TypeRateLimit  ErrorType = "RATE_LIMIT"
	TypeValidation ErrorType = "VALIDATION_ERROR"
	TypeNetwork    ErrorType = "NETWORK_ERROR"
	TypeAIModel    ErrorType = "AI_MODEL_ERROR"
	TypeUnknown    ErrorType = "UNKNOWN_ERROR"
)

var allTypes = []ErrorType{TypeAPI, TypeRateLimit, TypeValidation, TypeNetwork, TypeAIModel, TypeUnknown}

func (t ErrorType) IsValid() bool {
	for _, v := range allTypes {
		if t == v {
			return true
		}
	}
	return false
}

type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL" // only ever set explicitly
)

func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusOpen          Status = "OPEN"
	StatusInvestigating Status = "INVESTIGATING"
	StatusResolved      Status = "RESOLVED"
	StatusIgnored       Status = "IGNORED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInvestigating, StatusResolved, StatusIgnored:
		return true
	default:
		return false
	}
}

// resolved and ignored records are the only ones retention may delete
func (s Status) IsTerminal() bool {
	return s == StatusResolved || s == StatusIgnored
}

// parses an error type, case-insensitively
func ParseErrorType(s string) (ErrorType, error) {
	t := ErrorType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return t, nil
}

// parses a severity, case-insensitively
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToUpper(strings.TrimSpace(s)))
	if !sev.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSev, s)
	}
	return sev, nil
}

// parses a status, case-insensitively
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// severity for a type. AI model faults are HIGH, network faults MEDIUM, and
// validation and rate-limit denials LOW regardless of the override. API and
// unknown errors take the override when one is given and LOW otherwise.
func DeriveSeverity(t ErrorType, override Severity) Severity {
	switch t {
	case TypeAIModel:
		return SeverityHigh
	case TypeNetwork:
		return SeverityMedium
	case TypeValidation, TypeRateLimit:
		return SeverityLow
	}

	if override.IsValid() {
		return override
	}

	return SeverityLow
}

// what a caller hands to Logger.Log
type Entry struct {
	Identity  string
	SessionID string
	Type      ErrorType
	Code      string
	Message   string
	Details   map[string]any

	// optional; empty means derive from Type
	Severity Severity
}

// a stored error log row
type Record struct {
	ID         string         `json:"id"`
	Identity   string         `json:"identity"`
	SessionID  string         `json:"sessionId,omitempty"`
	Type       ErrorType      `json:"errorType"`
	Code       string         `json:"errorCode"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	Severity   Severity       `json:"severity"`
	Status     Status         `json:"status"`
	Notes      string         `json:"notes,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	ResolvedAt *time.Time     `json:"resolvedAt,omitempty"`
	ResolvedBy string         `json:"resolvedBy,omitempty"`
}

// optional filters for listing; zero values match everything
type Filter struct {
	Identity string
	Status   Status
	Severity Severity
	Type     ErrorType
}

// a status transition requested by an admin
type StatusUpdate struct {
	Status     Status
	Notes      *string
	ResolvedAt *time.Time
	ResolvedBy string
}

// aggregate counts for the admin dashboard
type Stats struct {
	Total      int               `json:"total"`
	Open       int               `json:"open"`
	Last24h    int               `json:"last24h"`
	ByStatus   map[Status]int    `json:"byStatus"`
	BySeverity map[Severity]int  `json:"bySeverity"`
	ByType     map[ErrorType]int `json:"byType"`
}

func newStats() *Stats {
	return &Stats{
		ByStatus:   make(map[Status]int),
		BySeverity: make(map[Severity]int),
		ByType:     make(map[ErrorType]int),
	}
}

// persistence for error records
type Store interface {
	Insert(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]Record, int, error)
	UpdateStatus(ctx context.Context, id string, update StatusUpdate) (*Record, error)
	Delete(ctx context.Context, id string) error
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Stats(ctx context.Context, since time.Time) (*Stats, error)
}

// receives a callback for each persisted record (metrics)
type Observer interface {
	ErrorLogged(t ErrorType, s Severity)
}

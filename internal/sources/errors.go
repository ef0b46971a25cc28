package sources

import "fmt"

// SourceError carries a stable code alongside the human-readable message so
// API handlers can map failures to status codes.
type SourceError struct {
	Code    string
	Message string
	Cause   error
}

func (e *SourceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *SourceError) Unwrap() error {
	return e.Cause
}

// NewSourceError creates a new source error.
func NewSourceError(code, message string, cause error) *SourceError {
	return &SourceError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Error codes for source operations.
const (
	ErrCodeSourceNotFound = "SOURCE_NOT_FOUND"
	ErrCodeSourceExists   = "SOURCE_EXISTS"
	ErrCodeSourceInvalid  = "SOURCE_INVALID"
	ErrCodeDriverUnknown  = "DRIVER_UNKNOWN"
	ErrCodeSourceStopped  = "SOURCE_STOPPED"
	ErrCodeStoreFailed    = "STORE_FAILED"
	ErrCodeSinkFailed     = "SINK_FAILED"
)

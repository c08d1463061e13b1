package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// ExitCode is the process exit code the CLI terminates with.
	ExitCode int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Clone returns a copy of e whose Details can be changed without touching
// e. The cause is shared.
func (e *AppError) Clone() *AppError {
	c := *e
	c.Details = maps.Clone(e.Details)
	return &c
}

// New creates a new AppError with the exit code derived from code.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		ExitCode: ExitCodeFor(code),
	}
}

// InvalidConfig creates an AppError for a rejected configuration field.
func InvalidConfig(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidConfig, Message: fmt.Sprintf("invalid configuration: %s", reason),
		ExitCode: ExitUsage, Details: details,
	}
}

// ParseFailed creates an AppError for a record that does not parse as the
// expected element type.
func ParseFailed(raw, elementType string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeParse, Message: fmt.Sprintf("cannot parse %q as %s", raw, elementType),
		ExitCode: ExitDataErr, Cause: cause,
		Details: map[string]any{"value": raw, "type": elementType},
	}
}

// TransformFailed creates an AppError for a step that failed on the record at
// the given zero-based position.
func TransformFailed(position int64, cause error) *AppError {
	return &AppError{
		Code: ErrCodeTransformFault, Message: fmt.Sprintf("transformation failed at record %d", position),
		ExitCode: ExitFault, Cause: cause,
		Details: map[string]any{"position": position},
	}
}

// IOFailed creates an AppError for a failed read or write.
func IOFailed(op string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeIO, Message: fmt.Sprintf("%s failed", op),
		ExitCode: ExitIOErr, Cause: cause,
		Details: map[string]any{"operation": op},
	}
}

// Internal creates an AppError for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "an unexpected error occurred",
		ExitCode: ExitFailure, Cause: cause,
	}
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// ExitCodeOf returns the exit code for err: ExitOK for nil, the AppError's
// exit code when err wraps one, ExitFailure otherwise.
func ExitCodeOf(err error) int {
	if err == nil {
		return ExitOK
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr.ExitCode
	}
	return ExitFailure
}

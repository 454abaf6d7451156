package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Healthyfy error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrUnauthorized   ErrorCode = "UNAUTHORIZED"    // 401
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrFileNotFound   ErrorCode = "FILE_NOT_FOUND"  // 404
	ErrSessionBusy    ErrorCode = "SESSION_BUSY"    // 409
	ErrUpstream       ErrorCode = "UPSTREAM"        // 502
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// AppError represents a structured error with code, status, and details.
type AppError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *AppError {
	return &AppError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewUnauthorized creates a 401 error for operations that need a signed-in user.
func NewUnauthorized(msg string) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Status:  401,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing session or collection.
func NewNotFound(kind, identifier string) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a path that does not exist.
func NewFileNotFound(path string) *AppError {
	return &AppError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewSessionBusy creates a 409 error when a turn is already in flight for a session.
func NewSessionBusy(sessionID string) *AppError {
	return &AppError{
		Code:    ErrSessionBusy,
		Status:  409,
		Message: fmt.Sprintf("session %q is still processing the previous message", sessionID),
		Details: map[string]any{"session_id": sessionID},
	}
}

// NewUpstream creates a 502 error for a failing remote collaborator.
func NewUpstream(service string, err error) *AppError {
	msg := "upstream error"
	if err != nil {
		msg = err.Error()
	}
	return &AppError{
		Code:    ErrUpstream,
		Status:  502,
		Message: fmt.Sprintf("%s: %s", service, msg),
		Details: map[string]any{"service": service},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message stays generic; the cause is kept in Details for logging.
func NewInternal(err error) *AppError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &AppError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// Is checks if an error (or anything it wraps) is an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	var aErr *AppError
	if stderrors.As(err, &aErr) {
		return aErr.Code == code
	}
	return false
}

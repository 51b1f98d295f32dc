package errors

import "fmt"

// ErrorCode represents a Trail error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrConflict       ErrorCode = "CONFLICT"        // 409
	ErrLLM            ErrorCode = "LLM_ERROR"       // 502 (completion call or response parse failed)
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// TrailError represents a structured error with code, status, and details.
type TrailError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *TrailError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *TrailError {
	return &TrailError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing entity.
func NewNotFound(entity string, id int64) *TrailError {
	return &TrailError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %d", entity, id),
		Details: map[string]any{"entity": entity, "id": id},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *TrailError {
	return &TrailError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewLLM creates a 502 error for a failed or unusable LLM completion.
func NewLLM(err error) *TrailError {
	msg := "llm call failed"
	if err != nil {
		msg = err.Error()
	}
	return &TrailError{
		Code:    ErrLLM,
		Status:  502,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *TrailError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &TrailError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a TrailError with the given code.
func Is(err error, code ErrorCode) bool {
	if tErr, ok := err.(*TrailError); ok {
		return tErr.Code == code
	}
	return false
}

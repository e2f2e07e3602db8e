package common

import (
	"errors"
	"fmt"

	"github.com/amara-obi/designweek/constants"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrStore        = errors.New("store error")

	// ErrRetryExhausted is the capacity error: the retry budget is spent and
	// the artifact must be re-uploaded.
	ErrRetryExhausted = errors.New("retry attempts exhausted")
)

// RetryExhaustedMessage is the user-visible capacity error text.
var RetryExhaustedMessage = fmt.Sprintf(
	"Maximum retry attempts (%d) reached. Please re-upload the artifact.", constants.MaxRetries)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

func InvalidInputError(message string) error {
	return NewAppError("INVALID_INPUT", message, ErrInvalidInput)
}

func InvalidInputErrorf(format string, args ...interface{}) error {
	return InvalidInputError(fmt.Sprintf(format, args...))
}

func NotFoundErrorf(format string, args ...interface{}) error {
	return NewAppError("NOT_FOUND", fmt.Sprintf(format, args...), ErrNotFound)
}

// RetryExhaustedError builds the capacity error returned when a retry is
// requested past the cap. It never carries a generic failure code.
func RetryExhaustedError() error {
	return NewAppError("RETRY_EXHAUSTED", RetryExhaustedMessage, ErrRetryExhausted)
}

package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidationFailed   Code = "VALIDATION_FAILED"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeNotFound           Code = "NOT_FOUND"
	CodeConfigurationError Code = "CONFIGURATION_ERROR"
	CodeInternalError      Code = "INTERNAL_ERROR"
)

// AppError is the error shape every handler answers with.
type AppError struct {
	Code     Code
	Message  string
	Details  any
	Err      error
	HTTPCode int
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	type alias struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
		Details any    `json:"details,omitempty"`
	}
	return json.Marshal(alias{Code: e.Code, Message: e.Message, Details: e.Details})
}

func New(code Code, message string, httpCode int) *AppError {
	return &AppError{Code: code, Message: message, HTTPCode: httpCode}
}

func Wrap(err error, code Code, message string, httpCode int) *AppError {
	return &AppError{Code: code, Message: message, Err: err, HTTPCode: httpCode}
}

// Validation reports malformed input. details is usually a map of field
// name to problem.
func Validation(message string, details any) *AppError {
	return &AppError{Code: CodeValidationFailed, Message: message, Details: details, HTTPCode: http.StatusBadRequest}
}

// FieldError is a validation error on a single input field.
func FieldError(field, problem string) *AppError {
	return Validation("validation failed", map[string]string{field: problem})
}

func Unauthenticated(err error) *AppError {
	return Wrap(err, CodeUnauthorized, "authentication credentials were not provided or are invalid", http.StatusUnauthorized)
}

func Forbidden(err error) *AppError {
	return Wrap(err, CodeForbidden, "you do not have permission to perform this action", http.StatusForbidden)
}

func NotFound(resource string, err error) *AppError {
	return Wrap(err, CodeNotFound, resource+" not found", http.StatusNotFound)
}

// Configuration marks a corrupt stored record. It is not recoverable by
// retrying the request.
func Configuration(err error) *AppError {
	return Wrap(err, CodeConfigurationError, "account is misconfigured", http.StatusInternalServerError)
}

func Internal(err error) *AppError {
	return Wrap(err, CodeInternalError, "internal server error", http.StatusInternalServerError)
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err carries an AppError with the given code.
func IsKind(err error, code Code) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

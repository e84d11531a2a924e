package http

import (
	"fmt"
	"net/http"
)

// AppError is an application-level error with an HTTP status. AppErrorResponse
// renders it; any other error renders as a generic 500.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithError attaches an underlying error. It stays out of the JSON body.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// NewAppError creates an application error.
func NewAppError(code, field, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Field:   field,
		Status:  status,
	}
}

// NotFoundError creates a 404 error.
func NotFoundError(message string) *AppError {
	return NewAppError("ERR_NOT_FOUND", "", message, http.StatusNotFound)
}

// BadRequestError creates a 400 error.
func BadRequestError(message string) *AppError {
	return NewAppError("ERR_BAD_REQUEST", "", message, http.StatusBadRequest)
}

// InternalError creates a 500 error.
func InternalError(message string) *AppError {
	return NewAppError("ERR_INTERNAL", "", message, http.StatusInternalServerError)
}

// UpstreamError creates a 502 error for market-data, news, or scorer provider
// failures. The wrapped cause is logged, never sent to the client.
func UpstreamError(message string) *AppError {
	return NewAppError("ERR_UPSTREAM", "", message, http.StatusBadGateway)
}

// UpstreamErrorf creates a 502 error with formatting.
func UpstreamErrorf(format string, a ...interface{}) *AppError {
	return UpstreamError(fmt.Sprintf(format, a...))
}

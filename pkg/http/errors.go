package http

import (
	"fmt"
	"net/http"
)

// AppError represents application-level error with HTTP status.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithError wraps an underlying error. The wrapped error is never serialized.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// codes maps a status to the error code clients switch on.
var codes = map[int]string{
	http.StatusBadRequest:          "ERR_BAD_REQUEST",
	http.StatusNotFound:            "ERR_NOT_FOUND",
	http.StatusConflict:            "ERR_CONFLICT",
	http.StatusTooManyRequests:     "ERR_RATE_LIMITED",
	http.StatusInternalServerError: "ERR_INTERNAL",
	http.StatusBadGateway:          "ERR_UPSTREAM",
	http.StatusServiceUnavailable:  "ERR_UNAVAILABLE",
}

// NewAppError creates an error for status with the status's default code.
func NewAppError(status int, message string) *AppError {
	code, ok := codes[status]
	if !ok {
		code = "ERR_" + fmt.Sprint(status)
	}
	return &AppError{Code: code, Message: message, Status: status}
}

func NotFoundError(message string) *AppError {
	return NewAppError(http.StatusNotFound, message)
}

func NotFoundErrorf(format string, a ...interface{}) *AppError {
	return NotFoundError(fmt.Sprintf(format, a...))
}

func BadRequestErrorf(format string, a ...interface{}) *AppError {
	return NewAppError(http.StatusBadRequest, fmt.Sprintf(format, a...))
}

func ConflictError(message string) *AppError {
	return NewAppError(http.StatusConflict, message)
}

func TooManyRequestsError(message string) *AppError {
	return NewAppError(http.StatusTooManyRequests, message)
}

// BadGatewayError reports a failure of the upstream analysis service.
func BadGatewayError(message string) *AppError {
	return NewAppError(http.StatusBadGateway, message)
}

func ServiceUnavailableError(message string) *AppError {
	return NewAppError(http.StatusServiceUnavailable, message)
}

func InternalError(message string) *AppError {
	return NewAppError(http.StatusInternalServerError, message)
}

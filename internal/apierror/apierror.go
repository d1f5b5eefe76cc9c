package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

type ErrorCode string

const (
	ErrNotFound        ErrorCode = "NOT_FOUND"
	ErrBadRequest      ErrorCode = "BAD_REQUEST"
	ErrInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrConfiguration   ErrorCode = "CONFIGURATION_ERROR"
	ErrTimeout         ErrorCode = "TIMEOUT"
	ErrNetwork         ErrorCode = "NETWORK_ERROR"
	ErrInvalidResponse ErrorCode = "INVALID_RESPONSE"
	ErrProvider        ErrorCode = "PROVIDER_ERROR"
	ErrInternalServer  ErrorCode = "INTERNAL_SERVER_ERROR"
)

type APIError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAPIError(code ErrorCode, message string, details interface{}) APIError {
	logrus.Error(details)
	return APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// CodeOf returns the error code carried by err, or ErrInternalServer for
// errors that did not originate from this package.
func CodeOf(err error) ErrorCode {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ErrInternalServer
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// Retryable reports whether err represents a transient condition that a
// caller may retry: network failures, request timeouts and malformed
// provider responses. Configuration and input errors are never retryable.
func Retryable(err error) bool {
	switch CodeOf(err) {
	case ErrTimeout, ErrNetwork, ErrInvalidResponse, ErrProvider:
		return true
	default:
		return false
	}
}

func MapErrorToHTTPStatus(err error) int {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case ErrNotFound:
			return http.StatusNotFound
		case ErrBadRequest, ErrInvalidInput:
			return http.StatusBadRequest
		case ErrConfiguration:
			return http.StatusUnprocessableEntity
		case ErrTimeout:
			return http.StatusGatewayTimeout
		case ErrNetwork, ErrProvider, ErrInvalidResponse:
			return http.StatusBadGateway
		case ErrInternalServer:
			return http.StatusInternalServerError
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

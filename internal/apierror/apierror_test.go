package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := NewAPIError(ErrTimeout, "status check timed out", "deadline exceeded")
	assert.Equal(t, "TIMEOUT: status check timed out", err.Error())
	assert.Equal(t, "deadline exceeded", err.Details)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrNotFound, CodeOf(NewAPIError(ErrNotFound, "no such session", nil)))
	assert.Equal(t, ErrInternalServer, CodeOf(errors.New("plain error")))
	assert.Equal(t, ErrInternalServer, CodeOf(nil))
}

func TestCodeOfWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("creating session: %w", NewAPIError(ErrProvider, "HTTP 503", nil))
	assert.Equal(t, ErrProvider, CodeOf(wrapped))
	assert.True(t, IsCode(wrapped, ErrProvider))
	assert.False(t, IsCode(wrapped, ErrTimeout))
}

func TestRetryable(t *testing.T) {
	retryable := []ErrorCode{ErrTimeout, ErrNetwork, ErrInvalidResponse, ErrProvider}
	for _, code := range retryable {
		assert.True(t, Retryable(NewAPIError(code, "transient", nil)), string(code))
	}

	permanent := []ErrorCode{ErrNotFound, ErrBadRequest, ErrInvalidInput, ErrConfiguration, ErrInternalServer}
	for _, code := range permanent {
		assert.False(t, Retryable(NewAPIError(code, "permanent", nil)), string(code))
	}

	assert.False(t, Retryable(errors.New("plain error")))
}

func TestMapErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrBadRequest, http.StatusBadRequest},
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrConfiguration, http.StatusUnprocessableEntity},
		{ErrTimeout, http.StatusGatewayTimeout},
		{ErrNetwork, http.StatusBadGateway},
		{ErrProvider, http.StatusBadGateway},
		{ErrInvalidResponse, http.StatusBadGateway},
		{ErrInternalServer, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, MapErrorToHTTPStatus(NewAPIError(tt.code, "msg", nil)), string(tt.code))
	}

	assert.Equal(t, http.StatusInternalServerError, MapErrorToHTTPStatus(errors.New("plain error")))
}

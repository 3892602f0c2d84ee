package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status   int
		expected ErrorCode
	}{
		{http.StatusUnauthorized, ErrCodeAuthenticationFailed},
		{http.StatusForbidden, ErrCodeAuthenticationFailed},
		{http.StatusNotFound, ErrCodeNotFound},
		{http.StatusBadRequest, ErrCodeClientError},
		{http.StatusUnprocessableEntity, ErrCodeClientError},
		{http.StatusTooManyRequests, ErrCodeClientError},
		{http.StatusInternalServerError, ErrCodeServerError},
		{http.StatusBadGateway, ErrCodeServerError},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyStatus(tt.status))
		})
	}
}

func TestNewRemoteError(t *testing.T) {
	err := NewRemoteError("GET", "/api/public/v2/prompts/x", http.StatusNotFound, []byte(`{"message":"not found"}`))

	assert.Equal(t, ErrCodeNotFound, err.Code)
	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.JSONEq(t, `{"message":"not found"}`, string(err.Payload))
	assert.False(t, err.Retryable)
	assert.Contains(t, err.Error(), "NOT_FOUND/404")

	serverErr := NewRemoteError("POST", "/api/public/scores", http.StatusServiceUnavailable, nil)
	assert.True(t, serverErr.Retryable)
}

func TestPredicates(t *testing.T) {
	remote := NewTransportFailureError("GET", "/x", stderrors.New("connection refused"))
	precondition := NewPreconditionError("traceId", "traceId is required")
	mismatch := NewPromptKindMismatchError("greeting", "text", "chat")
	wrapped := fmt.Errorf("fetch: %w", remote)

	assert.True(t, IsRemote(remote))
	assert.True(t, IsRemote(wrapped))
	assert.False(t, IsRemote(precondition))
	assert.False(t, IsRemote(mismatch))

	assert.True(t, IsPrecondition(precondition))
	assert.True(t, IsValidation(mismatch))
	assert.False(t, IsValidation(remote))

	assert.Equal(t, ErrCodeTransportFailure, CodeOf(wrapped))
	assert.Equal(t, ErrorCode(""), CodeOf(stderrors.New("plain")))
}

func TestCancellationIsNeverRemote(t *testing.T) {
	cancelled := NewTransportFailureError("GET", "/x", context.Canceled)

	assert.True(t, IsCancellation(cancelled))
	assert.False(t, IsRemote(cancelled))
	assert.True(t, IsCancellation(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)))
}

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name            string
		err             *StandardError
		expectedCode    string
		expectedRetries int
	}{
		{
			name:            "server error is retried",
			err:             NewRemoteError("POST", "/api/public/scores", 502, nil),
			expectedCode:    "SERVER_ERROR",
			expectedRetries: 3,
		},
		{
			name:            "not found gets one retry",
			err:             NewRemoteError("GET", "/api/public/v2/prompts/x", 404, nil),
			expectedCode:    "NOT_FOUND",
			expectedRetries: 1,
		},
		{
			name:            "authentication is thrown",
			err:             NewRemoteError("GET", "/api/public/v2/prompts/x", 401, nil),
			expectedCode:    "AUTHENTICATION_FAILED",
			expectedRetries: 0,
		},
		{
			name:            "precondition is thrown",
			err:             NewPreconditionError("name", "name is required"),
			expectedCode:    "PRECONDITION_FAILED",
			expectedRetries: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmnErr := ConvertToBPMNError(tt.err)

			assert.Equal(t, tt.expectedCode, bpmnErr.Code)
			assert.Equal(t, tt.expectedRetries, bpmnErr.Retries)
			assert.Equal(t, tt.expectedRetries > 0, bpmnErr.Retryable)

			vars := bpmnErr.ToErrorVariables()
			assert.Equal(t, tt.expectedCode, vars["errorCode"])
			assert.Equal(t, string(tt.err.Code), vars["originalErrorCode"])
		})
	}
}

func TestNormalizeError(t *testing.T) {
	stdErr := NewPreconditionError("name", "name is required")
	require.Same(t, stdErr, NormalizeError(fmt.Errorf("wrap: %w", stdErr)))

	cancelled := NormalizeError(context.Canceled)
	assert.Equal(t, ErrCodeCancelled, cancelled.Code)
	assert.True(t, stderrors.Is(cancelled, context.Canceled))

	internal := NormalizeError(stderrors.New("boom"))
	assert.Equal(t, ErrorCode("INTERNAL_ERROR"), internal.Code)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "PRECONDITION", GetErrorCategory(ErrCodePreconditionFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodePromptKindMismatch))
	assert.Equal(t, "AUTH", GetErrorCategory(ErrCodeAuthenticationFailed))
	assert.Equal(t, "NETWORK", GetErrorCategory(ErrCodeTransportFailure))
	assert.Equal(t, "REMOTE", GetErrorCategory(ErrCodeServerError))
	assert.Equal(t, "OTHER", GetErrorCategory("SOMETHING_ELSE"))
}

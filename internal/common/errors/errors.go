package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type ErrorCode string

const (
	// Raised locally, before any network access.
	ErrCodePreconditionFailed ErrorCode = "PRECONDITION_FAILED"

	// Raised locally after a successful fetch.
	ErrCodePromptKindMismatch ErrorCode = "PROMPT_KIND_MISMATCH"

	// Remote failures.
	ErrCodePromptPayloadInvalid ErrorCode = "PROMPT_PAYLOAD_INVALID"
	ErrCodeAuthenticationFailed ErrorCode = "AUTHENTICATION_FAILED"
	ErrCodeNotFound             ErrorCode = "NOT_FOUND"
	ErrCodeClientError          ErrorCode = "CLIENT_ERROR"
	ErrCodeServerError          ErrorCode = "SERVER_ERROR"
	ErrCodeTransportFailure     ErrorCode = "TRANSPORT_FAILURE"

	// Only produced by the job error handler; the access layer returns the
	// context error itself.
	ErrCodeCancelled ErrorCode = "CANCELLED"
)

// StandardError is the single error type returned by the transport and the
// access layer. StatusCode and Payload are only set for remote failures that
// carried an HTTP response.
type StandardError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	StatusCode int                    `json:"statusCode,omitempty"`
	Payload    []byte                 `json:"payload,omitempty"`
	Retryable  bool                   `json:"retryable"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	Err        error                  `json:"-"`
}

func (e *StandardError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("StandardError[%s/%d]: %s", e.Code, e.StatusCode, e.Message)
	}
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.Err
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

func NewPreconditionError(field, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodePreconditionFailed,
		Message:   "Precondition failed",
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"field": field},
		Timestamp: time.Now().UTC(),
	}
}

// NewRequestEncodingError reports a request body that cannot be encoded. It
// is a precondition failure: nothing was sent.
func NewRequestEncodingError(method, path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePreconditionFailed,
		Message:   fmt.Sprintf("%s %s body cannot be encoded", method, path),
		Details:   err.Error(),
		Retryable: false,
		Metadata:  map[string]interface{}{"field": "body"},
		Timestamp: time.Now().UTC(),
		Err:       err,
	}
}

func NewPromptKindMismatchError(name, expected, actual string) *StandardError {
	return &StandardError{
		Code:      ErrCodePromptKindMismatch,
		Message:   "Prompt kind does not match the requested kind",
		Details:   fmt.Sprintf("prompt %q is %s, requested %s", name, actual, expected),
		Retryable: false,
		Metadata: map[string]interface{}{
			"prompt":   name,
			"expected": expected,
			"actual":   actual,
		},
		Timestamp: time.Now().UTC(),
	}
}

func NewPromptPayloadInvalidError(name, details string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePromptPayloadInvalid,
		Message:   "Prompt payload is malformed",
		Details:   fmt.Sprintf("prompt %q: %s", name, details),
		Retryable: false,
		Metadata:  map[string]interface{}{"prompt": name},
		Timestamp: time.Now().UTC(),
		Err:       err,
	}
}

// NewRemoteError builds the error for a non-2xx response.
func NewRemoteError(method, path string, statusCode int, payload []byte) *StandardError {
	code := ClassifyStatus(statusCode)
	return &StandardError{
		Code:       code,
		Message:    fmt.Sprintf("%s %s returned %d", method, path, statusCode),
		Details:    truncate(string(payload), 512),
		StatusCode: statusCode,
		Payload:    payload,
		Retryable:  code == ErrCodeServerError,
		Timestamp:  time.Now().UTC(),
	}
}

func NewTransportFailureError(method, path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransportFailure,
		Message:   fmt.Sprintf("%s %s failed", method, path),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Err:       err,
	}
}

// ClassifyStatus maps an HTTP status code to an error code. It must only be
// called for non-2xx codes.
func ClassifyStatus(statusCode int) ErrorCode {
	switch {
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		return ErrCodeAuthenticationFailed
	case statusCode == http.StatusNotFound:
		return ErrCodeNotFound
	case statusCode >= 400 && statusCode < 500:
		return ErrCodeClientError
	default:
		return ErrCodeServerError
	}
}

// CodeOf returns the ErrorCode carried by err, or "" when err is not a
// StandardError.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

func IsPrecondition(err error) bool {
	return CodeOf(err) == ErrCodePreconditionFailed
}

func IsValidation(err error) bool {
	return CodeOf(err) == ErrCodePromptKindMismatch
}

// IsRemote reports whether err describes a failure of the remote service or
// the path to it. Cancellation is never remote.
func IsRemote(err error) bool {
	if IsCancellation(err) {
		return false
	}
	return IsRemoteCode(CodeOf(err))
}

// IsRemoteCode reports whether code is one of the remote failure codes.
func IsRemoteCode(code ErrorCode) bool {
	switch code {
	case ErrCodePromptPayloadInvalid,
		ErrCodeAuthenticationFailed,
		ErrCodeNotFound,
		ErrCodeClientError,
		ErrCodeServerError,
		ErrCodeTransportFailure:
		return true
	}
	return false
}

func IsCancellation(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodePreconditionFailed:   "PRECONDITION_FAILED",
	ErrCodePromptKindMismatch:   "PROMPT_KIND_MISMATCH",
	ErrCodePromptPayloadInvalid: "PROMPT_PAYLOAD_INVALID",
	ErrCodeAuthenticationFailed: "AUTHENTICATION_FAILED",
	ErrCodeNotFound:             "NOT_FOUND",
	ErrCodeClientError:          "CLIENT_ERROR",
	ErrCodeServerError:          "SERVER_ERROR",
	ErrCodeTransportFailure:     "TRANSPORT_FAILURE",
	ErrCodeCancelled:            "CANCELLED",
}

// GetRetryCount is the number of Zeebe retries a worker grants a job that
// failed with code. The access layer itself never retries.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeServerError,
		ErrCodeTransportFailure:
		return 3

	case ErrCodeNotFound,
		ErrCodeCancelled:
		return 1 // trace or prompt may not be visible yet

	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable && stdErr.Code != ErrCodeNotFound && stdErr.Code != ErrCodeCancelled {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	if stdErr.StatusCode != 0 {
		vars["statusCode"] = stdErr.StatusCode
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      retries > 0,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "PRECONDITION"):
		return "PRECONDITION"
	case strings.Contains(codeStr, "KIND_MISMATCH"):
		return "VALIDATION"
	case strings.Contains(codeStr, "AUTHENTICATION"):
		return "AUTH"
	case strings.Contains(codeStr, "TRANSPORT"), strings.Contains(codeStr, "CANCELLED"):
		return "NETWORK"
	case strings.Contains(codeStr, "PAYLOAD"),
		strings.Contains(codeStr, "NOT_FOUND"),
		strings.Contains(codeStr, "CLIENT"),
		strings.Contains(codeStr, "SERVER"):
		return "REMOTE"
	default:
		return "OTHER"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

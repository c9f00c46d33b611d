// Package errors provides the standardized error taxonomy of the application form.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeFieldValidationFailed ErrorCode = "FIELD_VALIDATION_FAILED"
	ErrCodeStepBlocked           ErrorCode = "STEP_BLOCKED"
	ErrCodeSubmissionBlocked     ErrorCode = "SUBMISSION_BLOCKED"
	ErrCodeSubmissionInProgress  ErrorCode = "SUBMISSION_IN_PROGRESS"

	ErrCodeUploadFailed         ErrorCode = "UPLOAD_FAILED"
	ErrCodeSubmissionFailed     ErrorCode = "SUBMISSION_FAILED"
	ErrCodePayloadSchemaInvalid ErrorCode = "PAYLOAD_SCHEMA_INVALID"

	ErrCodeAuthentication  ErrorCode = "AUTHENTICATION_ERROR"
	ErrCodeDraftSaveFailed ErrorCode = "DRAFT_SAVE_FAILED"
	ErrCodeBackendRequest  ErrorCode = "BACKEND_REQUEST_FAILED"
)

// Messages shown to the applicant. Specific rule messages live with the rules.
const (
	MsgGenericIncomplete = "Please complete all required fields correctly."
	MsgSubmissionFailed  = "Failed to submit application. Please try again."
	MsgSubmitting        = "Your application is already being submitted."
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// NewFieldValidationError reports a single field failing a synchronous rule.
func NewFieldValidationError(field, message string) *StandardError {
	return newError(ErrCodeFieldValidationFailed, message, fmt.Sprintf("field: %s", field), false).
		WithMetadata("field", field)
}

// NewStepBlockedError reports a refused forward step transition.
func NewStepBlockedError(message string) *StandardError {
	return newError(ErrCodeStepBlocked, message, "", false)
}

// NewSubmissionBlockedError reports a submission refused by local validation.
func NewSubmissionBlockedError(message string) *StandardError {
	if message == "" {
		message = MsgGenericIncomplete
	}
	return newError(ErrCodeSubmissionBlocked, message, "", false)
}

// NewSubmissionInProgressError is returned while another submission is in flight.
func NewSubmissionInProgressError() *StandardError {
	return newError(ErrCodeSubmissionInProgress, MsgSubmitting, "", false)
}

// NewUploadFailedError names the file whose upload aborted the submission.
func NewUploadFailedError(slot, fileName string, err error) *StandardError {
	e := newError(ErrCodeUploadFailed, fmt.Sprintf("Failed to upload %s", fileName), err.Error(), true)
	e.cause = err
	return e.WithMetadata("slot", slot).WithMetadata("fileName", fileName)
}

// NewSubmissionFailedError wraps a failed create-application call.
func NewSubmissionFailedError(err error) *StandardError {
	e := newError(ErrCodeSubmissionFailed, MsgSubmissionFailed, err.Error(), true)
	e.cause = err
	return e
}

// NewPayloadSchemaInvalidError reports a payload that does not match the create schema.
func NewPayloadSchemaInvalidError(problems []string) *StandardError {
	return newError(ErrCodePayloadSchemaInvalid, MsgSubmissionFailed, strings.Join(problems, "; "), false)
}

// NewAuthenticationError reports a missing or rejected bearer token.
func NewAuthenticationError(details string) *StandardError {
	return newError(ErrCodeAuthentication, "Authentication failed", details, false)
}

// NewDraftSaveFailedError wraps a draft store failure.
func NewDraftSaveFailedError(err error) *StandardError {
	e := newError(ErrCodeDraftSaveFailed, "Failed to save draft", err.Error(), true)
	e.cause = err
	return e
}

// NewBackendRequestError reports a non-2xx response or transport failure.
func NewBackendRequestError(operation string, status int, err error) *StandardError {
	e := newError(ErrCodeBackendRequest, fmt.Sprintf("Backend %s request failed", operation), err.Error(), true)
	e.cause = err
	return e.WithMetadata("status", status)
}

// As extracts a *StandardError from an error chain.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := As(err)
	return ok && stdErr.Code == code
}

// IsRetryable reports whether the user may retry the operation as-is.
func IsRetryable(err error) bool {
	stdErr, ok := As(err)
	return ok && stdErr.Retryable
}

// GetErrorCategory returns the category of the error code, used as a log field.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "BLOCKED") || strings.Contains(codeStr, "SCHEMA"):
		return "VALIDATION"
	case strings.Contains(codeStr, "UPLOAD"):
		return "UPLOAD"
	case strings.Contains(codeStr, "SUBMISSION"):
		return "SUBMISSION"
	case strings.Contains(codeStr, "AUTHENTICATION"):
		return "AUTH"
	case strings.Contains(codeStr, "DRAFT"):
		return "DRAFT"
	case strings.Contains(codeStr, "BACKEND"):
		return "BACKEND"
	default:
		return "OTHER"
	}
}

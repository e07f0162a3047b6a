package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrAuthExpired        = errors.New("credential expired")
	ErrAuthMalformed      = errors.New("credential malformed")
	ErrRemoteRejected     = errors.New("remote rejected request")
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrForbidden          = errors.New("access forbidden")
)

var (
	ErrTaskNotFound         = errors.New("task not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrClientNotFound       = errors.New("client not found")
)

// ValidationError lists the fields that failed validation. It is returned
// before any network call or state change happens.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(e.Fields, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError from field messages.
func NewValidationError(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// genericRejection is shown when the backend gives no usable message.
const genericRejection = "the server rejected the request"

// RemoteRejectedError is a non-success response from the backend.
type RemoteRejectedError struct {
	StatusCode int
	Message    string
}

func (e *RemoteRejectedError) Error() string {
	return fmt.Sprintf("%s (%d): %s", ErrRemoteRejected, e.StatusCode, e.DisplayMessage())
}

func (e *RemoteRejectedError) Unwrap() error { return ErrRemoteRejected }

// DisplayMessage is the text to show on the form that initiated the call:
// the backend message when there is one, a generic fallback otherwise.
func (e *RemoteRejectedError) DisplayMessage() string {
	if strings.TrimSpace(e.Message) == "" {
		return genericRejection
	}
	return e.Message
}

package tracker

import (
	"errors"
	"fmt"
)

// MutationErrorCode categorizes rejected mutations.
type MutationErrorCode string

const (
	// ErrCodeInvalidType indicates a type other than LEAVE or RETURN.
	ErrCodeInvalidType MutationErrorCode = "INVALID_TYPE"

	// ErrCodeFutureTimestamp indicates an event placed after now.
	ErrCodeFutureTimestamp MutationErrorCode = "FUTURE_TIMESTAMP"

	// ErrCodeEventNotFound indicates an edit or delete of an unknown ID.
	ErrCodeEventNotFound MutationErrorCode = "EVENT_NOT_FOUND"

	// ErrCodeTypeRequired indicates auto-typing was asked for where either
	// type is legal, so the caller must choose.
	ErrCodeTypeRequired MutationErrorCode = "TYPE_REQUIRED"

	// ErrCodeInvalidSettings indicates settings that fail schema validation.
	ErrCodeInvalidSettings MutationErrorCode = "INVALID_SETTINGS"
)

// MutationError is returned when a mutation is rejected before anything is written.
type MutationError struct {
	Code    MutationErrorCode
	Message string

	// EventID identifies the affected event, when there is one.
	EventID string

	// Err is the underlying cause, if any.
	Err error
}

func (e *MutationError) Error() string {
	if e.EventID != "" {
		return fmt.Sprintf("%s: %s (event=%s)", e.Code, e.Message, e.EventID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

func hasCode(err error, code MutationErrorCode) bool {
	var me *MutationError
	if errors.As(err, &me) {
		return me.Code == code
	}
	return false
}

// IsNotFoundError returns true if err reports an unknown event ID.
func IsNotFoundError(err error) bool {
	return hasCode(err, ErrCodeEventNotFound)
}

// IsFutureError returns true if err reports a timestamp after now.
func IsFutureError(err error) bool {
	return hasCode(err, ErrCodeFutureTimestamp)
}

// IsTypeRequiredError returns true if the caller must pick LEAVE or RETURN.
func IsTypeRequiredError(err error) bool {
	return hasCode(err, ErrCodeTypeRequired)
}

// IsValidationError returns true for errors caused by bad input rather than storage.
func IsValidationError(err error) bool {
	return hasCode(err, ErrCodeInvalidType) || hasCode(err, ErrCodeInvalidSettings)
}

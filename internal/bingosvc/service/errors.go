package service

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned for unknown card/game/claim ids; handlers map it
// to a 404.
var ErrNotFound = errors.New("not found")

// ValidationError reports a missing or malformed request field, detected
// before any mutation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalidf(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ConflictError reports a state collision: duplicate active game, duplicate
// claim, already-called number, replayed payment nonce.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func conflictf(format string, args ...interface{}) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ExternalError carries the facilitator's stated reason for a failed
// verification or settlement. It aborts the purchase before persistence
// and is not retried automatically.
type ExternalError struct {
	Reason string
}

func (e *ExternalError) Error() string { return e.Reason }

// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Validation errors; always raised before any I/O and recoverable by re-input.
	ErrUnbalanced         = errors.New("transaction postings do not balance")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrNameConflict       = errors.New("account name already in use")
	ErrAccountNotEmpty    = errors.New("account balance must be zero")
	ErrInvalidAccount     = errors.New("invalid account")

	// Lookup errors.
	ErrNotFound = errors.New("not found")
	// ErrNotConfigured means no ledger exists for the requested budget; callers
	// offer first-run bootstrap instead of treating it as fatal.
	ErrNotConfigured = errors.New("budget not configured")

	// ErrConsistency means the ledger's aggregate post-condition check failed
	// after a commit sequence. It signals a logic defect, not a user error.
	ErrConsistency = errors.New("ledger consistency violation")
)

// PersistenceError reports a failed durable operation. The unit of work it
// belongs to has been rolled back in full; no partial effect remains visible.
type PersistenceError struct {
	Err error
	Op  string
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure in %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError wraps err as a persistence failure of the named operation.
func NewPersistenceError(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// IsPersistence reports whether err is (or wraps) a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

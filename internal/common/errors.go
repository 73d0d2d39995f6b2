// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Input errors.
	ErrValidation = errors.New("validation failed")

	// Database errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")
	ErrCategoryInUse  = errors.New("category is referenced by transactions")

	// Export errors.
	ErrRemoteUnavailable = errors.New("remote service unavailable")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

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

// Describe turns a ledger error into a short message suitable for the terminal.
func Describe(err error) string {
	var userErr *UserError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &userErr):
		return userErr.Error()
	case errors.Is(err, ErrCategoryInUse):
		return "the category still has transactions; move or delete them first"
	case errors.Is(err, ErrNotFound):
		return "no such record"
	case errors.Is(err, ErrDuplicateEntry):
		return "a record with that name already exists"
	case errors.Is(err, ErrValidation):
		return err.Error()
	}
	return err.Error()
}

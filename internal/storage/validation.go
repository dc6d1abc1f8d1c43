package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/quillhollow/budgeteer/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrInvalidPage  = errors.New("limit must be positive and offset non-negative")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateAccount ensures an account carries the fields the store needs.
func validateAccount(a *model.Account) error {
	if a == nil {
		return fmt.Errorf("%w: account", ErrNilParameter)
	}
	if a.ID == "" {
		return fmt.Errorf("%w: account.ID", ErrEmptyString)
	}
	if a.Name == "" {
		return fmt.Errorf("%w: account.Name", ErrEmptyString)
	}
	if !a.Kind.Valid() {
		return fmt.Errorf("invalid account kind %q", a.Kind)
	}
	return nil
}

// validatePage validates pagination parameters.
func validatePage(limit, offset int) error {
	if limit <= 0 || offset < 0 {
		return ErrInvalidPage
	}
	return nil
}

package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenConsumed      = errors.New("refresh token already used")
	ErrBadRole            = errors.New("unknown role")
	ErrSelfRole           = errors.New("cannot change own role")
	ErrSelfDelete         = errors.New("cannot delete own account")
	ErrForbidden          = errors.New("insufficient permissions")
	ErrPropertyNotFound   = errors.New("property not found")
)

// ValidationError carries the offending field so handlers can return a
// useful 400 without leaking anything else.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

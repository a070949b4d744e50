package services

import (
	"errors"
	"strings"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("record not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrConcurrencyConflict = errors.New("record was modified by another request")
	ErrForbidden           = errors.New("admin access required")
	ErrCategoryInUse       = errors.New("category still has products")
	ErrImagesDisabled      = errors.New("image storage is not configured")

	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid login attempt")
	ErrLockedOut          = errors.New("account is locked out")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// ValidationError carries the user-facing messages of a rejected request.
// It matches ErrValidation and every sentinel listed in Causes.
type ValidationError struct {
	Messages []string
	Causes   []error
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() []error {
	return e.Causes
}

func (e *ValidationError) add(cause error, message string) {
	e.Messages = append(e.Messages, message)
	if cause != nil {
		e.Causes = append(e.Causes, cause)
	}
}

func (e *ValidationError) empty() bool {
	return len(e.Messages) == 0
}

func newValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

// ValidationMessages returns the messages of a ValidationError in err's
// chain, or nil.
func ValidationMessages(err error) []string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Messages
	}
	return nil
}

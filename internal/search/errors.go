package search

import (
	"errors"
	"fmt"

	"github.com/esmlabs/extended-memory/internal/model"
)

// ValidationError reports a caller-contract violation detected before any
// sub-search is dispatched.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// Is lets errors.Is(err, model.ErrValidation) match.
func (e *ValidationError) Is(target error) bool { return target == model.ErrValidation }

func validationf(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a request-validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

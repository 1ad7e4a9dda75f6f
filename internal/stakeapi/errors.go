package stakeapi

import (
	"errors"
	"fmt"
)

// ErrNotFound covers missing accounts and pending transaction ids, including
// the second arm of a double-resolution race.
var ErrNotFound = errors.New("not found")

// ValidationError is a caller-correctable input problem. It is surfaced with
// its reason and never retried automatically.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func Validationf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// InvariantViolation marks an internal state the atomic resolve path should
// have made impossible, e.g. a terminal transaction being resolved again.
type InvariantViolation struct {
	Detail string
}

func (e *InvariantViolation) Error() string {
	return "invariant violation: " + e.Detail
}

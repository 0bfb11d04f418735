package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is a generic sentinel for missing resources, including
	// ancestry links that do not resolve under the addressed parent.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when an ownership chain resolves but the
	// course owner does not match the requesting user.
	ErrForbidden = errors.New("forbidden")
	// ErrAlreadyExists is returned on attempts to create a duplicate row,
	// e.g. a second content row for a topic outside the regenerate path.
	ErrAlreadyExists = errors.New("already exists")
	// ErrValidation is a generic sentinel for invalid input on the manual
	// create/update paths.
	ErrValidation = errors.New("invalid argument")
)

type GenerationErrorKind string

const (
	GenerationTimeout   GenerationErrorKind = "timeout"
	GenerationQuota     GenerationErrorKind = "quota"
	GenerationMalformed GenerationErrorKind = "malformed"
	GenerationProvider  GenerationErrorKind = "provider"
)

// GenerationError wraps any failure of the external content provider so
// callers never branch on provider-specific error shapes.
type GenerationError struct {
	Kind GenerationErrorKind
	Err  error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("generation failed (%s)", e.Kind)
	}
	return fmt.Sprintf("generation failed (%s): %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Retryable reports whether the caller may safely retry the operation.
// Malformed provider output is not retryable as-is; timeouts, quota limits
// and transient provider failures are.
func (e *GenerationError) Retryable() bool {
	return e.Kind != GenerationMalformed
}

func NewGenerationError(kind GenerationErrorKind, err error) *GenerationError {
	return &GenerationError{Kind: kind, Err: err}
}

// AsGeneration unwraps err into a *GenerationError if one is in the chain.
func AsGeneration(err error) (*GenerationError, bool) {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

func Is(err, target error) bool { return errors.Is(err, target) }

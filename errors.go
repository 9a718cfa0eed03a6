package ormap

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for configuration operations.
var (
	// ErrNotFound is returned when a requested definition does not exist.
	ErrNotFound = errors.New("ormap: definition not found")

	// ErrUnresolvedTypes is returned when publishing a configuration that
	// does not resolve runtime types.
	ErrUnresolvedTypes = errors.New("ormap: configuration does not resolve types")
)

// NotFoundError represents an error when a definition is not found.
type NotFoundError struct {
	label string
	id    any
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("ormap: %s not found (id=%v)", e.label, e.id)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the kind of definition that was looked up.
func (e *NotFoundError) Label() string {
	return e.label
}

// ID returns the key that was looked up.
func (e *NotFoundError) ID() any {
	return e.id
}

// NewNotFoundError returns a new NotFoundError for the given definition kind.
func NewNotFoundError(label string, id any) *NotFoundError {
	return &NotFoundError{label: label, id: id}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// BuildError reports the step of the configuration build that failed.
type BuildError struct {
	Step string
	Err  error
}

// Error returns the error string.
func (e *BuildError) Error() string {
	return fmt.Sprintf("ormap: %s: %v", e.Step, e.Err)
}

// Unwrap returns the underlying error.
func (e *BuildError) Unwrap() error {
	return e.Err
}

// IsBuildError returns true if the error is a BuildError.
func IsBuildError(err error) bool {
	if err == nil {
		return false
	}
	var e *BuildError
	return errors.As(err, &e)
}

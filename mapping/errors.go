package mapping

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrMapping indicates a mapping declaration problem.
	ErrMapping = errors.New("mapping: invalid mapping")
	// ErrValidationFailed indicates that a validation stage reported violations.
	ErrValidationFailed = errors.New("mapping: validation failed")
	// ErrReadOnly indicates a mutation of a frozen mapping object.
	ErrReadOnly = errors.New("mapping: object is read-only")
	// ErrPersistenceModel indicates that the persistence model loader broke its contract.
	ErrPersistenceModel = errors.New("mapping: persistence model loader contract violated")
)

// MappingError represents a problem in the mapping declarations. It carries
// enough context to locate the offending declaration.
type MappingError struct {
	ClassID  string
	Property string
	Relation string
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *MappingError) Error() string {
	var b strings.Builder
	b.WriteString("mapping: ")
	writeLocation(&b, e.ClassID, e.Property, e.Relation)
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *MappingError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for MappingError.
func (e *MappingError) Is(target error) bool {
	return target == ErrMapping
}

// NewMappingError creates a new MappingError for the given class.
func NewMappingError(classID, property, format string, args ...any) *MappingError {
	return &MappingError{
		ClassID:  classID,
		Property: property,
		Message:  fmt.Sprintf(format, args...),
	}
}

// IsMappingError reports whether the error is a MappingError.
func IsMappingError(err error) bool {
	var mappingErr *MappingError
	return errors.As(err, &mappingErr)
}

// ValidationError is a single violation found by a validation stage.
type ValidationError struct {
	ClassID  string
	Property string
	Relation string
	Message  string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var b strings.Builder
	writeLocation(&b, e.ClassID, e.Property, e.Relation)
	b.WriteString(e.Message)
	return b.String()
}

// Is reports whether the target matches the sentinel errors for ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed || target == ErrMapping
}

// NewValidationError creates a new ValidationError.
func NewValidationError(classID, property, format string, args ...any) *ValidationError {
	return &ValidationError{
		ClassID:  classID,
		Property: property,
		Message:  fmt.Sprintf(format, args...),
	}
}

// IsValidationError reports whether the error is a ValidationError.
func IsValidationError(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

// AggregateError holds all the violations found by one validation stage.
type AggregateError struct {
	Stage  string
	Errors []error
}

// Error implements the error interface.
func (e *AggregateError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "mapping: %s: ", e.Stage)
	if len(e.Errors) == 1 {
		sb.WriteString(e.Errors[0].Error())
		return sb.String()
	}
	fmt.Fprintf(&sb, "%d errors:", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns an AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(stage string, errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return &AggregateError{Stage: stage, Errors: filtered}
}

// NewValidationFailure aggregates the violations of a validation stage.
// It returns nil if there are none.
func NewValidationFailure(stage string, violations []*ValidationError) error {
	errs := make([]error, 0, len(violations))
	for _, v := range violations {
		if v != nil {
			errs = append(errs, v)
		}
	}
	return NewAggregateError(stage, errs...)
}

// Violations returns the validation errors held by err, if any.
func Violations(err error) []*ValidationError {
	var agg *AggregateError
	if !errors.As(err, &agg) {
		return nil
	}
	var violations []*ValidationError
	for _, e := range agg.Errors {
		var v *ValidationError
		if errors.As(e, &v) {
			violations = append(violations, v)
		}
	}
	return violations
}

func writeLocation(b *strings.Builder, classID, property, relation string) {
	if classID == "" && property == "" && relation == "" {
		return
	}
	var parts []string
	if classID != "" {
		parts = append(parts, "class "+classID)
	}
	if property != "" {
		parts = append(parts, "property "+property)
	}
	if relation != "" {
		parts = append(parts, "relation "+relation)
	}
	b.WriteString(strings.Join(parts, " "))
	b.WriteString(": ")
}

// contractViolation panics with a programming-contract violation message.
func contractViolation(format string, args ...any) {
	panic(fmt.Sprintf("mapping: "+format, args...))
}

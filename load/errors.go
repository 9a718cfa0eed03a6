package load

import (
	"errors"
	"fmt"
)

// ErrUnknownType is returned for references to undeclared types.
var ErrUnknownType = errors.New("unknown type")

// Position is a location in a descriptor file.
type Position struct {
	File   string
	Line   int
	Column int
}

// String returns "file:line:column", omitting the parts that are unknown.
func (p Position) String() string {
	switch {
	case p.File == "" && p.Line == 0:
		return "-"
	case p.File == "":
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	case p.Line == 0:
		return p.File
	default:
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
}

// Error is a descriptor error at a document position.
type Error struct {
	Pos Position
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("load: %s: %v", e.Pos, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

func errorf(pos Position, format string, args ...any) error {
	return &Error{Pos: pos, Err: fmt.Errorf(format, args...)}
}

// IsError reports whether err is a descriptor error.
func IsError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

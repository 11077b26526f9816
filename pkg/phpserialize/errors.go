package phpserialize

import (
	"errors"
	"fmt"
)

// Common errors. The typed errors below unwrap to one of these, so callers
// can classify failures with errors.Is.
var (
	ErrEmptyInput          = errors.New("phpserialize: input is empty")
	ErrMalformedInput      = errors.New("phpserialize: malformed input")
	ErrLengthMismatch      = errors.New("phpserialize: length mismatch")
	ErrBinding             = errors.New("phpserialize: binding failed")
	ErrUnsupportedStdClass = errors.New("phpserialize: stdClass is not supported")
	ErrMaxDepthExceeded    = errors.New("phpserialize: max depth exceeded")
	ErrCircularReference   = errors.New("phpserialize: circular reference")
	ErrUnsupportedKey      = errors.New("phpserialize: unsupported key type")
	ErrUnsupportedType     = errors.New("phpserialize: unsupported type")
)

// InvalidArgumentError reports a caller contract violation, such as empty
// input or a nil target.
type InvalidArgumentError struct {
	Argument string
	Reason   string
	Err      error
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("phpserialize: invalid argument %s: %s", e.Argument, e.Reason)
}

func (e *InvalidArgumentError) Unwrap() error {
	return e.Err
}

func emptyInputError() error {
	return &InvalidArgumentError{Argument: "data", Reason: "input must not be empty", Err: ErrEmptyInput}
}

// MalformedInputError reports a grammar violation at a byte position.
// Expected and Found are set for delimiter and tag mismatches; Found is
// "end of input" when the data ran out.
type MalformedInputError struct {
	Pos      int
	Expected string
	Found    string
	Msg      string
}

func (e *MalformedInputError) Error() string {
	switch {
	case e.Expected != "" && e.Msg != "":
		return fmt.Sprintf("phpserialize: %s at position %d: expected %s but found %s", e.Msg, e.Pos, e.Expected, e.Found)
	case e.Expected != "":
		return fmt.Sprintf("phpserialize: unexpected token at position %d: expected %s but found %s", e.Pos, e.Expected, e.Found)
	default:
		return fmt.Sprintf("phpserialize: %s at position %d", e.Msg, e.Pos)
	}
}

func (e *MalformedInputError) Unwrap() error {
	return ErrMalformedInput
}

// LengthMismatchError reports an array or object whose declared element
// count differs from the number of pairs it actually contains.
type LengthMismatchError struct {
	Kind     Kind
	Pos      int
	Declared int
	Actual   int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("phpserialize: %s at position %d declares %d elements but contains %d",
		e.Kind, e.Pos, e.Declared, e.Actual)
}

func (e *LengthMismatchError) Unwrap() error {
	return ErrLengthMismatch
}

// BindingError reports a token that could not be converted to its target
// shape. Slot is set when the failure happened inside a struct field; Cause
// carries the lower-level failure, if any.
type BindingError struct {
	Shape string
	Slot  string
	Value string
	Pos   int
	Msg   string
	Cause error
}

func (e *BindingError) Error() string {
	var s string
	if e.Slot != "" {
		s = fmt.Sprintf("phpserialize: cannot set %s.%s to %s at position %d", e.Shape, e.Slot, e.Value, e.Pos)
	} else {
		s = fmt.Sprintf("phpserialize: cannot bind %s at position %d to %s", e.Value, e.Pos, e.Shape)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *BindingError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrBinding, e.Cause}
	}
	return []error{ErrBinding}
}

// UnsupportedStdClassError is returned when an anonymous stdClass object is
// decoded while the StdClassThrow policy is active.
type UnsupportedStdClassError struct {
	Pos int
}

func (e *UnsupportedStdClassError) Error() string {
	return fmt.Sprintf("phpserialize: object of class %s at position %d is not allowed by the stdClass policy", StdClass, e.Pos)
}

func (e *UnsupportedStdClassError) Unwrap() error {
	return ErrUnsupportedStdClass
}

// UnsupportedKeyError reports a map key type that cannot be written as a PHP
// array key. Only strings and integers are allowed.
type UnsupportedKeyError struct {
	Type string
}

func (e *UnsupportedKeyError) Error() string {
	return fmt.Sprintf("phpserialize: map key of type %s cannot be serialized; keys must be strings or integers", e.Type)
}

func (e *UnsupportedKeyError) Unwrap() error {
	return ErrUnsupportedKey
}

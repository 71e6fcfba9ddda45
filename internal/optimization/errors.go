package optimization

import (
	"errors"
	"fmt"
)

// Kind classifies a validation failure. The two kinds mirror the split
// between structurally wrong inputs (a NaN bound, a nil objective) and
// inputs of the right shape holding an out-of-range value.
type Kind int

const (
	// KindInvalidType marks arguments that are structurally unusable,
	// such as NaN bounds or nil callables.
	KindInvalidType Kind = iota
	// KindInvalidValue marks well-formed arguments whose value violates a
	// documented constraint, such as a hyperparameter outside [0, 1].
	KindInvalidValue
)

func (k Kind) String() string {
	switch k {
	case KindInvalidType:
		return "invalid type"
	case KindInvalidValue:
		return "invalid value"
	}
	return "unknown"
}

// Error is a validation or evaluation error raised by the optimization
// core. Param names the offending parameter and Message states the
// violated constraint, so callers can report actionable failures.
type Error struct {
	Kind    Kind
	Param   string
	Message string
	Err     error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var prefix string
	if e.Param != "" {
		prefix = fmt.Sprintf("%s: `%s`", e.Kind, e.Param)
	} else {
		prefix = e.Kind.String()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewTypeError creates a type-kind validation error for the named parameter.
func NewTypeError(param, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    KindInvalidType,
		Param:   param,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewValueError creates a value-kind validation error for the named parameter.
func NewValueError(param, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    KindInvalidValue,
		Param:   param,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError wraps an existing error with additional context. Wrapped errors
// keep the value kind: they originate from runtime failures, not misuse of
// the API surface. If err is nil, WrapError returns nil.
func WrapError(err error, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Kind:    KindInvalidValue,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// IsTypeError reports whether err is a type-kind optimization error.
func IsTypeError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindInvalidType
}

// IsValueError reports whether err is a value-kind optimization error.
func IsValueError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindInvalidValue
}

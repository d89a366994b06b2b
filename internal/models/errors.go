package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a migration failure
type ErrorKind string

const (
	KindMalformedIdentifier ErrorKind = "MalformedIdentifier"
	KindFetch               ErrorKind = "FetchError"
	KindConversion          ErrorKind = "ConversionError"
	KindCreate              ErrorKind = "CreateError"
	KindConfiguration       ErrorKind = "ConfigurationError"
	KindCancelled           ErrorKind = "Cancelled"
)

// Error is an error tagged with the kind of failure that produced it
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// NewError wraps err with a kind and the operation that failed
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a kinded error from a format string
func Errorf(kind ErrorKind, op string, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain, or fallback
func KindOf(err error, fallback ErrorKind) ErrorKind {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind
	}
	return fallback
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	var me *Error
	return errors.As(err, &me) && me.Kind == kind
}

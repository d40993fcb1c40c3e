package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindAuth          Kind = "auth"
	KindTransientIO   Kind = "transient_io"
	KindItemFailure   Kind = "item_failure"
	KindParse         Kind = "parse"
	KindPersistence   Kind = "persistence"
	KindNotFound      Kind = "not_found"
)

// Error is a classified error with the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Op)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error without a cause.
func New(kind Kind, op string) *Error {
	return &Error{Kind: kind, Op: op}
}

// Wrap classifies err. It returns nil when err is nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Configuration builds a configuration error with a formatted message.
func Configuration(format string, args ...any) error {
	return &Error{Kind: KindConfiguration, Op: fmt.Sprintf(format, args...)}
}

// Is reports whether any error in err's chain has the given kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		var appErr *Error
		if !errors.As(err, &appErr) {
			return false
		}
		if appErr.Kind == kind {
			return true
		}
		err = appErr.Err
	}
	return false
}

// KindOf returns the outermost kind in err's chain, or "" if unclassified.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// Package apperr classifies failures that cross component boundaries.
//
// Domain packages keep their own sentinel errors; adapters and the sync
// store wrap them into one of the kinds below so callers can branch on
// errors.Is(err, apperr.NotFound) without knowing which layer failed.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is a failure category. A Kind is itself an error so it can be used
// directly as an errors.Is target.
type Kind string

const (
	NotFound         Kind = "not_found"
	Unauthorized     Kind = "unauthorized"
	ValidationFailed Kind = "validation_failed"
	TransportFailure Kind = "transport_failure"
	Collision        Kind = "collision"
)

// Error implements error.
func (k Kind) Error() string {
	return string(k)
}

// Error is a classified failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// E wraps err with a kind and the operation that produced it.
// PRE: kind is one of the declared kinds
// POST: returned error matches errors.Is(err, kind) and unwraps to err
func E(kind Kind, op string, err error) error {
	if err == nil {
		err = errors.New(string(kind))
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf is E with a formatted cause.
func Errorf(kind Kind, op string, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is this error's kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// KindOf returns the outermost kind in err's chain, or "" when unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return ""
}

// Classify wraps err with kind unless it already carries one.
// POST: nil in, nil out
func Classify(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != "" {
		return err
	}
	return E(kind, op, err)
}

package errors

import (
	"context"
	"errors"
	"fmt"
)

// Wrap converts an arbitrary error into an error of this taxonomy.
// Errors already belonging to the taxonomy pass through unchanged, so
// wrapping is idempotent within a single domain. Context cancellation
// maps to the Canceled variant, context deadlines to Timeout.
// Everything else, including another taxonomy's errors, is boxed as
// Unknown with the original error as the cause.
//
// Wrap returns nil when err is nil.
func (t Taxonomy) Wrap(err error) *Error {
	if err == nil {
		return nil
	}

	if t.Owns(err) {
		var e *Error
		errors.As(err, &e)
		return e
	}

	if errors.Is(err, context.Canceled) {
		return t.New(CodeCanceled, CodeCanceled.Description(), WithCause(err))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return t.New(CodeTimeout, CodeTimeout.Description(), WithCause(err))
	}

	return t.Unknown(err)
}

// Owns reports whether err (or any error in its chain) belongs to this
// taxonomy.
func (t Taxonomy) Owns(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.taxonomy == t.name
}

// RecoverPanic converts a recovered panic value into an error of this
// taxonomy. Returns nil if recovered is nil.
func (t Taxonomy) RecoverPanic(recovered interface{}) *Error {
	if recovered == nil {
		return nil
	}
	switch v := recovered.(type) {
	case error:
		return t.New(CodePanic, CodePanic.Description(), WithCause(v))
	default:
		return t.Newf(CodePanic, "%s: %v", CodePanic.Description(), v)
	}
}

// CodeOf extracts the code from an error. Returns the empty code if err
// carries no taxonomy error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return ""
}

// Is reports whether any taxonomy error in the chain has the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// IsCanceled reports whether the error is a cancellation.
func IsCanceled(err error) bool {
	return Is(err, CodeCanceled)
}

// IsRetryLimit reports whether the error marks an exhausted retry budget.
func IsRetryLimit(err error) bool {
	return Is(err, CodeRetryLimit)
}

// IsRetryable reports whether the error may succeed on retry. Foreign
// errors default to retryable: the taxonomy cannot rule out a transient
// cause it knows nothing about.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable()
	}
	return true
}

// Cause returns the innermost error of the chain, unwrapping through
// any number of taxonomy layers. One taxonomy's Unknown may carry
// another taxonomy's error as its cause; Cause recovers the original
// foreign error underneath them all.
func Cause(err error) error {
	for {
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return err
		}
		inner := unwrapper.Unwrap()
		if inner == nil {
			return err
		}
		err = inner
	}
}

// Wrapf boxes err as an Unknown of the taxonomy with additional message
// context, regardless of which taxonomy err belongs to.
func (t Taxonomy) Wrapf(err error, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return t.New(CodeUnknown, fmt.Sprintf(format, args...), WithCause(err))
}

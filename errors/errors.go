package errors

import (
	"fmt"
)

// Taxonomy is a named, closed domain of errors. Every operation resolves
// its failures through exactly one taxonomy, which guarantees the three
// constructors the lifecycle contract needs: Canceled, Unknown, and
// RetryLimit. Domain-specific codes are added with New/Newf.
//
// The zero value is not usable; construct taxonomies with NewTaxonomy.
type Taxonomy struct {
	name string
}

// Default is the taxonomy used when a caller does not supply one.
var Default = NewTaxonomy("opkit")

// NewTaxonomy creates a taxonomy with the given domain name. The name
// appears in error messages and distinguishes one taxonomy's errors
// from another's in Wrap.
func NewTaxonomy(name string) Taxonomy {
	return Taxonomy{name: name}
}

// Name returns the taxonomy's domain name.
func (t Taxonomy) Name() string {
	return t.name
}

// New creates an error of this taxonomy with the given code and message.
func (t Taxonomy) New(code Code, message string, opts ...Option) *Error {
	e := &Error{
		taxonomy: t.name,
		code:     code,
		message:  message,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Newf creates an error of this taxonomy with a formatted message.
func (t Taxonomy) Newf(code Code, format string, args ...interface{}) *Error {
	return t.New(code, fmt.Sprintf(format, args...))
}

// Canceled creates the taxonomy's cancellation error.
func (t Taxonomy) Canceled() *Error {
	return t.New(CodeCanceled, CodeCanceled.Description())
}

// Unknown boxes a foreign error as this taxonomy's Unknown variant,
// carrying inner as the cause so it can be recovered later with Cause.
func (t Taxonomy) Unknown(inner error) *Error {
	return t.New(CodeUnknown, CodeUnknown.Description(), WithCause(inner))
}

// RetryLimit creates the taxonomy's terminal retry-exhaustion error.
func (t Taxonomy) RetryLimit() *Error {
	return t.New(CodeRetryLimit, CodeRetryLimit.Description())
}

// Error is the structured error produced by a Taxonomy.
type Error struct {
	taxonomy string
	code     Code
	message  string
	cause    error
}

var _ error = (*Error)(nil)

// Error returns the error message.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.taxonomy, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.taxonomy, e.message)
}

// Code returns the error code.
func (e *Error) Code() Code {
	return e.code
}

// Taxonomy returns the name of the taxonomy this error belongs to.
func (e *Error) Taxonomy() string {
	return e.taxonomy
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Retryable reports whether the failure may succeed on a later attempt.
func (e *Error) Retryable() bool {
	return !e.code.Terminal()
}

// Option is a functional option for configuring an Error.
type Option func(*Error)

// WithCause sets the underlying cause.
func WithCause(cause error) Option {
	return func(e *Error) {
		e.cause = cause
	}
}

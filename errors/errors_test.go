package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"testing"
)

func TestTaxonomyConstructors(t *testing.T) {
	tax := NewTaxonomy("test")

	canceled := tax.Canceled()
	if canceled.Code() != CodeCanceled {
		t.Errorf("Expected code %s, got %s", CodeCanceled, canceled.Code())
	}
	if canceled.Taxonomy() != "test" {
		t.Errorf("Expected taxonomy test, got %s", canceled.Taxonomy())
	}

	limit := tax.RetryLimit()
	if limit.Code() != CodeRetryLimit {
		t.Errorf("Expected code %s, got %s", CodeRetryLimit, limit.Code())
	}

	inner := io.ErrUnexpectedEOF
	unknown := tax.Unknown(inner)
	if unknown.Code() != CodeUnknown {
		t.Errorf("Expected code %s, got %s", CodeUnknown, unknown.Code())
	}
	if unknown.Unwrap() != inner {
		t.Errorf("Expected cause %v, got %v", inner, unknown.Unwrap())
	}
}

func TestWrapNil(t *testing.T) {
	if err := Default.Wrap(nil); err != nil {
		t.Errorf("Wrap(nil) should return nil, got %v", err)
	}
}

func TestWrapPassthrough(t *testing.T) {
	tax := NewTaxonomy("test")

	orig := tax.New(CodeInvalidInput, "bad data")
	wrapped := tax.Wrap(orig)
	if wrapped != orig {
		t.Error("Wrap should pass through same-taxonomy errors unchanged")
	}

	// Pass-through also works when the taxonomy error is buried in a
	// stdlib wrapping chain.
	chained := fmt.Errorf("while loading: %w", orig)
	wrapped = tax.Wrap(chained)
	if wrapped != orig {
		t.Error("Wrap should find same-taxonomy errors through the chain")
	}
}

func TestWrapForeign(t *testing.T) {
	tax := NewTaxonomy("test")

	wrapped := tax.Wrap(io.ErrUnexpectedEOF)
	if wrapped.Code() != CodeUnknown {
		t.Errorf("Expected foreign error to become %s, got %s", CodeUnknown, wrapped.Code())
	}
	if !stderrors.Is(wrapped, io.ErrUnexpectedEOF) {
		t.Error("Wrapped error should match the original with errors.Is")
	}
}

func TestWrapContextErrors(t *testing.T) {
	tax := NewTaxonomy("test")

	if code := tax.Wrap(context.Canceled).Code(); code != CodeCanceled {
		t.Errorf("context.Canceled should map to %s, got %s", CodeCanceled, code)
	}
	if code := tax.Wrap(context.DeadlineExceeded).Code(); code != CodeTimeout {
		t.Errorf("context.DeadlineExceeded should map to %s, got %s", CodeTimeout, code)
	}
}

func TestWrapAcrossTaxonomies(t *testing.T) {
	taxA := NewTaxonomy("alpha")
	taxB := NewTaxonomy("beta")

	foreign := io.ErrUnexpectedEOF

	wrappedA := taxA.Wrap(foreign)
	wrappedB := taxB.Wrap(wrappedA)

	// B must not treat A's error as its own.
	if wrappedB.Code() != CodeUnknown {
		t.Errorf("Expected %s, got %s", CodeUnknown, wrappedB.Code())
	}
	if wrappedB.Taxonomy() != "beta" {
		t.Errorf("Expected taxonomy beta, got %s", wrappedB.Taxonomy())
	}

	// Unwrapping through both layers recovers the original error.
	if got := Cause(wrappedB); got != foreign {
		t.Errorf("Cause should recover the foreign error, got %v", got)
	}
}

func TestWrapIdempotent(t *testing.T) {
	tax := NewTaxonomy("test")

	once := tax.Wrap(io.ErrUnexpectedEOF)
	twice := tax.Wrap(once)
	if twice != once {
		t.Error("Double wrapping within one taxonomy should be a no-op")
	}
}

func TestWrapf(t *testing.T) {
	tax := NewTaxonomy("test")

	if err := tax.Wrapf(nil, "loading %s", "x"); err != nil {
		t.Errorf("Wrapf(nil) should return nil, got %v", err)
	}

	wrapped := tax.Wrapf(io.ErrUnexpectedEOF, "loading %s", "index")
	if wrapped.Code() != CodeUnknown {
		t.Errorf("Expected %s, got %s", CodeUnknown, wrapped.Code())
	}
	want := "test: loading index: unexpected EOF"
	if wrapped.Error() != want {
		t.Errorf("Expected %q, got %q", want, wrapped.Error())
	}
	if Cause(wrapped) != io.ErrUnexpectedEOF {
		t.Errorf("Cause should recover the original error, got %v", Cause(wrapped))
	}
}

func TestOwns(t *testing.T) {
	taxA := NewTaxonomy("alpha")
	taxB := NewTaxonomy("beta")

	err := taxA.New(CodeInternal, "boom")
	if !taxA.Owns(err) {
		t.Error("taxA should own its error")
	}
	if taxB.Owns(err) {
		t.Error("taxB should not own taxA's error")
	}
	if taxA.Owns(io.ErrUnexpectedEOF) {
		t.Error("No taxonomy owns a foreign error")
	}
}

func TestRecoverPanic(t *testing.T) {
	tax := NewTaxonomy("test")

	if err := tax.RecoverPanic(nil); err != nil {
		t.Errorf("RecoverPanic(nil) should return nil, got %v", err)
	}

	err := tax.RecoverPanic("went sideways")
	if err.Code() != CodePanic {
		t.Errorf("Expected code %s, got %s", CodePanic, err.Code())
	}

	cause := io.ErrClosedPipe
	err = tax.RecoverPanic(cause)
	if err.Unwrap() != cause {
		t.Errorf("Panic with an error value should keep it as cause, got %v", err.Unwrap())
	}
}

func TestCodeHelpers(t *testing.T) {
	tax := NewTaxonomy("test")

	if !IsCanceled(tax.Canceled()) {
		t.Error("IsCanceled should be true for a Canceled error")
	}
	if !IsRetryLimit(tax.RetryLimit()) {
		t.Error("IsRetryLimit should be true for a RetryLimit error")
	}
	if IsCanceled(io.ErrUnexpectedEOF) {
		t.Error("IsCanceled should be false for foreign errors")
	}
	if CodeOf(io.ErrUnexpectedEOF) != "" {
		t.Error("CodeOf should be empty for foreign errors")
	}
}

func TestRetryable(t *testing.T) {
	tax := NewTaxonomy("test")

	if IsRetryable(tax.Canceled()) {
		t.Error("Canceled must not be retryable")
	}
	if IsRetryable(tax.RetryLimit()) {
		t.Error("RetryLimit must not be retryable")
	}
	if !IsRetryable(tax.Unknown(io.ErrUnexpectedEOF)) {
		t.Error("Unknown should be retryable")
	}
	if !IsRetryable(io.ErrUnexpectedEOF) {
		t.Error("Foreign errors default to retryable")
	}
}

func TestErrorMessage(t *testing.T) {
	tax := NewTaxonomy("ingest")

	plain := tax.New(CodeInternal, "boom")
	if plain.Error() != "ingest: boom" {
		t.Errorf("Unexpected message: %s", plain.Error())
	}

	caused := tax.New(CodeUnknown, "unknown error", WithCause(io.ErrUnexpectedEOF))
	want := "ingest: unknown error: unexpected EOF"
	if caused.Error() != want {
		t.Errorf("Expected %q, got %q", want, caused.Error())
	}
}

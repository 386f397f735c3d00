// Package errors provides the closed error taxonomy operations resolve
// with. A Taxonomy is a named domain of structured errors guaranteeing
// the three variants the operation lifecycle depends on: Canceled,
// Unknown, and RetryLimit.
//
// # Taxonomies
//
// Each domain constructs its own taxonomy and adds codes on top of the
// built-in ones:
//
//	var tax = errors.NewTaxonomy("ingest")
//
//	err := tax.Newf(errors.CodeInvalidInput, "bad record %d", n)
//
// # Wrapping
//
// Wrap converts any error into the taxonomy. Same-taxonomy errors pass
// through unchanged; everything else is boxed as Unknown with the
// original error as the cause:
//
//	wrapped := tax.Wrap(io.ErrUnexpectedEOF)
//	errors.CodeOf(wrapped) // CodeUnknown
//
// Boxing nests: taxonomy B may wrap taxonomy A's error, which wraps a
// foreign error. Cause unwraps through all layers:
//
//	errors.Cause(taxB.Wrap(taxA.Wrap(io.ErrUnexpectedEOF))) // io.ErrUnexpectedEOF
//
// # Retry Decisions
//
// Codes classify as terminal or retryable. IsRetryable drives the
// retryable operation's decision to attempt again:
//
//	if errors.IsRetryable(err) {
//	    op.Retry(err)
//	}
package errors

package errors

// Code identifies a specific kind of failure within a taxonomy.
type Code string

// Codes every taxonomy provides. Domain taxonomies add their own codes
// on top of these via New/Newf.
const (
	// CodeCanceled indicates the operation was canceled before or during
	// execution.
	CodeCanceled Code = "CANCELED"

	// CodeUnknown boxes a foreign error that does not belong to the
	// taxonomy. The original error is carried as the cause.
	CodeUnknown Code = "UNKNOWN"

	// CodeRetryLimit indicates a retryable operation exhausted its
	// attempt budget without an explicit final error.
	CodeRetryLimit Code = "RETRY_LIMIT"

	// CodePanic indicates the failure was recovered from a panic.
	CodePanic Code = "PANIC"

	// CodeTimeout indicates the operation exceeded a deadline.
	CodeTimeout Code = "TIMEOUT"

	// CodeInvalidInput indicates malformed or invalid input.
	CodeInvalidInput Code = "INVALID_INPUT"

	// CodeInternal indicates an unexpected internal error.
	CodeInternal Code = "INTERNAL"
)

// String returns the string representation of the code.
func (c Code) String() string {
	return string(c)
}

// Terminal reports whether the code marks a failure that must not be
// retried. Canceled operations stay canceled, an exhausted retry budget
// stays exhausted, and a panic points at a programming error rather
// than a recoverable condition.
func (c Code) Terminal() bool {
	switch c {
	case CodeCanceled, CodeRetryLimit, CodePanic, CodeInvalidInput:
		return true
	default:
		return false
	}
}

// codeDescriptions provides human-readable descriptions for the
// built-in codes.
var codeDescriptions = map[Code]string{
	CodeCanceled:     "operation canceled",
	CodeUnknown:      "unknown error",
	CodeRetryLimit:   "retry limit reached",
	CodePanic:        "recovered from panic",
	CodeTimeout:      "operation timed out",
	CodeInvalidInput: "invalid input provided",
	CodeInternal:     "internal error",
}

// Description returns a human-readable description for the code.
func (c Code) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return string(c)
}

package operation

// Status is the observable lifecycle state of an operation. It is
// always derived from the underlying flags and the result cell, never
// stored.
type Status string

const (
	// StatusPending indicates the operation has unfinished predecessors.
	StatusPending Status = "pending"

	// StatusReady indicates all predecessors have settled and the
	// operation is waiting for a queue to dispatch it.
	StatusReady Status = "ready"

	// StatusExecuting indicates the entry point has been invoked and the
	// execute body is running.
	StatusExecuting Status = "executing"

	// StatusCanceled indicates cancellation was requested before the
	// result settled. Terminal.
	StatusCanceled Status = "canceled"

	// StatusFinishing indicates execution has ended but the result cell
	// is still pending, typically while a forwarded child settles.
	StatusFinishing Status = "finishing"

	// StatusFinished indicates the result cell has settled. Terminal.
	StatusFinished Status = "finished"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether the status is a final state.
func (s Status) IsTerminal() bool {
	return s == StatusCanceled || s == StatusFinished
}

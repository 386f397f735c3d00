package operation

import (
	"github.com/vinayprograms/opkit/future"
	"github.com/vinayprograms/opkit/progress"
)

// Work pairs a pending computation with the progress tracking it.
// Adapter-supplied functions return it; it is not a long-lived entity.
type Work[T any] struct {
	// Future settles when the computation does. Required.
	Future *future.Cell[T]

	// Progress is the computation's own tracker. Optional; when set, the
	// operation mirrors it until the future settles.
	Progress *progress.Tracker
}

// WorkFunc builds the computation an adapter-based operation runs. It
// is invoked lazily, exactly once per attempt, and never once the
// operation is canceled.
type WorkFunc[T any] func() (Work[T], error)

// NewFunc creates an operation from a work-producing function instead
// of an ExecuteFunc. The function's future drives resolution: success
// finishes the operation, failure fails it. An error returned by the
// function itself fails the operation directly.
//
// The operation reports Finishing while the computation is in flight:
// the entry point returns after subscribing, so a serialized queue's
// slot is not held across the wait.
func NewFunc[T any](fn WorkFunc[T], opts ...Option[T]) *Operation[T] {
	return New(func(op *Operation[T]) error {
		work, err := runWork(op, fn)
		if err != nil || work.Future == nil {
			return err
		}
		op.MarkFinished()
		work.Future.OnSettle(func(o future.Outcome[T]) {
			if o.Failed() {
				op.Fail(o.Err)
			} else {
				op.Finish(o.Value)
			}
		})
		return nil
	}, opts...)
}

// NewRetryableFunc is the retryable counterpart of NewFunc. Failures
// reported through the computation's future are routed to Retry, so the
// work function is re-invoked up to maxAttempts times. An error
// returned synchronously while constructing the computation is a
// programming failure, not a recoverable one: it fails the operation
// without consuming the retry budget.
func NewRetryableFunc[T any](maxAttempts uint64, fn WorkFunc[T], opts ...RetryOption[T]) *Retryable[T] {
	var r *Retryable[T]
	r = NewRetryable(maxAttempts, func(*Retryable[T]) error {
		work, err := runWork(r.Operation, fn)
		if err != nil || work.Future == nil {
			return err
		}
		r.MarkFinished()
		work.Future.OnSettle(func(o future.Outcome[T]) {
			if o.Failed() {
				r.Retry(o.Err)
			} else {
				r.Finish(o.Value)
			}
		})
		return nil
	}, opts...)
	return r
}

// runWork invokes the work function unless the operation was canceled
// mid-flight, and wires up progress mirroring.
func runWork[T any](op *Operation[T], fn WorkFunc[T]) (Work[T], error) {
	if op.IsCanceled() {
		return Work[T]{}, nil
	}
	work, err := fn()
	if err != nil {
		return Work[T]{}, op.taxonomy.Wrapf(err, "work construction failed")
	}
	if work.Progress != nil {
		op.Progress().Mirror(work.Progress)
	}
	return work, nil
}

// NewValue creates an operation from a plain synchronous function.
func NewValue[T any](fn func() (T, error), opts ...Option[T]) *Operation[T] {
	return New(func(op *Operation[T]) error {
		v, err := fn()
		if err != nil {
			return err
		}
		op.Finish(v)
		return nil
	}, opts...)
}

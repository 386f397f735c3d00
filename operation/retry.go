package operation

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryExecuteFunc is the unit of work a retryable operation runs. It
// follows the same contract as ExecuteFunc but receives the retryable
// wrapper so it can route recoverable failures through Retry.
type RetryExecuteFunc[T any] func(op *Retryable[T]) error

// Retryable wraps an operation with a bounded attempt budget. A failed
// attempt re-enters the execute function through Retry until the budget
// is exhausted, at which point the operation resolves with the last
// supplied error or the taxonomy's RetryLimit error.
//
// The attempt counter lives under its own mutex, independent of the
// base state lock: Retry may arrive from a continuation racing a
// concurrent Cancel, and the two must not order locks against each
// other.
type Retryable[T any] struct {
	*Operation[T]

	maxAttempts uint64
	pause       backoff.BackOff

	attemptsMu sync.Mutex
	attempts   uint64
	looping    bool
	pending    bool
}

// RetryOption configures a Retryable.
type RetryOption[T any] func(*Retryable[T])

// WithBackOff paces the attempts: the operation sleeps for the next
// backoff interval before each re-entry. Without it attempts re-enter
// immediately.
func WithBackOff[T any](b backoff.BackOff) RetryOption[T] {
	return func(r *Retryable[T]) {
		r.pause = b
	}
}

// WithOptions applies base operation options to the wrapped operation.
func WithOptions[T any](opts ...Option[T]) RetryOption[T] {
	return func(r *Retryable[T]) {
		for _, opt := range opts {
			opt(r.Operation)
		}
	}
}

// NewRetryable creates a retryable operation allowing at most
// maxAttempts invocations of execute. A maxAttempts of zero is treated
// as one: every operation runs at least once.
func NewRetryable[T any](maxAttempts uint64, execute RetryExecuteFunc[T], opts ...RetryOption[T]) *Retryable[T] {
	if maxAttempts == 0 {
		maxAttempts = 1
	}
	r := &Retryable[T]{
		maxAttempts: maxAttempts,
	}
	r.Operation = New(func(*Operation[T]) error {
		return execute(r)
	})
	for _, opt := range opts {
		opt(r)
	}
	r.Operation.entry = r.firstAttempt
	return r
}

// MaxAttempts returns the attempt budget.
func (r *Retryable[T]) MaxAttempts() uint64 {
	return r.maxAttempts
}

// Attempts returns how many attempts have started.
func (r *Retryable[T]) Attempts() uint64 {
	r.attemptsMu.Lock()
	defer r.attemptsMu.Unlock()
	return r.attempts
}

// firstAttempt is the retryable entry point installed over the base
// operation's. Entry through Run counts as attempt one.
func (r *Retryable[T]) firstAttempt() {
	r.attemptsMu.Lock()
	r.attempts = 1
	r.looping = true
	r.attemptsMu.Unlock()

	if r.pause != nil {
		r.pause.Reset()
	}
	r.loop()
}

// loop drives the attempts. Retry never re-invokes execute recursively:
// a Retry issued from inside a running attempt only flags the loop to
// go around again, so the stack stays flat no matter how large the
// attempt budget is.
func (r *Retryable[T]) loop() {
	for {
		if r.IsCanceled() || r.cell.Settled() {
			r.attemptsMu.Lock()
			r.looping = false
			r.pending = false
			r.attemptsMu.Unlock()
			return
		}

		r.invokeExecute()

		r.attemptsMu.Lock()
		if !r.pending {
			r.looping = false
			r.attemptsMu.Unlock()
			return
		}
		r.pending = false
		r.attemptsMu.Unlock()

		r.sleep()
	}
}

// Retry requests another attempt, optionally recording the failure that
// prompted it. On a canceled operation it is a no-op: the attempt
// counter stops moving. Below the budget it bumps the counter and
// re-enters execute; at the budget it resolves the operation as failed
// with dueTo, or with the taxonomy's RetryLimit error when dueTo is
// nil.
func (r *Retryable[T]) Retry(dueTo error) {
	if r.IsCanceled() || r.cell.Settled() {
		return
	}

	r.attemptsMu.Lock()
	if r.attempts >= r.maxAttempts {
		r.attemptsMu.Unlock()
		if dueTo != nil {
			r.Fail(dueTo)
		} else {
			r.Fail(r.taxonomy.RetryLimit())
		}
		return
	}
	r.attempts++
	if r.looping {
		// Called from inside a running attempt; the loop goes around.
		r.pending = true
		r.attemptsMu.Unlock()
		return
	}
	r.looping = true
	r.attemptsMu.Unlock()

	// Called from an asynchronous continuation; drive the loop here.
	r.sleep()
	r.loop()
}

// sleep waits out the next backoff interval, if pacing is configured.
func (r *Retryable[T]) sleep() {
	if r.pause == nil {
		return
	}
	d := r.pause.NextBackOff()
	if d == backoff.Stop || d <= 0 {
		return
	}
	time.Sleep(d)
}

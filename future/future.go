package future

import (
	"context"
	"sync"
)

// Outcome is the settled result of a cell: a value or an error, never
// both.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Failed reports whether the outcome carries an error.
func (o Outcome[T]) Failed() bool {
	return o.Err != nil
}

// Cell is a single-assignment future. It is created pending and settles
// exactly once, to a value via Resolve or an error via Reject. All later
// settlement attempts are ignored.
//
// A Cell is safe for concurrent use.
type Cell[T any] struct {
	mu        sync.Mutex
	settled   bool
	outcome   Outcome[T]
	done      chan struct{}
	callbacks []func(Outcome[T])
}

// NewCell creates a pending cell.
func NewCell[T any]() *Cell[T] {
	return &Cell[T]{
		done: make(chan struct{}),
	}
}

// Resolve settles the cell with a value. Returns true if this call won
// the settlement, false if the cell was already settled.
func (c *Cell[T]) Resolve(value T) bool {
	return c.settle(Outcome[T]{Value: value})
}

// Reject settles the cell with an error. A nil error is ignored and
// returns false. Returns true if this call won the settlement.
func (c *Cell[T]) Reject(err error) bool {
	if err == nil {
		return false
	}
	return c.settle(Outcome[T]{Err: err})
}

// settle is the single settlement path shared by Resolve and Reject.
// The first caller to take the lock on a pending cell wins; everyone
// else observes settled and backs off.
func (c *Cell[T]) settle(o Outcome[T]) bool {
	c.mu.Lock()
	if c.settled {
		c.mu.Unlock()
		return false
	}
	c.settled = true
	c.outcome = o
	callbacks := c.callbacks
	c.callbacks = nil
	close(c.done)
	c.mu.Unlock()

	for _, cb := range callbacks {
		go cb(o)
	}
	return true
}

// Done returns a channel that is closed when the cell settles.
func (c *Cell[T]) Done() <-chan struct{} {
	return c.done
}

// Settled reports whether the cell has settled.
func (c *Cell[T]) Settled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settled
}

// Result returns a snapshot of the outcome without blocking. The second
// return value is false while the cell is pending.
func (c *Cell[T]) Result() (Outcome[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome, c.settled
}

// Wait blocks until the cell settles or ctx closes. The returned error
// is the context's error; the outcome's own error lives in Outcome.Err.
func (c *Cell[T]) Wait(ctx context.Context) (Outcome[T], error) {
	select {
	case <-c.done:
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.outcome, nil
	case <-ctx.Done():
		var zero Outcome[T]
		return zero, ctx.Err()
	}
}

// OnSettle attaches a continuation that runs exactly once with the
// outcome, whether attached before or after settlement. Continuations
// run on their own goroutine; callers must not assume synchronous
// invocation relative to the settling call.
func (c *Cell[T]) OnSettle(fn func(Outcome[T])) {
	c.mu.Lock()
	if c.settled {
		o := c.outcome
		c.mu.Unlock()
		go fn(o)
		return
	}
	c.callbacks = append(c.callbacks, fn)
	c.mu.Unlock()
}

// OnResolve attaches a continuation that runs only on success.
func (c *Cell[T]) OnResolve(fn func(T)) {
	c.OnSettle(func(o Outcome[T]) {
		if !o.Failed() {
			fn(o.Value)
		}
	})
}

// OnReject attaches a continuation that runs only on failure.
func (c *Cell[T]) OnReject(fn func(error)) {
	c.OnSettle(func(o Outcome[T]) {
		if o.Failed() {
			fn(o.Err)
		}
	})
}

// Forward settles dst with this cell's eventual outcome. It is the
// plumbing behind parent-to-child result delegation.
func (c *Cell[T]) Forward(dst *Cell[T]) {
	c.OnSettle(func(o Outcome[T]) {
		if o.Failed() {
			dst.Reject(o.Err)
		} else {
			dst.Resolve(o.Value)
		}
	})
}

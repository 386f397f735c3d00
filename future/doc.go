// Package future provides the single-assignment result cell operations
// settle into. A cell is created pending, settles exactly once to a
// value or an error, and notifies continuations attached before or
// after settlement.
//
// # Basic Usage
//
// Create a cell, hand it to a producer, and wait on it:
//
//	cell := future.NewCell[int]()
//
//	go func() {
//	    cell.Resolve(42)
//	}()
//
//	outcome, err := cell.Wait(ctx)
//
// # Settle-Once
//
// The first of Resolve and Reject wins; all later calls are ignored and
// report false. This is the guard the operation lifecycle relies on
// when cancellation races normal completion.
//
// # Continuations
//
// OnSettle, OnResolve, and OnReject fire exactly once, on their own
// goroutine. Settlement happens-before every continuation invocation,
// but no ordering is guaranteed between continuations.
package future

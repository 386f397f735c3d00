// Package operation provides the lifecycle state machine for units of
// asynchronous work: tracked execution, cooperative cancellation,
// settle-once results, progress reporting, bounded retry, and
// parent-to-child result forwarding.
//
// # Lifecycle
//
// An operation moves strictly forward through derived states:
//
//	pending → ready → executing → (canceled | finishing → finished)
//
// The entry point Run is invoked at most once by a queue. The execute
// function settles the operation through Finish or Fail, or calls
// MarkFinished and settles later from a continuation. The first of
// Finish, Fail, and Cancel to reach the result cell wins; every later
// call is silently dropped.
//
// # Basic Usage
//
//	op := operation.New(func(op *operation.Operation[string]) error {
//	    data, err := fetch()
//	    if err != nil {
//	        return err
//	    }
//	    op.Finish(data)
//	    return nil
//	})
//
//	q.Submit(op)
//	outcome, _ := op.Cell().Wait(ctx)
//
// # Child Forwarding
//
// A parent spawns a child into the same queue, vacates its slot with
// MarkFinished, and forwards the child's result. A serialized queue
// runs the child while the parent shows Finishing, so the pattern
// cannot deadlock:
//
//	parent := operation.New(func(op *operation.Operation[int]) error {
//	    child := buildChild()
//	    q.Submit(child)
//	    op.MarkFinished()
//	    child.Cell().Forward(op.Cell())
//	    return nil
//	})
//
// # Retry
//
// NewRetryable bounds the attempt budget. Retry re-enters the execute
// function as a loop, never recursion, so large budgets do not grow the
// stack. A canceled operation stops retrying.
//
// # Adapters
//
// NewFunc, NewRetryableFunc, and NewValue build operations from plain
// functions instead of ExecuteFunc bodies, bridging the returned
// computation's future and progress into the lifecycle.
//
// # Cancellation
//
// Cancellation is cooperative. It prevents dispatch when it precedes
// Run and force-settles a pending result with the taxonomy's Canceled
// error, but it never interrupts a running execute body; long
// synchronous work should poll IsCanceled.
package operation

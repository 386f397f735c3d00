// Package queue dispatches operations onto worker goroutines. A queue
// honors declared dependencies, bounds concurrency, optionally paces
// dispatch, and can be suspended, resumed, and drained.
//
// Queues are explicit instances; callers construct them and pass them
// where needed. There is no process-wide queue.
//
// # Basic Usage
//
//	q := queue.New(queue.Config{Concurrency: 4})
//	defer q.Shutdown(ctx)
//
//	b := operation.New(produce).After(a)
//	q.Submit(a)
//	q.Submit(b)
//
// b is dispatched only after a's result settles.
//
// A queue created with Config.Suspended accumulates submissions until
// Resume, which releases the whole batch at once.
//
// # Serialized Queues
//
// With Concurrency 1 the queue runs one entry point at a time. A parent
// operation that spawns a child into the same queue must vacate its
// slot with MarkFinished and forward the child's result; because entry
// points return without blocking on children, the child gets the slot
// and the pattern cannot deadlock.
package queue

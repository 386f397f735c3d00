package operation

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vinayprograms/opkit/errors"
	"github.com/vinayprograms/opkit/future"
	"github.com/vinayprograms/opkit/progress"
)

// Handle is the non-generic view of an operation a queue holds. It
// carries everything dispatch needs: identity, the entry point,
// cancellation, readiness, and settlement observation.
type Handle interface {
	// ID returns the operation's unique identifier.
	ID() string

	// Run is the entry point. A queue invokes it at most once, on a
	// worker goroutine, after Ready reports true.
	Run()

	// Cancel requests cooperative cancellation.
	Cancel()

	// IsCanceled reports whether cancellation has been requested.
	// Execute bodies doing long synchronous work should poll it.
	IsCanceled() bool

	// Ready reports whether all declared predecessors have settled.
	Ready() bool

	// Dependencies returns the declared predecessors.
	Dependencies() []Handle

	// Status returns the derived lifecycle state.
	Status() Status

	// Done returns a channel closed when the result settles.
	Done() <-chan struct{}
}

// ExecuteFunc is the unit of work an operation runs. It must route its
// completion through the operation: call Finish or Fail directly, or
// call MarkFinished and settle later from a continuation. Returning a
// non-nil error is shorthand for Fail. Errors never escape to the
// queue; panics are recovered and converted through the taxonomy.
type ExecuteFunc[T any] func(op *Operation[T]) error

// Operation is a unit of asynchronous work with a tracked lifecycle and
// a settle-once result. The flags and timestamps form one state group
// guarded by a single mutex; they always change together.
type Operation[T any] struct {
	id       string
	taxonomy errors.Taxonomy
	execute  ExecuteFunc[T]
	cell     *future.Cell[T]
	tracker  *progress.Tracker

	// entry is what Run invokes after the lifecycle bookkeeping; the
	// retryable wrapper replaces it to route through the attempt loop.
	entry func()

	mu        sync.Mutex
	started   bool
	executing bool
	finished  bool
	canceled  bool
	startTime time.Time
	endTime   time.Time
	deps      []Handle
}

var _ Handle = (*Operation[int])(nil)

// Option configures an Operation.
type Option[T any] func(*Operation[T])

// WithID overrides the generated operation ID.
func WithID[T any](id string) Option[T] {
	return func(op *Operation[T]) {
		op.id = id
	}
}

// WithTaxonomy sets the error taxonomy the operation resolves with.
// Defaults to errors.Default.
func WithTaxonomy[T any](tax errors.Taxonomy) Option[T] {
	return func(op *Operation[T]) {
		op.taxonomy = tax
	}
}

// WithTotalUnits sets the expected progress total. Defaults to zero,
// meaning the amount of work is not known up front.
func WithTotalUnits[T any](total int64) Option[T] {
	return func(op *Operation[T]) {
		op.tracker = progress.NewTracker(total)
	}
}

// New creates an operation around an execute function.
func New[T any](execute ExecuteFunc[T], opts ...Option[T]) *Operation[T] {
	op := &Operation[T]{
		id:       uuid.NewString(),
		taxonomy: errors.Default,
		execute:  execute,
		cell:     future.NewCell[T](),
		tracker:  progress.NewTracker(0),
	}
	for _, opt := range opts {
		opt(op)
	}
	op.entry = op.invokeExecute
	return op
}

// ID returns the operation's unique identifier.
func (op *Operation[T]) ID() string {
	return op.id
}

// Taxonomy returns the error taxonomy the operation resolves with.
func (op *Operation[T]) Taxonomy() errors.Taxonomy {
	return op.taxonomy
}

// Progress returns the operation's progress tracker.
func (op *Operation[T]) Progress() *progress.Tracker {
	return op.tracker
}

// Cell returns the operation's result cell. A parent forwards a child's
// result with child.Cell().Forward(parent.Cell()).
func (op *Operation[T]) Cell() *future.Cell[T] {
	return op.cell
}

// Done returns a channel closed when the result settles.
func (op *Operation[T]) Done() <-chan struct{} {
	return op.cell.Done()
}

// After declares predecessors. The operation reports Ready only once
// every predecessor has settled. Call before submitting to a queue.
func (op *Operation[T]) After(deps ...Handle) *Operation[T] {
	op.mu.Lock()
	op.deps = append(op.deps, deps...)
	op.mu.Unlock()
	return op
}

// Dependencies returns the declared predecessors.
func (op *Operation[T]) Dependencies() []Handle {
	op.mu.Lock()
	defer op.mu.Unlock()
	deps := make([]Handle, len(op.deps))
	copy(deps, op.deps)
	return deps
}

// Ready reports whether all predecessors have settled.
func (op *Operation[T]) Ready() bool {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.readyLocked()
}

func (op *Operation[T]) readyLocked() bool {
	for _, dep := range op.deps {
		select {
		case <-dep.Done():
		default:
			return false
		}
	}
	return true
}

// Run is the entry point. If cancellation preceded dispatch, the result
// has already settled Canceled and the execute function is never
// invoked. Otherwise Run flags the operation executing, records the
// start time, and invokes execute with panic recovery. Run returns when
// execute returns; an operation awaiting a forwarded child keeps its
// result pending past that point.
func (op *Operation[T]) Run() {
	op.mu.Lock()
	if op.started || op.canceled {
		op.mu.Unlock()
		return
	}
	op.started = true
	op.executing = true
	op.startTime = time.Now()
	entry := op.entry
	op.mu.Unlock()

	entry()
}

// invokeExecute runs the execute function, converting a returned or
// panicked error into a failure resolution.
func (op *Operation[T]) invokeExecute() {
	if err := op.safeExecute(); err != nil {
		op.Fail(err)
	}
}

func (op *Operation[T]) safeExecute() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = op.taxonomy.RecoverPanic(r)
		}
	}()
	return op.execute(op)
}

// Finish resolves the operation successfully. The first of Finish,
// Fail, and Cancel to reach the result cell wins; a losing call changes
// nothing and returns false.
func (op *Operation[T]) Finish(value T) bool {
	if !op.cell.Resolve(value) {
		return false
	}
	op.settled()
	return true
}

// Fail resolves the operation with err converted through the taxonomy,
// so foreign errors surface as the taxonomy's Unknown variant. A nil
// err changes nothing and returns false. Subject to the same
// first-resolution-wins rule as Finish.
func (op *Operation[T]) Fail(err error) bool {
	if err == nil {
		return false
	}
	if !op.cell.Reject(op.taxonomy.Wrap(err)) {
		return false
	}
	op.settled()
	return true
}

// settled records the terminal bookkeeping after winning resolution.
func (op *Operation[T]) settled() {
	op.mu.Lock()
	op.executing = false
	op.finished = true
	op.endTime = time.Now()
	op.mu.Unlock()

	op.tracker.Finalize()
}

// MarkFinished flags execution as ended without settling the result.
// The operation reports Finishing until a later Finish or Fail settles
// it. A parent spawning a child calls this before forwarding the
// child's result, vacating its execution slot so a serialized queue can
// run the child.
func (op *Operation[T]) MarkFinished() {
	op.mu.Lock()
	op.executing = false
	op.finished = true
	op.mu.Unlock()
}

// Cancel requests cancellation. It is idempotent and cooperative: a
// running execute body is not interrupted, but the result settles
// Canceled immediately unless it already settled, and any later Finish
// or Fail is silently dropped. Cancelling a settled operation is a
// no-op: a cancellation that loses the race to a concurrent Finish
// leaves the success untouched and never flags the operation canceled.
func (op *Operation[T]) Cancel() {
	op.mu.Lock()
	if op.canceled {
		op.mu.Unlock()
		return
	}
	// The flags commit only when the rejection wins the cell, so a
	// losing Cancel cannot leave a canceled status over a successful
	// result.
	if !op.cell.Reject(op.taxonomy.Canceled()) {
		op.mu.Unlock()
		return
	}
	op.canceled = true
	op.executing = false
	op.finished = true
	op.endTime = time.Now()
	op.mu.Unlock()

	op.tracker.Finalize()
}

// IsCanceled reports whether cancellation has been requested.
func (op *Operation[T]) IsCanceled() bool {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.canceled
}

// Status derives the lifecycle state from the flags, the predecessors,
// and the result cell.
func (op *Operation[T]) Status() Status {
	op.mu.Lock()
	defer op.mu.Unlock()
	switch {
	case op.canceled:
		return StatusCanceled
	case op.cell.Settled():
		return StatusFinished
	case op.finished:
		return StatusFinishing
	case op.executing:
		return StatusExecuting
	case op.readyLocked():
		return StatusReady
	default:
		return StatusPending
	}
}

// Result returns a snapshot of the outcome without blocking. The second
// return value is false until the result settles.
func (op *Operation[T]) Result() (future.Outcome[T], bool) {
	return op.cell.Result()
}

// Subscribe attaches continuations for the eventual outcome. Either
// callback may be nil. Continuations fire exactly once, on their own
// goroutine, whether attached before or after settlement.
func (op *Operation[T]) Subscribe(onSuccess func(T), onFailure func(error)) {
	if onSuccess != nil {
		op.cell.OnResolve(onSuccess)
	}
	if onFailure != nil {
		op.cell.OnReject(onFailure)
	}
}

// StartTime returns when execution began. False until Run is invoked.
func (op *Operation[T]) StartTime() (time.Time, bool) {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.startTime, !op.startTime.IsZero()
}

// EndTime returns when the operation reached a terminal state. False
// until then.
func (op *Operation[T]) EndTime() (time.Time, bool) {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.endTime, !op.endTime.IsZero()
}

// Duration returns how long execution took. False until both timestamps
// exist.
func (op *Operation[T]) Duration() (time.Duration, bool) {
	op.mu.Lock()
	defer op.mu.Unlock()
	if op.startTime.IsZero() || op.endTime.IsZero() {
		return 0, false
	}
	return op.endTime.Sub(op.startTime), true
}

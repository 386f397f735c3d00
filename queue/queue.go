package queue

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/vinayprograms/opkit/operation"
)

// Common errors.
var (
	// ErrShutdown indicates the queue no longer accepts submissions.
	ErrShutdown = errors.New("queue is shut down")

	// ErrNilHandle indicates a nil operation handle was submitted.
	ErrNilHandle = errors.New("nil operation handle")
)

// Config configures a Queue.
type Config struct {
	// Concurrency is the maximum number of entry points running at
	// once. Defaults to 1, a fully serialized queue.
	Concurrency int64

	// RateLimit caps dispatches per second. Zero disables pacing.
	RateLimit float64

	// Burst is the dispatch burst allowance when RateLimit is set.
	// Defaults to 1.
	Burst int

	// Suspended creates the queue with dispatch paused. Submissions
	// accumulate until Resume is called, so a caller can enqueue a whole
	// batch before the first operation starts.
	Suspended bool

	// Logger receives queue events. Defaults to the standard logrus
	// logger.
	Logger *log.Logger
}

// DefaultConfig returns configuration for a serialized queue.
func DefaultConfig() Config {
	return Config{
		Concurrency: 1,
		Burst:       1,
	}
}

// Queue dispatches submitted operations onto worker goroutines once
// their predecessors have settled. Queues are explicit instances
// constructed by the caller; there is no package-level queue.
type Queue struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	logger  *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	pending   []operation.Handle
	suspended bool
	closed    bool
	active    int

	wg           sync.WaitGroup
	shutdownOnce sync.Once
	shutdownErr  error
}

// New creates a queue.
func New(cfg Config) *Queue {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConfig().Concurrency
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultConfig().Burst
	}
	if cfg.Logger == nil {
		cfg.Logger = log.StandardLogger()
	}

	q := &Queue{
		sem:       semaphore.NewWeighted(cfg.Concurrency),
		logger:    cfg.Logger,
		suspended: cfg.Suspended,
	}
	if cfg.RateLimit > 0 {
		q.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst)
	}
	q.ctx, q.cancel = context.WithCancel(context.Background())
	return q
}

// Submit adds an operation to the queue. It runs once all its declared
// predecessors have settled and a concurrency slot is free. Returns
// ErrShutdown after Shutdown has been called.
func (q *Queue) Submit(h operation.Handle) error {
	if h == nil {
		return ErrNilHandle
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrShutdown
	}
	q.pending = append(q.pending, h)
	q.mu.Unlock()

	q.logger.WithField("operation", h.ID()).Debug("operation submitted")

	// Settlement of this operation may unblock dependents still
	// waiting in the queue.
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		<-h.Done()
		q.dispatch()
	}()

	q.dispatch()
	return nil
}

// dispatch starts every pending operation that is ready, as long as
// slots remain and the queue is neither suspended nor shut down.
func (q *Queue) dispatch() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.suspended || q.closed {
		return
	}

	remaining := q.pending[:0]
	for _, h := range q.pending {
		if settled(h) {
			// Cancelled (or otherwise settled) before dispatch; the
			// entry point is never invoked.
			q.logger.WithFields(log.Fields{
				"operation": h.ID(),
				"status":    h.Status(),
			}).Debug("operation settled before dispatch")
			continue
		}
		if !h.Ready() || !q.sem.TryAcquire(1) {
			remaining = append(remaining, h)
			continue
		}
		q.active++
		q.wg.Add(1)
		go q.run(h)
	}
	q.pending = remaining
}

// run invokes a single operation's entry point on a worker goroutine.
func (q *Queue) run(h operation.Handle) {
	defer q.wg.Done()
	defer func() {
		q.sem.Release(1)
		q.mu.Lock()
		q.active--
		q.mu.Unlock()
		// The freed slot may let the next pending operation through.
		q.dispatch()
	}()

	if q.limiter != nil {
		if err := q.limiter.Wait(q.ctx); err != nil {
			// Shut down while pacing; the operation never ran.
			h.Cancel()
			return
		}
	}

	q.logger.WithField("operation", h.ID()).Debug("operation dispatched")
	h.Run()
	q.logger.WithFields(log.Fields{
		"operation": h.ID(),
		"status":    h.Status(),
	}).Debug("entry point returned")
}

// Suspend pauses dispatch. Running operations are unaffected.
func (q *Queue) Suspend() {
	q.mu.Lock()
	q.suspended = true
	q.mu.Unlock()
}

// Resume restarts dispatch after Suspend.
func (q *Queue) Resume() {
	q.mu.Lock()
	q.suspended = false
	q.mu.Unlock()
	q.dispatch()
}

// Len returns the number of operations waiting for dispatch.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Active returns the number of entry points currently running.
func (q *Queue) Active() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active
}

// Shutdown stops intake, cancels operations still waiting for
// dispatch, and waits for the active ones to return their entry points
// or for ctx to close. Repeated calls return the first result.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.shutdownOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		waiting := q.pending
		q.pending = nil
		q.mu.Unlock()

		for _, h := range waiting {
			h.Cancel()
		}
		q.cancel()

		q.logger.WithField("canceled", len(waiting)).Info("queue shutting down")

		done := make(chan struct{})
		go func() {
			q.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			q.shutdownErr = ctx.Err()
		}
	})
	return q.shutdownErr
}

// settled reports whether the handle's result cell has settled.
func settled(h operation.Handle) bool {
	select {
	case <-h.Done():
		return true
	default:
		return false
	}
}

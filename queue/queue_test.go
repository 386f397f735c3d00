package queue

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"go.uber.org/goleak"

	"github.com/vinayprograms/opkit/errors"
	"github.com/vinayprograms/opkit/operation"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testQueue(concurrency int64) *Queue {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return New(Config{Concurrency: concurrency, Logger: logger})
}

func shutdown(t *testing.T, q *Queue) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
}

func waitStatus(t *testing.T, h operation.Handle, want operation.Status) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.Status() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("Status never reached %s, stuck at %s", want, h.Status())
}

func TestSubmitRuns(t *testing.T) {
	q := testQueue(2)
	defer shutdown(t, q)

	op := operation.NewValue(func() (int, error) { return 7, nil })
	if err := q.Submit(op); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	outcome, err := op.Cell().Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if outcome.Value != 7 {
		t.Errorf("Expected 7, got %d", outcome.Value)
	}
}

func TestSuspendedAtConstruction(t *testing.T) {
	logger := log.New()
	logger.SetOutput(io.Discard)
	q := New(Config{Concurrency: 1, Suspended: true, Logger: logger})
	defer shutdown(t, q)

	var ran atomic.Bool
	op := operation.NewValue(func() (int, error) {
		ran.Store(true)
		return 1, nil
	})
	if err := q.Submit(op); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	time.Sleep(30 * time.Millisecond)
	if ran.Load() {
		t.Fatal("Nothing should dispatch before Resume")
	}
	if got := q.Len(); got != 1 {
		t.Errorf("Expected 1 pending operation, got %d", got)
	}

	q.Resume()
	if _, err := op.Cell().Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if !ran.Load() {
		t.Error("Operation should run after Resume")
	}
}

func TestSubmitNil(t *testing.T) {
	q := testQueue(1)
	defer shutdown(t, q)

	if err := q.Submit(nil); err != ErrNilHandle {
		t.Errorf("Expected ErrNilHandle, got %v", err)
	}
}

func TestSubmitAfterShutdown(t *testing.T) {
	q := testQueue(1)
	shutdown(t, q)

	op := operation.NewValue(func() (int, error) { return 1, nil })
	if err := q.Submit(op); err != ErrShutdown {
		t.Errorf("Expected ErrShutdown, got %v", err)
	}
	// The operation was never accepted; settle it for hygiene.
	op.Cancel()
}

func TestCanceledBeforeDispatchNeverRuns(t *testing.T) {
	q := testQueue(1)
	defer shutdown(t, q)

	var executed atomic.Bool
	victim := operation.NewValue(func() (int, error) {
		executed.Store(true)
		return 1, nil
	})

	// Hold dispatch so the victim stays queued.
	q.Suspend()
	if err := q.Submit(victim); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	victim.Cancel()
	q.Resume()

	outcome, _ := victim.Cell().Wait(context.Background())
	if !errors.IsCanceled(outcome.Err) {
		t.Errorf("Expected Canceled, got %+v", outcome)
	}
	if executed.Load() {
		t.Error("Entry point must not run for an operation canceled before dispatch")
	}
}

func TestDependencyOrdering(t *testing.T) {
	q := testQueue(1)
	defer shutdown(t, q)

	aStarted := make(chan struct{})
	aRelease := make(chan struct{})
	a := operation.New(func(op *operation.Operation[int]) error {
		close(aStarted)
		<-aRelease
		op.Finish(1)
		return nil
	})
	b := operation.NewValue(func() (int, error) { return 2, nil })
	b.After(a)

	// Enqueue the dependent first.
	if err := q.Submit(b); err != nil {
		t.Fatalf("Submit b failed: %v", err)
	}
	if err := q.Submit(a); err != nil {
		t.Fatalf("Submit a failed: %v", err)
	}

	<-aStarted
	if got := b.Status(); got != operation.StatusPending {
		t.Errorf("b should be pending while a executes, got %s", got)
	}

	close(aRelease)

	outcome, _ := b.Cell().Wait(context.Background())
	if outcome.Value != 2 {
		t.Errorf("Expected 2, got %d", outcome.Value)
	}
	if got := b.Status(); got != operation.StatusFinished {
		t.Errorf("b should be finished, got %s", got)
	}
}

func TestChildForwardingNoDeadlock(t *testing.T) {
	q := testQueue(1)
	defer shutdown(t, q)

	childStarted := make(chan struct{})
	childRelease := make(chan struct{})
	child := operation.New(func(op *operation.Operation[int]) error {
		close(childStarted)
		<-childRelease
		op.Finish(99)
		return nil
	})

	parent := operation.New(func(op *operation.Operation[int]) error {
		if err := q.Submit(child); err != nil {
			return err
		}
		op.MarkFinished()
		child.Cell().Forward(op.Cell())
		return nil
	})

	if err := q.Submit(parent); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	// The parent vacates the single slot; the child must get it while
	// the parent is still unresolved.
	<-childStarted
	waitStatus(t, parent, operation.StatusFinishing)
	if settled(parent) {
		t.Fatal("Parent must not settle before the child")
	}

	close(childRelease)

	outcome, _ := parent.Cell().Wait(context.Background())
	if outcome.Value != 99 {
		t.Errorf("Parent should resolve with the child's value, got %+v", outcome)
	}
}

func TestConcurrencyBound(t *testing.T) {
	q := testQueue(2)
	defer shutdown(t, q)

	var running atomic.Int32
	var peak atomic.Int32
	release := make(chan struct{})

	var ops []*operation.Operation[int]
	for i := 0; i < 6; i++ {
		op := operation.New(func(op *operation.Operation[int]) error {
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			<-release
			running.Add(-1)
			op.Finish(1)
			return nil
		})
		ops = append(ops, op)
		if err := q.Submit(op); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	// Let the first two start.
	deadline := time.Now().Add(2 * time.Second)
	for running.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	close(release)

	for _, op := range ops {
		if _, err := op.Cell().Wait(context.Background()); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}

	if got := peak.Load(); got > 2 {
		t.Errorf("Concurrency bound exceeded: %d simultaneous entry points", got)
	}
}

func TestSuspendResume(t *testing.T) {
	q := testQueue(1)
	defer shutdown(t, q)

	q.Suspend()

	op := operation.NewValue(func() (int, error) { return 1, nil })
	if err := q.Submit(op); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	if got := op.Status(); got != operation.StatusReady {
		t.Errorf("Operation should stay queued while suspended, got %s", got)
	}
	if q.Len() != 1 {
		t.Errorf("Expected 1 pending operation, got %d", q.Len())
	}

	q.Resume()

	if _, err := op.Cell().Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
}

func TestShutdownCancelsPending(t *testing.T) {
	q := testQueue(1)

	q.Suspend()
	op := operation.NewValue(func() (int, error) { return 1, nil })
	if err := q.Submit(op); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	shutdown(t, q)

	outcome, ok := op.Result()
	if !ok {
		t.Fatal("Pending operation should be settled by shutdown")
	}
	if !errors.IsCanceled(outcome.Err) {
		t.Errorf("Expected Canceled, got %+v", outcome)
	}
}

func TestRateLimitPacesDispatch(t *testing.T) {
	logger := log.New()
	logger.SetOutput(io.Discard)
	q := New(Config{Concurrency: 4, RateLimit: 50, Burst: 1, Logger: logger})
	defer shutdown(t, q)

	start := time.Now()
	var ops []*operation.Operation[int]
	for i := 0; i < 3; i++ {
		op := operation.NewValue(func() (int, error) { return 1, nil })
		ops = append(ops, op)
		if err := q.Submit(op); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}
	for _, op := range ops {
		if _, err := op.Cell().Wait(context.Background()); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}

	// Three dispatches at 50/s with burst 1 need at least ~40ms.
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("Dispatch was not paced, took %v", elapsed)
	}
}

func TestRetryableThroughQueue(t *testing.T) {
	q := testQueue(1)
	defer shutdown(t, q)

	var attempts atomic.Int32
	r := operation.NewRetryable(3, func(op *operation.Retryable[string]) error {
		if attempts.Add(1) < 3 {
			op.Retry(nil)
			return nil
		}
		op.Finish("third time lucky")
		return nil
	})

	if err := q.Submit(r); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	outcome, err := r.Cell().Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if outcome.Value != "third time lucky" {
		t.Errorf("Unexpected outcome: %+v", outcome)
	}
}

package progress

import (
	"sync"
)

// Snapshot is an immutable view of a tracker at one instant.
type Snapshot struct {
	// Total is the number of work units the tracked job consists of.
	Total int64

	// Completed is the number of work units finished so far.
	Completed int64

	// Fraction is Completed/Total clamped to [0,1]. It is 1.0 once the
	// tracker is finalized, regardless of the counters, and 0.0 while
	// the total is unknown.
	Fraction float64
}

// Tracker is a mutable total/completed unit counter. Producers mutate
// it from worker goroutines while observers read snapshots or register
// change callbacks; all accesses are synchronized internally.
type Tracker struct {
	mu        sync.Mutex
	total     int64
	completed int64
	finalized bool

	nextObserver int
	observers    map[int]func(Snapshot)

	unmirror func()
}

// NewTracker creates a tracker expecting total work units. A total of
// zero means the amount of work is not yet known.
func NewTracker(total int64) *Tracker {
	return &Tracker{total: total}
}

// SetTotal replaces the expected number of work units.
func (t *Tracker) SetTotal(total int64) {
	t.update(func() {
		t.total = total
	})
}

// SetCompleted replaces the completed counter.
func (t *Tracker) SetCompleted(completed int64) {
	t.update(func() {
		t.completed = completed
	})
}

// Add increments the completed counter by n.
func (t *Tracker) Add(n int64) {
	t.update(func() {
		t.completed += n
	})
}

// Finalize forces completed to total and freezes the tracker. Later
// mutations are ignored, so a stale producer update arriving after the
// tracked work settled cannot move the counters backwards.
func (t *Tracker) Finalize() {
	t.mu.Lock()
	if t.finalized {
		t.mu.Unlock()
		return
	}
	t.finalized = true
	t.completed = t.total
	unmirror := t.unmirror
	t.unmirror = nil
	observers := t.observerList()
	snap := t.snapshotLocked()
	t.mu.Unlock()

	if unmirror != nil {
		unmirror()
	}
	for _, fn := range observers {
		fn(snap)
	}
}

// Finalized reports whether the tracker has been finalized.
func (t *Tracker) Finalized() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.finalized
}

// Snapshot returns the current counters.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Observe registers fn to run with a snapshot after every change. The
// returned cancel function removes the observer. Observers run on the
// mutating goroutine and must not block.
func (t *Tracker) Observe(fn func(Snapshot)) (cancel func()) {
	t.mu.Lock()
	if t.observers == nil {
		t.observers = make(map[int]func(Snapshot))
	}
	id := t.nextObserver
	t.nextObserver++
	t.observers[id] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.observers, id)
		t.mu.Unlock()
	}
}

// Mirror continuously copies child's counters into t until t is
// finalized or Unmirror is called. Mirroring replaces any previous
// mirror. The child's current counters are copied immediately.
func (t *Tracker) Mirror(child *Tracker) {
	t.Unmirror()

	cancel := child.Observe(func(s Snapshot) {
		t.update(func() {
			t.total = s.Total
			t.completed = s.Completed
		})
	})

	t.mu.Lock()
	if t.finalized {
		t.mu.Unlock()
		cancel()
		return
	}
	t.unmirror = cancel
	t.mu.Unlock()

	s := child.Snapshot()
	t.update(func() {
		t.total = s.Total
		t.completed = s.Completed
	})
}

// Unmirror detaches the tracker from a mirrored child, if any.
func (t *Tracker) Unmirror() {
	t.mu.Lock()
	cancel := t.unmirror
	t.unmirror = nil
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// update applies a mutation and notifies observers, unless the tracker
// is already finalized.
func (t *Tracker) update(mutate func()) {
	t.mu.Lock()
	if t.finalized {
		t.mu.Unlock()
		return
	}
	mutate()
	observers := t.observerList()
	snap := t.snapshotLocked()
	t.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}

func (t *Tracker) observerList() []func(Snapshot) {
	list := make([]func(Snapshot), 0, len(t.observers))
	for _, fn := range t.observers {
		list = append(list, fn)
	}
	return list
}

func (t *Tracker) snapshotLocked() Snapshot {
	s := Snapshot{
		Total:     t.total,
		Completed: t.completed,
	}
	switch {
	case t.finalized:
		s.Fraction = 1.0
	case t.total <= 0:
		s.Fraction = 0.0
	default:
		s.Fraction = float64(t.completed) / float64(t.total)
		if s.Fraction > 1.0 {
			s.Fraction = 1.0
		}
	}
	return s
}

// Package progress provides the total/completed unit counter operations
// report through.
//
// A Tracker is mutated by the producing side (SetTotal, SetCompleted,
// Add) and read by any number of observers, either as point-in-time
// snapshots or as change callbacks. Finalize freezes the tracker with
// completed forced to total, so observers always see a finished job at
// fraction 1.0 even when the last producer update undercounted.
//
// # Mirroring
//
// Mirror links a parent tracker to a child's counters, which is how the
// func adapters surface a wrapped computation's progress as their own:
//
//	op := progress.NewTracker(0)
//	op.Mirror(job.Progress())
//	// ... job runs, op tracks it ...
//	op.Finalize()
package progress

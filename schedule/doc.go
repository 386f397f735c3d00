// Package schedule submits operations to a queue on cron schedules.
//
// The scheduler and the queue split responsibilities: cron decides
// when, the queue decides how. On every tick the registered builder
// produces a fresh operation, because operations are single-use.
//
//	sched, _ := schedule.New(schedule.Config{Queue: q})
//	sched.Add("@every 5m", func() operation.Handle {
//	    return operation.NewValue(pollUpstream)
//	})
//	sched.Start()
//	defer func() { <-sched.Stop().Done() }()
package schedule

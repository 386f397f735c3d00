package schedule

import (
	"context"
	"errors"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/vinayprograms/opkit/operation"
	"github.com/vinayprograms/opkit/queue"
)

// Common errors.
var (
	// ErrNilQueue indicates the scheduler was created without a queue.
	ErrNilQueue = errors.New("nil target queue")

	// ErrNilBuilder indicates an entry was added without a builder.
	ErrNilBuilder = errors.New("nil operation builder")
)

// Builder constructs a fresh operation for a scheduled run. It is
// invoked once per tick; operations are single-use, so a recurring job
// needs a new one every time.
type Builder func() operation.Handle

// EntryID identifies a scheduled entry.
type EntryID = cron.EntryID

// Config configures a Scheduler.
type Config struct {
	// Queue receives the operations built on each tick. Required.
	Queue *queue.Queue

	// Seconds enables the optional seconds field in cron expressions.
	Seconds bool

	// Logger receives scheduler events. Defaults to the standard
	// logrus logger.
	Logger *log.Logger
}

// Scheduler submits freshly built operations to a queue on a cron
// schedule. The scheduler only decides when to submit; running,
// retrying, and cancelling stay with the queue and the operations.
type Scheduler struct {
	cron   *cron.Cron
	queue  *queue.Queue
	logger *log.Logger
}

// New creates a scheduler.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Queue == nil {
		return nil, ErrNilQueue
	}
	if cfg.Logger == nil {
		cfg.Logger = log.StandardLogger()
	}

	var opts []cron.Option
	if cfg.Seconds {
		opts = append(opts, cron.WithSeconds())
	}

	return &Scheduler{
		cron:   cron.New(opts...),
		queue:  cfg.Queue,
		logger: cfg.Logger,
	}, nil
}

// Add registers a cron entry. Invalid expressions are rejected here,
// before the scheduler starts.
func (s *Scheduler) Add(spec string, build Builder) (EntryID, error) {
	if build == nil {
		return 0, ErrNilBuilder
	}

	return s.cron.AddFunc(spec, func() {
		h := build()
		if h == nil {
			return
		}
		if err := s.queue.Submit(h); err != nil {
			s.logger.WithFields(log.Fields{
				"operation": h.ID(),
				"spec":      spec,
			}).WithError(err).Warn("scheduled submission rejected")
			return
		}
		s.logger.WithFields(log.Fields{
			"operation": h.ID(),
			"spec":      spec,
		}).Debug("scheduled operation submitted")
	})
}

// Remove deletes a scheduled entry. Operations already submitted are
// unaffected.
func (s *Scheduler) Remove(id EntryID) {
	s.cron.Remove(id)
}

// Start begins firing entries on their schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops firing. The returned context closes once in-flight tick
// callbacks have returned.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

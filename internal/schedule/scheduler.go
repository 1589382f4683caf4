package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Job is the work run on every tick. ctx is cancelled when the scheduler
// stops.
type Job func(ctx context.Context)

// parser accepts five-field expressions and descriptors.
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate reports whether spec is a valid schedule expression.
func Validate(spec string) error {
	if _, err := parser.Parse(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Scheduler triggers a [Job] on a cron schedule.
//
// Start and Stop are safe for concurrent use and idempotent.
type Scheduler struct {
	spec   string
	job    Job
	cron   *cron.Cron
	logger *slog.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	ctx     context.Context
	cancel  context.CancelFunc
	entry   cron.EntryID
}

// New creates a scheduler for spec. It returns an error for an invalid
// expression.
func New(spec string, job Job, logger *slog.Logger) (*Scheduler, error) {
	if err := Validate(spec); err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("schedule: job cannot be nil")
	}

	c := cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	return &Scheduler{
		spec:   spec,
		job:    job,
		cron:   c,
		logger: logger,
	}, nil
}

// Start registers the job and begins ticking. If ctx is nil,
// context.Background() is used. Start after Stop is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.stopped {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	jobCtx := s.ctx

	entry, err := s.cron.AddFunc(s.spec, func() {
		s.runJob(jobCtx)
	})
	if err != nil {
		s.cancel()
		return fmt.Errorf("schedule: %w", err)
	}
	s.entry = entry
	s.started = true
	s.cron.Start()

	s.logger.Info("schedule started", "schedule", s.spec, "next_run", s.cron.Entry(entry).Next)
	return nil
}

// Next returns the next scheduled run, or the zero time when the scheduler
// is not running.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.stopped {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

// Stop cancels the running job, if any, and waits for it to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	if s.cancel != nil {
		s.cancel()
	}
	started := s.started
	s.mu.Unlock()

	if started {
		<-s.cron.Stop().Done()
		s.logger.Info("schedule stopped", "schedule", s.spec)
	}
}

// runJob calls the job with panic recovery. A panic is logged with a
// correlation ID and the schedule keeps running.
func (s *Scheduler) runJob(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			s.logger.Error("scheduled job panicked",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()

	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	s.logger.Info("scheduled run starting", "schedule", s.spec)
	s.job(ctx)
	s.logger.Info("scheduled run finished", "schedule", s.spec, "duration_ms", time.Since(start).Milliseconds())
}

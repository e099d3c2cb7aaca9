// Package recur is a supplemental producer, not part of the queue core:
// it fires Submit for job definitions carrying a cron expression, the
// idiomatic-Go equivalent of a Bareos "Schedule { Run = ... }" resource.
// The core never decides wall-clock due-ness itself (the Scheduled-Start
// Waiter only naps until a jcr's own sched_time, already set by the
// submitter) — recur is exactly the kind of external timer the core
// expects to be driven by, reimplemented as an ambient convenience
// instead of folded into the core's hot path.
package recur

import (
	"context"
	"log/slog"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/bareos-community/dirjobq/id"
)

// SubmitFunc is the callback recur uses to submit a job when a cron
// entry becomes due. recur does not import director; the caller that
// constructs the Scheduler supplies the implementation.
type SubmitFunc func(ctx context.Context, name string, jobDefID id.JobDefID) (id.JobID, error)

// Entry is one recurring submission: a named cron schedule paired with
// the job definition to submit when it fires.
type Entry struct {
	Name      string
	Schedule  string
	JobDefID  id.JobDefID
	Enabled   bool
	NextRunAt time.Time
}

// cronParser supports standard 5-field cron and descriptors like "@every 30s".
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

// ParseSchedule parses a cron expression.
func ParseSchedule(expr string) (cronlib.Schedule, error) {
	return cronParser.Parse(expr)
}

// Scheduler ticks once a second, submitting every due entry. Single
// process, no leader election: the director this drives is itself
// single-process, so there is no double-fire hazard to guard against.
type Scheduler struct {
	submit SubmitFunc
	logger *slog.Logger

	tickInterval time.Duration

	mu       sync.Mutex
	entries  map[string]*Entry
	schedule map[string]cronlib.Schedule

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithTickInterval sets how often the scheduler checks for due entries.
func WithTickInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.tickInterval = d }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// NewScheduler creates a Scheduler.
func NewScheduler(submit SubmitFunc, opts ...Option) *Scheduler {
	s := &Scheduler{
		submit:       submit,
		logger:       slog.Default(),
		tickInterval: time.Second,
		entries:      make(map[string]*Entry),
		schedule:     make(map[string]cronlib.Schedule),
		stopCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds or replaces a recurring entry. Returns an error if the
// cron expression does not parse.
func (s *Scheduler) Register(name, expr string, jobDefID id.JobDefID) error {
	sched, err := ParseSchedule(expr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[name] = &Entry{
		Name:      name,
		Schedule:  expr,
		JobDefID:  jobDefID,
		Enabled:   true,
		NextRunAt: sched.Next(time.Now().UTC()),
	}
	s.schedule[name] = sched
	return nil
}

// Unregister removes a recurring entry by name.
func (s *Scheduler) Unregister(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, name)
	delete(s.schedule, name)
}

// Start launches the tick loop.
func (s *Scheduler) Start(_ context.Context) {
	s.wg.Add(1)
	go s.tickLoop()
	s.logger.Info("recur scheduler started", slog.Duration("tick_interval", s.tickInterval))
}

// Stop signals the tick loop to stop and waits for it to finish.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("recur scheduler stopped")
}

func (s *Scheduler) tickLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	now := time.Now().UTC()

	s.mu.Lock()
	var due []*Entry
	for _, e := range s.entries {
		if e.Enabled && !e.NextRunAt.After(now) {
			due = append(due, e)
		}
	}
	s.mu.Unlock()

	for _, e := range due {
		s.fireEntry(e, now)
	}
}

func (s *Scheduler) fireEntry(e *Entry, now time.Time) {
	ctx := context.Background()

	jobID, err := s.submit(ctx, e.Name, e.JobDefID)
	if err != nil {
		s.logger.Error("recur submit error",
			slog.String("entry", e.Name),
			slog.String("error", err.Error()),
		)
	} else {
		s.logger.Info("recur fired",
			slog.String("entry", e.Name),
			slog.String("job_id", jobID.String()),
		)
	}

	s.mu.Lock()
	if sched, ok := s.schedule[e.Name]; ok {
		if live, ok := s.entries[e.Name]; ok {
			live.NextRunAt = sched.Next(now)
		}
	}
	s.mu.Unlock()
}

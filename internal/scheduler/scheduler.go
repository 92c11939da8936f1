// Package scheduler drives periodic evaluation cycles.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"nifty-agent/internal/logging"
)

// Job runs one evaluation cycle. cycleID is unique per run.
type Job func(ctx context.Context, cycleID string) error

// Scheduler runs a Job on an interval or a cron schedule. A tick that
// arrives while the previous run is still going is skipped.
type Scheduler struct {
	cron   *cron.Cron
	job    Job
	logger zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	runs int
}

// New creates a scheduler for job.
func New(job Job, logger zerolog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(cron.NewParser(cron.SecondOptional|cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)),
			cron.WithLocation(time.Local),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		job:    job,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Every schedules the job at a fixed interval. cron rounds intervals below
// one second up to one second.
func (s *Scheduler) Every(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid refresh interval %v", interval)
	}
	s.cron.Schedule(cron.Every(interval), cron.FuncJob(s.tick))
	return nil
}

// Schedule registers the job on a cron expression (five fields, or six
// with leading seconds, or a descriptor such as "@every 5s").
func (s *Scheduler) Schedule(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return fmt.Errorf("register refresh schedule %q: %w", spec, err)
	}
	return nil
}

// RunNow runs the job synchronously outside the schedule.
func (s *Scheduler) RunNow(ctx context.Context) error {
	return s.run(ctx)
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Debug().Int("entries", len(s.cron.Entries())).Msg("Scheduler started")
}

// Stop stops scheduling, cancels the context handed to a running job and
// waits for it to return.
func (s *Scheduler) Stop() {
	done := s.cron.Stop()
	s.cancel()
	<-done.Done()
	s.logger.Debug().Msg("Scheduler stopped")
}

// Runs returns how many cycles have completed.
func (s *Scheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

func (s *Scheduler) tick() {
	if err := s.run(s.ctx); err != nil {
		s.logger.Error().Err(err).Msg("Evaluation cycle failed")
	}
}

func (s *Scheduler) run(ctx context.Context) error {
	cycleID := uuid.New().String()
	logger := logging.WithCycle(s.logger, cycleID)
	ctx = logging.WithLogger(logging.ContextWithCycle(ctx, cycleID), logger)

	start := time.Now()
	err := s.job(ctx, cycleID)

	s.mu.Lock()
	s.runs++
	s.mu.Unlock()

	logger.Debug().Dur("duration", time.Since(start)).Err(err).Msg("Cycle finished")
	return err
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}

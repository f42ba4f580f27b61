// -------------------------------------------------------------------------
// Scheduler service - runs the publishing pipeline on a cron schedule with
// overlap protection.
// -------------------------------------------------------------------------

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/nuntio/internal/common"
	"github.com/ternarybob/nuntio/internal/interfaces"
)

// RunFunc executes one pipeline pass. The scheduler does not interpret the
// result beyond recording the error for status reporting.
type RunFunc func(ctx context.Context) error

// Service implements interfaces.SchedulerService on top of robfig/cron.
type Service struct {
	config common.PipelineConfig
	run    RunFunc
	cron   *cron.Cron
	logger arbor.ILogger

	mu        sync.Mutex
	entryID   cron.EntryID
	started   bool
	isRunning bool
	lastRun   *time.Time
	lastError string

	ctx    context.Context
	cancel context.CancelFunc
}

// NewService creates a scheduler for the given pipeline run function.
func NewService(config common.PipelineConfig, run RunFunc, logger arbor.ILogger) interfaces.SchedulerService {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &Service{
		config: config,
		run:    run,
		cron:   cron.New(cron.WithParser(parser)),
		logger: logger,
	}
}

// Start begins scheduled execution. A disabled pipeline makes Start a
// no-op so the service can always be constructed and started.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already running")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	if !s.config.Enabled {
		s.started = true
		s.logger.Info().Msg("Scheduler started with pipeline disabled; runs are manual only")
		return nil
	}

	id, err := s.cron.AddFunc(s.config.Schedule, s.executeScheduled)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	s.entryID = id

	s.cron.Start()
	s.started = true

	s.logger.Info().
		Str("schedule", s.config.Schedule).
		Msg("Scheduler started")

	return nil
}

// Stop halts the scheduler and cancels any run in flight. The cron stop
// waits for the job goroutine to observe cancellation.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	<-s.cron.Stop().Done()

	s.logger.Info().Msg("Scheduler stopped")
}

// TriggerNow runs the pipeline immediately unless a run is in flight. The
// run executes on its own goroutine; errors surface through Status.
func (s *Service) TriggerNow() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return fmt.Errorf("scheduler not started")
	}
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("pipeline run already in progress")
	}
	s.isRunning = true
	ctx := s.ctx
	s.mu.Unlock()

	go s.execute(ctx)
	return nil
}

// Status reports the scheduler state.
func (s *Service) Status() interfaces.ScheduleStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := interfaces.ScheduleStatus{
		Enabled:   s.config.Enabled,
		Schedule:  s.config.Schedule,
		LastRun:   s.lastRun,
		IsRunning: s.isRunning,
		LastError: s.lastError,
	}
	if s.started && s.config.Enabled {
		next := s.cron.Entry(s.entryID).Next
		if !next.IsZero() {
			status.NextRun = &next
		}
	}
	return status
}

// executeScheduled is the cron entry point. A tick that fires while the
// previous run is still publishing is skipped, not queued.
func (s *Service) executeScheduled() {
	s.mu.Lock()
	if !s.started || s.isRunning {
		busy := s.isRunning
		s.mu.Unlock()
		if busy {
			s.logger.Warn().Msg("Skipping scheduled run: previous run still in progress")
		}
		return
	}
	s.isRunning = true
	ctx := s.ctx
	s.mu.Unlock()

	s.execute(ctx)
}

// execute runs one pipeline pass and records the outcome. Callers must
// have set isRunning under the lock.
func (s *Service) execute(ctx context.Context) {
	started := time.Now()
	err := s.run(ctx)

	s.mu.Lock()
	s.lastRun = &started
	s.isRunning = false
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().Err(err).Msg("Pipeline run failed")
		return
	}
	s.logger.Info().
		Str("duration", time.Since(started).String()).
		Msg("Pipeline run completed")
}

package interfaces

import "time"

// ScheduleStatus describes the scheduler's current state.
type ScheduleStatus struct {
	Enabled   bool       `json:"enabled"`
	Schedule  string     `json:"schedule"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	IsRunning bool       `json:"is_running"`
	LastError string     `json:"last_error,omitempty"`
}

// SchedulerService runs the publishing pipeline on a cron schedule.
type SchedulerService interface {
	// Start begins scheduled execution. Returns an error for an invalid
	// cron expression.
	Start() error

	// Stop halts the scheduler. A job already in flight finishes.
	Stop()

	// TriggerNow runs the pipeline immediately unless a run is in flight.
	TriggerNow() error

	// Status reports the scheduler state.
	Status() ScheduleStatus
}

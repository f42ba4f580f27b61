package browser

import (
	"errors"
	"fmt"
)

// Failure kinds produced by the automation layer. Every error crossing a
// flow boundary carries one of these so diagnostics stay actionable.
const (
	KindSessionSetup         = "SessionSetupError"
	KindNavigationTimeout    = "NavigationTimeout"
	KindWaitTimeout          = "WaitTimeout"
	KindFieldNotFound        = "FieldNotFound"
	KindCodeUnavailable      = "CodeUnavailable"
	KindInvalidCredentials   = "InvalidCredentials"
	KindLoginFailed          = "LoginFailed"
	KindTitleFieldTimeout    = "TitleFieldTimeout"
	KindBodyFieldTimeout     = "BodyFieldTimeout"
	KindPublishButtonTimeout = "PublishButtonTimeout"
	KindPostButtonTimeout    = "PostButtonTimeout"
	KindPublishFailed        = "PublishFailed"
)

// StepError is a typed automation failure. It identifies the failure kind
// and the step that produced it, and optionally carries the diagnostic
// snapshot captured at the moment of failure.
type StepError struct {
	Kind      string
	Step      string
	Retryable bool
	Snapshot  *Snapshot
	Err       error
}

func (e *StepError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s at %s: %v", e.Kind, e.Step, e.Err)
	}
	return fmt.Sprintf("%s at %s", e.Kind, e.Step)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// NewStepError creates a retryable step error. Transient conditions
// (timeouts, elements not yet rendered) default to retryable; callers mark
// fatal conditions explicitly with Fatal.
func NewStepError(kind, step string, err error) *StepError {
	return &StepError{Kind: kind, Step: step, Retryable: true, Err: err}
}

// Fatal marks the error non-retryable and returns it.
func (e *StepError) Fatal() *StepError {
	e.Retryable = false
	return e
}

// WithSnapshot attaches a diagnostic snapshot and returns the error.
func (e *StepError) WithSnapshot(snap *Snapshot) *StepError {
	e.Snapshot = snap
	return e
}

// KindOf returns the failure kind carried by err, or "" when err is not a
// StepError.
func KindOf(err error) string {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Kind
	}
	return ""
}

// SnapshotOf returns the snapshot attached to err, if any.
func SnapshotOf(err error) *Snapshot {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Snapshot
	}
	return nil
}

// IsRetryable reports whether err represents a transient condition worth
// another login attempt. Unknown errors are treated as transient; explicit
// credential rejections are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Retryable
	}
	return true
}

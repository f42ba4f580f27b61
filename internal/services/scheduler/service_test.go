package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/nuntio/internal/common"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("condition not met within 2s")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestTriggerNow_RunsPipeline(t *testing.T) {
	var runs atomic.Int32
	svc := NewService(common.PipelineConfig{}, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}, arbor.NewLogger())

	require.NoError(t, svc.Start())
	defer svc.Stop()

	require.NoError(t, svc.TriggerNow())
	waitFor(t, func() bool { return runs.Load() == 1 })
	waitFor(t, func() bool { return !svc.Status().IsRunning })

	status := svc.Status()
	assert.NotNil(t, status.LastRun)
	assert.Empty(t, status.LastError)
}

func TestTriggerNow_RejectsOverlap(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	svc := NewService(common.PipelineConfig{}, func(ctx context.Context) error {
		close(entered)
		<-release
		return nil
	}, arbor.NewLogger())

	require.NoError(t, svc.Start())
	defer svc.Stop()

	require.NoError(t, svc.TriggerNow())
	<-entered

	err := svc.TriggerNow()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "in progress")

	close(release)
	waitFor(t, func() bool { return !svc.Status().IsRunning })
}

func TestTriggerNow_BeforeStartFails(t *testing.T) {
	svc := NewService(common.PipelineConfig{}, func(ctx context.Context) error { return nil }, arbor.NewLogger())
	require.Error(t, svc.TriggerNow())
}

func TestStatus_RecordsLastError(t *testing.T) {
	svc := NewService(common.PipelineConfig{}, func(ctx context.Context) error {
		return errors.New("blog publish failed: LoginFailed")
	}, arbor.NewLogger())

	require.NoError(t, svc.Start())
	defer svc.Stop()

	require.NoError(t, svc.TriggerNow())
	waitFor(t, func() bool { return svc.Status().LastError != "" })
	assert.Contains(t, svc.Status().LastError, "LoginFailed")
}

func TestStatus_ScheduleReported(t *testing.T) {
	cfg := common.PipelineConfig{Enabled: true, Schedule: "0 0 */6 * * *"}
	svc := NewService(cfg, func(ctx context.Context) error { return nil }, arbor.NewLogger())

	require.NoError(t, svc.Start())
	defer svc.Stop()

	status := svc.Status()
	assert.True(t, status.Enabled)
	assert.Equal(t, "0 0 */6 * * *", status.Schedule)
	require.NotNil(t, status.NextRun)
	assert.True(t, status.NextRun.After(time.Now()))
}

func TestStart_InvalidSchedule(t *testing.T) {
	cfg := common.PipelineConfig{Enabled: true, Schedule: "not a schedule"}
	svc := NewService(cfg, func(ctx context.Context) error { return nil }, arbor.NewLogger())
	require.Error(t, svc.Start())
}

func TestStop_CancelsRunContext(t *testing.T) {
	cancelled := make(chan struct{})
	entered := make(chan struct{})
	svc := NewService(common.PipelineConfig{}, func(ctx context.Context) error {
		close(entered)
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	}, arbor.NewLogger())

	require.NoError(t, svc.Start())
	require.NoError(t, svc.TriggerNow())
	<-entered

	svc.Stop()

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("run context was not cancelled by Stop")
	}
}

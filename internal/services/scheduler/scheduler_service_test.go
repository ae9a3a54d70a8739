package scheduler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestRegisterJob_RejectsInvalidSchedule(t *testing.T) {
	s := NewService(arbor.NewNoOpLogger())
	err := s.RegisterJob("fetch_content", "not a cron", func() error { return nil })
	assert.Error(t, err)
	assert.Empty(t, s.JobNames())
}

func TestRegisterJob_RejectsDuplicate(t *testing.T) {
	s := NewService(arbor.NewNoOpLogger())
	require.NoError(t, s.RegisterJob("fetch_content", "0 6 * * *", func() error { return nil }))
	assert.Error(t, s.RegisterJob("fetch_content", "0 7 * * *", func() error { return nil }))
}

func TestTriggerJob_TracksStatus(t *testing.T) {
	s := NewService(arbor.NewNoOpLogger())

	calls := 0
	require.NoError(t, s.RegisterJob("filter_content", "0 6 * * *", func() error {
		calls++
		if calls == 1 {
			return errors.New("job failed")
		}
		return nil
	}))

	require.NoError(t, s.TriggerJob("filter_content"))
	status, err := s.GetJobStatus("filter_content")
	require.NoError(t, err)
	assert.Equal(t, "job failed", status.LastError)
	assert.NotNil(t, status.LastRun)
	assert.False(t, status.IsRunning)
	assert.Nil(t, status.NextRun)

	require.NoError(t, s.TriggerJob("filter_content"))
	status, err = s.GetJobStatus("filter_content")
	require.NoError(t, err)
	assert.Empty(t, status.LastError)
	assert.Equal(t, 2, calls)
}

func TestTriggerJob_RecoversPanic(t *testing.T) {
	s := NewService(arbor.NewNoOpLogger())
	require.NoError(t, s.RegisterJob("fetch_content", "0 6 * * *", func() error { panic("boom") }))

	require.NoError(t, s.TriggerJob("fetch_content"))
	status, err := s.GetJobStatus("fetch_content")
	require.NoError(t, err)
	assert.Equal(t, "panic: boom", status.LastError)
}

func TestTriggerJob_Unknown(t *testing.T) {
	s := NewService(arbor.NewNoOpLogger())
	assert.Error(t, s.TriggerJob("missing"))
}

func TestStartStop(t *testing.T) {
	s := NewService(arbor.NewNoOpLogger())
	require.NoError(t, s.RegisterJob("fetch_content", "0 6 * * *", func() error { return nil }))

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start())

	status, err := s.GetJobStatus("fetch_content")
	require.NoError(t, err)
	assert.NotNil(t, status.NextRun)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	require.NoError(t, s.Stop())
}

package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"campus-eats-api/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (f *fakeSweeper) Sweep(_ context.Context, now time.Time) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, now)
	if f.err != nil {
		return 0, 0, f.err
	}
	return 2, 1, nil
}

func (f *fakeSweeper) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestNewSchedulesSweep(t *testing.T) {
	s, err := New("@every 1h", &fakeSweeper{}, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, 1, s.Jobs())

	disabled, err := New("", &fakeSweeper{}, logger.Discard())
	require.NoError(t, err)
	assert.Zero(t, disabled.Jobs())

	_, err = New("every so often", &fakeSweeper{}, logger.Discard())
	assert.Error(t, err)
}

func TestSweepOnce(t *testing.T) {
	sweeper := &fakeSweeper{}
	s, err := New("", sweeper, logger.Discard())
	require.NoError(t, err)
	fixed := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	renewed, expired, err := s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, renewed)
	assert.Equal(t, 1, expired)
	require.Equal(t, 1, sweeper.count())
	assert.Equal(t, fixed, sweeper.calls[0])

	sweeper.err = errors.New("db down")
	_, _, err = s.SweepOnce(context.Background())
	assert.ErrorIs(t, err, sweeper.err)
}

func TestSchedulerRuns(t *testing.T) {
	sweeper := &fakeSweeper{}
	s, err := New("@every 1s", sweeper, logger.Discard())
	require.NoError(t, err)

	s.Start()
	assert.Eventually(t, func() bool { return sweeper.count() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

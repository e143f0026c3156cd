package tasks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	calls int
	err   error
	boom  bool
}

func (s *fakeSweeper) Sweep(context.Context) (int, error) {
	s.calls++
	if s.boom {
		panic("reminder sweep blew up")
	}
	return 0, s.err
}

type fakeExpirer struct {
	calls int
	err   error
	boom  bool
}

func (e *fakeExpirer) ExpireOverdue(context.Context) (int64, error) {
	e.calls++
	if e.boom {
		panic("duel sweep blew up")
	}
	return 0, e.err
}

func newTestTaskDeps(sweeper *fakeSweeper, expirer *fakeExpirer) TaskDeps {
	return TaskDeps{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Reminders: sweeper,
		Duels:     expirer,
	}
}

func TestSweepTaskRunsBothSweeps(t *testing.T) {
	sweeper := &fakeSweeper{}
	expirer := &fakeExpirer{}
	task := newSweepTask(newTestTaskDeps(sweeper, expirer))

	require.NoError(t, task(context.Background()))
	assert.Equal(t, 1, sweeper.calls)
	assert.Equal(t, 1, expirer.calls)
}

func TestSweepTaskSurvivesReminderPanic(t *testing.T) {
	sweeper := &fakeSweeper{boom: true}
	expirer := &fakeExpirer{}
	task := newSweepTask(newTestTaskDeps(sweeper, expirer))

	var err error
	require.NotPanics(t, func() { err = task(context.Background()) })
	require.Error(t, err)
	assert.Equal(t, 1, expirer.calls, "a reminder panic must not starve the duel sweep")
}

func TestSweepTaskSurvivesDuelPanic(t *testing.T) {
	sweeper := &fakeSweeper{}
	expirer := &fakeExpirer{boom: true}
	task := newSweepTask(newTestTaskDeps(sweeper, expirer))

	var err error
	require.NotPanics(t, func() { err = task(context.Background()) })
	require.Error(t, err)
	assert.Equal(t, 1, sweeper.calls)
}

func TestSweepTaskReminderFailureDoesNotBlockDuels(t *testing.T) {
	sweepErr := errors.New("redis is on fire")
	sweeper := &fakeSweeper{err: sweepErr}
	expirer := &fakeExpirer{}
	task := newSweepTask(newTestTaskDeps(sweeper, expirer))

	err := task(context.Background())
	require.ErrorIs(t, err, sweepErr)
	assert.Equal(t, 1, expirer.calls)
}

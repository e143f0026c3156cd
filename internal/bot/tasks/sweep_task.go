package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// newSweepTask creates the periodic sweep: due reminders first, then overdue
// duels. Each sweep is isolated behind its own recover so a panic in one
// cannot starve the other, and a failure in one still lets the other run.
func newSweepTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "sweep")

	return func(ctx context.Context) error {
		start := time.Now()

		remErr := runIsolated(func() error {
			_, err := deps.Reminders.Sweep(ctx)
			return err
		})
		if remErr != nil {
			log.ErrorContext(ctx, "Reminder sweep failed", "error", remErr)
		}

		duelErr := runIsolated(func() error {
			_, err := deps.Duels.ExpireOverdue(ctx)
			return err
		})
		if duelErr != nil {
			log.ErrorContext(ctx, "Duel expiry sweep failed", "error", duelErr)
		}

		log.DebugContext(ctx, "Sweep finished", "duration", time.Since(start))
		return errors.Join(remErr, duelErr)
	}
}

// runIsolated converts a panic in fn into an error.
func runIsolated(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sweep panicked: %v", r)
		}
	}()
	return fn()
}

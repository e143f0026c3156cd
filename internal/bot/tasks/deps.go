// Package tasks implements the bot's scheduled background tasks:
// task definitions, dependencies, and registration.
package tasks

import (
	"context"
	"log/slog"

	"starostabot/internal/config"
)

// ReminderSweeper delivers due reminders. The reminder service satisfies
// this in production.
type ReminderSweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// DuelExpirer closes overdue duels. The duel engine satisfies this in
// production.
type DuelExpirer interface {
	ExpireOverdue(ctx context.Context) (int64, error)
}

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Reminders ReminderSweeper
	Duels     DuelExpirer
}

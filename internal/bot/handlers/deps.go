package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"starostabot/internal/config"
	"starostabot/internal/database"
	"starostabot/internal/duel"
	"starostabot/internal/members"
	"starostabot/internal/reminder"
)

// Moderator applies and lifts chat member restrictions. The telegram client
// satisfies this in production.
type Moderator interface {
	RestrictUser(ctx context.Context, chatID, userID int64, until time.Time) error
	UnrestrictUser(ctx context.Context, chatID, userID int64) error
}

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Store     database.Store
	Duels     *duel.Engine
	Reminders *reminder.Service
	Picker    *members.Picker
	Moderator Moderator
	Clock     clockwork.Clock
}

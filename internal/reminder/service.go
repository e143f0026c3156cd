// Package reminder implements one-shot scheduled notifications with
// at-least-once delivery: a reminder may be delivered twice across a crash,
// but once its sent flag is set it is never delivered again.
package reminder

import (
	"context"
	"database/sql"
	"fmt"
	"html"
	"io"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"starostabot/internal/database"
)

// Sender delivers a reminder text to a chat. The Telegram client satisfies
// this in production; tests substitute a recorder.
type Sender interface {
	SendReminder(ctx context.Context, chatID int64, text string) error
}

// Service schedules reminders and sweeps the due ones.
type Service struct {
	store  database.Store
	sender Sender
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewService creates a reminder service.
func NewService(store database.Store, sender Sender, clock clockwork.Clock, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		store:  store,
		sender: sender,
		clock:  clock,
		logger: logger.With("component", "reminder"),
	}
}

// Schedule stores a reminder for the given chat. Validation of the moment
// (past vs future) belongs to the caller; the service stores whatever it is
// given so replays after a restart behave the same.
func (s *Service) Schedule(ctx context.Context, chatPK uint, text string, remindAt time.Time, byID int64, byName string) (*database.Reminder, error) {
	r := &database.Reminder{
		ChatPK:        chatPK,
		Text:          sql.NullString{String: text, Valid: text != ""},
		RemindAt:      remindAt.UTC(),
		CreatedByID:   byID,
		CreatedByName: sql.NullString{String: byName, Valid: byName != ""},
	}

	if err := s.store.CreateReminder(ctx, r); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Reminder scheduled",
		"chat_pk", chatPK, "reminder_id", r.ID, "remind_at", r.RemindAt)
	return r, nil
}

// Sweep delivers every due, unsent reminder, earliest first. The sent flag is
// flipped only after delivery succeeds, so a crash between send and mark
// redelivers on the next sweep rather than losing the reminder. A failure on
// one reminder does not block the rest.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	due, err := s.store.DuePendingReminders(ctx, s.clock.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to load due reminders: %w", err)
	}

	sent := 0
	for _, r := range due {
		if err := s.sender.SendReminder(ctx, r.ChatID, s.formatText(r)); err != nil {
			s.logger.ErrorContext(ctx, "Error delivering reminder",
				"reminder_id", r.ID, "chat_id", r.ChatID, "error", err)
			continue
		}

		marked, err := s.store.MarkReminderSent(ctx, r.ID)
		if err != nil {
			s.logger.ErrorContext(ctx, "Error marking reminder sent",
				"reminder_id", r.ID, "error", err)
			continue
		}
		if !marked {
			// Another sweep got here first; the duplicate send is the
			// at-least-once tradeoff.
			s.logger.WarnContext(ctx, "Reminder already marked sent", "reminder_id", r.ID)
			continue
		}

		sent++
	}

	if sent > 0 {
		s.logger.InfoContext(ctx, "Reminders delivered", "count", sent)
	}
	return sent, nil
}

func (s *Service) formatText(r database.DueReminder) string {
	textPart := ""
	if r.Text.Valid && r.Text.String != "" {
		textPart = "\n\n📝 " + html.EscapeString(r.Text.String)
	}

	creator := "Аноним"
	if r.CreatedByName.Valid && r.CreatedByName.String != "" {
		creator = html.EscapeString(r.CreatedByName.String)
	}

	return fmt.Sprintf("⏰ <b>НАПОМИНАНИЕ!</b>%s\n\n👤 Создано: %s", textPart, creator)
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for database operations. All per-chat entities
// are scoped by the owning chat's primary key; no query crosses chats.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// GetOrCreateChat returns the chat with the given platform id, creating
	// it if it does not exist yet. A non-empty title refreshes a stale one.
	GetOrCreateChat(ctx context.Context, chatID int64, title string) (*Chat, error)

	// GetChat returns the chat with the given platform id, or nil, nil if
	// the bot has never seen it.
	GetChat(ctx context.Context, chatID int64) (*Chat, error)

	// SetChatCategory updates the chat's category. Returns false if the chat
	// is unknown.
	SetChatCategory(ctx context.Context, chatID int64, category string) (bool, error)

	// UpsertChatMember inserts a member record or, for an existing
	// (chat, user) pair, refreshes the name fields, increments the message
	// count, and bumps last_seen.
	UpsertChatMember(ctx context.Context, member *ChatMember) error

	// RandomChatMember returns a uniformly random member of the chat, or
	// nil, nil if nobody has written there yet.
	RandomChatMember(ctx context.Context, chatPK uint) (*ChatMember, error)

	// AddActivist inserts a roster entry.
	AddActivist(ctx context.Context, activist *Activist) error

	// FindActivist looks an activist up by surname, username, or a full-name
	// fragment. Returns nil, nil when nothing matches.
	FindActivist(ctx context.Context, chatPK uint, query string) (*Activist, error)

	// RandomActivist returns a uniformly random activist of the chat, or
	// nil, nil if the roster is empty.
	RandomActivist(ctx context.Context, chatPK uint) (*Activist, error)

	// SaveQuote inserts a new quote.
	SaveQuote(ctx context.Context, quote *Quote) error

	// RandomQuote returns a uniformly random quote of the chat, or nil, nil
	// if there are none.
	RandomQuote(ctx context.Context, chatPK uint) (*Quote, error)

	// CreateReminder inserts a new reminder.
	CreateReminder(ctx context.Context, reminder *Reminder) error

	// DuePendingReminders returns all unsent reminders with remind_at <= now
	// across all chats, earliest first, each joined with its chat's platform id.
	DuePendingReminders(ctx context.Context, now time.Time) ([]DueReminder, error)

	// MarkReminderSent flips the sent flag. The update is conditional on the
	// flag still being false; the return value reports whether this call
	// performed the transition.
	MarkReminderSent(ctx context.Context, id uint) (bool, error)

	// AddMutedUser records a mute.
	AddMutedUser(ctx context.Context, muted *MutedUser) error

	// ActiveMutes returns the chat's mute records with muted_until > now.
	ActiveMutes(ctx context.Context, chatPK uint, now time.Time) ([]MutedUser, error)

	// ClearMutes deletes all mute records of the chat and returns the count.
	ClearMutes(ctx context.Context, chatPK uint) (int64, error)

	// CreateDuel inserts a new duel.
	CreateDuel(ctx context.Context, duel *MathDuel) error

	// ActiveDuelForUser returns the single active, unexpired duel in the
	// chat in which the user is challenger or opponent, or nil, nil.
	ActiveDuelForUser(ctx context.Context, chatPK uint, userID int64, now time.Time) (*MathDuel, error)

	// ResolveDuel deactivates the duel and records the winner. The update is
	// conditional on the duel still being active, so of two concurrent
	// resolution attempts exactly one observes true.
	ResolveDuel(ctx context.Context, duelID uint, winnerID int64) (bool, error)

	// ExpireDuels deactivates every active duel with expires_at <= now in a
	// single batch, leaving winner_id null, and returns the count.
	ExpireDuels(ctx context.Context, now time.Time) (int64, error)
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) GetOrCreateChat(ctx context.Context, chatID int64, title string) (*Chat, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("chat_id cannot be zero")
	}

	chat, err := s.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}

	if chat == nil {
		now := time.Now().UTC()
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO chats (chat_id, title, category, created_at) VALUES (?, ?, ?, ?)`,
			chatID, nullString(title), CategoryDefault, now)
		if err != nil {
			s.logger.ErrorContext(ctx, "Error creating chat", "chat_id", chatID, "error", err)
			return nil, fmt.Errorf("failed to create chat %d: %w", chatID, err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to get new chat id: %w", err)
		}

		s.logger.InfoContext(ctx, "Created chat", "chat_id", chatID, "title", title)
		return &Chat{
			ID:        uint(id),
			ChatID:    chatID,
			Title:     nullString(title),
			Category:  CategoryDefault,
			CreatedAt: now,
		}, nil
	}

	// Titles change over time; refresh on observation.
	if title != "" && chat.Title.String != title {
		if _, err := s.db.ExecContext(ctx,
			`UPDATE chats SET title = ? WHERE id = ?`, title, chat.ID); err != nil {
			s.logger.WarnContext(ctx, "Error refreshing chat title", "chat_id", chatID, "error", err)
		} else {
			chat.Title = nullString(title)
		}
	}

	return chat, nil
}

func (s *sqlxStore) GetChat(ctx context.Context, chatID int64) (*Chat, error) {
	var chat Chat
	err := s.db.GetContext(ctx, &chat,
		`SELECT id, chat_id, title, category, created_at FROM chats WHERE chat_id = ?`, chatID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting chat", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to get chat %d: %w", chatID, err)
	}

	return &chat, nil
}

func (s *sqlxStore) SetChatCategory(ctx context.Context, chatID int64, category string) (bool, error) {
	if category != CategoryDefault && category != CategoryTrainer {
		return false, fmt.Errorf("unknown chat category %q", category)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE chats SET category = ? WHERE chat_id = ?`, category, chatID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error setting chat category", "chat_id", chatID, "error", err)
		return false, fmt.Errorf("failed to set category for chat %d: %w", chatID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	s.logger.InfoContext(ctx, "Chat category updated", "chat_id", chatID, "category", category)
	return affected > 0, nil
}

func (s *sqlxStore) UpsertChatMember(ctx context.Context, member *ChatMember) error {
	if member == nil {
		return fmt.Errorf("cannot save nil chat member")
	}
	if member.ChatPK == 0 || member.UserID == 0 {
		return fmt.Errorf("chat member must have non-zero chat_pk and user_id")
	}

	now := time.Now().UTC()
	member.LastSeen = now
	if member.CreatedAt.IsZero() {
		member.CreatedAt = now
	}

	query := `
        INSERT INTO chat_members (chat_pk, user_id, username, full_name, first_name, last_name, message_count, last_seen, created_at)
        VALUES (:chat_pk, :user_id, :username, :full_name, :first_name, :last_name, 1, :last_seen, :created_at)
        ON CONFLICT (chat_pk, user_id) DO UPDATE SET
            username = excluded.username,
            full_name = excluded.full_name,
            first_name = excluded.first_name,
            last_name = excluded.last_name,
            message_count = message_count + 1,
            last_seen = excluded.last_seen;
    `

	if _, err := s.db.NamedExecContext(ctx, query, member); err != nil {
		s.logger.ErrorContext(ctx, "Error upserting chat member",
			"chat_pk", member.ChatPK, "user_id", member.UserID, "error", err)
		return fmt.Errorf("failed to upsert chat member (chat %d, user %d): %w",
			member.ChatPK, member.UserID, err)
	}

	return nil
}

func (s *sqlxStore) RandomChatMember(ctx context.Context, chatPK uint) (*ChatMember, error) {
	var member ChatMember
	query := `
        SELECT id, chat_pk, user_id, username, full_name, first_name, last_name, message_count, last_seen, created_at
        FROM chat_members
        WHERE chat_pk = ?
        ORDER BY RANDOM()
        LIMIT 1;
    `

	err := s.db.GetContext(ctx, &member, query, chatPK)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting random chat member", "chat_pk", chatPK, "error", err)
		return nil, fmt.Errorf("failed to get random member for chat %d: %w", chatPK, err)
	}

	return &member, nil
}

func (s *sqlxStore) AddActivist(ctx context.Context, activist *Activist) error {
	if activist == nil {
		return fmt.Errorf("cannot save nil activist")
	}
	if activist.ChatPK == 0 {
		return fmt.Errorf("activist must have a non-zero chat_pk")
	}

	if activist.CreatedAt.IsZero() {
		activist.CreatedAt = time.Now().UTC()
	}

	query := `
        INSERT INTO activists (chat_pk, full_name, username, surname, group_name, phone, info, role, user_id, created_at)
        VALUES (:chat_pk, :full_name, :username, :surname, :group_name, :phone, :info, :role, :user_id, :created_at);
    `

	res, err := s.db.NamedExecContext(ctx, query, activist)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving activist",
			"chat_pk", activist.ChatPK, "username", activist.Username, "error", err)
		return fmt.Errorf("failed to save activist %q: %w", activist.Username, err)
	}

	if id, err := res.LastInsertId(); err == nil {
		activist.ID = uint(id)
	}

	return nil
}

func (s *sqlxStore) FindActivist(ctx context.Context, chatPK uint, query string) (*Activist, error) {
	pattern := "%" + query + "%"

	var activist Activist
	stmt := `
        SELECT id, chat_pk, full_name, username, surname, group_name, phone, info, role, user_id, created_at
        FROM activists
        WHERE chat_pk = ?
          AND (LOWER(surname) LIKE LOWER(?) OR LOWER(username) = LOWER(?) OR LOWER(full_name) LIKE LOWER(?))
        LIMIT 1;
    `

	err := s.db.GetContext(ctx, &activist, stmt, chatPK, pattern, query, pattern)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error finding activist", "chat_pk", chatPK, "query", query, "error", err)
		return nil, fmt.Errorf("failed to find activist %q: %w", query, err)
	}

	return &activist, nil
}

func (s *sqlxStore) RandomActivist(ctx context.Context, chatPK uint) (*Activist, error) {
	var activist Activist
	stmt := `
        SELECT id, chat_pk, full_name, username, surname, group_name, phone, info, role, user_id, created_at
        FROM activists
        WHERE chat_pk = ?
        ORDER BY RANDOM()
        LIMIT 1;
    `

	err := s.db.GetContext(ctx, &activist, stmt, chatPK)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting random activist", "chat_pk", chatPK, "error", err)
		return nil, fmt.Errorf("failed to get random activist for chat %d: %w", chatPK, err)
	}

	return &activist, nil
}

func (s *sqlxStore) SaveQuote(ctx context.Context, quote *Quote) error {
	if quote == nil {
		return fmt.Errorf("cannot save nil quote")
	}
	if quote.ChatPK == 0 {
		return fmt.Errorf("quote must have a non-zero chat_pk")
	}
	if quote.Text == "" {
		return fmt.Errorf("quote must have non-empty text")
	}

	if quote.CreatedAt.IsZero() {
		quote.CreatedAt = time.Now().UTC()
	}

	query := `
        INSERT INTO quotes (chat_pk, text, author_name, author_id, added_by_id, added_by_name, created_at)
        VALUES (:chat_pk, :text, :author_name, :author_id, :added_by_id, :added_by_name, :created_at);
    `

	res, err := s.db.NamedExecContext(ctx, query, quote)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving quote", "chat_pk", quote.ChatPK, "error", err)
		return fmt.Errorf("failed to save quote: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		quote.ID = uint(id)
	}

	s.logger.DebugContext(ctx, "Quote saved", "chat_pk", quote.ChatPK, "quote_id", quote.ID)
	return nil
}

func (s *sqlxStore) RandomQuote(ctx context.Context, chatPK uint) (*Quote, error) {
	var quote Quote
	query := `
        SELECT id, chat_pk, text, author_name, author_id, added_by_id, added_by_name, created_at
        FROM quotes
        WHERE chat_pk = ?
        ORDER BY RANDOM()
        LIMIT 1;
    `

	err := s.db.GetContext(ctx, &quote, query, chatPK)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting random quote", "chat_pk", chatPK, "error", err)
		return nil, fmt.Errorf("failed to get random quote for chat %d: %w", chatPK, err)
	}

	return &quote, nil
}

func (s *sqlxStore) CreateReminder(ctx context.Context, reminder *Reminder) error {
	if reminder == nil {
		return fmt.Errorf("cannot save nil reminder")
	}
	if reminder.ChatPK == 0 {
		return fmt.Errorf("reminder must have a non-zero chat_pk")
	}
	if reminder.RemindAt.IsZero() {
		return fmt.Errorf("reminder must have a non-zero remind_at")
	}

	if reminder.CreatedAt.IsZero() {
		reminder.CreatedAt = time.Now().UTC()
	}

	query := `
        INSERT INTO reminders (chat_pk, text, remind_at, created_by_id, created_by_name, is_sent, created_at)
        VALUES (:chat_pk, :text, :remind_at, :created_by_id, :created_by_name, 0, :created_at);
    `

	res, err := s.db.NamedExecContext(ctx, query, reminder)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving reminder", "chat_pk", reminder.ChatPK, "error", err)
		return fmt.Errorf("failed to save reminder: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		reminder.ID = uint(id)
	}

	s.logger.DebugContext(ctx, "Reminder saved",
		"chat_pk", reminder.ChatPK, "reminder_id", reminder.ID, "remind_at", reminder.RemindAt)
	return nil
}

func (s *sqlxStore) DuePendingReminders(ctx context.Context, now time.Time) ([]DueReminder, error) {
	var reminders []DueReminder
	query := `
        SELECT r.id, r.chat_pk, r.text, r.remind_at, r.created_by_id, r.created_by_name, r.is_sent, r.created_at,
               c.chat_id
        FROM reminders r
        JOIN chats c ON c.id = r.chat_pk
        WHERE r.is_sent = 0 AND r.remind_at <= ?
        ORDER BY r.remind_at ASC;
    `

	if err := s.db.SelectContext(ctx, &reminders, query, now.UTC()); err != nil {
		s.logger.ErrorContext(ctx, "Error getting due reminders", "error", err)
		return nil, fmt.Errorf("failed to get due reminders: %w", err)
	}

	return reminders, nil
}

func (s *sqlxStore) MarkReminderSent(ctx context.Context, id uint) (bool, error) {
	// Conditional on is_sent so a concurrent sweep cannot mark twice.
	res, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET is_sent = 1 WHERE id = ? AND is_sent = 0`, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error marking reminder sent", "reminder_id", id, "error", err)
		return false, fmt.Errorf("failed to mark reminder %d sent: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected > 0, nil
}

func (s *sqlxStore) AddMutedUser(ctx context.Context, muted *MutedUser) error {
	if muted == nil {
		return fmt.Errorf("cannot save nil muted user")
	}
	if muted.ChatPK == 0 || muted.UserID == 0 {
		return fmt.Errorf("muted user must have non-zero chat_pk and user_id")
	}

	if muted.CreatedAt.IsZero() {
		muted.CreatedAt = time.Now().UTC()
	}

	query := `
        INSERT INTO muted_users (chat_pk, user_id, username, full_name, muted_until, reason, created_at)
        VALUES (:chat_pk, :user_id, :username, :full_name, :muted_until, :reason, :created_at);
    `

	if _, err := s.db.NamedExecContext(ctx, query, muted); err != nil {
		s.logger.ErrorContext(ctx, "Error saving muted user",
			"chat_pk", muted.ChatPK, "user_id", muted.UserID, "error", err)
		return fmt.Errorf("failed to save muted user %d: %w", muted.UserID, err)
	}

	s.logger.DebugContext(ctx, "Mute recorded",
		"chat_pk", muted.ChatPK, "user_id", muted.UserID, "muted_until", muted.MutedUntil)
	return nil
}

func (s *sqlxStore) ActiveMutes(ctx context.Context, chatPK uint, now time.Time) ([]MutedUser, error) {
	var muted []MutedUser
	query := `
        SELECT id, chat_pk, user_id, username, full_name, muted_until, reason, created_at
        FROM muted_users
        WHERE chat_pk = ? AND muted_until > ?;
    `

	if err := s.db.SelectContext(ctx, &muted, query, chatPK, now.UTC()); err != nil {
		s.logger.ErrorContext(ctx, "Error getting active mutes", "chat_pk", chatPK, "error", err)
		return nil, fmt.Errorf("failed to get active mutes for chat %d: %w", chatPK, err)
	}

	return muted, nil
}

func (s *sqlxStore) ClearMutes(ctx context.Context, chatPK uint) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM muted_users WHERE chat_pk = ?`, chatPK)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error clearing mutes", "chat_pk", chatPK, "error", err)
		return 0, fmt.Errorf("failed to clear mutes for chat %d: %w", chatPK, err)
	}

	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	s.logger.InfoContext(ctx, "Cleared mute records", "chat_pk", chatPK, "count", count)
	return count, nil
}

func (s *sqlxStore) CreateDuel(ctx context.Context, duel *MathDuel) error {
	if duel == nil {
		return fmt.Errorf("cannot save nil duel")
	}
	if duel.ChatPK == 0 {
		return fmt.Errorf("duel must have a non-zero chat_pk")
	}
	if duel.ExpiresAt.IsZero() {
		return fmt.Errorf("duel must have a non-zero expires_at")
	}

	duel.IsActive = true
	if duel.CreatedAt.IsZero() {
		duel.CreatedAt = time.Now().UTC()
	}

	query := `
        INSERT INTO math_duels (chat_pk, challenger_id, challenger_name, opponent_id, opponent_name, expression, answer, is_active, winner_id, expires_at, created_at)
        VALUES (:chat_pk, :challenger_id, :challenger_name, :opponent_id, :opponent_name, :expression, :answer, 1, NULL, :expires_at, :created_at);
    `

	res, err := s.db.NamedExecContext(ctx, query, duel)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving duel", "chat_pk", duel.ChatPK, "error", err)
		return fmt.Errorf("failed to save duel: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		duel.ID = uint(id)
	}

	s.logger.DebugContext(ctx, "Duel saved",
		"chat_pk", duel.ChatPK, "duel_id", duel.ID,
		"challenger_id", duel.ChallengerID, "opponent_id", duel.OpponentID)
	return nil
}

func (s *sqlxStore) ActiveDuelForUser(ctx context.Context, chatPK uint, userID int64, now time.Time) (*MathDuel, error) {
	var duel MathDuel
	query := `
        SELECT id, chat_pk, challenger_id, challenger_name, opponent_id, opponent_name, expression, answer, is_active, winner_id, expires_at, created_at
        FROM math_duels
        WHERE chat_pk = ? AND is_active = 1 AND expires_at > ?
          AND (challenger_id = ? OR opponent_id = ?)
        LIMIT 1;
    `

	err := s.db.GetContext(ctx, &duel, query, chatPK, now.UTC(), userID, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting active duel",
			"chat_pk", chatPK, "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get active duel for user %d: %w", userID, err)
	}

	return &duel, nil
}

func (s *sqlxStore) ResolveDuel(ctx context.Context, duelID uint, winnerID int64) (bool, error) {
	// Conditional on is_active: the first correct answer wins the race and
	// every later attempt observes zero affected rows.
	res, err := s.db.ExecContext(ctx,
		`UPDATE math_duels SET is_active = 0, winner_id = ? WHERE id = ? AND is_active = 1`,
		winnerID, duelID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error resolving duel", "duel_id", duelID, "error", err)
		return false, fmt.Errorf("failed to resolve duel %d: %w", duelID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	if affected > 0 {
		s.logger.InfoContext(ctx, "Duel resolved", "duel_id", duelID, "winner_id", winnerID)
	}
	return affected > 0, nil
}

func (s *sqlxStore) ExpireDuels(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE math_duels SET is_active = 0 WHERE is_active = 1 AND expires_at <= ?`, now.UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error expiring duels", "error", err)
		return 0, fmt.Errorf("failed to expire duels: %w", err)
	}

	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	if count > 0 {
		s.logger.InfoContext(ctx, "Expired duels", "count", count)
	}
	return count, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

package database

import (
	"database/sql"
	"time"
)

// Chat categories. The category changes which "of the day" commands a chat
// responds to.
const (
	CategoryDefault = "default"
	CategoryTrainer = "trainer"
)

// Chat represents a Telegram group the bot has seen. Chats are created lazily
// on the first observed message or command and are never deleted here.
type Chat struct {
	ID        uint           `db:"id"`
	ChatID    int64          `db:"chat_id"`
	Title     sql.NullString `db:"title"`
	Category  string         `db:"category"`
	CreatedAt time.Time      `db:"created_at"`
}

// ChatMember is a user observed writing in a chat, unique per (chat, user).
// MessageCount grows monotonically; LastSeen is refreshed on every message.
type ChatMember struct {
	ID           uint           `db:"id"`
	ChatPK       uint           `db:"chat_pk"`
	UserID       int64          `db:"user_id"`
	Username     sql.NullString `db:"username"`
	FullName     string         `db:"full_name"`
	FirstName    sql.NullString `db:"first_name"`
	LastName     sql.NullString `db:"last_name"`
	MessageCount int64          `db:"message_count"`
	LastSeen     time.Time      `db:"last_seen"`
	CreatedAt    time.Time      `db:"created_at"`
}

// Activist is a manually registered member of the chat's roster,
// looked up by surname or username with the !инфа command.
type Activist struct {
	ID        uint           `db:"id"`
	ChatPK    uint           `db:"chat_pk"`
	FullName  string         `db:"full_name"`
	Username  string         `db:"username"`
	Surname   sql.NullString `db:"surname"`
	GroupName sql.NullString `db:"group_name"`
	Phone     sql.NullString `db:"phone"`
	Info      sql.NullString `db:"info"`
	Role      sql.NullString `db:"role"`
	UserID    sql.NullInt64  `db:"user_id"`
	CreatedAt time.Time      `db:"created_at"`
}

// Quote is a saved chat quote.
type Quote struct {
	ID          uint           `db:"id"`
	ChatPK      uint           `db:"chat_pk"`
	Text        string         `db:"text"`
	AuthorName  sql.NullString `db:"author_name"`
	AuthorID    sql.NullInt64  `db:"author_id"`
	AddedByID   int64          `db:"added_by_id"`
	AddedByName sql.NullString `db:"added_by_name"`
	CreatedAt   time.Time      `db:"created_at"`
}

// Reminder is a one-shot scheduled notification. IsSent transitions from
// false to true exactly once and never reverts.
type Reminder struct {
	ID            uint           `db:"id"`
	ChatPK        uint           `db:"chat_pk"`
	Text          sql.NullString `db:"text"`
	RemindAt      time.Time      `db:"remind_at"`
	CreatedByID   int64          `db:"created_by_id"`
	CreatedByName sql.NullString `db:"created_by_name"`
	IsSent        bool           `db:"is_sent"`
	CreatedAt     time.Time      `db:"created_at"`
}

// DueReminder is a pending reminder joined with the platform id of its chat,
// as loaded by the sweep.
type DueReminder struct {
	Reminder
	ChatID int64 `db:"chat_id"`
}

// MutedUser records a temporary send-restriction applied to a user.
// The mute is active while MutedUntil is in the future; multiple historical
// records may exist for the same user.
type MutedUser struct {
	ID         uint           `db:"id"`
	ChatPK     uint           `db:"chat_pk"`
	UserID     int64          `db:"user_id"`
	Username   sql.NullString `db:"username"`
	FullName   sql.NullString `db:"full_name"`
	MutedUntil time.Time      `db:"muted_until"`
	Reason     sql.NullString `db:"reason"`
	CreatedAt  time.Time      `db:"created_at"`
}

// MathDuel is a timed 1v1 arithmetic challenge. A duel is active until the
// first correct answer resolves it (WinnerID set) or the expiry sweep lapses
// it (WinnerID stays null). Resolved and expired duels are kept as history.
type MathDuel struct {
	ID             uint           `db:"id"`
	ChatPK         uint           `db:"chat_pk"`
	ChallengerID   int64          `db:"challenger_id"`
	ChallengerName sql.NullString `db:"challenger_name"`
	OpponentID     int64          `db:"opponent_id"`
	OpponentName   sql.NullString `db:"opponent_name"`
	Expression     string         `db:"expression"`
	Answer         int64          `db:"answer"`
	IsActive       bool           `db:"is_active"`
	WinnerID       sql.NullInt64  `db:"winner_id"`
	ExpiresAt      time.Time      `db:"expires_at"`
	CreatedAt      time.Time      `db:"created_at"`
}

package duel

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"starostabot/internal/database"
)

// Challenge rule violations. ErrChallengerBusy and ErrOpponentBusy both
// match ErrDuelInProgress, so callers that do not care which side is busy
// can check the base error alone.
var (
	ErrSelfChallenge  = errors.New("cannot duel yourself")
	ErrBotOpponent    = errors.New("cannot duel a bot")
	ErrDuelInProgress = errors.New("duel already in progress")

	ErrChallengerBusy = fmt.Errorf("challenger: %w", ErrDuelInProgress)
	ErrOpponentBusy   = fmt.Errorf("opponent: %w", ErrDuelInProgress)
)

// Participant identifies one side of a duel.
type Participant struct {
	ID    int64
	Name  string
	IsBot bool
}

// Outcome describes a resolved duel.
type Outcome struct {
	Duel     *database.MathDuel
	WinnerID int64
	LoserID  int64
}

// Engine enforces the duel rules: at most one active duel per user per chat,
// first correct answer wins, overdue duels lapse without a winner. The store's
// conditional update is the only arbiter when answers race.
type Engine struct {
	store    database.Store
	clock    clockwork.Clock
	duration time.Duration
	logger   *slog.Logger
}

// NewEngine creates a duel engine. duration is how long a duel stays open.
func NewEngine(store database.Store, clock clockwork.Clock, duration time.Duration, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		store:    store,
		clock:    clock,
		duration: duration,
		logger:   logger.With("component", "duel"),
	}
}

// Challenge starts a duel between challenger and opponent in the given chat.
// Both participants must be free: a user is busy while they are challenger or
// opponent of any active, unexpired duel in the chat.
func (e *Engine) Challenge(ctx context.Context, chat *database.Chat, challenger, opponent Participant) (*database.MathDuel, error) {
	if opponent.IsBot {
		return nil, ErrBotOpponent
	}
	if challenger.ID == opponent.ID {
		return nil, ErrSelfChallenge
	}

	now := e.clock.Now().UTC()

	existing, err := e.store.ActiveDuelForUser(ctx, chat.ID, challenger.ID, now)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrChallengerBusy
	}

	existing, err = e.store.ActiveDuelForUser(ctx, chat.ID, opponent.ID, now)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrOpponentBusy
	}

	problem := NewProblem()
	d := &database.MathDuel{
		ChatPK:         chat.ID,
		ChallengerID:   challenger.ID,
		ChallengerName: sql.NullString{String: challenger.Name, Valid: challenger.Name != ""},
		OpponentID:     opponent.ID,
		OpponentName:   sql.NullString{String: opponent.Name, Valid: opponent.Name != ""},
		Expression:     problem.Expression,
		Answer:         problem.Answer,
		ExpiresAt:      now.Add(e.duration),
	}

	if err := e.store.CreateDuel(ctx, d); err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "Duel started",
		"chat_pk", chat.ID, "duel_id", d.ID,
		"challenger_id", challenger.ID, "opponent_id", opponent.ID,
		"expires_at", d.ExpiresAt)
	return d, nil
}

// Resolve checks a numeric answer from a user against their active duel.
// It returns nil, nil when the user has no active duel, when the answer is
// wrong, or when a concurrent resolution already closed the duel; the winner
// is whoever flips the active flag first.
func (e *Engine) Resolve(ctx context.Context, chatPK uint, userID int64, answer int64) (*Outcome, error) {
	now := e.clock.Now().UTC()

	d, err := e.store.ActiveDuelForUser(ctx, chatPK, userID, now)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, nil
	}

	// Wrong answers are ignored; the duel stays open.
	if answer != d.Answer {
		return nil, nil
	}

	won, err := e.store.ResolveDuel(ctx, d.ID, userID)
	if err != nil {
		return nil, err
	}
	if !won {
		// Somebody else answered first between our read and the update.
		e.logger.DebugContext(ctx, "Lost resolution race", "duel_id", d.ID, "user_id", userID)
		return nil, nil
	}

	loserID := d.ChallengerID
	if userID == d.ChallengerID {
		loserID = d.OpponentID
	}
	d.IsActive = false
	d.WinnerID = sql.NullInt64{Int64: userID, Valid: true}

	return &Outcome{Duel: d, WinnerID: userID, LoserID: loserID}, nil
}

// ExpireOverdue lapses every duel whose deadline has passed, leaving no
// winner, and returns how many were closed.
func (e *Engine) ExpireOverdue(ctx context.Context) (int64, error) {
	return e.store.ExpireDuels(ctx, e.clock.Now().UTC())
}

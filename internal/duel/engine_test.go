package duel

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starostabot/internal/database"
)

func newTestEngine(t *testing.T) (*Engine, database.Store, *clockwork.FakeClock, *database.Chat) {
	t.Helper()

	db, err := database.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := database.NewStore(db, logger)
	clock := clockwork.NewFakeClock()

	chat, err := store.GetOrCreateChat(context.Background(), -1, "test")
	require.NoError(t, err)

	return NewEngine(store, clock, 10*time.Minute, logger), store, clock, chat
}

var (
	alice = Participant{ID: 10, Name: "Алиса"}
	bob   = Participant{ID: 20, Name: "Боб"}
	carol = Participant{ID: 30, Name: "Кэрол"}
)

func TestChallengeRules(t *testing.T) {
	engine, _, _, chat := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.Challenge(ctx, chat, alice, alice)
	assert.ErrorIs(t, err, ErrSelfChallenge)

	_, err = engine.Challenge(ctx, chat, alice, Participant{ID: 99, Name: "bot", IsBot: true})
	assert.ErrorIs(t, err, ErrBotOpponent)

	d, err := engine.Challenge(ctx, chat, alice, bob)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.True(t, d.IsActive)

	// Both participants are locked until the duel ends.
	_, err = engine.Challenge(ctx, chat, alice, carol)
	assert.ErrorIs(t, err, ErrChallengerBusy)
	assert.ErrorIs(t, err, ErrDuelInProgress)

	_, err = engine.Challenge(ctx, chat, carol, bob)
	assert.ErrorIs(t, err, ErrOpponentBusy)
	assert.ErrorIs(t, err, ErrDuelInProgress)
}

func TestChallengeAllowedAfterExpiry(t *testing.T) {
	engine, _, clock, chat := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.Challenge(ctx, chat, alice, bob)
	require.NoError(t, err)

	// Not yet: one second before the deadline the duel still runs.
	clock.Advance(10*time.Minute - time.Second)
	_, err = engine.Challenge(ctx, chat, alice, carol)
	assert.ErrorIs(t, err, ErrDuelInProgress)

	clock.Advance(time.Second)
	d, err := engine.Challenge(ctx, chat, alice, carol)
	require.NoError(t, err)
	assert.NotNil(t, d, "an overdue duel no longer blocks new challenges")
}

func TestResolveCorrectAnswer(t *testing.T) {
	engine, _, _, chat := newTestEngine(t)
	ctx := context.Background()

	d, err := engine.Challenge(ctx, chat, alice, bob)
	require.NoError(t, err)

	outcome, err := engine.Resolve(ctx, chat.ID, bob.ID, d.Answer)
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.Equal(t, bob.ID, outcome.WinnerID)
	assert.Equal(t, alice.ID, outcome.LoserID)

	// The duel is closed; repeating the answer resolves nothing.
	outcome, err = engine.Resolve(ctx, chat.ID, alice.ID, d.Answer)
	require.NoError(t, err)
	assert.Nil(t, outcome)
}

func TestResolveWrongAnswerKeepsDuelOpen(t *testing.T) {
	engine, store, clock, chat := newTestEngine(t)
	ctx := context.Background()

	d, err := engine.Challenge(ctx, chat, alice, bob)
	require.NoError(t, err)

	outcome, err := engine.Resolve(ctx, chat.ID, bob.ID, d.Answer+1)
	require.NoError(t, err)
	assert.Nil(t, outcome)

	got, err := store.ActiveDuelForUser(ctx, chat.ID, bob.ID, clock.Now().UTC())
	require.NoError(t, err)
	assert.NotNil(t, got, "a wrong answer must not close the duel")
}

func TestResolveByUninvolvedUser(t *testing.T) {
	engine, _, _, chat := newTestEngine(t)
	ctx := context.Background()

	d, err := engine.Challenge(ctx, chat, alice, bob)
	require.NoError(t, err)

	outcome, err := engine.Resolve(ctx, chat.ID, carol.ID, d.Answer)
	require.NoError(t, err)
	assert.Nil(t, outcome, "bystanders cannot win a duel")
}

func TestExpireOverdue(t *testing.T) {
	engine, _, clock, chat := newTestEngine(t)
	ctx := context.Background()

	d, err := engine.Challenge(ctx, chat, alice, bob)
	require.NoError(t, err)

	count, err := engine.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	clock.Advance(10 * time.Minute)
	count, err = engine.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Lapsed without a winner; a late answer resolves nothing.
	outcome, err := engine.Resolve(ctx, chat.ID, bob.ID, d.Answer)
	require.NoError(t, err)
	assert.Nil(t, outcome)
}

func TestNewProblemAnswersMatchExpression(t *testing.T) {
	for i := 0; i < 200; i++ {
		p := NewProblem()

		parts := strings.Fields(p.Expression)
		require.Len(t, parts, 3, "expression %q", p.Expression)

		a, err := strconv.ParseInt(parts[0], 10, 64)
		require.NoError(t, err)
		b, err := strconv.ParseInt(parts[2], 10, 64)
		require.NoError(t, err)

		var want int64
		switch parts[1] {
		case "+":
			want = a + b
		case "-":
			want = a - b
		case "×":
			want = a * b
		case "÷":
			require.NotZero(t, b)
			require.Zero(t, a%b, "division must be exact in %q", p.Expression)
			want = a / b
		default:
			t.Fatalf("unexpected operator in %q", p.Expression)
		}

		assert.Equal(t, want, p.Answer, "expression %q", p.Expression)
		assert.GreaterOrEqual(t, p.Answer, int64(0), "answers stay non-negative")
	}
}

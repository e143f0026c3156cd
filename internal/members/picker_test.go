package members

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starostabot/internal/database"
)

type fakeCache struct {
	member *Member
	err    error
	calls  int
}

func (f *fakeCache) RandomMember(context.Context, int64) (*Member, error) {
	f.calls++
	return f.member, f.err
}

func newPickerFixture(t *testing.T, cache *fakeCache) (*Picker, database.Store, *database.Chat) {
	t.Helper()

	db, err := database.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := database.NewStore(db, logger)

	chat, err := store.GetOrCreateChat(context.Background(), -1, "test")
	require.NoError(t, err)

	return NewPicker(cache, store, logger), store, chat
}

func TestRandomPrefersCache(t *testing.T) {
	cache := &fakeCache{member: &Member{UserID: 10, Username: "vasya", FullName: "Вася"}}
	picker, store, chat := newPickerFixture(t, cache)
	ctx := context.Background()

	// The database knows somebody else; the cache hit must win.
	require.NoError(t, store.UpsertChatMember(ctx, &database.ChatMember{
		ChatPK: chat.ID, UserID: 20, FullName: "Петя",
	}))

	got, err := picker.Random(ctx, chat)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(10), got.UserID)
	assert.Equal(t, 1, cache.calls)
}

func TestRandomFallsBackToStore(t *testing.T) {
	picker, store, chat := newPickerFixture(t, &fakeCache{})
	ctx := context.Background()

	for _, m := range []database.ChatMember{
		{ChatPK: chat.ID, UserID: 1, FullName: "Один"},
		{ChatPK: chat.ID, UserID: 2, FullName: "Два"},
		{ChatPK: chat.ID, UserID: 3, FullName: "Три"},
	} {
		require.NoError(t, store.UpsertChatMember(ctx, &m))
	}

	got, err := picker.Random(ctx, chat)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Contains(t, []int64{1, 2, 3}, got.UserID)
}

func TestRandomCacheErrorDegradesToStore(t *testing.T) {
	cache := &fakeCache{err: errors.New("redis: connection refused")}
	picker, store, chat := newPickerFixture(t, cache)
	ctx := context.Background()

	require.NoError(t, store.UpsertChatMember(ctx, &database.ChatMember{
		ChatPK: chat.ID, UserID: 20, FullName: "Петя",
	}))

	got, err := picker.Random(ctx, chat)
	require.NoError(t, err, "a cache failure must not fail the pick")
	require.NotNil(t, got)
	assert.Equal(t, int64(20), got.UserID)
}

func TestRandomNoMembers(t *testing.T) {
	picker, _, chat := newPickerFixture(t, &fakeCache{})

	got, err := picker.Random(context.Background(), chat)
	assert.ErrorIs(t, err, ErrNoMembers)
	assert.Nil(t, got)
}

func TestMention(t *testing.T) {
	assert.Equal(t, "@vasya", (&Member{Username: "vasya", FullName: "Вася"}).Mention())
	assert.Equal(t, "Вася", (&Member{FullName: "Вася"}).Mention())
}

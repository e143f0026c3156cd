package reminder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starostabot/internal/database"
)

type recordingSender struct {
	sent    []string
	chatIDs []int64
	failOn  map[string]error
}

func (r *recordingSender) SendReminder(_ context.Context, chatID int64, text string) error {
	if err, ok := r.failOn[text]; ok {
		return err
	}
	r.sent = append(r.sent, text)
	r.chatIDs = append(r.chatIDs, chatID)
	return nil
}

func remindText(text, creator string) string {
	return "⏰ <b>НАПОМИНАНИЕ!</b>\n\n📝 " + text + "\n\n👤 Создано: " + creator
}

func newTestService(t *testing.T) (*Service, database.Store, *recordingSender, *clockwork.FakeClock, *database.Chat) {
	t.Helper()

	db, err := database.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := database.NewStore(db, logger)
	clock := clockwork.NewFakeClock()
	sender := &recordingSender{failOn: map[string]error{}}

	chat, err := store.GetOrCreateChat(context.Background(), -100500, "test")
	require.NoError(t, err)

	return NewService(store, sender, clock, logger), store, sender, clock, chat
}

func TestSweepDeliversDueInOrder(t *testing.T) {
	svc, _, sender, clock, chat := newTestService(t)
	ctx := context.Background()
	now := clock.Now().UTC()

	_, err := svc.Schedule(ctx, chat.ID, "второе", now.Add(2*time.Minute), 1, "Вася")
	require.NoError(t, err)
	_, err = svc.Schedule(ctx, chat.ID, "первое", now.Add(time.Minute), 1, "Вася")
	require.NoError(t, err)
	_, err = svc.Schedule(ctx, chat.ID, "будущее", now.Add(time.Hour), 1, "Вася")
	require.NoError(t, err)

	sent, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent, "nothing is due yet")

	clock.Advance(5 * time.Minute)
	sent, err = svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	require.Len(t, sender.sent, 2)
	assert.Equal(t, remindText("первое", "Вася"), sender.sent[0])
	assert.Equal(t, remindText("второе", "Вася"), sender.sent[1])
	assert.Equal(t, chat.ChatID, sender.chatIDs[0])
}

func TestSweepIsIdempotent(t *testing.T) {
	svc, _, sender, clock, chat := newTestService(t)
	ctx := context.Background()

	_, err := svc.Schedule(ctx, chat.ID, "пара", clock.Now().UTC(), 1, "Вася")
	require.NoError(t, err)

	clock.Advance(time.Minute)
	sent, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	// Later sweeps see the sent flag and deliver nothing.
	sent, err = svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Len(t, sender.sent, 1)
}

func TestSweepRetriesFailedDelivery(t *testing.T) {
	svc, _, sender, clock, chat := newTestService(t)
	ctx := context.Background()
	now := clock.Now().UTC()

	_, err := svc.Schedule(ctx, chat.ID, "сломанное", now, 1, "Вася")
	require.NoError(t, err)
	_, err = svc.Schedule(ctx, chat.ID, "целое", now.Add(time.Second), 1, "Вася")
	require.NoError(t, err)

	sender.failOn[remindText("сломанное", "Вася")] = errors.New("telegram: 500")

	clock.Advance(time.Minute)
	sent, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent, "a failed delivery must not block the rest")
	require.Len(t, sender.sent, 1)
	assert.Equal(t, remindText("целое", "Вася"), sender.sent[0])

	// The failed reminder stays pending and goes out once delivery recovers.
	delete(sender.failOn, remindText("сломанное", "Вася"))
	sent, err = svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, remindText("сломанное", "Вася"), sender.sent[1])
}

func TestSweepWithoutText(t *testing.T) {
	svc, _, sender, clock, chat := newTestService(t)
	ctx := context.Background()

	_, err := svc.Schedule(ctx, chat.ID, "", clock.Now().UTC(), 1, "Вася")
	require.NoError(t, err)

	clock.Advance(time.Minute)
	_, err = svc.Sweep(ctx)
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "⏰ <b>НАПОМИНАНИЕ!</b>\n\n👤 Создано: Вася", sender.sent[0])
}

package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starostabot/internal/database"
	"starostabot/internal/reminder"
)

func TestParseRemindArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     string
		wantTime time.Time
		wantText string
		wantOK   bool
	}{
		{
			name:     "date time and text",
			args:     "25.12.2025 10:00 С Новым годом!",
			wantTime: time.Date(2025, 12, 25, 10, 0, 0, 0, time.Local),
			wantText: "С Новым годом!",
			wantOK:   true,
		},
		{
			name:     "date time without text",
			args:     "01.09.2026 08:30",
			wantTime: time.Date(2026, 9, 1, 8, 30, 0, 0, time.Local),
			wantText: "",
			wantOK:   true,
		},
		{
			name:   "missing time",
			args:   "25.12.2025 пары",
			wantOK: false,
		},
		{
			name:   "wrong order",
			args:   "10:00 25.12.2025",
			wantOK: false,
		},
		{
			name:   "single digit day",
			args:   "5.12.2025 10:00",
			wantOK: false,
		},
		{
			name:   "nonexistent date",
			args:   "32.01.2026 10:00",
			wantOK: false,
		},
		{
			name:   "nonexistent time",
			args:   "25.12.2025 25:00",
			wantOK: false,
		},
		{
			name:   "empty",
			args:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at, text, ok := parseRemindArgs(tt.args)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, at.Equal(tt.wantTime), "got %v, want %v", at, tt.wantTime)
				assert.Equal(t, tt.wantText, text)
			}
		})
	}
}

// telegramRecorder fakes the Bot API transport so handlers run against a real
// bot instance; it captures outgoing request bodies for assertions.
type telegramRecorder struct {
	mu     sync.Mutex
	bodies []string
}

func (r *telegramRecorder) Do(req *http.Request) (*http.Response, error) {
	body, _ := io.ReadAll(req.Body)
	r.mu.Lock()
	r.bodies = append(r.bodies, string(body))
	r.mu.Unlock()

	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body: io.NopCloser(strings.NewReader(
			`{"ok":true,"result":{"message_id":1,"date":1,"chat":{"id":-100,"type":"group"}}}`)),
	}, nil
}

func (r *telegramRecorder) sent() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.bodies, "\n")
}

func newRemindTestDeps(t *testing.T) (HandlerDeps, *telegramRecorder, *tgbot.Bot) {
	t.Helper()

	db, err := database.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := database.NewStore(db, logger)
	clock := clockwork.NewFakeClockAt(time.Date(2026, 9, 1, 12, 0, 0, 0, time.Local))

	rec := &telegramRecorder{}
	b, err := tgbot.New("123456:test", tgbot.WithSkipGetMe(), tgbot.WithHTTPClient(time.Second, rec))
	require.NoError(t, err)

	deps := HandlerDeps{
		Logger:    logger,
		Store:     store,
		Reminders: reminder.NewService(store, nil, clock, logger),
		Clock:     clock,
	}
	return deps, rec, b
}

func remindUpdate(text string) *models.Update {
	return &models.Update{Message: &models.Message{
		Text: text,
		Chat: models.Chat{ID: -100, Type: models.ChatTypeGroup, Title: "старосты"},
		From: &models.User{ID: 7, FirstName: "Вася"},
	}}
}

func TestRemindHandlerRejectsPast(t *testing.T) {
	deps, rec, b := newRemindTestDeps(t)
	handler := NewRemindHandler(deps)
	ctx := context.Background()

	// The fake clock sits at 01.09.2026 12:00; both yesterday and the
	// current minute are rejected before anything touches the store.
	for _, args := range []string{"31.08.2026 10:00 пары", "01.09.2026 12:00"} {
		handler(ctx, b, remindUpdate("!разбудить "+args), args)
	}
	assert.Contains(t, rec.sent(), "Нельзя установить напоминание в прошлое")

	due, err := deps.Store.DuePendingReminders(ctx, time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, due, "past moments must not be scheduled")
}

func TestRemindHandlerSchedulesFuture(t *testing.T) {
	deps, rec, b := newRemindTestDeps(t)
	handler := NewRemindHandler(deps)
	ctx := context.Background()

	args := "02.09.2026 09:00 не проспать пары"
	handler(ctx, b, remindUpdate("!разбудить "+args), args)

	assert.Contains(t, rec.sent(), "Напоминание #")

	due, err := deps.Store.DuePendingReminders(ctx, time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, int64(-100), due[0].ChatID)
	assert.Equal(t, "не проспать пары", due[0].Text.String)
	wantAt := time.Date(2026, 9, 2, 9, 0, 0, 0, time.Local).UTC()
	assert.True(t, due[0].RemindAt.Equal(wantAt), "got %v, want %v", due[0].RemindAt, wantAt)
}

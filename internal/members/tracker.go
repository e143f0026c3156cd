package members

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"starostabot/internal/database"
)

// Tracker returns middleware that records the author of every group message
// in the cache and the database before the update is handled. Tracking
// failures are logged and never block the handler chain.
func Tracker(cache *Cache, store database.Store, logger *slog.Logger) bot.Middleware {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	log := logger.With("component", "member_tracker")

	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if msg := update.Message; msg != nil && msg.From != nil && !msg.From.IsBot && isGroup(msg.Chat.Type) {
				track(ctx, cache, store, log, msg)
			}
			next(ctx, b, update)
		}
	}
}

func isGroup(chatType models.ChatType) bool {
	return chatType == models.ChatTypeGroup || chatType == models.ChatTypeSupergroup
}

func track(ctx context.Context, cache *Cache, store database.Store, log *slog.Logger, msg *models.Message) {
	fullName := strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)

	if err := cache.Remember(ctx, msg.Chat.ID, Member{
		UserID:   msg.From.ID,
		Username: msg.From.Username,
		FullName: fullName,
	}); err != nil {
		log.WarnContext(ctx, "Error caching member sighting",
			"chat_id", msg.Chat.ID, "user_id", msg.From.ID, "error", err)
	}

	chat, err := store.GetOrCreateChat(ctx, msg.Chat.ID, msg.Chat.Title)
	if err != nil {
		log.ErrorContext(ctx, "Error loading chat for member tracking",
			"chat_id", msg.Chat.ID, "error", err)
		return
	}

	if err := store.UpsertChatMember(ctx, &database.ChatMember{
		ChatPK:    chat.ID,
		UserID:    msg.From.ID,
		Username:  sql.NullString{String: msg.From.Username, Valid: msg.From.Username != ""},
		FullName:  fullName,
		FirstName: sql.NullString{String: msg.From.FirstName, Valid: msg.From.FirstName != ""},
		LastName:  sql.NullString{String: msg.From.LastName, Valid: msg.From.LastName != ""},
	}); err != nil {
		log.ErrorContext(ctx, "Error recording member sighting",
			"chat_id", msg.Chat.ID, "user_id", msg.From.ID, "error", err)
	}
}

package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"html"
	"math/rand"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"starostabot/internal/database"
)

// recordMute restricts the user and, only if the restriction stuck, writes a
// mute record. Returns false when the bot lacks the admin right.
func recordMute(ctx context.Context, deps HandlerDeps, chat *database.Chat, user *models.User, until time.Time, reason string) bool {
	if err := deps.Moderator.RestrictUser(ctx, chat.ChatID, user.ID, until); err != nil {
		deps.Logger.WarnContext(ctx, "Failed to restrict user",
			"chat_id", chat.ChatID, "user_id", user.ID, "error", err)
		return false
	}

	if err := deps.Store.AddMutedUser(ctx, &database.MutedUser{
		ChatPK:     chat.ID,
		UserID:     user.ID,
		Username:   sql.NullString{String: user.Username, Valid: user.Username != ""},
		FullName:   sql.NullString{String: fullName(user), Valid: true},
		MutedUntil: until,
		Reason:     sql.NullString{String: reason, Valid: reason != ""},
	}); err != nil {
		deps.Logger.ErrorContext(ctx, "Failed to record mute",
			"chat_id", chat.ChatID, "user_id", user.ID, "error", err)
	}
	return true
}

// NewRouletteHandler returns the handler for !рулетка: a 1-in-6 chance of a
// self-inflicted mute.
func NewRouletteHandler(deps HandlerDeps) BangHandlerFunc {
	log := deps.Logger.With("handler", "roulette")
	muteMinutes := int(deps.Config.Game.MuteDuration.Minutes())

	return func(ctx context.Context, b *tgbot.Bot, update *models.Update, _ string) {
		msg := update.Message
		name := fullName(msg.From)

		roll := rand.Intn(6) + 1
		if roll != 1 {
			reply(ctx, b, deps, msg.Chat.ID,
				fmt.Sprintf("🔫 *клик* — %s выбил %d из 6.\n😮‍💨 Повезло!", name, roll))
			return
		}

		chat, err := deps.Store.GetOrCreateChat(ctx, msg.Chat.ID, msg.Chat.Title)
		if err != nil {
			log.ErrorContext(ctx, "Failed to load chat", "chat_id", msg.Chat.ID, "error", err)
			return
		}

		until := deps.Clock.Now().UTC().Add(deps.Config.Game.MuteDuration)
		if recordMute(ctx, deps, chat, msg.From, until, "рулетка") {
			reply(ctx, b, deps, msg.Chat.ID,
				fmt.Sprintf("🔫 БАХ! %s выбил 1 из 6!\n🔇 Мут на %d минут!", name, muteMinutes))
		} else {
			reply(ctx, b, deps, msg.Chat.ID,
				fmt.Sprintf("🔫 БАХ! %s выбил 1 из 6!\n😅 Но у меня нет прав на мут...", name))
		}
	}
}

// NewClassicDuelHandler returns the handler for !дуель: a coin-flip duel with
// the replied-to user, the loser gets muted.
func NewClassicDuelHandler(deps HandlerDeps) BangHandlerFunc {
	log := deps.Logger.With("handler", "classic_duel")
	muteMinutes := int(deps.Config.Game.MuteDuration.Minutes())

	return func(ctx context.Context, b *tgbot.Bot, update *models.Update, _ string) {
		msg := update.Message

		if msg.ReplyToMessage == nil || msg.ReplyToMessage.From == nil {
			reply(ctx, b, deps, msg.Chat.ID, "❌ Ответь на сообщение того, с кем хочешь дуэль!")
			return
		}

		challenger := msg.From
		opponent := msg.ReplyToMessage.From

		if opponent.ID == challenger.ID {
			reply(ctx, b, deps, msg.Chat.ID, "❌ Нельзя дуэлить самого себя!")
			return
		}
		if opponent.IsBot {
			reply(ctx, b, deps, msg.Chat.ID, "❌ Нельзя дуэлить бота!")
			return
		}

		winner, loser := challenger, opponent
		if rand.Intn(2) == 1 {
			winner, loser = opponent, challenger
		}

		chat, err := deps.Store.GetOrCreateChat(ctx, msg.Chat.ID, msg.Chat.Title)
		if err != nil {
			log.ErrorContext(ctx, "Failed to load chat", "chat_id", msg.Chat.ID, "error", err)
			return
		}

		header := fmt.Sprintf("⚔️ <b>ДУЭЛЬ!</b>\n\n🆚 %s vs %s\n\n🏆 Победитель: <b>%s</b>!",
			html.EscapeString(fullName(challenger)),
			html.EscapeString(fullName(opponent)),
			html.EscapeString(fullName(winner)))

		until := deps.Clock.Now().UTC().Add(deps.Config.Game.MuteDuration)
		reason := fmt.Sprintf("дуэль с %s", fullName(winner))
		if recordMute(ctx, deps, chat, loser, until, reason) {
			replyHTML(ctx, b, deps, msg.Chat.ID,
				fmt.Sprintf("%s\n🔇 %s в муте на %d минут!",
					header, html.EscapeString(fullName(loser)), muteMinutes))
		} else {
			replyHTML(ctx, b, deps, msg.Chat.ID,
				fmt.Sprintf("%s\n😅 Но у меня нет прав на мут %s...",
					header, html.EscapeString(fullName(loser))))
		}
	}
}

// NewUnmuteAllHandler returns the handler for !анмут: lifting every active
// mute in the chat and clearing the records.
func NewUnmuteAllHandler(deps HandlerDeps) BangHandlerFunc {
	log := deps.Logger.With("handler", "unmute_all")

	return func(ctx context.Context, b *tgbot.Bot, update *models.Update, _ string) {
		msg := update.Message

		chat, err := deps.Store.GetChat(ctx, msg.Chat.ID)
		if err != nil {
			log.ErrorContext(ctx, "Failed to load chat", "chat_id", msg.Chat.ID, "error", err)
			return
		}
		if chat == nil {
			reply(ctx, b, deps, msg.Chat.ID, "✅ Никто не в муте!")
			return
		}

		muted, err := deps.Store.ActiveMutes(ctx, chat.ID, deps.Clock.Now().UTC())
		if err != nil {
			log.ErrorContext(ctx, "Failed to load active mutes", "chat_id", msg.Chat.ID, "error", err)
			return
		}
		if len(muted) == 0 {
			reply(ctx, b, deps, msg.Chat.ID, "✅ Никто не в муте!")
			return
		}

		unmuted := 0
		for _, m := range muted {
			if err := deps.Moderator.UnrestrictUser(ctx, chat.ChatID, m.UserID); err != nil {
				log.WarnContext(ctx, "Failed to unrestrict user",
					"chat_id", chat.ChatID, "user_id", m.UserID, "error", err)
				continue
			}
			unmuted++
		}

		if _, err := deps.Store.ClearMutes(ctx, chat.ID); err != nil {
			log.ErrorContext(ctx, "Failed to clear mute records", "chat_id", msg.Chat.ID, "error", err)
		}

		reply(ctx, b, deps, msg.Chat.ID, fmt.Sprintf("✅ Размучено пользователей: %d", unmuted))
	}
}

// Package handlers contains Telegram bot command and message handlers,
// along with their registration logic and middleware.
package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// AdminOnly restricts a handler to the configured admin user. Other senders
// get a rejection reply and the wrapped handler is never invoked.
func AdminOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			msg := update.Message
			if msg == nil || msg.From == nil {
				next(ctx, bot, update)
				return
			}

			if msg.From.ID != deps.Config.Telegram.AdminUserID {
				log := deps.Logger.With("middleware", "AdminOnly")
				log.WarnContext(ctx, "Unauthorized admin command",
					"user_id", msg.From.ID, "chat_id", msg.Chat.ID)

				if _, err := bot.SendMessage(ctx, &tgbot.SendMessageParams{
					ChatID: msg.Chat.ID,
					Text:   "⛔ Эта команда доступна только администратору.",
				}); err != nil {
					log.ErrorContext(ctx, "Failed to send rejection reply", "error", err, "chat_id", msg.Chat.ID)
				}
				return
			}

			next(ctx, bot, update)
		}
	}
}

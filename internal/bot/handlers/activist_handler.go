package handlers

import (
	"context"
	"fmt"
	"html"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"starostabot/internal/database"
)

func activistMention(a *database.Activist) string {
	if a.Username != "" {
		return "@" + a.Username
	}
	return a.FullName
}

// NewActivistInfoHandler returns the handler for !инфа <фамилия|@username>.
func NewActivistInfoHandler(deps HandlerDeps) BangHandlerFunc {
	log := deps.Logger.With("handler", "activist_info")

	return func(ctx context.Context, b *tgbot.Bot, update *models.Update, args string) {
		msg := update.Message

		if args == "" {
			replyHTML(ctx, b, deps, msg.Chat.ID,
				"❌ Укажи фамилию или юзернейм!\nПример: <code>!инфа Иванов</code> или <code>!инфа @username</code>")
			return
		}

		chat, err := deps.Store.GetChat(ctx, msg.Chat.ID)
		if err != nil {
			log.ErrorContext(ctx, "Failed to load chat", "chat_id", msg.Chat.ID, "error", err)
			return
		}
		if chat == nil {
			reply(ctx, b, deps, msg.Chat.ID, "❌ В этом чате ещё нет информации об активистах.")
			return
		}

		query := strings.TrimPrefix(args, "@")
		activist, err := deps.Store.FindActivist(ctx, chat.ID, query)
		if err != nil {
			log.ErrorContext(ctx, "Failed to find activist", "chat_id", msg.Chat.ID, "error", err)
			return
		}
		if activist == nil {
			reply(ctx, b, deps, msg.Chat.ID, fmt.Sprintf("❌ Активист «%s» не найден.", args))
			return
		}

		parts := []string{fmt.Sprintf("👤 <b>%s</b>", html.EscapeString(activist.FullName))}
		if activist.Username != "" {
			parts = append(parts, "📱 @"+activist.Username)
		}
		if activist.Role.Valid {
			parts = append(parts, "🎭 Роль: "+html.EscapeString(activist.Role.String))
		}
		if activist.Info.Valid {
			parts = append(parts, "\n📝 "+html.EscapeString(activist.Info.String))
		}

		replyHTML(ctx, b, deps, msg.Chat.ID, strings.Join(parts, "\n"))
	}
}

// ofTheDay loads a random activist when the arguments are exactly "дня".
// Returns nil without replying when the trigger word is wrong; replies with
// emptyMsg and returns nil when the roster is empty.
func ofTheDay(ctx context.Context, b *tgbot.Bot, deps HandlerDeps, update *models.Update, args, emptyMsg string) (*database.Chat, *database.Activist) {
	msg := update.Message

	if strings.ToLower(strings.TrimSpace(args)) != "дня" {
		return nil, nil
	}

	chat, err := deps.Store.GetChat(ctx, msg.Chat.ID)
	if err != nil {
		deps.Logger.ErrorContext(ctx, "Failed to load chat", "chat_id", msg.Chat.ID, "error", err)
		return nil, nil
	}
	if chat == nil {
		reply(ctx, b, deps, msg.Chat.ID, emptyMsg)
		return nil, nil
	}

	activist, err := deps.Store.RandomActivist(ctx, chat.ID)
	if err != nil {
		deps.Logger.ErrorContext(ctx, "Failed to pick activist", "chat_id", msg.Chat.ID, "error", err)
		return nil, nil
	}
	if activist == nil {
		reply(ctx, b, deps, msg.Chat.ID, emptyMsg)
		return nil, nil
	}

	return chat, activist
}

// NewActivistOfDayHandler returns the handler for !активист дня. In trainer
// chats the shout-out is titled "Тренер дня" instead.
func NewActivistOfDayHandler(deps HandlerDeps) BangHandlerFunc {
	return func(ctx context.Context, b *tgbot.Bot, update *models.Update, args string) {
		chat, activist := ofTheDay(ctx, b, deps, update, args, "❌ В этом чате ещё нет активистов!")
		if activist == nil {
			return
		}

		title, congrats := "Активист дня", "Сегодня ты главный!"
		if chat.Category == database.CategoryTrainer {
			title, congrats = "Тренер дня", "Сегодня ты лучший тренер!"
		}

		replyHTML(ctx, b, deps, update.Message.Chat.ID,
			fmt.Sprintf("🎉 <b>%s:</b> %s\n\nПоздравляем, %s! %s",
				title, activistMention(activist), html.EscapeString(activist.FullName), congrats))
	}
}

// NewTrainerOfDayHandler returns the handler for !тренер дня.
func NewTrainerOfDayHandler(deps HandlerDeps) BangHandlerFunc {
	return func(ctx context.Context, b *tgbot.Bot, update *models.Update, args string) {
		_, activist := ofTheDay(ctx, b, deps, update, args, "❌ В этом чате ещё нет тренеров!")
		if activist == nil {
			return
		}

		replyHTML(ctx, b, deps, update.Message.Chat.ID,
			fmt.Sprintf("🏋️ <b>Тренер дня:</b> %s\n\nПоздравляем, %s! Сегодня ты лучший тренер!",
				activistMention(activist), html.EscapeString(activist.FullName)))
	}
}

// NewSkripachOfDayHandler returns the handler for !скрипач дня, available
// only in trainer chats.
func NewSkripachOfDayHandler(deps HandlerDeps) BangHandlerFunc {
	log := deps.Logger.With("handler", "skripach_of_day")

	return func(ctx context.Context, b *tgbot.Bot, update *models.Update, args string) {
		msg := update.Message

		if strings.ToLower(strings.TrimSpace(args)) != "дня" {
			return
		}

		chat, err := deps.Store.GetChat(ctx, msg.Chat.ID)
		if err != nil {
			log.ErrorContext(ctx, "Failed to load chat", "chat_id", msg.Chat.ID, "error", err)
			return
		}
		if chat == nil {
			reply(ctx, b, deps, msg.Chat.ID, "❌ В этом чате ещё нет тренеров!")
			return
		}
		if chat.Category != database.CategoryTrainer {
			reply(ctx, b, deps, msg.Chat.ID, "🎻 Эта команда доступна только в тренерском чате!")
			return
		}

		activist, err := deps.Store.RandomActivist(ctx, chat.ID)
		if err != nil {
			log.ErrorContext(ctx, "Failed to pick activist", "chat_id", msg.Chat.ID, "error", err)
			return
		}
		if activist == nil {
			reply(ctx, b, deps, msg.Chat.ID, "❌ В этом чате ещё нет тренеров!")
			return
		}

		replyHTML(ctx, b, deps, msg.Chat.ID,
			fmt.Sprintf("🎻 <b>Скрипач дня:</b> %s\n\n%s, сегодня ты наш скрипач! 🎶",
				activistMention(activist), html.EscapeString(activist.FullName)))
	}
}

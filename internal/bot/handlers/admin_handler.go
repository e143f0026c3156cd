package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"starostabot/internal/database"
)

// NewChatTypeHandler returns the handler for /chat_type <default|trainer>:
// switching which "of the day" flavor the current chat uses.
func NewChatTypeHandler(deps HandlerDeps) tgbot.HandlerFunc {
	log := deps.Logger.With("handler", "chat_type")

	return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
		msg := update.Message
		if msg == nil || msg.From == nil {
			return
		}
		if !isGroupChat(msg.Chat.Type) {
			reply(ctx, b, deps, msg.Chat.ID, "❌ Эта команда работает только в группе.")
			return
		}

		parts := strings.Fields(msg.Text)
		if len(parts) != 2 || (parts[1] != database.CategoryDefault && parts[1] != database.CategoryTrainer) {
			replyHTML(ctx, b, deps, msg.Chat.ID,
				"❌ Укажи тип чата!\nПример: <code>/chat_type trainer</code> или <code>/chat_type default</code>")
			return
		}
		category := parts[1]

		// Make sure the chat exists before flipping its category.
		if _, err := deps.Store.GetOrCreateChat(ctx, msg.Chat.ID, msg.Chat.Title); err != nil {
			log.ErrorContext(ctx, "Failed to load chat", "chat_id", msg.Chat.ID, "error", err)
			return
		}

		ok, err := deps.Store.SetChatCategory(ctx, msg.Chat.ID, category)
		if err != nil || !ok {
			log.ErrorContext(ctx, "Failed to set chat category",
				"chat_id", msg.Chat.ID, "category", category, "error", err)
			reply(ctx, b, deps, msg.Chat.ID, "❌ Не получилось изменить тип чата.")
			return
		}

		label := "👥 обычный"
		if category == database.CategoryTrainer {
			label = "🏋️ тренерский"
		}
		reply(ctx, b, deps, msg.Chat.ID, fmt.Sprintf("✅ Тип чата изменён: %s", label))
	}
}

// NewAddActivistHandler returns the handler for /add_activist. The roster
// entry comes semicolon-separated: full name; username; [surname]; [role];
// [info].
func NewAddActivistHandler(deps HandlerDeps) tgbot.HandlerFunc {
	log := deps.Logger.With("handler", "add_activist")

	const usage = "❌ Формат: <code>/add_activist ФИО; username; [фамилия]; [роль]; [инфо]</code>\n" +
		"Пример: <code>/add_activist Иванов Иван; ivanov; Иванов; староста</code>"

	return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
		msg := update.Message
		if msg == nil || msg.From == nil {
			return
		}
		if !isGroupChat(msg.Chat.Type) {
			reply(ctx, b, deps, msg.Chat.ID, "❌ Эта команда работает только в группе.")
			return
		}

		_, args, _ := strings.Cut(msg.Text, " ")
		fields := strings.Split(args, ";")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		if len(fields) < 2 || fields[0] == "" || fields[1] == "" {
			replyHTML(ctx, b, deps, msg.Chat.ID, usage)
			return
		}

		activist := &database.Activist{
			FullName: fields[0],
			Username: strings.TrimPrefix(fields[1], "@"),
		}
		if len(fields) > 2 && fields[2] != "" {
			activist.Surname = sql.NullString{String: fields[2], Valid: true}
		}
		if len(fields) > 3 && fields[3] != "" {
			activist.Role = sql.NullString{String: fields[3], Valid: true}
		}
		if len(fields) > 4 && fields[4] != "" {
			activist.Info = sql.NullString{String: fields[4], Valid: true}
		}

		chat, err := deps.Store.GetOrCreateChat(ctx, msg.Chat.ID, msg.Chat.Title)
		if err != nil {
			log.ErrorContext(ctx, "Failed to load chat", "chat_id", msg.Chat.ID, "error", err)
			return
		}
		activist.ChatPK = chat.ID

		if err := deps.Store.AddActivist(ctx, activist); err != nil {
			log.ErrorContext(ctx, "Failed to save activist", "chat_id", msg.Chat.ID, "error", err)
			reply(ctx, b, deps, msg.Chat.ID, "❌ Не получилось сохранить активиста.")
			return
		}

		reply(ctx, b, deps, msg.Chat.ID,
			fmt.Sprintf("✅ Активист %s (@%s) добавлен!", activist.FullName, activist.Username))
	}
}

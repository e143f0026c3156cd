package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"html"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"starostabot/internal/database"
)

// NewAddQuoteHandler returns the handler for !цитата: saving the replied-to
// message as a quote.
func NewAddQuoteHandler(deps HandlerDeps) BangHandlerFunc {
	log := deps.Logger.With("handler", "add_quote")

	return func(ctx context.Context, b *tgbot.Bot, update *models.Update, _ string) {
		msg := update.Message

		if msg.ReplyToMessage == nil {
			reply(ctx, b, deps, msg.Chat.ID, "❌ Ответь на сообщение, чтобы сохранить его как цитату!")
			return
		}

		quoted := msg.ReplyToMessage
		text := quoted.Text
		if text == "" {
			text = quoted.Caption
		}
		if text == "" {
			reply(ctx, b, deps, msg.Chat.ID, "❌ В сообщении нет текста для цитаты!")
			return
		}

		chat, err := deps.Store.GetOrCreateChat(ctx, msg.Chat.ID, msg.Chat.Title)
		if err != nil {
			log.ErrorContext(ctx, "Failed to load chat", "chat_id", msg.Chat.ID, "error", err)
			return
		}

		quote := &database.Quote{
			ChatPK:      chat.ID,
			Text:        text,
			AddedByID:   msg.From.ID,
			AddedByName: sql.NullString{String: fullName(msg.From), Valid: true},
		}
		if quoted.From != nil {
			quote.AuthorName = sql.NullString{String: fullName(quoted.From), Valid: true}
			quote.AuthorID = sql.NullInt64{Int64: quoted.From.ID, Valid: true}
		}

		if err := deps.Store.SaveQuote(ctx, quote); err != nil {
			log.ErrorContext(ctx, "Failed to save quote", "chat_id", msg.Chat.ID, "error", err)
			reply(ctx, b, deps, msg.Chat.ID, "❌ Не получилось сохранить цитату, попробуй ещё раз.")
			return
		}

		reply(ctx, b, deps, msg.Chat.ID, fmt.Sprintf("✅ Цитата #%d сохранена!", quote.ID))
	}
}

// NewRandomQuoteHandler returns the handler for !мудрость: a random saved
// quote of the chat.
func NewRandomQuoteHandler(deps HandlerDeps) BangHandlerFunc {
	log := deps.Logger.With("handler", "random_quote")

	const emptyMsg = "📭 В этом чате ещё нет цитат. Добавь первую командой !цитата"

	return func(ctx context.Context, b *tgbot.Bot, update *models.Update, _ string) {
		msg := update.Message

		chat, err := deps.Store.GetChat(ctx, msg.Chat.ID)
		if err != nil {
			log.ErrorContext(ctx, "Failed to load chat", "chat_id", msg.Chat.ID, "error", err)
			return
		}
		if chat == nil {
			reply(ctx, b, deps, msg.Chat.ID, emptyMsg)
			return
		}

		quote, err := deps.Store.RandomQuote(ctx, chat.ID)
		if err != nil {
			log.ErrorContext(ctx, "Failed to load random quote", "chat_id", msg.Chat.ID, "error", err)
			return
		}
		if quote == nil {
			reply(ctx, b, deps, msg.Chat.ID, emptyMsg)
			return
		}

		author := ""
		if quote.AuthorName.Valid {
			author = fmt.Sprintf("\n\n— <i>%s</i>", html.EscapeString(quote.AuthorName.String))
		}
		replyHTML(ctx, b, deps, msg.Chat.ID,
			fmt.Sprintf("💬 <b>Мудрость #%d:</b>\n\n«%s»%s", quote.ID, html.EscapeString(quote.Text), author))
	}
}

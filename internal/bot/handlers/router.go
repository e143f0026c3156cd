package handlers

import (
	"context"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"starostabot/internal/command"
)

// BangHandlerFunc handles one bang command with its already-parsed arguments.
type BangHandlerFunc func(ctx context.Context, b *tgbot.Bot, update *models.Update, args string)

// NewRouter builds the default update handler. Bang commands and duel answers
// are plain text, not Telegram slash commands, so they cannot go through the
// library's command registry; everything that is not a recognized slash
// command lands here instead. Unknown bang tokens and non-command chatter are
// ignored silently.
func NewRouter(deps HandlerDeps) tgbot.HandlerFunc {
	log := deps.Logger.With("component", "router")

	bang := map[string]BangHandlerFunc{
		"цитата":      NewAddQuoteHandler(deps),
		"мудрость":    NewRandomQuoteHandler(deps),
		"кто":         NewWhoHandler(deps),
		"вероятность": NewProbabilityHandler(deps),
		"когда":       NewCountdownHandler(deps),
		"разбудить":   NewRemindHandler(deps),
		"матдуэль":    NewMathDuelHandler(deps),
		"рулетка":     NewRouletteHandler(deps),
		"дуель":       NewClassicDuelHandler(deps),
		"анмут":       NewUnmuteAllHandler(deps),
		"инфа":        NewActivistInfoHandler(deps),
		"активист":    NewActivistOfDayHandler(deps),
		"тренер":      NewTrainerOfDayHandler(deps),
		"скрипач":     NewSkripachOfDayHandler(deps),
	}

	duelAnswer := NewDuelAnswerHandler(deps)

	return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
		msg := update.Message
		if msg == nil || msg.Text == "" || msg.From == nil {
			return
		}
		if !isGroupChat(msg.Chat.Type) {
			return
		}

		if cmd, ok := command.Parse(msg.Text); ok {
			handler, known := bang[cmd.Name]
			if !known {
				return
			}
			log.DebugContext(ctx, "Dispatching bang command",
				"command", cmd.Name, "chat_id", msg.Chat.ID, "user_id", msg.From.ID)
			handler(ctx, b, update, cmd.Args)
			return
		}

		if command.IsDuelAnswer(msg.Text) {
			duelAnswer(ctx, b, update)
		}
	}
}

func isGroupChat(chatType models.ChatType) bool {
	return chatType == models.ChatTypeGroup || chatType == models.ChatTypeSupergroup
}

func fullName(u *models.User) string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// reply sends a plain text message to the update's chat, logging failures.
func reply(ctx context.Context, b *tgbot.Bot, deps HandlerDeps, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &tgbot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		deps.Logger.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID)
	}
}

// replyHTML sends an HTML-formatted message to the update's chat.
func replyHTML(ctx context.Context, b *tgbot.Bot, deps HandlerDeps, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		deps.Logger.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID)
	}
}

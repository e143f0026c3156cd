package handlers

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// dateTimePattern matches the leading "DD.MM.YYYY HH:MM" of the arguments.
var dateTimePattern = regexp.MustCompile(`^(\d{2})\.(\d{2})\.(\d{4})\s+(\d{2}):(\d{2})`)

const remindFormatHelp = "Формат: <code>!разбудить DD.MM.YYYY HH:MM текст</code>\n" +
	"Пример: <code>!разбудить 25.12.2025 10:00 С Новым годом!</code>"

// parseRemindArgs extracts the reminder moment and the trailing text from the
// command arguments. The moment is interpreted in the bot's local timezone.
func parseRemindArgs(args string) (time.Time, string, bool) {
	m := dateTimePattern.FindStringSubmatch(args)
	if m == nil {
		return time.Time{}, "", false
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])

	at := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.Local)
	// time.Date normalizes overflow (32.01 becomes 01.02); reject it instead.
	if at.Day() != day || at.Month() != time.Month(month) || at.Year() != year ||
		at.Hour() != hour || at.Minute() != minute {
		return time.Time{}, "", false
	}

	text := strings.TrimSpace(args[len(m[0]):])
	return at, text, true
}

// NewRemindHandler returns the handler for !разбудить: scheduling a one-shot
// reminder in the chat. Past moments are rejected here; the scheduler itself
// delivers whatever it is given.
func NewRemindHandler(deps HandlerDeps) BangHandlerFunc {
	log := deps.Logger.With("handler", "remind")

	return func(ctx context.Context, b *tgbot.Bot, update *models.Update, args string) {
		msg := update.Message

		if args == "" {
			replyHTML(ctx, b, deps, msg.Chat.ID, "❌ Укажи дату и время!\n"+remindFormatHelp)
			return
		}

		remindAt, text, ok := parseRemindArgs(args)
		if !ok {
			replyHTML(ctx, b, deps, msg.Chat.ID, "❌ Неверный формат даты!\n"+remindFormatHelp)
			return
		}

		if !remindAt.After(deps.Clock.Now()) {
			reply(ctx, b, deps, msg.Chat.ID, "❌ Нельзя установить напоминание в прошлое!")
			return
		}

		chat, err := deps.Store.GetOrCreateChat(ctx, msg.Chat.ID, msg.Chat.Title)
		if err != nil {
			log.ErrorContext(ctx, "Failed to load chat", "chat_id", msg.Chat.ID, "error", err)
			return
		}

		r, err := deps.Reminders.Schedule(ctx, chat.ID, text, remindAt, msg.From.ID, fullName(msg.From))
		if err != nil {
			log.ErrorContext(ctx, "Failed to schedule reminder", "chat_id", msg.Chat.ID, "error", err)
			reply(ctx, b, deps, msg.Chat.ID, "❌ Не получилось сохранить напоминание, попробуй ещё раз.")
			return
		}

		preview := ""
		if text != "" {
			preview = fmt.Sprintf("\n📝 Текст: %s", text)
		}
		reply(ctx, b, deps, msg.Chat.ID, fmt.Sprintf(
			"⏰ Напоминание #%d установлено!\n📅 Дата: %s%s",
			r.ID, remindAt.Format("02.01.2006 15:04"), preview))
	}
}

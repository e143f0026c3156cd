package handlers

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"html"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"starostabot/internal/members"
)

// NewWhoHandler returns the handler for !кто <текст>: a random chat member.
func NewWhoHandler(deps HandlerDeps) BangHandlerFunc {
	log := deps.Logger.With("handler", "who")

	return func(ctx context.Context, b *tgbot.Bot, update *models.Update, args string) {
		msg := update.Message

		if args == "" {
			replyHTML(ctx, b, deps, msg.Chat.ID,
				"❌ Укажи текст!\nПример: <code>!кто сегодня красавчик</code>")
			return
		}

		chat, err := deps.Store.GetOrCreateChat(ctx, msg.Chat.ID, msg.Chat.Title)
		if err != nil {
			log.ErrorContext(ctx, "Failed to load chat", "chat_id", msg.Chat.ID, "error", err)
			return
		}

		member, err := deps.Picker.Random(ctx, chat)
		if errors.Is(err, members.ErrNoMembers) {
			reply(ctx, b, deps, msg.Chat.ID, "❌ В этом чате ещё никто не писал!")
			return
		}
		if err != nil {
			log.ErrorContext(ctx, "Failed to pick member", "chat_id", msg.Chat.ID, "error", err)
			return
		}

		mention := member.Mention()
		if member.Username == "" {
			mention = fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`,
				member.UserID, html.EscapeString(member.FullName))
		}

		replyHTML(ctx, b, deps, msg.Chat.ID,
			fmt.Sprintf("🎯 <b>%s:</b>\n\n👉 %s", html.EscapeString(args), mention))
	}
}

// probabilityPercent folds the md5 digest of seed into 0..100. The digest is
// treated as a single big-endian integer so the remainder depends on all 128
// bits of it.
func probabilityPercent(seed string) int {
	sum := md5.Sum([]byte(seed))
	p := 0
	for _, c := range sum {
		p = (p*256 + int(c)) % 101
	}
	return p
}

// NewProbabilityHandler returns the handler for !вероятность <событие>.
// The percentage is derived from a hash of the event, the chat, and the
// current date, so repeating the question the same day gives the same answer.
func NewProbabilityHandler(deps HandlerDeps) BangHandlerFunc {
	return func(ctx context.Context, b *tgbot.Bot, update *models.Update, args string) {
		msg := update.Message

		if args == "" {
			replyHTML(ctx, b, deps, msg.Chat.ID,
				"❌ Укажи событие!\nПример: <code>!вероятность что завтра будет дождь</code>")
			return
		}

		today := deps.Clock.Now().Format("2006-01-02")
		seed := fmt.Sprintf("%s%s%d", strings.ToLower(args), today, msg.Chat.ID)
		probability := probabilityPercent(seed)

		var emoji string
		switch {
		case probability <= 10:
			emoji = "😢"
		case probability <= 30:
			emoji = "😕"
		case probability <= 50:
			emoji = "🤔"
		case probability <= 70:
			emoji = "😊"
		case probability <= 90:
			emoji = "😃"
		default:
			emoji = "🎉"
		}

		replyHTML(ctx, b, deps, msg.Chat.ID,
			fmt.Sprintf("🎲 Вероятность того, что <i>%s</i>:\n\n<b>%d%%</b> %s",
				html.EscapeString(args), probability, emoji))
	}
}

// NewCountdownHandler returns the handler for !когда: time left until the
// configured target date.
func NewCountdownHandler(deps HandlerDeps) BangHandlerFunc {
	target := deps.Config.Countdown.TargetTime()
	targetLabel := target.Format("02.01.2006")

	return func(ctx context.Context, b *tgbot.Bot, update *models.Update, _ string) {
		msg := update.Message
		now := deps.Clock.Now()

		if !now.Before(target) {
			reply(ctx, b, deps, msg.Chat.ID, fmt.Sprintf("🎉 %s уже наступило!", targetLabel))
			return
		}

		delta := target.Sub(now)
		days := int(delta.Hours()) / 24
		hours := int(delta.Hours()) % 24
		minutes := int(delta.Minutes()) % 60
		seconds := int(delta.Seconds()) % 60

		replyHTML(ctx, b, deps, msg.Chat.ID,
			fmt.Sprintf("⏳ <b>До %s осталось:</b>\n\n📅 %d дней\n🕐 %d часов\n⏱ %d минут\n⏰ %d секунд",
				targetLabel, days, hours, minutes, seconds))
	}
}

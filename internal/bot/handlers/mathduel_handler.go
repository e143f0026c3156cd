package handlers

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"starostabot/internal/duel"
)

// NewMathDuelHandler returns the handler for !матдуэль: challenging the
// replied-to user to an arithmetic race.
func NewMathDuelHandler(deps HandlerDeps) BangHandlerFunc {
	log := deps.Logger.With("handler", "math_duel")
	duelMinutes := int(deps.Config.Game.DuelDuration.Minutes())
	muteMinutes := int(deps.Config.Game.MuteDuration.Minutes())

	return func(ctx context.Context, b *tgbot.Bot, update *models.Update, _ string) {
		msg := update.Message

		if msg.ReplyToMessage == nil || msg.ReplyToMessage.From == nil {
			reply(ctx, b, deps, msg.Chat.ID, "❌ Ответь на сообщение того, с кем хочешь матдуэль!")
			return
		}

		opponent := msg.ReplyToMessage.From
		challenger := msg.From

		chat, err := deps.Store.GetOrCreateChat(ctx, msg.Chat.ID, msg.Chat.Title)
		if err != nil {
			log.ErrorContext(ctx, "Failed to load chat", "chat_id", msg.Chat.ID, "error", err)
			return
		}

		d, err := deps.Duels.Challenge(ctx, chat,
			duel.Participant{ID: challenger.ID, Name: fullName(challenger)},
			duel.Participant{ID: opponent.ID, Name: fullName(opponent), IsBot: opponent.IsBot})

		switch {
		case errors.Is(err, duel.ErrSelfChallenge):
			reply(ctx, b, deps, msg.Chat.ID, "❌ Нельзя дуэлить самого себя!")
			return
		case errors.Is(err, duel.ErrBotOpponent):
			reply(ctx, b, deps, msg.Chat.ID, "❌ Нельзя дуэлить бота!")
			return
		case errors.Is(err, duel.ErrChallengerBusy):
			reply(ctx, b, deps, msg.Chat.ID, "❌ У тебя уже есть активная дуэль! Сначала заверши её.")
			return
		case errors.Is(err, duel.ErrOpponentBusy):
			reply(ctx, b, deps, msg.Chat.ID,
				fmt.Sprintf("❌ У %s уже есть активная дуэль!", fullName(opponent)))
			return
		case err != nil:
			log.ErrorContext(ctx, "Failed to start duel", "chat_id", msg.Chat.ID, "error", err)
			return
		}

		replyHTML(ctx, b, deps, msg.Chat.ID, fmt.Sprintf(
			"🧮 <b>МАТДУЭЛЬ!</b>\n\n"+
				"⚔️ %s vs %s\n\n"+
				"📝 <b>Задача:</b> %s = ?\n\n"+
				"Кто первый напишет правильный ответ — победит!\n"+
				"Проигравший получит мут на %d минут.\n\n"+
				"⏱ Дуэль истекает через %d минут.",
			html.EscapeString(fullName(challenger)),
			html.EscapeString(fullName(opponent)),
			d.Expression, muteMinutes, duelMinutes))
	}
}

// NewDuelAnswerHandler returns the handler for bare numeric messages. If the
// sender has an active duel and the number is the right answer, they win and
// the loser gets muted; everything else is ignored so normal chatter with
// numbers stays untouched.
func NewDuelAnswerHandler(deps HandlerDeps) tgbot.HandlerFunc {
	log := deps.Logger.With("handler", "duel_answer")
	muteMinutes := int(deps.Config.Game.MuteDuration.Minutes())

	return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
		msg := update.Message

		answer, err := strconv.ParseInt(strings.TrimSpace(msg.Text), 10, 64)
		if err != nil {
			return
		}

		chat, err := deps.Store.GetChat(ctx, msg.Chat.ID)
		if err != nil {
			log.ErrorContext(ctx, "Failed to load chat", "chat_id", msg.Chat.ID, "error", err)
			return
		}
		if chat == nil {
			return
		}

		outcome, err := deps.Duels.Resolve(ctx, chat.ID, msg.From.ID, answer)
		if err != nil {
			log.ErrorContext(ctx, "Failed to resolve duel", "chat_id", msg.Chat.ID, "error", err)
			return
		}
		if outcome == nil {
			return
		}

		d := outcome.Duel
		winnerName := fullName(msg.From)
		loserName := d.OpponentName.String
		if outcome.LoserID == d.ChallengerID {
			loserName = d.ChallengerName.String
		}

		header := fmt.Sprintf("🎉 <b>ПОБЕДА!</b>\n\n🏆 %s первым решил: %s = <b>%d</b>",
			html.EscapeString(winnerName), d.Expression, d.Answer)

		loser := &models.User{ID: outcome.LoserID, FirstName: loserName}
		until := deps.Clock.Now().UTC().Add(deps.Config.Game.MuteDuration)
		reason := fmt.Sprintf("проиграл матдуэль %s", winnerName)
		if recordMute(ctx, deps, chat, loser, until, reason) {
			replyHTML(ctx, b, deps, msg.Chat.ID, fmt.Sprintf("%s\n\n🔇 %s в муте на %d минут!",
				header, html.EscapeString(loserName), muteMinutes))
		} else {
			replyHTML(ctx, b, deps, msg.Chat.ID, fmt.Sprintf("%s\n\n😅 Но у меня нет прав на мут %s...",
				header, html.EscapeString(loserName)))
		}
	}
}

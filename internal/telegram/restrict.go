package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Restrictor applies and lifts chat member restrictions.
type Restrictor interface {
	RestrictUser(ctx context.Context, chatID, userID int64, until time.Time) error
	UnrestrictUser(ctx context.Context, chatID, userID int64) error
}

// Client wraps the bot API for the handful of moderation and delivery calls
// the rest of the code needs.
type Client struct {
	bot *bot.Bot
}

// NewClient creates a Client around a connected bot instance.
func NewClient(b *bot.Bot) *Client {
	return &Client{bot: b}
}

// RestrictUser removes the user's permission to send messages until the
// given moment. The bot needs the restrict-members admin right in the chat.
func (c *Client) RestrictUser(ctx context.Context, chatID, userID int64, until time.Time) error {
	ok, err := c.bot.RestrictChatMember(ctx, &bot.RestrictChatMemberParams{
		ChatID:      chatID,
		UserID:      userID,
		Permissions: &models.ChatPermissions{CanSendMessages: false},
		UntilDate:   int(until.Unix()),
	})
	if err != nil {
		return fmt.Errorf("failed to restrict user %d in chat %d: %w", userID, chatID, err)
	}
	if !ok {
		return fmt.Errorf("telegram declined to restrict user %d in chat %d", userID, chatID)
	}
	return nil
}

// UnrestrictUser restores the default send permissions for the user.
func (c *Client) UnrestrictUser(ctx context.Context, chatID, userID int64) error {
	ok, err := c.bot.RestrictChatMember(ctx, &bot.RestrictChatMemberParams{
		ChatID: chatID,
		UserID: userID,
		Permissions: &models.ChatPermissions{
			CanSendMessages:       true,
			CanSendAudios:         true,
			CanSendDocuments:      true,
			CanSendPhotos:         true,
			CanSendVideos:         true,
			CanSendVideoNotes:     true,
			CanSendVoiceNotes:     true,
			CanSendPolls:          true,
			CanSendOtherMessages:  true,
			CanAddWebPagePreviews: true,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to unrestrict user %d in chat %d: %w", userID, chatID, err)
	}
	if !ok {
		return fmt.Errorf("telegram declined to unrestrict user %d in chat %d", userID, chatID)
	}
	return nil
}

// SendReminder delivers a reminder text to the chat.
func (c *Client) SendReminder(ctx context.Context, chatID int64, text string) error {
	_, err := c.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("failed to send reminder to chat %d: %w", chatID, err)
	}
	return nil
}

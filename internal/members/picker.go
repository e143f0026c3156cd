package members

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"starostabot/internal/database"
)

// ErrNoMembers is returned when neither the cache nor the database knows
// anyone in the chat.
var ErrNoMembers = errors.New("no known members in chat")

// memberCache is the cache surface the picker needs; *Cache satisfies it.
type memberCache interface {
	RandomMember(ctx context.Context, chatID int64) (*Member, error)
}

// Picker selects a random chat member, cache first. A cache failure is
// logged and degrades to the database rather than failing the pick.
type Picker struct {
	cache  memberCache
	store  database.Store
	logger *slog.Logger
}

// NewPicker creates a member picker.
func NewPicker(cache memberCache, store database.Store, logger *slog.Logger) *Picker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Picker{
		cache:  cache,
		store:  store,
		logger: logger.With("component", "member_picker"),
	}
}

// Random returns a random member of the chat, or ErrNoMembers.
func (p *Picker) Random(ctx context.Context, chat *database.Chat) (*Member, error) {
	cached, err := p.cache.RandomMember(ctx, chat.ChatID)
	if err != nil {
		p.logger.WarnContext(ctx, "Member cache unavailable, falling back to database",
			"chat_id", chat.ChatID, "error", err)
	}
	if cached != nil {
		return cached, nil
	}

	stored, err := p.store.RandomChatMember(ctx, chat.ID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, ErrNoMembers
	}

	return &Member{
		UserID:   stored.UserID,
		Username: stored.Username.String,
		FullName: stored.FullName,
	}, nil
}

// Mention renders the member for a chat message, preferring the username.
func (m *Member) Mention() string {
	if m.Username != "" {
		return "@" + m.Username
	}
	return m.FullName
}

// Package members tracks who writes in each chat. Sightings go to a Redis
// hash with a rolling TTL and to the database; random picks prefer the cache
// and fall back to the database when the cache is cold.
package members

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Member is a cached chat member entry.
type Member struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username,omitempty"`
	FullName string `json:"full_name"`
}

// DefaultTTL is how long a chat's member hash survives without activity.
const DefaultTTL = 24 * time.Hour

// redisClient is the slice of the go-redis API the cache uses. *redis.Client
// satisfies it.
type redisClient interface {
	Pipeline() redis.Pipeliner
	HRandField(ctx context.Context, key string, count int) *redis.StringSliceCmd
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd
}

// Cache stores chat members in Redis, one hash per chat keyed by user id.
// Every write refreshes the hash TTL, so quiet chats age out whole.
type Cache struct {
	rdb    redisClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache creates a member cache. A non-positive ttl falls back to
// DefaultTTL.
func NewCache(rdb redisClient, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Cache{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger.With("component", "member_cache"),
	}
}

func memberKey(chatID int64) string {
	return fmt.Sprintf("chat:%d:members", chatID)
}

// Remember records a member sighting and refreshes the hash TTL.
func (c *Cache) Remember(ctx context.Context, chatID int64, m Member) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode member %d: %w", m.UserID, err)
	}

	key := memberKey(chatID)
	pipe := c.rdb.Pipeline()
	pipe.HSet(ctx, key, strconv.FormatInt(m.UserID, 10), payload)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache member %d in chat %d: %w", m.UserID, chatID, err)
	}

	return nil
}

// RandomMember returns a uniformly random cached member of the chat, or
// nil, nil when the hash is empty or expired.
func (c *Cache) RandomMember(ctx context.Context, chatID int64) (*Member, error) {
	key := memberKey(chatID)

	values, err := c.rdb.HRandField(ctx, key, 1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to pick random member for chat %d: %w", chatID, err)
	}
	if len(values) == 0 {
		return nil, nil
	}

	raw, err := c.rdb.HGet(ctx, key, values[0]).Result()
	if err != nil {
		// The field can vanish between the two calls when the TTL fires.
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load cached member for chat %d: %w", chatID, err)
	}

	var m Member
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		c.logger.WarnContext(ctx, "Dropping corrupt cache entry",
			"chat_id", chatID, "field", values[0], "error", err)
		if delErr := c.rdb.HDel(ctx, key, values[0]).Err(); delErr != nil {
			c.logger.WarnContext(ctx, "Failed to drop corrupt cache entry",
				"chat_id", chatID, "field", values[0], "error", delErr)
		}
		return nil, nil
	}

	return &m, nil
}

package members

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	randVals []string
	randErr  error
	getVal   string
	getErr   error
	delErr   error
	deleted  []string
}

func (f *fakeRedis) Pipeline() redis.Pipeliner { return nil }

func (f *fakeRedis) HRandField(_ context.Context, _ string, _ int) *redis.StringSliceCmd {
	return redis.NewStringSliceResult(f.randVals, f.randErr)
}

func (f *fakeRedis) HGet(_ context.Context, _, _ string) *redis.StringCmd {
	return redis.NewStringResult(f.getVal, f.getErr)
}

func (f *fakeRedis) HDel(_ context.Context, _ string, fields ...string) *redis.IntCmd {
	f.deleted = append(f.deleted, fields...)
	return redis.NewIntResult(0, f.delErr)
}

func TestRandomMemberColdCache(t *testing.T) {
	cache := NewCache(&fakeRedis{}, 0, nil)

	m, err := cache.RandomMember(context.Background(), -1)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestRandomMemberVanishedField(t *testing.T) {
	cache := NewCache(&fakeRedis{randVals: []string{"10"}, getErr: redis.Nil}, 0, nil)

	m, err := cache.RandomMember(context.Background(), -1)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestRandomMemberDropsCorruptEntry(t *testing.T) {
	rdb := &fakeRedis{randVals: []string{"10"}, getVal: "{not json"}
	cache := NewCache(rdb, 0, nil)

	m, err := cache.RandomMember(context.Background(), -1)
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.Equal(t, []string{"10"}, rdb.deleted, "corrupt entries get evicted")
}

func TestRandomMemberCorruptEntryDropFailureIsLogged(t *testing.T) {
	rdb := &fakeRedis{
		randVals: []string{"10"},
		getVal:   "{not json",
		delErr:   errors.New("connection reset"),
	}
	var buf bytes.Buffer
	cache := NewCache(rdb, 0, slog.New(slog.NewTextHandler(&buf, nil)))

	m, err := cache.RandomMember(context.Background(), -1)
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.Contains(t, buf.String(), "Failed to drop corrupt cache entry")
}

func TestRandomMemberHealthyEntry(t *testing.T) {
	rdb := &fakeRedis{
		randVals: []string{"10"},
		getVal:   `{"user_id":10,"username":"vasya","full_name":"Вася"}`,
	}
	cache := NewCache(rdb, 0, nil)

	m, err := cache.RandomMember(context.Background(), -1)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, int64(10), m.UserID)
	assert.Equal(t, "@vasya", m.Mention())
}

package chat

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workflow-chat/internal/common/logger"
)

func TestResponseCacheKeyDeterministic(t *testing.T) {
	k1 := ResponseCacheKey("run the backup", "s1")
	k2 := ResponseCacheKey("run the backup", "s1")
	assert.Equal(t, k1, k2)
	assert.Contains(t, k1, responseKeyPrefix)
}

func TestResponseCacheKeyVariesByTextAndSession(t *testing.T) {
	base := ResponseCacheKey("run the backup", "s1")
	assert.NotEqual(t, base, ResponseCacheKey("run the backup", "s2"))
	assert.NotEqual(t, base, ResponseCacheKey("cancel the backup", "s1"))
}

func cacheUnderTest(t *testing.T, cache ResponseCache) {
	ctx := context.Background()
	key := ResponseCacheKey("run the backup", "s1")

	t.Run("miss on unknown key", func(t *testing.T) {
		_, ok := cache.Get(ctx, key)
		assert.False(t, ok)
	})

	t.Run("set then get", func(t *testing.T) {
		stored := &ChatResponse{
			ResponseID: "r1",
			SessionID:  "s1",
			Reply:      "Started the backup.",
			Type:       ResponseTriggered,
			CreatedAt:  time.Now().UTC().Truncate(time.Second),
		}
		cache.Set(ctx, key, stored)

		got, ok := cache.Get(ctx, key)
		require.True(t, ok)
		assert.Equal(t, "r1", got.ResponseID)
		assert.Equal(t, stored.Reply, got.Reply)
	})

	t.Run("hits are independent copies", func(t *testing.T) {
		first, ok := cache.Get(ctx, key)
		require.True(t, ok)
		first.Reply = "mutated"

		second, ok := cache.Get(ctx, key)
		require.True(t, ok)
		assert.Equal(t, "Started the backup.", second.Reply)
	})
}

func TestInMemoryResponseCache(t *testing.T) {
	cacheUnderTest(t, NewInMemoryResponseCache(time.Minute))
}

func TestRedisResponseCache(t *testing.T) {
	cacheUnderTest(t, NewRedisResponseCache(setupRedis(t), time.Minute, nil))
}

func TestInMemoryResponseCacheExpiry(t *testing.T) {
	cache := NewInMemoryResponseCache(10 * time.Millisecond)
	ctx := context.Background()
	key := ResponseCacheKey("run the backup", "s1")

	cache.Set(ctx, key, &ChatResponse{ResponseID: "r1"})
	_, ok := cache.Get(ctx, key)
	require.True(t, ok)

	time.Sleep(25 * time.Millisecond)

	_, ok = cache.Get(ctx, key)
	assert.False(t, ok)
}

// The error paths need a mock: miniredis can't be made to fail a command.

func TestRedisResponseCacheReadFailureIsAMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewRedisResponseCache(client, time.Minute, logger.NewTestLogger(t))
	key := ResponseCacheKey("run the backup", "s1")

	mock.ExpectGet(key).SetErr(errors.New("connection refused"))

	resp, ok := cache.Get(context.Background(), key)
	assert.False(t, ok)
	assert.Nil(t, resp)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisResponseCacheCorruptPayloadEvicted(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewRedisResponseCache(client, time.Minute, logger.NewTestLogger(t))
	key := ResponseCacheKey("run the backup", "s1")

	mock.ExpectGet(key).SetVal("{not json")
	mock.ExpectDel(key).SetVal(1)

	resp, ok := cache.Get(context.Background(), key)
	assert.False(t, ok)
	assert.Nil(t, resp)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisResponseCacheWriteFailureIsSilent(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewRedisResponseCache(client, time.Minute, logger.NewTestLogger(t))
	key := ResponseCacheKey("run the backup", "s1")

	stored := &ChatResponse{ResponseID: "r1", SessionID: "s1", Type: ResponseTriggered}
	payload, err := json.Marshal(stored)
	require.NoError(t, err)
	mock.ExpectSet(key, payload, time.Minute).SetErr(errors.New("connection refused"))

	cache.Set(context.Background(), key, stored)
	require.NoError(t, mock.ExpectationsWereMet())
}

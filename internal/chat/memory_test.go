package chat

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workflow-chat/internal/models"
)

func setupRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func sessionWithAge(id string, age time.Duration) *models.ChatSession {
	ts := time.Now().Add(-age)
	return &models.ChatSession{
		SessionID:    id,
		CreatedAt:    ts,
		LastActiveAt: ts,
		Messages: []models.ChatMessage{
			{Role: models.RoleUser, Content: "run the backup", Timestamp: ts},
		},
	}
}

// storeUnderTest runs the same contract checks against both implementations.
func storeUnderTest(t *testing.T, store ConversationStore) {
	ctx := context.Background()

	t.Run("retrieve missing session", func(t *testing.T) {
		_, err := store.Retrieve(ctx, "nope")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("store and retrieve", func(t *testing.T) {
		require.NoError(t, store.Store(ctx, sessionWithAge("s1", 0)))

		got, err := store.Retrieve(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "s1", got.SessionID)
		require.Len(t, got.Messages, 1)
		assert.Equal(t, "run the backup", got.Messages[0].Content)
	})

	t.Run("update requires existing session", func(t *testing.T) {
		err := store.Update(ctx, sessionWithAge("ghost", 0))
		assert.ErrorIs(t, err, ErrSessionNotFound)

		session, err := store.Retrieve(ctx, "s1")
		require.NoError(t, err)
		session.Messages = append(session.Messages, models.ChatMessage{
			Role: models.RoleAssistant, Content: "done", Timestamp: time.Now(),
		})
		require.NoError(t, store.Update(ctx, session))

		got, err := store.Retrieve(ctx, "s1")
		require.NoError(t, err)
		assert.Len(t, got.Messages, 2)
	})

	t.Run("store rejects empty session id", func(t *testing.T) {
		assert.ErrorIs(t, store.Store(ctx, &models.ChatSession{}), ErrInvalidChatContext)
	})

	t.Run("cleanup removes only stale sessions and reports the count", func(t *testing.T) {
		require.NoError(t, store.Store(ctx, sessionWithAge("stale-1", 2*time.Hour)))
		require.NoError(t, store.Store(ctx, sessionWithAge("stale-2", 3*time.Hour)))
		require.NoError(t, store.Store(ctx, sessionWithAge("fresh", time.Minute)))

		removed, err := store.CleanupExpired(ctx, time.Hour)
		require.NoError(t, err)
		assert.Equal(t, 2, removed)

		_, err = store.Retrieve(ctx, "stale-1")
		assert.ErrorIs(t, err, ErrSessionNotFound)
		_, err = store.Retrieve(ctx, "fresh")
		assert.NoError(t, err)

		removed, err = store.CleanupExpired(ctx, time.Hour)
		require.NoError(t, err)
		assert.Zero(t, removed, "a second cleanup has nothing left to remove")
	})
}

func TestInMemoryStore(t *testing.T) {
	storeUnderTest(t, NewInMemoryStore())
}

func TestRedisStore(t *testing.T) {
	client := setupRedis(t)
	storeUnderTest(t, NewRedisStore(client, time.Hour, nil))
}

func TestInMemoryStoreCopiesSessions(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	original := sessionWithAge("s1", 0)
	require.NoError(t, store.Store(ctx, original))

	original.UserID = "mutated-after-store"

	got, err := store.Retrieve(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got.UserID)
}

func TestInMemoryStoreCopiesMessageHistory(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	original := sessionWithAge("s1", 0)
	// Spare capacity so a later append writes into the same backing array.
	original.Messages = append(make([]models.ChatMessage, 0, 4), original.Messages...)
	require.NoError(t, store.Store(ctx, original))

	original.Messages[0].Content = "rewritten after store"
	original.Messages = append(original.Messages,
		models.ChatMessage{Role: models.RoleAssistant, Content: "sneaky extra turn"})

	got, err := store.Retrieve(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "run the backup", got.Messages[0].Content)

	// The retrieved copy must not alias the stored history either.
	got.Messages[0].Content = "mutated retrieval"
	again, err := store.Retrieve(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "run the backup", again.Messages[0].Content)
}

func TestRedisStoreCleanupSkipsFreshKeys(t *testing.T) {
	client := setupRedis(t)
	store := NewRedisStore(client, time.Hour, nil)
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, sessionWithAge("fresh", 0)))

	removed, err := store.CleanupExpired(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

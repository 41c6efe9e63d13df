package chat

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"workflow-chat/internal/common/logger"
)

const responseKeyPrefix = "chat:resp:"

// ResponseCacheKey derives the deterministic cache key for one utterance in
// one session. The text is hashed in its normalized form so trivial
// punctuation or casing differences still hit.
func ResponseCacheKey(normalizedText, sessionID string) string {
	sum := sha256.Sum256([]byte(normalizedText + "\x00" + sessionID))
	return responseKeyPrefix + hex.EncodeToString(sum[:])
}

// ResponseCache returns previously computed responses for identical
// (normalized text, session) pairs. A failed lookup is a miss; callers never
// see cache errors.
type ResponseCache interface {
	Get(ctx context.Context, key string) (*ChatResponse, bool)
	Set(ctx context.Context, key string, response *ChatResponse)
}

// ============================================
// IN-MEMORY CACHE
// ============================================

type memoryCacheEntry struct {
	payload   []byte
	expiresAt time.Time
}

// InMemoryResponseCache holds serialized responses with a TTL. Entries are
// stored as JSON so every hit yields an independent copy.
type InMemoryResponseCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryCacheEntry
}

func NewInMemoryResponseCache(ttl time.Duration) *InMemoryResponseCache {
	return &InMemoryResponseCache{
		ttl:     ttl,
		entries: make(map[string]memoryCacheEntry),
	}
}

func (c *InMemoryResponseCache) Get(_ context.Context, key string) (*ChatResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	var resp ChatResponse
	if err := json.Unmarshal(entry.payload, &resp); err != nil {
		delete(c.entries, key)
		return nil, false
	}
	return &resp, true
}

func (c *InMemoryResponseCache) Set(_ context.Context, key string, response *ChatResponse) {
	payload, err := json.Marshal(response)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryCacheEntry{
		payload:   payload,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// ============================================
// REDIS CACHE
// ============================================

// RedisResponseCache shares responses across instances. Redis expires the
// keys itself.
type RedisResponseCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewRedisResponseCache(client *redis.Client, ttl time.Duration, log logger.Logger) *RedisResponseCache {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &RedisResponseCache{
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "response-cache"}),
	}
}

func (c *RedisResponseCache) Get(ctx context.Context, key string) (*ChatResponse, bool) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("response cache read failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, false
	}
	var resp ChatResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		c.logger.Warn("response cache held invalid payload", map[string]interface{}{
			"error": err.Error(),
		})
		_ = c.client.Del(ctx, key).Err()
		return nil, false
	}
	return &resp, true
}

func (c *RedisResponseCache) Set(ctx context.Context, key string, response *ChatResponse) {
	payload, err := json.Marshal(response)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("response cache write failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

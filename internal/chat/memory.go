package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"workflow-chat/internal/common/logger"
	"workflow-chat/internal/common/metrics"
	"workflow-chat/internal/models"
)

const sessionKeyPrefix = "chat:session:"

// ConversationStore keeps per-session message history. Store upserts,
// Update requires the session to exist, CleanupExpired removes sessions
// whose last activity is older than maxAge and returns how many it removed.
type ConversationStore interface {
	Store(ctx context.Context, session *models.ChatSession) error
	Retrieve(ctx context.Context, sessionID string) (*models.ChatSession, error)
	Update(ctx context.Context, session *models.ChatSession) error
	CleanupExpired(ctx context.Context, maxAge time.Duration) (int, error)
}

// lastActivity is the timestamp cleanup measures age against: the newest
// message, then LastActiveAt, then CreatedAt.
func lastActivity(s *models.ChatSession) time.Time {
	if n := len(s.Messages); n > 0 && !s.Messages[n-1].Timestamp.IsZero() {
		return s.Messages[n-1].Timestamp
	}
	if !s.LastActiveAt.IsZero() {
		return s.LastActiveAt
	}
	return s.CreatedAt
}

// ============================================
// IN-MEMORY STORE
// ============================================

// InMemoryStore keeps sessions in a mutex-guarded map. Suitable for a single
// process; the Redis store covers multi-instance deployments.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.ChatSession
}

// cloneSession copies the session including the Messages backing array, so
// neither the caller nor the store can mutate the other's history.
func cloneSession(s *models.ChatSession) *models.ChatSession {
	copied := *s
	if s.Messages != nil {
		copied.Messages = make([]models.ChatMessage, len(s.Messages))
		copy(copied.Messages, s.Messages)
	}
	return &copied
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*models.ChatSession)}
}

func (s *InMemoryStore) Store(_ context.Context, session *models.ChatSession) error {
	if session == nil || session.SessionID == "" {
		return fmt.Errorf("%w: session id is required", ErrInvalidChatContext)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.SessionID] = cloneSession(session)
	metrics.ConversationSessions.Set(float64(len(s.sessions)))
	return nil
}

func (s *InMemoryStore) Retrieve(_ context.Context, sessionID string) (*models.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return cloneSession(session), nil
}

func (s *InMemoryStore) Update(_ context.Context, session *models.ChatSession) error {
	if session == nil || session.SessionID == "" {
		return fmt.Errorf("%w: session id is required", ErrInvalidChatContext)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.SessionID]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, session.SessionID)
	}
	s.sessions[session.SessionID] = cloneSession(session)
	return nil
}

func (s *InMemoryStore) CleanupExpired(_ context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if lastActivity(session).Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	metrics.ConversationSessions.Set(float64(len(s.sessions)))
	return removed, nil
}

// Len reports the number of live sessions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ============================================
// REDIS STORE
// ============================================

// RedisStore keeps sessions as JSON under chat:session:<id>. Keys carry a
// TTL as a backstop; CleanupExpired still scans so the removed count is
// accurate.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewRedisStore(client *redis.Client, ttl time.Duration, log logger.Logger) *RedisStore {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &RedisStore{
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "conversation-store"}),
	}
}

func (s *RedisStore) Store(ctx context.Context, session *models.ChatSession) error {
	if session == nil || session.SessionID == "" {
		return fmt.Errorf("%w: session id is required", ErrInvalidChatContext)
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+session.SessionID, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *RedisStore) Retrieve(ctx context.Context, sessionID string) (*models.ChatSession, error) {
	payload, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("retrieve session: %w", err)
	}
	var session models.ChatSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

func (s *RedisStore) Update(ctx context.Context, session *models.ChatSession) error {
	if session == nil || session.SessionID == "" {
		return fmt.Errorf("%w: session id is required", ErrInvalidChatContext)
	}
	exists, err := s.client.Exists(ctx, sessionKeyPrefix+session.SessionID).Result()
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, session.SessionID)
	}
	return s.Store(ctx, session)
}

func (s *RedisStore) CleanupExpired(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	iter := s.client.Scan(ctx, 0, sessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		payload, err := s.client.Get(ctx, key).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			s.logger.Warn("cleanup could not read session", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
			continue
		}

		var session models.ChatSession
		if err := json.Unmarshal(payload, &session); err != nil {
			// Unreadable payloads count as expired.
			if s.client.Del(ctx, key).Err() == nil {
				removed++
			}
			continue
		}

		if lastActivity(&session).Before(cutoff) {
			if err := s.client.Del(ctx, key).Err(); err != nil {
				s.logger.Warn("cleanup could not delete session", map[string]interface{}{
					"key":   key,
					"error": err.Error(),
				})
				continue
			}
			removed++
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("scan sessions: %w", err)
	}
	return removed, nil
}

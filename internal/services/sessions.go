package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"safeguard-go/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	sessionKeyPrefix = "session:"
	eventChannelBase = "session-events:"
)

// SessionStore keeps sign-in sessions in Redis and fans session events out
// over Redis pub/sub.
type SessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionStore(rdb *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func EventChannel(userID string) string {
	return eventChannelBase + userID
}

func (s *SessionStore) Create(ctx context.Context, userID string) (string, error) {
	sessionID := uuid.NewString()
	if err := s.rdb.Set(ctx, sessionKey(sessionID), userID, s.ttl).Err(); err != nil {
		return "", WrapError(err, "create session")
	}
	return sessionID, nil
}

// Lookup returns the user owning sessionID, or 401 when it was revoked or expired.
func (s *SessionStore) Lookup(ctx context.Context, sessionID string) (string, error) {
	userID, err := s.rdb.Get(ctx, sessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrUnauthorized("Session expired")
	}
	if err != nil {
		return "", WrapError(err, "lookup session")
	}
	return userID, nil
}

// Extend resets the session TTL, used on token refresh.
func (s *SessionStore) Extend(ctx context.Context, sessionID string) error {
	ok, err := s.rdb.Expire(ctx, sessionKey(sessionID), s.ttl).Result()
	if err != nil {
		return WrapError(err, "extend session")
	}
	if !ok {
		return ErrUnauthorized("Session expired")
	}
	return nil
}

func (s *SessionStore) Revoke(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, sessionKey(sessionID)).Err()
}

func (s *SessionStore) Publish(ctx context.Context, userID string, event models.SessionEventType, sessionID string) error {
	payload, err := json.Marshal(models.SessionEvent{
		Event:     event,
		UserID:    userID,
		SessionID: sessionID,
		At:        time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return s.rdb.Publish(ctx, EventChannel(userID), payload).Err()
}

// Subscribe returns a subscription to userID's session events. The caller
// closes it.
func (s *SessionStore) Subscribe(ctx context.Context, userID string) *redis.PubSub {
	return s.rdb.Subscribe(ctx, EventChannel(userID))
}

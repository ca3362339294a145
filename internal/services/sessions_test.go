package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"safeguard-go/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewSessionStore(rdb, time.Hour), mr
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	store, mr := newSessionStore(t)

	sid, err := store.Create(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("session:"+sid))
	assert.Equal(t, time.Hour, mr.TTL("session:"+sid))

	userID, err := store.Lookup(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	require.NoError(t, store.Revoke(ctx, sid))
	_, err = store.Lookup(ctx, sid)
	requireStatus(t, err, 401)
	requireStatus(t, store.Extend(ctx, sid), 401)
}

func TestSessionExpires(t *testing.T) {
	ctx := context.Background()
	store, mr := newSessionStore(t)
	sid, err := store.Create(ctx, "user-1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)
	_, err = store.Lookup(ctx, sid)
	requireStatus(t, err, 401)
}

func TestSessionEventsArePublished(t *testing.T) {
	ctx := context.Background()
	store, _ := newSessionStore(t)

	sub := store.Subscribe(ctx, "user-1")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Publish(ctx, "user-1", models.EventUserUpdated, "sid-1"))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "session-events:user-1", msg.Channel)

	var event models.SessionEvent
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
	assert.Equal(t, models.EventUserUpdated, event.Event)
	assert.Equal(t, "user-1", event.UserID)
	assert.Equal(t, "sid-1", event.SessionID)
}

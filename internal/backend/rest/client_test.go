package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"safeguard-go/internal/backend"
	"safeguard-go/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func authBody(access, sid string) map[string]interface{} {
	return map[string]interface{}{
		"session": map[string]interface{}{
			"accessToken":  access,
			"refreshToken": "refresh-" + sid,
			"expiresAt":    time.Now().Add(time.Hour).Unix(),
			"sessionId":    sid,
		},
		"user": map[string]string{"id": "u-1", "email": "ana@example.com"},
	}
}

func newTestClient(t *testing.T, mux http.Handler, store TokenStore) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	if store == nil {
		store = &MemoryTokenStore{}
	}
	client, err := New(srv.URL, store, 5*time.Second, zap.NewNop())
	require.NoError(t, err)
	return client, srv
}

func signedInStore(access string) *MemoryTokenStore {
	store := &MemoryTokenStore{}
	_ = store.Save(&backend.Session{
		AccessToken:  access,
		RefreshToken: "refresh-s-1",
		SessionID:    "s-1",
		User:         backend.Identity{ID: "u-1", Email: "ana@example.com"},
	})
	return store
}

func TestSignInStoresSessionAndAuthorizesLaterCalls(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		var creds credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "ana@example.com", creds.Email)
		writeJSON(w, http.StatusOK, authBody("access-1", "s-1"))
	})
	mux.HandleFunc("GET /api/profiles/u-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]interface{}{"id": "u-1", "email": "ana@example.com", "role": "user"})
	})
	store := &MemoryTokenStore{}
	client, _ := newTestClient(t, mux, store)

	var events []models.SessionEventType
	unsubscribe := client.OnSessionChange(func(change backend.SessionChange) {
		events = append(events, change.Event)
		require.NotNil(t, change.Session)
		assert.Equal(t, "u-1", change.Session.User.ID)
	})
	defer unsubscribe()

	session, err := client.SignIn(context.Background(), "ana@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "s-1", session.SessionID)
	assert.Equal(t, "ana@example.com", session.User.Email)
	assert.Equal(t, []models.SessionEventType{models.EventSignedIn}, events)

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "access-1", saved.AccessToken)

	user, err := client.GetProfile(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
}

func TestErrorResponsesBecomeStatusErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sos/alerts", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "An SOS alert is already active"})
	})
	client, _ := newTestClient(t, mux, signedInStore("access-1"))

	_, err := client.CreateAlert(context.Background(), models.NewAlert{Latitude: 1, Longitude: 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, backend.ErrConflict))
	assert.Equal(t, "An SOS alert is already active", err.Error())
}

func TestCurrentIdentityRefreshesExpiredToken(t *testing.T) {
	var userCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/user", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&userCalls, 1)
		if r.Header.Get("Authorization") != "Bearer access-2" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Authentication failed"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"user": map[string]string{"id": "u-1", "email": "ana@example.com"}})
	})
	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "refresh-s-1", req["refreshToken"])
		writeJSON(w, http.StatusOK, authBody("access-2", "s-1"))
	})
	client, _ := newTestClient(t, mux, signedInStore("access-1"))

	var events []models.SessionEventType
	client.OnSessionChange(func(change backend.SessionChange) { events = append(events, change.Event) })

	identity, err := client.CurrentIdentity(context.Background())
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, "u-1", identity.ID)
	assert.Equal(t, int32(2), atomic.LoadInt32(&userCalls))
	assert.Equal(t, []models.SessionEventType{models.EventTokenRefreshed}, events)
}

func TestCurrentIdentityForgetsRevokedSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/user", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Authentication failed"})
	})
	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Authentication failed"})
	})
	store := signedInStore("access-1")
	client, _ := newTestClient(t, mux, store)

	var events []models.SessionEventType
	client.OnSessionChange(func(change backend.SessionChange) {
		events = append(events, change.Event)
		assert.Nil(t, change.Session)
	})

	identity, err := client.CurrentIdentity(context.Background())
	require.NoError(t, err)
	assert.Nil(t, identity)
	assert.Equal(t, []models.SessionEventType{models.EventSignedOut}, events)
	saved, _ := store.Load()
	assert.Nil(t, saved)
}

func TestCurrentIdentitySignedOut(t *testing.T) {
	client, _ := newTestClient(t, http.NewServeMux(), nil)
	identity, err := client.CurrentIdentity(context.Background())
	require.NoError(t, err)
	assert.Nil(t, identity)
}

func TestSignOutFailureKeepsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/signout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	})
	client, _ := newTestClient(t, mux, signedInStore("access-1"))

	err := client.SignOut(context.Background())
	require.Error(t, err)
	assert.NotNil(t, client.currentSession())
}

func TestSignOutClearsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/signout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	store := signedInStore("access-1")
	client, _ := newTestClient(t, mux, store)

	var events []models.SessionEventType
	client.OnSessionChange(func(change backend.SessionChange) { events = append(events, change.Event) })

	require.NoError(t, client.SignOut(context.Background()))
	assert.Nil(t, client.currentSession())
	assert.Equal(t, []models.SessionEventType{models.EventSignedOut}, events)
}

func TestActiveAlertNoneIsNil(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/sos/alerts", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "active", r.URL.Query().Get("status"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, []interface{}{})
	})
	client, _ := newTestClient(t, mux, signedInStore("access-1"))

	alert, err := client.ActiveAlert(context.Background())
	require.NoError(t, err)
	assert.Nil(t, alert)
}

func TestListResourcesSendsFilter(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/resources", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "rights", r.URL.Query().Get("category"))
		assert.Equal(t, "police report", r.URL.Query().Get("q"))
		writeJSON(w, http.StatusOK, []map[string]interface{}{{"id": "r-1", "category": "rights", "title": "Your rights"}})
	})
	client, _ := newTestClient(t, mux, signedInStore("access-1"))

	resources, err := client.ListResources(context.Background(), models.ResourceFilter{Category: "rights", Search: "police report"})
	require.NoError(t, err)
	require.Len(t, resources, 1)
	assert.Equal(t, "Your rights", resources[0].Title)
}

func TestUpvoteReturnsCount(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/forum/posts/p-1/upvote", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]int{"upvotes": 4})
	})
	client, _ := newTestClient(t, mux, signedInStore("access-1"))

	count, err := client.UpvotePost(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestUploadEvidenceSendsMultipart(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/incidents/i-1/evidence", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		content, _ := io.ReadAll(file)
		assert.Equal(t, "photo.jpg", header.Filename)
		assert.Equal(t, "jpeg-bytes", string(content))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"id":             "i-1",
			"status":         "new",
			"evidence_files": []map[string]string{{"name": "photo.jpg", "url": "/api/media/assets/a-1/content"}},
		})
	})
	client, _ := newTestClient(t, mux, signedInStore("access-1"))

	incident, err := client.UploadEvidence(context.Background(), "i-1", "photo.jpg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	require.Len(t, incident.EvidenceFiles, 1)
	assert.Equal(t, "/api/media/assets/a-1/content", incident.EvidenceFiles[0].URL)
	assert.True(t, strings.HasSuffix(client.AssetURL(incident.EvidenceFiles[0].URL), "/api/media/assets/a-1/content"))
}

func TestWatchSessionEventsHandlesRemoteSignOut(t *testing.T) {
	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/session", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "access-1", r.URL.Query().Get("token"))
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		_ = conn.WriteJSON(models.SessionEvent{Event: models.EventSignedIn, UserID: "u-1", SessionID: "s-2"})
		_ = conn.WriteJSON(models.SessionEvent{Event: models.EventSignedOut, UserID: "u-1", SessionID: "s-other"})
		_ = conn.WriteJSON(models.SessionEvent{Event: models.EventSignedOut, UserID: "u-1", SessionID: "s-1"})
	})
	client, _ := newTestClient(t, mux, signedInStore("access-1"))

	var changes []backend.SessionChange
	client.OnSessionChange(func(change backend.SessionChange) { changes = append(changes, change) })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := client.WatchSessionEvents(ctx)
	require.Error(t, err)

	require.Len(t, changes, 2)
	assert.Equal(t, models.EventSignedIn, changes[0].Event)
	assert.NotNil(t, changes[0].Session)
	assert.Equal(t, models.EventSignedOut, changes[1].Event)
	assert.Nil(t, changes[1].Session)
	assert.Nil(t, client.currentSession())
}

func TestWatchSessionEventsRequiresSession(t *testing.T) {
	client, _ := newTestClient(t, http.NewServeMux(), nil)
	assert.ErrorIs(t, client.WatchSessionEvents(context.Background()), ErrNoSession)
}

func TestFileTokenStore(t *testing.T) {
	store := FileTokenStore{Path: filepath.Join(t.TempDir(), "nested", "session.json")}

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)

	require.NoError(t, store.Save(&backend.Session{AccessToken: "a", RefreshToken: "r", SessionID: "s", User: backend.Identity{ID: "u"}}))
	loaded, err = store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "u", loaded.User.ID)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	loaded, err = store.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSocketURL(t *testing.T) {
	got, err := socketURL("https://api.example.com/", "/ws/session", "t 1")
	require.NoError(t, err)
	assert.Equal(t, "wss://api.example.com/ws/session?token=t+1", got)

	got, err = socketURL("http://localhost:8080", "/ws/session", "abc")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/ws/session?token=abc", got)
}

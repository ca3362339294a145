package rest

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"safeguard-go/internal/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ErrNoSession is returned by WatchSessionEvents when nobody is signed in.
var ErrNoSession = errors.New("no session to watch")

// WatchSessionEvents streams the signed-in user's session events from the
// backend and forwards them to OnSessionChange listeners. It returns when ctx
// is done or the socket closes. A remote SIGNED_OUT for this client's own
// session drops the local session before listeners run.
func (c *Client) WatchSessionEvents(ctx context.Context) error {
	session := c.currentSession()
	if session == nil {
		return ErrNoSession
	}
	endpoint, err := socketURL(c.baseURL, "/ws/session", session.AccessToken)
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		var event models.SessionEvent
		if err := conn.ReadJSON(&event); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		c.logger.Debug("session event", zap.String("event", string(event.Event)), zap.String("session_id", event.SessionID))
		if event.Event == models.EventSignedOut {
			current := c.currentSession()
			if current == nil || current.SessionID != event.SessionID {
				continue
			}
			c.setSession(nil)
		}
		c.notify(event.Event)
	}
}

func socketURL(base, path, token string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/") + path)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"safeguard-go/internal/models"
	"safeguard-go/internal/services"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *Server) socketClaims(w http.ResponseWriter, r *http.Request) (services.Claims, bool) {
	token := r.URL.Query().Get("token")
	if token == "" {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return services.Claims{}, false
	}
	claims, err := s.authenticate(r.Context(), token)
	if err != nil {
		s.writeServiceError(w, r, err)
		return services.Claims{}, false
	}
	return claims, true
}

// SessionSocket forwards the caller's session events until either side hangs up.
func (s *Server) SessionSocket(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.socketClaims(w, r)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := s.Sessions.Subscribe(ctx, claims.UserID)
	defer sub.Close()

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var event models.SessionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				s.Logger.Warn("bad session event", zap.Error(err))
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}

// AlertSocket streams SOS activations and resolutions to admins.
func (s *Server) AlertSocket(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.socketClaims(w, r)
	if !ok {
		return
	}
	admin, err := s.hasRole(claims.UserID, models.RoleAdmin)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !admin {
		WriteError(w, http.StatusForbidden, "Not allowed")
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.AlertHub.Add(conn)
	s.Metrics.alertSockets.Inc()
	defer func() {
		s.AlertHub.Remove(conn)
		s.Metrics.alertSockets.Dec()
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

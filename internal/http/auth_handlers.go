package httpapi

import (
	"net/http"

	"safeguard-go/internal/models"
	"safeguard-go/internal/services"

	"go.uber.org/zap"
)

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type IdentityDTO struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type AuthResponse struct {
	Session services.TokenPair `json:"session"`
	User    IdentityDTO        `json:"user"`
}

func (s *Server) SignUp(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	identity, err := services.CreateIdentity(s.DB, s.Tokens, req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.openSession(w, r, identity)
}

func (s *Server) SignIn(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	identity, err := services.Authenticate(s.DB, s.Tokens, req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.openSession(w, r, identity)
}

func (s *Server) openSession(w http.ResponseWriter, r *http.Request, identity *models.Identity) {
	role, err := services.IdentityRole(s.DB, identity.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	sessionID, err := s.Sessions.Create(r.Context(), identity.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	pair, err := s.Tokens.IssuePair(identity.ID, identity.Email, role, sessionID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.publish(r, identity.ID, models.EventSignedIn, sessionID)
	WriteJSON(w, http.StatusOK, AuthResponse{
		Session: pair,
		User:    IdentityDTO{ID: identity.ID, Email: identity.Email},
	})
}

// Refresh issues a new token pair for a still-open session. The role is
// re-read so promotions take effect without signing in again.
func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	claims, err := s.Tokens.Verify(req.RefreshToken, "refresh")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.Sessions.Extend(r.Context(), claims.SessionID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	identity, err := services.GetIdentity(s.DB, claims.UserID)
	if err != nil {
		s.writeServiceError(w, r, services.ErrUnauthorized("Authentication failed"))
		return
	}
	role, err := services.IdentityRole(s.DB, identity.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	pair, err := s.Tokens.IssuePair(identity.ID, identity.Email, role, claims.SessionID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.publish(r, identity.ID, models.EventTokenRefreshed, claims.SessionID)
	WriteJSON(w, http.StatusOK, AuthResponse{
		Session: pair,
		User:    IdentityDTO{ID: identity.ID, Email: identity.Email},
	})
}

func (s *Server) SignOut(w http.ResponseWriter, r *http.Request) {
	sessionID := CurrentSessionID(r)
	if err := s.Sessions.Revoke(r.Context(), sessionID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.publish(r, CurrentUserID(r), models.EventSignedOut, sessionID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) CurrentIdentity(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]IdentityDTO{
		"user": {ID: CurrentUserID(r), Email: CurrentEmail(r)},
	})
}

func (s *Server) publish(r *http.Request, userID string, event models.SessionEventType, sessionID string) {
	if err := s.Sessions.Publish(r.Context(), userID, event, sessionID); err != nil {
		s.Logger.Warn("session event not published",
			zap.String("event", string(event)),
			zap.String("user_id", userID),
			zap.Error(err))
	}
}

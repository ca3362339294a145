package httpapi

import (
	"context"
	"net/http"
	"strings"

	"safeguard-go/internal/models"
	"safeguard-go/internal/services"
)

type contextKey string

const (
	ctxUserID    contextKey = "userID"
	ctxEmail     contextKey = "email"
	ctxSessionID contextKey = "sessionID"
)

// WithAuth accepts a bearer access token whose session is still open.
func (s *Server) WithAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			WriteError(w, http.StatusUnauthorized, "Authentication failed")
			return
		}
		claims, err := s.authenticate(r.Context(), strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")))
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

func (s *Server) authenticate(ctx context.Context, token string) (services.Claims, error) {
	claims, err := s.Tokens.Verify(token, "access")
	if err != nil {
		return services.Claims{}, err
	}
	owner, err := s.Sessions.Lookup(ctx, claims.SessionID)
	if err != nil {
		return services.Claims{}, err
	}
	if owner != claims.UserID {
		return services.Claims{}, services.ErrUnauthorized("Authentication failed")
	}
	return claims, nil
}

func withClaims(ctx context.Context, claims services.Claims) context.Context {
	ctx = context.WithValue(ctx, ctxUserID, claims.UserID)
	ctx = context.WithValue(ctx, ctxEmail, claims.Email)
	return context.WithValue(ctx, ctxSessionID, claims.SessionID)
}

func CurrentUserID(r *http.Request) string {
	if value, ok := r.Context().Value(ctxUserID).(string); ok {
		return value
	}
	return ""
}

func CurrentEmail(r *http.Request) string {
	if value, ok := r.Context().Value(ctxEmail).(string); ok {
		return value
	}
	return ""
}

func CurrentSessionID(r *http.Request) string {
	if value, ok := r.Context().Value(ctxSessionID).(string); ok {
		return value
	}
	return ""
}

// hasRole checks the users row, not the token's role claim, so role changes apply
// to tokens already issued.
func (s *Server) hasRole(userID string, role models.Role) (bool, error) {
	current, err := services.IdentityRole(s.DB, userID)
	if err != nil {
		return false, err
	}
	return current == role, nil
}

func (s *Server) RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := s.hasRole(CurrentUserID(r), role)
			if err != nil {
				s.writeServiceError(w, r, err)
				return
			}
			if !ok {
				WriteError(w, http.StatusForbidden, "Not allowed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package httpapi

import (
	"net/http"
	"strings"

	"safeguard-go/internal/models"
	"safeguard-go/internal/services"

	"github.com/go-chi/chi/v5"
)

func (s *Server) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.NewProfile
	if !decodeJSON(w, r, &req) {
		return
	}
	identity := &models.Identity{ID: CurrentUserID(r), Email: CurrentEmail(r)}
	user, err := services.CreateProfile(s.DB, identity, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if s.isAdminEmail(user.Email) {
		if user, err = services.SetUserRole(s.DB, user.ID, models.RoleAdmin); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	}
	s.publish(r, user.ID, models.EventUserUpdated, CurrentSessionID(r))
	WriteJSON(w, http.StatusCreated, user)
}

// isAdminEmail reports whether email is listed in ADMIN_EMAILS.
func (s *Server) isAdminEmail(email string) bool {
	email = strings.ToLower(email)
	for _, candidate := range s.Config.AdminEmails {
		if candidate == email {
			return true
		}
	}
	return false
}

func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id != CurrentUserID(r) {
		admin, err := s.hasRole(CurrentUserID(r), models.RoleAdmin)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		if !admin {
			WriteError(w, http.StatusForbidden, "Not allowed")
			return
		}
	}
	user, err := services.GetProfile(s.DB, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id != CurrentUserID(r) {
		WriteError(w, http.StatusForbidden, "Not allowed")
		return
	}
	var patch models.ProfilePatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	user, err := services.UpdateProfile(s.DB, id, patch)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.publish(r, user.ID, models.EventUserUpdated, CurrentSessionID(r))
	WriteJSON(w, http.StatusOK, user)
}

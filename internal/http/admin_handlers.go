package httpapi

import (
	"net/http"

	"safeguard-go/internal/models"
	"safeguard-go/internal/services"

	"github.com/go-chi/chi/v5"
)

func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := services.ListUsers(s.DB)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, users)
}

type RoleRequest struct {
	Role models.Role `json:"role"`
}

func (s *Server) SetUserRole(w http.ResponseWriter, r *http.Request) {
	var req RoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := services.SetUserRole(s.DB, chi.URLParam(r, "id"), req.Role)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.publish(r, user.ID, models.EventUserUpdated, "")
	WriteJSON(w, http.StatusOK, user)
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	sample := services.CaptureHealth(s.Config.HealthDiskPath)
	sample.AlertClients = s.AlertHub.Count()
	WriteJSON(w, http.StatusOK, sample)
}

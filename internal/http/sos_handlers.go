package httpapi

import (
	"net/http"
	"strconv"

	"safeguard-go/internal/models"
	"safeguard-go/internal/services"

	"github.com/go-chi/chi/v5"
)

func (s *Server) CreateAlert(w http.ResponseWriter, r *http.Request) {
	var req models.NewAlert
	if !decodeJSON(w, r, &req) {
		return
	}
	alert, err := services.CreateAlert(s.DB, CurrentUserID(r), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.Metrics.sosAlertsTotal.WithLabelValues("activated").Inc()
	s.AlertHub.Broadcast(services.AlertActivated, *alert)
	WriteJSON(w, http.StatusCreated, alert)
}

func (s *Server) ListAlerts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	status := models.AlertStatus(query.Get("status"))
	switch status {
	case "", models.AlertActive, models.AlertResolved, models.AlertDismissed:
	default:
		WriteError(w, http.StatusBadRequest, "Unknown status")
		return
	}
	alerts, err := services.ListAlerts(s.DB, CurrentUserID(r), status, parseInt(query.Get("limit"), 0))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, alerts)
}

func (s *Server) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	alert, err := services.ResolveAlert(s.DB, CurrentUserID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.Metrics.sosAlertsTotal.WithLabelValues("resolved").Inc()
	s.AlertHub.Broadcast(services.AlertResolved, *alert)
	WriteJSON(w, http.StatusOK, alert)
}

func (s *Server) CreateNotification(w http.ResponseWriter, r *http.Request) {
	var req models.NewNotification
	if !decodeJSON(w, r, &req) {
		return
	}
	notification, err := services.CreateNotification(s.DB, CurrentUserID(r), chi.URLParam(r, "id"), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.Metrics.sosNotifications.Inc()
	WriteJSON(w, http.StatusCreated, notification)
}

func (s *Server) ListNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := services.ListNotifications(s.DB, CurrentUserID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, notifications)
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

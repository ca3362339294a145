package httpapi

import (
	"net/http"

	"safeguard-go/internal/models"
	"safeguard-go/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (s *Server) CreateIncident(w http.ResponseWriter, r *http.Request) {
	var req models.NewIncident
	if !decodeJSON(w, r, &req) {
		return
	}
	incident, err := services.CreateIncident(s.DB, CurrentUserID(r), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, incident)
}

func (s *Server) ListIncidents(w http.ResponseWriter, r *http.Request) {
	incidents, err := services.ListIncidents(s.DB, CurrentUserID(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, incidents)
}

// UploadEvidence stores a file in the evidence bucket and attaches it to the
// caller's incident. The stored file is removed again if attaching fails.
func (s *Server) UploadEvidence(w http.ResponseWriter, r *http.Request) {
	upload, ok := s.saveUpload(w, r, services.BucketEvidence)
	if !ok {
		return
	}
	incident, err := services.AddEvidence(s.DB, CurrentUserID(r), chi.URLParam(r, "id"),
		models.EvidenceFile{Name: upload.Filename, URL: upload.URL})
	if err != nil {
		if cleanupErr := services.DeleteAsset(s.DB, s.Config.MediaStoragePath, upload.AssetID); cleanupErr != nil {
			s.Logger.Warn("orphaned evidence asset", zap.String("asset_id", upload.AssetID), zap.Error(cleanupErr))
		}
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, incident)
}

func (s *Server) AdminListIncidents(w http.ResponseWriter, r *http.Request) {
	incidents, err := services.ListAllIncidents(s.DB, models.IncidentStatus(r.URL.Query().Get("status")))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, incidents)
}

type StatusRequest struct {
	Status models.IncidentStatus `json:"status"`
}

func (s *Server) AdminSetIncidentStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	incident, err := services.SetIncidentStatus(s.DB, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, incident)
}

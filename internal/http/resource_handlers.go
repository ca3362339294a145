package httpapi

import (
	"net/http"

	"safeguard-go/internal/models"
	"safeguard-go/internal/services"

	"github.com/go-chi/chi/v5"
)

func (s *Server) ListResources(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resources, err := services.ListResources(s.DB, models.ResourceFilter{
		Category: query.Get("category"),
		Search:   query.Get("q"),
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, resources)
}

func (s *Server) ResourceCategories(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, models.ResourceCategories)
}

func (s *Server) CreateResource(w http.ResponseWriter, r *http.Request) {
	var req models.ResourceInput
	if !decodeJSON(w, r, &req) {
		return
	}
	resource, err := services.CreateResource(s.DB, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, resource)
}

func (s *Server) UpdateResource(w http.ResponseWriter, r *http.Request) {
	var req models.ResourceInput
	if !decodeJSON(w, r, &req) {
		return
	}
	resource, err := services.UpdateResource(s.DB, chi.URLParam(r, "id"), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, resource)
}

func (s *Server) DeleteResource(w http.ResponseWriter, r *http.Request) {
	if err := services.DeleteResource(s.DB, chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package httpapi

import (
	"mime"
	"net/http"
	"os"

	"safeguard-go/internal/models"
	"safeguard-go/internal/services"

	"github.com/go-chi/chi/v5"
)

const maxUploadBytes = 20 << 20

func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	if !services.ValidBucket(bucket) {
		WriteError(w, http.StatusBadRequest, "Unknown bucket")
		return
	}
	asset, ok := s.saveUpload(w, r, bucket)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusCreated, asset)
}

// saveUpload stores the multipart "file" field and writes the error response
// itself when it fails.
func (s *Server) saveUpload(w http.ResponseWriter, r *http.Request, bucket string) (*uploadResult, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "File is missing or too large")
		return nil, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "File is missing or too large")
		return nil, false
	}
	defer file.Close()
	asset, err := services.SaveMediaAsset(s.DB, s.Config.MediaStoragePath, bucket,
		header.Header.Get("Content-Type"), header.Filename, CurrentUserID(r), file)
	if err != nil {
		s.writeServiceError(w, r, err)
		return nil, false
	}
	return &uploadResult{UploadedAsset: *asset, Filename: header.Filename}, true
}

type uploadResult struct {
	models.UploadedAsset
	Filename string `json:"-"`
}

func (s *Server) MediaContent(w http.ResponseWriter, r *http.Request) {
	asset, err := services.GetAsset(s.DB, chi.URLParam(r, "assetId"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	owner := asset.OwnerUserID != nil && *asset.OwnerUserID == CurrentUserID(r)
	if !owner {
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
	path := services.AssetPath(s.Config.MediaStoragePath, asset)
	if _, err := os.Stat(path); err != nil {
		WriteError(w, http.StatusNotFound, "Asset not found")
		return
	}
	if asset.Filename != nil {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": *asset.Filename}))
	}
	w.Header().Set("Content-Type", asset.ContentType)
	http.ServeFile(w, r, path)
}

package httpapi

import (
	"net/http"

	"safeguard-go/internal/models"
	"safeguard-go/internal/services"

	"github.com/go-chi/chi/v5"
)

func (s *Server) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := services.ListPosts(s.DB)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, posts)
}

func (s *Server) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req models.NewPost
	if !decodeJSON(w, r, &req) {
		return
	}
	post, err := services.CreatePost(s.DB, CurrentUserID(r), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, post)
}

func (s *Server) UpvotePost(w http.ResponseWriter, r *http.Request) {
	upvotes, err := services.UpvotePost(s.DB, chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{"upvotes": upvotes})
}

func (s *Server) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := services.DeletePost(s.DB, CurrentUserID(r), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := services.ListComments(s.DB, chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, comments)
}

func (s *Server) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req models.NewComment
	if !decodeJSON(w, r, &req) {
		return
	}
	comment, err := services.CreateComment(s.DB, CurrentUserID(r), chi.URLParam(r, "id"), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, comment)
}

func (s *Server) DeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := services.DeleteComment(s.DB, CurrentUserID(r), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

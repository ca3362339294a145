// Package backend defines the data/auth service the application talks to.
// The session manager, SOS flow and views depend only on these interfaces.
package backend

import (
	"context"
	"errors"
	"io"
	"net/http"

	"safeguard-go/internal/models"
)

type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Session struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	ExpiresAt    int64    `json:"expiresAt"`
	SessionID    string   `json:"sessionId"`
	User         Identity `json:"user"`
}

// SessionChange is delivered to OnSessionChange listeners. Session is nil
// when the change left no session behind.
type SessionChange struct {
	Event   models.SessionEventType
	Session *Session
}

type Auth interface {
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context) error
	// CurrentIdentity returns nil without error when nobody is signed in.
	CurrentIdentity(ctx context.Context) (*Identity, error)
	OnSessionChange(fn func(SessionChange)) (unsubscribe func())
}

type Profiles interface {
	InsertProfile(ctx context.Context, input models.NewProfile) (*models.User, error)
	GetProfile(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) (*models.User, error)
}

type Alerts interface {
	CreateAlert(ctx context.Context, input models.NewAlert) (*models.SOSAlert, error)
	// ActiveAlert returns nil without error when the user has no active alert.
	ActiveAlert(ctx context.Context) (*models.SOSAlert, error)
	ResolveAlert(ctx context.Context, id string) (*models.SOSAlert, error)
	CreateNotification(ctx context.Context, alertID string, input models.NewNotification) (*models.SOSNotification, error)
	ListNotifications(ctx context.Context, alertID string) ([]models.SOSNotification, error)
}

type Incidents interface {
	CreateIncident(ctx context.Context, input models.NewIncident) (*models.Incident, error)
	ListIncidents(ctx context.Context) ([]models.Incident, error)
	UploadEvidence(ctx context.Context, incidentID, filename string, body io.Reader) (*models.Incident, error)
}

type Forum interface {
	ListPosts(ctx context.Context) ([]models.ForumPost, error)
	CreatePost(ctx context.Context, input models.NewPost) (*models.ForumPost, error)
	UpvotePost(ctx context.Context, id string) (int, error)
	DeletePost(ctx context.Context, id string) error
	ListComments(ctx context.Context, postID string) ([]models.ForumComment, error)
	CreateComment(ctx context.Context, postID string, input models.NewComment) (*models.ForumComment, error)
	DeleteComment(ctx context.Context, id string) error
}

type Resources interface {
	ListResources(ctx context.Context, filter models.ResourceFilter) ([]models.LegalResource, error)
	ResourceCategories(ctx context.Context) ([]models.Option, error)
}

type Admin interface {
	ListAllIncidents(ctx context.Context, status models.IncidentStatus) ([]models.Incident, error)
	SetIncidentStatus(ctx context.Context, id string, status models.IncidentStatus) (*models.Incident, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	SetUserRole(ctx context.Context, id string, role models.Role) (*models.User, error)
	CreateResource(ctx context.Context, input models.ResourceInput) (*models.LegalResource, error)
	UpdateResource(ctx context.Context, id string, input models.ResourceInput) (*models.LegalResource, error)
	DeleteResource(ctx context.Context, id string) error
}

type Media interface {
	Upload(ctx context.Context, bucket, filename string, body io.Reader) (*models.UploadedAsset, error)
}

type Client interface {
	Auth
	Profiles
	Alerts
	Incidents
	Forum
	Resources
	Admin
	Media
}

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
)

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Status)
	}
	return e.Message
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrConflict:
		return e.Status == http.StatusConflict
	}
	return false
}

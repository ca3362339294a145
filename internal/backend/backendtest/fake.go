// Package backendtest provides an in-memory backend.Client for tests. It
// enforces the same ownership, uniqueness and status rules as the HTTP
// service and lets tests inject failures per method.
package backendtest

import (
	"context"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"safeguard-go/internal/backend"
	"safeguard-go/internal/models"

	"github.com/google/uuid"
)

type account struct {
	identity backend.Identity
	password string
}

type Fake struct {
	mu            sync.Mutex
	accounts      map[string]account
	session       *backend.Session
	users         map[string]*models.User
	alerts        []models.SOSAlert
	notifications []models.SOSNotification
	incidents     []models.Incident
	posts         []models.ForumPost
	comments      []models.ForumComment
	resources     []models.LegalResource
	uploads       map[string][]byte
	listeners     map[int]func(backend.SessionChange)
	nextID        int
	failures      map[string]error
	notifyFail    map[string]error
	calls         map[string]int

	// GetProfileHook runs before GetProfile answers, outside the lock.
	GetProfileHook func(id string)
	Now            func() time.Time
}

var _ backend.Client = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		accounts:   map[string]account{},
		users:      map[string]*models.User{},
		uploads:    map[string][]byte{},
		listeners:  map[int]func(backend.SessionChange){},
		failures:   map[string]error{},
		notifyFail: map[string]error{},
		calls:      map[string]int{},
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

// Fail makes every later call to method return err. A nil err clears it.
func (f *Fake) Fail(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failures, method)
		return
	}
	f.failures[method] = err
}

// FailNotificationTo makes CreateNotification fail for one recipient.
func (f *Fake) FailNotificationTo(email string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifyFail[strings.ToLower(email)] = err
}

func (f *Fake) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// Listeners counts the registered session-change subscriptions.
func (f *Fake) Listeners() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

// Alerts returns every stored alert regardless of owner.
func (f *Fake) Alerts() []models.SOSAlert {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.SOSAlert(nil), f.alerts...)
}

// Notifications returns every stored notification regardless of alert.
func (f *Fake) Notifications() []models.SOSNotification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.SOSNotification(nil), f.notifications...)
}

func (f *Fake) Comments() []models.ForumComment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ForumComment(nil), f.comments...)
}

// SeedUser registers an identity with a profile row and returns it.
func (f *Fake) SeedUser(email, password, fullName string, role models.Role) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.NewString()
	email = strings.ToLower(email)
	f.accounts[email] = account{identity: backend.Identity{ID: id, Email: email}, password: password}
	now := f.Now()
	name := fullName
	user := &models.User{ID: id, Email: email, FullName: &name, Role: role, EmergencyContacts: models.EmergencyContacts{}, CreatedAt: now, UpdatedAt: now}
	f.users[id] = user
	return user.Clone()
}

func (f *Fake) SeedResource(resource models.LegalResource) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if resource.ID == "" {
		resource.ID = uuid.NewString()
	}
	f.resources = append(f.resources, resource)
}

// Emit delivers a session change to listeners as if it came from another client.
func (f *Fake) Emit(event models.SessionEventType, session *backend.Session) {
	f.mu.Lock()
	fns := f.listenerSnapshot()
	f.mu.Unlock()
	for _, fn := range fns {
		fn(backend.SessionChange{Event: event, Session: session})
	}
}

func (f *Fake) enter(method string) error {
	f.calls[method]++
	return f.failures[method]
}

func (f *Fake) listenerSnapshot() []func(backend.SessionChange) {
	fns := make([]func(backend.SessionChange), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	return fns
}

func (f *Fake) notify(event models.SessionEventType) {
	f.mu.Lock()
	var session *backend.Session
	if f.session != nil {
		cp := *f.session
		session = &cp
	}
	fns := f.listenerSnapshot()
	f.mu.Unlock()
	for _, fn := range fns {
		fn(backend.SessionChange{Event: event, Session: session})
	}
}

func statusErr(status int, message string) error {
	return &backend.StatusError{Status: status, Message: message}
}

func (f *Fake) caller() (*models.User, string, error) {
	if f.session == nil {
		return nil, "", statusErr(http.StatusUnauthorized, "Authentication failed")
	}
	return f.users[f.session.User.ID], f.session.User.ID, nil
}

// requireAdmin reads the stored profile role, as the server does, so a role
// change applies to a session that is already open.
func (f *Fake) requireAdmin() error {
	user, _, err := f.caller()
	if err != nil {
		return err
	}
	if !user.IsAdmin() {
		return statusErr(http.StatusForbidden, "Not allowed")
	}
	return nil
}

func (f *Fake) openSession(identity backend.Identity) *backend.Session {
	f.session = &backend.Session{
		AccessToken:  uuid.NewString(),
		RefreshToken: uuid.NewString(),
		ExpiresAt:    f.Now().Add(time.Hour).Unix(),
		SessionID:    uuid.NewString(),
		User:         identity,
	}
	cp := *f.session
	return &cp
}

func (f *Fake) SignUp(ctx context.Context, email, password string) (*backend.Session, error) {
	f.mu.Lock()
	if err := f.enter("SignUp"); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if _, exists := f.accounts[email]; exists {
		f.mu.Unlock()
		return nil, statusErr(http.StatusConflict, "User already registered")
	}
	identity := backend.Identity{ID: uuid.NewString(), Email: email}
	f.accounts[email] = account{identity: identity, password: password}
	session := f.openSession(identity)
	f.mu.Unlock()
	f.notify(models.EventSignedIn)
	return session, nil
}

func (f *Fake) SignIn(ctx context.Context, email, password string) (*backend.Session, error) {
	f.mu.Lock()
	if err := f.enter("SignIn"); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	acct, ok := f.accounts[strings.ToLower(strings.TrimSpace(email))]
	if !ok || acct.password != password {
		f.mu.Unlock()
		return nil, statusErr(http.StatusUnauthorized, "Invalid login credentials")
	}
	session := f.openSession(acct.identity)
	f.mu.Unlock()
	f.notify(models.EventSignedIn)
	return session, nil
}

func (f *Fake) SignOut(ctx context.Context) error {
	f.mu.Lock()
	if err := f.enter("SignOut"); err != nil {
		f.mu.Unlock()
		return err
	}
	f.session = nil
	f.mu.Unlock()
	f.notify(models.EventSignedOut)
	return nil
}

func (f *Fake) CurrentIdentity(ctx context.Context) (*backend.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CurrentIdentity"); err != nil {
		return nil, err
	}
	if f.session == nil {
		return nil, nil
	}
	identity := f.session.User
	return &identity, nil
}

func (f *Fake) OnSessionChange(fn func(backend.SessionChange)) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	}
}

func (f *Fake) InsertProfile(ctx context.Context, input models.NewProfile) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("InsertProfile"); err != nil {
		return nil, err
	}
	if f.session == nil {
		return nil, statusErr(http.StatusUnauthorized, "Authentication failed")
	}
	identity := f.session.User
	if _, exists := f.users[identity.ID]; exists {
		return nil, statusErr(http.StatusConflict, "Profile already exists")
	}
	now := f.Now()
	user := &models.User{ID: identity.ID, Email: identity.Email, Role: models.RoleUser, EmergencyContacts: models.EmergencyContacts{}, CreatedAt: now, UpdatedAt: now}
	if name := strings.TrimSpace(input.FullName); name != "" {
		user.FullName = &name
	}
	f.users[identity.ID] = user
	return user.Clone(), nil
}

func (f *Fake) GetProfile(ctx context.Context, id string) (*models.User, error) {
	if hook := f.GetProfileHook; hook != nil {
		hook(id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetProfile"); err != nil {
		return nil, err
	}
	user, ok := f.users[id]
	if !ok {
		return nil, statusErr(http.StatusNotFound, "Profile not found")
	}
	return user.Clone(), nil
}

func (f *Fake) UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpdateProfile"); err != nil {
		return nil, err
	}
	_, callerID, err := f.caller()
	if err != nil {
		return nil, err
	}
	if callerID != id {
		return nil, statusErr(http.StatusForbidden, "Not allowed")
	}
	user, ok := f.users[id]
	if !ok {
		return nil, statusErr(http.StatusNotFound, "Profile not found")
	}
	if patch.FullName != nil {
		user.FullName = patch.FullName
	}
	if patch.PhoneNumber != nil {
		user.PhoneNumber = patch.PhoneNumber
	}
	if patch.ProfilePicture != nil {
		user.ProfilePicture = patch.ProfilePicture
	}
	if patch.EmergencyContacts != nil {
		user.EmergencyContacts = append(models.EmergencyContacts{}, (*patch.EmergencyContacts)...)
	}
	user.UpdatedAt = f.Now()
	return user.Clone(), nil
}

func (f *Fake) CreateAlert(ctx context.Context, input models.NewAlert) (*models.SOSAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateAlert"); err != nil {
		return nil, err
	}
	_, userID, err := f.caller()
	if err != nil {
		return nil, err
	}
	for _, alert := range f.alerts {
		if alert.UserID == userID && alert.Status == models.AlertActive {
			return nil, statusErr(http.StatusConflict, "An SOS alert is already active")
		}
	}
	now := f.Now()
	alert := models.SOSAlert{
		ID:          uuid.NewString(),
		UserID:      userID,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		Status:      models.AlertActive,
		ActivatedAt: now,
		Notes:       input.Notes,
		CreatedAt:   now,
	}
	if input.LocationName != "" {
		name := input.LocationName
		alert.LocationName = &name
	}
	f.alerts = append(f.alerts, alert)
	return &alert, nil
}

func (f *Fake) ActiveAlert(ctx context.Context) (*models.SOSAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ActiveAlert"); err != nil {
		return nil, err
	}
	_, userID, err := f.caller()
	if err != nil {
		return nil, err
	}
	for i := len(f.alerts) - 1; i >= 0; i-- {
		if f.alerts[i].UserID == userID && f.alerts[i].Status == models.AlertActive {
			alert := f.alerts[i]
			return &alert, nil
		}
	}
	return nil, nil
}

func (f *Fake) ResolveAlert(ctx context.Context, id string) (*models.SOSAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ResolveAlert"); err != nil {
		return nil, err
	}
	_, userID, err := f.caller()
	if err != nil {
		return nil, err
	}
	for i := range f.alerts {
		if f.alerts[i].ID != id || f.alerts[i].UserID != userID {
			continue
		}
		if f.alerts[i].Status != models.AlertActive {
			return nil, statusErr(http.StatusConflict, "Alert is not active")
		}
		now := f.Now()
		f.alerts[i].Status = models.AlertResolved
		f.alerts[i].ResolvedAt = &now
		alert := f.alerts[i]
		return &alert, nil
	}
	return nil, statusErr(http.StatusNotFound, "Alert not found")
}

func (f *Fake) ownsAlert(userID, alertID string) bool {
	for _, alert := range f.alerts {
		if alert.ID == alertID && alert.UserID == userID {
			return true
		}
	}
	return false
}

func (f *Fake) CreateNotification(ctx context.Context, alertID string, input models.NewNotification) (*models.SOSNotification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateNotification"); err != nil {
		return nil, err
	}
	if err := f.notifyFail[strings.ToLower(input.RecipientEmail)]; err != nil {
		return nil, err
	}
	_, userID, err := f.caller()
	if err != nil {
		return nil, err
	}
	if !f.ownsAlert(userID, alertID) {
		return nil, statusErr(http.StatusNotFound, "Alert not found")
	}
	notification := models.SOSNotification{
		ID:             uuid.NewString(),
		SOSAlertID:     alertID,
		RecipientEmail: input.RecipientEmail,
		RecipientName:  input.RecipientName,
		Status:         models.NotificationPending,
		CreatedAt:      f.Now(),
	}
	f.notifications = append(f.notifications, notification)
	return &notification, nil
}

func (f *Fake) ListNotifications(ctx context.Context, alertID string) ([]models.SOSNotification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListNotifications"); err != nil {
		return nil, err
	}
	_, userID, err := f.caller()
	if err != nil {
		return nil, err
	}
	if !f.ownsAlert(userID, alertID) {
		return nil, statusErr(http.StatusNotFound, "Alert not found")
	}
	out := []models.SOSNotification{}
	for _, n := range f.notifications {
		if n.SOSAlertID == alertID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *Fake) CreateIncident(ctx context.Context, input models.NewIncident) (*models.Incident, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateIncident"); err != nil {
		return nil, err
	}
	_, userID, err := f.caller()
	if err != nil {
		return nil, err
	}
	now := f.Now()
	owner := userID
	incident := models.Incident{
		ID:            uuid.NewString(),
		UserID:        &owner,
		IncidentType:  input.IncidentType,
		Title:         input.Title,
		Description:   input.Description,
		Latitude:      input.Latitude,
		Longitude:     input.Longitude,
		LocationName:  input.LocationName,
		Status:        models.IncidentNew,
		IsAnonymous:   input.IsAnonymous,
		EvidenceFiles: models.EvidenceFiles{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	f.incidents = append(f.incidents, incident)
	return &incident, nil
}

func (f *Fake) ListIncidents(ctx context.Context) ([]models.Incident, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListIncidents"); err != nil {
		return nil, err
	}
	_, userID, err := f.caller()
	if err != nil {
		return nil, err
	}
	out := []models.Incident{}
	for i := len(f.incidents) - 1; i >= 0; i-- {
		if owner := f.incidents[i].UserID; owner != nil && *owner == userID {
			out = append(out, f.incidents[i])
		}
	}
	return out, nil
}

func (f *Fake) UploadEvidence(ctx context.Context, incidentID, filename string, body io.Reader) (*models.Incident, error) {
	content, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UploadEvidence"); err != nil {
		return nil, err
	}
	_, userID, err := f.caller()
	if err != nil {
		return nil, err
	}
	for i := range f.incidents {
		owner := f.incidents[i].UserID
		if f.incidents[i].ID != incidentID || owner == nil || *owner != userID {
			continue
		}
		assetID := uuid.NewString()
		f.uploads[assetID] = content
		f.incidents[i].EvidenceFiles = append(f.incidents[i].EvidenceFiles, models.EvidenceFile{
			Name: filename,
			URL:  "/api/media/assets/" + assetID + "/content",
		})
		incident := f.incidents[i]
		return &incident, nil
	}
	return nil, statusErr(http.StatusNotFound, "Incident not found")
}

func (f *Fake) authorName(userID string) *string {
	if user, ok := f.users[userID]; ok {
		return user.FullName
	}
	return nil
}

func (f *Fake) ListPosts(ctx context.Context) ([]models.ForumPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListPosts"); err != nil {
		return nil, err
	}
	out := make([]models.ForumPost, 0, len(f.posts))
	for i := len(f.posts) - 1; i >= 0; i-- {
		post := f.posts[i]
		post.AuthorName = f.authorName(post.UserID)
		out = append(out, post)
	}
	return out, nil
}

func (f *Fake) CreatePost(ctx context.Context, input models.NewPost) (*models.ForumPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreatePost"); err != nil {
		return nil, err
	}
	_, userID, err := f.caller()
	if err != nil {
		return nil, err
	}
	now := f.Now()
	post := models.ForumPost{ID: uuid.NewString(), UserID: userID, Title: input.Title, Content: input.Content, CreatedAt: now, UpdatedAt: now}
	f.posts = append(f.posts, post)
	post.AuthorName = f.authorName(userID)
	return &post, nil
}

func (f *Fake) UpvotePost(ctx context.Context, id string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpvotePost"); err != nil {
		return 0, err
	}
	for i := range f.posts {
		if f.posts[i].ID == id {
			f.posts[i].Upvotes++
			return f.posts[i].Upvotes, nil
		}
	}
	return 0, statusErr(http.StatusNotFound, "Post not found")
}

func (f *Fake) DeletePost(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeletePost"); err != nil {
		return err
	}
	_, userID, err := f.caller()
	if err != nil {
		return err
	}
	for i := range f.posts {
		if f.posts[i].ID != id {
			continue
		}
		if f.posts[i].UserID != userID {
			return statusErr(http.StatusForbidden, "Only the author can delete this post")
		}
		f.posts = append(f.posts[:i], f.posts[i+1:]...)
		kept := f.comments[:0]
		for _, c := range f.comments {
			if c.PostID != id {
				kept = append(kept, c)
			}
		}
		f.comments = kept
		return nil
	}
	return statusErr(http.StatusNotFound, "Post not found")
}

func (f *Fake) ListComments(ctx context.Context, postID string) ([]models.ForumComment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListComments"); err != nil {
		return nil, err
	}
	out := []models.ForumComment{}
	for _, c := range f.comments {
		if c.PostID == postID {
			c.AuthorName = f.authorName(c.UserID)
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *Fake) CreateComment(ctx context.Context, postID string, input models.NewComment) (*models.ForumComment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateComment"); err != nil {
		return nil, err
	}
	_, userID, err := f.caller()
	if err != nil {
		return nil, err
	}
	found := false
	for _, p := range f.posts {
		if p.ID == postID {
			found = true
			break
		}
	}
	if !found {
		return nil, statusErr(http.StatusNotFound, "Post not found")
	}
	now := f.Now()
	comment := models.ForumComment{ID: uuid.NewString(), PostID: postID, UserID: userID, Content: input.Content, CreatedAt: now, UpdatedAt: now}
	f.comments = append(f.comments, comment)
	comment.AuthorName = f.authorName(userID)
	return &comment, nil
}

func (f *Fake) DeleteComment(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteComment"); err != nil {
		return err
	}
	_, userID, err := f.caller()
	if err != nil {
		return err
	}
	for i := range f.comments {
		if f.comments[i].ID != id {
			continue
		}
		if f.comments[i].UserID != userID {
			return statusErr(http.StatusForbidden, "Only the author can delete this comment")
		}
		f.comments = append(f.comments[:i], f.comments[i+1:]...)
		return nil
	}
	return statusErr(http.StatusNotFound, "Comment not found")
}

func (f *Fake) ListResources(ctx context.Context, filter models.ResourceFilter) ([]models.LegalResource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListResources"); err != nil {
		return nil, err
	}
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := []models.LegalResource{}
	for _, r := range f.resources {
		if filter.Category != "" && r.Category != filter.Category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(r.Title+" "+r.Content), search) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

func (f *Fake) ResourceCategories(ctx context.Context) ([]models.Option, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ResourceCategories"); err != nil {
		return nil, err
	}
	return append([]models.Option(nil), models.ResourceCategories...), nil
}

func (f *Fake) ListAllIncidents(ctx context.Context, status models.IncidentStatus) ([]models.Incident, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListAllIncidents"); err != nil {
		return nil, err
	}
	if err := f.requireAdmin(); err != nil {
		return nil, err
	}
	out := []models.Incident{}
	for i := len(f.incidents) - 1; i >= 0; i-- {
		incident := f.incidents[i]
		if status != "" && incident.Status != status {
			continue
		}
		if incident.IsAnonymous {
			incident.UserID = nil
		}
		out = append(out, incident)
	}
	return out, nil
}

func (f *Fake) SetIncidentStatus(ctx context.Context, id string, status models.IncidentStatus) (*models.Incident, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("SetIncidentStatus"); err != nil {
		return nil, err
	}
	if err := f.requireAdmin(); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, statusErr(http.StatusBadRequest, "Unknown status")
	}
	for i := range f.incidents {
		if f.incidents[i].ID == id {
			f.incidents[i].Status = status
			f.incidents[i].UpdatedAt = f.Now()
			incident := f.incidents[i]
			return &incident, nil
		}
	}
	return nil, statusErr(http.StatusNotFound, "Incident not found")
}

func (f *Fake) ListUsers(ctx context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListUsers"); err != nil {
		return nil, err
	}
	if err := f.requireAdmin(); err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) || (out[i].CreatedAt.Equal(out[j].CreatedAt) && out[i].Email < out[j].Email) })
	return out, nil
}

func (f *Fake) SetUserRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	f.mu.Lock()
	user, err := f.setUserRole(id, role)
	self := f.session != nil && f.session.User.ID == id
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if self {
		f.notify(models.EventUserUpdated)
	}
	return user, nil
}

func (f *Fake) setUserRole(id string, role models.Role) (*models.User, error) {
	if err := f.enter("SetUserRole"); err != nil {
		return nil, err
	}
	if err := f.requireAdmin(); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, statusErr(http.StatusBadRequest, "Unknown role")
	}
	user, ok := f.users[id]
	if !ok {
		return nil, statusErr(http.StatusNotFound, "User not found")
	}
	user.Role = role
	user.UpdatedAt = f.Now()
	return user.Clone(), nil
}

// SetRole changes a stored role as another admin would and publishes
// USER_UPDATED to the open session.
func (f *Fake) SetRole(id string, role models.Role) {
	f.mu.Lock()
	if user, ok := f.users[id]; ok {
		user.Role = role
		user.UpdatedAt = f.Now()
	}
	f.mu.Unlock()
	f.notify(models.EventUserUpdated)
}

func (f *Fake) CreateResource(ctx context.Context, input models.ResourceInput) (*models.LegalResource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateResource"); err != nil {
		return nil, err
	}
	if err := f.requireAdmin(); err != nil {
		return nil, err
	}
	now := f.Now()
	resource := models.LegalResource{ID: uuid.NewString(), Category: input.Category, Title: input.Title, Content: input.Content, CreatedAt: now, UpdatedAt: now}
	if input.Order != nil {
		resource.Order = *input.Order
	}
	f.resources = append(f.resources, resource)
	return &resource, nil
}

func (f *Fake) UpdateResource(ctx context.Context, id string, input models.ResourceInput) (*models.LegalResource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpdateResource"); err != nil {
		return nil, err
	}
	if err := f.requireAdmin(); err != nil {
		return nil, err
	}
	for i := range f.resources {
		if f.resources[i].ID != id {
			continue
		}
		f.resources[i].Category = input.Category
		f.resources[i].Title = input.Title
		f.resources[i].Content = input.Content
		if input.Order != nil {
			f.resources[i].Order = *input.Order
		}
		f.resources[i].UpdatedAt = f.Now()
		resource := f.resources[i]
		return &resource, nil
	}
	return nil, statusErr(http.StatusNotFound, "Resource not found")
}

func (f *Fake) DeleteResource(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteResource"); err != nil {
		return err
	}
	if err := f.requireAdmin(); err != nil {
		return err
	}
	for i := range f.resources {
		if f.resources[i].ID == id {
			f.resources = append(f.resources[:i], f.resources[i+1:]...)
			return nil
		}
	}
	return statusErr(http.StatusNotFound, "Resource not found")
}

func (f *Fake) Upload(ctx context.Context, bucket, filename string, body io.Reader) (*models.UploadedAsset, error) {
	content, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("Upload"); err != nil {
		return nil, err
	}
	if _, _, err := f.caller(); err != nil {
		return nil, err
	}
	assetID := uuid.NewString()
	f.uploads[assetID] = content
	return &models.UploadedAsset{AssetID: assetID, URL: "/api/media/assets/" + assetID + "/content"}, nil
}

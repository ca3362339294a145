// Package session keeps the signed-in user's profile row in memory and in
// step with the backend's session state.
package session

import (
	"context"
	"fmt"
	"sync"

	"safeguard-go/internal/apperr"
	"safeguard-go/internal/backend"
	"safeguard-go/internal/models"

	"go.uber.org/zap"
)

// Backend is the part of the backend client the manager needs.
type Backend interface {
	backend.Auth
	backend.Profiles
}

// Manager owns the current-user mirror. Views read it through Current and
// learn about changes through Subscribe.
//
// Every resolution or mutation takes a generation number when it starts. A
// background resolution only applies if nothing started after it; a mutation
// only loses to a newer mutation. Applying anything invalidates in-flight
// background resolutions, so the initial load, change callbacks and explicit
// calls can race freely.
type Manager struct {
	client Backend
	logger *zap.Logger

	mu          sync.RWMutex
	current     *models.User
	err         error
	loading     bool
	gen         uint64
	mutationGen uint64
	observers   map[int]func(*models.User)
	nextID      int

	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
}

func NewManager(client Backend, logger *zap.Logger) *Manager {
	return &Manager{
		client:    client,
		logger:    logger,
		observers: map[int]func(*models.User){},
	}
}

// Start subscribes to backend session changes and resolves the current
// session once.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.unsubscribe != nil {
		m.mu.Unlock()
		return
	}
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.mu.Unlock()

	unsubscribe := m.client.OnSessionChange(m.handleChange)
	m.mu.Lock()
	m.unsubscribe = unsubscribe
	m.mu.Unlock()

	m.GetCurrentSession(ctx)
}

// Close releases the backend subscription and drops all observers.
func (m *Manager) Close() {
	m.mu.Lock()
	unsubscribe := m.unsubscribe
	cancel := m.cancel
	m.unsubscribe = nil
	m.cancel = nil
	m.observers = map[int]func(*models.User){}
	m.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
}

// GetCurrentSession resolves identity then profile. Failures are recorded
// in Err and leave the current user unset.
func (m *Manager) GetCurrentSession(ctx context.Context) {
	gen := m.begin(false)
	m.mu.Lock()
	m.loading = true
	m.mu.Unlock()

	identity, err := m.client.CurrentIdentity(ctx)
	if err != nil {
		m.apply(gen, false, nil, apperr.Auth("get current session", err))
		return
	}
	if identity == nil {
		m.apply(gen, false, nil, nil)
		return
	}
	user, err := m.fetchProfile(ctx, "get current session", identity.ID)
	m.apply(gen, false, user, err)
}

func (m *Manager) handleChange(change backend.SessionChange) {
	if change.Session == nil {
		gen := m.begin(true)
		m.apply(gen, true, nil, nil)
		return
	}
	ctx := m.context()
	gen := m.begin(false)
	user, err := m.fetchProfile(ctx, "session change", change.Session.User.ID)
	if err != nil {
		m.logger.Debug("profile resolution failed", zap.String("event", string(change.Event)), zap.Error(err))
	}
	m.apply(gen, false, user, err)
}

// SignUp creates the identity and then its profile row. If the row insert
// fails the identity stays behind and the failure is a ProfileInsert error.
func (m *Manager) SignUp(ctx context.Context, email, password, fullName string) (*models.User, error) {
	if _, err := m.client.SignUp(ctx, email, password); err != nil {
		return nil, m.record(apperr.Auth("sign up", err))
	}
	gen := m.begin(true)
	user, err := m.client.InsertProfile(ctx, models.NewProfile{FullName: fullName})
	if err != nil {
		err = apperr.ProfileInsert("sign up", err)
		m.logger.Error("identity created without profile", zap.String("email", email), zap.Error(err))
		m.apply(gen, true, nil, err)
		return nil, err
	}
	m.apply(gen, true, user, nil)
	return user.Clone(), nil
}

func (m *Manager) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	session, err := m.client.SignIn(ctx, email, password)
	if err != nil {
		return nil, m.record(apperr.Auth("sign in", err))
	}
	gen := m.begin(true)
	user, err := m.fetchProfile(ctx, "sign in", session.User.ID)
	m.apply(gen, true, user, err)
	if err != nil {
		return nil, err
	}
	return user.Clone(), nil
}

// SignOut ends the backend session. On failure the current user is kept.
func (m *Manager) SignOut(ctx context.Context) error {
	if err := m.client.SignOut(ctx); err != nil {
		return m.record(apperr.SignOut("sign out", err))
	}
	gen := m.begin(true)
	m.apply(gen, true, nil, nil)
	return nil
}

func (m *Manager) UpdateProfile(ctx context.Context, patch models.ProfilePatch) (*models.User, error) {
	current := m.Current()
	if current == nil {
		return nil, m.record(apperr.NotAuthenticated("update profile"))
	}
	gen := m.begin(true)
	user, err := m.client.UpdateProfile(ctx, current.ID, patch)
	if err != nil {
		err = apperr.Backend("update profile", err)
		m.fail(gen, err)
		return nil, err
	}
	m.apply(gen, true, user, nil)
	return user.Clone(), nil
}

// Subscribe registers fn to receive the current user after every change.
// fn receives nil when nobody is signed in.
func (m *Manager) Subscribe(fn func(*models.User)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.observers[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.observers, id)
		m.mu.Unlock()
	}
}

func (m *Manager) Current() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Clone()
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil
}

func (m *Manager) IsAdmin() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.IsAdmin()
}

// Err is the last recorded failure, cleared by the next successful change.
func (m *Manager) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

func (m *Manager) fetchProfile(ctx context.Context, op string, id string) (*models.User, error) {
	user, err := m.client.GetProfile(ctx, id)
	if err != nil {
		return nil, apperr.ProfileFetch(op, err)
	}
	if user == nil || user.ID != id {
		return nil, apperr.ProfileFetch(op, fmt.Errorf("no profile row for identity %s", id))
	}
	return user, nil
}

func (m *Manager) context() context.Context {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ctx == nil {
		return context.Background()
	}
	return m.ctx
}

func (m *Manager) begin(mutation bool) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	if mutation {
		m.mutationGen = m.gen
	}
	return m.gen
}

func (m *Manager) stale(gen uint64, mutation bool) bool {
	return gen < m.mutationGen || (!mutation && gen != m.gen)
}

func (m *Manager) apply(gen uint64, mutation bool, user *models.User, err error) {
	m.mu.Lock()
	if m.stale(gen, mutation) {
		m.mu.Unlock()
		m.logger.Debug("dropping superseded session resolution", zap.Uint64("generation", gen))
		return
	}
	m.current = user.Clone()
	m.err = err
	m.loading = false
	m.gen++
	snapshot := m.current.Clone()
	fns := make([]func(*models.User), 0, len(m.observers))
	for _, fn := range m.observers {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot.Clone())
	}
}

func (m *Manager) fail(gen uint64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stale(gen, true) {
		return
	}
	m.err = err
	m.loading = false
}

func (m *Manager) record(err error) error {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
	return err
}

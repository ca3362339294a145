package sos

import (
	"context"
	"errors"
	"testing"

	"safeguard-go/internal/apperr"
	"safeguard-go/internal/backend"
	"safeguard-go/internal/backend/backendtest"
	"safeguard-go/internal/geo"
	"safeguard-go/internal/models"
	"safeguard-go/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubLocator struct {
	coords geo.Coordinates
	err    error
	calls  int
}

func (l *stubLocator) ResolveCurrentLocation(ctx context.Context) (geo.Coordinates, error) {
	l.calls++
	if l.err != nil {
		return geo.Coordinates{}, apperr.LocationUnavailable("resolve current location", l.err)
	}
	return l.coords, nil
}

func (l *stubLocator) ReverseGeocode(ctx context.Context, lat, lng float64) geo.Place {
	return geo.Place{Kind: geo.PlaceResolved, Name: "Bucharest", Latitude: lat, Longitude: lng}
}

type fixture struct {
	fake    *backendtest.Fake
	users   *session.Manager
	locator *stubLocator
	flow    *Flow
}

func newFixture(t *testing.T, contacts models.EmergencyContacts) fixture {
	t.Helper()
	fake := backendtest.New()
	fake.SeedUser("ana@example.com", "secret", "Ana", models.RoleUser)
	users := session.NewManager(fake, zap.NewNop())
	t.Cleanup(users.Close)
	ctx := context.Background()
	_, err := users.SignIn(ctx, "ana@example.com", "secret")
	require.NoError(t, err)
	if contacts != nil {
		_, err = users.UpdateProfile(ctx, models.ProfilePatch{EmergencyContacts: &contacts})
		require.NoError(t, err)
	}
	locator := &stubLocator{coords: geo.Coordinates{Latitude: 44.4268, Longitude: 26.1025}}
	return fixture{fake: fake, users: users, locator: locator, flow: NewFlow(fake, locator, users, zap.NewNop())}
}

func contacts(n int) models.EmergencyContacts {
	names := []string{"maria", "ion", "elena", "radu"}
	out := models.EmergencyContacts{}
	for i := 0; i < n; i++ {
		out = append(out, models.EmergencyContact{Name: names[i], Email: names[i] + "@example.com"})
	}
	return out
}

func activeAlerts(fake *backendtest.Fake) []models.SOSAlert {
	var out []models.SOSAlert
	for _, a := range fake.Alerts() {
		if a.Status == models.AlertActive {
			out = append(out, a)
		}
	}
	return out
}

func TestActivateFansOutOneNotificationPerContact(t *testing.T) {
	for n := 0; n <= 4; n++ {
		fx := newFixture(t, contacts(n))
		status, err := fx.flow.Activate(context.Background())
		require.NoError(t, err)
		assert.Equal(t, Active, status.State)
		require.NotNil(t, status.Alert)
		assert.Equal(t, n, status.Notified)
		assert.Equal(t, 0, status.Failed)
		require.NotNil(t, status.Place)
		assert.Equal(t, "Bucharest", status.Place.Name)

		notifications := fx.fake.Notifications()
		require.Len(t, notifications, n)
		for _, notification := range notifications {
			assert.Equal(t, status.Alert.ID, notification.SOSAlertID)
			assert.Equal(t, models.NotificationPending, notification.Status)
		}
	}
}

func TestActivateWhileActiveCreatesNoSecondAlert(t *testing.T) {
	fx := newFixture(t, contacts(1))
	ctx := context.Background()
	_, err := fx.flow.Activate(ctx)
	require.NoError(t, err)

	_, err = fx.flow.Activate(ctx)
	assert.True(t, errors.Is(err, apperr.ErrInvalidState))
	assert.Len(t, activeAlerts(fx.fake), 1)
	assert.Equal(t, 1, fx.locator.calls)
}

func TestSecondFlowHitsBackendConflict(t *testing.T) {
	fx := newFixture(t, contacts(1))
	ctx := context.Background()
	_, err := fx.flow.Activate(ctx)
	require.NoError(t, err)

	other := NewFlow(fx.fake, fx.locator, fx.users, zap.NewNop())
	status, err := other.Activate(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrAlertCreate))
	assert.True(t, errors.Is(err, backend.ErrConflict))
	assert.Equal(t, Active, status.State)
	assert.Len(t, activeAlerts(fx.fake), 1)
	assert.Len(t, fx.fake.Notifications(), 1)
}

func TestActivateBestEffortFanOut(t *testing.T) {
	fx := newFixture(t, contacts(3))
	fx.fake.FailNotificationTo("ion@example.com", errors.New("insert failed"))

	status, err := fx.flow.Activate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Active, status.State)
	assert.Equal(t, 2, status.Notified)
	assert.Equal(t, 1, status.Failed)
	assert.Equal(t, 3, fx.fake.Calls("CreateNotification"))
}

func TestActivateLocationUnavailable(t *testing.T) {
	fx := newFixture(t, contacts(1))
	fx.locator.err = geo.ErrNoFix

	status, err := fx.flow.Activate(context.Background())
	assert.True(t, errors.Is(err, apperr.ErrLocationUnavailable))
	assert.Equal(t, Idle, status.State)
	assert.Empty(t, fx.fake.Alerts())
}

func TestActivateAlertCreateFailureSkipsFanOut(t *testing.T) {
	fx := newFixture(t, contacts(2))
	fx.fake.Fail("CreateAlert", errors.New("insert failed"))

	status, err := fx.flow.Activate(context.Background())
	assert.True(t, errors.Is(err, apperr.ErrAlertCreate))
	assert.Equal(t, Idle, status.State)
	assert.Equal(t, 0, fx.fake.Calls("CreateNotification"))
}

func TestActivateRequiresUser(t *testing.T) {
	fake := backendtest.New()
	users := session.NewManager(fake, zap.NewNop())
	flow := NewFlow(fake, &stubLocator{}, users, zap.NewNop())

	status, err := flow.Activate(context.Background())
	assert.True(t, errors.Is(err, apperr.ErrNotAuthenticated))
	assert.Equal(t, Idle, status.State)
}

func TestDeactivateRequiresActive(t *testing.T) {
	fx := newFixture(t, nil)
	_, err := fx.flow.Deactivate(context.Background())
	assert.True(t, errors.Is(err, apperr.ErrInvalidState))
}

func TestDeactivateFailureStaysActive(t *testing.T) {
	fx := newFixture(t, contacts(1))
	ctx := context.Background()
	_, err := fx.flow.Activate(ctx)
	require.NoError(t, err)

	fx.fake.Fail("ResolveAlert", errors.New("timeout"))
	status, err := fx.flow.Deactivate(ctx)
	assert.True(t, errors.Is(err, apperr.ErrAlertUpdate))
	assert.Equal(t, Active, status.State)
}

func TestDeactivateAlreadyResolvedElsewhere(t *testing.T) {
	fx := newFixture(t, contacts(1))
	ctx := context.Background()
	status, err := fx.flow.Activate(ctx)
	require.NoError(t, err)
	_, err = fx.fake.ResolveAlert(ctx, status.Alert.ID)
	require.NoError(t, err)

	_, err = fx.flow.Deactivate(ctx)
	assert.True(t, errors.Is(err, apperr.ErrAlertUpdate))
	assert.True(t, errors.Is(err, backend.ErrConflict))

	refreshed, err := fx.flow.RefreshStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, Idle, refreshed.State)
}

func TestRefreshStatusReflectsBackend(t *testing.T) {
	fx := newFixture(t, contacts(2))
	ctx := context.Background()
	created, err := fx.flow.Activate(ctx)
	require.NoError(t, err)

	reloaded := NewFlow(fx.fake, fx.locator, fx.users, zap.NewNop())
	assert.Equal(t, Idle, reloaded.Status().State)
	status, err := reloaded.RefreshStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, Active, status.State)
	assert.Equal(t, created.Alert.ID, status.Alert.ID)
	assert.Equal(t, 2, status.Notified)

	fx.fake.Fail("ActiveAlert", errors.New("down"))
	_, err = reloaded.RefreshStatus(ctx)
	assert.True(t, errors.Is(err, apperr.ErrBackend))
}

func TestSignUpContactActivateDeactivate(t *testing.T) {
	fake := backendtest.New()
	users := session.NewManager(fake, zap.NewNop())
	defer users.Close()
	ctx := context.Background()
	users.Start(ctx)

	_, err := users.SignUp(ctx, "a@x.com", "secret", "A")
	require.NoError(t, err)
	one := models.EmergencyContacts{{Name: "B", Email: "b@x.com"}}
	_, err = users.UpdateProfile(ctx, models.ProfilePatch{EmergencyContacts: &one})
	require.NoError(t, err)

	flow := NewFlow(fake, &stubLocator{coords: geo.Coordinates{Latitude: 1, Longitude: 2}}, users, zap.NewNop())
	status, err := flow.Activate(ctx)
	require.NoError(t, err)

	alerts := fake.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertActive, alerts[0].Status)
	notifications := fake.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, "b@x.com", notifications[0].RecipientEmail)
	assert.Equal(t, models.NotificationPending, notifications[0].Status)
	assert.Equal(t, alerts[0].ID, notifications[0].SOSAlertID)
	assert.Equal(t, status.Alert.ID, alerts[0].ID)

	status, err = flow.Deactivate(ctx)
	require.NoError(t, err)
	assert.Equal(t, Idle, status.State)
	alerts = fake.Alerts()
	assert.Equal(t, models.AlertResolved, alerts[0].Status)
	assert.NotNil(t, alerts[0].ResolvedAt)
}

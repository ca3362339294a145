package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"safeguard-go/internal/apperr"
	"safeguard-go/internal/backend"
	"safeguard-go/internal/backend/backendtest"
	"safeguard-go/internal/geo"
	"safeguard-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type deviceFix struct {
	err error
}

func (d deviceFix) ResolveCurrentLocation(ctx context.Context) (geo.Coordinates, error) {
	if d.err != nil {
		return geo.Coordinates{}, apperr.LocationUnavailable("resolve current location", d.err)
	}
	return geo.Coordinates{Latitude: 44.43, Longitude: 26.1}, nil
}

func (d deviceFix) ReverseGeocode(ctx context.Context, lat, lng float64) geo.Place {
	return geo.Place{Kind: geo.PlaceResolved, Name: "Bucharest", Latitude: lat, Longitude: lng}
}

// run executes one command with a fresh App, like a separate process
// sharing the same backend.
func run(t *testing.T, fake *backendtest.Fake, locator Locator, stdin string, args ...string) (string, error) {
	t.Helper()
	app := NewApp(fake, locator, zap.NewNop())
	root := NewRootCommand(app)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := Execute(context.Background(), app, root)
	return out.String(), err
}

func TestSignUpContactAndSOS(t *testing.T) {
	fake := backendtest.New()
	out, err := run(t, fake, deviceFix{}, "", "signup", "--email", "a@x.com", "--password", "secret", "--name", "Ana")
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome, Ana")

	out, err = run(t, fake, deviceFix{}, "", "profile", "contact", "add", "--name", "Maria", "--email", "maria@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "1. Maria <maria@example.com>")

	out, err = run(t, fake, deviceFix{}, "", "sos", "activate")
	require.NoError(t, err)
	assert.Contains(t, out, "SOS: active")
	assert.Contains(t, out, "location:  Bucharest")
	assert.Contains(t, out, "1 notified")

	_, err = run(t, fake, deviceFix{}, "", "sos", "activate")
	assert.True(t, errors.Is(err, apperr.ErrInvalidState))
	assert.Len(t, fake.Alerts(), 1)

	out, err = run(t, fake, deviceFix{}, "", "sos", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "SOS: active")

	out, err = run(t, fake, deviceFix{}, "", "sos", "deactivate")
	require.NoError(t, err)
	assert.Contains(t, out, "SOS: idle")
	assert.Equal(t, models.AlertResolved, fake.Alerts()[0].Status)
}

func TestSignInReadsPasswordFromInput(t *testing.T) {
	fake := backendtest.New()
	fake.SeedUser("ana@example.com", "secret", "Ana", models.RoleUser)

	out, err := run(t, fake, deviceFix{}, "secret\n", "signin", "--email", "ana@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as ana@example.com (user)")

	out, err = run(t, fake, deviceFix{}, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "ana@example.com (user) Ana")

	out, err = run(t, fake, deviceFix{}, "", "signout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out.")

	out, err = run(t, fake, deviceFix{}, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not signed in.")
}

func TestSignInBadPassword(t *testing.T) {
	fake := backendtest.New()
	fake.SeedUser("ana@example.com", "secret", "Ana", models.RoleUser)

	_, err := run(t, fake, deviceFix{}, "", "signin", "--email", "ana@example.com", "--password", "nope")
	require.Error(t, err)
	var notice bytes.Buffer
	Notice(&notice, err)
	assert.Contains(t, notice.String(), "! Invalid login credentials")
}

func TestAdminCommandsRequireAdmin(t *testing.T) {
	fake := backendtest.New()
	fake.SeedUser("ana@example.com", "secret", "Ana", models.RoleUser)
	_, err := run(t, fake, deviceFix{}, "", "signin", "--email", "ana@example.com", "--password", "secret")
	require.NoError(t, err)

	_, err = run(t, fake, deviceFix{}, "", "admin", "users")
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
	var notice bytes.Buffer
	Notice(&notice, err)
	assert.Contains(t, notice.String(), "admin role required")
}

func TestAdminCommandsFollowRoleChanges(t *testing.T) {
	fake := backendtest.New()
	ana := fake.SeedUser("ana@example.com", "secret", "Ana", models.RoleUser)
	_, err := run(t, fake, deviceFix{}, "", "signin", "--email", "ana@example.com", "--password", "secret")
	require.NoError(t, err)

	fake.SetRole(ana.ID, models.RoleAdmin)
	out, err := run(t, fake, deviceFix{}, "", "admin", "users")
	require.NoError(t, err)
	assert.Contains(t, out, "ana@example.com")

	fake.SetRole(ana.ID, models.RoleUser)
	_, err = run(t, fake, deviceFix{}, "", "admin", "users")
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
}

func TestForumAndResourcesCommands(t *testing.T) {
	fake := backendtest.New()
	fake.SeedUser("ana@example.com", "secret", "Ana", models.RoleUser)
	fake.SeedResource(models.LegalResource{Category: "rights", Title: "Right to counsel", Content: "Call a lawyer"})
	_, err := run(t, fake, deviceFix{}, "", "signin", "--email", "ana@example.com", "--password", "secret")
	require.NoError(t, err)

	out, err := run(t, fake, deviceFix{}, "", "forum", "post", "--title", "Lit streets", "--content", "Main street is lit")
	require.NoError(t, err)
	assert.Contains(t, out, "Lit streets  (+0)")
	assert.Contains(t, out, "by Ana")

	out, err = run(t, fake, deviceFix{}, "", "resources", "list", "--category", "rights")
	require.NoError(t, err)
	assert.Contains(t, out, "== Know Your Rights ==")
	assert.Contains(t, out, "* Right to counsel")

	_, err = run(t, fake, deviceFix{}, "", "forum", "post", "--title", "", "--content", "x")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestIncidentReportWithoutLocation(t *testing.T) {
	fake := backendtest.New()
	fake.SeedUser("ana@example.com", "secret", "Ana", models.RoleUser)
	_, err := run(t, fake, deviceFix{}, "", "signin", "--email", "ana@example.com", "--password", "secret")
	require.NoError(t, err)

	_, err = run(t, fake, deviceFix{err: geo.ErrNoFix}, "", "incident", "report", "--type", "stalking", "--title", "t", "--description", "d", "--here")
	require.Error(t, err)
	var notice bytes.Buffer
	Notice(&notice, err)
	assert.Contains(t, notice.String(), "Unable to get your location")

	out, err := run(t, fake, deviceFix{}, "", "incident", "report", "--type", "stalking", "--title", "Followed", "--description", "d")
	require.NoError(t, err)
	assert.Contains(t, out, "Incident reported.")
	assert.Contains(t, out, "Followed")
}

func TestNoticeForConflict(t *testing.T) {
	err := apperr.AlertCreate("activate sos", &backend.StatusError{Status: 409, Message: "An SOS alert is already active"})
	var notice bytes.Buffer
	Notice(&notice, err)
	assert.Contains(t, notice.String(), "! An SOS alert is already active.")
}

func TestFailedCommandReleasesSessionSubscription(t *testing.T) {
	fake := backendtest.New()
	fake.SeedUser("ana@example.com", "secret", "Ana", models.RoleUser)
	_, err := run(t, fake, deviceFix{}, "", "signin", "--email", "ana@example.com", "--password", "secret")
	require.NoError(t, err)
	assert.Zero(t, fake.Listeners())

	_, err = run(t, fake, deviceFix{}, "", "sos", "deactivate")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrInvalidState))
	assert.Zero(t, fake.Listeners())
}

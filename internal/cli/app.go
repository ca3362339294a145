// Package cli is the safeguard command-line front end.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"safeguard-go/internal/apperr"
	"safeguard-go/internal/backend"
	"safeguard-go/internal/geo"
	"safeguard-go/internal/session"
	"safeguard-go/internal/sos"
	"safeguard-go/internal/views"

	"go.uber.org/zap"
)

// AssetLinker turns stored asset paths into absolute URLs.
type AssetLinker interface {
	AssetURL(path string) string
}

// SessionWatcher streams session events pushed by the backend.
type SessionWatcher interface {
	WatchSessionEvents(ctx context.Context) error
}

// Locator is what the SOS flow and incident reports need from geo.
type Locator interface {
	ResolveCurrentLocation(ctx context.Context) (geo.Coordinates, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) geo.Place
}

type App struct {
	Session   *session.Manager
	SOS       *sos.Flow
	Incidents *views.IncidentView
	Forum     *views.ForumView
	Resources *views.ResourcesView
	Profile   *views.ProfileView
	Admin     *views.AdminView
	Watcher   SessionWatcher
	Links     AssetLinker
	Logger    *zap.Logger
}

// NewApp wires the session manager, SOS flow and views around client.
func NewApp(client backend.Client, locator Locator, logger *zap.Logger) *App {
	manager := session.NewManager(client, logger)
	app := &App{
		Session:   manager,
		SOS:       sos.NewFlow(client, locator, manager, logger),
		Incidents: views.NewIncidentView(client, locator, manager),
		Forum:     views.NewForumView(client, manager),
		Resources: views.NewResourcesView(client),
		Profile:   views.NewProfileView(manager, client),
		Admin:     views.NewAdminView(client, manager),
		Logger:    logger,
	}
	if watcher, ok := client.(SessionWatcher); ok {
		app.Watcher = watcher
	}
	if linker, ok := client.(AssetLinker); ok {
		app.Links = linker
	}
	return app
}

// Close releases the session manager's subscription.
func (a *App) Close() {
	a.Session.Close()
}

// link resolves a backend-relative asset path for display.
func (a *App) link(path string) string {
	if a.Links == nil {
		return path
	}
	return a.Links.AssetURL(path)
}

// Notice writes err as the blocking message shown to the user.
func Notice(w io.Writer, err error) {
	fmt.Fprintf(w, "! %s\n", noticeText(err))
	if detail := err.Error(); detail != noticeText(err) {
		fmt.Fprintf(w, "  (%s)\n", detail)
	}
}

func noticeText(err error) string {
	var status *backend.StatusError
	switch apperr.KindOf(err) {
	case apperr.KindLocationUnavailable:
		return "Unable to get your location. Please enable location services."
	case apperr.KindAlertCreate:
		if errors.Is(err, backend.ErrConflict) {
			return "An SOS alert is already active."
		}
		return "Failed to activate SOS. Please check your location settings."
	case apperr.KindAlertUpdate:
		return "Failed to deactivate SOS."
	case apperr.KindNotAuthenticated:
		return "You are not signed in. Run `safeguard signin` first."
	case apperr.KindSignOut:
		return "Sign out failed; you are still signed in."
	case apperr.KindProfileInsert:
		return "Your account was created but the profile could not be saved."
	case apperr.KindProfileFetch:
		return "Your profile could not be loaded."
	case apperr.KindAuth, apperr.KindBackend:
		if errors.As(err, &status) && status.Message != "" {
			return status.Message
		}
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Msg != "" {
		return appErr.Msg
	}
	return err.Error()
}

// Package sos drives the SOS alert lifecycle for the signed-in user.
package sos

import (
	"context"
	"errors"
	"sync"

	"safeguard-go/internal/apperr"
	"safeguard-go/internal/backend"
	"safeguard-go/internal/geo"
	"safeguard-go/internal/models"

	"go.uber.org/zap"
)

type State string

const (
	Idle         State = "idle"
	Activating   State = "activating"
	Active       State = "active"
	Deactivating State = "deactivating"
)

// Locator resolves where the user is and what the place is called.
type Locator interface {
	ResolveCurrentLocation(ctx context.Context) (geo.Coordinates, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) geo.Place
}

// CurrentUser supplies the signed-in profile, including emergency contacts.
type CurrentUser interface {
	Current() *models.User
}

type Status struct {
	State    State
	Alert    *models.SOSAlert
	Place    *geo.Place
	Notified int
	Failed   int
}

type Flow struct {
	alerts  backend.Alerts
	locator Locator
	users   CurrentUser
	logger  *zap.Logger

	mu       sync.Mutex
	state    State
	alert    *models.SOSAlert
	place    *geo.Place
	notified int
	failed   int
}

func NewFlow(alerts backend.Alerts, locator Locator, users CurrentUser, logger *zap.Logger) *Flow {
	return &Flow{alerts: alerts, locator: locator, users: users, logger: logger, state: Idle}
}

func (f *Flow) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot()
}

func (f *Flow) snapshot() Status {
	status := Status{State: f.state, Notified: f.notified, Failed: f.failed}
	if f.alert != nil {
		alert := *f.alert
		status.Alert = &alert
	}
	if f.place != nil {
		place := *f.place
		status.Place = &place
	}
	return status
}

func (f *Flow) transition(from, to State, op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != from {
		return apperr.InvalidState(op, string(f.state), string(from))
	}
	f.state = to
	return nil
}

func (f *Flow) setState(state State) {
	f.mu.Lock()
	f.state = state
	f.mu.Unlock()
}

// Activate opens an alert at the current location and creates one pending
// notification per emergency contact. Notification failures are counted,
// not returned.
func (f *Flow) Activate(ctx context.Context) (Status, error) {
	const op = "activate sos"
	if err := f.transition(Idle, Activating, op); err != nil {
		return f.Status(), err
	}
	user := f.users.Current()
	if user == nil {
		f.setState(Idle)
		return f.Status(), apperr.NotAuthenticated(op)
	}

	coords, err := f.locator.ResolveCurrentLocation(ctx)
	if err != nil {
		f.setState(Idle)
		if apperr.KindOf(err) != apperr.KindLocationUnavailable {
			err = apperr.LocationUnavailable(op, err)
		}
		return f.Status(), err
	}
	place := f.locator.ReverseGeocode(ctx, coords.Latitude, coords.Longitude)

	alert, err := f.alerts.CreateAlert(ctx, models.NewAlert{
		Latitude:     coords.Latitude,
		Longitude:    coords.Longitude,
		LocationName: place.Name,
	})
	if err != nil {
		if errors.Is(err, backend.ErrConflict) {
			f.logger.Warn("sos alert already active elsewhere", zap.String("user_id", user.ID))
		}
		if _, refreshErr := f.reconcile(ctx); refreshErr != nil {
			f.setState(Idle)
		}
		return f.Status(), apperr.AlertCreate(op, err)
	}

	notified, failed := f.fanOut(ctx, alert, user.EmergencyContacts)

	f.mu.Lock()
	f.alert = alert
	f.place = &place
	f.notified = notified
	f.failed = failed
	f.state = Active
	f.mu.Unlock()

	if _, err := f.reconcile(ctx); err != nil {
		f.logger.Warn("sos status re-read failed after activation", zap.Error(err))
	}
	return f.Status(), nil
}

func (f *Flow) fanOut(ctx context.Context, alert *models.SOSAlert, contacts models.EmergencyContacts) (int, int) {
	notified, failed := 0, 0
	for _, contact := range contacts {
		_, err := f.alerts.CreateNotification(ctx, alert.ID, models.NewNotification{
			RecipientEmail: contact.Email,
			RecipientName:  contact.Name,
		})
		if err != nil {
			failed++
			f.logger.Warn("sos notification not recorded",
				zap.String("alert_id", alert.ID),
				zap.String("recipient", contact.Email),
				zap.Error(err))
			continue
		}
		notified++
	}
	f.logger.Info("sos alert activated",
		zap.String("alert_id", alert.ID),
		zap.Int("notified", notified),
		zap.Int("failed", failed))
	return notified, failed
}

// Deactivate resolves the active alert. On failure the flow stays Active.
func (f *Flow) Deactivate(ctx context.Context) (Status, error) {
	const op = "deactivate sos"
	if err := f.transition(Active, Deactivating, op); err != nil {
		return f.Status(), err
	}
	f.mu.Lock()
	alertID := f.alert.ID
	f.mu.Unlock()

	if _, err := f.alerts.ResolveAlert(ctx, alertID); err != nil {
		f.setState(Active)
		return f.Status(), apperr.AlertUpdate(op, err)
	}
	f.logger.Info("sos alert resolved", zap.String("alert_id", alertID))

	f.mu.Lock()
	f.state = Idle
	f.alert = nil
	f.place = nil
	f.notified = 0
	f.failed = 0
	f.mu.Unlock()

	if _, err := f.reconcile(ctx); err != nil {
		f.logger.Warn("sos status re-read failed after deactivation", zap.Error(err))
	}
	return f.Status(), nil
}

// RefreshStatus derives the state from the backend's active alert. It is a
// no-op while an activation or deactivation is in flight.
func (f *Flow) RefreshStatus(ctx context.Context) (Status, error) {
	f.mu.Lock()
	busy := f.state == Activating || f.state == Deactivating
	f.mu.Unlock()
	if busy {
		return f.Status(), nil
	}
	return f.reconcile(ctx)
}

func (f *Flow) reconcile(ctx context.Context) (Status, error) {
	alert, err := f.alerts.ActiveAlert(ctx)
	if err != nil {
		return f.Status(), apperr.Backend("refresh sos status", err)
	}
	if alert == nil {
		f.mu.Lock()
		f.state = Idle
		f.alert = nil
		f.place = nil
		f.notified = 0
		f.failed = 0
		status := f.snapshot()
		f.mu.Unlock()
		return status, nil
	}

	notified := -1
	if notifications, err := f.alerts.ListNotifications(ctx, alert.ID); err == nil {
		notified = len(notifications)
	} else {
		f.logger.Debug("sos notifications unavailable", zap.String("alert_id", alert.ID), zap.Error(err))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.alert == nil || f.alert.ID != alert.ID {
		f.failed = 0
		f.notified = 0
		f.place = nil
	}
	if notified >= 0 {
		f.notified = notified
	}
	f.alert = alert
	f.state = Active
	return f.snapshot(), nil
}

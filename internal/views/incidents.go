package views

import (
	"context"
	"io"
	"strings"

	"safeguard-go/internal/apperr"
	"safeguard-go/internal/backend"
	"safeguard-go/internal/models"
)

type IncidentReport struct {
	Type        string
	Title       string
	Description string
	Anonymous   bool
	// UseCurrentLocation attaches the device position and its place name.
	UseCurrentLocation bool
}

type IncidentView struct {
	incidents backend.Incidents
	locator   Locator
	users     CurrentUser
}

func NewIncidentView(incidents backend.Incidents, locator Locator, users CurrentUser) *IncidentView {
	return &IncidentView{incidents: incidents, locator: locator, users: users}
}

func (v *IncidentView) Types() []models.Option {
	return append([]models.Option(nil), models.IncidentTypes...)
}

// List returns the current user's reports, newest first.
func (v *IncidentView) List(ctx context.Context) ([]models.Incident, error) {
	if _, err := requireUser(v.users, "list incidents"); err != nil {
		return nil, err
	}
	incidents, err := v.incidents.ListIncidents(ctx)
	if err != nil {
		return nil, apperr.Backend("list incidents", err)
	}
	return incidents, nil
}

func (v *IncidentView) Report(ctx context.Context, report IncidentReport) ([]models.Incident, error) {
	const op = "report incident"
	if _, err := requireUser(v.users, op); err != nil {
		return nil, err
	}
	if err := required(op, field("incident type", report.Type), field("title", report.Title), field("description", report.Description)); err != nil {
		return nil, err
	}
	if !models.ValidIncidentType(report.Type) {
		return nil, apperr.Validation(op, "unknown incident type %q", report.Type)
	}
	input := models.NewIncident{
		IncidentType: report.Type,
		Title:        strings.TrimSpace(report.Title),
		Description:  strings.TrimSpace(report.Description),
		IsAnonymous:  report.Anonymous,
	}
	if report.UseCurrentLocation {
		coords, err := v.locator.ResolveCurrentLocation(ctx)
		if err != nil {
			return nil, err
		}
		place := v.locator.ReverseGeocode(ctx, coords.Latitude, coords.Longitude)
		lat, lng, name := coords.Latitude, coords.Longitude, place.Name
		input.Latitude, input.Longitude, input.LocationName = &lat, &lng, &name
	}
	if _, err := v.incidents.CreateIncident(ctx, input); err != nil {
		return nil, apperr.Backend(op, err)
	}
	return v.List(ctx)
}

// AttachEvidence uploads one file to an incident the user reported.
func (v *IncidentView) AttachEvidence(ctx context.Context, incidentID, filename string, body io.Reader) ([]models.Incident, error) {
	const op = "attach evidence"
	if _, err := requireUser(v.users, op); err != nil {
		return nil, err
	}
	if err := required(op, field("incident", incidentID), field("file name", filename)); err != nil {
		return nil, err
	}
	if _, err := v.incidents.UploadEvidence(ctx, incidentID, filename, body); err != nil {
		return nil, apperr.Backend(op, err)
	}
	return v.List(ctx)
}

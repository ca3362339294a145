package views

import (
	"context"
	"strings"

	"safeguard-go/internal/apperr"
	"safeguard-go/internal/backend"
	"safeguard-go/internal/models"
)

// AdminBackend covers the admin screens, including the resource list they
// manage.
type AdminBackend interface {
	backend.Admin
	backend.Resources
}

// AdminView gates every action on the admin role. The backend enforces the
// same rule independently.
type AdminView struct {
	admin AdminBackend
	users CurrentUser
}

func NewAdminView(admin AdminBackend, users CurrentUser) *AdminView {
	return &AdminView{admin: admin, users: users}
}

func (v *AdminView) Incidents(ctx context.Context, status models.IncidentStatus) ([]models.Incident, error) {
	const op = "list all incidents"
	if err := requireAdmin(v.users, op); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, apperr.Validation(op, "unknown status %q", status)
	}
	incidents, err := v.admin.ListAllIncidents(ctx, status)
	if err != nil {
		return nil, apperr.Backend(op, err)
	}
	return incidents, nil
}

// SetIncidentStatus moves an incident and refetches the list with the
// caller's current filter ("" for all).
func (v *AdminView) SetIncidentStatus(ctx context.Context, id string, status, filter models.IncidentStatus) ([]models.Incident, error) {
	const op = "set incident status"
	if err := requireAdmin(v.users, op); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, apperr.Validation(op, "unknown status %q", status)
	}
	if filter != "" && !filter.Valid() {
		return nil, apperr.Validation(op, "unknown filter %q", filter)
	}
	if _, err := v.admin.SetIncidentStatus(ctx, id, status); err != nil {
		return nil, apperr.Backend(op, err)
	}
	return v.Incidents(ctx, filter)
}

func (v *AdminView) Users(ctx context.Context) ([]models.User, error) {
	const op = "list users"
	if err := requireAdmin(v.users, op); err != nil {
		return nil, err
	}
	users, err := v.admin.ListUsers(ctx)
	if err != nil {
		return nil, apperr.Backend(op, err)
	}
	return users, nil
}

func (v *AdminView) SetUserRole(ctx context.Context, id string, role models.Role) ([]models.User, error) {
	const op = "set user role"
	if err := requireAdmin(v.users, op); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperr.Validation(op, "unknown role %q", role)
	}
	if _, err := v.admin.SetUserRole(ctx, id, role); err != nil {
		return nil, apperr.Backend(op, err)
	}
	return v.Users(ctx)
}

func (v *AdminView) Resources(ctx context.Context) ([]models.LegalResource, error) {
	const op = "list resources"
	if err := requireAdmin(v.users, op); err != nil {
		return nil, err
	}
	resources, err := v.admin.ListResources(ctx, models.ResourceFilter{})
	if err != nil {
		return nil, apperr.Backend(op, err)
	}
	return resources, nil
}

func validResource(op string, input models.ResourceInput) (models.ResourceInput, error) {
	if err := required(op, field("category", input.Category), field("title", input.Title), field("content", input.Content)); err != nil {
		return input, err
	}
	input.Category = strings.TrimSpace(input.Category)
	input.Title = strings.TrimSpace(input.Title)
	input.Content = strings.TrimSpace(input.Content)
	if !models.ValidResourceCategory(input.Category) {
		return input, apperr.Validation(op, "unknown category %q", input.Category)
	}
	return input, nil
}

func (v *AdminView) CreateResource(ctx context.Context, input models.ResourceInput) ([]models.LegalResource, error) {
	const op = "create resource"
	if err := requireAdmin(v.users, op); err != nil {
		return nil, err
	}
	input, err := validResource(op, input)
	if err != nil {
		return nil, err
	}
	if _, err := v.admin.CreateResource(ctx, input); err != nil {
		return nil, apperr.Backend(op, err)
	}
	return v.Resources(ctx)
}

func (v *AdminView) UpdateResource(ctx context.Context, id string, input models.ResourceInput) ([]models.LegalResource, error) {
	const op = "update resource"
	if err := requireAdmin(v.users, op); err != nil {
		return nil, err
	}
	input, err := validResource(op, input)
	if err != nil {
		return nil, err
	}
	if _, err := v.admin.UpdateResource(ctx, id, input); err != nil {
		return nil, apperr.Backend(op, err)
	}
	return v.Resources(ctx)
}

func (v *AdminView) DeleteResource(ctx context.Context, id string) ([]models.LegalResource, error) {
	const op = "delete resource"
	if err := requireAdmin(v.users, op); err != nil {
		return nil, err
	}
	if err := v.admin.DeleteResource(ctx, id); err != nil {
		return nil, apperr.Backend(op, err)
	}
	return v.Resources(ctx)
}

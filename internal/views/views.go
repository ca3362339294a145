// Package views maps each user-facing screen action to backend calls. Lists
// are always refetched in full; mutations are followed by a refetch.
package views

import (
	"context"
	"strings"

	"safeguard-go/internal/apperr"
	"safeguard-go/internal/geo"
	"safeguard-go/internal/models"
)

// CurrentUser is the session's current-user mirror.
type CurrentUser interface {
	Current() *models.User
}

// Locator is the subset of the geo resolver incident reports use.
type Locator interface {
	ResolveCurrentLocation(ctx context.Context) (geo.Coordinates, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) geo.Place
}

func requireUser(users CurrentUser, op string) (*models.User, error) {
	user := users.Current()
	if user == nil {
		return nil, apperr.NotAuthenticated(op)
	}
	return user, nil
}

func requireAdmin(users CurrentUser, op string) error {
	user, err := requireUser(users, op)
	if err != nil {
		return err
	}
	if !user.IsAdmin() {
		return apperr.Forbidden(op, "admin role required")
	}
	return nil
}

// required trims each value and fails on the first empty one.
func required(op string, fields ...[2]string) error {
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			return apperr.Validation(op, "%s is required", f[0])
		}
	}
	return nil
}

func field(name, value string) [2]string {
	return [2]string{name, value}
}

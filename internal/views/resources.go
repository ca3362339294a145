package views

import (
	"context"
	"strings"

	"safeguard-go/internal/apperr"
	"safeguard-go/internal/backend"
	"safeguard-go/internal/models"
)

type ResourcesView struct {
	resources backend.Resources
}

func NewResourcesView(resources backend.Resources) *ResourcesView {
	return &ResourcesView{resources: resources}
}

// List returns resources ordered by category then display order. An empty
// filter returns everything.
func (v *ResourcesView) List(ctx context.Context, filter models.ResourceFilter) ([]models.LegalResource, error) {
	filter.Category = strings.TrimSpace(filter.Category)
	filter.Search = strings.TrimSpace(filter.Search)
	if filter.Category != "" && !models.ValidResourceCategory(filter.Category) {
		return nil, apperr.Validation("list resources", "unknown category %q", filter.Category)
	}
	resources, err := v.resources.ListResources(ctx, filter)
	if err != nil {
		return nil, apperr.Backend("list resources", err)
	}
	return resources, nil
}

func (v *ResourcesView) Categories(ctx context.Context) ([]models.Option, error) {
	categories, err := v.resources.ResourceCategories(ctx)
	if err != nil {
		return nil, apperr.Backend("list resource categories", err)
	}
	return categories, nil
}

package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"safeguard-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const resourceColumns = `id, category, title, content, "order", created_at, updated_at`

var whitespace = regexp.MustCompile(`\s+`)

func NormalizeRequired(value, message string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", ErrBadRequest(message)
	}
	return trimmed, nil
}

func CleanSearchTerm(term string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(term), " ")
}

// ListResources returns legal resources ordered by category then order,
// optionally narrowed to a category and a case-insensitive text search.
func ListResources(db *sqlx.DB, filter models.ResourceFilter) ([]models.LegalResource, error) {
	where := []string{}
	args := []interface{}{}
	if category := strings.TrimSpace(filter.Category); category != "" {
		args = append(args, category)
		where = append(where, "category = $"+strconv.Itoa(len(args)))
	}
	if term := CleanSearchTerm(filter.Search); term != "" {
		args = append(args, "%"+term+"%")
		n := strconv.Itoa(len(args))
		where = append(where, "(title ILIKE $"+n+" OR content ILIKE $"+n+")")
	}
	query := `SELECT ` + resourceColumns + ` FROM legal_resources`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY category, "order", title`
	resources := []models.LegalResource{}
	err := db.Select(&resources, query, args...)
	return resources, err
}

func validateResource(input models.ResourceInput) (models.ResourceInput, error) {
	var err error
	if input.Category, err = NormalizeRequired(input.Category, "Category is required"); err != nil {
		return input, err
	}
	if !models.ValidResourceCategory(input.Category) {
		return input, ErrBadRequest("Unknown category")
	}
	if input.Title, err = NormalizeRequired(input.Title, "Title is required"); err != nil {
		return input, err
	}
	if input.Content, err = NormalizeRequired(input.Content, "Content is required"); err != nil {
		return input, err
	}
	return input, nil
}

func CreateResource(db *sqlx.DB, input models.ResourceInput) (*models.LegalResource, error) {
	input, err := validateResource(input)
	if err != nil {
		return nil, err
	}
	order := 0
	if input.Order != nil {
		order = *input.Order
	}
	now := time.Now().UTC()
	resource := models.LegalResource{}
	err = db.Get(&resource, `
INSERT INTO legal_resources (id, category, title, content, "order", created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$6)
RETURNING `+resourceColumns, uuid.NewString(), input.Category, input.Title, input.Content, order, now)
	if err != nil {
		return nil, WrapError(err, "insert resource")
	}
	return &resource, nil
}

func UpdateResource(db *sqlx.DB, id string, input models.ResourceInput) (*models.LegalResource, error) {
	input, err := validateResource(input)
	if err != nil {
		return nil, err
	}
	resource := models.LegalResource{}
	err = db.Get(&resource, `
UPDATE legal_resources
SET category = $1, title = $2, content = $3, "order" = COALESCE($4, "order"), updated_at = $5
WHERE id = $6
RETURNING `+resourceColumns, input.Category, input.Title, input.Content, input.Order, time.Now().UTC(), id)
	if err != nil {
		return nil, notFoundOr(err, "Resource not found")
	}
	return &resource, nil
}

func DeleteResource(db *sqlx.DB, id string) error {
	res, err := db.Exec(`DELETE FROM legal_resources WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound("Resource not found")
	}
	return nil
}

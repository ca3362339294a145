package services

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"safeguard-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// CreateIdentity registers email/password credentials. No profile row is
// created here.
func CreateIdentity(db *sqlx.DB, tokens TokenService, email, password string) (*models.Identity, error) {
	email = normalizeEmail(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, ErrBadRequest("Email and password are required")
	}
	hash, err := tokens.HashPassword(password)
	if err != nil {
		return nil, err
	}
	identity := &models.Identity{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err = db.Exec(`
INSERT INTO identities (id, email, password_hash, created_at)
VALUES ($1,$2,$3,$4)
`, identity.ID, identity.Email, identity.PasswordHash, identity.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrConflict("User already registered")
		}
		return nil, WrapError(err, "insert identity")
	}
	return identity, nil
}

// Authenticate checks credentials and stamps last_sign_in_at.
func Authenticate(db *sqlx.DB, tokens TokenService, email, password string) (*models.Identity, error) {
	email = normalizeEmail(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, ErrBadRequest("Email and password are required")
	}
	identity := models.Identity{}
	err := db.Get(&identity, `
SELECT id, email, password_hash, created_at, last_sign_in_at
FROM identities WHERE lower(email) = $1
`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUnauthorized("Invalid login credentials")
	}
	if err != nil {
		return nil, err
	}
	if !tokens.VerifyPassword(password, identity.PasswordHash) {
		return nil, ErrUnauthorized("Invalid login credentials")
	}
	now := time.Now().UTC()
	if _, err := db.Exec(`UPDATE identities SET last_sign_in_at = $1 WHERE id = $2`, now, identity.ID); err != nil {
		return nil, err
	}
	identity.LastSignInAt = &now
	return &identity, nil
}

func GetIdentity(db *sqlx.DB, id string) (*models.Identity, error) {
	identity := models.Identity{}
	err := db.Get(&identity, `
SELECT id, email, password_hash, created_at, last_sign_in_at
FROM identities WHERE id = $1
`, id)
	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	return &identity, nil
}

// IdentityRole returns the profile role for id, defaulting to user when the
// profile row does not exist yet.
func IdentityRole(db *sqlx.DB, id string) (models.Role, error) {
	var role string
	err := db.Get(&role, `SELECT role FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RoleUser, nil
	}
	if err != nil {
		return "", err
	}
	return models.Role(role), nil
}

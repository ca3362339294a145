package services

import (
	"strconv"
	"strings"
	"time"

	"safeguard-go/internal/models"

	"github.com/jmoiron/sqlx"
)

const userColumns = `id, email, full_name, phone_number, role, profile_picture, emergency_contacts, created_at, updated_at`

// CreateProfile inserts the profile row for an identity. Role is always user.
func CreateProfile(db *sqlx.DB, identity *models.Identity, input models.NewProfile) (*models.User, error) {
	now := time.Now().UTC()
	user := models.User{}
	err := db.Get(&user, `
INSERT INTO users (id, email, full_name, role, emergency_contacts, created_at, updated_at)
VALUES ($1,$2,$3,'user','[]',$4,$4)
RETURNING `+userColumns, identity.ID, identity.Email, nullIfBlank(input.FullName), now)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrConflict("Profile already exists")
		}
		return nil, WrapError(err, "insert profile")
	}
	return &user, nil
}

func GetProfile(db *sqlx.DB, id string) (*models.User, error) {
	user := models.User{}
	if err := db.Get(&user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id); err != nil {
		return nil, notFoundOr(err, "Profile not found")
	}
	return &user, nil
}

// UpdateProfile applies the non-nil fields of patch and returns the stored row.
func UpdateProfile(db *sqlx.DB, id string, patch models.ProfilePatch) (*models.User, error) {
	if patch.Empty() {
		return GetProfile(db, id)
	}
	sets := []string{}
	args := []interface{}{}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}
	if patch.FullName != nil {
		add("full_name", nullIfBlank(*patch.FullName))
	}
	if patch.PhoneNumber != nil {
		add("phone_number", nullIfBlank(*patch.PhoneNumber))
	}
	if patch.ProfilePicture != nil {
		add("profile_picture", nullIfBlank(*patch.ProfilePicture))
	}
	if patch.EmergencyContacts != nil {
		for _, contact := range *patch.EmergencyContacts {
			if strings.TrimSpace(contact.Name) == "" || strings.TrimSpace(contact.Email) == "" {
				return nil, ErrBadRequest("Emergency contacts need a name and an email")
			}
		}
		add("emergency_contacts", *patch.EmergencyContacts)
	}
	add("updated_at", time.Now().UTC())
	args = append(args, id)
	query := `UPDATE users SET ` + strings.Join(sets, ", ") +
		` WHERE id = $` + strconv.Itoa(len(args)) + ` RETURNING ` + userColumns
	user := models.User{}
	if err := db.Get(&user, query, args...); err != nil {
		return nil, notFoundOr(err, "Profile not found")
	}
	return &user, nil
}

func ListUsers(db *sqlx.DB) ([]models.User, error) {
	users := []models.User{}
	err := db.Select(&users, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	return users, err
}

func SetUserRole(db *sqlx.DB, id string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, ErrBadRequest("Unknown role")
	}
	user := models.User{}
	err := db.Get(&user, `
UPDATE users SET role = $1, updated_at = $2 WHERE id = $3
RETURNING `+userColumns, string(role), time.Now().UTC(), id)
	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	return &user, nil
}

// PromoteAdmins grants the admin role to every profile whose email is listed.
func PromoteAdmins(db *sqlx.DB, emails []string) (int64, error) {
	if len(emails) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`UPDATE users SET role = 'admin', updated_at = ? WHERE lower(email) IN (?) AND role <> 'admin'`, time.Now().UTC(), emails)
	if err != nil {
		return 0, err
	}
	res, err := db.Exec(db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func nullIfBlank(value string) interface{} {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return value
}

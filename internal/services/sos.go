package services

import (
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"safeguard-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const alertColumns = `id, user_id, latitude, longitude, location_name, status, activated_at, resolved_at, notes, created_at`

func validCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// CreateAlert opens an active alert for userID. A second active alert for the
// same user violates uq_sos_alerts_active_user and is reported as 409.
func CreateAlert(db *sqlx.DB, userID string, input models.NewAlert) (*models.SOSAlert, error) {
	if !validCoordinates(input.Latitude, input.Longitude) {
		return nil, ErrBadRequest("Invalid coordinates")
	}
	now := time.Now().UTC()
	alert := models.SOSAlert{}
	err := db.Get(&alert, `
INSERT INTO sos_alerts (id, user_id, latitude, longitude, location_name, status, activated_at, notes, created_at)
VALUES ($1,$2,$3,$4,$5,'active',$6,$7,$6)
RETURNING `+alertColumns, uuid.NewString(), userID, input.Latitude, input.Longitude,
		nullIfBlank(input.LocationName), now, input.Notes)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrConflict("An SOS alert is already active")
		}
		return nil, WrapError(err, "insert alert")
	}
	return &alert, nil
}

// ListAlerts returns userID's alerts newest first. Empty status means all.
func ListAlerts(db *sqlx.DB, userID string, status models.AlertStatus, limit int) ([]models.SOSAlert, error) {
	args := []interface{}{userID}
	query := `SELECT ` + alertColumns + ` FROM sos_alerts WHERE user_id = $1`
	if status != "" {
		args = append(args, string(status))
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY activated_at DESC`
	if limit > 0 {
		args = append(args, limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	alerts := []models.SOSAlert{}
	err := db.Select(&alerts, query, args...)
	return alerts, err
}

func getOwnedAlert(db *sqlx.DB, userID, alertID string) (*models.SOSAlert, error) {
	alert := models.SOSAlert{}
	err := db.Get(&alert, `SELECT `+alertColumns+` FROM sos_alerts WHERE id = $1 AND user_id = $2`, alertID, userID)
	if err != nil {
		return nil, notFoundOr(err, "Alert not found")
	}
	return &alert, nil
}

// ResolveAlert moves an active alert to resolved. Alerts that are not active
// are rejected with 409 rather than silently accepted.
func ResolveAlert(db *sqlx.DB, userID, alertID string) (*models.SOSAlert, error) {
	alert := models.SOSAlert{}
	err := db.Get(&alert, `
UPDATE sos_alerts SET status = 'resolved', resolved_at = $1
WHERE id = $2 AND user_id = $3 AND status = 'active'
RETURNING `+alertColumns, time.Now().UTC(), alertID, userID)
	if err == nil {
		return &alert, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, WrapError(err, "resolve alert")
	}
	if _, lookupErr := getOwnedAlert(db, userID, alertID); lookupErr != nil {
		return nil, lookupErr
	}
	return nil, ErrConflict("Alert is not active")
}

func CreateNotification(db *sqlx.DB, userID, alertID string, input models.NewNotification) (*models.SOSNotification, error) {
	email, err := NormalizeRequired(input.RecipientEmail, "Recipient email is required")
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.RecipientName)
	if _, err := getOwnedAlert(db, userID, alertID); err != nil {
		return nil, err
	}
	notification := models.SOSNotification{}
	err = db.Get(&notification, `
INSERT INTO sos_notifications (id, sos_alert_id, recipient_email, recipient_name, status, created_at)
VALUES ($1,$2,$3,$4,'pending',$5)
RETURNING id, sos_alert_id, recipient_email, recipient_name, status, created_at
`, uuid.NewString(), alertID, email, name, time.Now().UTC())
	if err != nil {
		return nil, WrapError(err, "insert notification")
	}
	return &notification, nil
}

func ListNotifications(db *sqlx.DB, userID, alertID string) ([]models.SOSNotification, error) {
	if _, err := getOwnedAlert(db, userID, alertID); err != nil {
		return nil, err
	}
	notifications := []models.SOSNotification{}
	err := db.Select(&notifications, `
SELECT id, sos_alert_id, recipient_email, recipient_name, status, created_at
FROM sos_notifications WHERE sos_alert_id = $1
ORDER BY created_at
`, alertID)
	return notifications, err
}

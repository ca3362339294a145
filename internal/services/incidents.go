package services

import (
	"strings"
	"time"

	"safeguard-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const incidentColumns = `id, user_id, incident_type, title, description, latitude, longitude, location_name, status, is_anonymous, evidence_files, created_at, updated_at`

func CreateIncident(db *sqlx.DB, userID string, input models.NewIncident) (*models.Incident, error) {
	title, err := NormalizeRequired(input.Title, "Title is required")
	if err != nil {
		return nil, err
	}
	description, err := NormalizeRequired(input.Description, "Description is required")
	if err != nil {
		return nil, err
	}
	if !models.ValidIncidentType(input.IncidentType) {
		return nil, ErrBadRequest("Unknown incident type")
	}
	if (input.Latitude == nil) != (input.Longitude == nil) {
		return nil, ErrBadRequest("Latitude and longitude must be given together")
	}
	if input.Latitude != nil && !validCoordinates(*input.Latitude, *input.Longitude) {
		return nil, ErrBadRequest("Invalid coordinates")
	}
	var location interface{}
	if input.LocationName != nil {
		location = nullIfBlank(*input.LocationName)
	}
	now := time.Now().UTC()
	incident := models.Incident{}
	err = db.Get(&incident, `
INSERT INTO incidents (id, user_id, incident_type, title, description, latitude, longitude, location_name,
  status, is_anonymous, evidence_files, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,'new',$9,'[]',$10,$10)
RETURNING `+incidentColumns, uuid.NewString(), userID, input.IncidentType, title, description,
		input.Latitude, input.Longitude, location, input.IsAnonymous, now)
	if err != nil {
		return nil, WrapError(err, "insert incident")
	}
	return &incident, nil
}

// ListIncidents returns the incidents reported by userID, newest first.
func ListIncidents(db *sqlx.DB, userID string) ([]models.Incident, error) {
	incidents := []models.Incident{}
	err := db.Select(&incidents, `SELECT `+incidentColumns+` FROM incidents WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	return incidents, err
}

// ListAllIncidents is the admin listing. Reporter ids are withheld from
// anonymous incidents.
func ListAllIncidents(db *sqlx.DB, status models.IncidentStatus) ([]models.Incident, error) {
	incidents := []models.Incident{}
	var err error
	if status != "" {
		if !status.Valid() {
			return nil, ErrBadRequest("Unknown status")
		}
		err = db.Select(&incidents, `SELECT `+incidentColumns+` FROM incidents WHERE status = $1 ORDER BY created_at DESC`, string(status))
	} else {
		err = db.Select(&incidents, `SELECT `+incidentColumns+` FROM incidents ORDER BY created_at DESC`)
	}
	if err != nil {
		return nil, err
	}
	for i := range incidents {
		if incidents[i].IsAnonymous {
			incidents[i].UserID = nil
		}
	}
	return incidents, nil
}

func SetIncidentStatus(db *sqlx.DB, id string, status models.IncidentStatus) (*models.Incident, error) {
	if !status.Valid() {
		return nil, ErrBadRequest("Unknown status")
	}
	incident := models.Incident{}
	err := db.Get(&incident, `
UPDATE incidents SET status = $1, updated_at = $2 WHERE id = $3
RETURNING `+incidentColumns, string(status), time.Now().UTC(), id)
	if err != nil {
		return nil, notFoundOr(err, "Incident not found")
	}
	if incident.IsAnonymous {
		incident.UserID = nil
	}
	return &incident, nil
}

// AddEvidence appends file to the evidence list of an incident owned by userID.
func AddEvidence(db *sqlx.DB, userID, incidentID string, file models.EvidenceFile) (*models.Incident, error) {
	if strings.TrimSpace(file.URL) == "" {
		return nil, ErrBadRequest("Evidence URL is required")
	}
	entry := models.EvidenceFiles{file}
	incident := models.Incident{}
	err := db.Get(&incident, `
UPDATE incidents SET evidence_files = evidence_files || $1::jsonb, updated_at = $2
WHERE id = $3 AND user_id = $4
RETURNING `+incidentColumns, entry, time.Now().UTC(), incidentID, userID)
	if err != nil {
		return nil, notFoundOr(err, "Incident not found")
	}
	return &incident, nil
}

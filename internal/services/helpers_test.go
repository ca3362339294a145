package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	rawDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { rawDB.Close() })
	return sqlx.NewDb(rawDB, "pgx"), mock
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	se, ok := err.(ServiceError)
	require.True(t, ok, "expected ServiceError, got %T: %v", err, err)
	require.Equal(t, status, se.Status)
}

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

var userCols = []string{"id", "email", "full_name", "phone_number", "role", "profile_picture", "emergency_contacts", "created_at", "updated_at"}

var alertCols = []string{"id", "user_id", "latitude", "longitude", "location_name", "status", "activated_at", "resolved_at", "notes", "created_at"}

var incidentCols = []string{"id", "user_id", "incident_type", "title", "description", "latitude", "longitude", "location_name", "status", "is_anonymous", "evidence_files", "created_at", "updated_at"}

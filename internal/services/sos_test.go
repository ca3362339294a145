package services

import (
	"regexp"
	"testing"

	"safeguard-go/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAlert(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO sos_alerts")).
		WithArgs(sqlmock.AnyArg(), "user-1", 44.43, 26.1, "Bucharest", sqlmock.AnyArg(), nil).
		WillReturnRows(sqlmock.NewRows(alertCols).
			AddRow("alert-1", "user-1", 44.43, 26.1, "Bucharest", "active", fixedTime, nil, nil, fixedTime))

	alert, err := CreateAlert(db, "user-1", models.NewAlert{Latitude: 44.43, Longitude: 26.1, LocationName: "Bucharest"})
	require.NoError(t, err)
	assert.Equal(t, models.AlertActive, alert.Status)
	assert.Nil(t, alert.ResolvedAt)
}

func TestCreateAlertWhileActiveConflicts(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO sos_alerts")).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_sos_alerts_active_user"})

	_, err := CreateAlert(db, "user-1", models.NewAlert{Latitude: 1, Longitude: 2})
	requireStatus(t, err, 409)
}

func TestCreateAlertRejectsBadCoordinates(t *testing.T) {
	db, _ := newMockDB(t)
	_, err := CreateAlert(db, "user-1", models.NewAlert{Latitude: 91, Longitude: 0})
	requireStatus(t, err, 400)
}

func TestListAlertsActiveNewestFirst(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND status = $2 ORDER BY activated_at DESC LIMIT $3")).
		WithArgs("user-1", "active", 1).
		WillReturnRows(sqlmock.NewRows(alertCols).
			AddRow("alert-1", "user-1", 1.0, 2.0, nil, "active", fixedTime, nil, nil, fixedTime))

	alerts, err := ListAlerts(db, "user-1", models.AlertActive, 1)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "alert-1", alerts[0].ID)
}

func TestResolveAlert(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE sos_alerts SET status = 'resolved'")).
		WithArgs(sqlmock.AnyArg(), "alert-1", "user-1").
		WillReturnRows(sqlmock.NewRows(alertCols).
			AddRow("alert-1", "user-1", 1.0, 2.0, nil, "resolved", fixedTime, fixedTime, nil, fixedTime))

	alert, err := ResolveAlert(db, "user-1", "alert-1")
	require.NoError(t, err)
	assert.Equal(t, models.AlertResolved, alert.Status)
	assert.NotNil(t, alert.ResolvedAt)
}

func TestResolveAlertNotActive(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE sos_alerts SET status = 'resolved'")).
		WillReturnRows(sqlmock.NewRows(alertCols))
	mock.ExpectQuery(regexp.QuoteMeta("FROM sos_alerts WHERE id = $1 AND user_id = $2")).
		WithArgs("alert-1", "user-1").
		WillReturnRows(sqlmock.NewRows(alertCols).
			AddRow("alert-1", "user-1", 1.0, 2.0, nil, "resolved", fixedTime, fixedTime, nil, fixedTime))

	_, err := ResolveAlert(db, "user-1", "alert-1")
	requireStatus(t, err, 409)
}

func TestResolveAlertOfAnotherUser(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE sos_alerts SET status = 'resolved'")).
		WillReturnRows(sqlmock.NewRows(alertCols))
	mock.ExpectQuery(regexp.QuoteMeta("FROM sos_alerts WHERE id = $1 AND user_id = $2")).
		WillReturnRows(sqlmock.NewRows(alertCols))

	_, err := ResolveAlert(db, "intruder", "alert-1")
	requireStatus(t, err, 404)
}

func TestCreateNotification(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM sos_alerts WHERE id = $1 AND user_id = $2")).
		WithArgs("alert-1", "user-1").
		WillReturnRows(sqlmock.NewRows(alertCols).
			AddRow("alert-1", "user-1", 1.0, 2.0, nil, "active", fixedTime, nil, nil, fixedTime))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO sos_notifications")).
		WithArgs(sqlmock.AnyArg(), "alert-1", "mom@x.com", "Mom", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "sos_alert_id", "recipient_email", "recipient_name", "status", "created_at"}).
			AddRow("n-1", "alert-1", "mom@x.com", "Mom", "pending", fixedTime))

	n, err := CreateNotification(db, "user-1", "alert-1", models.NewNotification{RecipientEmail: "mom@x.com", RecipientName: "Mom"})
	require.NoError(t, err)
	assert.Equal(t, models.NotificationPending, n.Status)
	assert.Equal(t, "alert-1", n.SOSAlertID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/agrisentry/biosecure-api/internal/models"
)

func newAlertRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAlertRepositoryAcknowledgeOnce(t *testing.T) {
	db, mock, cleanup := newAlertRepoMock(t)
	defer cleanup()

	repo := NewAlertRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE alerts SET acknowledged = TRUE")).
		WithArgs("alert-1", "user-1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Acknowledge(context.Background(), "alert-1", "user-1", now))

	// Second acknowledgement matches no rows.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE alerts SET acknowledged = TRUE")).
		WithArgs("alert-1", "user-2", now).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Acknowledge(context.Background(), "alert-1", "user-2", now)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertRepositoryListRegionIncludesNational(t *testing.T) {
	db, mock, cleanup := newAlertRepoMock(t)
	defer cleanup()

	repo := NewAlertRepository(db)
	rows := sqlmock.NewRows([]string{"id", "message", "severity", "state", "district", "farm_id", "acknowledged", "acknowledged_by", "acknowledged_at", "created_at"}).
		AddRow("alert-1", "Avian flu outbreak nearby", "HIGH", "Kaduna", "Zaria", nil, false, nil, nil, time.Now()).
		AddRow("alert-2", "National advisory", "MEDIUM", "", "", nil, false, nil, nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM alerts WHERE 1=1 AND (state = $1 OR state = '') AND (district = $2 OR district = '')")).
		WithArgs("Kaduna", "Zaria").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("Kaduna", "Zaria").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	alerts, total, err := repo.List(context.Background(), models.AlertFilter{State: "Kaduna", District: "Zaria"})
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	require.Equal(t, 2, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

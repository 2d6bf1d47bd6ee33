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

func newComplianceRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func complianceRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "farm_id", "farm_name", "farmer_id", "farmer_name", "type", "state", "district", "status", "submitted_at", "reviewed_by", "reviewed_at", "note"})
}

func TestComplianceRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newComplianceRepoMock(t)
	defer cleanup()

	repo := NewComplianceRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO compliance_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	log := &models.ComplianceLog{
		FarmID:     "farm-1",
		FarmName:   "Green Valley",
		FarmerID:   "user-1",
		FarmerName: "Aisha Bello",
		Type:       "VACCINATION",
		State:      "Kaduna",
		District:   "Zaria",
	}
	require.NoError(t, repo.Create(context.Background(), log))
	require.Equal(t, models.CompliancePending, log.Status)
	require.NotEmpty(t, log.ID)

	rows := complianceRows().
		AddRow(log.ID, "farm-1", "Green Valley", "user-1", "Aisha Bello", "VACCINATION", "Kaduna", "Zaria", "PENDING", time.Now(), nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, farm_id, farm_name")).
		WithArgs(log.ID).
		WillReturnRows(rows)

	found, err := repo.GetByID(context.Background(), log.ID)
	require.NoError(t, err)
	require.Equal(t, log.ID, found.ID)
	require.Equal(t, models.CompliancePending, found.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestComplianceRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newComplianceRepoMock(t)
	defer cleanup()

	repo := NewComplianceRepository(db)
	rows := complianceRows().
		AddRow("log-1", "farm-1", "Green Valley", "user-1", "Aisha Bello", "FEED_HYGIENE", "Kaduna", "Zaria", "PENDING", time.Now(), nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, farm_id, farm_name")).
		WithArgs("Zaria", "PENDING").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("Zaria", "PENDING").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	logs, total, err := repo.List(context.Background(), models.ComplianceFilter{
		District: "Zaria",
		Status:   []models.ComplianceStatus{models.CompliancePending},
	})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, 1, total)
	require.Equal(t, "log-1", logs[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestComplianceRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newComplianceRepoMock(t)
	defer cleanup()

	repo := NewComplianceRepository(db)
	now := time.Now()
	note := "records in order"

	mock.ExpectExec(regexp.QuoteMeta("UPDATE compliance_logs SET")).WillReturnResult(sqlmock.NewResult(0, 1))
	err := repo.UpdateStatus(context.Background(), UpdateStatusParams{
		ID:         "log-1",
		Status:     models.ComplianceApproved,
		ReviewedBy: "vet-1",
		ReviewedAt: now,
		Note:       &note,
	})
	require.NoError(t, err)

	// A second reviewer loses the conditional update.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE compliance_logs SET")).WillReturnResult(sqlmock.NewResult(0, 0))
	err = repo.UpdateStatus(context.Background(), UpdateStatusParams{
		ID:         "log-1",
		Status:     models.ComplianceRejected,
		ReviewedBy: "vet-2",
		ReviewedAt: now,
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestComplianceRepositoryStatusCounts(t *testing.T) {
	db, mock, cleanup := newComplianceRepoMock(t)
	defer cleanup()

	repo := NewComplianceRepository(db)
	rows := sqlmock.NewRows([]string{"pending", "approved", "rejected"}).AddRow(2, 5, 1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs("farm-1").
		WillReturnRows(rows)

	counts, err := repo.StatusCounts(context.Background(), models.ComplianceFilter{FarmID: "farm-1"})
	require.NoError(t, err)
	require.Equal(t, 2, counts.Pending)
	require.Equal(t, 5, counts.Approved)
	require.Equal(t, 1, counts.Rejected)
	require.Equal(t, 8, counts.Total())
	require.NoError(t, mock.ExpectationsWereMet())
}

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

func newFarmRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func farmRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "type", "location.address", "location.state", "location.district", "size.count", "owner_id", "risk_level", "created_at", "updated_at"})
}

func TestFarmRepositoryCreateDefaultsRisk(t *testing.T) {
	db, mock, cleanup := newFarmRepoMock(t)
	defer cleanup()

	repo := NewFarmRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO farms")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	farm := &models.Farm{
		Name: "Green Valley",
		Type: "POULTRY",
		Location: models.FarmLocation{
			Address:  "12 Market Rd",
			State:    "Kaduna",
			District: "Zaria",
		},
		Size:    models.FarmSize{Count: 450},
		OwnerID: "user-1",
	}
	require.NoError(t, repo.Create(context.Background(), farm))
	require.Equal(t, models.RiskLow, farm.RiskLevel)
	require.NotEmpty(t, farm.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFarmRepositoryGetMapsNestedBlocks(t *testing.T) {
	db, mock, cleanup := newFarmRepoMock(t)
	defer cleanup()

	repo := NewFarmRepository(db)
	rows := farmRows().
		AddRow("farm-1", "Green Valley", "POULTRY", "12 Market Rd", "Kaduna", "Zaria", 450, "user-1", "MEDIUM", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, type")).
		WithArgs("farm-1").
		WillReturnRows(rows)

	farm, err := repo.GetByID(context.Background(), "farm-1")
	require.NoError(t, err)
	require.Equal(t, "Kaduna", farm.Location.State)
	require.Equal(t, "Zaria", farm.Location.District)
	require.Equal(t, 450, farm.Size.Count)
	require.Equal(t, models.RiskMedium, farm.RiskLevel)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFarmRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newFarmRepoMock(t)
	defer cleanup()

	repo := NewFarmRepository(db)
	risk := models.RiskHigh
	rows := farmRows().
		AddRow("farm-2", "Hillside", "CATTLE", "KM 4 Ring Rd", "Kaduna", "Zaria", 80, "user-2", "HIGH", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, type")).
		WithArgs("Kaduna", "HIGH").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("Kaduna", "HIGH").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	farms, total, err := repo.List(context.Background(), models.FarmFilter{State: "Kaduna", RiskLevel: &risk})
	require.NoError(t, err)
	require.Len(t, farms, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFarmRepositoryUpdateRiskLevel(t *testing.T) {
	db, mock, cleanup := newFarmRepoMock(t)
	defer cleanup()

	repo := NewFarmRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE farms SET risk_level")).
		WithArgs("farm-1", models.RiskHigh, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateRiskLevel(context.Background(), "farm-1", models.RiskHigh, now))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE farms SET risk_level")).
		WithArgs("missing", models.RiskHigh, now).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdateRiskLevel(context.Background(), "missing", models.RiskHigh, now)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFarmRepositoryCountByRiskLevel(t *testing.T) {
	db, mock, cleanup := newFarmRepoMock(t)
	defer cleanup()

	repo := NewFarmRepository(db)
	rows := sqlmock.NewRows([]string{"risk_level", "total"}).
		AddRow("HIGH", 3).
		AddRow("LOW", 10)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT risk_level, COUNT(*)")).
		WithArgs("Kaduna", "Zaria").
		WillReturnRows(rows)

	counts, err := repo.CountByRiskLevel(context.Background(), "Kaduna", "Zaria")
	require.NoError(t, err)
	require.Equal(t, 3, counts[models.RiskHigh])
	require.Equal(t, 10, counts[models.RiskLow])
	require.Equal(t, 0, counts[models.RiskMedium])
	require.NoError(t, mock.ExpectationsWereMet())
}

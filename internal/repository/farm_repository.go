package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/agrisentry/biosecure-api/internal/models"
)

// farmColumns aliases the flat columns onto the nested location and
// size blocks of models.Farm.
const farmColumns = `id, name, type,
       address AS "location.address", state AS "location.state", district AS "location.district",
       head_count AS "size.count",
       owner_id, risk_level, created_at, updated_at`

// FarmRepository persists registered farms.
type FarmRepository struct {
	db *sqlx.DB
}

// NewFarmRepository constructs the repository.
func NewFarmRepository(db *sqlx.DB) *FarmRepository {
	return &FarmRepository{db: db}
}

// Create inserts a new farm row.
func (r *FarmRepository) Create(ctx context.Context, farm *models.Farm) error {
	if farm.ID == "" {
		farm.ID = uuid.NewString()
	}
	if farm.RiskLevel == "" {
		farm.RiskLevel = models.RiskLow
	}
	now := time.Now().UTC()
	if farm.CreatedAt.IsZero() {
		farm.CreatedAt = now
	}
	farm.UpdatedAt = now

	const query = `INSERT INTO farms
	(id, name, type, address, state, district, head_count, owner_id, risk_level, created_at, updated_at)
	VALUES (:id, :name, :type, :location.address, :location.state, :location.district, :size.count, :owner_id, :risk_level, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, farm); err != nil {
		return fmt.Errorf("create farm: %w", err)
	}
	return nil
}

// GetByID fetches a farm by identifier.
func (r *FarmRepository) GetByID(ctx context.Context, id string) (*models.Farm, error) {
	query := `SELECT ` + farmColumns + ` FROM farms WHERE id = $1`
	var farm models.Farm
	if err := r.db.GetContext(ctx, &farm, query, id); err != nil {
		return nil, err
	}
	return &farm, nil
}

// List returns farms matching the filter, newest first, with total count.
func (r *FarmRepository) List(ctx context.Context, filter models.FarmFilter) ([]models.Farm, int, error) {
	baseQuery := `FROM farms WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.OwnerID != "" {
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", len(args)+1))
		args = append(args, filter.OwnerID)
	}
	if filter.State != "" {
		conditions = append(conditions, fmt.Sprintf("state = $%d", len(args)+1))
		args = append(args, filter.State)
	}
	if filter.District != "" {
		conditions = append(conditions, fmt.Sprintf("district = $%d", len(args)+1))
		args = append(args, filter.District)
	}
	if filter.RiskLevel != nil {
		conditions = append(conditions, fmt.Sprintf("risk_level = $%d", len(args)+1))
		args = append(args, *filter.RiskLevel)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", farmColumns, baseQuery, pageSize, offset)

	var farms []models.Farm
	if err := r.db.SelectContext(ctx, &farms, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list farms: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count farms: %w", err)
	}

	return farms, total, nil
}

// Update updates mutable fields of a farm.
func (r *FarmRepository) Update(ctx context.Context, farm *models.Farm) error {
	farm.UpdatedAt = time.Now().UTC()
	const query = `UPDATE farms SET name = :name, type = :type, address = :location.address, state = :location.state, district = :location.district, head_count = :size.count, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, farm)
	if err != nil {
		return fmt.Errorf("update farm: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check farm update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateRiskLevel sets a farm's biosecurity classification.
func (r *FarmRepository) UpdateRiskLevel(ctx context.Context, id string, level models.RiskLevel, updatedAt time.Time) error {
	const query = `UPDATE farms SET risk_level = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, level, updatedAt)
	if err != nil {
		return fmt.Errorf("update farm risk level: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check risk update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a farm row.
func (r *FarmRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM farms WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete farm: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check farm delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByRiskLevel aggregates farms per risk level within an optional region scope.
func (r *FarmRepository) CountByRiskLevel(ctx context.Context, state, district string) (map[models.RiskLevel]int, error) {
	query := `SELECT risk_level, COUNT(*) AS total FROM farms WHERE 1=1`
	var args []interface{}
	if state != "" {
		args = append(args, state)
		query += fmt.Sprintf(" AND state = $%d", len(args))
	}
	if district != "" {
		args = append(args, district)
		query += fmt.Sprintf(" AND district = $%d", len(args))
	}
	query += " GROUP BY risk_level"

	rows := []struct {
		RiskLevel models.RiskLevel `db:"risk_level"`
		Total     int              `db:"total"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("count farms by risk level: %w", err)
	}
	counts := make(map[models.RiskLevel]int, len(rows))
	for _, row := range rows {
		counts[row.RiskLevel] = row.Total
	}
	return counts, nil
}

// CountByState aggregates farm totals per state for the national overview.
func (r *FarmRepository) CountByState(ctx context.Context) (map[string]int, error) {
	const query = `SELECT state, COUNT(*) AS total FROM farms GROUP BY state`
	rows := []struct {
		State string `db:"state"`
		Total int    `db:"total"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count farms by state: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.State] = row.Total
	}
	return counts, nil
}

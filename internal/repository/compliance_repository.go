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

const complianceColumns = `id, farm_id, farm_name, farmer_id, farmer_name, type, state, district, status, submitted_at, reviewed_by, reviewed_at, note`

// ComplianceRepository persists compliance-log workflow data.
type ComplianceRepository struct {
	db *sqlx.DB
}

// NewComplianceRepository constructs the repository.
func NewComplianceRepository(db *sqlx.DB) *ComplianceRepository {
	return &ComplianceRepository{db: db}
}

// Create inserts a new compliance log row.
func (r *ComplianceRepository) Create(ctx context.Context, log *models.ComplianceLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.Status == "" {
		log.Status = models.CompliancePending
	}
	if log.SubmittedAt.IsZero() {
		log.SubmittedAt = time.Now().UTC()
	}
	const query = `INSERT INTO compliance_logs
	(id, farm_id, farm_name, farmer_id, farmer_name, type, state, district, status, submitted_at, reviewed_by, reviewed_at, note)
	VALUES (:id, :farm_id, :farm_name, :farmer_id, :farmer_name, :type, :state, :district, :status, :submitted_at, :reviewed_by, :reviewed_at, :note)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create compliance log: %w", err)
	}
	return nil
}

// GetByID fetches a compliance log by identifier.
func (r *ComplianceRepository) GetByID(ctx context.Context, id string) (*models.ComplianceLog, error) {
	query := `SELECT ` + complianceColumns + ` FROM compliance_logs WHERE id = $1`
	var log models.ComplianceLog
	if err := r.db.GetContext(ctx, &log, query, id); err != nil {
		return nil, err
	}
	return &log, nil
}

// List returns compliance logs matching the filter (latest first).
func (r *ComplianceRepository) List(ctx context.Context, filter models.ComplianceFilter) ([]models.ComplianceLog, int, error) {
	baseQuery := `FROM compliance_logs WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.FarmID != "" {
		conditions = append(conditions, fmt.Sprintf("farm_id = $%d", len(args)+1))
		args = append(args, filter.FarmID)
	}
	if filter.FarmerID != "" {
		conditions = append(conditions, fmt.Sprintf("farmer_id = $%d", len(args)+1))
		args = append(args, filter.FarmerID)
	}
	if filter.State != "" {
		conditions = append(conditions, fmt.Sprintf("state = $%d", len(args)+1))
		args = append(args, filter.State)
	}
	if filter.District != "" {
		conditions = append(conditions, fmt.Sprintf("district = $%d", len(args)+1))
		args = append(args, filter.District)
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY submitted_at DESC LIMIT %d OFFSET %d", complianceColumns, baseQuery, pageSize, offset)

	var logs []models.ComplianceLog
	if err := r.db.SelectContext(ctx, &logs, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list compliance logs: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count compliance logs: %w", err)
	}

	return logs, total, nil
}

// UpdateStatusParams groups the columns written by a review decision.
type UpdateStatusParams struct {
	ID         string
	Status     models.ComplianceStatus
	ReviewedBy string
	ReviewedAt time.Time
	Note       *string
}

// UpdateStatus persists a review decision. The WHERE clause only
// matches logs still PENDING, so a concurrent reviewer losing the race
// gets sql.ErrNoRows.
func (r *ComplianceRepository) UpdateStatus(ctx context.Context, params UpdateStatusParams) error {
	setParts := []string{
		"status = :status",
		"reviewed_by = :reviewed_by",
		"reviewed_at = :reviewed_at",
	}
	if params.Note != nil {
		setParts = append(setParts, "note = :note")
	}
	query := fmt.Sprintf("UPDATE compliance_logs SET %s WHERE id = :id AND status = '%s'",
		strings.Join(setParts, ", "),
		models.CompliancePending,
	)
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":          params.ID,
		"status":      params.Status,
		"reviewed_by": params.ReviewedBy,
		"reviewed_at": params.ReviewedAt,
		"note":        params.Note,
	})
	if err != nil {
		return fmt.Errorf("update compliance status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check compliance update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// StatusCounts aggregates logs per status within an optional scope.
// Empty scope fields widen the aggregate.
func (r *ComplianceRepository) StatusCounts(ctx context.Context, filter models.ComplianceFilter) (models.ComplianceStatusCounts, error) {
	query := `SELECT
       COUNT(*) FILTER (WHERE status = 'PENDING') AS pending,
       COUNT(*) FILTER (WHERE status = 'APPROVED') AS approved,
       COUNT(*) FILTER (WHERE status = 'REJECTED') AS rejected
	FROM compliance_logs WHERE 1=1`
	var args []interface{}
	if filter.FarmID != "" {
		args = append(args, filter.FarmID)
		query += fmt.Sprintf(" AND farm_id = $%d", len(args))
	}
	if filter.FarmerID != "" {
		args = append(args, filter.FarmerID)
		query += fmt.Sprintf(" AND farmer_id = $%d", len(args))
	}
	if filter.State != "" {
		args = append(args, filter.State)
		query += fmt.Sprintf(" AND state = $%d", len(args))
	}
	if filter.District != "" {
		args = append(args, filter.District)
		query += fmt.Sprintf(" AND district = $%d", len(args))
	}

	var counts models.ComplianceStatusCounts
	if err := r.db.GetContext(ctx, &counts, query, args...); err != nil {
		return models.ComplianceStatusCounts{}, fmt.Errorf("count compliance statuses: %w", err)
	}
	return counts, nil
}

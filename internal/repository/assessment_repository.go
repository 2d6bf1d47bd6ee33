package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/agrisentry/biosecure-api/internal/models"
)

const assessmentColumns = `id, farm_id, assessor_id, assessor_name, risk_level, findings, created_at`

// AssessmentRepository persists risk assessments.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository constructs the repository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// Create inserts a new assessment row.
func (r *AssessmentRepository) Create(ctx context.Context, assessment *models.RiskAssessment) error {
	if assessment.ID == "" {
		assessment.ID = uuid.NewString()
	}
	if assessment.CreatedAt.IsZero() {
		assessment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO risk_assessments
	(id, farm_id, assessor_id, assessor_name, risk_level, findings, created_at)
	VALUES (:id, :farm_id, :assessor_id, :assessor_name, :risk_level, :findings, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assessment); err != nil {
		return fmt.Errorf("create assessment: %w", err)
	}
	return nil
}

// GetByID fetches an assessment by identifier.
func (r *AssessmentRepository) GetByID(ctx context.Context, id string) (*models.RiskAssessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM risk_assessments WHERE id = $1`
	var assessment models.RiskAssessment
	if err := r.db.GetContext(ctx, &assessment, query, id); err != nil {
		return nil, err
	}
	return &assessment, nil
}

// List returns assessments matching the filter (latest first).
func (r *AssessmentRepository) List(ctx context.Context, filter models.AssessmentFilter) ([]models.RiskAssessment, int, error) {
	baseQuery := `FROM risk_assessments WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.FarmID != "" {
		conditions = append(conditions, fmt.Sprintf("farm_id = $%d", len(args)+1))
		args = append(args, filter.FarmID)
	}
	if filter.AssessorID != "" {
		conditions = append(conditions, fmt.Sprintf("assessor_id = $%d", len(args)+1))
		args = append(args, filter.AssessorID)
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", assessmentColumns, baseQuery, pageSize, offset)

	var assessments []models.RiskAssessment
	if err := r.db.SelectContext(ctx, &assessments, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list assessments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count assessments: %w", err)
	}

	return assessments, total, nil
}

// CountSince returns assessments created on or after the cutoff,
// optionally scoped to an assessor.
func (r *AssessmentRepository) CountSince(ctx context.Context, assessorID string, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM risk_assessments WHERE created_at >= $1`
	args := []interface{}{since}
	if assessorID != "" {
		args = append(args, assessorID)
		query += fmt.Sprintf(" AND assessor_id = $%d", len(args))
	}
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count assessments since: %w", err)
	}
	return total, nil
}

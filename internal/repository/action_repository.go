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

const actionColumns = `ca.id, ca.farm_id, ca.assessment_id, ca.description, ca.status, ca.completed_by, ca.completed_at, ca.created_at`

// ActionRepository persists corrective actions. Region filters join
// through the owning farm since actions carry no region columns.
type ActionRepository struct {
	db *sqlx.DB
}

// NewActionRepository constructs the repository.
func NewActionRepository(db *sqlx.DB) *ActionRepository {
	return &ActionRepository{db: db}
}

// Create inserts a new corrective action row.
func (r *ActionRepository) Create(ctx context.Context, action *models.CorrectiveAction) error {
	if action.ID == "" {
		action.ID = uuid.NewString()
	}
	if action.Status == "" {
		action.Status = models.ActionPending
	}
	if action.CreatedAt.IsZero() {
		action.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO corrective_actions
	(id, farm_id, assessment_id, description, status, completed_by, completed_at, created_at)
	VALUES (:id, :farm_id, :assessment_id, :description, :status, :completed_by, :completed_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, action); err != nil {
		return fmt.Errorf("create corrective action: %w", err)
	}
	return nil
}

// GetByID fetches a corrective action by identifier.
func (r *ActionRepository) GetByID(ctx context.Context, id string) (*models.CorrectiveAction, error) {
	const query = `SELECT id, farm_id, assessment_id, description, status, completed_by, completed_at, created_at FROM corrective_actions WHERE id = $1`
	var action models.CorrectiveAction
	if err := r.db.GetContext(ctx, &action, query, id); err != nil {
		return nil, err
	}
	return &action, nil
}

// List returns corrective actions matching the filter (latest first).
func (r *ActionRepository) List(ctx context.Context, filter models.ActionFilter) ([]models.CorrectiveAction, int, error) {
	baseQuery := `FROM corrective_actions ca JOIN farms f ON f.id = ca.farm_id WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.FarmID != "" {
		conditions = append(conditions, fmt.Sprintf("ca.farm_id = $%d", len(args)+1))
		args = append(args, filter.FarmID)
	}
	if filter.State != "" {
		conditions = append(conditions, fmt.Sprintf("f.state = $%d", len(args)+1))
		args = append(args, filter.State)
	}
	if filter.District != "" {
		conditions = append(conditions, fmt.Sprintf("f.district = $%d", len(args)+1))
		args = append(args, filter.District)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("ca.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY ca.created_at DESC LIMIT %d OFFSET %d", actionColumns, baseQuery, pageSize, offset)

	var actions []models.CorrectiveAction
	if err := r.db.SelectContext(ctx, &actions, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list corrective actions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count corrective actions: %w", err)
	}

	return actions, total, nil
}

// MarkCompleted records completion. Only PENDING rows match, so a
// repeated completion attempt gets sql.ErrNoRows.
func (r *ActionRepository) MarkCompleted(ctx context.Context, id, completedBy string, completedAt time.Time) error {
	query := fmt.Sprintf(`UPDATE corrective_actions SET status = '%s', completed_by = $2, completed_at = $3 WHERE id = $1 AND status = '%s'`,
		models.ActionCompleted, models.ActionPending)
	result, err := r.db.ExecContext(ctx, query, id, completedBy, completedAt)
	if err != nil {
		return fmt.Errorf("complete corrective action: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check action update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountPending returns open actions within an optional region scope.
func (r *ActionRepository) CountPending(ctx context.Context, state, district string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM corrective_actions ca JOIN farms f ON f.id = ca.farm_id WHERE ca.status = '%s'`, models.ActionPending)
	var args []interface{}
	if state != "" {
		args = append(args, state)
		query += fmt.Sprintf(" AND f.state = $%d", len(args))
	}
	if district != "" {
		args = append(args, district)
		query += fmt.Sprintf(" AND f.district = $%d", len(args))
	}
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count pending actions: %w", err)
	}
	return total, nil
}

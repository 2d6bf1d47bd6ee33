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

const alertColumns = `id, message, severity, state, district, farm_id, acknowledged, acknowledged_by, acknowledged_at, created_at`

// AlertRepository persists biosecurity alerts.
type AlertRepository struct {
	db *sqlx.DB
}

// NewAlertRepository constructs the repository.
func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Create inserts a new alert row.
func (r *AlertRepository) Create(ctx context.Context, alert *models.Alert) error {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO alerts
	(id, message, severity, state, district, farm_id, acknowledged, acknowledged_by, acknowledged_at, created_at)
	VALUES (:id, :message, :severity, :state, :district, :farm_id, :acknowledged, :acknowledged_by, :acknowledged_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, alert); err != nil {
		return fmt.Errorf("create alert: %w", err)
	}
	return nil
}

// GetByID fetches an alert by identifier.
func (r *AlertRepository) GetByID(ctx context.Context, id string) (*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`
	var alert models.Alert
	if err := r.db.GetContext(ctx, &alert, query, id); err != nil {
		return nil, err
	}
	return &alert, nil
}

// List returns alerts matching the filter (latest first). A region
// scope also matches national alerts stored with empty region columns.
func (r *AlertRepository) List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, int, error) {
	baseQuery := `FROM alerts WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.State != "" {
		conditions = append(conditions, fmt.Sprintf("(state = $%d OR state = '')", len(args)+1))
		args = append(args, filter.State)
	}
	if filter.District != "" {
		conditions = append(conditions, fmt.Sprintf("(district = $%d OR district = '')", len(args)+1))
		args = append(args, filter.District)
	}
	if filter.FarmID != "" {
		conditions = append(conditions, fmt.Sprintf("farm_id = $%d", len(args)+1))
		args = append(args, filter.FarmID)
	}
	if filter.Severity != nil {
		conditions = append(conditions, fmt.Sprintf("severity = $%d", len(args)+1))
		args = append(args, *filter.Severity)
	}
	if filter.Acknowledged != nil {
		conditions = append(conditions, fmt.Sprintf("acknowledged = $%d", len(args)+1))
		args = append(args, *filter.Acknowledged)
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", alertColumns, baseQuery, pageSize, offset)

	var alerts []models.Alert
	if err := r.db.SelectContext(ctx, &alerts, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list alerts: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count alerts: %w", err)
	}

	return alerts, total, nil
}

// Acknowledge flips an alert to acknowledged. Only unacknowledged rows
// match, so a repeat acknowledgement gets sql.ErrNoRows.
func (r *AlertRepository) Acknowledge(ctx context.Context, id, userID string, at time.Time) error {
	const query = `UPDATE alerts SET acknowledged = TRUE, acknowledged_by = $2, acknowledged_at = $3 WHERE id = $1 AND acknowledged = FALSE`
	result, err := r.db.ExecContext(ctx, query, id, userID, at)
	if err != nil {
		return fmt.Errorf("acknowledge alert: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check alert update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountUnacknowledged returns open alerts within an optional region scope.
func (r *AlertRepository) CountUnacknowledged(ctx context.Context, state, district string) (int, error) {
	query := `SELECT COUNT(*) FROM alerts WHERE acknowledged = FALSE`
	var args []interface{}
	if state != "" {
		args = append(args, state)
		query += fmt.Sprintf(" AND (state = $%d OR state = '')", len(args))
	}
	if district != "" {
		args = append(args, district)
		query += fmt.Sprintf(" AND (district = $%d OR district = '')", len(args))
	}
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count unacknowledged alerts: %w", err)
	}
	return total, nil
}

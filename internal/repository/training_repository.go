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

const trainingColumns = `id, title, description, state, district, scheduled_at, created_by, created_at`

// TrainingRepository persists scheduled training sessions.
type TrainingRepository struct {
	db *sqlx.DB
}

// NewTrainingRepository constructs the repository.
func NewTrainingRepository(db *sqlx.DB) *TrainingRepository {
	return &TrainingRepository{db: db}
}

// Create inserts a new training session row.
func (r *TrainingRepository) Create(ctx context.Context, session *models.TrainingSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO training_sessions
	(id, title, description, state, district, scheduled_at, created_by, created_at)
	VALUES (:id, :title, :description, :state, :district, :scheduled_at, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create training session: %w", err)
	}
	return nil
}

// GetByID fetches a training session by identifier.
func (r *TrainingRepository) GetByID(ctx context.Context, id string) (*models.TrainingSession, error) {
	query := `SELECT ` + trainingColumns + ` FROM training_sessions WHERE id = $1`
	var session models.TrainingSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// List returns training sessions matching the filter, soonest first.
func (r *TrainingRepository) List(ctx context.Context, filter models.TrainingFilter) ([]models.TrainingSession, int, error) {
	baseQuery := `FROM training_sessions WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.State != "" {
		conditions = append(conditions, fmt.Sprintf("state = $%d", len(args)+1))
		args = append(args, filter.State)
	}
	if filter.District != "" {
		conditions = append(conditions, fmt.Sprintf("district = $%d", len(args)+1))
		args = append(args, filter.District)
	}
	if filter.After != nil {
		conditions = append(conditions, fmt.Sprintf("scheduled_at >= $%d", len(args)+1))
		args = append(args, *filter.After)
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY scheduled_at ASC LIMIT %d OFFSET %d", trainingColumns, baseQuery, pageSize, offset)

	var sessions []models.TrainingSession
	if err := r.db.SelectContext(ctx, &sessions, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list training sessions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count training sessions: %w", err)
	}

	return sessions, total, nil
}

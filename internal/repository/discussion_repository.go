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

const discussionColumns = `id, author_id, author_name, text, image_path, created_at`

// DiscussionRepository persists forum posts. Posts are append-only,
// so there is no update or delete.
type DiscussionRepository struct {
	db *sqlx.DB
}

// NewDiscussionRepository constructs the repository.
func NewDiscussionRepository(db *sqlx.DB) *DiscussionRepository {
	return &DiscussionRepository{db: db}
}

// Create inserts a new post row.
func (r *DiscussionRepository) Create(ctx context.Context, post *models.DiscussionPost) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO discussion_posts
	(id, author_id, author_name, text, image_path, created_at)
	VALUES (:id, :author_id, :author_name, :text, :image_path, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, post); err != nil {
		return fmt.Errorf("create discussion post: %w", err)
	}
	return nil
}

// GetByID fetches a post by identifier.
func (r *DiscussionRepository) GetByID(ctx context.Context, id string) (*models.DiscussionPost, error) {
	query := `SELECT ` + discussionColumns + ` FROM discussion_posts WHERE id = $1`
	var post models.DiscussionPost
	if err := r.db.GetContext(ctx, &post, query, id); err != nil {
		return nil, err
	}
	return &post, nil
}

// List returns posts matching the filter (latest first).
func (r *DiscussionRepository) List(ctx context.Context, filter models.DiscussionFilter) ([]models.DiscussionPost, int, error) {
	baseQuery := `FROM discussion_posts WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.AuthorID != "" {
		conditions = append(conditions, fmt.Sprintf("author_id = $%d", len(args)+1))
		args = append(args, filter.AuthorID)
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", discussionColumns, baseQuery, pageSize, offset)

	var posts []models.DiscussionPost
	if err := r.db.SelectContext(ctx, &posts, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list discussion posts: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count discussion posts: %w", err)
	}

	return posts, total, nil
}

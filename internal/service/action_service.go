package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/agrisentry/biosecure-api/internal/models"
	"github.com/agrisentry/biosecure-api/internal/policy"
	appErrors "github.com/agrisentry/biosecure-api/pkg/errors"
)

type actionStore interface {
	GetByID(ctx context.Context, id string) (*models.CorrectiveAction, error)
	List(ctx context.Context, filter models.ActionFilter) ([]models.CorrectiveAction, int, error)
	MarkCompleted(ctx context.Context, id, completedBy string, completedAt time.Time) error
}

// ActionService manages corrective-action completion.
type ActionService struct {
	repo   actionStore
	audit  auditLogger
	cache  *CacheService
	logger *zap.Logger
	now    func() time.Time
}

// NewActionService constructs the service.
func NewActionService(repo actionStore, audit auditLogger, logger *zap.Logger) *ActionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActionService{repo: repo, audit: audit, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// WithCache registers the cache whose dashboards are flushed on mutation.
func (s *ActionService) WithCache(cache *CacheService) *ActionService {
	s.cache = cache
	return s
}

// List returns corrective actions scoped to the actor's district for
// field roles.
func (s *ActionService) List(ctx context.Context, filter models.ActionFilter, actor *models.JWTClaims) ([]models.CorrectiveAction, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	switch actor.Role {
	case models.RoleVet, models.RoleExtension, models.RoleDistrictAdmin:
		filter.State = actor.State
		filter.District = actor.District
	case models.RoleNationalAdmin:
	default:
		return nil, nil, appErrors.ErrForbidden
	}
	actions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list corrective actions")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return actions, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Complete marks a corrective action COMPLETED. A completed action has
// no further transitions, so a repeat attempt is rejected.
func (s *ActionService) Complete(ctx context.Context, id string, actor *models.JWTClaims) (*models.CorrectiveAction, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !policy.Can(actor.Role, policy.ActionActionComplete) {
		return nil, appErrors.ErrForbidden
	}

	action, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load corrective action")
	}
	if action.Status == models.ActionCompleted {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "action already completed")
	}

	now := s.now()
	if err := s.repo.MarkCompleted(ctx, action.ID, actor.UserID, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "action was completed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete corrective action")
	}

	action.Status = models.ActionCompleted
	action.CompletedBy = &actor.UserID
	action.CompletedAt = &now

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actor.UserID,
			Action:     models.AuditActionActionComplete,
			Resource:   "corrective_action",
			ResourceID: &action.ID,
			NewValues:  []byte(`{"status":"COMPLETED"}`),
		}); err != nil {
			s.logger.Warn("failed to persist audit log", zap.Error(err))
		}
	}
	s.cache.InvalidateDashboards(ctx)
	return action, nil
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/agrisentry/biosecure-api/internal/dto"
	"github.com/agrisentry/biosecure-api/internal/models"
	"github.com/agrisentry/biosecure-api/internal/policy"
	appErrors "github.com/agrisentry/biosecure-api/pkg/errors"
)

type trainingStore interface {
	Create(ctx context.Context, session *models.TrainingSession) error
	List(ctx context.Context, filter models.TrainingFilter) ([]models.TrainingSession, int, error)
}

// TrainingService manages extension-worker scheduled sessions.
type TrainingService struct {
	repo      trainingStore
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTrainingService constructs the service.
func NewTrainingService(repo trainingStore, validate *validator.Validate, logger *zap.Logger) *TrainingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TrainingService{repo: repo, validator: validate, logger: logger}
}

// WithCache registers the cache whose dashboards are flushed on mutation.
func (s *TrainingService) WithCache(cache *CacheService) *TrainingService {
	s.cache = cache
	return s
}

// Schedule creates a training session in the actor's district.
func (s *TrainingService) Schedule(ctx context.Context, req dto.CreateTrainingRequest, actor *models.JWTClaims) (*models.TrainingSession, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !policy.Can(actor.Role, policy.ActionTrainingSchedule) {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid training payload")
	}

	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "scheduled_at must be RFC3339")
	}

	session := &models.TrainingSession{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		State:       req.State,
		District:    req.District,
		ScheduledAt: scheduledAt.UTC(),
		CreatedBy:   actor.UserID,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create training session")
	}
	s.cache.InvalidateDashboards(ctx)
	return session, nil
}

// List returns training sessions visible to the actor's region.
func (s *TrainingService) List(ctx context.Context, filter models.TrainingFilter, actor *models.JWTClaims) ([]models.TrainingSession, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleNationalAdmin {
		filter.State = actor.State
		filter.District = actor.District
	}
	sessions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list training sessions")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return sessions, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

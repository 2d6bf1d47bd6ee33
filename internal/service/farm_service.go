package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/agrisentry/biosecure-api/internal/dto"
	"github.com/agrisentry/biosecure-api/internal/models"
	"github.com/agrisentry/biosecure-api/internal/policy"
	appErrors "github.com/agrisentry/biosecure-api/pkg/errors"
)

type farmStore interface {
	Create(ctx context.Context, farm *models.Farm) error
	GetByID(ctx context.Context, id string) (*models.Farm, error)
	List(ctx context.Context, filter models.FarmFilter) ([]models.Farm, int, error)
	Update(ctx context.Context, farm *models.Farm) error
	UpdateRiskLevel(ctx context.Context, id string, level models.RiskLevel, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// FarmService manages farm registration and classification.
type FarmService struct {
	repo      farmStore
	audit     auditLogger
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewFarmService constructs the service.
func NewFarmService(repo farmStore, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *FarmService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &FarmService{repo: repo, audit: audit, validator: validate, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// WithCache registers the cache whose dashboards are flushed on mutation.
func (s *FarmService) WithCache(cache *CacheService) *FarmService {
	s.cache = cache
	return s
}

// Create registers a farm owned by the acting farmer. New farms start LOW risk.
func (s *FarmService) Create(ctx context.Context, req dto.CreateFarmRequest, actor *models.JWTClaims) (*models.Farm, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !policy.Can(actor.Role, policy.ActionFarmCreate) {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid farm payload")
	}

	farm := &models.Farm{
		Name: strings.TrimSpace(req.Name),
		Type: strings.ToUpper(strings.TrimSpace(req.Type)),
		Location: models.FarmLocation{
			Address:  strings.TrimSpace(req.Address),
			State:    req.State,
			District: req.District,
		},
		Size:      models.FarmSize{Count: req.Count},
		OwnerID:   actor.UserID,
		RiskLevel: models.RiskLow,
	}
	if err := s.repo.Create(ctx, farm); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create farm")
	}
	s.cache.InvalidateDashboards(ctx)
	return farm, nil
}

// List returns farms visible to the actor: farmers see their own,
// field roles their district, national admins everything.
func (s *FarmService) List(ctx context.Context, query dto.FarmQuery, actor *models.JWTClaims) ([]models.Farm, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	filter := models.FarmFilter{
		Search:   query.Search,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if query.RiskLevel != "" {
		level := models.RiskLevel(strings.ToUpper(query.RiskLevel))
		if !models.ValidRiskLevel(level) {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown risk level")
		}
		filter.RiskLevel = &level
	}
	switch actor.Role {
	case models.RoleFarmer:
		filter.OwnerID = actor.UserID
	case models.RoleVet, models.RoleExtension, models.RoleDistrictAdmin:
		filter.State = actor.State
		filter.District = actor.District
	case models.RoleNationalAdmin:
		filter.State = query.State
		filter.District = query.District
	default:
		return nil, nil, appErrors.ErrForbidden
	}

	farms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list farms")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return farms, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a farm enforcing scope constraints.
func (s *FarmService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Farm, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	farm, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load farm")
	}
	if actor.Role == models.RoleFarmer && farm.OwnerID != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	return farm, nil
}

// Update edits a farm's details. Only the owning farmer may update.
func (s *FarmService) Update(ctx context.Context, id string, req dto.UpdateFarmRequest, actor *models.JWTClaims) (*models.Farm, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !policy.Can(actor.Role, policy.ActionFarmUpdate) {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid farm payload")
	}

	farm, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load farm")
	}
	if farm.OwnerID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "farm does not belong to user")
	}

	farm.Name = strings.TrimSpace(req.Name)
	farm.Type = strings.ToUpper(strings.TrimSpace(req.Type))
	farm.Location = models.FarmLocation{
		Address:  strings.TrimSpace(req.Address),
		State:    req.State,
		District: req.District,
	}
	farm.Size = models.FarmSize{Count: req.Count}

	if err := s.repo.Update(ctx, farm); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update farm")
	}
	s.cache.InvalidateDashboards(ctx)
	return farm, nil
}

// UpdateRiskLevel reclassifies a farm directly, outside the assessment flow.
func (s *FarmService) UpdateRiskLevel(ctx context.Context, id string, req dto.UpdateRiskRequest, actor *models.JWTClaims) (*models.Farm, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !policy.Can(actor.Role, policy.ActionRiskUpdate) {
		return nil, appErrors.ErrForbidden
	}
	if !models.ValidRiskLevel(req.RiskLevel) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "risk_level must be HIGH, MEDIUM or LOW")
	}

	farm, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load farm")
	}

	if err := s.repo.UpdateRiskLevel(ctx, farm.ID, req.RiskLevel, s.now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update risk level")
	}

	old := farm.RiskLevel
	farm.RiskLevel = req.RiskLevel

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actor.UserID,
			Action:     models.AuditActionRiskUpdate,
			Resource:   "farm",
			ResourceID: &farm.ID,
			OldValues:  []byte(fmt.Sprintf(`{"risk_level":%q}`, old)),
			NewValues:  []byte(fmt.Sprintf(`{"risk_level":%q}`, farm.RiskLevel)),
		}); err != nil {
			s.logger.Warn("failed to persist audit log", zap.Error(err))
		}
	}
	s.cache.InvalidateDashboards(ctx)
	return farm, nil
}

// Delete removes a farm. Only the owning farmer may delete.
func (s *FarmService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if !policy.Can(actor.Role, policy.ActionFarmDelete) {
		return appErrors.ErrForbidden
	}

	farm, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load farm")
	}
	if farm.OwnerID != actor.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "farm does not belong to user")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete farm")
	}
	s.cache.InvalidateDashboards(ctx)
	return nil
}

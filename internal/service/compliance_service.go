package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/agrisentry/biosecure-api/internal/dto"
	"github.com/agrisentry/biosecure-api/internal/models"
	"github.com/agrisentry/biosecure-api/internal/policy"
	"github.com/agrisentry/biosecure-api/internal/repository"
	appErrors "github.com/agrisentry/biosecure-api/pkg/errors"
)

type complianceStore interface {
	Create(ctx context.Context, log *models.ComplianceLog) error
	GetByID(ctx context.Context, id string) (*models.ComplianceLog, error)
	List(ctx context.Context, filter models.ComplianceFilter) ([]models.ComplianceLog, int, error)
	UpdateStatus(ctx context.Context, params repository.UpdateStatusParams) error
}

type complianceFarmStore interface {
	GetByID(ctx context.Context, id string) (*models.Farm, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ComplianceService orchestrates compliance-log submission and review.
type ComplianceService struct {
	repo   complianceStore
	farms  complianceFarmStore
	audit  auditLogger
	cache  *CacheService
	logger *zap.Logger
	now    func() time.Time
}

// NewComplianceService constructs the service.
func NewComplianceService(repo complianceStore, farms complianceFarmStore, audit auditLogger, logger *zap.Logger) *ComplianceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplianceService{repo: repo, farms: farms, audit: audit, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// WithCache registers the cache whose dashboards are flushed on mutation.
func (s *ComplianceService) WithCache(cache *CacheService) *ComplianceService {
	s.cache = cache
	return s
}

// Submit records a new compliance log for one of the actor's farms.
// The log starts PENDING and carries the farm's region denormalised.
func (s *ComplianceService) Submit(ctx context.Context, req dto.SubmitLogRequest, actor *models.JWTClaims) (*models.ComplianceLog, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !policy.Can(actor.Role, policy.ActionLogSubmit) {
		return nil, appErrors.ErrForbidden
	}
	if strings.TrimSpace(req.FarmID) == "" || strings.TrimSpace(req.Type) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "farm_id and type are required")
	}

	farm, err := s.farms.GetByID(ctx, req.FarmID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "farm not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load farm")
	}
	if farm.OwnerID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "farm does not belong to user")
	}

	log := &models.ComplianceLog{
		FarmID:     farm.ID,
		FarmName:   farm.Name,
		FarmerID:   actor.UserID,
		FarmerName: actor.FullName,
		Type:       strings.ToUpper(strings.TrimSpace(req.Type)),
		State:      farm.Location.State,
		District:   farm.Location.District,
		Status:     models.CompliancePending,
	}
	if err := s.repo.Create(ctx, log); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create compliance log")
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionLogSubmit,
		Resource:   "compliance_log",
		ResourceID: &log.ID,
		NewValues:  []byte(fmt.Sprintf(`{"type":%q,"farm_id":%q}`, log.Type, log.FarmID)),
	})
	s.cache.InvalidateDashboards(ctx)
	return log, nil
}

// List returns compliance logs scoped by the actor's role: farmers see
// their own submissions, field roles their district, admins wider.
func (s *ComplianceService) List(ctx context.Context, query dto.ComplianceQuery, actor *models.JWTClaims) ([]models.ComplianceLog, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	filter := models.ComplianceFilter{
		FarmID:   query.FarmID,
		Status:   query.Status,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	switch actor.Role {
	case models.RoleFarmer:
		filter.FarmerID = actor.UserID
	case models.RoleVet, models.RoleExtension, models.RoleDistrictAdmin:
		filter.State = actor.State
		filter.District = actor.District
	case models.RoleNationalAdmin:
		// national scope, no region filter
	default:
		return nil, nil, appErrors.ErrForbidden
	}

	logs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list compliance logs")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return logs, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a compliance log enforcing scope constraints.
func (s *ComplianceService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.ComplianceLog, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	log, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load compliance log")
	}
	if actor.Role == models.RoleFarmer && log.FarmerID != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	return log, nil
}

// Review applies a reviewer decision. Only PENDING logs transition;
// a terminal log yields INVALID_TRANSITION and a lost concurrent
// update yields CONFLICT.
func (s *ComplianceService) Review(ctx context.Context, id string, req dto.ReviewLogRequest, actor *models.JWTClaims) (*models.ComplianceLog, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !policy.Can(actor.Role, policy.ActionLogReview) {
		return nil, appErrors.ErrForbidden
	}

	log, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load compliance log")
	}
	if log.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("log already %s", log.Status))
	}
	if req.Status != models.ComplianceApproved && req.Status != models.ComplianceRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be APPROVED or REJECTED")
	}
	if actor.Role == models.RoleVet || actor.Role == models.RoleDistrictAdmin {
		if log.District != actor.District {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "log is outside reviewer district")
		}
	}

	now := s.now()
	params := repository.UpdateStatusParams{
		ID:         log.ID,
		Status:     req.Status,
		ReviewedBy: actor.UserID,
		ReviewedAt: now,
		Note:       optionalString(req.Note),
	}
	if err := s.repo.UpdateStatus(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "log was reviewed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update compliance log")
	}

	log.Status = req.Status
	log.ReviewedBy = &actor.UserID
	log.ReviewedAt = &now
	if note := optionalString(req.Note); note != nil {
		log.Note = note
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionLogReview,
		Resource:   "compliance_log",
		ResourceID: &log.ID,
		NewValues:  []byte(fmt.Sprintf(`{"status":%q}`, log.Status)),
	})
	s.cache.InvalidateDashboards(ctx)
	return log, nil
}

func (s *ComplianceService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func optionalString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	v := strings.TrimSpace(value)
	return &v
}

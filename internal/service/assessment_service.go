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
	appErrors "github.com/agrisentry/biosecure-api/pkg/errors"
)

type assessmentStore interface {
	Create(ctx context.Context, assessment *models.RiskAssessment) error
	GetByID(ctx context.Context, id string) (*models.RiskAssessment, error)
	List(ctx context.Context, filter models.AssessmentFilter) ([]models.RiskAssessment, int, error)
}

type assessmentFarmStore interface {
	GetByID(ctx context.Context, id string) (*models.Farm, error)
	UpdateRiskLevel(ctx context.Context, id string, level models.RiskLevel, updatedAt time.Time) error
}

type assessmentActionStore interface {
	Create(ctx context.Context, action *models.CorrectiveAction) error
}

type assessmentAlertStore interface {
	Create(ctx context.Context, alert *models.Alert) error
}

// AssessmentService records risk assessments and their side effects:
// the farm's risk level follows the latest assessment, each finding
// opens a corrective action, and a HIGH outcome raises a district alert.
type AssessmentService struct {
	repo    assessmentStore
	farms   assessmentFarmStore
	actions assessmentActionStore
	alerts  assessmentAlertStore
	audit   auditLogger
	cache   *CacheService
	logger  *zap.Logger
	now     func() time.Time
}

// NewAssessmentService constructs the service.
func NewAssessmentService(repo assessmentStore, farms assessmentFarmStore, actions assessmentActionStore, alerts assessmentAlertStore, audit auditLogger, logger *zap.Logger) *AssessmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentService{
		repo:    repo,
		farms:   farms,
		actions: actions,
		alerts:  alerts,
		audit:   audit,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithCache registers the cache whose dashboards are flushed on mutation.
func (s *AssessmentService) WithCache(cache *CacheService) *AssessmentService {
	s.cache = cache
	return s
}

// Create records an assessment and applies its side effects.
func (s *AssessmentService) Create(ctx context.Context, req dto.CreateAssessmentRequest, actor *models.JWTClaims) (*models.RiskAssessment, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !policy.Can(actor.Role, policy.ActionRiskUpdate) {
		return nil, appErrors.ErrForbidden
	}
	if !models.ValidRiskLevel(req.RiskLevel) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "risk_level must be HIGH, MEDIUM or LOW")
	}

	farm, err := s.farms.GetByID(ctx, req.FarmID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "farm not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load farm")
	}

	findings := make([]string, 0, len(req.Findings))
	for _, f := range req.Findings {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			findings = append(findings, trimmed)
		}
	}

	assessment := &models.RiskAssessment{
		FarmID:       farm.ID,
		AssessorID:   actor.UserID,
		AssessorName: actor.FullName,
		RiskLevel:    req.RiskLevel,
		Findings:     findings,
	}
	if err := s.repo.Create(ctx, assessment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assessment")
	}

	if err := s.farms.UpdateRiskLevel(ctx, farm.ID, req.RiskLevel, s.now()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update farm risk level")
	}

	for _, finding := range findings {
		action := &models.CorrectiveAction{
			FarmID:       farm.ID,
			AssessmentID: &assessment.ID,
			Description:  finding,
			Status:       models.ActionPending,
		}
		if err := s.actions.Create(ctx, action); err != nil {
			s.logger.Warn("failed to open corrective action",
				zap.String("farm_id", farm.ID),
				zap.String("assessment_id", assessment.ID),
				zap.Error(err))
		}
	}

	if req.RiskLevel == models.RiskHigh {
		alert := &models.Alert{
			Message:  fmt.Sprintf("Farm %s classified HIGH risk after assessment", farm.Name),
			Severity: models.SeverityHigh,
			State:    farm.Location.State,
			District: farm.Location.District,
			FarmID:   &farm.ID,
		}
		if err := s.alerts.Create(ctx, alert); err != nil {
			s.logger.Warn("failed to raise high-risk alert", zap.String("farm_id", farm.ID), zap.Error(err))
		}
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionAssessmentCreate,
		Resource:   "risk_assessment",
		ResourceID: &assessment.ID,
		NewValues:  []byte(fmt.Sprintf(`{"farm_id":%q,"risk_level":%q}`, farm.ID, req.RiskLevel)),
	})
	s.cache.InvalidateDashboards(ctx)
	return assessment, nil
}

// List returns assessments, optionally filtered to a farm.
func (s *AssessmentService) List(ctx context.Context, filter models.AssessmentFilter, actor *models.JWTClaims) ([]models.RiskAssessment, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	assessments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assessments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return assessments, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a single assessment.
func (s *AssessmentService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.RiskAssessment, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	assessment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment")
	}
	return assessment, nil
}

func (s *AssessmentService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

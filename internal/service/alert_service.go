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

type alertStore interface {
	Create(ctx context.Context, alert *models.Alert) error
	GetByID(ctx context.Context, id string) (*models.Alert, error)
	List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, int, error)
	Acknowledge(ctx context.Context, id, userID string, at time.Time) error
}

// AlertService manages alert broadcast and acknowledgement.
type AlertService struct {
	repo   alertStore
	audit  auditLogger
	cache  *CacheService
	logger *zap.Logger
	now    func() time.Time
}

// NewAlertService constructs the service.
func NewAlertService(repo alertStore, audit auditLogger, logger *zap.Logger) *AlertService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertService{repo: repo, audit: audit, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// WithCache registers the cache whose dashboards are flushed on mutation.
func (s *AlertService) WithCache(cache *CacheService) *AlertService {
	s.cache = cache
	return s
}

// List returns alerts visible to the actor: region-scoped roles see
// their region plus national broadcasts, national admins everything.
func (s *AlertService) List(ctx context.Context, query dto.AlertQuery, actor *models.JWTClaims) ([]models.Alert, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	filter := models.AlertFilter{
		FarmID:       query.FarmID,
		Acknowledged: query.Acknowledged,
		Page:         query.Page,
		PageSize:     query.PageSize,
	}
	if query.Severity != "" {
		severity := models.AlertSeverity(strings.ToUpper(query.Severity))
		if !models.ValidSeverity(severity) {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown severity")
		}
		filter.Severity = &severity
	}
	if actor.Role != models.RoleNationalAdmin {
		filter.State = actor.State
		filter.District = actor.District
	}

	alerts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list alerts")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return alerts, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Acknowledge marks an alert as seen. Acknowledgement is one-way:
// acknowledging an already-acknowledged alert is an illegal transition.
func (s *AlertService) Acknowledge(ctx context.Context, id string, actor *models.JWTClaims) (*models.Alert, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !policy.Can(actor.Role, policy.ActionAlertAcknowledge) {
		return nil, appErrors.ErrForbidden
	}

	alert, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load alert")
	}
	if alert.Acknowledged {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "alert already acknowledged")
	}

	now := s.now()
	if err := s.repo.Acknowledge(ctx, alert.ID, actor.UserID, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "alert was acknowledged concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acknowledge alert")
	}

	alert.Acknowledged = true
	alert.AcknowledgedBy = &actor.UserID
	alert.AcknowledgedAt = &now

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actor.UserID,
			Action:     models.AuditActionAlertAcknowledge,
			Resource:   "alert",
			ResourceID: &alert.ID,
			NewValues:  []byte(`{"acknowledged":true}`),
		}); err != nil {
			s.logger.Warn("failed to persist audit log", zap.Error(err))
		}
	}
	s.cache.InvalidateDashboards(ctx)
	return alert, nil
}

// Broadcast raises an admin alert. District admins broadcast within
// their own district; national admins anywhere.
func (s *AlertService) Broadcast(ctx context.Context, req dto.BroadcastAlertRequest, actor *models.JWTClaims) (*models.Alert, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !policy.Can(actor.Role, policy.ActionAlertBroadcast) {
		return nil, appErrors.ErrForbidden
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "message is required")
	}
	if !models.ValidSeverity(req.Severity) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "severity must be HIGH, MEDIUM or LOW")
	}

	state, district := req.State, req.District
	if actor.Role == models.RoleDistrictAdmin {
		state, district = actor.State, actor.District
	}

	alert := &models.Alert{
		Message:  strings.TrimSpace(req.Message),
		Severity: req.Severity,
		State:    state,
		District: district,
	}
	if err := s.repo.Create(ctx, alert); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create alert")
	}

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actor.UserID,
			Action:     models.AuditActionAlertBroadcast,
			Resource:   "alert",
			ResourceID: &alert.ID,
			NewValues:  []byte(fmt.Sprintf(`{"severity":%q,"state":%q,"district":%q}`, alert.Severity, alert.State, alert.District)),
		}); err != nil {
			s.logger.Warn("failed to persist audit log", zap.Error(err))
		}
	}
	s.cache.InvalidateDashboards(ctx)
	return alert, nil
}

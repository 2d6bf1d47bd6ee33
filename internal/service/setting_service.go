package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/agrisentry/biosecure-api/internal/dto"
	"github.com/agrisentry/biosecure-api/internal/models"
	"github.com/agrisentry/biosecure-api/internal/policy"
	appErrors "github.com/agrisentry/biosecure-api/pkg/errors"
)

type settingStore interface {
	List(ctx context.Context) ([]models.SystemSetting, error)
	Get(ctx context.Context, key string) (*models.SystemSetting, error)
	Upsert(ctx context.Context, setting *models.SystemSetting) error
}

// SettingService manages national-admin system configuration.
type SettingService struct {
	repo   settingStore
	audit  auditLogger
	logger *zap.Logger
}

// NewSettingService constructs the service.
func NewSettingService(repo settingStore, audit auditLogger, logger *zap.Logger) *SettingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingService{repo: repo, audit: audit, logger: logger}
}

// List returns all settings.
func (s *SettingService) List(ctx context.Context, actor *models.JWTClaims) ([]models.SystemSetting, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !policy.Can(actor.Role, policy.ActionSystemConfigure) {
		return nil, appErrors.ErrForbidden
	}
	settings, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list settings")
	}
	return settings, nil
}

// Update upserts a single setting value.
func (s *SettingService) Update(ctx context.Context, key string, req dto.UpdateSettingRequest, actor *models.JWTClaims) (*models.SystemSetting, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !policy.Can(actor.Role, policy.ActionSystemConfigure) {
		return nil, appErrors.ErrForbidden
	}
	key = strings.TrimSpace(key)
	if key == "" || strings.TrimSpace(req.Value) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "key and value are required")
	}

	var oldValue string
	if existing, err := s.repo.Get(ctx, key); err == nil {
		oldValue = existing.Value
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load setting")
	}

	setting := &models.SystemSetting{
		Key:       key,
		Value:     strings.TrimSpace(req.Value),
		UpdatedBy: actor.UserID,
	}
	if err := s.repo.Upsert(ctx, setting); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update setting")
	}

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actor.UserID,
			Action:     models.AuditActionSettingUpdate,
			Resource:   "system_setting",
			ResourceID: &setting.Key,
			OldValues:  []byte(fmt.Sprintf(`{"value":%q}`, oldValue)),
			NewValues:  []byte(fmt.Sprintf(`{"value":%q}`, setting.Value)),
		}); err != nil {
			s.logger.Warn("failed to persist audit log", zap.Error(err))
		}
	}
	return setting, nil
}

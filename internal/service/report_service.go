package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrisentry/biosecure-api/internal/dto"
	"github.com/agrisentry/biosecure-api/internal/models"
	"github.com/agrisentry/biosecure-api/internal/policy"
	appErrors "github.com/agrisentry/biosecure-api/pkg/errors"
	"github.com/agrisentry/biosecure-api/pkg/export"
	"github.com/agrisentry/biosecure-api/pkg/storage"
)

type reportComplianceProvider interface {
	List(ctx context.Context, filter models.ComplianceFilter) ([]models.ComplianceLog, int, error)
}

type reportFarmProvider interface {
	List(ctx context.Context, filter models.FarmFilter) ([]models.Farm, int, error)
}

// ReportService renders compliance and farm exports, stores the file,
// and hands back a signed expiring download link.
type ReportService struct {
	compliance reportComplianceProvider
	farms      reportFarmProvider
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	storage    *storage.LocalStorage
	signer     *storage.SignedURLSigner
	audit      auditLogger
	logger     *zap.Logger
	now        func() time.Time
}

// NewReportService constructs the service.
func NewReportService(compliance reportComplianceProvider, farms reportFarmProvider, store *storage.LocalStorage, signer *storage.SignedURLSigner, audit auditLogger, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		compliance: compliance,
		farms:      farms,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		storage:    store,
		signer:     signer,
		audit:      audit,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Export renders the requested report and returns a signed link.
func (s *ReportService) Export(ctx context.Context, req dto.ExportReportRequest, actor *models.JWTClaims) (*dto.ExportReportResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !policy.Can(actor.Role, policy.ActionReportExport) {
		return nil, appErrors.ErrForbidden
	}

	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format != dto.ReportFormatCSV && format != dto.ReportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	var (
		dataset export.Dataset
		err     error
	)
	switch strings.ToLower(strings.TrimSpace(req.Type)) {
	case dto.ReportTypeCompliance:
		dataset, err = s.complianceDataset(ctx, actor)
		dataset.Title = "Compliance Log Report"
	case dto.ReportTypeFarms:
		dataset, err = s.farmDataset(ctx, actor)
		dataset.Title = "Farm Registry Report"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "type must be compliance or farms")
	}
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleDistrictAdmin {
		dataset.Region = fmt.Sprintf("%s District, %s State", actor.District, actor.State)
	}
	dataset.GeneratedAt = s.now()

	var payload []byte
	if format == dto.ReportFormatCSV {
		payload, err = s.csv.Render(dataset)
	} else {
		payload, err = s.pdf.Render(dataset)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	reportID := uuid.NewString()
	fileName := fmt.Sprintf("reports/%s-%s.%s", req.Type, reportID, format)
	stored, err := s.storage.Save(fileName, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to store report")
	}

	token, expiresAt, err := s.signer.Generate(reportID, stored)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}

	if s.audit != nil {
		if auditErr := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actor.UserID,
			Action:     models.AuditActionReportExport,
			Resource:   "report",
			ResourceID: &reportID,
			NewValues:  []byte(fmt.Sprintf(`{"type":%q,"format":%q}`, req.Type, format)),
		}); auditErr != nil {
			s.logger.Warn("failed to persist audit log", zap.Error(auditErr))
		}
	}

	return &dto.ExportReportResponse{
		FileName:    fileName,
		DownloadURL: fmt.Sprintf("/api/v1/reports/download?token=%s", token),
		ExpiresAt:   expiresAt,
	}, nil
}

// ResolveDownload validates a signed token and returns the on-disk path.
func (s *ReportService) ResolveDownload(token string) (string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired download link")
	}
	return s.storage.Path(relPath), nil
}

func (s *ReportService) complianceDataset(ctx context.Context, actor *models.JWTClaims) (export.Dataset, error) {
	filter := models.ComplianceFilter{PageSize: 100}
	if actor.Role == models.RoleDistrictAdmin {
		filter.State = actor.State
		filter.District = actor.District
	}
	logs, _, err := s.compliance.List(ctx, filter)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load compliance logs")
	}

	rows := make([]map[string]string, 0, len(logs))
	for _, log := range logs {
		reviewedAt := ""
		if log.ReviewedAt != nil {
			reviewedAt = log.ReviewedAt.Format(time.RFC3339)
		}
		rows = append(rows, map[string]string{
			"Farm":         log.FarmName,
			"Farmer":       log.FarmerName,
			"Type":         log.Type,
			"District":     log.District,
			"Status":       string(log.Status),
			"Submitted At": log.SubmittedAt.Format(time.RFC3339),
			"Reviewed At":  reviewedAt,
		})
	}
	return export.Dataset{
		Headers: []string{"Farm", "Farmer", "Type", "District", "Status", "Submitted At", "Reviewed At"},
		Rows:    rows,
	}, nil
}

func (s *ReportService) farmDataset(ctx context.Context, actor *models.JWTClaims) (export.Dataset, error) {
	filter := models.FarmFilter{PageSize: 100}
	if actor.Role == models.RoleDistrictAdmin {
		filter.State = actor.State
		filter.District = actor.District
	}
	farms, _, err := s.farms.List(ctx, filter)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load farms")
	}

	rows := make([]map[string]string, 0, len(farms))
	for _, farm := range farms {
		rows = append(rows, map[string]string{
			"Name":       farm.Name,
			"Type":       farm.Type,
			"State":      farm.Location.State,
			"District":   farm.Location.District,
			"Head Count": strconv.Itoa(farm.Size.Count),
			"Risk Level": string(farm.RiskLevel),
		})
	}
	return export.Dataset{
		Headers: []string{"Name", "Type", "State", "District", "Head Count", "Risk Level"},
		Rows:    rows,
	}, nil
}

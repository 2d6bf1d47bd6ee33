package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/agrisentry/biosecure-api/internal/dto"
	"github.com/agrisentry/biosecure-api/internal/models"
	"github.com/agrisentry/biosecure-api/internal/repository"
	appErrors "github.com/agrisentry/biosecure-api/pkg/errors"
)

type complianceRepoStub struct {
	logs      map[string]*models.ComplianceLog
	updateErr error
}

func newComplianceRepoStub() *complianceRepoStub {
	return &complianceRepoStub{logs: make(map[string]*models.ComplianceLog)}
}

func (m *complianceRepoStub) Create(ctx context.Context, log *models.ComplianceLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	m.logs[log.ID] = log
	return nil
}

func (m *complianceRepoStub) GetByID(ctx context.Context, id string) (*models.ComplianceLog, error) {
	if log, ok := m.logs[id]; ok {
		copy := *log
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *complianceRepoStub) List(ctx context.Context, filter models.ComplianceFilter) ([]models.ComplianceLog, int, error) {
	result := make([]models.ComplianceLog, 0, len(m.logs))
	for _, log := range m.logs {
		result = append(result, *log)
	}
	return result, len(result), nil
}

func (m *complianceRepoStub) UpdateStatus(ctx context.Context, params repository.UpdateStatusParams) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	log, ok := m.logs[params.ID]
	if !ok || log.Status != models.CompliancePending {
		return sql.ErrNoRows
	}
	log.Status = params.Status
	log.ReviewedBy = &params.ReviewedBy
	log.ReviewedAt = &params.ReviewedAt
	log.Note = params.Note
	return nil
}

type farmStoreStub struct {
	farms map[string]*models.Farm
}

func newFarmStoreStub(farms ...*models.Farm) *farmStoreStub {
	m := &farmStoreStub{farms: make(map[string]*models.Farm)}
	for _, farm := range farms {
		m.farms[farm.ID] = farm
	}
	return m
}

func (m *farmStoreStub) GetByID(ctx context.Context, id string) (*models.Farm, error) {
	if farm, ok := m.farms[id]; ok {
		copy := *farm
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

type auditStub struct {
	logs []*models.AuditLog
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func farmerClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "farmer-1", Role: models.RoleFarmer, FullName: "Aisha Bello", State: "Kaduna", District: "Zaria"}
}

func vetClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "vet-1", Role: models.RoleVet, FullName: "Dr. Obi", State: "Kaduna", District: "Zaria"}
}

func testFarm() *models.Farm {
	return &models.Farm{
		ID:      "farm-1",
		Name:    "Green Valley",
		OwnerID: "farmer-1",
		Location: models.FarmLocation{
			State:    "Kaduna",
			District: "Zaria",
		},
	}
}

func TestComplianceServiceSubmit(t *testing.T) {
	repo := newComplianceRepoStub()
	audit := &auditStub{}
	svc := NewComplianceService(repo, newFarmStoreStub(testFarm()), audit, nil)

	log, err := svc.Submit(context.Background(), dto.SubmitLogRequest{FarmID: "farm-1", Type: "vaccination"}, farmerClaims())
	require.NoError(t, err)
	require.Equal(t, models.CompliancePending, log.Status)
	require.Equal(t, "VACCINATION", log.Type)
	require.Equal(t, "Zaria", log.District)
	require.Len(t, audit.logs, 1)
}

func TestComplianceServiceSubmitForeignFarm(t *testing.T) {
	farm := testFarm()
	farm.OwnerID = "someone-else"
	svc := NewComplianceService(newComplianceRepoStub(), newFarmStoreStub(farm), &auditStub{}, nil)

	_, err := svc.Submit(context.Background(), dto.SubmitLogRequest{FarmID: "farm-1", Type: "vaccination"}, farmerClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestComplianceServiceReviewApprove(t *testing.T) {
	repo := newComplianceRepoStub()
	repo.logs["log-1"] = &models.ComplianceLog{ID: "log-1", FarmID: "farm-1", District: "Zaria", Status: models.CompliancePending}
	audit := &auditStub{}
	svc := NewComplianceService(repo, newFarmStoreStub(testFarm()), audit, nil)

	log, err := svc.Review(context.Background(), "log-1", dto.ReviewLogRequest{Status: models.ComplianceApproved, Note: "records in order"}, vetClaims())
	require.NoError(t, err)
	require.Equal(t, models.ComplianceApproved, log.Status)
	require.NotNil(t, log.ReviewedBy)
	require.Equal(t, "vet-1", *log.ReviewedBy)
	require.Len(t, audit.logs, 1)
}

func TestComplianceServiceReviewTerminal(t *testing.T) {
	repo := newComplianceRepoStub()
	repo.logs["log-1"] = &models.ComplianceLog{ID: "log-1", District: "Zaria", Status: models.ComplianceApproved}
	svc := NewComplianceService(repo, newFarmStoreStub(), &auditStub{}, nil)

	_, err := svc.Review(context.Background(), "log-1", dto.ReviewLogRequest{Status: models.ComplianceRejected}, vetClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestComplianceServiceReviewConcurrentLoss(t *testing.T) {
	repo := newComplianceRepoStub()
	repo.logs["log-1"] = &models.ComplianceLog{ID: "log-1", District: "Zaria", Status: models.CompliancePending}
	repo.updateErr = sql.ErrNoRows
	svc := NewComplianceService(repo, newFarmStoreStub(), &auditStub{}, nil)

	_, err := svc.Review(context.Background(), "log-1", dto.ReviewLogRequest{Status: models.ComplianceApproved}, vetClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestComplianceServiceReviewRoleDenied(t *testing.T) {
	repo := newComplianceRepoStub()
	repo.logs["log-1"] = &models.ComplianceLog{ID: "log-1", District: "Zaria", Status: models.CompliancePending}
	svc := NewComplianceService(repo, newFarmStoreStub(), &auditStub{}, nil)

	// Extension workers cannot review compliance logs.
	actor := &models.JWTClaims{UserID: "ext-1", Role: models.RoleExtension, District: "Zaria"}
	_, err := svc.Review(context.Background(), "log-1", dto.ReviewLogRequest{Status: models.ComplianceApproved}, actor)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestComplianceServiceReviewOutsideDistrict(t *testing.T) {
	repo := newComplianceRepoStub()
	repo.logs["log-1"] = &models.ComplianceLog{ID: "log-1", District: "Ikeja", Status: models.CompliancePending}
	svc := NewComplianceService(repo, newFarmStoreStub(), &auditStub{}, nil)

	_, err := svc.Review(context.Background(), "log-1", dto.ReviewLogRequest{Status: models.ComplianceApproved}, vetClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/agrisentry/biosecure-api/internal/dto"
	"github.com/agrisentry/biosecure-api/internal/models"
	appErrors "github.com/agrisentry/biosecure-api/pkg/errors"
)

type assessmentRepoStub struct {
	assessments []*models.RiskAssessment
}

func (m *assessmentRepoStub) Create(ctx context.Context, assessment *models.RiskAssessment) error {
	if assessment.ID == "" {
		assessment.ID = uuid.NewString()
	}
	m.assessments = append(m.assessments, assessment)
	return nil
}

func (m *assessmentRepoStub) GetByID(ctx context.Context, id string) (*models.RiskAssessment, error) {
	for _, a := range m.assessments {
		if a.ID == id {
			copy := *a
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *assessmentRepoStub) List(ctx context.Context, filter models.AssessmentFilter) ([]models.RiskAssessment, int, error) {
	result := make([]models.RiskAssessment, 0, len(m.assessments))
	for _, a := range m.assessments {
		result = append(result, *a)
	}
	return result, len(result), nil
}

type riskFarmStub struct {
	farms map[string]*models.Farm
}

func (m *riskFarmStub) GetByID(ctx context.Context, id string) (*models.Farm, error) {
	if farm, ok := m.farms[id]; ok {
		copy := *farm
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *riskFarmStub) UpdateRiskLevel(ctx context.Context, id string, level models.RiskLevel, updatedAt time.Time) error {
	farm, ok := m.farms[id]
	if !ok {
		return sql.ErrNoRows
	}
	farm.RiskLevel = level
	return nil
}

type actionCreatorStub struct {
	actions []*models.CorrectiveAction
}

func (m *actionCreatorStub) Create(ctx context.Context, action *models.CorrectiveAction) error {
	if action.ID == "" {
		action.ID = uuid.NewString()
	}
	m.actions = append(m.actions, action)
	return nil
}

type alertCreatorStub struct {
	alerts []*models.Alert
}

func (m *alertCreatorStub) Create(ctx context.Context, alert *models.Alert) error {
	m.alerts = append(m.alerts, alert)
	return nil
}

func TestAssessmentServiceHighRiskSideEffects(t *testing.T) {
	farms := &riskFarmStub{farms: map[string]*models.Farm{"farm-1": testFarm()}}
	actions := &actionCreatorStub{}
	alerts := &alertCreatorStub{}
	audit := &auditStub{}
	svc := NewAssessmentService(&assessmentRepoStub{}, farms, actions, alerts, audit, nil)

	assessment, err := svc.Create(context.Background(), dto.CreateAssessmentRequest{
		FarmID:    "farm-1",
		RiskLevel: models.RiskHigh,
		Findings:  []string{"No footbath at entrance", "  ", "Open feed storage"},
	}, vetClaims())
	require.NoError(t, err)

	// Farm risk follows the assessment.
	require.Equal(t, models.RiskHigh, farms.farms["farm-1"].RiskLevel)

	// Blank findings are dropped; each remaining one opens an action.
	require.Len(t, actions.actions, 2)
	for _, action := range actions.actions {
		require.Equal(t, models.ActionPending, action.Status)
		require.Equal(t, assessment.ID, *action.AssessmentID)
	}

	// HIGH outcome raises a district alert.
	require.Len(t, alerts.alerts, 1)
	require.Equal(t, models.SeverityHigh, alerts.alerts[0].Severity)
	require.Equal(t, "Zaria", alerts.alerts[0].District)
	require.Len(t, audit.logs, 1)
}

func TestAssessmentServiceLowRiskNoAlert(t *testing.T) {
	farms := &riskFarmStub{farms: map[string]*models.Farm{"farm-1": testFarm()}}
	alerts := &alertCreatorStub{}
	svc := NewAssessmentService(&assessmentRepoStub{}, farms, &actionCreatorStub{}, alerts, &auditStub{}, nil)

	_, err := svc.Create(context.Background(), dto.CreateAssessmentRequest{
		FarmID:    "farm-1",
		RiskLevel: models.RiskLow,
	}, vetClaims())
	require.NoError(t, err)
	require.Empty(t, alerts.alerts)
	require.Equal(t, models.RiskLow, farms.farms["farm-1"].RiskLevel)
}

func TestAssessmentServiceFarmerDenied(t *testing.T) {
	svc := NewAssessmentService(&assessmentRepoStub{}, &riskFarmStub{}, &actionCreatorStub{}, &alertCreatorStub{}, &auditStub{}, nil)

	_, err := svc.Create(context.Background(), dto.CreateAssessmentRequest{
		FarmID:    "farm-1",
		RiskLevel: models.RiskHigh,
	}, farmerClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAssessmentServiceUnknownRiskLevel(t *testing.T) {
	svc := NewAssessmentService(&assessmentRepoStub{}, &riskFarmStub{}, &actionCreatorStub{}, &alertCreatorStub{}, &auditStub{}, nil)

	_, err := svc.Create(context.Background(), dto.CreateAssessmentRequest{
		FarmID:    "farm-1",
		RiskLevel: "SEVERE",
	}, vetClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

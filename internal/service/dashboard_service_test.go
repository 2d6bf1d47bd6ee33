package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agrisentry/biosecure-api/internal/models"
)

type dashFarmStub struct {
	farms   []models.Farm
	risks   map[models.RiskLevel]int
	byState map[string]int
}

func (m *dashFarmStub) List(ctx context.Context, filter models.FarmFilter) ([]models.Farm, int, error) {
	return m.farms, len(m.farms), nil
}

func (m *dashFarmStub) CountByRiskLevel(ctx context.Context, state, district string) (map[models.RiskLevel]int, error) {
	return m.risks, nil
}

func (m *dashFarmStub) CountByState(ctx context.Context) (map[string]int, error) {
	return m.byState, nil
}

type dashComplianceStub struct {
	counts models.ComplianceStatusCounts
	logs   []models.ComplianceLog
}

func (m *dashComplianceStub) List(ctx context.Context, filter models.ComplianceFilter) ([]models.ComplianceLog, int, error) {
	return m.logs, len(m.logs), nil
}

func (m *dashComplianceStub) StatusCounts(ctx context.Context, filter models.ComplianceFilter) (models.ComplianceStatusCounts, error) {
	return m.counts, nil
}

type dashAlertStub struct {
	open   int
	recent []models.Alert
}

func (m *dashAlertStub) List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, int, error) {
	return m.recent, len(m.recent), nil
}

func (m *dashAlertStub) CountUnacknowledged(ctx context.Context, state, district string) (int, error) {
	return m.open, nil
}

type dashActionStub struct{ pending int }

func (m *dashActionStub) CountPending(ctx context.Context, state, district string) (int, error) {
	return m.pending, nil
}

type dashAssessmentStub struct{ count int }

func (m *dashAssessmentStub) CountSince(ctx context.Context, assessorID string, since time.Time) (int, error) {
	return m.count, nil
}

type dashTrainingStub struct{ sessions []models.TrainingSession }

func (m *dashTrainingStub) List(ctx context.Context, filter models.TrainingFilter) ([]models.TrainingSession, int, error) {
	return m.sessions, len(m.sessions), nil
}

func newDashboardService(farms *dashFarmStub, compliance *dashComplianceStub, alerts *dashAlertStub) *DashboardService {
	return NewDashboardService(DashboardServiceParams{
		Farms:       farms,
		Compliance:  compliance,
		Alerts:      alerts,
		Actions:     &dashActionStub{pending: 2},
		Assessments: &dashAssessmentStub{count: 3},
		Trainings:   &dashTrainingStub{},
	})
}

func TestOverallCompliance(t *testing.T) {
	cases := []struct {
		name   string
		counts models.ComplianceStatusCounts
		want   int
	}{
		{"no submissions", models.ComplianceStatusCounts{}, 0},
		{"all approved", models.ComplianceStatusCounts{Approved: 4}, 100},
		{"two thirds", models.ComplianceStatusCounts{Approved: 2, Rejected: 1}, 67},
		{"one third", models.ComplianceStatusCounts{Approved: 1, Pending: 1, Rejected: 1}, 33},
		{"half rounds up", models.ComplianceStatusCounts{Approved: 1, Rejected: 1}, 50},
		{"pending only", models.ComplianceStatusCounts{Pending: 5}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, OverallCompliance(tc.counts))
		})
	}
}

func TestDashboardFarmer(t *testing.T) {
	farms := &dashFarmStub{farms: []models.Farm{{ID: "farm-1", Name: "Green Valley", RiskLevel: models.RiskMedium}}}
	compliance := &dashComplianceStub{counts: models.ComplianceStatusCounts{Pending: 1, Approved: 3}}
	alerts := &dashAlertStub{open: 2, recent: []models.Alert{{ID: "alert-1"}}}
	svc := newDashboardService(farms, compliance, alerts)

	resp, cached, err := svc.Farmer(context.Background(), farmerClaims())
	require.NoError(t, err)
	require.False(t, cached)
	require.Len(t, resp.Farms, 1)
	require.Equal(t, models.RiskMedium, resp.Farms[0].RiskLevel)
	require.Equal(t, 75, resp.Compliance.OverallCompliance)
	require.Equal(t, 2, resp.Alerts.Unacknowledged)
}

func TestDashboardVet(t *testing.T) {
	farms := &dashFarmStub{farms: []models.Farm{{ID: "farm-2", Name: "Hillside", RiskLevel: models.RiskHigh}}}
	compliance := &dashComplianceStub{logs: []models.ComplianceLog{{ID: "log-1", Status: models.CompliancePending}}}
	svc := newDashboardService(farms, compliance, &dashAlertStub{})

	resp, cached, err := svc.Vet(context.Background(), vetClaims())
	require.NoError(t, err)
	require.False(t, cached)
	require.Equal(t, 1, resp.PendingReviews)
	require.Equal(t, 3, resp.AssessmentsThisWeek)
	require.Len(t, resp.HighRiskFarms, 1)
}

func TestDashboardDistrict(t *testing.T) {
	farms := &dashFarmStub{
		farms: []models.Farm{{ID: "farm-1"}},
		risks: map[models.RiskLevel]int{models.RiskHigh: 1, models.RiskLow: 4},
	}
	compliance := &dashComplianceStub{counts: models.ComplianceStatusCounts{Pending: 2, Approved: 6, Rejected: 2}}
	alerts := &dashAlertStub{open: 1}
	svc := newDashboardService(farms, compliance, alerts)

	actor := &models.JWTClaims{UserID: "da-1", Role: models.RoleDistrictAdmin, State: "Kaduna", District: "Zaria"}
	resp, _, err := svc.District(context.Background(), actor)
	require.NoError(t, err)
	require.Equal(t, 2, resp.Overview.PendingLogs)
	require.Equal(t, 1, resp.Overview.OpenAlerts)
	require.Equal(t, 60, resp.Compliance.OverallCompliance)
	require.Equal(t, 1, resp.RiskBreakdown.High)
	require.Equal(t, 4, resp.RiskBreakdown.Low)
}

func TestDashboardNationalStateRollup(t *testing.T) {
	farms := &dashFarmStub{
		risks:   map[models.RiskLevel]int{models.RiskMedium: 2},
		byState: map[string]int{"Kaduna": 5, "Lagos": 3},
	}
	compliance := &dashComplianceStub{counts: models.ComplianceStatusCounts{Approved: 1}}
	svc := newDashboardService(farms, compliance, &dashAlertStub{open: 4})

	actor := &models.JWTClaims{UserID: "na-1", Role: models.RoleNationalAdmin}
	resp, _, err := svc.National(context.Background(), actor)
	require.NoError(t, err)
	require.Equal(t, 4, resp.OpenAlerts)
	require.Len(t, resp.States, 2)
	// States sort alphabetically for stable output.
	require.Equal(t, "Kaduna", resp.States[0].State)
	require.Equal(t, "Lagos", resp.States[1].State)
}

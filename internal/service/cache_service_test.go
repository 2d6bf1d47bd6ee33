package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agrisentry/biosecure-api/internal/dto"
	"github.com/agrisentry/biosecure-api/internal/models"
	appErrors "github.com/agrisentry/biosecure-api/pkg/errors"
)

type memCacheRepo struct {
	entries  map[string][]byte
	patterns []string
}

func newMemCacheRepo() *memCacheRepo {
	return &memCacheRepo{entries: make(map[string][]byte)}
}

func (m *memCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.patterns = append(m.patterns, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

func newTestCache(repo *memCacheRepo) *CacheService {
	return NewCacheService(repo, nil, time.Minute, nil, true)
}

// A cached dashboard must not outlive the mutation that changed its
// numbers: a review flushes the dash keys so the next read recomputes.
func TestDistrictDashboardRecomputesAfterReview(t *testing.T) {
	cacheRepo := newMemCacheRepo()
	cache := newTestCache(cacheRepo)

	compliance := &dashComplianceStub{counts: models.ComplianceStatusCounts{Pending: 2, Approved: 6, Rejected: 2}}
	dashboards := NewDashboardService(DashboardServiceParams{
		Farms:       &dashFarmStub{},
		Compliance:  compliance,
		Alerts:      &dashAlertStub{},
		Actions:     &dashActionStub{},
		Assessments: &dashAssessmentStub{},
		Trainings:   &dashTrainingStub{},
		Cache:       cache,
	})

	actor := &models.JWTClaims{UserID: "da-1", Role: models.RoleDistrictAdmin, State: "Kaduna", District: "Zaria"}
	resp, cached, err := dashboards.District(context.Background(), actor)
	require.NoError(t, err)
	require.False(t, cached)
	require.Equal(t, 2, resp.Overview.PendingLogs)

	resp, cached, err = dashboards.District(context.Background(), actor)
	require.NoError(t, err)
	require.True(t, cached)
	require.Equal(t, 2, resp.Overview.PendingLogs)

	logRepo := newComplianceRepoStub()
	log := &models.ComplianceLog{FarmID: "farm-1", FarmerID: "farmer-1", District: "Zaria", Status: models.CompliancePending}
	require.NoError(t, logRepo.Create(context.Background(), log))
	reviews := NewComplianceService(logRepo, newFarmStoreStub(), &auditStub{}, nil).WithCache(cache)
	_, err = reviews.Review(context.Background(), log.ID, dto.ReviewLogRequest{Status: models.ComplianceApproved}, districtAdminClaims())
	require.NoError(t, err)
	compliance.counts = models.ComplianceStatusCounts{Pending: 1, Approved: 7, Rejected: 2}

	resp, cached, err = dashboards.District(context.Background(), actor)
	require.NoError(t, err)
	require.False(t, cached)
	require.Equal(t, 1, resp.Overview.PendingLogs)
}

func TestMutationsFlushDashboardCache(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(t *testing.T, cache *CacheService)
	}{
		{"compliance submit", func(t *testing.T, cache *CacheService) {
			svc := NewComplianceService(newComplianceRepoStub(), newFarmStoreStub(testFarm()), &auditStub{}, nil).WithCache(cache)
			_, err := svc.Submit(context.Background(), dto.SubmitLogRequest{FarmID: "farm-1", Type: "VACCINATION"}, farmerClaims())
			require.NoError(t, err)
		}},
		{"alert acknowledge", func(t *testing.T, cache *CacheService) {
			svc := NewAlertService(newAlertRepoStub(&models.Alert{ID: "alert-1", Severity: models.SeverityHigh}), &auditStub{}, nil).WithCache(cache)
			_, err := svc.Acknowledge(context.Background(), "alert-1", farmerClaims())
			require.NoError(t, err)
		}},
		{"action complete", func(t *testing.T, cache *CacheService) {
			svc := NewActionService(newActionRepoStub(&models.CorrectiveAction{ID: "act-1", FarmID: "farm-1", Status: models.ActionPending}), &auditStub{}, nil).WithCache(cache)
			_, err := svc.Complete(context.Background(), "act-1", vetClaims())
			require.NoError(t, err)
		}},
		{"assessment create", func(t *testing.T, cache *CacheService) {
			farms := &riskFarmStub{farms: map[string]*models.Farm{"farm-1": testFarm()}}
			svc := NewAssessmentService(&assessmentRepoStub{}, farms, &actionCreatorStub{}, &alertCreatorStub{}, &auditStub{}, nil).WithCache(cache)
			_, err := svc.Create(context.Background(), dto.CreateAssessmentRequest{FarmID: "farm-1", RiskLevel: models.RiskMedium}, vetClaims())
			require.NoError(t, err)
		}},
		{"farm risk update", func(t *testing.T, cache *CacheService) {
			svc := NewFarmService(newFarmRepoStub(testFarm()), &auditStub{}, nil, nil).WithCache(cache)
			_, err := svc.UpdateRiskLevel(context.Background(), "farm-1", dto.UpdateRiskRequest{RiskLevel: models.RiskHigh}, vetClaims())
			require.NoError(t, err)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cacheRepo := newMemCacheRepo()
			cacheRepo.entries["dash:national"] = []byte(`{}`)
			cache := newTestCache(cacheRepo)

			tc.mutate(t, cache)

			require.Contains(t, cacheRepo.patterns, "dash:*")
			require.Empty(t, cacheRepo.entries)
		})
	}
}

package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/agrisentry/biosecure-api/internal/dto"
	"github.com/agrisentry/biosecure-api/internal/models"
	appErrors "github.com/agrisentry/biosecure-api/pkg/errors"
)

type dashFarmProvider interface {
	List(ctx context.Context, filter models.FarmFilter) ([]models.Farm, int, error)
	CountByRiskLevel(ctx context.Context, state, district string) (map[models.RiskLevel]int, error)
	CountByState(ctx context.Context) (map[string]int, error)
}

type dashComplianceProvider interface {
	List(ctx context.Context, filter models.ComplianceFilter) ([]models.ComplianceLog, int, error)
	StatusCounts(ctx context.Context, filter models.ComplianceFilter) (models.ComplianceStatusCounts, error)
}

type dashAlertProvider interface {
	List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, int, error)
	CountUnacknowledged(ctx context.Context, state, district string) (int, error)
}

type dashActionProvider interface {
	CountPending(ctx context.Context, state, district string) (int, error)
}

type dashAssessmentProvider interface {
	CountSince(ctx context.Context, assessorID string, since time.Time) (int, error)
}

type dashTrainingProvider interface {
	List(ctx context.Context, filter models.TrainingFilter) ([]models.TrainingSession, int, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL          time.Duration
	RecentAlertsLimit int
	ReviewQueueLimit  int
	TrainingsLimit    int
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Farms       dashFarmProvider
	Compliance  dashComplianceProvider
	Alerts      dashAlertProvider
	Actions     dashActionProvider
	Assessments dashAssessmentProvider
	Trainings   dashTrainingProvider
	Cache       *CacheService
	Logger      *zap.Logger
	Config      DashboardServiceConfig
}

// DashboardService composes the per-role dashboard payloads.
type DashboardService struct {
	farms       dashFarmProvider
	compliance  dashComplianceProvider
	alerts      dashAlertProvider
	actions     dashActionProvider
	assessments dashAssessmentProvider
	trainings   dashTrainingProvider
	cache       *CacheService
	logger      *zap.Logger
	now         func() time.Time
	cfg         DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.RecentAlertsLimit <= 0 {
		cfg.RecentAlertsLimit = 5
	}
	if cfg.ReviewQueueLimit <= 0 {
		cfg.ReviewQueueLimit = 10
	}
	if cfg.TrainingsLimit <= 0 {
		cfg.TrainingsLimit = 3
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		farms:       params.Farms,
		compliance:  params.Compliance,
		alerts:      params.Alerts,
		actions:     params.Actions,
		assessments: params.Assessments,
		trainings:   params.Trainings,
		cache:       params.Cache,
		logger:      logger,
		now:         time.Now,
		cfg:         cfg,
	}
}

// OverallCompliance is the approved share of all submitted logs as a
// percentage, rounded to the nearest integer. Zero submissions score 0.
func OverallCompliance(counts models.ComplianceStatusCounts) int {
	total := counts.Total()
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(counts.Approved) / float64(total)))
}

func complianceSection(counts models.ComplianceStatusCounts) dto.ComplianceSection {
	return dto.ComplianceSection{
		Pending:           counts.Pending,
		Approved:          counts.Approved,
		Rejected:          counts.Rejected,
		OverallCompliance: OverallCompliance(counts),
	}
}

func riskBreakdown(counts map[models.RiskLevel]int) dto.RiskBreakdown {
	return dto.RiskBreakdown{
		High:   counts[models.RiskHigh],
		Medium: counts[models.RiskMedium],
		Low:    counts[models.RiskLow],
	}
}

func farmSummaries(farms []models.Farm) []dto.FarmSummary {
	out := make([]dto.FarmSummary, 0, len(farms))
	for _, farm := range farms {
		out = append(out, dto.FarmSummary{ID: farm.ID, Name: farm.Name, RiskLevel: farm.RiskLevel})
	}
	return out
}

// Farmer returns the farmer dashboard and indicates cache utilisation.
func (s *DashboardService) Farmer(ctx context.Context, actor *models.JWTClaims) (*dto.FarmerDashboardResponse, bool, error) {
	if actor == nil {
		return nil, false, appErrors.ErrUnauthorized
	}
	cacheKey := fmt.Sprintf("dash:farmer:%s", actor.UserID)
	if cached, ok := tryCache[dto.FarmerDashboardResponse](ctx, s.cache, cacheKey); ok {
		return cached, true, nil
	}

	farms, _, err := s.farms.List(ctx, models.FarmFilter{OwnerID: actor.UserID, PageSize: 100})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load farms")
	}
	counts, err := s.compliance.StatusCounts(ctx, models.ComplianceFilter{FarmerID: actor.UserID})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load compliance counts")
	}
	alertSection, err := s.alertSection(ctx, actor.State, actor.District)
	if err != nil {
		return nil, false, err
	}
	trainings := s.upcomingTrainings(ctx, actor.State, actor.District)

	resp := &dto.FarmerDashboardResponse{
		Farms:      farmSummaries(farms),
		Compliance: complianceSection(counts),
		Alerts:     alertSection,
		Trainings:  trainings,
	}
	s.persistCache(ctx, cacheKey, resp)
	return resp, false, nil
}

// Vet returns the vet dashboard and indicates cache utilisation.
func (s *DashboardService) Vet(ctx context.Context, actor *models.JWTClaims) (*dto.VetDashboardResponse, bool, error) {
	if actor == nil {
		return nil, false, appErrors.ErrUnauthorized
	}
	cacheKey := fmt.Sprintf("dash:vet:%s", actor.UserID)
	if cached, ok := tryCache[dto.VetDashboardResponse](ctx, s.cache, cacheKey); ok {
		return cached, true, nil
	}

	queue, pending, err := s.compliance.List(ctx, models.ComplianceFilter{
		State:    actor.State,
		District: actor.District,
		Status:   []models.ComplianceStatus{models.CompliancePending},
		PageSize: s.cfg.ReviewQueueLimit,
	})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load review queue")
	}

	weekAgo := s.now().UTC().AddDate(0, 0, -7)
	assessments, err := s.assessments.CountSince(ctx, actor.UserID, weekAgo)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count assessments")
	}

	high := models.RiskHigh
	highRisk, _, err := s.farms.List(ctx, models.FarmFilter{
		State:     actor.State,
		District:  actor.District,
		RiskLevel: &high,
		PageSize:  20,
	})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load high risk farms")
	}

	resp := &dto.VetDashboardResponse{
		PendingReviews:      pending,
		ReviewQueue:         queue,
		AssessmentsThisWeek: assessments,
		HighRiskFarms:       farmSummaries(highRisk),
	}
	s.persistCache(ctx, cacheKey, resp)
	return resp, false, nil
}

// Extension returns the extension-worker dashboard and indicates cache utilisation.
func (s *DashboardService) Extension(ctx context.Context, actor *models.JWTClaims) (*dto.ExtensionDashboardResponse, bool, error) {
	if actor == nil {
		return nil, false, appErrors.ErrUnauthorized
	}
	cacheKey := fmt.Sprintf("dash:extension:%s", actor.UserID)
	if cached, ok := tryCache[dto.ExtensionDashboardResponse](ctx, s.cache, cacheKey); ok {
		return cached, true, nil
	}

	risks, err := s.farms.CountByRiskLevel(ctx, actor.State, actor.District)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count farm risk levels")
	}
	pendingActions, err := s.actions.CountPending(ctx, actor.State, actor.District)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending actions")
	}
	alertSection, err := s.alertSection(ctx, actor.State, actor.District)
	if err != nil {
		return nil, false, err
	}
	trainings := s.upcomingTrainings(ctx, actor.State, actor.District)

	resp := &dto.ExtensionDashboardResponse{
		RiskBreakdown:  riskBreakdown(risks),
		PendingActions: pendingActions,
		Alerts:         alertSection,
		Trainings:      trainings,
	}
	s.persistCache(ctx, cacheKey, resp)
	return resp, false, nil
}

// District returns the district admin dashboard and indicates cache utilisation.
func (s *DashboardService) District(ctx context.Context, actor *models.JWTClaims) (*dto.DistrictDashboardResponse, bool, error) {
	if actor == nil {
		return nil, false, appErrors.ErrUnauthorized
	}
	cacheKey := fmt.Sprintf("dash:district:%s:%s", actor.State, actor.District)
	if cached, ok := tryCache[dto.DistrictDashboardResponse](ctx, s.cache, cacheKey); ok {
		return cached, true, nil
	}

	_, farmCount, err := s.farms.List(ctx, models.FarmFilter{State: actor.State, District: actor.District, PageSize: 1})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count farms")
	}
	counts, err := s.compliance.StatusCounts(ctx, models.ComplianceFilter{State: actor.State, District: actor.District})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load compliance counts")
	}
	openAlerts, err := s.alerts.CountUnacknowledged(ctx, actor.State, actor.District)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count open alerts")
	}
	risks, err := s.farms.CountByRiskLevel(ctx, actor.State, actor.District)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count farm risk levels")
	}

	resp := &dto.DistrictDashboardResponse{
		Overview: dto.DistrictOverview{
			Farms:       farmCount,
			PendingLogs: counts.Pending,
			OpenAlerts:  openAlerts,
		},
		Compliance:    complianceSection(counts),
		RiskBreakdown: riskBreakdown(risks),
	}
	s.persistCache(ctx, cacheKey, resp)
	return resp, false, nil
}

// National returns the national admin dashboard and indicates cache utilisation.
func (s *DashboardService) National(ctx context.Context, actor *models.JWTClaims) (*dto.NationalDashboardResponse, bool, error) {
	if actor == nil {
		return nil, false, appErrors.ErrUnauthorized
	}
	const cacheKey = "dash:national"
	if cached, ok := tryCache[dto.NationalDashboardResponse](ctx, s.cache, cacheKey); ok {
		return cached, true, nil
	}

	counts, err := s.compliance.StatusCounts(ctx, models.ComplianceFilter{})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load compliance counts")
	}
	risks, err := s.farms.CountByRiskLevel(ctx, "", "")
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count farm risk levels")
	}
	openAlerts, err := s.alerts.CountUnacknowledged(ctx, "", "")
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count open alerts")
	}
	byState, err := s.farms.CountByState(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count farms per state")
	}

	states := make([]dto.StateRollup, 0, len(byState))
	for state, farms := range byState {
		stateCounts, err := s.compliance.StatusCounts(ctx, models.ComplianceFilter{State: state})
		if err != nil {
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load state compliance counts")
		}
		states = append(states, dto.StateRollup{
			State:             state,
			Farms:             farms,
			OverallCompliance: OverallCompliance(stateCounts),
		})
	}
	sort.Slice(states, func(i, j int) bool { return states[i].State < states[j].State })

	resp := &dto.NationalDashboardResponse{
		Compliance:    complianceSection(counts),
		RiskBreakdown: riskBreakdown(risks),
		OpenAlerts:    openAlerts,
		States:        states,
	}
	s.persistCache(ctx, cacheKey, resp)
	return resp, false, nil
}

func (s *DashboardService) alertSection(ctx context.Context, state, district string) (dto.AlertSection, error) {
	unacked := false
	recent, _, err := s.alerts.List(ctx, models.AlertFilter{
		State:        state,
		District:     district,
		Acknowledged: &unacked,
		PageSize:     s.cfg.RecentAlertsLimit,
	})
	if err != nil {
		return dto.AlertSection{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load alerts")
	}
	count, err := s.alerts.CountUnacknowledged(ctx, state, district)
	if err != nil {
		return dto.AlertSection{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count open alerts")
	}
	return dto.AlertSection{Unacknowledged: count, Recent: recent}, nil
}

func (s *DashboardService) upcomingTrainings(ctx context.Context, state, district string) []models.TrainingSession {
	now := s.now().UTC()
	sessions, _, err := s.trainings.List(ctx, models.TrainingFilter{
		State:    state,
		District: district,
		After:    &now,
		PageSize: s.cfg.TrainingsLimit,
	})
	if err != nil {
		s.logger.Warn("failed to load upcoming trainings", zap.Error(err))
		return nil
	}
	return sessions
}

func tryCache[T any](ctx context.Context, cache *CacheService, key string) (*T, bool) {
	if cache == nil {
		return nil, false
	}
	var cached T
	hit, err := cache.Get(ctx, key, &cached)
	if err != nil || !hit {
		return nil, false
	}
	return &cached, true
}

func (s *DashboardService) persistCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil && s.logger != nil {
		s.logger.Debug("dashboard cache persist failed", zap.String("key", key), zap.Error(err))
	}
}

package dto

import "github.com/agrisentry/biosecure-api/internal/models"

// ComplianceSection summarises a compliance-log population. The overall
// percentage is rounded to the nearest integer and zero when no logs
// have been submitted.
type ComplianceSection struct {
	Pending           int `json:"pending"`
	Approved          int `json:"approved"`
	Rejected          int `json:"rejected"`
	OverallCompliance int `json:"overallCompliance"`
}

// RiskBreakdown counts farms per risk level.
type RiskBreakdown struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// FarmSummary is a trimmed farm row for dashboards.
type FarmSummary struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	RiskLevel models.RiskLevel `json:"riskLevel"`
}

// AlertSection carries open alerts for a dashboard.
type AlertSection struct {
	Unacknowledged int            `json:"unacknowledged"`
	Recent         []models.Alert `json:"recent"`
}

// FarmerDashboardResponse aggregates a farmer's home view.
type FarmerDashboardResponse struct {
	Farms      []FarmSummary            `json:"farms"`
	Compliance ComplianceSection        `json:"compliance"`
	Alerts     AlertSection             `json:"alerts"`
	Trainings  []models.TrainingSession `json:"upcomingTrainings"`
}

// VetDashboardResponse aggregates a vet's review workload.
type VetDashboardResponse struct {
	PendingReviews      int                    `json:"pendingReviews"`
	ReviewQueue         []models.ComplianceLog `json:"reviewQueue"`
	AssessmentsThisWeek int                    `json:"assessmentsThisWeek"`
	HighRiskFarms       []FarmSummary          `json:"highRiskFarms"`
}

// ExtensionDashboardResponse aggregates an extension worker's district view.
type ExtensionDashboardResponse struct {
	RiskBreakdown  RiskBreakdown            `json:"riskBreakdown"`
	PendingActions int                      `json:"pendingActions"`
	Alerts         AlertSection             `json:"alerts"`
	Trainings      []models.TrainingSession `json:"upcomingTrainings"`
}

// DistrictOverview counts headline district figures.
type DistrictOverview struct {
	Farms       int `json:"farms"`
	PendingLogs int `json:"pendingLogs"`
	OpenAlerts  int `json:"openAlerts"`
}

// DistrictDashboardResponse aggregates a district admin's home view.
type DistrictDashboardResponse struct {
	Overview      DistrictOverview  `json:"overview"`
	Compliance    ComplianceSection `json:"compliance"`
	RiskBreakdown RiskBreakdown     `json:"riskBreakdown"`
}

// StateRollup is a per-state row on the national dashboard.
type StateRollup struct {
	State             string `json:"state"`
	Farms             int    `json:"farms"`
	OverallCompliance int    `json:"overallCompliance"`
}

// NationalDashboardResponse aggregates the national admin's home view.
type NationalDashboardResponse struct {
	Compliance    ComplianceSection `json:"compliance"`
	RiskBreakdown RiskBreakdown     `json:"riskBreakdown"`
	OpenAlerts    int               `json:"openAlerts"`
	States        []StateRollup     `json:"states"`
}

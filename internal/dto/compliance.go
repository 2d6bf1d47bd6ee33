package dto

import "github.com/agrisentry/biosecure-api/internal/models"

// SubmitLogRequest payload for submitting a compliance log.
type SubmitLogRequest struct {
	FarmID string `json:"farm_id" validate:"required"`
	Type   string `json:"type" validate:"required"`
}

// ReviewLogRequest captures reviewer decision and optional note.
type ReviewLogRequest struct {
	Status models.ComplianceStatus `json:"status"`
	Note   string                  `json:"note"`
}

// ComplianceQuery mirrors supported listing filters.
type ComplianceQuery struct {
	FarmID   string
	Status   []models.ComplianceStatus
	Page     int
	PageSize int
}

// CreateAssessmentRequest payload for recording a risk assessment.
type CreateAssessmentRequest struct {
	FarmID    string           `json:"farm_id" validate:"required"`
	RiskLevel models.RiskLevel `json:"risk_level" validate:"required"`
	Findings  []string         `json:"findings"`
}

package models

import (
	"time"

	"github.com/lib/pq"
)

// RiskAssessment records a vet or extension worker's on-site risk
// evaluation of a farm. Findings spawn corrective actions.
type RiskAssessment struct {
	ID           string         `db:"id" json:"id"`
	FarmID       string         `db:"farm_id" json:"farm_id"`
	AssessorID   string         `db:"assessor_id" json:"assessor_id"`
	AssessorName string         `db:"assessor_name" json:"assessor_name"`
	RiskLevel    RiskLevel      `db:"risk_level" json:"risk_level"`
	Findings     pq.StringArray `db:"findings" json:"findings"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

// AssessmentFilter constrains assessment listing queries.
type AssessmentFilter struct {
	FarmID     string
	AssessorID string
	Page       int
	PageSize   int
}

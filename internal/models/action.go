package models

import "time"

// ActionStatus captures the corrective-action lifecycle.
type ActionStatus string

const (
	ActionPending   ActionStatus = "PENDING"
	ActionCompleted ActionStatus = "COMPLETED"
)

// CorrectiveAction is a remediation task raised against a farm's risk
// finding, completed by a vet or extension worker.
type CorrectiveAction struct {
	ID           string       `db:"id" json:"id"`
	FarmID       string       `db:"farm_id" json:"farm_id"`
	AssessmentID *string      `db:"assessment_id" json:"assessment_id,omitempty"`
	Description  string       `db:"description" json:"description"`
	Status       ActionStatus `db:"status" json:"status"`
	CompletedBy  *string      `db:"completed_by" json:"completed_by,omitempty"`
	CompletedAt  *time.Time   `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
}

// ActionFilter constrains corrective-action listing queries.
type ActionFilter struct {
	FarmID   string
	State    string
	District string
	Status   *ActionStatus
	Page     int
	PageSize int
}

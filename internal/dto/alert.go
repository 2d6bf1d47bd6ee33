package dto

import "github.com/agrisentry/biosecure-api/internal/models"

// BroadcastAlertRequest payload for admin-raised alerts. Empty region
// fields broadcast nationally.
type BroadcastAlertRequest struct {
	Message  string               `json:"message" validate:"required"`
	Severity models.AlertSeverity `json:"severity" validate:"required"`
	State    string               `json:"state"`
	District string               `json:"district"`
}

// AlertQuery mirrors supported listing filters.
type AlertQuery struct {
	FarmID       string
	Severity     string
	Acknowledged *bool
	Page         int
	PageSize     int
}

package dto

import "github.com/agrisentry/biosecure-api/internal/models"

// CreateFarmRequest payload for registering a farm.
type CreateFarmRequest struct {
	Name     string `json:"name" validate:"required"`
	Type     string `json:"type" validate:"required"`
	Address  string `json:"address"`
	State    string `json:"state" validate:"required"`
	District string `json:"district" validate:"required"`
	Count    int    `json:"count" validate:"gte=0"`
}

// UpdateFarmRequest payload for editing farm details.
type UpdateFarmRequest struct {
	Name     string `json:"name" validate:"required"`
	Type     string `json:"type" validate:"required"`
	Address  string `json:"address"`
	State    string `json:"state" validate:"required"`
	District string `json:"district" validate:"required"`
	Count    int    `json:"count" validate:"gte=0"`
}

// UpdateRiskRequest payload for reclassifying a farm.
type UpdateRiskRequest struct {
	RiskLevel models.RiskLevel `json:"risk_level" validate:"required"`
}

// FarmQuery mirrors supported listing filters.
type FarmQuery struct {
	State     string
	District  string
	RiskLevel string
	Search    string
	Page      int
	PageSize  int
}

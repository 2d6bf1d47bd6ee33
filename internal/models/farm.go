package models

import "time"

// RiskLevel is the coarse biosecurity classification of a farm.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "HIGH"
	RiskMedium RiskLevel = "MEDIUM"
	RiskLow    RiskLevel = "LOW"
)

// ValidRiskLevel reports whether the value is a recognised classification.
func ValidRiskLevel(level RiskLevel) bool {
	switch level {
	case RiskHigh, RiskMedium, RiskLow:
		return true
	}
	return false
}

// FarmLocation is the nested location block of a farm record.
type FarmLocation struct {
	Address  string `db:"address" json:"address"`
	State    string `db:"state" json:"state"`
	District string `db:"district" json:"district"`
}

// FarmSize carries the herd/flock head count.
type FarmSize struct {
	Count int `db:"count" json:"count"`
}

// Farm represents a registered farm. Location and size map to flat
// columns via sqlx dot-notation aliases in the repository queries.
type Farm struct {
	ID        string       `db:"id" json:"id"`
	Name      string       `db:"name" json:"name"`
	Type      string       `db:"type" json:"type"`
	Location  FarmLocation `json:"location"`
	Size      FarmSize     `json:"size"`
	OwnerID   string       `db:"owner_id" json:"owner_id"`
	RiskLevel RiskLevel    `db:"risk_level" json:"risk_level"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

// FarmFilter constrains farm listing queries.
type FarmFilter struct {
	OwnerID   string
	State     string
	District  string
	RiskLevel *RiskLevel
	Search    string
	Page      int
	PageSize  int
}

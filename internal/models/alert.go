package models

import "time"

// AlertSeverity grades an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "HIGH"
	SeverityMedium AlertSeverity = "MEDIUM"
	SeverityLow    AlertSeverity = "LOW"
)

// ValidSeverity reports whether the value is a recognised severity.
func ValidSeverity(s AlertSeverity) bool {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Alert is a region-scoped notification raised by assessment escalation
// or an admin broadcast. Acknowledgement is a one-way transition.
type Alert struct {
	ID             string        `db:"id" json:"id"`
	Message        string        `db:"message" json:"message"`
	Severity       AlertSeverity `db:"severity" json:"severity"`
	State          string        `db:"state" json:"state,omitempty"`
	District       string        `db:"district" json:"district,omitempty"`
	FarmID         *string       `db:"farm_id" json:"farm_id,omitempty"`
	Acknowledged   bool          `db:"acknowledged" json:"acknowledged"`
	AcknowledgedBy *string       `db:"acknowledged_by" json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time    `db:"acknowledged_at" json:"acknowledged_at,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
}

// AlertFilter constrains alert listing queries.
type AlertFilter struct {
	State        string
	District     string
	FarmID       string
	Severity     *AlertSeverity
	Acknowledged *bool
	Page         int
	PageSize     int
}

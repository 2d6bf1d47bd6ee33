package models

import "time"

// ComplianceStatus captures the review workflow states of a compliance log.
type ComplianceStatus string

const (
	CompliancePending  ComplianceStatus = "PENDING"
	ComplianceApproved ComplianceStatus = "APPROVED"
	ComplianceRejected ComplianceStatus = "REJECTED"
)

// Terminal reports whether the status has no outgoing transition.
func (s ComplianceStatus) Terminal() bool {
	return s == ComplianceApproved || s == ComplianceRejected
}

// ComplianceLog is a farmer-submitted record reviewed by a vet or
// district admin. Farmer name and region are denormalised so review
// queues and dashboards render without joins.
type ComplianceLog struct {
	ID          string           `db:"id" json:"id"`
	FarmID      string           `db:"farm_id" json:"farm_id"`
	FarmName    string           `db:"farm_name" json:"farm_name"`
	FarmerID    string           `db:"farmer_id" json:"farmer_id"`
	FarmerName  string           `db:"farmer_name" json:"farmer_name"`
	Type        string           `db:"type" json:"type"`
	State       string           `db:"state" json:"state"`
	District    string           `db:"district" json:"district"`
	Status      ComplianceStatus `db:"status" json:"status"`
	SubmittedAt time.Time        `db:"submitted_at" json:"submitted_at"`
	ReviewedBy  *string          `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time       `db:"reviewed_at" json:"reviewed_at,omitempty"`
	Note        *string          `db:"note" json:"note,omitempty"`
}

// ComplianceFilter constrains compliance-log listing queries.
type ComplianceFilter struct {
	FarmID   string
	FarmerID string
	State    string
	District string
	Status   []ComplianceStatus
	Page     int
	PageSize int
}

// ComplianceStatusCounts aggregates logs by review status.
type ComplianceStatusCounts struct {
	Pending  int `db:"pending" json:"pending"`
	Approved int `db:"approved" json:"approved"`
	Rejected int `db:"rejected" json:"rejected"`
}

// Total returns the number of submitted logs in the snapshot.
func (c ComplianceStatusCounts) Total() int {
	return c.Pending + c.Approved + c.Rejected
}

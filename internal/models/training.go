package models

import "time"

// TrainingSession is an extension-worker scheduled farmer training.
type TrainingSession struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description,omitempty"`
	State       string    `db:"state" json:"state"`
	District    string    `db:"district" json:"district"`
	ScheduledAt time.Time `db:"scheduled_at" json:"scheduled_at"`
	CreatedBy   string    `db:"created_by" json:"created_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// TrainingFilter constrains training-session listing queries.
type TrainingFilter struct {
	State    string
	District string
	After    *time.Time
	Page     int
	PageSize int
}

package models

import "time"

// DiscussionPost is an immutable forum post; there is no edit or delete.
// ImageURL is a signed, expiring link derived from ImagePath at read time.
type DiscussionPost struct {
	ID         string    `db:"id" json:"id"`
	AuthorID   string    `db:"author_id" json:"author_id"`
	AuthorName string    `db:"author_name" json:"author_name"`
	Text       string    `db:"text" json:"text"`
	ImagePath  *string   `db:"image_path" json:"-"`
	ImageURL   *string   `db:"-" json:"image_url,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// DiscussionFilter constrains post listing queries.
type DiscussionFilter struct {
	AuthorID string
	Page     int
	PageSize int
}

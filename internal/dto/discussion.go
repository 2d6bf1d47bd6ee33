package dto

import "io"

// CreatePostRequest payload for a forum post. The image arrives as a
// multipart part and is optional.
type CreatePostRequest struct {
	Text      string
	ImageName string
	ImageSize int64
	ImageMIME string
	Image     io.Reader
}

// CreateTrainingRequest payload for scheduling a training session.
type CreateTrainingRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	State       string `json:"state" validate:"required"`
	District    string `json:"district" validate:"required"`
	ScheduledAt string `json:"scheduled_at" validate:"required"`
}

// UpdateSettingRequest payload for a system setting change.
type UpdateSettingRequest struct {
	Value string `json:"value" validate:"required"`
}

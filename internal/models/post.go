package models

import "time"

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 1000
)

type Post struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImagePath   string    `json:"imagePath"`
	Author      Principal `json:"author"`
	// Timestamp is nanoseconds since the Unix epoch, as assigned by the backend.
	Timestamp int64 `json:"timestamp"`
}

func (p Post) CreatedAt() time.Time {
	return time.Unix(0, p.Timestamp).UTC()
}

func (p Post) HasImage() bool {
	return p.ImagePath != ""
}

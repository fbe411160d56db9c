package models

import "time"

// University owns the courses scraped for it. Name is unique case-insensitively,
// the stored value keeps the casing it was first registered with.
type University struct {
	ID        int64             `json:"id" db:"id"`
	Name      string            `json:"name" db:"name" binding:"required" validate:"required,max=255"`
	Metadata  map[string]string `json:"metadata,omitempty" db:"metadata"`
	CreatedAt time.Time         `json:"createdAt" db:"created_at"`
}

package models

import "time"

// Status is an ephemeral post that expires 24 hours after creation.
type Status struct {
	ID          int       `db:"id" json:"id"`
	UserID      int       `db:"user_id" json:"user_id"`
	Content     string    `db:"content" json:"content"`
	ContentType string    `db:"content_type" json:"content_type"`
	Viewers     []int     `db:"-" json:"viewers,omitempty"`
	ExpiresAt   time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// StatusTTL is how long a status stays visible.
const StatusTTL = 24 * time.Hour

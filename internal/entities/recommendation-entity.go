package entities

import "time"

type Recommendation struct {
	ID          uint64    `json:"id" db:"id"`
	RoundID     uint64    `json:"round_id" db:"round_id"`
	UserID      uint64    `json:"user_id" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description,omitempty" db:"description"`
	URL         *string   `json:"url,omitempty" db:"url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

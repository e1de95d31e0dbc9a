package entities

import (
	"time"

	"club-system/pkg/types"
)

// Vote — голос участника в раунде. Один голос на пользователя в раунде;
// повторное голосование меняет выбор, а не добавляет новый.
type Vote struct {
	ID               uint64 `json:"id" db:"id"`
	RoundID          uint64 `json:"round_id" db:"round_id"`
	RecommendationID uint64 `json:"recommendation_id" db:"recommendation_id"`
	UserID           uint64 `json:"user_id" db:"user_id"`
	Value            int    `json:"value" db:"value"`

	types.BaseEntity
}

type Completion struct {
	ID          uint64    `json:"id" db:"id"`
	RoundID     uint64    `json:"round_id" db:"round_id"`
	UserID      uint64    `json:"user_id" db:"user_id"`
	Rating      *int      `json:"rating,omitempty" db:"rating"`
	CompletedAt time.Time `json:"completed_at" db:"completed_at"`
}

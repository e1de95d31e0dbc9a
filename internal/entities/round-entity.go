package entities

import (
	"time"

	"club-system/pkg/types"
)

// Статусы раунда. Жизненный цикл: recommending → voting → completed.
const (
	RoundStatusRecommending = "recommending"
	RoundStatusVoting       = "voting"
	RoundStatusCompleted    = "completed"
)

type Round struct {
	ID                uint64     `json:"id" db:"id"`
	ClubID            uint64     `json:"club_id" db:"club_id"`
	Status            string     `json:"status" db:"status"`
	CurrentTurnUserID *uint64    `json:"current_turn_user_id,omitempty" db:"current_turn_user_id"`
	WinnerID          *uint64    `json:"winner_id,omitempty" db:"winner_id"`
	StartedAt         time.Time  `json:"started_at" db:"started_at"`
	FinishedAt        *time.Time `json:"finished_at,omitempty" db:"finished_at"`

	types.BaseEntity
}

func (r Round) IsClosed() bool {
	return r.Status == RoundStatusCompleted
}

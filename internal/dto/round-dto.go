package dto

type RoundDTO struct {
	ID                uint64  `json:"id"`
	ClubID            uint64  `json:"club_id"`
	Status            string  `json:"status"`
	CurrentTurnUserID *uint64 `json:"current_turn_user_id,omitempty"`
	WinnerID          *uint64 `json:"winner_id,omitempty"`
	StartedAt         string  `json:"started_at"`
	FinishedAt        *string `json:"finished_at,omitempty"`
}

type ChangeRoundStatusDTO struct {
	Status string `json:"status" validate:"required,oneof=recommending voting completed"`
}

type RecommendationDTO struct {
	ID          uint64  `json:"id"`
	RoundID     uint64  `json:"round_id"`
	UserID      uint64  `json:"user_id"`
	UserName    string  `json:"user_name"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	URL         *string `json:"url,omitempty"`
	VoteCount   uint64  `json:"vote_count"`
	CreatedAt   string  `json:"created_at"`
}

type CreateRecommendationDTO struct {
	Title       string  `json:"title" validate:"required,min=1,max=300"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	URL         *string `json:"url,omitempty" validate:"omitempty,url"`
}

type VoteDTO struct {
	ID               uint64 `json:"id"`
	RoundID          uint64 `json:"round_id"`
	RecommendationID uint64 `json:"recommendation_id"`
	UserID           uint64 `json:"user_id"`
	Value            int    `json:"value"`
	CreatedAt        string `json:"created_at"`
}

type CastVoteDTO struct {
	RecommendationID uint64 `json:"recommendation_id" validate:"required"`
	Value            int    `json:"value" validate:"omitempty,min=1,max=5"`
}

type CompletionDTO struct {
	ID          uint64 `json:"id"`
	RoundID     uint64 `json:"round_id"`
	UserID      uint64 `json:"user_id"`
	UserName    string `json:"user_name"`
	Rating      *int   `json:"rating,omitempty"`
	CompletedAt string `json:"completed_at"`
}

type UpsertCompletionDTO struct {
	Rating *int `json:"rating,omitempty" validate:"omitempty,min=1,max=10"`
}

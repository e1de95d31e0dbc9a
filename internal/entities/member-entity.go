package entities

import "time"

// Роли участника внутри клуба.
const (
	RoleOwner     = "owner"
	RoleModerator = "moderator"
	RoleMember    = "member"
)

type ClubMember struct {
	ID       uint64    `json:"id" db:"id"`
	ClubID   uint64    `json:"club_id" db:"club_id"`
	UserID   uint64    `json:"user_id" db:"user_id"`
	Role     string    `json:"role" db:"role"`
	JoinedAt time.Time `json:"joined_at" db:"joined_at"`
}

// CanModerate — владелец и модератор управляют составом и раундами.
func (m ClubMember) CanModerate() bool {
	return m.Role == RoleOwner || m.Role == RoleModerator
}

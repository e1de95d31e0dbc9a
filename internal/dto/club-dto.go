package dto

type ClubDTO struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ClubType    string  `json:"club_type"`
	OwnerID     uint64  `json:"owner_id"`
	MemberCount uint64  `json:"member_count"`
	MyRole      *string `json:"my_role,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

type CreateClubDTO struct {
	Name        string  `json:"name" validate:"required,min=2,max=150"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	ClubType    string  `json:"club_type" validate:"required,oneof=book movie game"`
}

type UpdateClubDTO struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=2,max=150"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	ClubType    *string `json:"club_type,omitempty" validate:"omitempty,oneof=book movie game"`
}

type ClubMemberDTO struct {
	ID       uint64  `json:"id"`
	ClubID   uint64  `json:"club_id"`
	UserID   uint64  `json:"user_id"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Role     string  `json:"role"`
	JoinedAt string  `json:"joined_at"`
}

type AddMemberDTO struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,club_role"`
}

type ChangeMemberRoleDTO struct {
	Role string `json:"role" validate:"required,club_role"`
}

// OnlineUsersDTO — ответ GET /clubs/:id/online-users.
type OnlineUsersDTO struct {
	ClubID      uint64   `json:"clubId"`
	OnlineUsers []uint64 `json:"onlineUsers"`
	Count       int      `json:"count"`
}

package events

// Закрытый каталог типов доменных событий. Контроллеры, шина, websocket-слой
// и клиент используют одни и те же константы — неизвестный тип события не
// может появиться из строкового литерала где-то в углу кодовой базы.
type Type string

const (
	TypeVoteCast              Type = "vote_cast"
	TypeCompletionUpdated     Type = "completion_updated"
	TypeRoundStatusChanged    Type = "round_status_changed"
	TypeTurnChanged           Type = "turn_changed"
	TypeMemberAdded           Type = "member_added"
	TypeMemberRemoved         Type = "member_removed"
	TypeMemberRoleChanged     Type = "member_role_changed"
	TypeClubUpdated           Type = "club_updated"
	TypeRecommendationAdded   Type = "recommendation_added"
	TypeRecommendationRemoved Type = "recommendation_removed"
	TypeNotification          Type = "notification"
	TypeNotificationCreated   Type = "notification_created"
	TypeUserOnline            Type = "user_online"
	TypeUserOffline           Type = "user_offline"
)

// All перечисляет весь каталог (нужен клиентскому слою для подписок).
func All() []Type {
	return []Type{
		TypeVoteCast, TypeCompletionUpdated, TypeRoundStatusChanged,
		TypeTurnChanged, TypeMemberAdded, TypeMemberRemoved,
		TypeMemberRoleChanged, TypeClubUpdated, TypeRecommendationAdded,
		TypeRecommendationRemoved, TypeNotification, TypeNotificationCreated,
		TypeUserOnline, TypeUserOffline,
	}
}

// DomainEvent — событие клубного домена, проходящее через шину.
// Club и Actor нужны слушателю уведомлений для адресации.
type DomainEvent interface {
	Name() string
	Club() uint64
	Actor() uint64
}

type VoteCast struct {
	ClubID           uint64 `json:"clubId"`
	RoundID          uint64 `json:"roundId"`
	RecommendationID uint64 `json:"recommendationId"`
	VoterID          uint64 `json:"voterId"`
	VoterName        string `json:"voterName"`
}

func (e VoteCast) Name() string  { return string(TypeVoteCast) }
func (e VoteCast) Club() uint64  { return e.ClubID }
func (e VoteCast) Actor() uint64 { return e.VoterID }

type CompletionUpdated struct {
	ClubID   uint64 `json:"clubId"`
	RoundID  uint64 `json:"roundId"`
	UserID   uint64 `json:"userId"`
	UserName string `json:"userName"`
	Rating   *int   `json:"rating,omitempty"`
}

func (e CompletionUpdated) Name() string  { return string(TypeCompletionUpdated) }
func (e CompletionUpdated) Club() uint64  { return e.ClubID }
func (e CompletionUpdated) Actor() uint64 { return e.UserID }

type RoundStatusChanged struct {
	ClubID    uint64 `json:"clubId"`
	RoundID   uint64 `json:"roundId"`
	OldStatus string `json:"oldStatus"`
	NewStatus string `json:"newStatus"`
	ActorID   uint64 `json:"actorId"`
	ActorName string `json:"actorName"`
}

func (e RoundStatusChanged) Name() string  { return string(TypeRoundStatusChanged) }
func (e RoundStatusChanged) Club() uint64  { return e.ClubID }
func (e RoundStatusChanged) Actor() uint64 { return e.ActorID }

type TurnChanged struct {
	ClubID       uint64 `json:"clubId"`
	RoundID      uint64 `json:"roundId"`
	TurnUserID   uint64 `json:"turnUserId"`
	TurnUserName string `json:"turnUserName"`
	ActorID      uint64 `json:"actorId"`
}

func (e TurnChanged) Name() string  { return string(TypeTurnChanged) }
func (e TurnChanged) Club() uint64  { return e.ClubID }
func (e TurnChanged) Actor() uint64 { return e.ActorID }

type MemberAdded struct {
	ClubID    uint64 `json:"clubId"`
	ClubName  string `json:"clubName"`
	UserID    uint64 `json:"userId"`
	UserName  string `json:"userName"`
	Role      string `json:"role"`
	ActorID   uint64 `json:"actorId"`
	ActorName string `json:"actorName"`
}

func (e MemberAdded) Name() string  { return string(TypeMemberAdded) }
func (e MemberAdded) Club() uint64  { return e.ClubID }
func (e MemberAdded) Actor() uint64 { return e.ActorID }

type MemberRemoved struct {
	ClubID    uint64 `json:"clubId"`
	ClubName  string `json:"clubName"`
	UserID    uint64 `json:"userId"`
	UserName  string `json:"userName"`
	ActorID   uint64 `json:"actorId"`
	ActorName string `json:"actorName"`
}

func (e MemberRemoved) Name() string  { return string(TypeMemberRemoved) }
func (e MemberRemoved) Club() uint64  { return e.ClubID }
func (e MemberRemoved) Actor() uint64 { return e.ActorID }

type MemberRoleChanged struct {
	ClubID    uint64 `json:"clubId"`
	UserID    uint64 `json:"userId"`
	UserName  string `json:"userName"`
	OldRole   string `json:"oldRole"`
	NewRole   string `json:"newRole"`
	ActorID   uint64 `json:"actorId"`
	ActorName string `json:"actorName"`
}

func (e MemberRoleChanged) Name() string  { return string(TypeMemberRoleChanged) }
func (e MemberRoleChanged) Club() uint64  { return e.ClubID }
func (e MemberRoleChanged) Actor() uint64 { return e.ActorID }

type ClubUpdated struct {
	ClubID    uint64 `json:"clubId"`
	ClubName  string `json:"clubName"`
	ActorID   uint64 `json:"actorId"`
	ActorName string `json:"actorName"`
}

func (e ClubUpdated) Name() string  { return string(TypeClubUpdated) }
func (e ClubUpdated) Club() uint64  { return e.ClubID }
func (e ClubUpdated) Actor() uint64 { return e.ActorID }

type RecommendationAdded struct {
	ClubID           uint64 `json:"clubId"`
	RoundID          uint64 `json:"roundId"`
	RecommendationID uint64 `json:"recommendationId"`
	Title            string `json:"title"`
	ActorID          uint64 `json:"actorId"`
	ActorName        string `json:"actorName"`
}

func (e RecommendationAdded) Name() string  { return string(TypeRecommendationAdded) }
func (e RecommendationAdded) Club() uint64  { return e.ClubID }
func (e RecommendationAdded) Actor() uint64 { return e.ActorID }

type RecommendationRemoved struct {
	ClubID           uint64 `json:"clubId"`
	RoundID          uint64 `json:"roundId"`
	RecommendationID uint64 `json:"recommendationId"`
	Title            string `json:"title"`
	ActorID          uint64 `json:"actorId"`
	ActorName        string `json:"actorName"`
}

func (e RecommendationRemoved) Name() string  { return string(TypeRecommendationRemoved) }
func (e RecommendationRemoved) Club() uint64  { return e.ClubID }
func (e RecommendationRemoved) Actor() uint64 { return e.ActorID }

// NotificationCreated публикуется слушателем уведомлений после записи в БД.
// Payload намеренно минимальный: клиент по нему делает refetch, а не вставку.
type NotificationCreated struct {
	UserID         uint64 `json:"userId"`
	NotificationID string `json:"notificationId"`
	ClubID         uint64 `json:"clubId"`
}

func (e NotificationCreated) Name() string  { return string(TypeNotificationCreated) }
func (e NotificationCreated) Club() uint64  { return e.ClubID }
func (e NotificationCreated) Actor() uint64 { return 0 }

type UserOnline struct {
	UserID   uint64 `json:"userId"`
	UserName string `json:"userName"`
	ClubIDs  []uint64
}

func (e UserOnline) Name() string  { return string(TypeUserOnline) }
func (e UserOnline) Club() uint64  { return 0 }
func (e UserOnline) Actor() uint64 { return e.UserID }

type UserOffline struct {
	UserID   uint64 `json:"userId"`
	UserName string `json:"userName"`
	ClubIDs  []uint64
}

func (e UserOffline) Name() string  { return string(TypeUserOffline) }
func (e UserOffline) Club() uint64  { return 0 }
func (e UserOffline) Actor() uint64 { return e.UserID }

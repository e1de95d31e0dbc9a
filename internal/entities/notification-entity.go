package entities

import (
	"encoding/json"
	"time"

	"github.com/aarondl/null/v8"
)

const (
	NotificationStatusUnread = "unread"
	NotificationStatusRead   = "read"
)

// Notification — авторитетная запись уведомления. Живое событие
// notification_created несёт только id: клиент всегда дотягивает запись
// отсюда, чтобы не разъезжаться с сервером.
type Notification struct {
	ID        string          `json:"id" db:"id"`
	UserID    uint64          `json:"user_id" db:"user_id"`
	Type      string          `json:"type" db:"type"`
	Status    string          `json:"status" db:"status"`
	Title     string          `json:"title" db:"title"`
	Message   string          `json:"message" db:"message"`
	Data      json.RawMessage `json:"data,omitempty" db:"data"`
	ClubID    null.Uint64     `json:"club_id,omitempty" db:"club_id"`
	RoundID   null.Uint64     `json:"round_id,omitempty" db:"round_id"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

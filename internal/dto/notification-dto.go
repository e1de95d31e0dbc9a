package dto

import (
	"encoding/json"
)

// NotificationDTO — форма уведомления, которую видит клиент. Поля и форма
// ответов согласованы с realtime-клиентом (pkg/rtclient).
type NotificationDTO struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Status    string          `json:"status"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
	ClubID    *uint64         `json:"clubId,omitempty"`
	RoundID   *uint64         `json:"roundId,omitempty"`
	CreatedAt string          `json:"createdAt"`
}

// NotificationListData — data для GET /notifications.
type NotificationListData struct {
	Notifications []NotificationDTO `json:"notifications"`
	Total         uint64            `json:"total"`
	HasMore       bool              `json:"hasMore"`
}

// UnreadCombinedData — data для GET /notifications/unread/combined.
type UnreadCombinedData struct {
	Notifications []NotificationDTO `json:"notifications"`
	Count         uint64            `json:"count"`
}

type UnreadCountData struct {
	Count uint64 `json:"count"`
}

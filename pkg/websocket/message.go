package websocket

import (
	"fmt"
	"time"
)

// Envelope — "конверт", в котором уходят все сообщения. Тип сообщения
// совпадает с типом доменного события, чтобы клиент знал, что делать.
type Envelope struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// Управляющие кадры от клиента: подписка на комнаты.
const (
	ControlJoinRooms  = "join_rooms"
	ControlLeaveRooms = "leave_rooms"
)

type ControlFrame struct {
	Type  string   `json:"type"`
	Rooms []string `json:"rooms,omitempty"`
}

// ClubRoom — имя комнаты клуба; в неё попадают все события этого клуба.
func ClubRoom(clubID uint64) string {
	return fmt.Sprintf("club:%d", clubID)
}

// UserRoom — персональная комната пользователя (уведомления).
func UserRoom(userID uint64) string {
	return fmt.Sprintf("user:%d", userID)
}

package entities

import "time"

// UserSettings — серверная копия пользовательских настроек. Значение с
// сервера выигрывает у локального после загрузки.
type UserSettings struct {
	UserID                   uint64     `json:"user_id" db:"user_id"`
	NotificationSoundEnabled bool       `json:"notification_sound_enabled" db:"notification_sound_enabled"`
	EmailDigestEnabled       bool       `json:"email_digest_enabled" db:"email_digest_enabled"`
	UpdatedAt                *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

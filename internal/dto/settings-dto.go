package dto

import "github.com/aarondl/null/v8"

type UserSettingsDTO struct {
	NotificationSoundEnabled bool    `json:"notification_sound_enabled"`
	EmailDigestEnabled       bool    `json:"email_digest_enabled"`
	UpdatedAt                *string `json:"updated_at,omitempty"`
}

// UpdateUserSettingsDTO — частичное обновление: null-поля не трогаем.
type UpdateUserSettingsDTO struct {
	NotificationSoundEnabled null.Bool `json:"notification_sound_enabled"`
	EmailDigestEnabled       null.Bool `json:"email_digest_enabled"`
}

package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"club-system/internal/dto"
	"club-system/internal/repositories"
)

type SettingsServiceInterface interface {
	GetSettings(ctx context.Context, userID uint64) (*dto.UserSettingsDTO, error)
	UpdateSettings(ctx context.Context, userID uint64, payload dto.UpdateUserSettingsDTO) (*dto.UserSettingsDTO, error)
}

type SettingsService struct {
	settingsRepo repositories.UserSettingsRepositoryInterface
	logger       *zap.Logger
}

func NewSettingsService(settingsRepo repositories.UserSettingsRepositoryInterface, logger *zap.Logger) SettingsServiceInterface {
	return &SettingsService{settingsRepo: settingsRepo, logger: logger}
}

func (s *SettingsService) GetSettings(ctx context.Context, userID uint64) (*dto.UserSettingsDTO, error) {
	settings, err := s.settingsRepo.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toSettingsDTO(settings.NotificationSoundEnabled, settings.EmailDigestEnabled, settings.UpdatedAt), nil
}

// UpdateSettings применяет только присланные поля: отсутствующее поле
// не сбрасывает сохранённое значение.
func (s *SettingsService) UpdateSettings(ctx context.Context, userID uint64, payload dto.UpdateUserSettingsDTO) (*dto.UserSettingsDTO, error) {
	current, err := s.settingsRepo.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	if payload.NotificationSoundEnabled.Valid {
		current.NotificationSoundEnabled = payload.NotificationSoundEnabled.Bool
	}
	if payload.EmailDigestEnabled.Valid {
		current.EmailDigestEnabled = payload.EmailDigestEnabled.Bool
	}
	current.UserID = userID

	updated, err := s.settingsRepo.UpsertSettings(ctx, current)
	if err != nil {
		return nil, err
	}
	return toSettingsDTO(updated.NotificationSoundEnabled, updated.EmailDigestEnabled, updated.UpdatedAt), nil
}

func toSettingsDTO(sound, digest bool, updatedAt *time.Time) *dto.UserSettingsDTO {
	d := &dto.UserSettingsDTO{
		NotificationSoundEnabled: sound,
		EmailDigestEnabled:       digest,
	}
	if updatedAt != nil {
		formatted := updatedAt.Format(time.RFC3339)
		d.UpdatedAt = &formatted
	}
	return d
}

package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"club-system/internal/entities"
)

type UserSettingsRepositoryInterface interface {
	GetSettings(ctx context.Context, userID uint64) (*entities.UserSettings, error)
	UpsertSettings(ctx context.Context, settings *entities.UserSettings) (*entities.UserSettings, error)
}

type UserSettingsRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewUserSettingsRepository(storage *pgxpool.Pool, logger *zap.Logger) UserSettingsRepositoryInterface {
	return &UserSettingsRepository{storage: storage, logger: logger}
}

// GetSettings: пока пользователь ничего не менял, строки в БД нет и
// возвращаются значения по умолчанию.
func (r *UserSettingsRepository) GetSettings(ctx context.Context, userID uint64) (*entities.UserSettings, error) {
	var s entities.UserSettings
	err := r.storage.QueryRow(ctx,
		`SELECT user_id, notification_sound_enabled, email_digest_enabled, updated_at FROM user_settings WHERE user_id = $1`,
		userID,
	).Scan(&s.UserID, &s.NotificationSoundEnabled, &s.EmailDigestEnabled, &s.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return &entities.UserSettings{
			UserID:                   userID,
			NotificationSoundEnabled: true,
			EmailDigestEnabled:       false,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *UserSettingsRepository) UpsertSettings(ctx context.Context, settings *entities.UserSettings) (*entities.UserSettings, error) {
	var s entities.UserSettings
	err := r.storage.QueryRow(ctx, `
        INSERT INTO user_settings (user_id, notification_sound_enabled, email_digest_enabled, updated_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (user_id)
        DO UPDATE SET notification_sound_enabled = EXCLUDED.notification_sound_enabled,
                      email_digest_enabled = EXCLUDED.email_digest_enabled,
                      updated_at = NOW()
        RETURNING user_id, notification_sound_enabled, email_digest_enabled, updated_at
    `, settings.UserID, settings.NotificationSoundEnabled, settings.EmailDigestEnabled,
	).Scan(&s.UserID, &s.NotificationSoundEnabled, &s.EmailDigestEnabled, &s.UpdatedAt)

	if err != nil {
		return nil, err
	}
	return &s, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"club-system/internal/dto"
	"club-system/internal/entities"
	"club-system/internal/repositories"
	"club-system/pkg/config"
	apperrors "club-system/pkg/errors"
	"club-system/pkg/service"
	"club-system/pkg/utils"
)

type AuthServiceInterface interface {
	Register(ctx context.Context, payload dto.RegisterDTO) (*dto.TokenPairDTO, error)
	Login(ctx context.Context, payload dto.LoginDTO) (*dto.TokenPairDTO, error)
	Refresh(ctx context.Context, payload dto.RefreshDTO) (*dto.TokenPairDTO, error)
	Logout(ctx context.Context, payload dto.RefreshDTO) error
	GetMe(ctx context.Context, userID uint64) (*dto.UserDTO, error)
}

type AuthService struct {
	userRepo     repositories.UserRepositoryInterface
	settingsRepo repositories.UserSettingsRepositoryInterface
	cacheRepo    repositories.CacheRepositoryInterface
	jwtSvc       service.JWTService
	cfg          *config.AuthConfig
	logger       *zap.Logger
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	settingsRepo repositories.UserSettingsRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	jwtSvc service.JWTService,
	cfg *config.AuthConfig,
	logger *zap.Logger,
) AuthServiceInterface {
	return &AuthService{
		userRepo:     userRepo,
		settingsRepo: settingsRepo,
		cacheRepo:    cacheRepo,
		jwtSvc:       jwtSvc,
		cfg:          cfg,
		logger:       logger,
	}
}

func (s *AuthService) Register(ctx context.Context, payload dto.RegisterDTO) (*dto.TokenPairDTO, error) {
	hash, err := utils.HashPassword(payload.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.CreateUser(ctx, &entities.User{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: hash,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Зарегистрирован новый пользователь", zap.Uint64("userID", user.ID))
	return s.issueTokens(user)
}

func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*dto.TokenPairDTO, error) {
	logger := s.logger.With(zap.String("email", payload.Email))

	lockoutKey := fmt.Sprintf("login_attempts:%s", payload.Email)
	attemptsStr, _ := s.cacheRepo.Get(ctx, lockoutKey)
	if attempts, _ := strconv.Atoi(attemptsStr); attempts >= s.cfg.MaxLoginAttempts {
		logger.Warn("Попытка входа в заблокированный аккаунт")
		return nil, apperrors.ErrAccountLocked
	}

	user, err := s.userRepo.FindUserByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.registerFailedAttempt(ctx, lockoutKey)
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := utils.ComparePasswords(user.Password, payload.Password); err != nil {
		s.registerFailedAttempt(ctx, lockoutKey)
		logger.Warn("Неверный пароль")
		return nil, apperrors.ErrInvalidCredentials
	}

	s.cacheRepo.Del(ctx, lockoutKey)
	return s.issueTokens(user)
}

func (s *AuthService) registerFailedAttempt(ctx context.Context, key string) {
	attempts, err := s.cacheRepo.Incr(ctx, key)
	if err != nil {
		s.logger.Error("Не удалось увеличить счётчик попыток входа", zap.Error(err))
		return
	}
	if attempts == 1 {
		s.cacheRepo.Expire(ctx, key, s.cfg.LockoutDuration)
	}
}

func (s *AuthService) Refresh(ctx context.Context, payload dto.RefreshDTO) (*dto.TokenPairDTO, error) {
	claims, err := s.jwtSvc.ValidateToken(payload.RefreshToken)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefreshToken {
		return nil, apperrors.ErrTokenIsNotRefresh
	}

	if revoked, _ := s.cacheRepo.Get(ctx, revokedKey(payload.RefreshToken)); revoked != "" {
		return nil, apperrors.ErrInvalidToken
	}

	user, err := s.userRepo.FindUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}
	return s.issueTokens(user)
}

// Logout отзывает refresh-токен: он попадает в денилист до истечения
// собственного срока жизни. Access-токен живёт недолго и умирает сам.
func (s *AuthService) Logout(ctx context.Context, payload dto.RefreshDTO) error {
	claims, err := s.jwtSvc.ValidateToken(payload.RefreshToken)
	if err != nil {
		return err
	}
	if !claims.IsRefreshToken {
		return apperrors.ErrTokenIsNotRefresh
	}

	ttl := s.jwtSvc.GetRefreshTokenTTL()
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}

	if err := s.cacheRepo.Set(ctx, revokedKey(payload.RefreshToken), "1", ttl); err != nil {
		s.logger.Error("Не удалось отозвать refresh-токен", zap.Error(err))
		return err
	}

	s.logger.Info("Пользователь вышел", zap.Uint64("userID", claims.UserID))
	return nil
}

func revokedKey(token string) string {
	return fmt.Sprintf("revoked_refresh:%s", token)
}

func (s *AuthService) GetMe(ctx context.Context, userID uint64) (*dto.UserDTO, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	userDTO := toUserDTO(user)
	return &userDTO, nil
}

func (s *AuthService) issueTokens(user *entities.User) (*dto.TokenPairDTO, error) {
	access, refresh, err := s.jwtSvc.GenerateTokens(user.ID)
	if err != nil {
		return nil, err
	}
	return &dto.TokenPairDTO{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         toUserDTO(user),
	}, nil
}

func toUserDTO(user *entities.User) dto.UserDTO {
	d := dto.UserDTO{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
	}
	if user.CreatedAt != nil {
		d.CreatedAt = user.CreatedAt.Format("2006-01-02 15:04:05")
	}
	return d
}

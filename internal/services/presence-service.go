package services

import (
	"context"

	"go.uber.org/zap"

	"club-system/internal/events"
	"club-system/internal/repositories"
	"club-system/pkg/eventbus"
)

// PresenceService отмечает пользователя онлайн во всех его клубах и
// публикует user_online/user_offline. Хаб зовёт его на первом и
// последнем соединении пользователя, а не на каждой вкладке.
type PresenceService struct {
	presenceRepo repositories.PresenceRepositoryInterface
	memberRepo   repositories.MemberRepositoryInterface
	userRepo     repositories.UserRepositoryInterface
	bus          *eventbus.Bus
	logger       *zap.Logger
}

func NewPresenceService(
	presenceRepo repositories.PresenceRepositoryInterface,
	memberRepo repositories.MemberRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) *PresenceService {
	return &PresenceService{
		presenceRepo: presenceRepo,
		memberRepo:   memberRepo,
		userRepo:     userRepo,
		bus:          bus,
		logger:       logger,
	}
}

func (s *PresenceService) UserConnected(ctx context.Context, userID uint64) {
	clubIDs, userName := s.collect(ctx, userID)

	for _, clubID := range clubIDs {
		if err := s.presenceRepo.MarkOnline(ctx, clubID, userID); err != nil {
			s.logger.Error("Не удалось отметить пользователя онлайн",
				zap.Uint64("userID", userID), zap.Uint64("clubID", clubID), zap.Error(err))
		}
	}

	s.bus.Publish(ctx, events.UserOnline{UserID: userID, UserName: userName, ClubIDs: clubIDs})
}

func (s *PresenceService) UserDisconnected(ctx context.Context, userID uint64) {
	clubIDs, userName := s.collect(ctx, userID)

	for _, clubID := range clubIDs {
		if err := s.presenceRepo.MarkOffline(ctx, clubID, userID); err != nil {
			s.logger.Error("Не удалось снять отметку онлайн",
				zap.Uint64("userID", userID), zap.Uint64("clubID", clubID), zap.Error(err))
		}
	}

	s.bus.Publish(ctx, events.UserOffline{UserID: userID, UserName: userName, ClubIDs: clubIDs})
}

func (s *PresenceService) collect(ctx context.Context, userID uint64) ([]uint64, string) {
	clubIDs, err := s.memberRepo.ListClubIDsForUser(ctx, userID)
	if err != nil {
		s.logger.Error("Не удалось получить клубы пользователя", zap.Uint64("userID", userID), zap.Error(err))
		clubIDs = nil
	}

	userName := ""
	if user, err := s.userRepo.FindUserByID(ctx, userID); err == nil {
		userName = user.Name
	}
	return clubIDs, userName
}

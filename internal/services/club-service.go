package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"club-system/internal/dto"
	"club-system/internal/entities"
	"club-system/internal/events"
	"club-system/internal/repositories"
	apperrors "club-system/pkg/errors"
	"club-system/pkg/eventbus"
	"club-system/pkg/types"
	"club-system/pkg/utils"
)

type ClubServiceInterface interface {
	GetMyClubs(ctx context.Context, userID uint64, filter types.Filter) ([]dto.ClubDTO, uint64, error)
	FindClub(ctx context.Context, clubID, userID uint64) (*dto.ClubDTO, error)
	CreateClub(ctx context.Context, userID uint64, payload dto.CreateClubDTO) (*dto.ClubDTO, error)
	UpdateClub(ctx context.Context, clubID, userID uint64, payload dto.UpdateClubDTO) (*dto.ClubDTO, error)
	DeleteClub(ctx context.Context, clubID, userID uint64) error
	GetOnlineUsers(ctx context.Context, clubID, userID uint64) (*dto.OnlineUsersDTO, error)
}

type ClubService struct {
	clubRepo     repositories.ClubRepositoryInterface
	memberRepo   repositories.MemberRepositoryInterface
	userRepo     repositories.UserRepositoryInterface
	presenceRepo repositories.PresenceRepositoryInterface
	txManager    repositories.TxManagerInterface
	bus          *eventbus.Bus
	logger       *zap.Logger
}

func NewClubService(
	clubRepo repositories.ClubRepositoryInterface,
	memberRepo repositories.MemberRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	presenceRepo repositories.PresenceRepositoryInterface,
	txManager repositories.TxManagerInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) ClubServiceInterface {
	return &ClubService{
		clubRepo:     clubRepo,
		memberRepo:   memberRepo,
		userRepo:     userRepo,
		presenceRepo: presenceRepo,
		txManager:    txManager,
		bus:          bus,
		logger:       logger,
	}
}

// requireMember возвращает членство или ErrNotClubMember.
func (s *ClubService) requireMember(ctx context.Context, clubID, userID uint64) (*entities.ClubMember, error) {
	member, err := s.memberRepo.FindMember(ctx, clubID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotClubMember
		}
		return nil, err
	}
	return member, nil
}

func (s *ClubService) GetMyClubs(ctx context.Context, userID uint64, filter types.Filter) ([]dto.ClubDTO, uint64, error) {
	clubs, total, err := s.clubRepo.GetClubsForUser(ctx, userID, filter)
	if err != nil {
		return nil, 0, err
	}

	result := make([]dto.ClubDTO, 0, len(clubs))
	for i := range clubs {
		d, err := s.toClubDTO(ctx, &clubs[i], userID)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *d)
	}
	return result, total, nil
}

func (s *ClubService) FindClub(ctx context.Context, clubID, userID uint64) (*dto.ClubDTO, error) {
	if _, err := s.requireMember(ctx, clubID, userID); err != nil {
		return nil, err
	}
	club, err := s.clubRepo.FindClub(ctx, clubID)
	if err != nil {
		return nil, err
	}
	return s.toClubDTO(ctx, club, userID)
}

// CreateClub создаёт клуб и сразу же делает создателя владельцем. Обе
// вставки идут в одной транзакции.
func (s *ClubService) CreateClub(ctx context.Context, userID uint64, payload dto.CreateClubDTO) (*dto.ClubDTO, error) {
	var created *entities.Club

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		club, err := s.clubRepo.CreateClub(ctx, tx, entities.Club{
			Name:        payload.Name,
			Description: payload.Description,
			ClubType:    payload.ClubType,
			OwnerID:     userID,
		})
		if err != nil {
			return err
		}
		if _, err := s.memberRepo.AddMember(ctx, tx, club.ID, userID, entities.RoleOwner); err != nil {
			return err
		}
		created = club
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Создан клуб", zap.Uint64("clubID", created.ID), zap.Uint64("ownerID", userID))
	return s.toClubDTO(ctx, created, userID)
}

func (s *ClubService) UpdateClub(ctx context.Context, clubID, userID uint64, payload dto.UpdateClubDTO) (*dto.ClubDTO, error) {
	member, err := s.requireMember(ctx, clubID, userID)
	if err != nil {
		return nil, err
	}
	if !member.CanModerate() {
		return nil, apperrors.ErrForbidden
	}

	club, err := s.clubRepo.FindClub(ctx, clubID)
	if err != nil {
		return nil, err
	}

	if payload.Name != nil {
		club.Name = *payload.Name
	}
	if payload.Description != nil {
		club.Description = payload.Description
	}
	if payload.ClubType != nil {
		club.ClubType = *payload.ClubType
	}

	updated, err := s.clubRepo.UpdateClub(ctx, club)
	if err != nil {
		return nil, err
	}

	actorName := s.actorName(ctx, userID)
	s.bus.Publish(ctx, events.ClubUpdated{
		ClubID:    updated.ID,
		ClubName:  updated.Name,
		ActorID:   userID,
		ActorName: actorName,
	})

	return s.toClubDTO(ctx, updated, userID)
}

func (s *ClubService) DeleteClub(ctx context.Context, clubID, userID uint64) error {
	club, err := s.clubRepo.FindClub(ctx, clubID)
	if err != nil {
		return err
	}
	if club.OwnerID != userID {
		return apperrors.ErrForbidden
	}
	return s.clubRepo.DeleteClub(ctx, clubID)
}

// GetOnlineUsers отдаёт текущий онлайн-состав клуба из Redis.
func (s *ClubService) GetOnlineUsers(ctx context.Context, clubID, userID uint64) (*dto.OnlineUsersDTO, error) {
	if _, err := s.requireMember(ctx, clubID, userID); err != nil {
		return nil, err
	}

	online, err := s.presenceRepo.ListOnline(ctx, clubID)
	if err != nil {
		return nil, err
	}
	return &dto.OnlineUsersDTO{
		ClubID:      clubID,
		OnlineUsers: online,
		Count:       len(online),
	}, nil
}

func (s *ClubService) toClubDTO(ctx context.Context, club *entities.Club, userID uint64) (*dto.ClubDTO, error) {
	memberCount, err := s.clubRepo.CountMembers(ctx, club.ID)
	if err != nil {
		return nil, err
	}

	d := dto.ClubDTO{
		ID:          club.ID,
		Name:        club.Name,
		Description: utils.SafeDeref(club.Description),
		ClubType:    club.ClubType,
		OwnerID:     club.OwnerID,
		MemberCount: memberCount,
	}
	if club.CreatedAt != nil {
		d.CreatedAt = club.CreatedAt.Format("2006-01-02 15:04:05")
	}
	if club.UpdatedAt != nil {
		d.UpdatedAt = club.UpdatedAt.Format("2006-01-02 15:04:05")
	}

	if member, err := s.memberRepo.FindMember(ctx, club.ID, userID); err == nil {
		d.MyRole = utils.ToPtr(member.Role)
	}
	return &d, nil
}

func (s *ClubService) actorName(ctx context.Context, userID uint64) string {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return ""
	}
	return user.Name
}

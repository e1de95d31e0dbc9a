package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"club-system/internal/dto"
	"club-system/internal/entities"
	"club-system/internal/events"
	"club-system/internal/repositories"
	apperrors "club-system/pkg/errors"
	"club-system/pkg/eventbus"
)

type MemberServiceInterface interface {
	ListMembers(ctx context.Context, clubID, userID uint64) ([]dto.ClubMemberDTO, error)
	AddMember(ctx context.Context, clubID, actorID uint64, payload dto.AddMemberDTO) (*dto.ClubMemberDTO, error)
	RemoveMember(ctx context.Context, clubID, targetUserID, actorID uint64) error
	ChangeRole(ctx context.Context, clubID, targetUserID, actorID uint64, payload dto.ChangeMemberRoleDTO) (*dto.ClubMemberDTO, error)
}

type MemberService struct {
	memberRepo repositories.MemberRepositoryInterface
	clubRepo   repositories.ClubRepositoryInterface
	userRepo   repositories.UserRepositoryInterface
	bus        *eventbus.Bus
	logger     *zap.Logger
}

func NewMemberService(
	memberRepo repositories.MemberRepositoryInterface,
	clubRepo   repositories.ClubRepositoryInterface,
	userRepo   repositories.UserRepositoryInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) MemberServiceInterface {
	return &MemberService{
		memberRepo: memberRepo,
		clubRepo:   clubRepo,
		userRepo:   userRepo,
		bus:        bus,
		logger:     logger,
	}
}

func (s *MemberService) requireMember(ctx context.Context, clubID, userID uint64) (*entities.ClubMember, error) {
	member, err := s.memberRepo.FindMember(ctx, clubID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotClubMember
		}
		return nil, err
	}
	return member, nil
}

func (s *MemberService) ListMembers(ctx context.Context, clubID, userID uint64) ([]dto.ClubMemberDTO, error) {
	if _, err := s.requireMember(ctx, clubID, userID); err != nil {
		return nil, err
	}

	rows, err := s.memberRepo.ListMembers(ctx, clubID)
	if err != nil {
		return nil, err
	}

	result := make([]dto.ClubMemberDTO, 0, len(rows))
	for _, row := range rows {
		result = append(result, toMemberDTO(row))
	}
	return result, nil
}

func (s *MemberService) AddMember(ctx context.Context, clubID, actorID uint64, payload dto.AddMemberDTO) (*dto.ClubMemberDTO, error) {
	actor, err := s.requireMember(ctx, clubID, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.CanModerate() {
		return nil, apperrors.ErrForbidden
	}

	user, err := s.userRepo.FindUserByEmail(ctx, payload.Email)
	if err != nil {
		return nil, err
	}

	role := payload.Role
	if role == "" {
		role = entities.RoleMember
	}
	if role == entities.RoleOwner {
		// Второго владельца может назначить только смена роли владельцем.
		return nil, apperrors.ErrForbidden
	}

	member, err := s.memberRepo.AddMember(ctx, nil, clubID, user.ID, role)
	if err != nil {
		return nil, err
	}

	club, err := s.clubRepo.FindClub(ctx, clubID)
	if err != nil {
		return nil, err
	}
	actorUser, _ := s.userRepo.FindUserByID(ctx, actorID)
	actorName := ""
	if actorUser != nil {
		actorName = actorUser.Name
	}

	s.bus.Publish(ctx, events.MemberAdded{
		ClubID:    clubID,
		ClubName:  club.Name,
		UserID:    user.ID,
		UserName:  user.Name,
		Role:      member.Role,
		ActorID:   actorID,
		ActorName: actorName,
	})

	d := toMemberDTO(repositories.MemberRow{
		ClubMember: *member,
		Name:       user.Name,
		Email:      user.Email,
		AvatarURL:  user.AvatarURL,
	})
	return &d, nil
}

// RemoveMember: модератор исключает участника, либо участник выходит сам.
// Единственный владелец выйти не может.
func (s *MemberService) RemoveMember(ctx context.Context, clubID, targetUserID, actorID uint64) error {
	actor, err := s.requireMember(ctx, clubID, actorID)
	if err != nil {
		return err
	}

	target, err := s.memberRepo.FindMember(ctx, clubID, targetUserID)
	if err != nil {
		return err
	}

	selfLeave := targetUserID == actorID
	if !selfLeave && !actor.CanModerate() {
		return apperrors.ErrForbidden
	}
	if !selfLeave && target.Role == entities.RoleOwner {
		return apperrors.ErrForbidden
	}

	if target.Role == entities.RoleOwner {
		owners, err := s.memberRepo.CountByRole(ctx, clubID, entities.RoleOwner)
		if err != nil {
			return err
		}
		if owners <= 1 {
			return apperrors.ErrLastOwnerLeaves
		}
	}

	if err := s.memberRepo.RemoveMember(ctx, clubID, targetUserID); err != nil {
		return err
	}

	club, err := s.clubRepo.FindClub(ctx, clubID)
	if err != nil {
		return err
	}
	targetUser, _ := s.userRepo.FindUserByID(ctx, targetUserID)
	targetName := ""
	if targetUser != nil {
		targetName = targetUser.Name
	}
	actorUser, _ := s.userRepo.FindUserByID(ctx, actorID)
	actorName := ""
	if actorUser != nil {
		actorName = actorUser.Name
	}

	s.bus.Publish(ctx, events.MemberRemoved{
		ClubID:    clubID,
		ClubName:  club.Name,
		UserID:    targetUserID,
		UserName:  targetName,
		ActorID:   actorID,
		ActorName: actorName,
	})
	return nil
}

func (s *MemberService) ChangeRole(ctx context.Context, clubID, targetUserID, actorID uint64, payload dto.ChangeMemberRoleDTO) (*dto.ClubMemberDTO, error) {
	actor, err := s.requireMember(ctx, clubID, actorID)
	if err != nil {
		return nil, err
	}
	// Роли меняет только владелец.
	if actor.Role != entities.RoleOwner {
		return nil, apperrors.ErrForbidden
	}

	target, err := s.memberRepo.FindMember(ctx, clubID, targetUserID)
	if err != nil {
		return nil, err
	}

	if target.Role == entities.RoleOwner && payload.Role != entities.RoleOwner {
		owners, err := s.memberRepo.CountByRole(ctx, clubID, entities.RoleOwner)
		if err != nil {
			return nil, err
		}
		if owners <= 1 {
			return nil, apperrors.ErrLastOwnerLeaves
		}
	}

	oldRole := target.Role
	updated, err := s.memberRepo.ChangeRole(ctx, clubID, targetUserID, payload.Role)
	if err != nil {
		return nil, err
	}

	targetUser, err := s.userRepo.FindUserByID(ctx, targetUserID)
	if err != nil {
		return nil, err
	}
	actorUser, _ := s.userRepo.FindUserByID(ctx, actorID)
	actorName := ""
	if actorUser != nil {
		actorName = actorUser.Name
	}

	s.bus.Publish(ctx, events.MemberRoleChanged{
		ClubID:    clubID,
		UserID:    targetUserID,
		UserName:  targetUser.Name,
		OldRole:   oldRole,
		NewRole:   updated.Role,
		ActorID:   actorID,
		ActorName: actorName,
	})

	d := toMemberDTO(repositories.MemberRow{
		ClubMember: *updated,
		Name:       targetUser.Name,
		Email:      targetUser.Email,
		AvatarURL:  targetUser.AvatarURL,
	})
	return &d, nil
}

func toMemberDTO(row repositories.MemberRow) dto.ClubMemberDTO {
	return dto.ClubMemberDTO{
		ID:        row.ID,
		ClubID:    row.ClubID,
		UserID:    row.UserID,
		Name:      row.Name,
		Email:     row.Email,
		AvatarURL: row.AvatarURL,
		Role:      row.Role,
		JoinedAt:  row.JoinedAt.Format("2006-01-02 15:04:05"),
	}
}

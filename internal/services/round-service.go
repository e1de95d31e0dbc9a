package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"club-system/internal/dto"
	"club-system/internal/entities"
	"club-system/internal/events"
	"club-system/internal/repositories"
	apperrors "club-system/pkg/errors"
	"club-system/pkg/eventbus"
)

type RoundServiceInterface interface {
	ListRounds(ctx context.Context, clubID, userID uint64) ([]dto.RoundDTO, error)
	GetActiveRound(ctx context.Context, clubID, userID uint64) (*dto.RoundDTO, error)
	StartRound(ctx context.Context, clubID, actorID uint64) (*dto.RoundDTO, error)
	ChangeStatus(ctx context.Context, roundID, actorID uint64, payload dto.ChangeRoundStatusDTO) (*dto.RoundDTO, error)
	AdvanceTurn(ctx context.Context, round *entities.Round, actorID uint64) error
}

type RoundService struct {
	roundRepo  repositories.RoundRepositoryInterface
	memberRepo repositories.MemberRepositoryInterface
	voteRepo   repositories.VoteRepositoryInterface
	userRepo   repositories.UserRepositoryInterface
	bus        *eventbus.Bus
	logger     *zap.Logger
}

func NewRoundService(
	roundRepo repositories.RoundRepositoryInterface,
	memberRepo repositories.MemberRepositoryInterface,
	voteRepo repositories.VoteRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) RoundServiceInterface {
	return &RoundService{
		roundRepo:  roundRepo,
		memberRepo: memberRepo,
		voteRepo:   voteRepo,
		userRepo:   userRepo,
		bus:        bus,
		logger:     logger,
	}
}

// Допустимые переходы статуса раунда.
var roundTransitions = map[string]string{
	entities.RoundStatusRecommending: entities.RoundStatusVoting,
	entities.RoundStatusVoting:       entities.RoundStatusCompleted,
}

func (s *RoundService) requireMember(ctx context.Context, clubID, userID uint64) (*entities.ClubMember, error) {
	member, err := s.memberRepo.FindMember(ctx, clubID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotClubMember
		}
		return nil, err
	}
	return member, nil
}

func (s *RoundService) ListRounds(ctx context.Context, clubID, userID uint64) ([]dto.RoundDTO, error) {
	if _, err := s.requireMember(ctx, clubID, userID); err != nil {
		return nil, err
	}

	rounds, err := s.roundRepo.ListRounds(ctx, clubID)
	if err != nil {
		return nil, err
	}

	result := make([]dto.RoundDTO, 0, len(rounds))
	for i := range rounds {
		result = append(result, toRoundDTO(&rounds[i]))
	}
	return result, nil
}

func (s *RoundService) GetActiveRound(ctx context.Context, clubID, userID uint64) (*dto.RoundDTO, error) {
	if _, err := s.requireMember(ctx, clubID, userID); err != nil {
		return nil, err
	}

	round, err := s.roundRepo.FindActiveRound(ctx, clubID)
	if err != nil {
		return nil, err
	}
	d := toRoundDTO(round)
	return &d, nil
}

// StartRound открывает новый раунд. Очередь рекомендовать начинается с
// самого раннего участника клуба.
func (s *RoundService) StartRound(ctx context.Context, clubID, actorID uint64) (*dto.RoundDTO, error) {
	actor, err := s.requireMember(ctx, clubID, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.CanModerate() {
		return nil, apperrors.ErrForbidden
	}

	if _, err := s.roundRepo.FindActiveRound(ctx, clubID); err == nil {
		return nil, apperrors.ErrConflict
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	members, err := s.memberRepo.ListMembers(ctx, clubID)
	if err != nil {
		return nil, err
	}
	var firstTurn *uint64
	if len(members) > 0 {
		firstTurn = &members[0].UserID
	}

	round, err := s.roundRepo.CreateRound(ctx, clubID, firstTurn)
	if err != nil {
		return nil, err
	}

	s.publishStatusChange(ctx, round, "", round.Status, actorID)
	if round.CurrentTurnUserID != nil {
		s.publishTurnChange(ctx, round, *round.CurrentTurnUserID, actorID)
	}

	d := toRoundDTO(round)
	return &d, nil
}

func (s *RoundService) ChangeStatus(ctx context.Context, roundID, actorID uint64, payload dto.ChangeRoundStatusDTO) (*dto.RoundDTO, error) {
	round, err := s.roundRepo.FindRound(ctx, roundID)
	if err != nil {
		return nil, err
	}

	actor, err := s.requireMember(ctx, round.ClubID, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.CanModerate() {
		return nil, apperrors.ErrForbidden
	}

	if round.IsClosed() {
		return nil, apperrors.ErrRoundClosed
	}
	if roundTransitions[round.Status] != payload.Status {
		return nil, apperrors.ErrBadRequest
	}

	var winnerID *uint64
	if payload.Status == entities.RoundStatusCompleted {
		if top, err := s.voteRepo.TopRecommendation(ctx, roundID); err == nil {
			winnerID = &top
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
	}

	oldStatus := round.Status
	updated, err := s.roundRepo.UpdateStatus(ctx, roundID, payload.Status, winnerID)
	if err != nil {
		return nil, err
	}

	s.publishStatusChange(ctx, updated, oldStatus, updated.Status, actorID)

	d := toRoundDTO(updated)
	return &d, nil
}

// AdvanceTurn передаёт очередь следующему по дате вступления участнику.
// После последнего участника очередь закрывается (current_turn = NULL).
func (s *RoundService) AdvanceTurn(ctx context.Context, round *entities.Round, actorID uint64) error {
	if round.CurrentTurnUserID == nil {
		return nil
	}

	members, err := s.memberRepo.ListMembers(ctx, round.ClubID)
	if err != nil {
		return err
	}

	var next *uint64
	for i, m := range members {
		if m.UserID == *round.CurrentTurnUserID && i+1 < len(members) {
			next = &members[i+1].UserID
			break
		}
	}

	updated, err := s.roundRepo.UpdateTurn(ctx, round.ID, next)
	if err != nil {
		return err
	}

	if next != nil {
		s.publishTurnChange(ctx, updated, *next, actorID)
	}
	return nil
}

func (s *RoundService) publishStatusChange(ctx context.Context, round *entities.Round, oldStatus, newStatus string, actorID uint64) {
	actorName := ""
	if actor, err := s.userRepo.FindUserByID(ctx, actorID); err == nil {
		actorName = actor.Name
	}
	s.bus.Publish(ctx, events.RoundStatusChanged{
		ClubID:    round.ClubID,
		RoundID:   round.ID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		ActorID:   actorID,
		ActorName: actorName,
	})
}

func (s *RoundService) publishTurnChange(ctx context.Context, round *entities.Round, turnUserID, actorID uint64) {
	turnName := ""
	if u, err := s.userRepo.FindUserByID(ctx, turnUserID); err == nil {
		turnName = u.Name
	}
	s.bus.Publish(ctx, events.TurnChanged{
		ClubID:       round.ClubID,
		RoundID:      round.ID,
		TurnUserID:   turnUserID,
		TurnUserName: turnName,
		ActorID:      actorID,
	})
}

func toRoundDTO(round *entities.Round) dto.RoundDTO {
	d := dto.RoundDTO{
		ID:                round.ID,
		ClubID:            round.ClubID,
		Status:            round.Status,
		CurrentTurnUserID: round.CurrentTurnUserID,
		WinnerID:          round.WinnerID,
		StartedAt:         round.StartedAt.Format(time.RFC3339),
	}
	if round.FinishedAt != nil {
		finished := round.FinishedAt.Format(time.RFC3339)
		d.FinishedAt = &finished
	}
	return d
}

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

type VoteServiceInterface interface {
	CastVote(ctx context.Context, roundID, userID uint64, payload dto.CastVoteDTO) (*dto.VoteDTO, error)
	ListByRound(ctx context.Context, roundID, userID uint64) ([]dto.VoteDTO, error)
}

type VoteService struct {
	voteRepo   repositories.VoteRepositoryInterface
	recRepo    repositories.RecommendationRepositoryInterface
	roundRepo  repositories.RoundRepositoryInterface
	memberRepo repositories.MemberRepositoryInterface
	userRepo   repositories.UserRepositoryInterface
	bus        *eventbus.Bus
	logger     *zap.Logger
}

func NewVoteService(
	voteRepo repositories.VoteRepositoryInterface,
	recRepo repositories.RecommendationRepositoryInterface,
	roundRepo repositories.RoundRepositoryInterface,
	memberRepo repositories.MemberRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) VoteServiceInterface {
	return &VoteService{
		voteRepo:   voteRepo,
		recRepo:    recRepo,
		roundRepo:  roundRepo,
		memberRepo: memberRepo,
		userRepo:   userRepo,
		bus:        bus,
		logger:     logger,
	}
}

// CastVote: голосовать можно только на стадии voting и только за
// рекомендацию этого же раунда. Повторный голос меняет выбор.
func (s *VoteService) CastVote(ctx context.Context, roundID, userID uint64, payload dto.CastVoteDTO) (*dto.VoteDTO, error) {
	round, err := s.roundRepo.FindRound(ctx, roundID)
	if err != nil {
		return nil, err
	}

	if _, err := s.memberRepo.FindMember(ctx, round.ClubID, userID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotClubMember
		}
		return nil, err
	}

	if round.Status != entities.RoundStatusVoting {
		return nil, apperrors.ErrRoundNotVoting
	}

	rec, err := s.recRepo.FindRecommendation(ctx, payload.RecommendationID)
	if err != nil {
		return nil, err
	}
	if rec.RoundID != roundID {
		return nil, apperrors.ErrBadRequest
	}

	value := payload.Value
	if value == 0 {
		value = 1
	}

	vote, err := s.voteRepo.UpsertVote(ctx, &entities.Vote{
		RoundID:          roundID,
		RecommendationID: payload.RecommendationID,
		UserID:           userID,
		Value:            value,
	})
	if err != nil {
		return nil, err
	}

	voterName := ""
	if u, err := s.userRepo.FindUserByID(ctx, userID); err == nil {
		voterName = u.Name
	}
	s.bus.Publish(ctx, events.VoteCast{
		ClubID:           round.ClubID,
		RoundID:          roundID,
		RecommendationID: payload.RecommendationID,
		VoterID:          userID,
		VoterName:        voterName,
	})

	d := toVoteDTO(vote)
	return &d, nil
}

func (s *VoteService) ListByRound(ctx context.Context, roundID, userID uint64) ([]dto.VoteDTO, error) {
	round, err := s.roundRepo.FindRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if _, err := s.memberRepo.FindMember(ctx, round.ClubID, userID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotClubMember
		}
		return nil, err
	}

	votes, err := s.voteRepo.ListByRound(ctx, roundID)
	if err != nil {
		return nil, err
	}

	result := make([]dto.VoteDTO, 0, len(votes))
	for i := range votes {
		result = append(result, toVoteDTO(&votes[i]))
	}
	return result, nil
}

func toVoteDTO(vote *entities.Vote) dto.VoteDTO {
	d := dto.VoteDTO{
		ID:               vote.ID,
		RoundID:          vote.RoundID,
		RecommendationID: vote.RecommendationID,
		UserID:           vote.UserID,
		Value:            vote.Value,
	}
	if vote.CreatedAt != nil {
		d.CreatedAt = vote.CreatedAt.Format(time.RFC3339)
	}
	return d
}

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

type CompletionServiceInterface interface {
	UpsertCompletion(ctx context.Context, roundID, userID uint64, payload dto.UpsertCompletionDTO) (*dto.CompletionDTO, error)
	DeleteCompletion(ctx context.Context, roundID, userID uint64) error
	ListByRound(ctx context.Context, roundID, userID uint64) ([]dto.CompletionDTO, error)
}

type CompletionService struct {
	completionRepo repositories.CompletionRepositoryInterface
	roundRepo      repositories.RoundRepositoryInterface
	memberRepo     repositories.MemberRepositoryInterface
	userRepo       repositories.UserRepositoryInterface
	bus            *eventbus.Bus
	logger         *zap.Logger
}

func NewCompletionService(
	completionRepo repositories.CompletionRepositoryInterface,
	roundRepo repositories.RoundRepositoryInterface,
	memberRepo repositories.MemberRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) CompletionServiceInterface {
	return &CompletionService{
		completionRepo: completionRepo,
		roundRepo:      roundRepo,
		memberRepo:     memberRepo,
		userRepo:       userRepo,
		bus:            bus,
		logger:         logger,
	}
}

func (s *CompletionService) requireRoundMember(ctx context.Context, roundID, userID uint64) (*entities.Round, error) {
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
	return round, nil
}

// UpsertCompletion — отметка "прочитал/посмотрел" с необязательной
// оценкой. Повторная отметка обновляет оценку.
func (s *CompletionService) UpsertCompletion(ctx context.Context, roundID, userID uint64, payload dto.UpsertCompletionDTO) (*dto.CompletionDTO, error) {
	round, err := s.requireRoundMember(ctx, roundID, userID)
	if err != nil {
		return nil, err
	}

	completion, err := s.completionRepo.UpsertCompletion(ctx, &entities.Completion{
		RoundID: roundID,
		UserID:  userID,
		Rating:  payload.Rating,
	})
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.CompletionUpdated{
		ClubID:   round.ClubID,
		RoundID:  roundID,
		UserID:   userID,
		UserName: user.Name,
		Rating:   completion.Rating,
	})

	d := toCompletionDTO(repositories.CompletionRow{
		Completion: *completion,
		UserName:   user.Name,
	})
	return &d, nil
}

func (s *CompletionService) DeleteCompletion(ctx context.Context, roundID, userID uint64) error {
	round, err := s.requireRoundMember(ctx, roundID, userID)
	if err != nil {
		return err
	}

	if err := s.completionRepo.DeleteCompletion(ctx, roundID, userID); err != nil {
		return err
	}

	userName := ""
	if u, err := s.userRepo.FindUserByID(ctx, userID); err == nil {
		userName = u.Name
	}
	s.bus.Publish(ctx, events.CompletionUpdated{
		ClubID:   round.ClubID,
		RoundID:  roundID,
		UserID:   userID,
		UserName: userName,
	})
	return nil
}

func (s *CompletionService) ListByRound(ctx context.Context, roundID, userID uint64) ([]dto.CompletionDTO, error) {
	if _, err := s.requireRoundMember(ctx, roundID, userID); err != nil {
		return nil, err
	}

	rows, err := s.completionRepo.ListByRound(ctx, roundID)
	if err != nil {
		return nil, err
	}

	result := make([]dto.CompletionDTO, 0, len(rows))
	for _, row := range rows {
		result = append(result, toCompletionDTO(row))
	}
	return result, nil
}

func toCompletionDTO(row repositories.CompletionRow) dto.CompletionDTO {
	return dto.CompletionDTO{
		ID:          row.ID,
		RoundID:     row.RoundID,
		UserID:      row.UserID,
		UserName:    row.UserName,
		Rating:      row.Rating,
		CompletedAt: row.CompletedAt.Format(time.RFC3339),
	}
}

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

type RecommendationServiceInterface interface {
	ListByRound(ctx context.Context, roundID, userID uint64) ([]dto.RecommendationDTO, error)
	CreateRecommendation(ctx context.Context, roundID, userID uint64, payload dto.CreateRecommendationDTO) (*dto.RecommendationDTO, error)
	DeleteRecommendation(ctx context.Context, recommendationID, userID uint64) error
}

type RecommendationService struct {
	recRepo    repositories.RecommendationRepositoryInterface
	roundRepo  repositories.RoundRepositoryInterface
	memberRepo repositories.MemberRepositoryInterface
	userRepo   repositories.UserRepositoryInterface
	roundSvc   RoundServiceInterface
	bus        *eventbus.Bus
	logger     *zap.Logger
}

func NewRecommendationService(
	recRepo repositories.RecommendationRepositoryInterface,
	roundRepo repositories.RoundRepositoryInterface,
	memberRepo repositories.MemberRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	roundSvc RoundServiceInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) RecommendationServiceInterface {
	return &RecommendationService{
		recRepo:    recRepo,
		roundRepo:  roundRepo,
		memberRepo: memberRepo,
		userRepo:   userRepo,
		roundSvc:   roundSvc,
		bus:        bus,
		logger:     logger,
	}
}

func (s *RecommendationService) requireMember(ctx context.Context, clubID, userID uint64) (*entities.ClubMember, error) {
	member, err := s.memberRepo.FindMember(ctx, clubID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotClubMember
		}
		return nil, err
	}
	return member, nil
}

func (s *RecommendationService) ListByRound(ctx context.Context, roundID, userID uint64) ([]dto.RecommendationDTO, error) {
	round, err := s.roundRepo.FindRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireMember(ctx, round.ClubID, userID); err != nil {
		return nil, err
	}

	rows, err := s.recRepo.ListByRound(ctx, roundID)
	if err != nil {
		return nil, err
	}

	result := make([]dto.RecommendationDTO, 0, len(rows))
	for _, row := range rows {
		result = append(result, toRecommendationDTO(row))
	}
	return result, nil
}

// CreateRecommendation принимает рекомендацию только на стадии
// recommending и только от участника, чья сейчас очередь. После вставки
// очередь переходит дальше.
func (s *RecommendationService) CreateRecommendation(ctx context.Context, roundID, userID uint64, payload dto.CreateRecommendationDTO) (*dto.RecommendationDTO, error) {
	round, err := s.roundRepo.FindRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireMember(ctx, round.ClubID, userID); err != nil {
		return nil, err
	}

	if round.IsClosed() {
		return nil, apperrors.ErrRoundClosed
	}
	if round.Status != entities.RoundStatusRecommending {
		return nil, apperrors.ErrBadRequest
	}
	if round.CurrentTurnUserID == nil || *round.CurrentTurnUserID != userID {
		return nil, apperrors.ErrNotYourTurn
	}

	created, err := s.recRepo.CreateRecommendation(ctx, &entities.Recommendation{
		RoundID:     roundID,
		UserID:      userID,
		Title:       payload.Title,
		Description: payload.Description,
		URL:         payload.URL,
	})
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.RecommendationAdded{
		ClubID:           round.ClubID,
		RoundID:          roundID,
		RecommendationID: created.ID,
		Title:            created.Title,
		ActorID:          userID,
		ActorName:        user.Name,
	})

	if err := s.roundSvc.AdvanceTurn(ctx, round, userID); err != nil {
		s.logger.Error("Не удалось передать очередь", zap.Uint64("roundID", roundID), zap.Error(err))
	}

	d := toRecommendationDTO(repositories.RecommendationRow{
		Recommendation: *created,
		UserName:       user.Name,
	})
	return &d, nil
}

// DeleteRecommendation доступно автору и модераторам, пока раунд открыт.
func (s *RecommendationService) DeleteRecommendation(ctx context.Context, recommendationID, userID uint64) error {
	rec, err := s.recRepo.FindRecommendation(ctx, recommendationID)
	if err != nil {
		return err
	}
	round, err := s.roundRepo.FindRound(ctx, rec.RoundID)
	if err != nil {
		return err
	}
	if round.IsClosed() {
		return apperrors.ErrRoundClosed
	}

	member, err := s.requireMember(ctx, round.ClubID, userID)
	if err != nil {
		return err
	}
	if rec.UserID != userID && !member.CanModerate() {
		return apperrors.ErrForbidden
	}

	if err := s.recRepo.DeleteRecommendation(ctx, recommendationID); err != nil {
		return err
	}

	actorName := ""
	if u, err := s.userRepo.FindUserByID(ctx, userID); err == nil {
		actorName = u.Name
	}
	s.bus.Publish(ctx, events.RecommendationRemoved{
		ClubID:           round.ClubID,
		RoundID:          rec.RoundID,
		RecommendationID: recommendationID,
		Title:            rec.Title,
		ActorID:          userID,
		ActorName:        actorName,
	})
	return nil
}

func toRecommendationDTO(row repositories.RecommendationRow) dto.RecommendationDTO {
	return dto.RecommendationDTO{
		ID:          row.ID,
		RoundID:     row.RoundID,
		UserID:      row.UserID,
		UserName:    row.UserName,
		Title:       row.Title,
		Description: row.Description,
		URL:         row.URL,
		VoteCount:   row.VoteCount,
		CreatedAt:   row.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

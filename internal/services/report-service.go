package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"club-system/internal/entities"
	"club-system/internal/repositories"
	apperrors "club-system/pkg/errors"
)

type ReportServiceInterface interface {
	GetClubActivity(ctx context.Context, clubID, userID uint64) (*entities.Club, []repositories.ReportRow, error)
}

type reportService struct {
	reportRepo repositories.ReportRepositoryInterface
	clubRepo   repositories.ClubRepositoryInterface
	memberRepo repositories.MemberRepositoryInterface
	logger     *zap.Logger
}

func NewReportService(
	reportRepo repositories.ReportRepositoryInterface,
	clubRepo repositories.ClubRepositoryInterface,
	memberRepo repositories.MemberRepositoryInterface,
	logger *zap.Logger,
) ReportServiceInterface {
	return &reportService{
		reportRepo: reportRepo,
		clubRepo:   clubRepo,
		memberRepo: memberRepo,
		logger:     logger,
	}
}

// GetClubActivity: выгрузка доступна модераторам и владельцу клуба.
func (s *reportService) GetClubActivity(ctx context.Context, clubID, userID uint64) (*entities.Club, []repositories.ReportRow, error) {
	member, err := s.memberRepo.FindMember(ctx, clubID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.ErrNotClubMember
		}
		return nil, nil, err
	}
	if !member.CanModerate() {
		return nil, nil, apperrors.ErrForbidden
	}

	club, err := s.clubRepo.FindClub(ctx, clubID)
	if err != nil {
		return nil, nil, err
	}

	report, err := s.reportRepo.GetClubActivity(ctx, clubID)
	if err != nil {
		return nil, nil, err
	}
	return club, report, nil
}

package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"club-system/internal/dto"
	"club-system/internal/entities"
	"club-system/internal/repositories"
	"club-system/pkg/types"
)

type NotificationServiceInterface interface {
	GetNotifications(ctx context.Context, userID uint64, filter types.Filter) (*dto.NotificationListData, error)
	GetUnreadCombined(ctx context.Context, userID uint64) (*dto.UnreadCombinedData, error)
	CountUnread(ctx context.Context, userID uint64) (*dto.UnreadCountData, error)
	MarkRead(ctx context.Context, userID uint64, ids []string) (uint64, error)
	MarkAllRead(ctx context.Context, userID uint64) (uint64, error)
	DeleteNotification(ctx context.Context, userID uint64, id string) error
	DeleteRead(ctx context.Context, userID uint64) (uint64, error)
}

type NotificationService struct {
	notificationRepo repositories.NotificationRepositoryInterface
	logger           *zap.Logger
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepositoryInterface,
	logger *zap.Logger,
) NotificationServiceInterface {
	return &NotificationService{
		notificationRepo: notificationRepo,
		logger:           logger,
	}
}

func (s *NotificationService) GetNotifications(ctx context.Context, userID uint64, filter types.Filter) (*dto.NotificationListData, error) {
	items, total, err := s.notificationRepo.GetNotifications(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	hasMore := false
	if filter.WithPagination {
		hasMore = uint64(filter.Offset)+uint64(len(items)) < total
	}

	return &dto.NotificationListData{
		Notifications: toNotificationDTOs(items),
		Total:         total,
		HasMore:       hasMore,
	}, nil
}

// GetUnreadCombined отдаёт непрочитанные уведомления и их число одним
// ответом. Список и счётчик согласованы между собой, клиенту не нужно
// склеивать два запроса.
func (s *NotificationService) GetUnreadCombined(ctx context.Context, userID uint64) (*dto.UnreadCombinedData, error) {
	items, err := s.notificationRepo.GetUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.UnreadCombinedData{
		Notifications: toNotificationDTOs(items),
		Count:         uint64(len(items)),
	}, nil
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uint64) (*dto.UnreadCountData, error) {
	count, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.UnreadCountData{Count: count}, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID uint64, ids []string) (uint64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return s.notificationRepo.MarkRead(ctx, userID, ids)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint64) (uint64, error) {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

func (s *NotificationService) DeleteNotification(ctx context.Context, userID uint64, id string) error {
	return s.notificationRepo.DeleteNotification(ctx, id, userID)
}

func (s *NotificationService) DeleteRead(ctx context.Context, userID uint64) (uint64, error) {
	return s.notificationRepo.DeleteRead(ctx, userID)
}

func toNotificationDTOs(items []entities.Notification) []dto.NotificationDTO {
	result := make([]dto.NotificationDTO, 0, len(items))
	for i := range items {
		result = append(result, ToNotificationDTO(&items[i]))
	}
	return result
}

// ToNotificationDTO используется и HTTP-слоем, и websocket-рассылкой.
func ToNotificationDTO(n *entities.Notification) dto.NotificationDTO {
	d := dto.NotificationDTO{
		ID:        n.ID,
		Type:      n.Type,
		Status:    n.Status,
		Title:     n.Title,
		Message:   n.Message,
		Data:      n.Data,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
	if n.ClubID.Valid {
		clubID := n.ClubID.Uint64
		d.ClubID = &clubID
	}
	if n.RoundID.Valid {
		roundID := n.RoundID.Uint64
		d.RoundID = &roundID
	}
	return d
}

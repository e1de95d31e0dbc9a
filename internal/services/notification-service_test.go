package services

import (
	"context"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"club-system/internal/entities"
	"club-system/pkg/types"
)

type stubNotificationRepo struct {
	items []entities.Notification
	total uint64

	markedIDs []string
}

func (r *stubNotificationRepo) CreateNotifications(ctx context.Context, items []entities.Notification) error {
	return nil
}

func (r *stubNotificationRepo) GetNotifications(ctx context.Context, userID uint64, filter types.Filter) ([]entities.Notification, uint64, error) {
	return r.items, r.total, nil
}

func (r *stubNotificationRepo) GetUnread(ctx context.Context, userID uint64) ([]entities.Notification, error) {
	return r.items, nil
}

func (r *stubNotificationRepo) CountUnread(ctx context.Context, userID uint64) (uint64, error) {
	return r.total, nil
}

func (r *stubNotificationRepo) FindNotification(ctx context.Context, id string, userID uint64) (*entities.Notification, error) {
	return nil, nil
}

func (r *stubNotificationRepo) MarkRead(ctx context.Context, userID uint64, ids []string) (uint64, error) {
	r.markedIDs = append(r.markedIDs, ids...)
	return uint64(len(ids)), nil
}

func (r *stubNotificationRepo) MarkAllRead(ctx context.Context, userID uint64) (uint64, error) {
	return r.total, nil
}

func (r *stubNotificationRepo) DeleteNotification(ctx context.Context, id string, userID uint64) error {
	return nil
}

func (r *stubNotificationRepo) DeleteRead(ctx context.Context, userID uint64) (uint64, error) {
	return 0, nil
}

func makeStored(n int) []entities.Notification {
	items := make([]entities.Notification, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, entities.Notification{
			ID:        "id",
			Type:      "member_added",
			Status:    entities.NotificationStatusUnread,
			Title:     "Новый участник",
			CreatedAt: time.Now(),
		})
	}
	return items
}

func TestNotificationService_HasMore(t *testing.T) {
	testCases := []struct {
		name     string
		offset   int
		returned int
		total    uint64
		expected bool
	}{
		{"первая страница из трёх", 0, 20, 50, true},
		{"последняя страница", 40, 10, 50, false},
		{"ровно одна страница", 0, 5, 5, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &stubNotificationRepo{items: makeStored(tc.returned), total: tc.total}
			svc := NewNotificationService(repo, zap.NewNop())

			data, err := svc.GetNotifications(context.Background(), 1, types.Filter{
				WithPagination: true,
				Offset:         tc.offset,
				Limit:          20,
			})
			require.NoError(t, err)
			assert.Equal(t, tc.expected, data.HasMore)
			assert.Equal(t, tc.total, data.Total)
		})
	}
}

// Счётчик combined-ответа всегда равен длине списка: клиент получает
// согласованную пару без склейки двух запросов.
func TestNotificationService_UnreadCombinedConsistent(t *testing.T) {
	repo := &stubNotificationRepo{items: makeStored(4)}
	svc := NewNotificationService(repo, zap.NewNop())

	data, err := svc.GetUnreadCombined(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), data.Count)
	assert.Len(t, data.Notifications, 4)
}

func TestNotificationService_MarkReadEmptyListSkipsRepo(t *testing.T) {
	repo := &stubNotificationRepo{}
	svc := NewNotificationService(repo, zap.NewNop())

	affected, err := svc.MarkRead(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Zero(t, affected)
	assert.Empty(t, repo.markedIDs)
}

func TestToNotificationDTO_NullableRefs(t *testing.T) {
	withClub := entities.Notification{
		ID:        "a",
		Type:      "vote_cast",
		Status:    entities.NotificationStatusUnread,
		ClubID:    null.Uint64From(7),
		RoundID:   null.Uint64From(3),
		CreatedAt: time.Now(),
	}
	d := ToNotificationDTO(&withClub)
	require.NotNil(t, d.ClubID)
	require.NotNil(t, d.RoundID)
	assert.Equal(t, uint64(7), *d.ClubID)
	assert.Equal(t, uint64(3), *d.RoundID)

	bare := entities.Notification{ID: "b", CreatedAt: time.Now()}
	d = ToNotificationDTO(&bare)
	assert.Nil(t, d.ClubID)
	assert.Nil(t, d.RoundID)
}

package listeners

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"club-system/internal/entities"
	"club-system/internal/events"
	"club-system/internal/repositories"
	"club-system/pkg/types"
	"club-system/pkg/websocket"
)

type fakeNotificationRepo struct {
	mu      sync.Mutex
	created []entities.Notification
}

func (r *fakeNotificationRepo) CreateNotifications(ctx context.Context, items []entities.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, items...)
	return nil
}

func (r *fakeNotificationRepo) GetNotifications(ctx context.Context, userID uint64, filter types.Filter) ([]entities.Notification, uint64, error) {
	return nil, 0, nil
}
func (r *fakeNotificationRepo) GetUnread(ctx context.Context, userID uint64) ([]entities.Notification, error) {
	return nil, nil
}
func (r *fakeNotificationRepo) CountUnread(ctx context.Context, userID uint64) (uint64, error) {
	return 0, nil
}
func (r *fakeNotificationRepo) FindNotification(ctx context.Context, id string, userID uint64) (*entities.Notification, error) {
	return nil, nil
}
func (r *fakeNotificationRepo) MarkRead(ctx context.Context, userID uint64, ids []string) (uint64, error) {
	return 0, nil
}
func (r *fakeNotificationRepo) MarkAllRead(ctx context.Context, userID uint64) (uint64, error) {
	return 0, nil
}
func (r *fakeNotificationRepo) DeleteNotification(ctx context.Context, id string, userID uint64) error {
	return nil
}
func (r *fakeNotificationRepo) DeleteRead(ctx context.Context, userID uint64) (uint64, error) {
	return 0, nil
}

func (r *fakeNotificationRepo) snapshot() []entities.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entities.Notification(nil), r.created...)
}

type fakeMemberRepo struct {
	memberIDs []uint64
}

func (r *fakeMemberRepo) ListMemberUserIDs(ctx context.Context, clubID uint64) ([]uint64, error) {
	return append([]uint64(nil), r.memberIDs...), nil
}

func (r *fakeMemberRepo) ListMembers(ctx context.Context, clubID uint64) ([]repositories.MemberRow, error) {
	return nil, nil
}
func (r *fakeMemberRepo) FindMember(ctx context.Context, clubID, userID uint64) (*entities.ClubMember, error) {
	return nil, nil
}
func (r *fakeMemberRepo) AddMember(ctx context.Context, tx pgx.Tx, clubID, userID uint64, role string) (*entities.ClubMember, error) {
	return nil, nil
}
func (r *fakeMemberRepo) RemoveMember(ctx context.Context, clubID, userID uint64) error { return nil }
func (r *fakeMemberRepo) ChangeRole(ctx context.Context, clubID, userID uint64, role string) (*entities.ClubMember, error) {
	return nil, nil
}
func (r *fakeMemberRepo) ListClubIDsForUser(ctx context.Context, userID uint64) ([]uint64, error) {
	return nil, nil
}
func (r *fakeMemberRepo) CountByRole(ctx context.Context, clubID uint64, role string) (uint64, error) {
	return 0, nil
}

func newTestListener(t *testing.T, memberIDs []uint64) (*RealtimeListener, *fakeNotificationRepo, *websocket.Hub) {
	t.Helper()

	hub := websocket.NewHub(nil, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	repo := &fakeNotificationRepo{}
	listener := NewRealtimeListener(repo, &fakeMemberRepo{memberIDs: memberIDs}, hub, zap.NewNop())
	return listener, repo, hub
}

// member_added создаёт уведомление каждому участнику, кроме инициатора.
func TestRealtimeListener_MemberAddedNotifiesOthers(t *testing.T) {
	listener, repo, _ := newTestListener(t, []uint64{1, 2, 3})

	err := listener.handleClubEvent(context.Background(), events.MemberAdded{
		ClubID:   7,
		ClubName: "Переплёт",
		UserID:   4,
		UserName: "Дилноза",
		Role:     "member",
		ActorID:  1,
	})
	require.NoError(t, err)

	created := repo.snapshot()
	require.Len(t, created, 2)

	recipients := []uint64{created[0].UserID, created[1].UserID}
	assert.ElementsMatch(t, []uint64{2, 3}, recipients)
	for _, n := range created {
		assert.Equal(t, "member_added", n.Type)
		assert.Equal(t, entities.NotificationStatusUnread, n.Status)
		assert.Equal(t, "Новый участник", n.Title)
		require.True(t, n.ClubID.Valid)
		assert.Equal(t, uint64(7), n.ClubID.Uint64)
		assert.NotEmpty(t, n.ID)
	}
}

// completion_updated — только живая рассылка, без записей в ленту.
func TestRealtimeListener_CompletionUpdatedCreatesNoRows(t *testing.T) {
	listener, repo, _ := newTestListener(t, []uint64{1, 2})

	err := listener.handleClubEvent(context.Background(), events.CompletionUpdated{
		ClubID:  7,
		RoundID: 3,
		UserID:  1,
	})
	require.NoError(t, err)
	assert.Empty(t, repo.snapshot())
}

// turn_changed адресуется только тому, чья очередь наступила.
func TestRealtimeListener_TurnChangedNotifiesOnlyNextUser(t *testing.T) {
	listener, repo, _ := newTestListener(t, []uint64{1, 2, 3})

	err := listener.handleClubEvent(context.Background(), events.TurnChanged{
		ClubID:     7,
		RoundID:    3,
		TurnUserID: 2,
		ActorID:    1,
	})
	require.NoError(t, err)

	created := repo.snapshot()
	require.Len(t, created, 1)
	assert.Equal(t, uint64(2), created[0].UserID)
	assert.Equal(t, "Ваша очередь", created[0].Title)
}

// Шквал голосов одного раунда схлопывается в одно уведомление на
// участника; голосовавшие его не получают.
func TestRealtimeListener_VoteBurstGrouped(t *testing.T) {
	listener, repo, _ := newTestListener(t, []uint64{1, 2, 3, 4})

	for _, voterID := range []uint64{1, 2} {
		err := listener.handleClubEvent(context.Background(), events.VoteCast{
			ClubID:    7,
			RoundID:   3,
			VoterID:   voterID,
			VoterName: "Алия",
		})
		require.NoError(t, err)
	}

	// До истечения окна группировки записей нет.
	assert.Empty(t, repo.snapshot())

	require.Eventually(t, func() bool {
		return len(repo.snapshot()) == 2
	}, voteGroupWindow+time.Second, 20*time.Millisecond)

	created := repo.snapshot()
	recipients := []uint64{created[0].UserID, created[1].UserID}
	assert.ElementsMatch(t, []uint64{3, 4}, recipients)
	for _, n := range created {
		assert.Equal(t, "Голосование идёт", n.Title)
		assert.Contains(t, n.Message, "ещё 1")
	}
}

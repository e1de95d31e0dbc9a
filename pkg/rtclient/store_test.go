package rtclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePlayer struct {
	mu    sync.Mutex
	plays int
}

func (p *fakePlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plays++
}

func (p *fakePlayer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.plays
}

// notificationServer — минимальный сервер уведомлений для тестов.
type notificationServer struct {
	mu           sync.Mutex
	unreadCount  uint64
	unread       []Notification
	all          []Notification
	failMarkRead bool
	combinedHits int
}

func (s *notificationServer) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/notifications/unread/combined", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.combinedHits++
		data := combinedData{Notifications: append([]Notification(nil), s.unread...), Count: s.unreadCount}
		s.mu.Unlock()
		writeEnvelope(w, data)
	})

	// PUT /api/notifications/{id}/read и /api/notifications/read-all
	mux.HandleFunc("/api/notifications/", func(w http.ResponseWriter, r *http.Request) {
		markPath := strings.HasSuffix(r.URL.Path, "/read") || strings.HasSuffix(r.URL.Path, "/read-all")
		if r.Method != http.MethodPut || !markPath {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		s.mu.Lock()
		fail := s.failMarkRead
		s.mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeEnvelope(w, map[string]bool{})
	})

	mux.HandleFunc("/api/notifications", func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}
		offset := (page - 1) * limit

		s.mu.Lock()
		total := len(s.all)
		end := offset + limit
		if end > total {
			end = total
		}
		var items []Notification
		if offset < total {
			items = append([]Notification(nil), s.all[offset:end]...)
		}
		s.mu.Unlock()

		writeEnvelope(w, listData{
			Notifications: items,
			Total:         uint64(total),
			HasMore:       end < total,
		})
	})

	return mux
}

func writeEnvelope(w http.ResponseWriter, data interface{}) {
	raw, _ := json.Marshal(data)
	json.NewEncoder(w).Encode(apiEnvelope{Success: true, Data: raw})
}

func newTestStore(t *testing.T, srv *notificationServer, player SoundPlayer) (*Store, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(srv.handler())
	t.Cleanup(ts.Close)

	api := NewDedupClient(DedupClientOptions{}, zap.NewNop())
	t.Cleanup(api.Close)

	store := NewStore(StoreOptions{
		BaseURL:  ts.URL,
		PageSize: 2,
		Player:   player,
	}, api, zap.NewNop())
	return store, ts
}

func makeNotifications(n int, status string) []Notification {
	out := make([]Notification, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Notification{
			ID:     fmt.Sprintf("id-%d", i),
			Type:   "member_added",
			Status: status,
			Title:  "Новый участник",
		})
	}
	return out
}

// Звук только при строгом росте счётчика и не при первой загрузке:
// 3 (старт), 4 — звук, 4 — тишина, 3 — тишина, 4 — звук.
func TestStore_SoundGating(t *testing.T) {
	srv := &notificationServer{}
	player := &fakePlayer{}
	store, _ := newTestStore(t, srv, player)

	setCount := func(n uint64) {
		srv.mu.Lock()
		srv.unreadCount = n
		srv.mu.Unlock()
	}
	refresh := func() {
		require.NoError(t, store.RefreshUnread(context.Background()))
	}

	setCount(3)
	refresh()
	assert.Equal(t, 0, player.count(), "первая загрузка всегда беззвучна")

	setCount(4)
	refresh()
	assert.Equal(t, 1, player.count(), "рост 3 -> 4 должен прозвучать")

	refresh()
	assert.Equal(t, 1, player.count(), "4 -> 4 без звука")

	setCount(3)
	refresh()
	assert.Equal(t, 1, player.count(), "падение без звука")

	setCount(4)
	refresh()
	assert.Equal(t, 2, player.count(), "повторный рост снова звучит")
}

func TestStore_SoundRespectsSetting(t *testing.T) {
	srv := &notificationServer{unreadCount: 1}
	player := &fakePlayer{}

	ts := httptest.NewServer(srv.handler())
	t.Cleanup(ts.Close)
	api := NewDedupClient(DedupClientOptions{}, zap.NewNop())
	t.Cleanup(api.Close)

	soundOn := false
	store := NewStore(StoreOptions{
		BaseURL:      ts.URL,
		Player:       player,
		SoundEnabled: func() bool { return soundOn },
	}, api, zap.NewNop())

	require.NoError(t, store.RefreshUnread(context.Background()))

	srv.mu.Lock()
	srv.unreadCount = 2
	srv.mu.Unlock()
	require.NoError(t, store.RefreshUnread(context.Background()))
	assert.Equal(t, 0, player.count(), "звук выключен настройкой")

	soundOn = true
	srv.mu.Lock()
	srv.unreadCount = 3
	srv.mu.Unlock()
	require.NoError(t, store.RefreshUnread(context.Background()))
	assert.Equal(t, 1, player.count())
}

// Сигнал о новом уведомлении сразу после загрузки обязан увидеть
// свежий счётчик и прозвучать, а не переиспользовать прежний ответ.
func TestStore_CreatedSignalSeesFreshCount(t *testing.T) {
	srv := &notificationServer{unreadCount: 3}
	player := &fakePlayer{}
	store, _ := newTestStore(t, srv, player)

	require.NoError(t, store.RefreshUnread(context.Background()))
	require.Equal(t, uint64(3), store.UnreadCount())

	srv.mu.Lock()
	srv.unreadCount = 4
	srv.mu.Unlock()

	store.HandleNotificationCreated(context.Background())

	assert.Equal(t, uint64(4), store.UnreadCount())
	assert.Equal(t, 1, player.count())
}

// Сигнал notification_created ведёт к refetch, а не к локальной вставке.
func TestStore_NotificationCreatedRefetches(t *testing.T) {
	srv := &notificationServer{unreadCount: 1, unread: makeNotifications(1, "unread")}
	store, _ := newTestStore(t, srv, nil)

	require.NoError(t, store.RefreshUnread(context.Background()))

	srv.mu.Lock()
	srv.unreadCount = 2
	srv.unread = makeNotifications(2, "unread")
	before := srv.combinedHits
	srv.mu.Unlock()

	store.HandleNotificationCreated(context.Background())

	srv.mu.Lock()
	after := srv.combinedHits
	srv.mu.Unlock()

	assert.Equal(t, before+1, after, "сигнал обязан дойти до сервера")
	assert.Equal(t, uint64(2), store.UnreadCount())
	assert.Len(t, store.Unread(), 2)
}

func TestStore_Pagination(t *testing.T) {
	srv := &notificationServer{all: makeNotifications(5, "read")}
	store, _ := newTestStore(t, srv, nil)

	require.NoError(t, store.LoadNextPage(context.Background()))
	assert.Len(t, store.Notifications(), 2)
	assert.True(t, store.HasMore())

	require.NoError(t, store.LoadNextPage(context.Background()))
	assert.Len(t, store.Notifications(), 4)
	assert.True(t, store.HasMore())

	require.NoError(t, store.LoadNextPage(context.Background()))
	assert.Len(t, store.Notifications(), 5)
	assert.False(t, store.HasMore())
}

func TestStore_MarkReadOptimistic(t *testing.T) {
	srv := &notificationServer{unreadCount: 2, unread: makeNotifications(2, "unread")}
	store, _ := newTestStore(t, srv, nil)

	require.NoError(t, store.RefreshUnread(context.Background()))
	require.Equal(t, uint64(2), store.UnreadCount())

	require.NoError(t, store.MarkRead(context.Background(), []string{"id-0"}))

	assert.Equal(t, uint64(1), store.UnreadCount(), "оптимистичное уменьшение счётчика")
	state, ok := store.MarkStateOf("id-0")
	require.True(t, ok)
	assert.Equal(t, MarkConfirmed, state)
	assert.Len(t, store.Unread(), 1, "из непрочитанных запись ушла")
}

func TestStore_MarkAllReadConfirmsMarks(t *testing.T) {
	srv := &notificationServer{unreadCount: 2, unread: makeNotifications(2, "unread")}
	store, _ := newTestStore(t, srv, nil)

	require.NoError(t, store.RefreshUnread(context.Background()))
	require.NoError(t, store.MarkAllRead(context.Background()))

	assert.Equal(t, uint64(0), store.UnreadCount())
	for _, id := range []string{"id-0", "id-1"} {
		state, ok := store.MarkStateOf(id)
		require.True(t, ok)
		assert.Equal(t, MarkConfirmed, state)
	}
}

func TestStore_MarkAllReadFailureMarksFailed(t *testing.T) {
	srv := &notificationServer{unreadCount: 2, unread: makeNotifications(2, "unread")}
	store, _ := newTestStore(t, srv, nil)

	require.NoError(t, store.RefreshUnread(context.Background()))

	srv.mu.Lock()
	srv.failMarkRead = true
	srv.mu.Unlock()

	require.Error(t, store.MarkAllRead(context.Background()))

	for _, id := range []string{"id-0", "id-1"} {
		state, ok := store.MarkStateOf(id)
		require.True(t, ok)
		assert.Equal(t, MarkFailed, state)
	}
	// Откат перечитал состояние с сервера.
	assert.Equal(t, uint64(2), store.UnreadCount())
}

func TestStore_MarkReadFailureRollsBack(t *testing.T) {
	srv := &notificationServer{
		unreadCount: 2,
		unread:      makeNotifications(2, "unread"),
		all:         makeNotifications(2, "unread"),
	}
	store, _ := newTestStore(t, srv, nil)

	require.NoError(t, store.LoadNextPage(context.Background()))
	require.NoError(t, store.RefreshUnread(context.Background()))
	require.Equal(t, uint64(2), store.UnreadCount())

	srv.mu.Lock()
	srv.failMarkRead = true
	srv.mu.Unlock()

	err := store.MarkRead(context.Background(), []string{"id-0"})
	require.Error(t, err)

	state, ok := store.MarkStateOf("id-0")
	require.True(t, ok)
	assert.Equal(t, MarkFailed, state)
	// Откат перечитал состояние с сервера.
	assert.Equal(t, uint64(2), store.UnreadCount())
	assert.Len(t, store.Unread(), 2)
}

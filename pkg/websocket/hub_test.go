package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePresence struct {
	mu           sync.Mutex
	connected    []uint64
	disconnected []uint64
}

func (p *fakePresence) UserConnected(ctx context.Context, userID uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = append(p.connected, userID)
}

func (p *fakePresence) UserDisconnected(ctx context.Context, userID uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disconnected = append(p.disconnected, userID)
}

func (p *fakePresence) snapshot() ([]uint64, []uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]uint64(nil), p.connected...), append([]uint64(nil), p.disconnected...)
}

func startHub(t *testing.T, presence PresenceListener) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(presence, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func register(t *testing.T, hub *Hub, userID uint64, connID string) *Client {
	t.Helper()
	client := NewClient(hub, nil, userID, connID, zap.NewNop())
	hub.Register <- client
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return hub.clients[client]
	}, time.Second, 5*time.Millisecond)
	return client
}

func receive(t *testing.T, client *Client) Envelope {
	t.Helper()
	select {
	case raw := <-client.Send:
		var env Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("сообщение не пришло")
		return Envelope{}
	}
}

func TestHub_BroadcastToRoomSkipsExcept(t *testing.T) {
	hub, _ := startHub(t, nil)

	actor := register(t, hub, 1, "c1")
	second := register(t, hub, 2, "c2")
	outsider := register(t, hub, 3, "c3")

	hub.JoinRooms(actor, []string{ClubRoom(7)})
	hub.JoinRooms(second, []string{ClubRoom(7)})

	require.NoError(t, hub.BroadcastToRoom(ClubRoom(7), map[string]uint64{"clubId": 7}, "club_updated", 1))

	env := receive(t, second)
	assert.Equal(t, "club_updated", env.Type)

	// Ни инициатор, ни посторонний ничего не получают.
	assert.Empty(t, actor.Send)
	assert.Empty(t, outsider.Send)
}

func TestHub_SendToUserReachesAllConnections(t *testing.T) {
	hub, _ := startHub(t, nil)

	first := register(t, hub, 5, "tab-1")
	second := register(t, hub, 5, "tab-2")
	other := register(t, hub, 6, "c3")

	require.NoError(t, hub.SendToUser(5, map[string]string{"notificationId": "abc"}, "notification_created"))

	assert.Equal(t, "notification_created", receive(t, first).Type)
	assert.Equal(t, "notification_created", receive(t, second).Type)
	assert.Empty(t, other.Send)
}

// Персональная комната подключается автоматически при регистрации.
func TestHub_AutoJoinsUserRoom(t *testing.T) {
	hub, _ := startHub(t, nil)

	client := register(t, hub, 9, "c1")

	require.NoError(t, hub.BroadcastToRoom(UserRoom(9), map[string]string{}, "notification"))
	assert.Equal(t, "notification", receive(t, client).Type)
}

// Присутствие сигналится по первой вкладке и последнему отключению,
// а не по каждому соединению.
func TestHub_PresencePerUserNotPerConnection(t *testing.T) {
	presence := &fakePresence{}
	hub, _ := startHub(t, presence)

	first := register(t, hub, 5, "tab-1")
	second := register(t, hub, 5, "tab-2")

	require.Eventually(t, func() bool {
		connected, _ := presence.snapshot()
		return len(connected) == 1
	}, time.Second, 5*time.Millisecond)

	hub.unregister <- first
	require.Eventually(t, func() bool {
		return hub.ConnectionCount() == 1
	}, time.Second, 5*time.Millisecond)

	_, disconnected := presence.snapshot()
	assert.Empty(t, disconnected, "вторая вкладка ещё жива")

	hub.unregister <- second
	require.Eventually(t, func() bool {
		_, disconnected := presence.snapshot()
		return len(disconnected) == 1
	}, time.Second, 5*time.Millisecond)

	connected, disconnected := presence.snapshot()
	assert.Equal(t, []uint64{5}, connected)
	assert.Equal(t, []uint64{5}, disconnected)
}

func TestHub_LeaveRoomsStopsDelivery(t *testing.T) {
	hub, _ := startHub(t, nil)

	client := register(t, hub, 1, "c1")
	hub.JoinRooms(client, []string{ClubRoom(7)})
	hub.LeaveRooms(client, []string{ClubRoom(7)})

	require.NoError(t, hub.BroadcastToRoom(ClubRoom(7), map[string]string{}, "club_updated"))
	assert.Empty(t, client.Send)
}

package rtclient

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"club-system/pkg/websocket"
)

// fakeConn — соединение для тестов: входящие кадры подаются через
// канал, исходящие копятся в срезе.
type fakeConn struct {
	incoming chan []byte

	mu     sync.Mutex
	sent   [][]byte
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{incoming: make(chan []byte, 16)}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	msg, ok := <-c.incoming
	if !ok {
		return 0, nil, errors.New("соединение закрыто")
	}
	return 1, msg, nil
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, append([]byte(nil), data...))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.incoming)
	}
	return nil
}

func (c *fakeConn) sentFrames() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.sent...)
}

type statusLog struct {
	mu       sync.Mutex
	statuses []Status
}

func (l *statusLog) add(s Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.statuses = append(l.statuses, s)
}

func (l *statusLog) snapshot() []Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Status(nil), l.statuses...)
}

func (l *statusLog) last() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.statuses) == 0 {
		return ""
	}
	return l.statuses[len(l.statuses)-1]
}

// После исчерпания попыток менеджер переходит в gave_up и больше не
// набирает, пока Connect не вызовут заново.
func TestManager_GivesUpAfterMaxAttempts(t *testing.T) {
	var (
		mu    sync.Mutex
		dials []time.Time
	)
	dial := func(ctx context.Context, url string) (Conn, error) {
		mu.Lock()
		dials = append(dials, time.Now())
		mu.Unlock()
		return nil, errors.New("сервер недоступен")
	}

	log := &statusLog{}
	m := NewManager(ManagerOptions{
		URL:            "ws://unused",
		BackoffBase:    10 * time.Millisecond,
		MaxAttempts:    3,
		Dial:           dial,
		OnStatusChange: log.add,
	}, zap.NewNop())

	m.Connect(context.Background())

	require.Eventually(t, func() bool {
		return log.last() == StatusGaveUp
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	attempts := len(dials)
	var gap1, gap2 time.Duration
	if attempts == 3 {
		gap1 = dials[1].Sub(dials[0])
		gap2 = dials[2].Sub(dials[1])
	}
	mu.Unlock()

	assert.Equal(t, 3, attempts)
	// Пауза растёт: вторая ощутимо длиннее первой.
	assert.Greater(t, gap2, gap1)
	assert.Equal(t, StatusGaveUp, m.Status())

	// Больше попыток не предпринимается.
	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 3, len(dials))
	mu.Unlock()
}

func TestManager_DeliversFramesAndRejoinsRooms(t *testing.T) {
	conn := newFakeConn()
	dial := func(ctx context.Context, url string) (Conn, error) {
		return conn, nil
	}

	m := NewManager(ManagerOptions{
		URL:         "ws://unused",
		BackoffBase: 10 * time.Millisecond,
		Dial:        dial,
	}, zap.NewNop())
	defer m.Close()

	var (
		mu     sync.Mutex
		frames []Frame
	)
	m.OnFrame(func(f Frame) {
		mu.Lock()
		frames = append(frames, f)
		mu.Unlock()
	})

	m.JoinRooms(websocket.ClubRoom(7))
	m.Connect(context.Background())

	require.Eventually(t, func() bool {
		return m.Status() == StatusConnected
	}, time.Second, 5*time.Millisecond)

	// При подключении ушёл кадр подписки на сохранённые комнаты.
	require.Eventually(t, func() bool {
		return len(conn.sentFrames()) == 1
	}, time.Second, 5*time.Millisecond)

	var ctrl websocket.ControlFrame
	require.NoError(t, json.Unmarshal(conn.sentFrames()[0], &ctrl))
	assert.Equal(t, websocket.ControlJoinRooms, ctrl.Type)
	assert.Equal(t, []string{"club:7"}, ctrl.Rooms)

	conn.incoming <- []byte(`{"type":"vote_cast","payload":{"clubId":7,"roundId":3}}`)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(frames) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, "vote_cast", frames[0].Type)
	mu.Unlock()
}

func TestManager_ReconnectsAfterDrop(t *testing.T) {
	var (
		mu    sync.Mutex
		conns []*fakeConn
	)
	dial := func(ctx context.Context, url string) (Conn, error) {
		c := newFakeConn()
		mu.Lock()
		conns = append(conns, c)
		mu.Unlock()
		return c, nil
	}

	log := &statusLog{}
	m := NewManager(ManagerOptions{
		URL:            "ws://unused",
		BackoffBase:    10 * time.Millisecond,
		Dial:           dial,
		OnStatusChange: log.add,
	}, zap.NewNop())
	defer m.Close()

	m.Connect(context.Background())

	require.Eventually(t, func() bool {
		return m.Status() == StatusConnected
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	first := conns[0]
	mu.Unlock()
	first.Close()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(conns) == 2 && m.Status() == StatusConnected
	}, time.Second, 5*time.Millisecond)

	assert.Contains(t, log.snapshot(), StatusReconnecting)
}

// Обрыв после успешного соединения не тратит счётчик: до gave_up
// доступен полный запас повторных попыток.
func TestManager_DropGetsFullRetryBudget(t *testing.T) {
	conn := newFakeConn()
	var (
		mu        sync.Mutex
		dialCount int
	)
	dial := func(ctx context.Context, url string) (Conn, error) {
		mu.Lock()
		defer mu.Unlock()
		dialCount++
		if dialCount == 1 {
			return conn, nil
		}
		return nil, errors.New("сервер недоступен")
	}

	m := NewManager(ManagerOptions{
		URL:         "ws://unused",
		BackoffBase: 5 * time.Millisecond,
		MaxAttempts: 3,
		Dial:        dial,
	}, zap.NewNop())

	m.Connect(context.Background())
	require.Eventually(t, func() bool {
		return m.Status() == StatusConnected
	}, time.Second, 5*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		return m.Status() == StatusGaveUp
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	retries := dialCount - 1
	mu.Unlock()
	assert.Equal(t, 3, retries)
}

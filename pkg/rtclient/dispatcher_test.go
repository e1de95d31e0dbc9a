package rtclient

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(mark string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, mark)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func TestDispatcher_PriorityAndWildcard(t *testing.T) {
	d := NewDispatcher(zap.NewNop())
	defer d.Close()

	var got callLog
	d.Register("votes-panel", 1, func(eventType string, payload json.RawMessage) {
		got.add("low:" + eventType)
	}, "vote_cast")
	d.Register("cache", 10, func(eventType string, payload json.RawMessage) {
		got.add("high:" + eventType)
	}, "vote_cast")
	d.Register("audit", 5, func(eventType string, payload json.RawMessage) {
		got.add("wild:" + eventType)
	}, Wildcard)

	d.Emit(Frame{Type: "vote_cast"})
	d.Emit(Frame{Type: "club_updated"})

	require.Eventually(t, func() bool {
		return len(got.snapshot()) == 4
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{
		"high:vote_cast", "wild:vote_cast", "low:vote_cast",
		"wild:club_updated",
	}, got.snapshot())
}

func TestDispatcher_Unregister(t *testing.T) {
	d := NewDispatcher(zap.NewNop())
	defer d.Close()

	var got callLog
	off := d.Register("first", 0, func(eventType string, payload json.RawMessage) {
		got.add("first")
	}, "ping")
	d.Register("second", 0, func(eventType string, payload json.RawMessage) {
		got.add("second")
	}, "ping")

	off()
	d.Emit(Frame{Type: "ping"})

	require.Eventually(t, func() bool {
		return len(got.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"second"}, got.snapshot())
}

func TestDispatcher_PanicIsolated(t *testing.T) {
	d := NewDispatcher(zap.NewNop())
	defer d.Close()

	var got callLog
	d.Register("broken", 10, func(eventType string, payload json.RawMessage) {
		panic("обработчик упал")
	}, "ping")
	d.Register("survivor", 1, func(eventType string, payload json.RawMessage) {
		got.add("survivor")
	}, "ping")

	d.Emit(Frame{Type: "ping"})
	d.Emit(Frame{Type: "ping"})

	require.Eventually(t, func() bool {
		return len(got.snapshot()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"survivor", "survivor"}, got.snapshot())
}

func TestDispatcher_PayloadDelivered(t *testing.T) {
	d := NewDispatcher(zap.NewNop())
	defer d.Close()

	var (
		mu      sync.Mutex
		payload json.RawMessage
	)
	d.Register("votes-panel", 0, func(eventType string, p json.RawMessage) {
		mu.Lock()
		payload = p
		mu.Unlock()
	}, "vote_cast")

	d.Emit(Frame{Type: "vote_cast", Payload: json.RawMessage(`{"clubId":7}`)})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return payload != nil
	}, time.Second, 5*time.Millisecond)

	var ref struct {
		ClubID uint64 `json:"clubId"`
	}
	mu.Lock()
	require.NoError(t, json.Unmarshal(payload, &ref))
	mu.Unlock()
	assert.Equal(t, uint64(7), ref.ClubID)
}

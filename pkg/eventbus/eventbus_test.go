package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct{ name string }

func (e testEvent) Name() string { return e.name }

// collector потокобезопасно копит отметки вызовов слушателей.
type collector struct {
	mu    sync.Mutex
	calls []string
}

func (c *collector) add(mark string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, mark)
}

func (c *collector) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func TestBus_PriorityOrder(t *testing.T) {
	bus := New(zap.NewNop())
	defer bus.Close()

	var got collector
	bus.SubscribeWithPriority(1, func(ctx context.Context, e Event) error {
		got.add("low")
		return nil
	}, "ping")
	bus.SubscribeWithPriority(10, func(ctx context.Context, e Event) error {
		got.add("high")
		return nil
	}, "ping")

	bus.Publish(context.Background(), testEvent{name: "ping"})

	require.Eventually(t, func() bool {
		return len(got.snapshot()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"high", "low"}, got.snapshot())
}

func TestBus_WildcardReceivesEverything(t *testing.T) {
	bus := New(zap.NewNop())
	defer bus.Close()

	var got collector
	bus.Subscribe(Wildcard, func(ctx context.Context, e Event) error {
		got.add(e.Name())
		return nil
	})

	bus.Publish(context.Background(), testEvent{name: "first"})
	bus.Publish(context.Background(), testEvent{name: "second"})

	require.Eventually(t, func() bool {
		return len(got.snapshot()) == 2
	}, time.Second, 5*time.Millisecond)
	// Порядок публикации сохраняется: одна очередь, один воркер.
	assert.Equal(t, []string{"first", "second"}, got.snapshot())
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New(zap.NewNop())
	defer bus.Close()

	var got collector
	unsubscribe := bus.Subscribe("ping", func(ctx context.Context, e Event) error {
		got.add("ping")
		return nil
	})
	bus.Subscribe("other", func(ctx context.Context, e Event) error {
		got.add("other")
		return nil
	})

	unsubscribe()
	bus.Publish(context.Background(), testEvent{name: "ping"})
	bus.Publish(context.Background(), testEvent{name: "other"})

	require.Eventually(t, func() bool {
		return len(got.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"other"}, got.snapshot())
}

func TestBus_PanicDoesNotStopOthers(t *testing.T) {
	bus := New(zap.NewNop())
	defer bus.Close()

	var got collector
	bus.SubscribeWithPriority(10, func(ctx context.Context, e Event) error {
		panic("что-то пошло не так")
	}, "ping")
	bus.SubscribeWithPriority(1, func(ctx context.Context, e Event) error {
		got.add("survivor")
		return nil
	}, "ping")

	bus.Publish(context.Background(), testEvent{name: "ping"})

	require.Eventually(t, func() bool {
		return len(got.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"survivor"}, got.snapshot())
}

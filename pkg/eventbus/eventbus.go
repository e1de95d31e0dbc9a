package eventbus

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Wildcard подписывает слушателя на все события.
const Wildcard = "*"

// Event представляет собой любое событие в системе.
type Event interface {
	Name() string
}

// Listener — обработчик (слушатель) событий.
type Listener func(ctx context.Context, event Event) error

type subscription struct {
	id       uint64
	names    map[string]struct{}
	wildcard bool
	priority int
	listener Listener
}

// Bus — шина событий. События обрабатываются строго в порядке публикации:
// одна очередь, один воркер. Слушатели одного события вызываются по убыванию
// приоритета; паника или ошибка слушателя логируется и не мешает остальным.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID uint64

	queue  chan Event
	done   chan struct{}
	closed sync.Once

	listenerTimeout time.Duration
	logger          *zap.Logger
}

// New создает новую шину событий и запускает воркер очереди.
func New(logger *zap.Logger) *Bus {
	b := &Bus{
		queue:           make(chan Event, 256),
		done:            make(chan struct{}),
		listenerTimeout: time.Minute,
		logger:          logger,
	}
	go b.run()
	return b
}

// Subscribe подписывает слушателя на события с приоритетом 0.
// Возвращает функцию отписки.
func (b *Bus) Subscribe(eventName string, listener Listener) func() {
	return b.SubscribeWithPriority(0, listener, eventName)
}

// SubscribeWithPriority подписывает слушателя на несколько типов событий
// (или на Wildcard). Больший приоритет — раньше вызов.
func (b *Bus) SubscribeWithPriority(priority int, listener Listener, eventNames ...string) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := subscription{
		id:       b.nextID,
		names:    make(map[string]struct{}, len(eventNames)),
		priority: priority,
		listener: listener,
	}
	for _, name := range eventNames {
		if name == Wildcard {
			sub.wildcard = true
			continue
		}
		sub.names[name] = struct{}{}
	}
	b.subs = append(b.subs, sub)

	id := sub.id
	return func() { b.unsubscribe(id) }
}

func (b *Bus) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subs {
		if sub.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish ставит событие в очередь. Порядок публикации сохраняется.
func (b *Bus) Publish(ctx context.Context, event Event) {
	select {
	case b.queue <- event:
	case <-b.done:
	case <-ctx.Done():
		b.logger.Warn("Публикация события отменена контекстом", zap.String("event", event.Name()))
	}
}

// Close останавливает воркер. Уже опубликованные события дорабатываются.
func (b *Bus) Close() {
	b.closed.Do(func() { close(b.done) })
}

func (b *Bus) run() {
	for {
		select {
		case event := <-b.queue:
			b.dispatch(event)
		case <-b.done:
			// добираем хвост очереди
			for {
				select {
				case event := <-b.queue:
					b.dispatch(event)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) dispatch(event Event) {
	eventName := event.Name()

	b.mu.RLock()
	matched := make([]subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.wildcard {
			matched = append(matched, sub)
			continue
		}
		if _, ok := sub.names[eventName]; ok {
			matched = append(matched, sub)
		}
	}
	b.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].priority > matched[j].priority })

	for _, sub := range matched {
		b.invoke(sub, event)
	}
}

func (b *Bus) invoke(sub subscription, event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), b.listenerTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Паника в обработчике события",
				zap.String("event", event.Name()),
				zap.Any("panic", r),
			)
		}
	}()

	if err := sub.listener(ctx, event); err != nil {
		b.logger.Error("Ошибка в обработчике события",
			zap.String("event", event.Name()),
			zap.Error(err),
		)
	}
}

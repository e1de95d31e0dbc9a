package rtclient

import (
	"encoding/json"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Wildcard — подписка на все типы событий.
const Wildcard = "*"

// FrameHandler получает тип события и сырую полезную нагрузку.
type FrameHandler func(eventType string, payload json.RawMessage)

type registration struct {
	id        uint64
	component string
	priority  int
	handler   FrameHandler
}

// Dispatcher — реестр обработчиков входящих событий. Все события
// проходят через одну очередь и доставляются последовательно:
// обработчики с большим приоритетом раньше, подписчики на Wildcard
// получают всё. Паника в обработчике гасится и не роняет очередь.
type Dispatcher struct {
	logger *zap.Logger

	mu       sync.Mutex
	handlers map[string][]registration
	nextID   uint64

	queue  chan Frame
	done   chan struct{}
	closed bool
}

func NewDispatcher(logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		logger:   logger,
		handlers: make(map[string][]registration),
		queue:    make(chan Frame, 256),
		done:     make(chan struct{}),
	}
	go d.loop()
	return d
}

// Register добавляет обработчик для перечисленных типов событий и
// возвращает функцию отписки. Имя компонента-владельца попадает в
// журнал при панике обработчика.
func (d *Dispatcher) Register(component string, priority int, h FrameHandler, eventTypes ...string) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	reg := registration{id: d.nextID, component: component, priority: priority, handler: h}
	for _, t := range eventTypes {
		d.handlers[t] = append(d.handlers[t], reg)
	}

	id := reg.id
	types := append([]string(nil), eventTypes...)
	return func() { d.unregister(id, types) }
}

func (d *Dispatcher) unregister(id uint64, eventTypes []string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, t := range eventTypes {
		regs := d.handlers[t]
		for i, reg := range regs {
			if reg.id == id {
				d.handlers[t] = append(regs[:i], regs[i+1:]...)
				break
			}
		}
		if len(d.handlers[t]) == 0 {
			delete(d.handlers, t)
		}
	}
}

// Emit ставит событие в очередь доставки.
func (d *Dispatcher) Emit(frame Frame) {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return
	}

	select {
	case d.queue <- frame:
	default:
		d.logger.Warn("Очередь событий переполнена, событие отброшено",
			zap.String("type", frame.Type))
	}
}

// Close останавливает очередь после доставки уже принятых событий.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	close(d.queue)
	<-d.done
}

func (d *Dispatcher) loop() {
	defer close(d.done)
	for frame := range d.queue {
		d.dispatch(frame)
	}
}

func (d *Dispatcher) dispatch(frame Frame) {
	d.mu.Lock()
	regs := make([]registration, 0, len(d.handlers[frame.Type])+len(d.handlers[Wildcard]))
	regs = append(regs, d.handlers[frame.Type]...)
	regs = append(regs, d.handlers[Wildcard]...)
	d.mu.Unlock()

	// Больший приоритет доставляется раньше; при равенстве порядок
	// регистрации.
	sort.SliceStable(regs, func(i, j int) bool {
		return regs[i].priority > regs[j].priority
	})

	for _, reg := range regs {
		d.invoke(reg, frame)
	}
}

func (d *Dispatcher) invoke(reg registration, frame Frame) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Паника в обработчике события",
				zap.String("component", reg.component),
				zap.Uint64("registrationId", reg.id),
				zap.String("type", frame.Type), zap.Any("panic", r))
		}
	}()
	reg.handler(frame.Type, frame.Payload)
}

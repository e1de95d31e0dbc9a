package rtclient

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	gorilla "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"club-system/pkg/websocket"
)

// Frame — входящий конверт в сыром виде: полезная нагрузка остаётся
// json.RawMessage и разбирается уже обработчиками.
type Frame struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// Status — состояние транспортного соединения.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusReconnecting Status = "reconnecting"
	// StatusGaveUp — терминальное состояние: попытки исчерпаны, новые не
	// предпринимаются до явного вызова Connect.
	StatusGaveUp Status = "gave_up"
)

const (
	defaultBackoffBase = time.Second
	defaultMaxAttempts = 5
)

// Conn — минимальный срез соединения, который нужен менеджеру.
// *websocket.Conn из gorilla подходит без обёрток.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// DialFunc открывает соединение. Подменяется в тестах.
type DialFunc func(ctx context.Context, url string) (Conn, error)

func gorillaDial(ctx context.Context, url string) (Conn, error) {
	conn, _, err := gorilla.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// ManagerOptions — настройки транспортного менеджера.
type ManagerOptions struct {
	// URL соединения вместе с токеном (ws://host/ws?token=...).
	URL string
	// BackoffBase — пауза перед первой повторной попыткой; каждая
	// следующая вдвое длиннее. По умолчанию 1s.
	BackoffBase time.Duration
	// MaxAttempts — число повторных попыток до gave_up. По умолчанию 5.
	MaxAttempts int
	// Dial — способ открыть соединение. По умолчанию gorilla/websocket.
	Dial DialFunc
	// OnStatusChange дергается при каждой смене состояния.
	OnStatusChange func(Status)
}

// Manager держит одно websocket-соединение с сервером: подключение,
// переподключение с удвоением паузы, подписка на комнаты и доставка
// входящих конвертов наружу.
type Manager struct {
	opts   ManagerOptions
	logger *zap.Logger

	mu       sync.Mutex
	status   Status
	conn     Conn
	rooms    map[string]bool
	cancel   context.CancelFunc
	onFrame  func(Frame)
	attempts int
}

func NewManager(opts ManagerOptions, logger *zap.Logger) *Manager {
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = defaultBackoffBase
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.Dial == nil {
		opts.Dial = gorillaDial
	}
	return &Manager{
		opts:   opts,
		logger: logger,
		status: StatusDisconnected,
		rooms:  make(map[string]bool),
	}
}

// OnFrame задаёт получателя входящих конвертов. Вызывается до Connect.
func (m *Manager) OnFrame(fn func(Frame)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFrame = fn
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	changed := m.status != s
	m.status = s
	cb := m.opts.OnStatusChange
	m.mu.Unlock()

	if changed && cb != nil {
		cb(s)
	}
}

// Connect запускает цикл соединения. Повторный вызов после gave_up
// начинает счёт попыток заново.
func (m *Manager) Connect(ctx context.Context) {
	m.mu.Lock()
	if m.cancel != nil {
		m.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.attempts = 0
	m.mu.Unlock()

	go m.run(runCtx)
}

// Close разрывает соединение и останавливает цикл.
func (m *Manager) Close() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
	}
	m.setStatus(StatusDisconnected)
}

func (m *Manager) run(ctx context.Context) {
	for {
		m.mu.Lock()
		attempt := m.attempts
		reconnecting := m.status == StatusReconnecting
		m.mu.Unlock()

		if attempt == 0 && !reconnecting {
			m.setStatus(StatusConnecting)
		} else {
			m.setStatus(StatusReconnecting)
		}

		conn, err := m.opts.Dial(ctx, m.opts.URL)
		if err != nil {
			m.mu.Lock()
			m.attempts++
			attempt = m.attempts
			m.mu.Unlock()

			if attempt >= m.opts.MaxAttempts {
				m.logger.Warn("Попытки подключения исчерпаны", zap.Int("attempts", attempt))
				m.mu.Lock()
				m.cancel = nil
				m.mu.Unlock()
				m.setStatus(StatusGaveUp)
				return
			}

			// Пауза удваивается: base, base*2, base*4...
			delay := m.opts.BackoffBase << (attempt - 1)
			m.logger.Info("Переподключение",
				zap.Int("attempt", attempt), zap.Duration("delay", delay), zap.Error(err))

			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return
			}
		}

		m.mu.Lock()
		m.conn = conn
		m.attempts = 0
		rooms := roomList(m.rooms)
		m.mu.Unlock()

		m.setStatus(StatusConnected)

		// После переподключения комнаты переподписываются сами.
		if len(rooms) > 0 {
			m.sendControl(websocket.ControlJoinRooms, rooms)
		}

		if err := m.readLoop(ctx, conn); err != nil {
			m.logger.Warn("Соединение разорвано", zap.Error(err))
		}

		// Обрыв после успешного соединения получает полный запас
		// попыток; первую паузу даёт ожидание ниже.
		m.mu.Lock()
		m.conn = nil
		m.attempts = 0
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			m.setStatus(StatusDisconnected)
			return
		default:
		}

		m.setStatus(StatusReconnecting)
		select {
		case <-time.After(m.opts.BackoffBase):
			continue
		case <-ctx.Done():
			m.setStatus(StatusDisconnected)
			return
		}
	}
}

func (m *Manager) readLoop(ctx context.Context, conn Conn) error {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var frame Frame
		if err := json.Unmarshal(message, &frame); err != nil {
			m.logger.Debug("Нечитаемый конверт", zap.Error(err))
			continue
		}

		m.mu.Lock()
		fn := m.onFrame
		m.mu.Unlock()
		if fn != nil {
			fn(frame)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// JoinRooms подписывает соединение на комнаты и запоминает их для
// переподключения.
func (m *Manager) JoinRooms(rooms ...string) {
	m.mu.Lock()
	for _, r := range rooms {
		m.rooms[r] = true
	}
	m.mu.Unlock()
	m.sendControl(websocket.ControlJoinRooms, rooms)
}

func (m *Manager) LeaveRooms(rooms ...string) {
	m.mu.Lock()
	for _, r := range rooms {
		delete(m.rooms, r)
	}
	m.mu.Unlock()
	m.sendControl(websocket.ControlLeaveRooms, rooms)
}

func (m *Manager) sendControl(frameType string, rooms []string) {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil || len(rooms) == 0 {
		return
	}

	frame, err := json.Marshal(websocket.ControlFrame{Type: frameType, Rooms: rooms})
	if err != nil {
		return
	}
	if err := conn.WriteMessage(gorilla.TextMessage, frame); err != nil {
		m.logger.Warn("Не удалось отправить управляющий кадр", zap.Error(err))
	}
}

func roomList(set map[string]bool) []string {
	rooms := make([]string, 0, len(set))
	for r := range set {
		rooms = append(rooms, r)
	}
	return rooms
}

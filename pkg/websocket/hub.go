package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PresenceListener получает сигналы о первом подключении и последнем
// отключении пользователя (а не о каждой вкладке браузера).
type PresenceListener interface {
	UserConnected(ctx context.Context, userID uint64)
	UserDisconnected(ctx context.Context, userID uint64)
}

// Hub управляет всеми клиентами, комнатами и рассылкой сообщений.
type Hub struct {
	clients     map[*Client]bool
	userClients map[uint64][]*Client
	rooms       map[string]map[*Client]bool

	Register   chan *Client
	unregister chan *Client

	presence PresenceListener
	logger   *zap.Logger
	mu       sync.RWMutex
}

func NewHub(presence PresenceListener, logger *zap.Logger) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		userClients: make(map[uint64][]*Client),
		rooms:       make(map[string]map[*Client]bool),
		Register:    make(chan *Client),
		unregister:  make(chan *Client),
		presence:    presence,
		logger:      logger,
	}
}

// Run обрабатывает регистрацию и отключение клиентов до отмены контекста.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.Register:
			h.addClient(ctx, client)
		case client := <-h.unregister:
			h.removeClient(ctx, client)
		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

func (h *Hub) addClient(ctx context.Context, client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.userClients[client.UserID] = append(h.userClients[client.UserID], client)
	firstConnection := len(h.userClients[client.UserID]) == 1
	h.mu.Unlock()

	// Персональная комната — всегда, без запроса клиента.
	h.JoinRooms(client, []string{UserRoom(client.UserID)})

	h.logger.Info("Клиент зарегистрирован",
		zap.Uint64("userID", client.UserID),
		zap.String("connID", client.ConnID),
	)

	if firstConnection && h.presence != nil {
		h.presence.UserConnected(ctx, client.UserID)
	}
}

func (h *Hub) removeClient(ctx context.Context, client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.Send)

	for room := range client.rooms {
		h.dropFromRoom(room, client)
	}

	clients := h.userClients[client.UserID]
	for i, c := range clients {
		if c == client {
			h.userClients[client.UserID] = append(clients[:i], clients[i+1:]...)
			break
		}
	}
	lastConnection := len(h.userClients[client.UserID]) == 0
	if lastConnection {
		delete(h.userClients, client.UserID)
	}
	h.mu.Unlock()

	h.logger.Info("Клиент отсоединен",
		zap.Uint64("userID", client.UserID),
		zap.String("connID", client.ConnID),
	)

	if lastConnection && h.presence != nil {
		h.presence.UserDisconnected(ctx, client.UserID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.Send)
		delete(h.clients, client)
	}
	h.userClients = make(map[uint64][]*Client)
	h.rooms = make(map[string]map[*Client]bool)
}

// JoinRooms добавляет клиента в комнаты (вызывается из readPump по
// управляющему кадру и хабом при регистрации).
func (h *Hub) JoinRooms(client *Client, rooms []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range rooms {
		if h.rooms[room] == nil {
			h.rooms[room] = make(map[*Client]bool)
		}
		h.rooms[room][client] = true
		client.rooms[room] = true
	}
}

func (h *Hub) LeaveRooms(client *Client, rooms []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range rooms {
		h.dropFromRoom(room, client)
		delete(client.rooms, room)
	}
}

// dropFromRoom — вызывать только под h.mu.
func (h *Hub) dropFromRoom(room string, client *Client) {
	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// SendToUser отправляет сообщение во все соединения конкретного пользователя.
func (h *Hub) SendToUser(userID uint64, payload interface{}, messageType string) error {
	messageBytes, err := h.marshal(payload, messageType)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.userClients[userID] {
		h.trySend(client, messageBytes)
	}
	return nil
}

// BroadcastToRoom отправляет сообщение всем участникам комнаты, кроме
// перечисленных в except.
func (h *Hub) BroadcastToRoom(room string, payload interface{}, messageType string, except ...uint64) error {
	messageBytes, err := h.marshal(payload, messageType)
	if err != nil {
		return err
	}

	skip := make(map[uint64]struct{}, len(except))
	for _, id := range except {
		skip[id] = struct{}{}
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[room] {
		if _, ok := skip[client.UserID]; ok {
			continue
		}
		h.trySend(client, messageBytes)
	}
	return nil
}

// ConnectionCount — число живых соединений (для health/отладки).
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) marshal(payload interface{}, messageType string) ([]byte, error) {
	envelope := Envelope{
		Type:      messageType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
	messageBytes, err := json.Marshal(envelope)
	if err != nil {
		h.logger.Error("Ошибка сериализации сообщения для WebSocket", zap.Error(err))
		return nil, err
	}
	return messageBytes, nil
}

// trySend — вызывать только под h.mu (хотя бы на чтение). Медленного
// клиента с забитым буфером просто пропускаем: слой best-effort.
func (h *Hub) trySend(client *Client, message []byte) {
	select {
	case client.Send <- message:
	default:
		h.logger.Warn("Буфер отправки переполнен, сообщение пропущено",
			zap.Uint64("userID", client.UserID))
	}
}

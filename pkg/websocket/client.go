package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client — одно websocket-соединение пользователя.
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	UserID uint64
	ConnID string

	// комнаты этого соединения; защищены мьютексом хаба
	rooms map[string]bool

	logger *zap.Logger
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uint64, connID string, logger *zap.Logger) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		UserID: userID,
		ConnID: connID,
		rooms:  make(map[string]bool),
		logger: logger,
	}
}

// ReadPump читает управляющие кадры (join_rooms/leave_rooms) до разрыва
// соединения. Любое другое входящее сообщение игнорируется.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("Неожиданный разрыв websocket-соединения", zap.Error(err))
			}
			break
		}

		var frame ControlFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			c.logger.Debug("Нечитаемый управляющий кадр", zap.Error(err))
			continue
		}

		switch frame.Type {
		case ControlJoinRooms:
			c.Hub.JoinRooms(c, frame.Rooms)
		case ControlLeaveRooms:
			c.Hub.LeaveRooms(c, frame.Rooms)
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Package rtclient — Go-клиент слоя обновлений в реальном времени:
// websocket-транспорт с переподключением, реестр обработчиков событий,
// дедупликация HTTP-запросов, точечный сброс кэша и хранилище
// уведомлений.
package rtclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"club-system/internal/events"
	"club-system/pkg/websocket"
)

// ClientOptions — настройки собранного клиента.
type ClientOptions struct {
	// BaseURL — адрес API, например http://localhost:8080.
	BaseURL string
	// WsURL — адрес websocket, например ws://localhost:8080/ws.
	WsURL string
	// Token — access-токен; уходит и в query websocket-а, и в
	// Authorization HTTP-запросов.
	Token string

	BackoffBase    time.Duration
	MaxAttempts    int
	DebounceWindow time.Duration
	DedupTTL       time.Duration

	Player       SoundPlayer
	SoundEnabled func() bool
	OnStatus     func(Status)
	// OnUnauthorized — реакция на ответ 401 любого API-запроса;
	// здесь сбрасывают сохранённую сессию.
	OnUnauthorized func()
}

// Client связывает компоненты: транспорт кладёт входящие конверты в
// диспетчер, диспетчер через Wildcard кормит инвалидатор, а сигнал
// notification_created ведёт в refetch хранилища уведомлений.
type Client struct {
	Manager     *Manager
	Dispatcher  *Dispatcher
	Invalidator *Invalidator
	Store       *Store

	api    *DedupClient
	logger *zap.Logger
}

func New(opts ClientOptions, logger *zap.Logger) *Client {
	api := NewDedupClient(DedupClientOptions{
		TTL:            opts.DedupTTL,
		OnUnauthorized: opts.OnUnauthorized,
	}, logger)

	c := &Client{
		Dispatcher:  NewDispatcher(logger),
		Invalidator: NewInvalidator(opts.DebounceWindow, logger),
		Store: NewStore(StoreOptions{
			BaseURL:      opts.BaseURL,
			Token:        opts.Token,
			Player:       opts.Player,
			SoundEnabled: opts.SoundEnabled,
		}, api, logger),
		api:    api,
		logger: logger,
	}

	wsURL := opts.WsURL
	if opts.Token != "" {
		wsURL = fmt.Sprintf("%s?token=%s", opts.WsURL, opts.Token)
	}
	c.Manager = NewManager(ManagerOptions{
		URL:            wsURL,
		BackoffBase:    opts.BackoffBase,
		MaxAttempts:    opts.MaxAttempts,
		OnStatusChange: opts.OnStatus,
	}, logger)

	c.Manager.OnFrame(func(frame Frame) { c.Dispatcher.Emit(frame) })

	c.Dispatcher.Register("invalidator", 0, c.Invalidator.HandleEvent, Wildcard)
	c.Dispatcher.Register("notification-store", 10, func(eventType string, _ json.RawMessage) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		c.Store.HandleNotificationCreated(ctx)
	}, string(events.TypeNotificationCreated))

	return c
}

// Start подключает транспорт и подтягивает начальное состояние
// уведомлений.
func (c *Client) Start(ctx context.Context) error {
	c.Manager.Connect(ctx)
	return c.Store.RefreshUnread(ctx)
}

// WatchClub подписывает соединение на комнату клуба.
func (c *Client) WatchClub(clubID uint64) {
	c.Manager.JoinRooms(websocket.ClubRoom(clubID))
}

func (c *Client) UnwatchClub(clubID uint64) {
	c.Manager.LeaveRooms(websocket.ClubRoom(clubID))
}

// Close гасит клиент: транспорт, очередь событий, отложенные refetch-и
// и фоновую чистку дедупликатора.
func (c *Client) Close() {
	c.Manager.Close()
	c.Dispatcher.Close()
	c.Invalidator.Flush()
	c.api.Close()
}

package rtclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultPageSize = 20

// SoundPlayer проигрывает звук нового уведомления. Реализация зависит
// от окружения клиента; в тестах подменяется заглушкой.
type SoundPlayer interface {
	Play()
}

// Notification — уведомление в том виде, в котором его отдаёт API.
type Notification struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Status    string          `json:"status"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
	ClubID    *uint64         `json:"clubId,omitempty"`
	RoundID   *uint64         `json:"roundId,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type listData struct {
	Notifications []Notification `json:"notifications"`
	Total         uint64         `json:"total"`
	HasMore       bool           `json:"hasMore"`
}

type combinedData struct {
	Notifications []Notification `json:"notifications"`
	Count         uint64         `json:"count"`
}

// MarkState — судьба оптимистичной пометки "прочитано".
type MarkState string

const (
	MarkPending   MarkState = "pending"
	MarkConfirmed MarkState = "confirmed"
	MarkFailed    MarkState = "failed"
)

// StoreOptions — настройки хранилища уведомлений.
type StoreOptions struct {
	BaseURL  string
	Token    string
	PageSize int
	// Player проигрывает звук; nil отключает звук полностью.
	Player SoundPlayer
	// SoundEnabled — пользовательская настройка звука. nil == включено.
	SoundEnabled func() bool
}

// Store держит клиентское состояние уведомлений: постраничный список,
// счётчик непрочитанных и оптимистичные пометки. Все сетевые вызовы
// идут через DedupClient, поэтому параллельные refetch-и одного и
// того же среза схлопываются.
type Store struct {
	opts   StoreOptions
	api    *DedupClient
	logger *zap.Logger

	mu          sync.Mutex
	items       []Notification
	unread      []Notification
	total       uint64
	hasMore     bool
	unreadCount uint64
	loadedOnce  bool
	marks       map[string]MarkState
}

func NewStore(opts StoreOptions, api *DedupClient, logger *zap.Logger) *Store {
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	return &Store{
		opts:   opts,
		api:    api,
		logger: logger,
		marks:  make(map[string]MarkState),
	}
}

// Notifications возвращает копию загруженного списка.
func (s *Store) Notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notification(nil), s.items...)
}

// Unread возвращает копию непрочитанных из последнего combined-ответа.
func (s *Store) Unread() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notification(nil), s.unread...)
}

func (s *Store) UnreadCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unreadCount
}

func (s *Store) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore
}

// MarkStateOf показывает состояние оптимистичной пометки.
func (s *Store) MarkStateOf(id string) (MarkState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.marks[id]
	return st, ok
}

// LoadNextPage дозагружает следующую страницу списка.
func (s *Store) LoadNextPage(ctx context.Context) error {
	s.mu.Lock()
	limit := s.opts.PageSize
	page := len(s.items)/limit + 1
	s.mu.Unlock()

	url := fmt.Sprintf("%s/api/notifications?page=%d&limit=%d", s.opts.BaseURL, page, limit)
	var data listData
	if err := s.get(ctx, url, &data); err != nil {
		return err
	}

	s.mu.Lock()
	s.items = append(s.items, data.Notifications...)
	s.total = data.Total
	s.hasMore = data.HasMore
	s.mu.Unlock()
	return nil
}

// Reload сбрасывает список и загружает первую страницу заново.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
	return s.LoadNextPage(ctx)
}

// RefreshUnread перечитывает непрочитанные одним combined-запросом и
// решает, играть ли звук. Звук звучит только когда счётчик строго
// вырос и это не первая загрузка: 3 -> 4 звучит, 4 -> 4 и 4 -> 3 нет.
func (s *Store) RefreshUnread(ctx context.Context) error {
	url := s.opts.BaseURL + "/api/notifications/unread/combined"
	var data combinedData
	if err := s.get(ctx, url, &data); err != nil {
		return err
	}

	s.mu.Lock()
	playSound := s.loadedOnce && data.Count > s.unreadCount
	s.unread = data.Notifications
	s.unreadCount = data.Count
	s.loadedOnce = true
	s.mu.Unlock()

	if playSound && s.soundOn() {
		s.opts.Player.Play()
	}
	return nil
}

func (s *Store) soundOn() bool {
	if s.opts.Player == nil {
		return false
	}
	if s.opts.SoundEnabled == nil {
		return true
	}
	return s.opts.SoundEnabled()
}

// HandleNotificationCreated — реакция на сигнал notification_created:
// всегда refetch, локальная вставка из payload запрещена, иначе клиент
// разойдётся с базой при параллельных изменениях.
func (s *Store) HandleNotificationCreated(ctx context.Context) {
	if err := s.RefreshUnread(ctx); err != nil {
		s.logger.Warn("Не удалось обновить непрочитанные", zap.Error(err))
	}
}

// MarkRead помечает уведомления прочитанными: сначала локально, затем
// на сервере. При отказе сервера локальное состояние перечитывается.
func (s *Store) MarkRead(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	affected := s.applyLocalRead(ids)
	for _, id := range ids {
		s.marks[id] = MarkPending
	}
	s.mu.Unlock()

	var firstErr error
	for _, id := range ids {
		url := s.opts.BaseURL + "/api/notifications/" + id + "/read"
		err := s.send(ctx, http.MethodPut, url, nil)

		s.mu.Lock()
		if err != nil {
			s.marks[id] = MarkFailed
			if firstErr == nil {
				firstErr = err
			}
		} else {
			s.marks[id] = MarkConfirmed
		}
		s.mu.Unlock()
	}

	if firstErr != nil {
		s.rollback(ctx, affected)
		return firstErr
	}
	return nil
}

// MarkAllRead помечает всё прочитанным. Судьба каждой пометки
// отслеживается так же, как при поштучном MarkRead.
func (s *Store) MarkAllRead(ctx context.Context) error {
	s.mu.Lock()
	ids := make([]string, 0, len(s.unread))
	for _, n := range s.unread {
		ids = append(ids, n.ID)
	}
	affected := s.applyLocalRead(ids)
	for _, id := range ids {
		s.marks[id] = MarkPending
	}
	s.mu.Unlock()

	url := s.opts.BaseURL + "/api/notifications/read-all"
	err := s.send(ctx, http.MethodPut, url, nil)

	state := MarkConfirmed
	if err != nil {
		state = MarkFailed
	}
	s.mu.Lock()
	for _, id := range ids {
		s.marks[id] = state
	}
	s.mu.Unlock()

	if err != nil {
		s.rollback(ctx, affected)
		return err
	}
	return nil
}

// Delete удаляет одно уведомление.
func (s *Store) Delete(ctx context.Context, id string) error {
	url := s.opts.BaseURL + "/api/notifications/" + id
	if err := s.send(ctx, http.MethodDelete, url, nil); err != nil {
		return err
	}

	s.mu.Lock()
	for i, n := range s.items {
		if n.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// DeleteRead удаляет все прочитанные и перечитывает список.
func (s *Store) DeleteRead(ctx context.Context) error {
	url := s.opts.BaseURL + "/api/notifications/delete-read"
	if err := s.send(ctx, http.MethodDelete, url, nil); err != nil {
		return err
	}
	return s.Reload(ctx)
}

// applyLocalRead выполняется под мьютексом. Возвращает число
// уведомлений, действительно перешедших из unread в read.
func (s *Store) applyLocalRead(ids []string) uint64 {
	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}

	counted := make(map[string]bool)
	kept := s.unread[:0]
	for _, n := range s.unread {
		if idSet[n.ID] {
			counted[n.ID] = true
			continue
		}
		kept = append(kept, n)
	}
	s.unread = kept

	for i := range s.items {
		if idSet[s.items[i].ID] && s.items[i].Status != "read" {
			s.items[i].Status = "read"
			counted[s.items[i].ID] = true
		}
	}

	affected := uint64(len(counted))
	if affected > s.unreadCount {
		s.unreadCount = 0
	} else {
		s.unreadCount -= affected
	}
	return affected
}

// rollback после неудачной пометки: локальная правка ненадёжна,
// поэтому состояние перечитывается с сервера.
func (s *Store) rollback(ctx context.Context, affected uint64) {
	if affected == 0 {
		return
	}
	if err := s.RefreshUnread(ctx); err != nil {
		s.logger.Warn("Откат пометки не удался", zap.Error(err))
	}
}

func (s *Store) get(ctx context.Context, url string, out interface{}) error {
	resp, err := s.api.Do(ctx, http.MethodGet, url, s.header(), nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("неожиданный статус %d от %s", resp.StatusCode, url)
	}

	var env apiEnvelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return err
	}
	if !env.Success {
		return fmt.Errorf("запрос %s отклонён сервером", url)
	}
	return json.Unmarshal(env.Data, out)
}

// send — мутирующие вызовы идут мимо дедупликации: повтор PUT или
// DELETE обязан дойти до сервера.
func (s *Store) send(ctx context.Context, method, url string, body []byte) error {
	resp, err := s.api.execute(ctx, method, url, s.header(), body)
	if err != nil {
		return err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("неожиданный статус %d от %s", resp.StatusCode, url)
	}
	return nil
}

func (s *Store) header() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	if s.opts.Token != "" {
		h.Set("Authorization", "Bearer "+s.opts.Token)
	}
	return h
}

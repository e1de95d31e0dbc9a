package rtclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"club-system/internal/events"
)

const defaultDebounceWindow = 1000 * time.Millisecond

// Ключи клиентского кэша. Один ключ — один refetch.
func ClubSummaryKey(clubID uint64) string  { return fmt.Sprintf("club:%d:summary", clubID) }
func ClubMembersKey(clubID uint64) string  { return fmt.Sprintf("club:%d:members", clubID) }
func ActiveRoundKey(clubID uint64) string  { return fmt.Sprintf("club:%d:round", clubID) }
func RecommendationsKey(r uint64) string   { return fmt.Sprintf("round:%d:recommendations", r) }
func VotesKey(roundID uint64) string       { return fmt.Sprintf("round:%d:votes", roundID) }
func CompletionsKey(roundID uint64) string { return fmt.Sprintf("round:%d:completions", roundID) }

// Refresher перечитывает данные одного ключа кэша.
type Refresher func(ctx context.Context)

// Invalidator переводит доменные события в точечные refetch-и. Каждое
// событие трогает только свои ключи, а серии событий по одному ключу
// схлопываются: таймер со скользящим окном, срабатывает только
// последний запрос.
type Invalidator struct {
	window time.Duration
	logger *zap.Logger

	mu         sync.Mutex
	refreshers map[string]Refresher
	timers     map[string]*time.Timer
}

func NewInvalidator(window time.Duration, logger *zap.Logger) *Invalidator {
	if window <= 0 {
		window = defaultDebounceWindow
	}
	return &Invalidator{
		window:     window,
		logger:     logger,
		refreshers: make(map[string]Refresher),
		timers:     make(map[string]*time.Timer),
	}
}

// RegisterKey привязывает refetch к ключу кэша. Повторная регистрация
// заменяет предыдущую.
func (inv *Invalidator) RegisterKey(key string, r Refresher) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.refreshers[key] = r
}

func (inv *Invalidator) UnregisterKey(key string) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	delete(inv.refreshers, key)
	if t, ok := inv.timers[key]; ok {
		t.Stop()
		delete(inv.timers, key)
	}
}

// HandleEvent — точка входа из диспетчера: подписывается на Wildcard и
// сам выбирает ключи по типу события.
func (inv *Invalidator) HandleEvent(eventType string, payload json.RawMessage) {
	var ref struct {
		ClubID  uint64 `json:"clubId"`
		RoundID uint64 `json:"roundId"`
	}
	if err := json.Unmarshal(payload, &ref); err != nil {
		inv.logger.Debug("Нечитаемая нагрузка события", zap.String("type", eventType), zap.Error(err))
		return
	}

	for _, key := range keysFor(eventType, ref.ClubID, ref.RoundID) {
		inv.schedule(key)
	}
}

// keysFor — карта "событие -> ключи кэша". Неизвестный тип события
// сбрасывает только сводку клуба: лишний refetch дешевле устаревших
// данных.
func keysFor(eventType string, clubID, roundID uint64) []string {
	switch events.Type(eventType) {
	case events.TypeVoteCast:
		return []string{VotesKey(roundID), RecommendationsKey(roundID)}
	case events.TypeCompletionUpdated:
		return []string{CompletionsKey(roundID)}
	case events.TypeRoundStatusChanged:
		return []string{ActiveRoundKey(clubID), ClubSummaryKey(clubID)}
	case events.TypeTurnChanged:
		return []string{ActiveRoundKey(clubID)}
	case events.TypeRecommendationAdded, events.TypeRecommendationRemoved:
		return []string{RecommendationsKey(roundID)}
	case events.TypeMemberAdded, events.TypeMemberRemoved, events.TypeMemberRoleChanged:
		return []string{ClubMembersKey(clubID), ClubSummaryKey(clubID)}
	case events.TypeClubUpdated:
		return []string{ClubSummaryKey(clubID)}
	case events.TypeUserOnline, events.TypeUserOffline,
		events.TypeNotification, events.TypeNotificationCreated:
		// Присутствие и уведомления живут не в этом кэше.
		return nil
	default:
		return []string{ClubSummaryKey(clubID)}
	}
}

func (inv *Invalidator) schedule(key string) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if t, ok := inv.timers[key]; ok {
		// Окно скользит: новый запрос откладывает срабатывание.
		t.Reset(inv.window)
		return
	}
	inv.timers[key] = time.AfterFunc(inv.window, func() { inv.fire(key) })
}

func (inv *Invalidator) fire(key string) {
	inv.mu.Lock()
	delete(inv.timers, key)
	r := inv.refreshers[key]
	inv.mu.Unlock()

	if r == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	r(ctx)
}

// Flush немедленно выполняет все отложенные refetch-и (например перед
// закрытием клиента).
func (inv *Invalidator) Flush() {
	inv.mu.Lock()
	keys := make([]string, 0, len(inv.timers))
	for key, t := range inv.timers {
		t.Stop()
		keys = append(keys, key)
	}
	inv.mu.Unlock()

	for _, key := range keys {
		inv.fire(key)
	}
}

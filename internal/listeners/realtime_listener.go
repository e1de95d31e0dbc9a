package listeners

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"club-system/internal/entities"
	"club-system/internal/events"
	"club-system/internal/repositories"
	"club-system/pkg/eventbus"
	"club-system/pkg/websocket"
)

// Окно группировки голосов: шквал vote_cast по одному раунду схлопывается
// в одно уведомление.
const voteGroupWindow = 2 * time.Second

type voteGroupKey struct {
	ClubID  uint64
	RoundID uint64
}

type voteGroup struct {
	events []events.VoteCast
	timer  *time.Timer
}

// RealtimeListener — серверная точка распространения доменных событий:
// живая рассылка в комнаты клубов и создание записей уведомлений.
// Само событие уходит в комнату сразу; уведомление пишется в БД, после
// чего адресату отправляется лёгкий сигнал notification_created с одним
// только id. Клиент по нему перечитывает список, вставок на глазок нет.
type RealtimeListener struct {
	notificationRepo repositories.NotificationRepositoryInterface
	memberRepo       repositories.MemberRepositoryInterface
	hub              *websocket.Hub
	logger           *zap.Logger

	groups   map[voteGroupKey]*voteGroup
	groupsMu sync.Mutex
}

func NewRealtimeListener(
	notificationRepo repositories.NotificationRepositoryInterface,
	memberRepo repositories.MemberRepositoryInterface,
	hub *websocket.Hub,
	logger *zap.Logger,
) *RealtimeListener {
	return &RealtimeListener{
		notificationRepo: notificationRepo,
		memberRepo:       memberRepo,
		hub:              hub,
		logger:           logger,
		groups:           make(map[voteGroupKey]*voteGroup),
	}
}

func (l *RealtimeListener) Register(bus *eventbus.Bus) {
	clubScoped := []string{
		string(events.TypeVoteCast),
		string(events.TypeCompletionUpdated),
		string(events.TypeRoundStatusChanged),
		string(events.TypeTurnChanged),
		string(events.TypeMemberAdded),
		string(events.TypeMemberRemoved),
		string(events.TypeMemberRoleChanged),
		string(events.TypeClubUpdated),
		string(events.TypeRecommendationAdded),
		string(events.TypeRecommendationRemoved),
	}

	// Приоритет 10: рассылка в комнаты должна отработать раньше прочих
	// подписчиков шины.
	bus.SubscribeWithPriority(10, l.handleClubEvent, clubScoped...)
	bus.Subscribe(string(events.TypeUserOnline), l.handlePresenceEvent)
	bus.Subscribe(string(events.TypeUserOffline), l.handlePresenceEvent)

	l.logger.Info("RealtimeListener подписан на доменные события", zap.Int("событий", len(clubScoped)+2))
}

// handleClubEvent рассылает событие в комнату клуба и заводит уведомления.
func (l *RealtimeListener) handleClubEvent(ctx context.Context, event eventbus.Event) error {
	domainEvent, ok := event.(events.DomainEvent)
	if !ok {
		return fmt.Errorf("событие %q не является доменным", event.Name())
	}

	room := websocket.ClubRoom(domainEvent.Club())
	if err := l.hub.BroadcastToRoom(room, domainEvent, domainEvent.Name(), domainEvent.Actor()); err != nil {
		l.logger.Error("Не удалось разослать событие в комнату",
			zap.String("room", room), zap.String("event", domainEvent.Name()), zap.Error(err))
	}

	switch e := event.(type) {
	case events.VoteCast:
		l.enqueueVote(e)
		return nil
	case events.TurnChanged:
		return l.notifyTurn(ctx, e)
	case events.MemberAdded:
		title := "Новый участник"
		message := fmt.Sprintf("%s присоединился(ась) к клубу «%s»", e.UserName, e.ClubName)
		return l.notifyClub(ctx, e, title, message)
	case events.MemberRemoved:
		title := "Участник покинул клуб"
		message := fmt.Sprintf("%s больше не состоит в клубе «%s»", e.UserName, e.ClubName)
		return l.notifyClub(ctx, e, title, message)
	case events.MemberRoleChanged:
		title := "Смена роли"
		message := fmt.Sprintf("Роль участника %s изменена: %s → %s", e.UserName, e.OldRole, e.NewRole)
		return l.notifyClub(ctx, e, title, message)
	case events.RoundStatusChanged:
		title := "Раунд перешёл в новую стадию"
		message := fmt.Sprintf("Стадия раунда: %s", e.NewStatus)
		if e.OldStatus == "" {
			title = "Новый раунд"
			message = fmt.Sprintf("%s открыл(а) новый раунд", e.ActorName)
		}
		return l.notifyClub(ctx, e, title, message)
	case events.RecommendationAdded:
		title := "Новая рекомендация"
		message := fmt.Sprintf("%s рекомендует: «%s»", e.ActorName, e.Title)
		return l.notifyClub(ctx, e, title, message)
	}

	// completion_updated, club_updated, recommendation_removed — только
	// живая рассылка, без записей в ленту уведомлений.
	return nil
}

func (l *RealtimeListener) handlePresenceEvent(ctx context.Context, event eventbus.Event) error {
	var clubIDs []uint64
	var actorID uint64

	switch e := event.(type) {
	case events.UserOnline:
		clubIDs, actorID = e.ClubIDs, e.UserID
	case events.UserOffline:
		clubIDs, actorID = e.ClubIDs, e.UserID
	default:
		return nil
	}

	for _, clubID := range clubIDs {
		room := websocket.ClubRoom(clubID)
		if err := l.hub.BroadcastToRoom(room, event, event.Name(), actorID); err != nil {
			l.logger.Error("Не удалось разослать presence-событие",
				zap.String("room", room), zap.Error(err))
		}
	}
	return nil
}

// notifyClub создаёт уведомление каждому участнику клуба, кроме инициатора.
func (l *RealtimeListener) notifyClub(ctx context.Context, event events.DomainEvent, title, message string) error {
	memberIDs, err := l.memberRepo.ListMemberUserIDs(ctx, event.Club())
	if err != nil {
		return fmt.Errorf("не удалось получить участников клуба %d: %w", event.Club(), err)
	}

	recipients := make([]uint64, 0, len(memberIDs))
	for _, id := range memberIDs {
		if id != event.Actor() {
			recipients = append(recipients, id)
		}
	}
	return l.createAndSignal(ctx, event, recipients, title, message)
}

// notifyTurn адресует уведомление только тому, чья очередь наступила.
func (l *RealtimeListener) notifyTurn(ctx context.Context, e events.TurnChanged) error {
	if e.TurnUserID == e.ActorID {
		return nil
	}
	return l.createAndSignal(ctx, e, []uint64{e.TurnUserID},
		"Ваша очередь", "Теперь ваша очередь рекомендовать")
}

func (l *RealtimeListener) createAndSignal(ctx context.Context, event events.DomainEvent, recipients []uint64, title, message string) error {
	if len(recipients) == 0 {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("не удалось сериализовать payload события %q: %w", event.Name(), err)
	}

	items := make([]entities.Notification, 0, len(recipients))
	for _, userID := range recipients {
		items = append(items, entities.Notification{
			ID:      uuid.New().String(),
			UserID:  userID,
			Type:    event.Name(),
			Status:  entities.NotificationStatusUnread,
			Title:   title,
			Message: message,
			Data:    data,
			ClubID:  null.Uint64From(event.Club()),
		})
	}

	if err := l.notificationRepo.CreateNotifications(ctx, items); err != nil {
		return err
	}

	for _, n := range items {
		signal := events.NotificationCreated{
			UserID:         n.UserID,
			NotificationID: n.ID,
			ClubID:         event.Club(),
		}
		if err := l.hub.SendToUser(n.UserID, signal, string(events.TypeNotificationCreated)); err != nil {
			l.logger.Debug("Адресат уведомления не в сети", zap.Uint64("userID", n.UserID))
		}
	}
	return nil
}

// enqueueVote собирает голоса одного раунда в группу. Таймер первого
// голоса определяет момент отправки.
func (l *RealtimeListener) enqueueVote(e events.VoteCast) {
	key := voteGroupKey{ClubID: e.ClubID, RoundID: e.RoundID}

	l.groupsMu.Lock()
	defer l.groupsMu.Unlock()

	group, exists := l.groups[key]
	if !exists {
		group = &voteGroup{}
		l.groups[key] = group
		group.timer = time.AfterFunc(voteGroupWindow, func() {
			l.flushVoteGroup(context.Background(), key)
		})
	}
	group.events = append(group.events, e)
}

func (l *RealtimeListener) flushVoteGroup(ctx context.Context, key voteGroupKey) {
	l.groupsMu.Lock()
	group, exists := l.groups[key]
	if exists {
		delete(l.groups, key)
	}
	l.groupsMu.Unlock()

	if !exists || len(group.events) == 0 {
		return
	}

	first := group.events[0]
	title := "Голосование идёт"
	message := fmt.Sprintf("%s проголосовал(а) в раунде", first.VoterName)
	if len(group.events) > 1 {
		message = fmt.Sprintf("%s и ещё %d участник(ов) проголосовали в раунде", first.VoterName, len(group.events)-1)
	}

	memberIDs, err := l.memberRepo.ListMemberUserIDs(ctx, key.ClubID)
	if err != nil {
		l.logger.Error("Не удалось получить участников для группы голосов", zap.Error(err))
		return
	}

	voters := make(map[uint64]struct{}, len(group.events))
	for _, e := range group.events {
		voters[e.VoterID] = struct{}{}
	}

	recipients := make([]uint64, 0, len(memberIDs))
	for _, id := range memberIDs {
		if _, voted := voters[id]; !voted {
			recipients = append(recipients, id)
		}
	}

	if err := l.createAndSignal(ctx, first, recipients, title, message); err != nil {
		l.logger.Error("Не удалось создать сгруппированное уведомление о голосах", zap.Error(err))
	}
}

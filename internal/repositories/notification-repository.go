package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"club-system/internal/entities"
	db "club-system/internal/infrastructure/bd"
	apperrors "club-system/pkg/errors"
	"club-system/pkg/types"
)

const notificationSelectFields = "n.id, n.user_id, n.type, n.status, n.title, n.message, n.data, n.club_id, n.round_id, n.created_at"

var notificationMap = map[string]string{
	"type":       "n.type",
	"status":     "n.status",
	"club_id":    "n.club_id",
	"round_id":   "n.round_id",
	"created_at": "n.created_at",
}

type NotificationRepositoryInterface interface {
	CreateNotifications(ctx context.Context, items []entities.Notification) error
	GetNotifications(ctx context.Context, userID uint64, filter types.Filter) ([]entities.Notification, uint64, error)
	GetUnread(ctx context.Context, userID uint64) ([]entities.Notification, error)
	CountUnread(ctx context.Context, userID uint64) (uint64, error)
	FindNotification(ctx context.Context, id string, userID uint64) (*entities.Notification, error)
	MarkRead(ctx context.Context, userID uint64, ids []string) (uint64, error)
	MarkAllRead(ctx context.Context, userID uint64) (uint64, error)
	DeleteNotification(ctx context.Context, id string, userID uint64) error
	DeleteRead(ctx context.Context, userID uint64) (uint64, error)
}

type NotificationRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewNotificationRepository(storage *pgxpool.Pool, logger *zap.Logger) NotificationRepositoryInterface {
	return &NotificationRepository{storage: storage, logger: logger}
}

func scanNotification(row pgx.Row) (*entities.Notification, error) {
	var n entities.Notification
	err := row.Scan(
		&n.ID, &n.UserID, &n.Type, &n.Status, &n.Title, &n.Message,
		&n.Data, &n.ClubID, &n.RoundID, &n.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования notification: %w", err)
	}
	return &n, nil
}

// CreateNotifications вставляет пачку уведомлений одним батчем. Одно
// доменное событие порождает по записи на каждого адресата.
func (r *NotificationRepository) CreateNotifications(ctx context.Context, items []entities.Notification) error {
	if len(items) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
        INSERT INTO notifications (id, user_id, type, status, title, message, data, club_id, round_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	for _, n := range items {
		batch.Queue(query, n.ID, n.UserID, n.Type, n.Status, n.Title, n.Message, n.Data, n.ClubID, n.RoundID)
	}

	results := r.storage.SendBatch(ctx, batch)
	defer results.Close()

	for range items {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("ошибка вставки уведомлений: %w", err)
		}
	}
	return nil
}

func (r *NotificationRepository) GetNotifications(ctx context.Context, userID uint64, filter types.Filter) ([]entities.Notification, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	countBuilder := psql.Select("COUNT(n.id)").
		From("notifications AS n").
		Where(sq.Eq{"n.user_id": userID})

	countFilter := filter
	countFilter.WithPagination = false
	countFilter.Sort = nil
	countBuilder = db.ApplyListParams(countBuilder, countFilter, notificationMap)

	var total uint64
	sqlCount, argsCount, _ := countBuilder.ToSql()
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entities.Notification{}, 0, nil
	}

	baseBuilder := psql.Select(
		"n.id", "n.user_id", "n.type", "n.status", "n.title", "n.message",
		"n.data", "n.club_id", "n.round_id", "n.created_at",
	).From("notifications AS n").
		Where(sq.Eq{"n.user_id": userID})

	if len(filter.Sort) == 0 {
		baseBuilder = baseBuilder.OrderBy("n.created_at DESC")
	}
	baseBuilder = db.ApplyListParams(baseBuilder, filter, notificationMap)

	query, args, err := baseBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]entities.Notification, 0, filter.Limit)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *n)
	}
	return items, total, rows.Err()
}

func (r *NotificationRepository) GetUnread(ctx context.Context, userID uint64) ([]entities.Notification, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM notifications n
        WHERE n.user_id = $1 AND n.status = 'unread'
        ORDER BY n.created_at DESC
    `, notificationSelectFields)

	rows, err := r.storage.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]entities.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *n)
	}
	return items, rows.Err()
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uint64) (uint64, error) {
	var count uint64
	err := r.storage.QueryRow(ctx,
		`SELECT COUNT(id) FROM notifications WHERE user_id = $1 AND status = 'unread'`, userID,
	).Scan(&count)
	return count, err
}

func (r *NotificationRepository) FindNotification(ctx context.Context, id string, userID uint64) (*entities.Notification, error) {
	query := fmt.Sprintf(`SELECT %s FROM notifications n WHERE n.id = $1 AND n.user_id = $2`, notificationSelectFields)
	return scanNotification(r.storage.QueryRow(ctx, query, id, userID))
}

func (r *NotificationRepository) MarkRead(ctx context.Context, userID uint64, ids []string) (uint64, error) {
	result, err := r.storage.Exec(ctx,
		`UPDATE notifications SET status = 'read' WHERE user_id = $1 AND id = ANY($2) AND status = 'unread'`,
		userID, ids,
	)
	if err != nil {
		return 0, err
	}
	return uint64(result.RowsAffected()), nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uint64) (uint64, error) {
	result, err := r.storage.Exec(ctx,
		`UPDATE notifications SET status = 'read' WHERE user_id = $1 AND status = 'unread'`, userID,
	)
	if err != nil {
		return 0, err
	}
	return uint64(result.RowsAffected()), nil
}

func (r *NotificationRepository) DeleteNotification(ctx context.Context, id string, userID uint64) error {
	result, err := r.storage.Exec(ctx, `DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *NotificationRepository) DeleteRead(ctx context.Context, userID uint64) (uint64, error) {
	result, err := r.storage.Exec(ctx,
		`DELETE FROM notifications WHERE user_id = $1 AND status = 'read'`, userID,
	)
	if err != nil {
		return 0, err
	}
	return uint64(result.RowsAffected()), nil
}

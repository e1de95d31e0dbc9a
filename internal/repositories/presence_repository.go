package repositories

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// PresenceRepositoryInterface хранит онлайн-состав клубов в Redis.
// Ключи живут с TTL, чтобы упавший сервер не оставлял "вечно онлайн"
// пользователей.
type PresenceRepositoryInterface interface {
	MarkOnline(ctx context.Context, clubID, userID uint64) error
	MarkOffline(ctx context.Context, clubID, userID uint64) error
	ListOnline(ctx context.Context, clubID uint64) ([]uint64, error)
	RefreshTTL(ctx context.Context, clubID uint64) error
}

type RedisPresenceRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPresenceRepository(client *redis.Client, ttl time.Duration) PresenceRepositoryInterface {
	return &RedisPresenceRepository{client: client, ttl: ttl}
}

func presenceKey(clubID uint64) string {
	return fmt.Sprintf("presence:club:%d", clubID)
}

func (r *RedisPresenceRepository) MarkOnline(ctx context.Context, clubID, userID uint64) error {
	key := presenceKey(clubID)
	pipe := r.client.TxPipeline()
	pipe.SAdd(ctx, key, userID)
	pipe.Expire(ctx, key, r.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisPresenceRepository) MarkOffline(ctx context.Context, clubID, userID uint64) error {
	return r.client.SRem(ctx, presenceKey(clubID), userID).Err()
}

func (r *RedisPresenceRepository) ListOnline(ctx context.Context, clubID uint64) ([]uint64, error) {
	raw, err := r.client.SMembers(ctx, presenceKey(clubID)).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]uint64, 0, len(raw))
	for _, s := range raw {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *RedisPresenceRepository) RefreshTTL(ctx context.Context, clubID uint64) error {
	return r.client.Expire(ctx, presenceKey(clubID), r.ttl).Err()
}

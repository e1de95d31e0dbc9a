package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"club-system/internal/entities"
	apperrors "club-system/pkg/errors"
)

type VoteRepositoryInterface interface {
	UpsertVote(ctx context.Context, entity *entities.Vote) (*entities.Vote, error)
	ListByRound(ctx context.Context, roundID uint64) ([]entities.Vote, error)
	TopRecommendation(ctx context.Context, roundID uint64) (uint64, error)
}

type VoteRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewVoteRepository(storage *pgxpool.Pool, logger *zap.Logger) VoteRepositoryInterface {
	return &VoteRepository{storage: storage, logger: logger}
}

func scanVote(row pgx.Row) (*entities.Vote, error) {
	var v entities.Vote
	err := row.Scan(&v.ID, &v.RoundID, &v.RecommendationID, &v.UserID, &v.Value, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования vote: %w", err)
	}
	return &v, nil
}

// UpsertVote: один голос на пользователя в раунде, повторный голос
// перезаписывает выбор.
func (r *VoteRepository) UpsertVote(ctx context.Context, entity *entities.Vote) (*entities.Vote, error) {
	query := `
        INSERT INTO votes (round_id, recommendation_id, user_id, value)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (round_id, user_id)
        DO UPDATE SET recommendation_id = EXCLUDED.recommendation_id, value = EXCLUDED.value, updated_at = NOW()
        RETURNING id, round_id, recommendation_id, user_id, value, created_at, updated_at
    `
	row := r.storage.QueryRow(ctx, query, entity.RoundID, entity.RecommendationID, entity.UserID, entity.Value)
	return scanVote(row)
}

func (r *VoteRepository) ListByRound(ctx context.Context, roundID uint64) ([]entities.Vote, error) {
	query := `SELECT id, round_id, recommendation_id, user_id, value, created_at, updated_at FROM votes WHERE round_id = $1 ORDER BY id`
	rows, err := r.storage.Query(ctx, query, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	votes := make([]entities.Vote, 0)
	for rows.Next() {
		vote, err := scanVote(rows)
		if err != nil {
			return nil, err
		}
		votes = append(votes, *vote)
	}
	return votes, rows.Err()
}

// TopRecommendation — победитель раунда по сумме голосов. При равенстве
// выигрывает более ранняя рекомендация.
func (r *VoteRepository) TopRecommendation(ctx context.Context, roundID uint64) (uint64, error) {
	query := `
        SELECT v.recommendation_id
        FROM votes v
        JOIN recommendations rec ON rec.id = v.recommendation_id
        WHERE v.round_id = $1
        GROUP BY v.recommendation_id, rec.created_at
        ORDER BY SUM(v.value) DESC, rec.created_at ASC
        LIMIT 1
    `
	var id uint64
	err := r.storage.QueryRow(ctx, query, roundID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperrors.ErrNotFound
	}
	return id, err
}

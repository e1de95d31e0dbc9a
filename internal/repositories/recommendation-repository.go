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

// RecommendationRow — рекомендация с именем автора и числом голосов.
type RecommendationRow struct {
	entities.Recommendation
	UserName  string
	VoteCount uint64
}

type RecommendationRepositoryInterface interface {
	ListByRound(ctx context.Context, roundID uint64) ([]RecommendationRow, error)
	FindRecommendation(ctx context.Context, id uint64) (*entities.Recommendation, error)
	CreateRecommendation(ctx context.Context, entity *entities.Recommendation) (*entities.Recommendation, error)
	DeleteRecommendation(ctx context.Context, id uint64) error
	HasUserRecommended(ctx context.Context, roundID, userID uint64) (bool, error)
}

type RecommendationRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewRecommendationRepository(storage *pgxpool.Pool, logger *zap.Logger) RecommendationRepositoryInterface {
	return &RecommendationRepository{storage: storage, logger: logger}
}

func scanRecommendation(row pgx.Row) (*entities.Recommendation, error) {
	var rec entities.Recommendation
	err := row.Scan(&rec.ID, &rec.RoundID, &rec.UserID, &rec.Title, &rec.Description, &rec.URL, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования recommendation: %w", err)
	}
	return &rec, nil
}

func (r *RecommendationRepository) ListByRound(ctx context.Context, roundID uint64) ([]RecommendationRow, error) {
	query := `
        SELECT rec.id, rec.round_id, rec.user_id, rec.title, rec.description, rec.url, rec.created_at,
               u.name, COUNT(v.id) AS vote_count
        FROM recommendations rec
        JOIN users u ON u.id = rec.user_id
        LEFT JOIN votes v ON v.recommendation_id = rec.id
        WHERE rec.round_id = $1
        GROUP BY rec.id, u.name
        ORDER BY rec.created_at ASC
    `
	rows, err := r.storage.Query(ctx, query, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recs := make([]RecommendationRow, 0)
	for rows.Next() {
		var row RecommendationRow
		if err := rows.Scan(
			&row.ID, &row.RoundID, &row.UserID, &row.Title, &row.Description, &row.URL, &row.CreatedAt,
			&row.UserName, &row.VoteCount,
		); err != nil {
			return nil, err
		}
		recs = append(recs, row)
	}
	return recs, rows.Err()
}

func (r *RecommendationRepository) FindRecommendation(ctx context.Context, id uint64) (*entities.Recommendation, error) {
	query := `SELECT id, round_id, user_id, title, description, url, created_at FROM recommendations WHERE id = $1`
	return scanRecommendation(r.storage.QueryRow(ctx, query, id))
}

func (r *RecommendationRepository) CreateRecommendation(ctx context.Context, entity *entities.Recommendation) (*entities.Recommendation, error) {
	query := `
        INSERT INTO recommendations (round_id, user_id, title, description, url)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, round_id, user_id, title, description, url, created_at
    `
	row := r.storage.QueryRow(ctx, query, entity.RoundID, entity.UserID, entity.Title, entity.Description, entity.URL)
	return scanRecommendation(row)
}

func (r *RecommendationRepository) DeleteRecommendation(ctx context.Context, id uint64) error {
	result, err := r.storage.Exec(ctx, `DELETE FROM recommendations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *RecommendationRepository) HasUserRecommended(ctx context.Context, roundID, userID uint64) (bool, error) {
	var exists bool
	err := r.storage.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM recommendations WHERE round_id = $1 AND user_id = $2)`,
		roundID, userID,
	).Scan(&exists)
	return exists, err
}

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

// CompletionRow — отметка о прочтении/просмотре вместе с именем участника.
type CompletionRow struct {
	entities.Completion
	UserName string
}

type CompletionRepositoryInterface interface {
	UpsertCompletion(ctx context.Context, entity *entities.Completion) (*entities.Completion, error)
	DeleteCompletion(ctx context.Context, roundID, userID uint64) error
	ListByRound(ctx context.Context, roundID uint64) ([]CompletionRow, error)
}

type CompletionRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewCompletionRepository(storage *pgxpool.Pool, logger *zap.Logger) CompletionRepositoryInterface {
	return &CompletionRepository{storage: storage, logger: logger}
}

func scanCompletion(row pgx.Row) (*entities.Completion, error) {
	var c entities.Completion
	err := row.Scan(&c.ID, &c.RoundID, &c.UserID, &c.Rating, &c.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования completion: %w", err)
	}
	return &c, nil
}

func (r *CompletionRepository) UpsertCompletion(ctx context.Context, entity *entities.Completion) (*entities.Completion, error) {
	query := `
        INSERT INTO completions (round_id, user_id, rating)
        VALUES ($1, $2, $3)
        ON CONFLICT (round_id, user_id)
        DO UPDATE SET rating = EXCLUDED.rating, completed_at = NOW()
        RETURNING id, round_id, user_id, rating, completed_at
    `
	row := r.storage.QueryRow(ctx, query, entity.RoundID, entity.UserID, entity.Rating)
	return scanCompletion(row)
}

func (r *CompletionRepository) DeleteCompletion(ctx context.Context, roundID, userID uint64) error {
	result, err := r.storage.Exec(ctx, `DELETE FROM completions WHERE round_id = $1 AND user_id = $2`, roundID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *CompletionRepository) ListByRound(ctx context.Context, roundID uint64) ([]CompletionRow, error) {
	query := `
        SELECT c.id, c.round_id, c.user_id, c.rating, c.completed_at, u.name
        FROM completions c
        JOIN users u ON u.id = c.user_id
        WHERE c.round_id = $1
        ORDER BY c.completed_at ASC
    `
	rows, err := r.storage.Query(ctx, query, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	completions := make([]CompletionRow, 0)
	for rows.Next() {
		var row CompletionRow
		if err := rows.Scan(&row.ID, &row.RoundID, &row.UserID, &row.Rating, &row.CompletedAt, &row.UserName); err != nil {
			return nil, err
		}
		completions = append(completions, row)
	}
	return completions, rows.Err()
}

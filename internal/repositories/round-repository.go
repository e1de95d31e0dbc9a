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

const roundSelectFields = "id, club_id, status, current_turn_user_id, winner_id, started_at, finished_at, created_at, updated_at"

type RoundRepositoryInterface interface {
	ListRounds(ctx context.Context, clubID uint64) ([]entities.Round, error)
	FindRound(ctx context.Context, id uint64) (*entities.Round, error)
	FindActiveRound(ctx context.Context, clubID uint64) (*entities.Round, error)
	CreateRound(ctx context.Context, clubID uint64, firstTurnUserID *uint64) (*entities.Round, error)
	UpdateStatus(ctx context.Context, id uint64, status string, winnerID *uint64) (*entities.Round, error)
	UpdateTurn(ctx context.Context, id uint64, turnUserID *uint64) (*entities.Round, error)
}

type RoundRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewRoundRepository(storage *pgxpool.Pool, logger *zap.Logger) RoundRepositoryInterface {
	return &RoundRepository{storage: storage, logger: logger}
}

func scanRound(row pgx.Row) (*entities.Round, error) {
	var r entities.Round
	err := row.Scan(
		&r.ID, &r.ClubID, &r.Status, &r.CurrentTurnUserID, &r.WinnerID,
		&r.StartedAt, &r.FinishedAt, &r.CreatedAt, &r.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования round: %w", err)
	}
	return &r, nil
}

func (r *RoundRepository) ListRounds(ctx context.Context, clubID uint64) ([]entities.Round, error) {
	query := fmt.Sprintf(`SELECT %s FROM rounds WHERE club_id = $1 ORDER BY started_at DESC`, roundSelectFields)
	rows, err := r.storage.Query(ctx, query, clubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rounds := make([]entities.Round, 0)
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, *round)
	}
	return rounds, rows.Err()
}

func (r *RoundRepository) FindRound(ctx context.Context, id uint64) (*entities.Round, error) {
	query := fmt.Sprintf(`SELECT %s FROM rounds WHERE id = $1`, roundSelectFields)
	return scanRound(r.storage.QueryRow(ctx, query, id))
}

// FindActiveRound — незавершённый раунд клуба. В клубе активен не более
// одного раунда.
func (r *RoundRepository) FindActiveRound(ctx context.Context, clubID uint64) (*entities.Round, error) {
	query := fmt.Sprintf(`SELECT %s FROM rounds WHERE club_id = $1 AND status <> 'completed' ORDER BY started_at DESC LIMIT 1`, roundSelectFields)
	return scanRound(r.storage.QueryRow(ctx, query, clubID))
}

func (r *RoundRepository) CreateRound(ctx context.Context, clubID uint64, firstTurnUserID *uint64) (*entities.Round, error) {
	query := fmt.Sprintf(`
        INSERT INTO rounds (club_id, current_turn_user_id)
        VALUES ($1, $2)
        RETURNING %s
    `, roundSelectFields)
	return scanRound(r.storage.QueryRow(ctx, query, clubID, firstTurnUserID))
}

func (r *RoundRepository) UpdateStatus(ctx context.Context, id uint64, status string, winnerID *uint64) (*entities.Round, error) {
	query := fmt.Sprintf(`
        UPDATE rounds
        SET status = $1,
            winner_id = COALESCE($2, winner_id),
            finished_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE finished_at END,
            updated_at = NOW()
        WHERE id = $3
        RETURNING %s
    `, roundSelectFields)
	return scanRound(r.storage.QueryRow(ctx, query, status, winnerID, id))
}

func (r *RoundRepository) UpdateTurn(ctx context.Context, id uint64, turnUserID *uint64) (*entities.Round, error) {
	query := fmt.Sprintf(`
        UPDATE rounds SET current_turn_user_id = $1, updated_at = NOW()
        WHERE id = $2
        RETURNING %s
    `, roundSelectFields)
	return scanRound(r.storage.QueryRow(ctx, query, turnUserID, id))
}

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

const clubTable = "clubs"

// Карта полей для фильтра и сортировки списков клубов.
var clubMap = map[string]string{
	"id":         "c.id",
	"name":       "c.name",
	"club_type":  "c.club_type",
	"owner_id":   "c.owner_id",
	"created_at": "c.created_at",
	"updated_at": "c.updated_at",
}

type ClubRepositoryInterface interface {
	GetClubsForUser(ctx context.Context, userID uint64, filter types.Filter) ([]entities.Club, uint64, error)
	FindClub(ctx context.Context, id uint64) (*entities.Club, error)
	CreateClub(ctx context.Context, tx pgx.Tx, club entities.Club) (*entities.Club, error)
	UpdateClub(ctx context.Context, club *entities.Club) (*entities.Club, error)
	DeleteClub(ctx context.Context, id uint64) error
	CountMembers(ctx context.Context, clubID uint64) (uint64, error)
}

type ClubRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewClubRepository(storage *pgxpool.Pool, logger *zap.Logger) ClubRepositoryInterface {
	return &ClubRepository{storage: storage, logger: logger}
}

func scanClub(row pgx.Row) (*entities.Club, error) {
	var c entities.Club
	err := row.Scan(
		&c.ID, &c.Name, &c.Description, &c.ClubType, &c.OwnerID,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования club: %w", err)
	}
	return &c, nil
}

// GetClubsForUser возвращает только клубы, в которых пользователь состоит.
func (r *ClubRepository) GetClubsForUser(ctx context.Context, userID uint64, filter types.Filter) ([]entities.Club, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	applySearch := func(b sq.SelectBuilder) sq.SelectBuilder {
		if filter.Search != "" {
			pat := "%" + filter.Search + "%"
			return b.Where(sq.ILike{"c.name": pat})
		}
		return b
	}

	membership := "club_members m ON m.club_id = c.id"

	countBuilder := psql.Select("COUNT(c.id)").
		From("clubs AS c").
		Join(membership).
		Where(sq.Eq{"m.user_id": userID})
	countBuilder = applySearch(countBuilder)

	countFilter := filter
	countFilter.WithPagination = false
	countFilter.Sort = nil
	countBuilder = db.ApplyListParams(countBuilder, countFilter, clubMap)

	var total uint64
	sqlCount, argsCount, _ := countBuilder.ToSql()
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entities.Club{}, 0, nil
	}

	baseBuilder := psql.Select(
		"c.id", "c.name", "c.description", "c.club_type", "c.owner_id",
		"c.created_at", "c.updated_at",
	).From("clubs AS c").
		Join(membership).
		Where(sq.Eq{"m.user_id": userID})
	baseBuilder = applySearch(baseBuilder)

	if len(filter.Sort) == 0 {
		baseBuilder = baseBuilder.OrderBy("c.id DESC")
	}
	baseBuilder = db.ApplyListParams(baseBuilder, filter, clubMap)

	query, args, err := baseBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	clubs := make([]entities.Club, 0, filter.Limit)
	for rows.Next() {
		club, err := scanClub(rows)
		if err != nil {
			return nil, 0, err
		}
		clubs = append(clubs, *club)
	}
	return clubs, total, rows.Err()
}

func (r *ClubRepository) FindClub(ctx context.Context, id uint64) (*entities.Club, error) {
	query := `SELECT id, name, description, club_type, owner_id, created_at, updated_at FROM clubs WHERE id = $1`
	row := r.storage.QueryRow(ctx, query, id)
	return scanClub(row)
}

// CreateClub выполняется в транзакции: вызывающий код сразу же добавляет
// владельца в club_members.
func (r *ClubRepository) CreateClub(ctx context.Context, tx pgx.Tx, club entities.Club) (*entities.Club, error) {
	query := `
        INSERT INTO clubs (name, description, club_type, owner_id)
        VALUES ($1, $2, $3, $4)
        RETURNING id, name, description, club_type, owner_id, created_at, updated_at
    `
	row := tx.QueryRow(ctx, query, club.Name, club.Description, club.ClubType, club.OwnerID)
	return scanClub(row)
}

func (r *ClubRepository) UpdateClub(ctx context.Context, club *entities.Club) (*entities.Club, error) {
	query := `
        UPDATE clubs SET name = $1, description = $2, club_type = $3, updated_at = NOW()
        WHERE id = $4
        RETURNING id, name, description, club_type, owner_id, created_at, updated_at
    `
	row := r.storage.QueryRow(ctx, query, club.Name, club.Description, club.ClubType, club.ID)
	return scanClub(row)
}

func (r *ClubRepository) DeleteClub(ctx context.Context, id uint64) error {
	result, err := r.storage.Exec(ctx, `DELETE FROM clubs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *ClubRepository) CountMembers(ctx context.Context, clubID uint64) (uint64, error) {
	var count uint64
	err := r.storage.QueryRow(ctx, `SELECT COUNT(id) FROM club_members WHERE club_id = $1`, clubID).Scan(&count)
	return count, err
}

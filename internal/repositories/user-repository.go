package repositories

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"club-system/internal/entities"
	apperrors "club-system/pkg/errors"
)

const userTable = "users"
const userSelectFields = "id, name, email, password, avatar_url, created_at, updated_at"

type UserRepositoryInterface interface {
	FindUserByID(ctx context.Context, id uint64) (*entities.User, error)
	FindUserByEmail(ctx context.Context, email string) (*entities.User, error)
	CreateUser(ctx context.Context, entity *entities.User) (*entities.User, error)
	UpdateUser(ctx context.Context, entity *entities.User) (*entities.User, error)
}

type UserRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewUserRepository(storage *pgxpool.Pool, logger *zap.Logger) UserRepositoryInterface {
	return &UserRepository{storage: storage, logger: logger}
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var user entities.User
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.Password,
		&user.AvatarURL, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindUserByID(ctx context.Context, id uint64) (*entities.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, userSelectFields, userTable)
	row := r.storage.QueryRow(ctx, query, id)
	return scanUser(row)
}

func (r *UserRepository) FindUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE LOWER(email) = LOWER($1) LIMIT 1`, userSelectFields, userTable)
	row := r.storage.QueryRow(ctx, query, email)
	return scanUser(row)
}

func (r *UserRepository) CreateUser(ctx context.Context, entity *entities.User) (*entities.User, error) {
	query := fmt.Sprintf(`
        INSERT INTO %s (name, email, password, avatar_url)
        VALUES ($1, $2, $3, $4)
        RETURNING %s
    `, userTable, userSelectFields)

	row := r.storage.QueryRow(ctx, query, entity.Name, entity.Email, entity.Password, entity.AvatarURL)

	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if strings.Contains(pgErr.ConstraintName, "users_email_key") {
				return nil, apperrors.NewHttpError(http.StatusConflict, "Email уже используется.", err, nil)
			}
		}
		return nil, err
	}
	return created, nil
}

func (r *UserRepository) UpdateUser(ctx context.Context, entity *entities.User) (*entities.User, error) {
	query := fmt.Sprintf(`
        UPDATE %s SET name = $1, avatar_url = $2, updated_at = NOW()
        WHERE id = $3
        RETURNING %s
    `, userTable, userSelectFields)

	row := r.storage.QueryRow(ctx, query, entity.Name, entity.AvatarURL, entity.ID)
	return scanUser(row)
}

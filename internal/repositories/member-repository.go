package repositories

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"club-system/internal/entities"
	apperrors "club-system/pkg/errors"
)

const memberSelectFields = "m.id, m.club_id, m.user_id, m.role, m.joined_at"

// MemberRow — участник вместе с данными пользователя для списков состава.
type MemberRow struct {
	entities.ClubMember
	Name      string
	Email     string
	AvatarURL *string
}

type MemberRepositoryInterface interface {
	ListMembers(ctx context.Context, clubID uint64) ([]MemberRow, error)
	FindMember(ctx context.Context, clubID, userID uint64) (*entities.ClubMember, error)
	AddMember(ctx context.Context, tx pgx.Tx, clubID, userID uint64, role string) (*entities.ClubMember, error)
	RemoveMember(ctx context.Context, clubID, userID uint64) error
	ChangeRole(ctx context.Context, clubID, userID uint64, role string) (*entities.ClubMember, error)
	ListMemberUserIDs(ctx context.Context, clubID uint64) ([]uint64, error)
	ListClubIDsForUser(ctx context.Context, userID uint64) ([]uint64, error)
	CountByRole(ctx context.Context, clubID uint64, role string) (uint64, error)
}

type MemberRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewMemberRepository(storage *pgxpool.Pool, logger *zap.Logger) MemberRepositoryInterface {
	return &MemberRepository{storage: storage, logger: logger}
}

func scanMember(row pgx.Row) (*entities.ClubMember, error) {
	var m entities.ClubMember
	err := row.Scan(&m.ID, &m.ClubID, &m.UserID, &m.Role, &m.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования club_member: %w", err)
	}
	return &m, nil
}

func (r *MemberRepository) ListMembers(ctx context.Context, clubID uint64) ([]MemberRow, error) {
	query := fmt.Sprintf(`
        SELECT %s, u.name, u.email, u.avatar_url
        FROM club_members m
        JOIN users u ON u.id = m.user_id
        WHERE m.club_id = $1
        ORDER BY m.joined_at ASC
    `, memberSelectFields)

	rows, err := r.storage.Query(ctx, query, clubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]MemberRow, 0)
	for rows.Next() {
		var row MemberRow
		if err := rows.Scan(
			&row.ID, &row.ClubID, &row.UserID, &row.Role, &row.JoinedAt,
			&row.Name, &row.Email, &row.AvatarURL,
		); err != nil {
			return nil, err
		}
		members = append(members, row)
	}
	return members, rows.Err()
}

func (r *MemberRepository) FindMember(ctx context.Context, clubID, userID uint64) (*entities.ClubMember, error) {
	query := fmt.Sprintf(`SELECT %s FROM club_members m WHERE m.club_id = $1 AND m.user_id = $2`, memberSelectFields)
	row := r.storage.QueryRow(ctx, query, clubID, userID)
	return scanMember(row)
}

func (r *MemberRepository) AddMember(ctx context.Context, tx pgx.Tx, clubID, userID uint64, role string) (*entities.ClubMember, error) {
	query := `
        INSERT INTO club_members (club_id, user_id, role)
        VALUES ($1, $2, $3)
        RETURNING id, club_id, user_id, role, joined_at
    `

	var q querier = r.storage
	if tx != nil {
		q = tx
	}

	row := q.QueryRow(ctx, query, clubID, userID, role)
	member, err := scanMember(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.NewHttpError(http.StatusConflict, "Пользователь уже состоит в клубе.", err, nil)
		}
		return nil, err
	}
	return member, nil
}

func (r *MemberRepository) RemoveMember(ctx context.Context, clubID, userID uint64) error {
	result, err := r.storage.Exec(ctx, `DELETE FROM club_members WHERE club_id = $1 AND user_id = $2`, clubID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *MemberRepository) ChangeRole(ctx context.Context, clubID, userID uint64, role string) (*entities.ClubMember, error) {
	query := `
        UPDATE club_members SET role = $1
        WHERE club_id = $2 AND user_id = $3
        RETURNING id, club_id, user_id, role, joined_at
    `
	row := r.storage.QueryRow(ctx, query, role, clubID, userID)
	return scanMember(row)
}

// ListMemberUserIDs нужен рассылке: уведомления создаются всем участникам
// клуба, кроме инициатора события.
func (r *MemberRepository) ListMemberUserIDs(ctx context.Context, clubID uint64) ([]uint64, error) {
	rows, err := r.storage.Query(ctx, `SELECT user_id FROM club_members WHERE club_id = $1`, clubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uint64, 0)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *MemberRepository) ListClubIDsForUser(ctx context.Context, userID uint64) ([]uint64, error) {
	rows, err := r.storage.Query(ctx, `SELECT club_id FROM club_members WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uint64, 0)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *MemberRepository) CountByRole(ctx context.Context, clubID uint64, role string) (uint64, error) {
	var count uint64
	err := r.storage.QueryRow(ctx, `SELECT COUNT(id) FROM club_members WHERE club_id = $1 AND role = $2`, clubID, role).Scan(&count)
	return count, err
}

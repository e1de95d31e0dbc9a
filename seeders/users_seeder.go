package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"club-system/pkg/utils"
)

func seedUsers(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - Наполнение таблицы 'users'...")

	query := `INSERT INTO users (name, email, password) VALUES ($1, LOWER($2), $3)
			  ON CONFLICT (email) DO NOTHING;`

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, u := range usersData {
		hash, err := utils.HashPassword(u.Password)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, query, u.Name, u.Email, hash); err != nil {
			log.Printf("Ошибка при вставке пользователя '%s': %v", u.Email, err)
			return err
		}
	}

	return tx.Commit(ctx)
}

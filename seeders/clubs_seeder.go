package seeders

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

func seedClubs(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - Наполнение таблиц 'clubs' и 'club_members'...")

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, c := range clubsData {
		var ownerID uint64
		if err := tx.QueryRow(ctx, "SELECT id FROM users WHERE email = LOWER($1)", c.OwnerEmail).Scan(&ownerID); err != nil {
			return fmt.Errorf("не найден владелец клуба '%s': %w", c.Name, err)
		}

		var clubID uint64
		err := tx.QueryRow(ctx, "SELECT id FROM clubs WHERE name = $1", c.Name).Scan(&clubID)
		if err == nil {
			log.Printf("    - Клуб '%s' уже существует. Пропускаем.", c.Name)
			continue
		}

		if err := tx.QueryRow(ctx,
			`INSERT INTO clubs (name, description, club_type, owner_id) VALUES ($1, $2, $3, $4) RETURNING id`,
			c.Name, c.Description, c.ClubType, ownerID,
		).Scan(&clubID); err != nil {
			return fmt.Errorf("не удалось создать клуб '%s': %w", c.Name, err)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO club_members (club_id, user_id, role) VALUES ($1, $2, 'owner')
			 ON CONFLICT (club_id, user_id) DO NOTHING`,
			clubID, ownerID,
		); err != nil {
			return err
		}

		for _, email := range c.MemberEmails {
			if _, err := tx.Exec(ctx,
				`INSERT INTO club_members (club_id, user_id, role)
				 SELECT $1, id, 'member' FROM users WHERE email = LOWER($2)
				 ON CONFLICT (club_id, user_id) DO NOTHING`,
				clubID, email,
			); err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}

// seedDemoRound создаёт активный раунд с рекомендациями в первом клубе,
// чтобы после сидирования интерфейс не был пустым.
func seedDemoRound(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - Создание демо-раунда...")

	var clubID uint64
	if err := db.QueryRow(ctx, "SELECT id FROM clubs WHERE name = $1", clubsData[0].Name).Scan(&clubID); err != nil {
		return fmt.Errorf("не найден клуб для демо-раунда: %w", err)
	}

	var existing uint64
	err := db.QueryRow(ctx,
		"SELECT id FROM rounds WHERE club_id = $1 AND status <> 'completed'", clubID,
	).Scan(&existing)
	if err == nil {
		log.Println("    - Активный раунд уже существует. Пропускаем.")
		return nil
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var turnUserID uint64
	if err := tx.QueryRow(ctx,
		`SELECT user_id FROM club_members WHERE club_id = $1 ORDER BY joined_at, id LIMIT 1`, clubID,
	).Scan(&turnUserID); err != nil {
		return err
	}

	var roundID uint64
	if err := tx.QueryRow(ctx,
		`INSERT INTO rounds (club_id, status, current_turn_user_id) VALUES ($1, 'recommending', $2) RETURNING id`,
		clubID, turnUserID,
	).Scan(&roundID); err != nil {
		return err
	}

	for _, r := range recommendationsData {
		if _, err := tx.Exec(ctx,
			`INSERT INTO recommendations (round_id, user_id, title, description)
			 SELECT $1, id, $2, $3 FROM users WHERE email = LOWER($4)`,
			roundID, r.Title, r.Description, r.UserEmail,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

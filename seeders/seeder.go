package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SeedUsers создаёт демо-пользователей.
func SeedUsers(db *pgxpool.Pool) {
	ctx := context.Background()
	log.Println("▶️  Запуск наполнения пользователей...")

	if err := seedUsers(ctx, db); err != nil {
		log.Fatalf("❌ Ошибка наполнения пользователей: %v", err)
	}
	log.Println("✅ Наполнение пользователей завершено!")
}

// SeedClubs создаёт демо-клубы, участников и активный раунд.
func SeedClubs(db *pgxpool.Pool) {
	ctx := context.Background()
	log.Println("▶️  Запуск наполнения клубов...")

	if err := seedClubs(ctx, db); err != nil {
		log.Fatalf("❌ Ошибка наполнения клубов: %v", err)
	}
	if err := seedDemoRound(ctx, db); err != nil {
		log.Fatalf("❌ Ошибка создания демо-раунда: %v", err)
	}
	log.Println("✅ Наполнение клубов завершено!")
}

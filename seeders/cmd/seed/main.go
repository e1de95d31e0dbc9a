package main

import (
	"flag"
	"log"

	"club-system/pkg/config"
	"club-system/pkg/database/postgresql"
	"club-system/seeders"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	log.Println("======================================================")
	log.Println("       🌱 СИСТЕМА СИДЕРОВ (Наполнение БД)           ")
	log.Println("======================================================")

	runUsers := flag.Bool("users", false, "Запустить создание демо-пользователей")
	runClubs := flag.Bool("clubs", false, "Запустить создание клубов, участников и демо-раунда")
	runAll := flag.Bool("all", false, "Запустить все сидеры (эквивалентно -users -clubs)")

	flag.Parse()

	if !*runUsers && !*runClubs && !*runAll {
		log.Println("❌ Не выбран ни один сидер для запуска.")
		log.Println("")
		log.Println("Доступные флаги:")
		flag.PrintDefaults()
		log.Println("")
		log.Println("Примеры использования:")
		log.Println("  go run ./seeders/cmd/seed/main.go -users")
		log.Println("  go run ./seeders/cmd/seed/main.go -all")
		log.Println("======================================================")
		return
	}

	cfg := config.New()
	log.Println("📦 Используется DSN:", cfg.Postgres.DSN)
	dbPool := postgresql.ConnectDB(cfg.Postgres.DSN)
	defer dbPool.Close()

	if err := postgresql.Migrate(dbPool); err != nil {
		log.Fatalf("❌ Ошибка применения миграций: %v", err)
	}

	log.Println("======================================================")

	if *runAll || *runUsers {
		seeders.SeedUsers(dbPool)
		log.Println("======================================================")
	}

	if *runAll || *runClubs {
		// Клубы зависят от пользователей.
		seeders.SeedClubs(dbPool)
		log.Println("======================================================")
	}

	log.Println("🎉 Сидирование завершено.")
}

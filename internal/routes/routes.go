package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"club-system/internal/controllers"
	"club-system/internal/listeners"
	"club-system/internal/repositories"
	"club-system/internal/services"
	"club-system/pkg/config"
	"club-system/pkg/eventbus"
	"club-system/pkg/middleware"
	"club-system/pkg/service"
	"club-system/pkg/websocket"
)

type Loggers struct {
	Main         *zap.Logger
	Auth         *zap.Logger
	Club         *zap.Logger
	Round        *zap.Logger
	Notification *zap.Logger
	Realtime     *zap.Logger
}

// InitRouter собирает весь граф зависимостей и маршруты. Возвращает hub,
// чтобы main запустил его цикл.
func InitRouter(e *echo.Echo, dbConn *pgxpool.Pool, redisClient *redis.Client, bus *eventbus.Bus, jwtSvc service.JWTService, loggers *Loggers, cfg *config.Config) *websocket.Hub {
	loggers.Main.Info("InitRouter: Начало создания маршрутов")

	api := e.Group("/api")
	authMW := middleware.NewAuthMiddleware(jwtSvc, loggers.Auth)
	txManager := repositories.NewTxManager(dbConn)

	// --- РЕПОЗИТОРИИ ---
	userRepo := repositories.NewUserRepository(dbConn, loggers.Main)
	settingsRepo := repositories.NewUserSettingsRepository(dbConn, loggers.Main)
	clubRepo := repositories.NewClubRepository(dbConn, loggers.Club)
	memberRepo := repositories.NewMemberRepository(dbConn, loggers.Club)
	roundRepo := repositories.NewRoundRepository(dbConn, loggers.Round)
	recRepo := repositories.NewRecommendationRepository(dbConn, loggers.Round)
	voteRepo := repositories.NewVoteRepository(dbConn, loggers.Round)
	completionRepo := repositories.NewCompletionRepository(dbConn, loggers.Round)
	notificationRepo := repositories.NewNotificationRepository(dbConn, loggers.Notification)
	reportRepo := repositories.NewReportRepository(dbConn, loggers.Main)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)
	presenceRepo := repositories.NewRedisPresenceRepository(redisClient, cfg.Realtime.PresenceTTL)

	// --- REALTIME-ЯДРО ---
	presenceSvc := services.NewPresenceService(presenceRepo, memberRepo, userRepo, bus, loggers.Realtime)
	hub := websocket.NewHub(presenceSvc, loggers.Realtime)
	realtimeListener := listeners.NewRealtimeListener(notificationRepo, memberRepo, hub, loggers.Realtime)
	realtimeListener.Register(bus)

	// --- СЕРВИСЫ ---
	authService := services.NewAuthService(userRepo, settingsRepo, cacheRepo, jwtSvc, &cfg.Auth, loggers.Auth)
	clubService := services.NewClubService(clubRepo, memberRepo, userRepo, presenceRepo, txManager, bus, loggers.Club)
	memberService := services.NewMemberService(memberRepo, clubRepo, userRepo, bus, loggers.Club)
	roundService := services.NewRoundService(roundRepo, memberRepo, voteRepo, userRepo, bus, loggers.Round)
	recService := services.NewRecommendationService(recRepo, roundRepo, memberRepo, userRepo, roundService, bus, loggers.Round)
	voteService := services.NewVoteService(voteRepo, recRepo, roundRepo, memberRepo, userRepo, bus, loggers.Round)
	completionService := services.NewCompletionService(completionRepo, roundRepo, memberRepo, userRepo, bus, loggers.Round)
	notificationService := services.NewNotificationService(notificationRepo, loggers.Notification)
	settingsService := services.NewSettingsService(settingsRepo, loggers.Main)
	reportService := services.NewReportService(reportRepo, clubRepo, memberRepo, loggers.Main)

	// --- КОНТРОЛЛЕРЫ ---
	authController := controllers.NewAuthController(authService, loggers.Auth)
	clubController := controllers.NewClubController(clubService, loggers.Club)
	memberController := controllers.NewMemberController(memberService, loggers.Club)
	roundController := controllers.NewRoundController(roundService, loggers.Round)
	recController := controllers.NewRecommendationController(recService, loggers.Round)
	voteController := controllers.NewVoteController(voteService, loggers.Round)
	completionController := controllers.NewCompletionController(completionService, loggers.Round)
	notificationController := controllers.NewNotificationController(notificationService, loggers.Notification)
	settingsController := controllers.NewSettingsController(settingsService, loggers.Main)
	reportController := controllers.NewReportController(reportService, loggers.Main)
	wsController := controllers.NewWebSocketController(hub, jwtSvc, loggers.Realtime)

	// --- РОУТЕРЫ ---
	secureGroup := api.Group("", authMW.Auth)

	runAuthRouter(api, secureGroup, authController)
	runClubRouter(secureGroup, clubController, memberController, reportController)
	runRoundRouter(secureGroup, roundController, recController, voteController, completionController)
	runNotificationRouter(secureGroup, notificationController)
	runSettingsRouter(secureGroup, settingsController)
	runWebSocketRouter(e, wsController)

	loggers.Main.Info("InitRouter: Создание маршрутов завершено")
	return hub
}

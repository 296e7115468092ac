package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"session-token-server/config"
	_ "session-token-server/docs"
	"session-token-server/internal/handler"
	"session-token-server/internal/ports"
	"session-token-server/internal/repository"
	"session-token-server/internal/security"
	"session-token-server/internal/service"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Session-token-server
// @version 1.0
// @description REST API для выдачи, проверки и отзыва токенов сессий

// @host localhost:8080

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	db, err := config.SetupDatabase(cfg.DatabaseConfig.DSN)
	if err != nil {
		log.Fatalf("Не удалось подключиться к БД: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Ошибка при закрытии БД: %v", err)
		}
	}()

	redisClient, err := config.SetupRedis(&cfg.RedisConfig)
	if err != nil {
		log.Fatalf("Ошибка подключения к Redis: %v", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Printf("Ошибка при закрытии Redis: %v", err)
		}
	}()

	srv, router := config.SetupServer(cfg.ServerAddr)

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, time.Duration(cfg.TTL.Cache)*time.Second)

	var archive ports.SessionArchive
	if cfg.S3Config.Enabled {
		archiveService, err := service.NewArchiveService(ctx, &cfg.S3Config)
		if err != nil {
			log.Fatalf("Ошибка создания сервиса архива: %v", err)
		}
		archive = archiveService
	}

	codec := security.NewTokenCodec(&cfg.JWT)
	sessionService := service.NewSessionService(sessionRepo, codec, userRepo, cacheRepo, archive, cfg)
	userService := service.NewUserService(userRepo)

	authHandler := handler.NewAuthenticationHandler(sessionService, codec)
	userHandler := handler.NewUserHandler(userService)

	router.Get("/swagger/*", httpSwagger.WrapHandler)

	setupAuthRoutes(router, authHandler, codec, sessionService, userRepo, cfg)
	setupUserRoutes(router, userHandler)

	purgeInterval, err := time.ParseDuration(cfg.Purge.Interval)
	if err != nil {
		log.Fatalf("Ошибка парсинга интервала очистки: %v", err)
	}
	sessionService.StartPurgeLoop(ctx, purgeInterval)

	runServer(ctx, srv)
}

func setupAuthRoutes(
	r chi.Router,
	h *handler.AuthenticationHandler,
	codec *security.TokenCodec,
	sessionService *service.SessionService,
	userRepo *repository.UserRepository,
	cfg *config.AppConfig,
) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(security.AuthMiddleware(codec, sessionService, userRepo, cfg.Admin.AdminToken))
			r.Get("/me", h.GetCurrentUser)
			r.Head("/me", h.GetCurrentUserHead)
			r.Post("/refresh", h.RefreshToken)
			r.Get("/sessions", h.ListSessions)
			r.Delete("/sessions", h.LogoutAll)
		})
		r.Group(func(r chi.Router) {
			r.Post("/", h.Login)
			r.Delete("/{token}", h.Logout)
		})
	})
}

func setupUserRoutes(r chi.Router, h *handler.UserHandler) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/register", h.RegisterUser)
	})
}

func runServer(ctx context.Context, server *http.Server) {
	serverErrors := make(chan error, 1)
	go func() {
		log.Println("сервер запущен на " + server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil {
			log.Fatalf("ошибка работы сервера: %v", err)
		}
	case sig := <-signalChannel:
		log.Printf("получен сигнал %v остановки работы сервера ", sig)
	}

	shutDownCtx, shutDownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutDownCancel()

	if err := server.Shutdown(shutDownCtx); err != nil {
		log.Printf("ошибка при остановке сервера: %v", err)
	} else {
		log.Println("Сервер успешно остановлен")
	}
}

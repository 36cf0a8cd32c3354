package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"market_chat/internal/broker"
	"market_chat/internal/config"
	"market_chat/internal/handler"
	"market_chat/internal/middleware"
	"market_chat/internal/repository"
	"market_chat/internal/service"
	"market_chat/internal/ws"
	"market_chat/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.Log.Level)
	if cfg.IsDevelopment() {
		appLogger = logger.NewConsole(cfg.Log.Level)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// PostgreSQL
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN)
	if err != nil {
		appLogger.Fatal("Invalid database DSN", "error", err)
	}
	poolCfg.MaxConns = int32(cfg.Database.MaxConnections)
	poolCfg.MaxConnIdleTime = cfg.Database.MaxIdleTime
	poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", "error", err)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		appLogger.Fatal("Failed to ping database", "error", err)
	}
	appLogger.Info("Database connection established")

	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(ctx, dbPool, appLogger); err != nil {
			appLogger.Fatal("Failed to apply schema", "error", err)
		}
	}

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		appLogger.Fatal("Failed to connect to Redis", "error", err)
	}
	appLogger.Info("Redis connection established")

	fabric := broker.New(rdb, cfg.Chat.TopicPrefix, appLogger)

	repos := repository.NewRepositories(dbPool, rdb, appLogger)
	services := service.NewServices(repos, fabric, cfg, appLogger)

	hub := ws.NewHub(appLogger)
	gateway := ws.NewGateway(hub, services.Chat, services.Read, services.Room, services.RateLimit, ws.Options{
		SendBuffer:      cfg.Chat.SendBuffer,
		MaxMessageSize:  cfg.Chat.MaxMessageSize,
		EventsPerMinute: cfg.Chat.EventsPerMinute,
	}, appLogger)

	// every instance fans broker traffic out to its own sockets
	go func() {
		if err := fabric.Listen(ctx, hub.Dispatch, nil); err != nil {
			appLogger.Error("Broker listener stopped", "error", err)
		}
	}()

	authMiddleware := middleware.NewAuthMiddleware(services.Auth, appLogger)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(services.RateLimit, cfg.RateLimit.RequestsPerMinute, appLogger)

	handlers := handler.NewHandlers(services, gateway, map[string]handler.Pinger{
		"postgres": dbPool,
		"redis":    fabric,
	}, cfg, appLogger)

	router := setupRouter(handlers, authMiddleware, rateLimitMiddleware, cfg, appLogger)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLogger.Info("Starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", "error", err)
	}

	appLogger.Info("Server exited")
}

func setupRouter(
	handlers *handler.Handlers,
	authMiddleware *middleware.AuthMiddleware,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
	cfg *config.Config,
	log logger.Logger,
) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Chat.AllowedOrigins))
	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.ErrorHandler(log))

	router.GET("/health", handlers.Health.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(rateLimitMiddleware.Limit(), authMiddleware.RequireAuth())
	{
		rooms := v1.Group("/chat-rooms")
		{
			rooms.POST("", handlers.Room.Create)
			rooms.GET("", handlers.Room.List)
			rooms.POST("/friend", handlers.Room.CreateFriend)
			rooms.GET("/:id", handlers.Room.GetByID)
			rooms.DELETE("/:id", handlers.Room.Delete)
		}

		messages := v1.Group("/chat-messages")
		{
			messages.GET("/:roomId", handlers.Chat.GetMessages)
			messages.POST("/:roomId", handlers.Chat.SendMessage)
			messages.POST("/:roomId/read", handlers.Chat.MarkRead)
		}
	}

	// the token may ride in ?token= since browsers cannot set headers on upgrade
	router.GET("/ws/chat", authMiddleware.RequireAuth(), handlers.WebSocket.HandleChat)

	return router
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	_ "github.com/corkboard/backend/docs"
	"github.com/corkboard/backend/internal/config"
	"github.com/corkboard/backend/internal/db"
	"github.com/corkboard/backend/internal/handler"
	"github.com/corkboard/backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// @title Corkboard API
// @version 1.0
// @description Bulletin board, chat, and mindmap backend.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		log.Error("startup.postgres", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := &db.Postgres{Pool: pool}
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Error("startup.schema", "err", err)
		os.Exit(1)
	}

	sessions := service.NewSessionManager(repo, log)

	oidcSvc, err := service.NewOIDCService(ctx, cfg.OIDC, log)
	if err != nil {
		log.Error("startup.oidc", "err", err)
		os.Exit(1)
	}

	authSvc, err := service.NewAuthService(repo, sessions, oidcSvc, cfg.Auth, log)
	if err != nil {
		log.Error("startup.auth", "err", err)
		os.Exit(1)
	}

	limiter, err := buildRateLimiter(cfg.RateLimit)
	if err != nil {
		log.Error("startup.ratelimit", "err", err)
		os.Exit(1)
	}

	boardSvc := service.NewBoardService(repo)
	chatSvc := service.NewChatService(repo)
	mindmapSvc := service.NewMindmapService(repo)

	idleTimeout, err := time.ParseDuration(cfg.Chat.IdleTimeout)
	if err != nil {
		log.Error("startup.chat", "err", errors.New("invalid CHAT_IDLE_TIMEOUT"))
		os.Exit(1)
	}
	anonIdleTimeout, err := time.ParseDuration(cfg.Chat.AnonIdleTimeout)
	if err != nil {
		log.Error("startup.chat", "err", errors.New("invalid CHAT_ANON_IDLE_TIMEOUT"))
		os.Exit(1)
	}

	origins := strings.Split(cfg.CORS.AllowedOrigins, ",")

	hub := handler.NewHub()
	gateway := handler.NewChatGateway(authSvc, chatSvc, limiter, hub, origins, idleTimeout, anonIdleTimeout, log)

	service.NewJob("session-sweep", time.Hour, sessions.SweepExpired, log).Start(ctx)

	router := gin.Default()
	router.Use(handler.CORSMiddleware(origins, true))

	router.GET("/ping", handler.Ping)
	router.GET("/", handler.Root)
	router.GET("/openapi.json", handler.OpenAPIDoc)

	authHandler := handler.NewAuthHandler(authSvc)
	boardHandler := handler.NewBoardHandler(boardSvc)
	chatHandler := handler.NewChatHandler(chatSvc)
	mindmapHandler := handler.NewMindmapHandler(mindmapSvc)

	api := router.Group("/api/v1")
	api.Use(handler.OptionalAuthMiddleware(authSvc), handler.RateLimitMiddleware(limiter))

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/config", authHandler.Config)
		auth.GET("/me", handler.AuthMiddleware(authSvc), authHandler.Me)
		auth.GET("/oidc/login", authHandler.OIDCLogin)
		auth.GET("/oidc/callback", authHandler.OIDCCallback)
	}

	boards := api.Group("/boards")
	{
		boards.GET("", boardHandler.ListBoards)
		boards.POST("", handler.AuthMiddleware(authSvc), boardHandler.CreateBoard)
		boards.GET("/:id/posts", boardHandler.ListPosts)
		boards.POST("/:id/posts", handler.AuthMiddleware(authSvc), boardHandler.CreatePost)
	}

	posts := api.Group("/posts")
	{
		posts.GET("/:id", boardHandler.GetPost)
		posts.PUT("/:id", handler.AuthMiddleware(authSvc), boardHandler.UpdatePost)
		posts.DELETE("/:id", handler.AuthMiddleware(authSvc), boardHandler.DeletePost)
		posts.GET("/:id/comments", boardHandler.ListComments)
		posts.POST("/:id/comments", handler.AuthMiddleware(authSvc), boardHandler.CreateComment)
	}

	chat := api.Group("/chat")
	{
		chat.GET("/rooms", chatHandler.Rooms)
		chat.GET("/rooms/:room/messages", chatHandler.History)
		chat.GET("/ws", gateway.Handle)
	}

	mindmaps := api.Group("/mindmaps", handler.AuthMiddleware(authSvc))
	{
		mindmaps.GET("", mindmapHandler.List)
		mindmaps.POST("", mindmapHandler.Create)
		mindmaps.GET("/:id", mindmapHandler.Get)
		mindmaps.PUT("/:id", mindmapHandler.Update)
		mindmaps.DELETE("/:id", mindmapHandler.Delete)
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown.server", "err", err)
		}
	}()

	log.Info("server.listening", "addr", cfg.Server.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server.failed", "err", err)
		os.Exit(1)
	}
	log.Info("server.stopped")
}

func buildRateLimiter(cfg config.RateLimitConfig) (*service.RateLimiter, error) {
	capacity, err := strconv.ParseInt(cfg.Capacity, 10, 64)
	if err != nil || capacity < 1 {
		return nil, errors.New("invalid RATE_LIMIT_CAPACITY")
	}
	interval, err := time.ParseDuration(cfg.Interval)
	if err != nil || interval <= 0 {
		return nil, errors.New("invalid RATE_LIMIT_INTERVAL")
	}
	idleAfter, err := time.ParseDuration(cfg.IdleAfter)
	if err != nil || idleAfter <= 0 {
		return nil, errors.New("invalid RATE_LIMIT_IDLE_AFTER")
	}
	store := service.NewMemoryRateLimitStore(idleAfter)
	return service.NewRateLimiter(store, capacity, interval), nil
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"chatline/internal/api"
	"chatline/internal/auth"
	"chatline/internal/chat"
	"chatline/internal/config"
	"chatline/internal/database"
	"chatline/internal/friend"
	"chatline/internal/message"
	"chatline/internal/realtime"
	"chatline/internal/storage"
	"chatline/internal/user"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found")
	}

	cfg := config.MustLoad()
	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting chatline", slog.String("env", cfg.Env), slog.String("address", cfg.HTTP.Address))

	db, err := database.NewMongoDB(cfg.Mongo)
	if err != nil {
		log.Error("mongodb init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Close(ctx); err != nil {
			log.Error("mongodb close failed", slog.Any("error", err))
		}
	}()

	if err := db.CreateIndexes(context.Background()); err != nil {
		log.Error("index creation failed", slog.Any("error", err))
		os.Exit(1)
	}

	store, err := storage.NewS3Store(context.Background(), cfg.S3)
	if err != nil {
		log.Error("s3 init failed", slog.Any("error", err))
		os.Exit(1)
	}

	userRepo := user.NewMongoRepository(db)
	chatRepo := chat.NewMongoRepository(db)
	messageRepo := message.NewMongoRepository(db)
	friendRepo := friend.NewMongoRepository(db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := realtime.NewHub(cfg.WS)
	go hub.Run(ctx)

	verifier := auth.NewVerifier(cfg.Auth.AccessTokenSecret, userRepo)

	chatService := chat.NewService(chatRepo, messageRepo, userRepo, store)
	messageService := message.NewService(messageRepo, chatService, userRepo, store, hub)
	friendService := friend.NewService(friendRepo, chatService, userRepo, hub)

	router := api.NewRouter(cfg, api.Handlers{
		Verifier: verifier,
		Hub:      hub,
		Message:  message.NewHandler(messageService, store),
		Chat:     chat.NewHandler(chatService),
		Friend:   friend.NewHandler(friendService),
		User:     user.NewHandler(userRepo),
	})

	server := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", slog.Any("error", err))
	}

	log.Info("server stopped")
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case config.EnvProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case config.EnvDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

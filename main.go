package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	api "playtube-backend/cmd/api"
	authRepo "playtube-backend/internal/auth/repository"
	authUsecase "playtube-backend/internal/auth/usecase"
	"playtube-backend/pkg/config"
	"playtube-backend/pkg/database"
	"playtube-backend/pkg/storage"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Initialize database
	db, err := database.NewMongoConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := authRepo.EnsureIndexes(ctx, db); err != nil {
		log.Fatal("Failed to create indexes:", err)
	}

	// Initialize media storage
	uploader, err := storage.NewS3Uploader(context.Background(), cfg)
	if err != nil {
		log.Fatal("Failed to initialize media storage:", err)
	}

	// Initialize repositories and use cases (dependency injection)
	userRepo := authRepo.NewUserRepository(db)
	authUsecaseInstance := authUsecase.NewAuthUsecase(userRepo, uploader, cfg)

	// Initialize HTTP handler
	handler := api.NewHandler(authUsecaseInstance, cfg, logger)

	logger.Info("server starting", slog.String("port", cfg.Port))
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

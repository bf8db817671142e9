package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/nutriplan/backend/config"
	httpDelivery "github.com/nutriplan/backend/internal/delivery/http"
	"github.com/nutriplan/backend/internal/domain"
	"github.com/nutriplan/backend/internal/infrastructure/openai"
	"github.com/nutriplan/backend/internal/infrastructure/queue"
	"github.com/nutriplan/backend/internal/infrastructure/storage"
	"github.com/nutriplan/backend/internal/usecase"
)

func main() {
	// Load .env if present, then configuration
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting NutriPlan Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Database: %s", cfg.Database.Driver)

	// Database
	db, err := storage.Open(storage.Config{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
	})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if err := storage.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	requestStore := storage.NewDietRequestStore(db)
	profileStore := storage.NewProfileStore(db)
	userStore := storage.NewUserStore(db)
	foodIndex := storage.NewFoodIndex(db)

	// Text-generation port
	aiClient := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL)
	if cfg.Server.Environment == "development" {
		aiClient.SetDebug(true)
		log.Printf("OpenAI client debug mode enabled")
	}

	// Usecase layer
	resolver := usecase.NewResolver(foodIndex)
	enricher := usecase.NewEnricher(resolver, foodIndex, usecase.EnricherConfig{
		ConfidenceMin: &cfg.Matching.ConfidenceMin,
	})
	planner := usecase.NewPlanner(aiClient, usecase.PlannerConfig{
		Model: cfg.OpenAI.Model,
	})
	processor := usecase.NewProcessor(requestStore, profileStore, planner, enricher)

	// Diet queue with its worker
	dietQueue := queue.NewMemoryQueue("diet", func(ctx context.Context, name string, job domain.Job) error {
		if name != "process" {
			return nil
		}
		return processor.Process(ctx, job.RequestID)
	}, queue.Config{
		Attempts:    cfg.Queue.Attempts,
		BackoffBase: cfg.Queue.BackoffBase,
		Workers:     cfg.Queue.Workers,
	})
	defer dietQueue.Stop()

	authService := usecase.NewAuthService(userStore, usecase.AuthConfig{
		JWTSecret: cfg.Auth.JWTSecret,
		TokenTTL:  cfg.Auth.TokenTTL,
	})
	userService := usecase.NewUserService(userStore, profileStore)
	dietService := usecase.NewDietService(requestStore, dietQueue)

	log.Printf("Matching: confidence_min=%.2f | Queue: attempts=%d backoff=%s workers=%d",
		cfg.Matching.ConfidenceMin, cfg.Queue.Attempts, cfg.Queue.BackoffBase, cfg.Queue.Workers)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(authService, userService, dietService)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler, authService)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}

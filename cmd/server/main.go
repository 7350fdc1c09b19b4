package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/circhioz/alexa-assistant/adapters/artifact"
	"github.com/circhioz/alexa-assistant/adapters/assistant"
	"github.com/circhioz/alexa-assistant/adapters/encoder"
	"github.com/circhioz/alexa-assistant/adapters/memory"
	"github.com/circhioz/alexa-assistant/adapters/mongo"
	"github.com/circhioz/alexa-assistant/adapters/registry"
	"github.com/circhioz/alexa-assistant/adapters/stt"
	"github.com/circhioz/alexa-assistant/domain/repositories"
	"github.com/circhioz/alexa-assistant/internal/api"
	"github.com/circhioz/alexa-assistant/internal/monitor"
	"github.com/circhioz/alexa-assistant/internal/skill"
	"github.com/circhioz/alexa-assistant/usecase"
)

func main() {
	// .env is optional in deployed environments
	_ = godotenv.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx := context.Background()

	// Remote assistant stream
	googleAssistant, err := assistant.NewGoogleAssistant(assistant.NewConfigFromEnv(), logger)
	if err != nil {
		logger.Fatal("Failed to initialize assistant adapter", zap.Error(err))
	}

	// Device registration gate
	registrar, err := registry.NewGoogleRegistrar(registry.NewConfigFromEnv(), logger)
	if err != nil {
		logger.Fatal("Failed to initialize device registrar", zap.Error(err))
	}

	// Persistent attributes: MongoDB when configured, in-memory otherwise
	var persistent repositories.PersistentStore
	var mongoClient *mongo.Client
	if os.Getenv("MONGODB_URI") != "" {
		mongoClient, err = mongo.Connect(ctx, mongo.NewConfigFromEnv(), logger)
		if err != nil {
			logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		persistent = mongo.NewAttributeRepository(mongoClient.Database)
		logger.Info("Using MongoDB attribute store")
	} else {
		persistent = memory.NewPersistentStore()
		logger.Warn("MONGODB_URI not set, user attributes will not survive restarts")
	}

	sessions := memory.NewSessionStore()

	// Monitor hub doubles as the exchange event sink
	hub := monitor.NewHub(logger)
	go hub.Run()

	service := usecase.NewAssistService(
		googleAssistant,
		sessions,
		persistent,
		registrar,
		hub,
		usecase.NewAssistConfigFromEnv(),
		logger,
	)

	assembler, err := buildAssembler(ctx, logger)
	if err != nil {
		logger.Fatal("Failed to initialize reply assembler", zap.Error(err))
	}

	skillHandler := skill.NewHandler(service, assembler, logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api.InitRoutes(e, skillHandler, service, stt.NewGoogleTranscriber(), hub, logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	go func() {
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	if mongoClient != nil {
		if err := mongoClient.Close(shutdownCtx); err != nil {
			logger.Error("Failed to close MongoDB client", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}

// buildAssembler selects the reply strategy. REPLY_MODE=audio renders the
// assistant's spoken audio as a presigned MP3 in an SSML audio tag;
// anything else speaks the display text.
func buildAssembler(ctx context.Context, logger *zap.Logger) (usecase.ReplyAssembler, error) {
	if os.Getenv("REPLY_MODE") != "audio" {
		return usecase.NewTextReplyAssembler(), nil
	}

	store, err := artifact.NewS3Store(ctx, logger)
	if err != nil {
		return nil, err
	}
	return usecase.NewAudioReplyAssembler(encoder.NewLameEncoder(logger), store, logger), nil
}

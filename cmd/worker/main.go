package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/hibiken/asynq"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/notesquared/backend/internal/config"
	"github.com/notesquared/backend/internal/logger"
	"github.com/notesquared/backend/internal/pipeline"
	"github.com/notesquared/backend/internal/repositories"
	"github.com/notesquared/backend/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting Note Squared Worker")

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	lessonRepo := repositories.NewLessonRepository(db, logger.Logger)
	outputRepo := repositories.NewOutputRepository(db, logger.Logger)

	// Audio storage
	audioStorage := storage.NewLocalStorage(cfg.AudioBasePath)

	// Pipeline steps: real OpenAI when a key is configured, whisper worker as
	// transcription fallback, simulated results otherwise
	transcriber, extractor, generator := buildPipelineSteps(cfg)

	processor := pipeline.NewProcessor(
		lessonRepo,
		outputRepo,
		transcriber,
		extractor,
		generator,
		audioStorage,
		cfg.AudioBaseURL,
		logger.Logger,
	)

	// Create worker instance
	worker := NewWorker(
		logger.Logger,
		processor,
		outputRepo,
		lessonRepo,
		audioStorage,
		cfg.Cleanup.StaleAge,
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
		cfg.SMTP.From,
	)

	// Create Asynq server
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Queues: map[string]int{
				pipeline.QueueLessons: 5,
				pipeline.QueueDefault: 1,
			},
		},
	)

	// Register task handlers
	mux := asynq.NewServeMux()
	mux.HandleFunc(pipeline.TypeLessonProcess, worker.HandleLessonProcess)
	mux.HandleFunc(pipeline.TypeParentEmail, worker.HandleParentEmail)
	mux.HandleFunc(pipeline.TypeCleanup, worker.HandleCleanup)

	// Start worker
	go func() {
		if err := srv.Run(mux); err != nil {
			logger.Logger.Fatal("Failed to start worker", zap.Error(err))
		}
	}()

	logger.Logger.Info("Worker started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down worker...")
	srv.Shutdown()
	logger.Logger.Info("Worker exited")
}

// buildPipelineSteps picks pipeline implementations based on configuration
func buildPipelineSteps(cfg *config.Config) (pipeline.Transcriber, pipeline.Extractor, pipeline.Generator) {
	if cfg.OpenAI.APIKey != "" {
		clientConfig := openai.DefaultConfig(cfg.OpenAI.APIKey)
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.OpenAI.RequestTimeout}
		client := openai.NewClientWithConfig(clientConfig)
		return pipeline.NewOpenAITranscriber(client, cfg.OpenAI.WhisperModel),
			pipeline.NewOpenAIExtractor(client, cfg.OpenAI.ChatModel),
			pipeline.NewOpenAIGenerator(client, cfg.OpenAI.ChatModel)
	}

	var transcriber pipeline.Transcriber = pipeline.NewSimulatedTranscriber()
	if cfg.Transcription.WorkerURL != "" {
		transcriber = pipeline.NewWorkerTranscriber(cfg.Transcription.WorkerURL, cfg.Transcription.WorkerToken, logger.Logger)
	}

	return transcriber, pipeline.NewSimulatedExtractor(), pipeline.NewSimulatedGenerator()
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taskchat/taskchat-api/internal/agent"
	"github.com/taskchat/taskchat-api/internal/agent/tasktools"
	"github.com/taskchat/taskchat-api/internal/config"
	"github.com/taskchat/taskchat-api/internal/platform/gemini"
	"github.com/taskchat/taskchat-api/internal/platform/logger"
	"github.com/taskchat/taskchat-api/internal/platform/postgres"
	"github.com/taskchat/taskchat-api/internal/queue"
	"github.com/taskchat/taskchat-api/internal/service"
	"github.com/taskchat/taskchat-api/internal/service/auth"
)

// application holds the assembled dependency graph of the server.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	jwtService  auth.JWTService
	userService *service.UserService
	taskService *service.TaskService
	chatService *service.ChatService
	chatQueue   *queue.Queue[*service.ChatResult]
}

// newApplication loads configuration and wires every component:
// logger, database (with migrations), stores, the agent with its tool
// registry, the per-user queue, and the services.
func newApplication(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.Setup(cfg.Server.LogLevel)
	log.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"model", cfg.LLM.ModelName)

	db, err := setupDatabase(cfg, log)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db, log); err != nil {
		return nil, err
	}

	userStore := postgres.NewPostgresUserStore(db, log)
	taskStore := postgres.NewPostgresTaskStore(db, log)
	conversationStore := postgres.NewPostgresConversationStore(db, log)

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	chatModel, err := gemini.NewChatModel(ctx, log, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	registry := agent.NewRegistry()
	if err := tasktools.RegisterAll(registry, taskStore); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}
	runner := agent.NewRunner(chatModel, registry, cfg.Chat.HistoryLimit, log)

	chatQueue := queue.New[*service.ChatResult](queue.Config{
		Capacity:       cfg.Chat.QueueCapacity,
		RequestTimeout: cfg.Chat.RequestTimeout(),
		IdleGrace:      cfg.Chat.WorkerIdleGrace(),
	}, log)

	return &application{
		config:      cfg,
		logger:      log,
		db:          db,
		jwtService:  jwtService,
		userService: service.NewUserService(userStore, auth.NewBcryptHasher(0), jwtService, log),
		taskService: service.NewTaskService(taskStore, log),
		chatService: service.NewChatService(conversationStore, runner, cfg.Chat.HistoryLimit, log),
		chatQueue:   chatQueue,
	}, nil
}

// run starts the HTTP server and blocks until shutdown.
func (app *application) run(ctx context.Context) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverCtx, cancelServer := context.WithCancel(ctx)
	defer cancelServer()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		app.logger.Info("Starting server", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.logger.Error("Server failed", "error", err)
			cancelServer()
		}
	}()

	select {
	case <-shutdownCh:
		app.logger.Info("Shutting down server...")
	case <-serverCtx.Done():
		app.logger.Info("Server context canceled, shutting down...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("Server shutdown failed", "error", err)
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	app.cleanup()

	app.logger.Info("Server shutdown completed")
	return nil
}

// cleanup releases resources after the HTTP server has stopped
// accepting requests.
func (app *application) cleanup() {
	app.chatQueue.Close()

	if err := app.db.Close(); err != nil {
		app.logger.Error("Failed to close database connection", "error", err)
	}
}

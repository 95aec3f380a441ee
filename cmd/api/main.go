package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nebulagames/story-relay/internal/config"
	"github.com/nebulagames/story-relay/internal/handlers"
	"github.com/nebulagames/story-relay/internal/logger"
	"github.com/nebulagames/story-relay/internal/middleware"
	"github.com/nebulagames/story-relay/internal/narrative"
	"github.com/nebulagames/story-relay/internal/services"
	"github.com/nebulagames/story-relay/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Story Relay",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"story_dir", cfg.StoryDir,
		"start_scene", cfg.StartScene)

	audit, err := storage.NewSQLiteAuditLog(cfg.AuditDBPath, log)
	if err != nil {
		log.Error("Failed to open audit log", "error", err, "path", cfg.AuditDBPath)
		os.Exit(1)
	}

	var sessions storage.SessionStore
	if cfg.RedisURL != "" {
		redisSessions, err := storage.NewRedisSessionStore(cfg.RedisURL, log)
		if err != nil {
			log.Error("Failed to create Redis session store", "error", err)
			os.Exit(1)
		}
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := redisSessions.Ping(pingCtx); err != nil {
			pingCancel()
			log.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		pingCancel()
		sessions = redisSessions
		log.Info("Using Redis session store")
	} else {
		sessions = storage.NewMemorySessionStore()
		log.Info("Using in-memory session store")
	}

	content := storage.NewFileContentStore(cfg.StoryDir, cfg.ErrorScene, log)
	dispatcher := services.NewWhatsAppService(cfg.GraphBaseURL, cfg.AccessToken, cfg.NumberID)
	resolver := narrative.NewResolver(content, sessions, dispatcher, cfg.StartScene, log)

	mux := http.NewServeMux()

	mux.Handle("/health", handlers.NewHealthHandler(audit, sessions, log))
	mux.Handle("/webhook", handlers.NewWebhookHandler(cfg.VerifyToken, audit, resolver, log))
	mux.Handle("/webhook-history", handlers.NewHistoryHandler(audit, log))

	messageHandler := handlers.NewMessageHandler(dispatcher, log)
	mux.Handle("/send-message", messageHandler)
	mux.Handle("/send-interactive-button", messageHandler)
	mux.Handle("/send-interactive-list", messageHandler)
	mux.Handle("/send-media", messageHandler)
	mux.Handle("/send-carousel", messageHandler)
	mux.Handle("/upload-media", messageHandler)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.Logger(log, mux),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := sessions.Close(); err != nil {
		log.Error("Error closing session store", "error", err)
	}
	if err := audit.Close(); err != nil {
		log.Error("Error closing audit log", "error", err)
	}

	log.Info("Server exited")
}

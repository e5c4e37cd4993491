package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"agentic-chatbot/internal/config"
	"agentic-chatbot/internal/handlers"
	"agentic-chatbot/internal/pkg/logger"
	"agentic-chatbot/internal/services"
	"agentic-chatbot/internal/store"
)

func main() {
	cfg := config.LoadConfig()

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.Info("Starting agentic chatbot backend",
		"environment", cfg.Environment,
		"port", cfg.HTTP.Port)

	if err := ensureDataDir(cfg.Database.DSN); err != nil {
		log.Fatal("Failed to create data directory", "error", err)
	}

	meetingStore, err := store.NewSQLiteStore(cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to open meeting store", "error", err)
	}

	weatherService := services.NewWeatherService(cfg.Weather, log)

	var geminiService *services.GeminiService
	if cfg.Gemini.APIKey != "" {
		geminiService, err = services.NewGeminiService(cfg.Gemini, log)
		if err != nil {
			log.WithError(err).Warn("Gemini unavailable, document answers will be extractive")
			geminiService = nil
		}
	} else {
		log.Info("No Gemini API key configured, document answers will be extractive")
	}

	documentService := services.NewDocumentService(geminiService, log)

	var conversationLog services.ConversationLog
	redisService, err := services.NewRedisService(cfg.Redis, log)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, conversation history disabled")
	} else {
		conversationLog = redisService
	}

	orchestrator := services.NewOrchestrator(meetingStore, weatherService, documentService, conversationLog, log)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))

	handlers.NewChatHandler(orchestrator, log).RegisterRoutes(router)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info("Shutting down", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}

	if err := orchestrator.Close(); err != nil {
		log.WithError(err).Error("Orchestrator shutdown failed")
	}

	log.Info("Shutdown complete")
}

// ensureDataDir creates the directory of a file-backed sqlite DSN.
func ensureDataDir(dsn string) error {
	if !strings.HasPrefix(dsn, "file:") {
		return nil
	}

	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return nil
	}

	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()

		log.WithFields(logger.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(startTime).String(),
			"client":   c.ClientIP(),
		}).Info("Request completed")
	}
}

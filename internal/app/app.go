package app

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"docuchat/backend/internal/api"
	"docuchat/backend/internal/config"
	"docuchat/backend/internal/llm"
	"docuchat/backend/internal/service"
	"docuchat/backend/internal/session"
)

// Run wires the application together and blocks serving HTTP. It returns a
// process exit code so main stays a one-liner.
func Run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		// slog is not yet configured, so use the default logger for this
		// critical error.
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	setupLogger(cfg.LogLevel)
	logConfigSource()

	sessions := session.NewManager(time.Duration(cfg.SessionTTLMinutes) * time.Minute)
	sessions.StartSweeper(time.Minute)
	defer sessions.Stop()

	provider := llm.NewGeminiProvider(cfg.GeminiBaseURL, time.Duration(cfg.RequestTimeoutSeconds)*time.Second)
	chatService := service.NewChatService(sessions, provider, cfg)
	chatHandler := api.NewChatHandler(chatService)
	router := api.NewRouter(chatHandler, cfg.StaticDir)

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.AppPort),
		Handler:           router,
		ReadHeaderTimeout: 20 * time.Second,
		WriteTimeout:      0, // Disabled for the streaming endpoint
		IdleTimeout:       120 * time.Second,
	}

	slog.Info("Starting server",
		"port", cfg.AppPort,
		"model", cfg.GeminiModel,
		"upload_policy", cfg.UploadPolicy)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server failed", "error", err)
		return 1
	}

	return 0
}

func logConfigSource() {
	configFileUsed := viper.ConfigFileUsed()
	if configFileUsed != "" {
		slog.Info("Successfully loaded configuration from file.", "file", configFileUsed)
	} else {
		slog.Info("Configuration file not found. Using environment variables and defaults.")
	}
}

func setupLogger(logLevel string) {
	var level slog.Level
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

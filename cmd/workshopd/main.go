// Workshop orchestrator server — provides the HTTP API, runs multi-agent
// deliberation sessions, and streams session events to clients.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/opennotebook/workshop/pkg/api"
	"github.com/opennotebook/workshop/pkg/config"
	"github.com/opennotebook/workshop/pkg/database"
	"github.com/opennotebook/workshop/pkg/llm"
	"github.com/opennotebook/workshop/pkg/orchestrator"
	"github.com/opennotebook/workshop/pkg/services"
	"github.com/opennotebook/workshop/pkg/store"
	"github.com/opennotebook/workshop/pkg/version"
)

const shutdownDrainTimeout = 30 * time.Second

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	notebooksDir := flag.String("notebooks-dir",
		getEnv("NOTEBOOKS_DIR", ""),
		"Directory of notebook markdown files exposed to agents (empty disables notebook tools)")
	devMode := flag.Bool("dev",
		os.Getenv("DEV_MODE") == "true",
		"Run with an in-memory session store instead of PostgreSQL")
	flag.Parse()

	// Load .env file from config directory
	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment",
			"path", envPath, "error", err)
	} else {
		slog.Info("Loaded environment", "path", envPath)
	}

	httpPort := getEnv("HTTP_PORT", "8080")

	slog.Info("Starting workshop server",
		"version", version.Full(),
		"http_port", httpPort,
		"config_dir", *configDir,
		"dev_mode", *devMode)

	ctx := context.Background()

	// 1. Initialize configuration
	cfg, err := config.Initialize(*configDir)
	if err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(1)
	}
	stats := cfg.Stats()
	slog.Info("Configuration loaded", "modes", stats.Modes, "agents", stats.Agents)

	// 2. Initialize the session store
	var (
		sessionStore store.Store
		dbHealth     api.HealthChecker
	)
	if *devMode {
		sessionStore = store.NewMemoryStore()
		slog.Info("Using in-memory session store")
	} else {
		dbConfig, err := database.LoadConfigFromEnv()
		if err != nil {
			slog.Error("Failed to load database config", "error", err)
			os.Exit(1)
		}
		dbClient, err := database.NewClient(ctx, dbConfig)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := dbClient.Close(); err != nil {
				slog.Error("Error closing database client", "error", err)
			}
		}()
		sessionStore = store.NewPostgresStore(dbClient.DB())
		dbHealth = dbClient
		slog.Info("Connected to PostgreSQL database")
	}

	// 3. Create the LLM client
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		slog.Error("ANTHROPIC_API_KEY is not set")
		os.Exit(1)
	}
	llmClient := llm.NewAnthropicClient(apiKey, cfg.Defaults.MaxRetries)
	slog.Info("LLM client initialized", "model", cfg.Defaults.LLMModel)

	// 4. Wire the orchestrator and domain service
	var notebooks llm.NotebookFetcher
	if *notebooksDir != "" {
		notebooks = services.NewFileNotebookFetcher(*notebooksDir)
		slog.Info("Notebook tools enabled", "dir", *notebooksDir)
	}
	orch := orchestrator.New(sessionStore, llmClient, cfg.Defaults, notebooks)
	workshopService := services.NewWorkshopService(sessionStore, cfg, orch)

	// 5. Create and start the HTTP server (non-blocking)
	httpServer := api.NewServer(cfg, workshopService, dbHealth)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + httpPort
		slog.Info("HTTP server listening", "addr", addr)
		if err := httpServer.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	// 6. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// 7. Graceful shutdown: stop accepting sessions, drain running ones,
	// then stop the HTTP server.
	drainCtx, drainCancel := context.WithTimeout(ctx, shutdownDrainTimeout)
	defer drainCancel()
	if err := workshopService.Shutdown(drainCtx); err != nil {
		slog.Warn("Session drain timeout exceeded, sessions left incomplete", "error", err)
	} else {
		slog.Info("All sessions drained")
	}

	httpShutdownCtx, httpCancel := context.WithTimeout(ctx, 5*time.Second)
	defer httpCancel()
	if err := httpServer.Shutdown(httpShutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}

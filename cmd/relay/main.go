// Relay server: translates internal agent-runtime events into the public
// SSE stream and serves them over HTTP.
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

	"github.com/agentwire/relay/pkg/api"
	"github.com/agentwire/relay/pkg/broker"
	"github.com/agentwire/relay/pkg/cleanup"
	"github.com/agentwire/relay/pkg/config"
	"github.com/agentwire/relay/pkg/database"
	"github.com/agentwire/relay/pkg/store"
	"github.com/agentwire/relay/pkg/version"
)

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
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment",
			"path", envPath, "error", err)
	} else {
		slog.Info("Loaded environment", "path", envPath)
	}

	slog.Info("Starting relay", "version", version.Full(), "config_dir", *configDir)

	ctx := context.Background()

	// 1. Configuration
	cfg, err := config.Initialize(*configDir)
	if err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(1)
	}

	// 2. Stream metadata store: PostgreSQL when enabled, in-memory otherwise
	var dbClient *database.Client
	var st store.Store
	if cfg.Database.Enabled {
		dbConfig, err := database.LoadConfigFromEnv()
		if err != nil {
			slog.Error("Failed to load database config", "error", err)
			os.Exit(1)
		}
		dbClient, err = database.NewClient(ctx, dbConfig)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := dbClient.Close(); err != nil {
				slog.Error("Error closing database client", "error", err)
			}
		}()
		st = store.NewSQLStore(dbClient.DB())
		slog.Info("Connected to PostgreSQL database")
	} else {
		st = store.NewMemoryStore()
		slog.Info("Database disabled, using in-memory stream store")
	}

	// 3. Fan-out broker
	b := broker.New(broker.WithSubscriberBuffer(cfg.Stream.SubscriberBuffer))

	// 4. Retention cleanup
	cleanupService := cleanup.NewService(cfg.RetentionTTL(), time.Hour, st, b)
	cleanupService.Start(ctx)
	defer cleanupService.Stop()

	// 5. HTTP server
	server := api.NewServer(cfg, st, b, dbClient)
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr(),
		Handler: server.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

	// 7. Graceful shutdown: stop accepting requests, let SSE connections drain
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}

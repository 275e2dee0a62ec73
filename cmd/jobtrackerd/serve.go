package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/jonathan/job-tracker/internal/config"
	"github.com/jonathan/job-tracker/internal/db"
	"github.com/jonathan/job-tracker/internal/logging"
	"github.com/jonathan/job-tracker/internal/server"
	"github.com/jonathan/job-tracker/internal/storage"
	"github.com/jonathan/job-tracker/internal/tracker"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for managing job applications.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Port = servePort
	}
	logging.Setup(cfg.LogLevel)

	ctx := cmd.Context()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	cache := connectRedis(ctx, cfg.RedisURL)

	uploads, err := storage.New(cfg.UploadDir)
	if err != nil {
		return err
	}

	svc := tracker.NewService(database, uploads, cache)
	return server.New(server.Config{Port: cfg.Port}, svc, uploads).Start()
}

// connectRedis returns nil when no URL is configured or the server is
// unreachable; the statistics cache is optional.
func connectRedis(ctx context.Context, redisURL string) *redis.Client {
	if redisURL == "" {
		return nil
	}
	cache, err := db.NewRedisClient(ctx, redisURL)
	if err != nil {
		slog.Warn("redis unavailable, statistics cache disabled", "err", err)
		return nil
	}
	return cache
}

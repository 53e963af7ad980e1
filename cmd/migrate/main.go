package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/carebase/carebase/internal/config"
	"github.com/carebase/carebase/internal/observability/logger"
	"github.com/carebase/carebase/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	ctx := context.Background()

	db, err := postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		slog.Error("failed to connect to database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx, postgres.InitialSchema); err != nil {
		slog.Error("migration failed", logger.Error(err))
		os.Exit(1)
	}

	slog.Info("migration complete")
}

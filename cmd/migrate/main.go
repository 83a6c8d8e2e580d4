package main

import (
	"context"

	"tailorshop/internal/config"
	"tailorshop/internal/db"
	"tailorshop/internal/logging"
	"tailorshop/internal/migrate"

	"go.uber.org/zap"
)

func main() {
	logger, err := logging.New("migrate")
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	cfg := config.FromEnv()
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool, logger); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}

	logger.Info("migrations applied")
}

package main

import (
	"context"
	"flag"
	"io"
	"os"

	"tailorshop/internal/config"
	"tailorshop/internal/db"
	"tailorshop/internal/logging"
	catalogrepo "tailorshop/internal/repository/catalog"
	"tailorshop/internal/seed"
	catalogsvc "tailorshop/internal/service/catalog"

	"go.uber.org/zap"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to a YAML catalog seed (defaults to the bundled demo catalog)")
	flag.Parse()

	logger, err := logging.New("seed")
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

	var r io.Reader
	if filePath != "" {
		f, err := os.Open(filePath)
		if err != nil {
			logger.Fatal("open seed file", zap.Error(err))
		}
		defer f.Close()
		r = f
	}

	svc := catalogsvc.New(catalogrepo.NewPostgres(pool, logger), logger)
	n, err := seed.Apply(ctx, svc, r)
	if err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}

	logger.Info("seed applied", zap.Int("items", n))
}

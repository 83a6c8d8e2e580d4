package main

import (
	"context"
	"flag"
	"os"
	"time"

	"tailorshop/internal/config"
	"tailorshop/internal/db"
	"tailorshop/internal/domain"
	"tailorshop/internal/importer"
	"tailorshop/internal/logging"
	catalogrepo "tailorshop/internal/repository/catalog"
	catalogsvc "tailorshop/internal/service/catalog"

	"go.uber.org/zap"
)

func main() {
	var (
		filePath string
		kind     string
	)
	flag.StringVar(&filePath, "file", "", "Path to catalog CSV export")
	flag.StringVar(&kind, "kind", "", "Catalog for rows without a kind column: laundry or unstitched")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger, err := logging.New("importer")
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	var defaultKind domain.CatalogKind
	if kind != "" {
		if defaultKind, err = domain.ParseCatalogKind(kind); err != nil {
			logger.Fatal("invalid kind", zap.Error(err))
		}
	}

	cfg := config.FromEnv()
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatal("open file", zap.Error(err))
	}
	defer f.Close()

	svc := catalogsvc.New(catalogrepo.NewPostgres(pool, logger), logger)
	imp := importer.NewCSVImporter(f, svc, defaultKind)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		logger.Fatal("import failed", zap.Error(err), zap.Int("imported", count))
	}

	logger.Info("catalog imported", zap.Int("items", count), zap.Duration("took", time.Since(start)))
}

package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/3gr1v750v/api-yamdb-docker/internal/config"
	"github.com/3gr1v750v/api-yamdb-docker/internal/database"
	"github.com/3gr1v750v/api-yamdb-docker/internal/importer"
	"github.com/3gr1v750v/api-yamdb-docker/pkg/logger"
	"go.uber.org/zap"
)

// loadcsv fills an empty database from the CSV dump in CSV_DIR or, when
// CSV_S3_BUCKET is set, from that bucket.
func main() {
	cfg := config.Load()

	dir := flag.String("dir", cfg.CSV.Dir, "directory with the CSV files")
	bucket := flag.String("bucket", cfg.CSV.Bucket, "S3 bucket with the CSV files (overrides -dir)")
	prefix := flag.String("prefix", cfg.CSV.Prefix, "key prefix inside the bucket")
	flag.Parse()

	cfg.CSV.Dir, cfg.CSV.Bucket, cfg.CSV.Prefix = *dir, *bucket, *prefix

	if err := logger.Init(!cfg.IsProduction()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database.Connect(cfg)
	if err := database.Migrate(database.DB); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	source, err := importer.NewSource(ctx, cfg.CSV)
	if err != nil {
		logger.Log.Fatal("Failed to open CSV source", zap.Error(err))
	}
	logger.Log.Info("Loading CSV data",
		zap.String("source", source.String()),
		zap.Strings("files", importer.FileNames()),
	)

	results, err := importer.NewLoader(database.DB, source).Load(ctx)
	total := 0
	for _, r := range results {
		total += r.Rows
	}
	if err != nil {
		logger.Log.Fatal("CSV load stopped",
			zap.Int("files_loaded", len(results)),
			zap.Int("rows_loaded", total),
			zap.Error(err),
		)
	}

	logger.Log.Info("CSV load complete",
		zap.Int("files", len(results)),
		zap.Int("rows", total),
	)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/safar/store-backoffice/internal/config"
	"github.com/safar/store-backoffice/internal/database"
	"go.uber.org/zap"
)

func main() {
	dir := flag.String("dir", "migrations", "directory holding *.up.sql and *.down.sql files")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: migrate [-dir migrations] up|down")
		os.Exit(2)
	}
	direction := flag.Arg(0)

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Load config", zap.Error(err))
	}

	ctx := context.Background()
	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("Connect to database", zap.Error(err))
	}
	defer db.Close()

	n, err := database.Migrate(ctx, db, *dir, direction, func(name string) {
		logger.Info("Ran migration", zap.String("file", name))
	})
	if err != nil {
		logger.Fatal("Migration failed", zap.Int("applied", n), zap.Error(err))
	}

	logger.Info("Migrations complete",
		zap.Int("count", n),
		zap.String("direction", direction))
}

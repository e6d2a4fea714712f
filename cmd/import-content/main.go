// Package main provides the compendium import tool. It loads class and
// item YAML from the content directories and upserts it into PostgreSQL.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/hearthvtt/levelforge/internal/config"
	"github.com/hearthvtt/levelforge/internal/game/compendium"
	"github.com/hearthvtt/levelforge/internal/observability"
	"github.com/hearthvtt/levelforge/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()
	dirs := flag.Args()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if len(dirs) == 0 {
		dirs = []string{cfg.Content.ClassesDir, cfg.Content.ItemsDir}
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer pool.Close()

	repo := postgres.NewCompendiumRepository(pool.DB())

	imported := 0
	for _, dir := range dirs {
		entries, err := compendium.LoadDir(dir)
		if err != nil {
			logger.Fatal("loading content", zap.String("dir", dir), zap.Error(err))
		}
		for _, entry := range entries {
			if err := repo.Upsert(ctx, entry); err != nil {
				logger.Fatal("upserting entry",
					zap.String("uuid", entry.UUID),
					zap.String("name", entry.Name),
					zap.Error(err),
				)
			}
			imported++
		}
		logger.Info("directory imported", zap.String("dir", dir), zap.Int("entries", len(entries)))
	}

	fmt.Fprintf(os.Stdout, "imported %d entries in %s\n", imported, time.Since(start).Round(time.Millisecond))
}

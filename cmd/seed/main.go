package main

import (
	"context"
	"log"

	"receiptwise/pkg/config"
	"receiptwise/pkg/logger"
	"receiptwise/pkg/postgres"

	"github.com/Masterminds/squirrel"
	"go.uber.org/zap"
)

// defaultCategories is the global category directory every account sees.
// Seeding is idempotent: existing names are left alone.
var defaultCategories = []struct {
	name string
	icon string
}{
	{"Groceries", "shopping-cart"},
	{"Dining", "utensils"},
	{"Transport", "bus"},
	{"Housing", "home"},
	{"Utilities", "zap"},
	{"Health", "heart-pulse"},
	{"Entertainment", "clapperboard"},
	{"Clothing", "shirt"},
	{"Electronics", "monitor"},
	{"Travel", "plane"},
	{"Education", "graduation-cap"},
	{"Drink", "cup-soda"},
	{"Other", "circle-ellipsis"},
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	// Connect to database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.RunMigrations(&cfg.Database); err != nil {
		appLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	appLogger.Info("Seeding global categories")

	insert := squirrel.Insert("categories").
		Columns("category_name", "icon", "owner_id").
		Suffix("ON CONFLICT (category_name) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar)
	for _, cat := range defaultCategories {
		insert = insert.Values(cat.name, cat.icon, nil)
	}

	sql, args, err := insert.ToSql()
	if err != nil {
		appLogger.Fatal("Failed to build seed query", zap.Error(err))
	}

	tag, err := db.Exec(ctx, sql, args...)
	if err != nil {
		appLogger.Fatal("Failed to seed categories", zap.Error(err))
	}

	appLogger.Info("Seeding completed",
		zap.Int64("inserted", tag.RowsAffected()),
		zap.Int("total", len(defaultCategories)),
	)
}

package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"bancard-connector/internal/charge"
	"bancard-connector/internal/logger"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const dropSQL = `
DROP TABLE IF EXISTS charge_webhooks;
DROP TABLE IF EXISTS charges;
`

func main() {
	_ = godotenv.Load()
	logger.Init(os.Getenv("APP_ENV"))
	defer logger.Sync()

	mode := flag.String("mode", "up", "migration mode: up or down")
	flag.Parse()

	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		logger.L().Fatal("DB_URL not set in environment")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		logger.L().Fatal("failed to connect db", zap.Error(err))
	}
	defer db.Close()

	if err := run(context.Background(), db, *mode); err != nil {
		logger.L().Fatal("migration failed", zap.String("mode", *mode), zap.Error(err))
	}
	logger.L().Info("migration finished", zap.String("mode", *mode))
}

func run(ctx context.Context, db *sql.DB, mode string) error {
	switch mode {
	case "up":
		return charge.NewRepository(db).Migrate(ctx)
	case "down":
		if _, err := db.ExecContext(ctx, dropSQL); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown mode: %s (use 'up' or 'down')", mode)
	}
}

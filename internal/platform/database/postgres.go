package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver

	"github.com/krishkrishna03/techex-sub003/internal/platform/config"
)

//go:embed schema.sql
var schema string

var DB *sql.DB

func Connect() {
	var err error
	DB, err = sql.Open("pgx", config.AppConfig.DBConnStr)
	if err != nil {
		slog.Error("Error opening database", slog.Any("err", err))
		os.Exit(1)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = DB.PingContext(ctx); err != nil {
		slog.Error("Error connecting to database", slog.Any("err", err))
		os.Exit(1)
	}

	slog.Info("Successfully connected to PostgreSQL database")
}

// Migrate applies the embedded schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("database.Migrate: %w", err)
	}
	return nil
}

func Close() {
	if DB != nil {
		DB.Close()
		slog.Info("Database connection closed")
	}
}

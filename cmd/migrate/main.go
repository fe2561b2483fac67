package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/bhos1242/seva-samarpan-sub001/internal/infra"
	"github.com/bhos1242/seva-samarpan-sub001/internal/migrate"
)

func main() {
	_ = godotenv.Load()

	logger := infra.NewLogger(os.Getenv("APP_ENV")).With().Str("cmd", "migrate").Logger()

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	m, err := migrate.New(db, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("load migrations")
	}
	applied, err := m.Up(ctx)
	if err != nil {
		logger.Fatal().Err(err).Strs("applied", applied).Msg("migration failed")
	}
	logger.Info().Int("applied", len(applied)).Msg("schema up to date")
}

package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // Import postgres driver
	"github.com/rs/zerolog/log"
)

func Connect(dsn string, timeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database handle: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close database handle after ping error")
		}
		return nil, fmt.Errorf("failed to ping database within %v: %w", timeout, err)
	}

	return db, nil
}

// Схема создается при старте, если ее еще нет.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS predictors (
		id                  TEXT PRIMARY KEY,
		name                TEXT NOT NULL,
		parent_predictor_id TEXT NOT NULL DEFAULT '',
		created_date        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		version             INTEGER NOT NULL DEFAULT 1,
		deleted_at          TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS tournaments (
		id           TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		start_date   TIMESTAMPTZ NOT NULL,
		end_date     TIMESTAMPTZ NOT NULL,
		created_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		version      INTEGER NOT NULL DEFAULT 1,
		deleted_at   TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id            TEXT PRIMARY KEY,
		tournament_id TEXT NOT NULL,
		team_a        TEXT NOT NULL,
		team_b        TEXT NOT NULL,
		match_time    TIMESTAMPTZ NOT NULL,
		status        TEXT NOT NULL DEFAULT 'scheduled',
		winner        TEXT NOT NULL DEFAULT '',
		created_date  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		version       INTEGER NOT NULL DEFAULT 1,
		deleted_at    TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS predictions (
		id               TEXT PRIMARY KEY,
		match_id         TEXT NOT NULL,
		predictor_id     TEXT NOT NULL,
		predicted_winner TEXT NOT NULL DEFAULT '',
		prediction_time  TIMESTAMPTZ,
		is_correct       TEXT NOT NULL DEFAULT '',
		result_status    TEXT NOT NULL DEFAULT '',
		created_date     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		version          INTEGER NOT NULL DEFAULT 1,
		deleted_at       TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_tournament ON matches (tournament_id) WHERE deleted_at IS NULL`,
	`CREATE INDEX IF NOT EXISTS idx_predictions_predictor ON predictions (predictor_id) WHERE deleted_at IS NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_predictions_match_predictor ON predictions (match_id, predictor_id) WHERE deleted_at IS NULL`,
}

// Migrate применяет схему. Повторный вызов безопасен.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Package postgres implements the domain store interfaces on a pgx
// connection pool.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Database connected", "max_conns", poolCfg.MaxConns)
	return pool, nil
}

func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			reddit_username TEXT UNIQUE NOT NULL,
			lang TEXT NOT NULL DEFAULT 'en',
			refresh_token TEXT NOT NULL,
			is_global_admin BOOLEAN NOT NULL DEFAULT FALSE,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			is_mod BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS threads (
			id SERIAL PRIMARY KEY,
			thread_name TEXT NOT NULL,
			display_name TEXT NOT NULL,
			post_id TEXT,
			subreddit TEXT,
			t0 BIGINT,
			youtube_id TEXT,
			api_id TEXT,
			created_by_user_id INTEGER NOT NULL REFERENCES users(id),
			sections_id INTEGER[] NOT NULL DEFAULT '{}',
			events_id INTEGER[] NOT NULL DEFAULT '{}',
			event_column_headers TEXT[] NOT NULL DEFAULT '{}',
			utc_col_index SMALLINT
		)`,
		`CREATE TABLE IF NOT EXISTS sections (
			id SERIAL PRIMARY KEY,
			is_events_section BOOLEAN NOT NULL DEFAULT FALSE,
			name TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			lock_held_by_user_id INTEGER REFERENCES users(id),
			lock_assigned_at_utc BIGINT NOT NULL DEFAULT 0,
			in_thread_id INTEGER NOT NULL REFERENCES threads(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id SERIAL PRIMARY KEY,
			posted BOOLEAN NOT NULL DEFAULT FALSE,
			message TEXT NOT NULL DEFAULT '',
			terminal_count TEXT NOT NULL DEFAULT '',
			utc BIGINT NOT NULL,
			in_thread_id INTEGER NOT NULL REFERENCES threads(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS preset_events (
			id SERIAL PRIMARY KEY,
			holds_clock BOOLEAN NOT NULL DEFAULT FALSE,
			message TEXT NOT NULL,
			name TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sections_in_thread_id ON sections(in_thread_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_in_thread_id ON events(in_thread_id)`,
	}

	for _, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	slog.Info("Database migrations completed")
	return nil
}

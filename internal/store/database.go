package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Database represents the season dataset PostgreSQL connection
type Database struct {
	conn *sql.DB
	dsn  string
}

// migration is one schema step, applied once and recorded in schema_migrations
type migration struct {
	version string
	sql     string
}

var migrations = []migration{
	{
		version: "001_create_season_matches",
		sql: `
			CREATE TABLE IF NOT EXISTS season_matches (
				season      VARCHAR(16)  NOT NULL,
				match_id    VARCHAR(64)  NOT NULL,
				ordinal     INTEGER      NOT NULL,
				match_date  VARCHAR(32)  NOT NULL DEFAULT '',
				home_team   VARCHAR(128) NOT NULL,
				away_team   VARCHAR(128) NOT NULL,
				payload     JSONB        NOT NULL,
				imported_at TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
				PRIMARY KEY (season, match_id)
			);
			CREATE INDEX IF NOT EXISTS idx_season_matches_order ON season_matches (season, ordinal);
		`,
	},
	{
		version: "002_create_backfill_runs",
		sql: `
			CREATE TABLE IF NOT EXISTS backfill_runs (
				run_id           UUID PRIMARY KEY,
				season           VARCHAR(16) NOT NULL,
				source_path      TEXT        NOT NULL,
				status           VARCHAR(16) NOT NULL DEFAULT 'queued',
				dry_run          BOOLEAN     NOT NULL DEFAULT FALSE,
				matches_imported INTEGER     NOT NULL DEFAULT 0,
				last_error       TEXT,
				created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				started_at       TIMESTAMPTZ,
				completed_at     TIMESTAMPTZ
			);
			CREATE INDEX IF NOT EXISTS idx_backfill_runs_status ON backfill_runs (status, created_at);
		`,
	},
}

// NewDatabase creates a new database connection
func NewDatabase(dsn string) (*Database, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{
		conn: db,
		dsn:  dsn,
	}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// DB returns the underlying *sql.DB for queries
func (db *Database) DB() *sql.DB {
	return db.conn
}

// EnsureSchema applies every pending migration in order
func (db *Database) EnsureSchema(ctx context.Context) error {
	log.Println("Running database migrations...")

	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := db.conn.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, m := range migrations {
		if err := db.runMigration(ctx, m); err != nil {
			return fmt.Errorf("failed to run migration %s: %w", m.version, err)
		}
	}

	log.Println("✓ All migrations completed successfully")
	return nil
}

// runMigration applies a single migration if it hasn't been applied yet
func (db *Database) runMigration(ctx context.Context, m migration) error {
	var exists bool
	err := db.conn.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", m.version).Scan(&exists)
	if err != nil {
		return err
	}

	if exists {
		log.Printf("  ⊘ Skipping %s (already applied)", m.version)
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", m.version); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.Printf("  ✓ Applied %s", m.version)
	return nil
}

// HealthCheck performs a health check on the database
func (db *Database) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	return db.conn.PingContext(ctx)
}

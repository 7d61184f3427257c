package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"smart-grocer/utils"
)

// PostgresStore keeps records in a single PostgreSQL key-value table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, waits for it to accept
// connections, runs the schema migration, and returns a ready-to-use store.
// Cancelling ctx stops the connection retries.
func NewPostgresStore(ctx context.Context, dsn string, maxRetries int, logger *utils.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: maxRetries, BaseDelay: 2 * time.Second, Logger: logger}
	ping := func() error { return db.PingContext(ctx) }
	if err := retry.DoContext(ctx, "postgres-ping", ping); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS session_records (
			key         VARCHAR(100) PRIMARY KEY,
			value       BYTEA        NOT NULL,
			updated_at  TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);
	`)
	return err
}

func (ps *PostgresStore) Get(key string) ([]byte, error) {
	var value []byte
	err := ps.db.QueryRow(`SELECT value FROM session_records WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get %q: %w", key, err)
	}
	return value, nil
}

func (ps *PostgresStore) Set(key string, value []byte) error {
	_, err := ps.db.Exec(`
		INSERT INTO session_records (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, key, value)
	if err != nil {
		return fmt.Errorf("postgres: set %q: %w", key, err)
	}
	return nil
}

func (ps *PostgresStore) Delete(key string) error {
	if _, err := ps.db.Exec(`DELETE FROM session_records WHERE key = $1`, key); err != nil {
		return fmt.Errorf("postgres: delete %q: %w", key, err)
	}
	return nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

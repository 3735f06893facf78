// Package postgres persists notification state in a PostgreSQL table keyed by
// address, so several notifier instances can share one database.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver

	"github.com/couchcryptid/outage-notifier/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS notification_states (
	address_key TEXT PRIMARY KEY,
	state       JSONB NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Store keeps one NotificationState row per address key.
type Store struct {
	db         *sql.DB
	addressKey string
}

// Open connects to dsn with the pgx driver.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// New returns a Store for addressKey. Call EnsureSchema before first use.
func New(db *sql.DB, addressKey string) *Store {
	return &Store{db: db, addressKey: addressKey}
}

// EnsureSchema creates the state table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create notification_states: %w", err)
	}
	return nil
}

// Load returns the stored state, or nil when the address has no row.
func (s *Store) Load(ctx context.Context) (*domain.NotificationState, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM notification_states WHERE address_key = $1`, s.addressKey,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	var st domain.NotificationState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptState, err)
	}
	return &st, nil
}

// Save upserts the state row.
func (s *Store) Save(ctx context.Context, state domain.NotificationState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO notification_states (address_key, state, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (address_key) DO UPDATE
SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`,
		s.addressKey, raw)
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// Clear deletes the address's row.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM notification_states WHERE address_key = $1`, s.addressKey); err != nil {
		return fmt.Errorf("clear state: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

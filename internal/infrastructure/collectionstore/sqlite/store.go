// Package sqlite provides a SQLite implementation of the CollectionStore interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/weavehq/weave/internal/domain/entities"
	"github.com/weavehq/weave/internal/domain/ports"
	"github.com/weavehq/weave/internal/infrastructure/config"
)

// Store implements ports.CollectionStore using SQLite. Each collection is a
// row holding the JSON-encoded record array, matching the on-disk layout of
// the flat-file stores it replaces. Staged writes live in memory until Commit.
type Store struct {
	db   *sql.DB
	path string

	mu     sync.Mutex
	staged map[string][]ports.WriteOp
}

// NewStore opens the database at the configured path and ensures the schema.
func NewStore(ctx context.Context, cfg config.SQLiteConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Enable foreign keys for referential integrity
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	s := &Store{
		db:     db,
		path:   cfg.Path,
		staged: make(map[string][]ports.WriteOp),
	}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) ensureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS collections (
		name TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Load returns all records in the named collection. A collection that has
// never been written returns ports.ErrCollectionNotFound.
func (s *Store) Load(ctx context.Context, collection string) ([]entities.Record, error) {
	row := s.db.QueryRowContext(ctx, "SELECT data FROM collections WHERE name = ?", collection)

	var data string
	err := row.Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("collection %q: %w", collection, ports.ErrCollectionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading collection %q: %w", collection, err)
	}

	var records []entities.Record
	if err := json.Unmarshal([]byte(data), &records); err != nil {
		return nil, fmt.Errorf("decoding collection %q: %w", collection, err)
	}
	return records, nil
}

// Begin opens a staging transaction and returns its ID.
func (s *Store) Begin(ctx context.Context) (string, error) {
	txID := uuid.New().String()
	s.mu.Lock()
	s.staged[txID] = nil
	s.mu.Unlock()
	return txID, nil
}

// StageWrite records a pending full-collection write under the transaction.
// Nothing touches the database until Commit.
func (s *Store) StageWrite(ctx context.Context, txID string, op ports.WriteOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ops, ok := s.staged[txID]
	if !ok {
		return fmt.Errorf("unknown transaction %q", txID)
	}
	s.staged[txID] = append(ops, op)
	return nil
}

// Commit applies all staged writes for the transaction inside a single SQL
// transaction, so either every collection is updated or none are.
func (s *Store) Commit(ctx context.Context, txID string) error {
	s.mu.Lock()
	ops, ok := s.staged[txID]
	delete(s.staged, txID)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown transaction %q", txID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning sql transaction: %w", err)
	}

	for _, op := range ops {
		data, err := json.Marshal(op.Records)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("encoding collection %q: %w", op.Collection, err)
		}
		query := `
			INSERT INTO collections (name, data, updated_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(name) DO UPDATE SET
				data = excluded.data,
				updated_at = excluded.updated_at
		`
		if _, err := tx.ExecContext(ctx, query, op.Collection, string(data)); err != nil {
			tx.Rollback()
			return fmt.Errorf("writing collection %q: %w", op.Collection, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing sql transaction: %w", err)
	}
	return nil
}

// Rollback discards all staged writes for the transaction.
func (s *Store) Rollback(ctx context.Context, txID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.staged, txID)
	return nil
}

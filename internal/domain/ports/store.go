// Package ports defines interfaces for external service communication.
package ports

import (
	"context"
	"errors"

	"github.com/weavehq/weave/internal/domain/entities"
)

// ErrCollectionNotFound is returned by Load when the named collection has
// never been written. New installs have no collections, so callers that
// scan at startup treat this as an empty result.
var ErrCollectionNotFound = errors.New("collection not found")

// WriteOp stages a full-collection overwrite as part of a transaction.
// EntityID identifies the record the write is about, for conflict checks
// and diagnostics; Records is the complete new content of the collection.
type WriteOp struct {
	Collection string
	EntityID   string
	Records    []entities.Record
}

// CollectionStore is the durable storage collaborator: a transactional
// key-value collection store. The relationship layer consumes it and never
// implements entity persistence itself.
type CollectionStore interface {
	// Load reads an entire named collection. Returns ErrCollectionNotFound
	// if the collection has never been written.
	Load(ctx context.Context, collection string) ([]entities.Record, error)

	// Begin opens a transaction and returns its id.
	Begin(ctx context.Context) (string, error)

	// StageWrite adds a write operation to an open transaction. Nothing is
	// visible to readers until Commit.
	StageWrite(ctx context.Context, txID string, op WriteOp) error

	// Commit applies all staged operations atomically. On failure the
	// transaction is no longer usable and the caller must Rollback.
	Commit(ctx context.Context, txID string) error

	// Rollback discards all staged operations.
	Rollback(ctx context.Context, txID string) error

	// Close releases the underlying resources.
	Close() error
}

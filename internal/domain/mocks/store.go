// Package mocks provides shared test doubles for the domain ports.
package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/weavehq/weave/internal/domain/entities"
	"github.com/weavehq/weave/internal/domain/ports"
)

// CollectionStore is an in-memory mock implementation of
// ports.CollectionStore. Writes staged in a transaction become visible only
// on Commit, which lets tests assert rollback atomicity.
type CollectionStore struct {
	mu          sync.Mutex
	Collections map[string][]entities.Record
	staged      map[string][]ports.WriteOp
	nextTx      int

	LoadErr   error
	BeginErr  error
	CommitErr error
	// StageErrOn makes StageWrite fail for the named collection.
	StageErrOn string

	Commits   int
	Rollbacks int
}

// NewCollectionStore creates an empty mock store.
func NewCollectionStore() *CollectionStore {
	return &CollectionStore{
		Collections: make(map[string][]entities.Record),
		staged:      make(map[string][]ports.WriteOp),
	}
}

// Seed places a record into a collection, creating the collection if needed.
func (m *CollectionStore) Seed(collection string, record entities.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Collections[collection] = append(m.Collections[collection], record)
}

// Load reads an entire named collection.
func (m *CollectionStore) Load(_ context.Context, collection string) ([]entities.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	records, ok := m.Collections[collection]
	if !ok {
		return nil, ports.ErrCollectionNotFound
	}
	out := make([]entities.Record, len(records))
	copy(out, records)
	return out, nil
}

// Begin opens a transaction.
func (m *CollectionStore) Begin(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BeginErr != nil {
		return "", m.BeginErr
	}
	m.nextTx++
	txID := fmt.Sprintf("tx-%d", m.nextTx)
	m.staged[txID] = nil
	return txID, nil
}

// StageWrite records a write op against an open transaction.
func (m *CollectionStore) StageWrite(_ context.Context, txID string, op ports.WriteOp) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.staged[txID]; !ok {
		return fmt.Errorf("unknown transaction %q", txID)
	}
	if m.StageErrOn != "" && op.Collection == m.StageErrOn {
		return fmt.Errorf("staging write to %q: simulated failure", op.Collection)
	}
	m.staged[txID] = append(m.staged[txID], op)
	return nil
}

// Commit applies all staged writes atomically.
func (m *CollectionStore) Commit(_ context.Context, txID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ops, ok := m.staged[txID]
	if !ok {
		return fmt.Errorf("unknown transaction %q", txID)
	}
	if m.CommitErr != nil {
		return m.CommitErr
	}
	for _, op := range ops {
		records := make([]entities.Record, len(op.Records))
		copy(records, op.Records)
		m.Collections[op.Collection] = records
	}
	delete(m.staged, txID)
	m.Commits++
	return nil
}

// Rollback discards all staged writes.
func (m *CollectionStore) Rollback(_ context.Context, txID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.staged, txID)
	m.Rollbacks++
	return nil
}

// Close is a no-op.
func (m *CollectionStore) Close() error {
	return nil
}

// Record returns a record by collection and id, for assertions.
func (m *CollectionStore) Record(collection, id string) (entities.Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Collections[collection] {
		if m.Collections[collection][i].ID == id {
			return m.Collections[collection][i], true
		}
	}
	return entities.Record{}, false
}

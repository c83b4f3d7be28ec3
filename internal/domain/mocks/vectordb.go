package mocks

import (
	"context"

	"github.com/weavehq/weave/internal/domain/entities"
)

// VectorDB is a mock implementation of ports.VectorDB. Search returns the
// configured Hits regardless of the query embedding.
type VectorDB struct {
	Vectors map[string]entities.EntityVector
	Hits    []entities.EntityHit
	SaveErr error
	FindErr error
}

// NewVectorDB creates a new mock VectorDB.
func NewVectorDB() *VectorDB {
	return &VectorDB{Vectors: make(map[string]entities.EntityVector)}
}

// Save stores an entity vector.
func (m *VectorDB) Save(_ context.Context, vector entities.EntityVector) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Vectors[vector.EntityID] = vector
	return nil
}

// SaveBatch stores multiple entity vectors.
func (m *VectorDB) SaveBatch(_ context.Context, vectors []entities.EntityVector) error {
	for _, v := range vectors {
		if err := m.Save(context.Background(), v); err != nil {
			return err
		}
	}
	return nil
}

// Search returns the configured hits.
func (m *VectorDB) Search(_ context.Context, _ []float32, limit int) ([]entities.EntityHit, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	if limit > len(m.Hits) {
		limit = len(m.Hits)
	}
	return m.Hits[:limit], nil
}

// SearchByEntityType returns the configured hits filtered by entity type.
func (m *VectorDB) SearchByEntityType(_ context.Context, _ []float32, entityType entities.EntityType, limit int) ([]entities.EntityHit, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	var out []entities.EntityHit
	for _, h := range m.Hits {
		if h.EntityType == entityType {
			out = append(out, h)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Delete removes an entity's vector.
func (m *VectorDB) Delete(_ context.Context, entityID string) error {
	delete(m.Vectors, entityID)
	return nil
}

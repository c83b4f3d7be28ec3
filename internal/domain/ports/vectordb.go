package ports

import (
	"context"

	"github.com/weavehq/weave/internal/domain/entities"
)

// VectorDB defines the interface for vector database operations backing
// relationship suggestions.
type VectorDB interface {
	// Save stores an entity vector, overwriting any previous vector for the
	// same entity.
	Save(ctx context.Context, vector entities.EntityVector) error

	// SaveBatch stores multiple entity vectors.
	SaveBatch(ctx context.Context, vectors []entities.EntityVector) error

	// Search returns the entities most similar to the given embedding.
	Search(ctx context.Context, embedding []float32, limit int) ([]entities.EntityHit, error)

	// SearchByEntityType returns similar entities filtered to one type.
	SearchByEntityType(ctx context.Context, embedding []float32, entityType entities.EntityType, limit int) ([]entities.EntityHit, error)

	// Delete removes an entity's vector.
	Delete(ctx context.Context, entityID string) error
}

// CollectionManager handles vector collection lifecycle operations, kept
// separate from VectorDB so the data interface stays focused on CRUD.
type CollectionManager interface {
	// EnsureCollection creates the collection if it doesn't exist.
	EnsureCollection(ctx context.Context, vectorSize uint64) error

	// DeleteCollection removes the collection and all its data.
	DeleteCollection(ctx context.Context) error
}

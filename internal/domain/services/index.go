// Package services implements the relationship graph: the in-memory index,
// the transactional relationship manager, per-type strategies, and the
// suggestion service.
package services

import (
	"sort"

	"github.com/weavehq/weave/internal/domain/entities"
)

// pairKey identifies an entity pair and relationship type for the
// idempotency lookup. Each relationship is indexed under both orderings so
// GetBetween answers regardless of which side is queried as source.
type pairKey struct {
	a, b    string
	relType entities.RelationType
}

// Index holds canonical relationships for O(1) amortized lookup by id, by
// participating entity, and by entity pair. It is pure data structure
// maintenance and cannot fail; mirrors are never indexed. The Index is not
// safe for concurrent use; the manager serializes access to it.
type Index struct {
	byID     map[string]*entities.Relationship
	byEntity map[string]map[string]*entities.Relationship
	byPair   map[pairKey]string
}

// NewIndex builds an index pre-populated with the given canonical
// relationships. This is the only bulk-load path, used at startup after
// scanning persisted collections.
func NewIndex(initial []entities.Relationship) *Index {
	idx := &Index{
		byID:     make(map[string]*entities.Relationship, len(initial)),
		byEntity: make(map[string]map[string]*entities.Relationship),
		byPair:   make(map[pairKey]string, len(initial)),
	}
	for i := range initial {
		idx.Add(initial[i])
	}
	return idx
}

// Add inserts a relationship into all three lookup structures. The caller
// guarantees the relationship is canonical and well-formed.
func (idx *Index) Add(rel entities.Relationship) {
	stored := rel
	idx.byID[rel.ID] = &stored

	for _, entityID := range []string{rel.SourceID, rel.TargetID} {
		if idx.byEntity[entityID] == nil {
			idx.byEntity[entityID] = make(map[string]*entities.Relationship)
		}
		idx.byEntity[entityID][rel.ID] = &stored
	}

	idx.byPair[pairKey{a: rel.SourceID, b: rel.TargetID, relType: rel.Type}] = rel.ID
	idx.byPair[pairKey{a: rel.TargetID, b: rel.SourceID, relType: rel.Type}] = rel.ID
}

// Remove deletes a relationship from all structures. No-op if absent.
func (idx *Index) Remove(id string) {
	rel, ok := idx.byID[id]
	if !ok {
		return
	}
	delete(idx.byID, id)

	for _, entityID := range []string{rel.SourceID, rel.TargetID} {
		if rels := idx.byEntity[entityID]; rels != nil {
			delete(rels, id)
			if len(rels) == 0 {
				delete(idx.byEntity, entityID)
			}
		}
	}

	delete(idx.byPair, pairKey{a: rel.SourceID, b: rel.TargetID, relType: rel.Type})
	delete(idx.byPair, pairKey{a: rel.TargetID, b: rel.SourceID, relType: rel.Type})
}

// GetByID returns the relationship with the given id.
func (idx *Index) GetByID(id string) (entities.Relationship, bool) {
	rel, ok := idx.byID[id]
	if !ok {
		return entities.Relationship{}, false
	}
	return *rel, true
}

// GetByEntity returns all relationships where the entity is source or
// target, ordered by creation time then id for stable output.
func (idx *Index) GetByEntity(entityID string) []entities.Relationship {
	rels := idx.byEntity[entityID]
	out := make([]entities.Relationship, 0, len(rels))
	for _, rel := range rels {
		out = append(out, *rel)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Metadata.CreatedAt.Equal(out[j].Metadata.CreatedAt) {
			return out[i].Metadata.CreatedAt.Before(out[j].Metadata.CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// GetBetween returns the canonical relationship of the given type
// connecting the pair, regardless of which side is queried as source.
func (idx *Index) GetBetween(sourceID, targetID string, relType entities.RelationType) (entities.Relationship, bool) {
	id, ok := idx.byPair[pairKey{a: sourceID, b: targetID, relType: relType}]
	if !ok {
		return entities.Relationship{}, false
	}
	return idx.GetByID(id)
}

// Len returns the number of indexed canonical relationships.
func (idx *Index) Len() int {
	return len(idx.byID)
}

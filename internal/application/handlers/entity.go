package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/weavehq/weave/internal/domain/entities"
	"github.com/weavehq/weave/internal/domain/ports"
	"github.com/weavehq/weave/internal/domain/services"
)

// EntityHandler handles entity record operations against the collection
// store. Relationships on records are managed exclusively by the
// relationship manager; this handler never touches them.
type EntityHandler struct {
	store       ports.CollectionStore
	suggestions *services.SuggestionService
	log         *zap.Logger
}

// NewEntityHandler creates a new EntityHandler. The suggestion service may
// be nil; entities are then not indexed for similarity search.
func NewEntityHandler(store ports.CollectionStore, suggestions *services.SuggestionService, log *zap.Logger) *EntityHandler {
	return &EntityHandler{
		store:       store,
		suggestions: suggestions,
		log:         log,
	}
}

// HandleCreate creates a new entity record with the given fields.
func (h *EntityHandler) HandleCreate(ctx context.Context, entityType string, fields map[string]string) (*entities.Record, error) {
	et, err := parseEntityType(entityType)
	if err != nil {
		return nil, err
	}

	record := entities.Record{ID: uuid.New().String()}
	for name, value := range fields {
		record.SetField(name, value)
	}

	collection := entities.CollectionFor(et)
	records, err := h.store.Load(ctx, collection)
	if errors.Is(err, ports.ErrCollectionNotFound) {
		records = nil
	} else if err != nil {
		return nil, fmt.Errorf("loading collection %q: %w", collection, err)
	}
	records = append(records, record)

	if err := h.writeCollection(ctx, collection, record.ID, records); err != nil {
		return nil, err
	}

	// Indexing failures degrade suggestions, not entity creation.
	if h.suggestions != nil {
		if err := h.suggestions.IndexEntity(ctx, et, record); err != nil {
			h.log.Warn("indexing entity for suggestions failed",
				zap.String("entity_id", record.ID),
				zap.Error(err))
		}
	}

	return &record, nil
}

// HandleList returns all records of an entity type.
func (h *EntityHandler) HandleList(ctx context.Context, entityType string) ([]entities.Record, error) {
	et, err := parseEntityType(entityType)
	if err != nil {
		return nil, err
	}

	records, err := h.store.Load(ctx, entities.CollectionFor(et))
	if errors.Is(err, ports.ErrCollectionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading collection: %w", err)
	}
	return records, nil
}

// HandleGet returns a single entity record.
func (h *EntityHandler) HandleGet(ctx context.Context, entityType, id string) (*entities.Record, error) {
	et, err := parseEntityType(entityType)
	if err != nil {
		return nil, err
	}
	record, err := findRecord(ctx, h.store, et, id)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// HandleReindex re-embeds every record of an entity type and returns the
// number of records indexed.
func (h *EntityHandler) HandleReindex(ctx context.Context, entityType string) (int, error) {
	if h.suggestions == nil {
		return 0, fmt.Errorf("suggestions are not available: no embedding provider configured")
	}
	et, err := parseEntityType(entityType)
	if err != nil {
		return 0, err
	}
	return h.suggestions.IndexCollection(ctx, et)
}

func (h *EntityHandler) writeCollection(ctx context.Context, collection, entityID string, records []entities.Record) error {
	txID, err := h.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := h.store.StageWrite(ctx, txID, ports.WriteOp{
		Collection: collection,
		EntityID:   entityID,
		Records:    records,
	}); err != nil {
		h.store.Rollback(ctx, txID)
		return fmt.Errorf("staging write: %w", err)
	}
	if err := h.store.Commit(ctx, txID); err != nil {
		h.store.Rollback(ctx, txID)
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// findRecord loads the record with the given id from its owning collection.
func findRecord(ctx context.Context, store ports.CollectionStore, entityType entities.EntityType, id string) (entities.Record, error) {
	collection := entities.CollectionFor(entityType)
	records, err := store.Load(ctx, collection)
	if errors.Is(err, ports.ErrCollectionNotFound) {
		records = nil
	} else if err != nil {
		return entities.Record{}, fmt.Errorf("loading collection %q: %w", collection, err)
	}
	for i := range records {
		if records[i].ID == id {
			return records[i], nil
		}
	}
	return entities.Record{}, &entities.EntityNotFoundError{
		EntityType: entityType,
		EntityID:   id,
		Collection: collection,
	}
}

// Package handlers contains application-level handlers that sit between the
// interfaces (CLI, HTTP) and the domain services.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/weavehq/weave/internal/domain/entities"
	"github.com/weavehq/weave/internal/domain/ports"
	"github.com/weavehq/weave/internal/domain/services"
)

// RelationshipHandler handles relationship operations.
type RelationshipHandler struct {
	manager     *services.Manager
	store       ports.CollectionStore
	suggestions *services.SuggestionService
}

// NewRelationshipHandler creates a new RelationshipHandler. The suggestion
// service may be nil when no embedding provider is configured.
func NewRelationshipHandler(manager *services.Manager, store ports.CollectionStore, suggestions *services.SuggestionService) *RelationshipHandler {
	return &RelationshipHandler{
		manager:     manager,
		store:       store,
		suggestions: suggestions,
	}
}

// AddParams carries the string-typed inputs of an add request, as they
// arrive from the CLI or an HTTP body.
type AddParams struct {
	SourceType string   `json:"source_type"`
	SourceID   string   `json:"source_id"`
	TargetType string   `json:"target_type"`
	TargetID   string   `json:"target_id"`
	Type       string   `json:"type"`
	Source     string   `json:"source,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Reasoning  string   `json:"reasoning,omitempty"`
	CreatedBy  string   `json:"created_by,omitempty"`
}

// HandleAdd creates a relationship between two entities.
func (h *RelationshipHandler) HandleAdd(ctx context.Context, params AddParams) (*entities.Relationship, error) {
	relType, err := parseRelationType(params.Type)
	if err != nil {
		return nil, err
	}
	sourceType, err := parseEntityType(params.SourceType)
	if err != nil {
		return nil, err
	}
	targetType, err := parseEntityType(params.TargetType)
	if err != nil {
		return nil, err
	}

	var meta *entities.Metadata
	if params.Source != "" || params.Confidence != nil || params.Reasoning != "" || params.CreatedBy != "" {
		meta = &entities.Metadata{
			Source:     entities.RelationSource(params.Source),
			Confidence: params.Confidence,
			Reasoning:  params.Reasoning,
			CreatedBy:  params.CreatedBy,
		}
	}

	return h.manager.AddRelationship(ctx, services.AddRequest{
		SourceType: sourceType,
		SourceID:   params.SourceID,
		TargetType: targetType,
		TargetID:   params.TargetID,
		Type:       relType,
		Metadata:   meta,
	})
}

// HandleRemove removes a relationship by ID.
func (h *RelationshipHandler) HandleRemove(ctx context.Context, id string) error {
	return h.manager.RemoveRelationship(ctx, id)
}

// ListOptions configures relationship listing behavior.
type ListOptions struct {
	Type       string // Filter by relationship type (empty = all)
	EntityType string // Filter by entity type on either end (empty = all)
}

// ListResult contains the result of listing relationships.
type ListResult struct {
	Relationships []entities.Relationship `json:"relationships"`
	Count         int                     `json:"count"`
}

// HandleList returns relationships for an entity with optional filtering.
func (h *RelationshipHandler) HandleList(ctx context.Context, entityID string, opts ListOptions) (*ListResult, error) {
	q := services.Query{}
	if opts.Type != "" {
		relType, err := parseRelationType(opts.Type)
		if err != nil {
			return nil, err
		}
		q.RelationType = relType
	}
	if opts.EntityType != "" {
		entityType, err := parseEntityType(opts.EntityType)
		if err != nil {
			return nil, err
		}
		q.EntityType = entityType
	}

	rels := h.manager.GetRelationships(entityID, q)
	return &ListResult{Relationships: rels, Count: len(rels)}, nil
}

// HandleRelated resolves the entities on the far side of an entity's
// relationships, optionally restricted to one relationship type.
func (h *RelationshipHandler) HandleRelated(ctx context.Context, entityID, relType string) ([]services.RelatedEntity, error) {
	var rt entities.RelationType
	if relType != "" {
		parsed, err := parseRelationType(relType)
		if err != nil {
			return nil, err
		}
		rt = parsed
	}
	return h.manager.RelatedEntities(ctx, entityID, rt)
}

// ErrRelationshipNotFound is returned by HandleGet for unknown IDs.
var ErrRelationshipNotFound = errors.New("relationship not found")

// HandleGet returns a relationship by ID.
func (h *RelationshipHandler) HandleGet(ctx context.Context, id string) (*entities.Relationship, error) {
	rel, ok := h.manager.GetByID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRelationshipNotFound, id)
	}
	return &rel, nil
}

// HandleCount returns the number of relationships.
func (h *RelationshipHandler) HandleCount(ctx context.Context) int {
	return h.manager.Count()
}

// HandleSuggest proposes relationships for an entity from vector similarity.
func (h *RelationshipHandler) HandleSuggest(ctx context.Context, entityType, entityID string, limit int) ([]entities.Suggestion, error) {
	if h.suggestions == nil {
		return nil, fmt.Errorf("suggestions are not available: no embedding provider configured")
	}
	et, err := parseEntityType(entityType)
	if err != nil {
		return nil, err
	}
	record, err := findRecord(ctx, h.store, et, entityID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}
	return h.suggestions.Suggest(ctx, et, record, limit)
}

// HandleApplySuggestion accepts a suggestion, creating the relationship with
// AI-sourced metadata carried from the suggestion.
func (h *RelationshipHandler) HandleApplySuggestion(ctx context.Context, s entities.Suggestion) (*entities.Relationship, error) {
	confidence := s.Confidence
	return h.manager.AddRelationship(ctx, services.AddRequest{
		SourceType: s.SourceType,
		SourceID:   s.SourceID,
		TargetType: s.TargetType,
		TargetID:   s.TargetID,
		Type:       s.Type,
		Metadata: &entities.Metadata{
			Source:     entities.SourceAI,
			Confidence: &confidence,
			Reasoning:  s.Reasoning,
		},
	})
}

// parseRelationType validates and converts a string to RelationType.
func parseRelationType(s string) (entities.RelationType, error) {
	relType, ok := entities.ParseRelationType(s)
	if !ok {
		return "", entities.NewValidationError("invalid relationship type: %s (valid: %s)", s, strings.Join(entities.RelationTypeNames(), ", "))
	}
	return relType, nil
}

// parseEntityType validates and converts a string to EntityType.
func parseEntityType(s string) (entities.EntityType, error) {
	for _, t := range entities.KnownEntityTypes() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", entities.NewValidationError("invalid entity type: %s", s)
}

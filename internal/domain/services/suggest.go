package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/weavehq/weave/internal/domain/entities"
	"github.com/weavehq/weave/internal/domain/ports"
)

// SuggestionService proposes candidate relationships from vector
// similarity: entities are embedded and stored in the vector database, and
// nearby entities whose type combination fits a registered relationship
// type become suggestions with the similarity score as confidence.
type SuggestionService struct {
	embedder ports.Embedder
	vectorDB ports.VectorDB
	store    ports.CollectionStore
}

// NewSuggestionService creates a new SuggestionService.
func NewSuggestionService(embedder ports.Embedder, vectorDB ports.VectorDB, store ports.CollectionStore) *SuggestionService {
	return &SuggestionService{
		embedder: embedder,
		vectorDB: vectorDB,
		store:    store,
	}
}

// IndexEntity embeds an entity's text and stores the vector for later
// similarity lookups.
func (s *SuggestionService) IndexEntity(ctx context.Context, entityType entities.EntityType, record entities.Record) error {
	text := entityText(record)
	if text == "" {
		return fmt.Errorf("entity %q has no text to embed", record.ID)
	}

	embedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embedding entity %q: %w", record.ID, err)
	}

	err = s.vectorDB.Save(ctx, entities.EntityVector{
		EntityType: entityType,
		EntityID:   record.ID,
		Text:       text,
		Embedding:  embedding,
	})
	if err != nil {
		return fmt.Errorf("saving entity vector: %w", err)
	}
	return nil
}

// IndexCollection embeds every entity in a collection in one batch.
func (s *SuggestionService) IndexCollection(ctx context.Context, entityType entities.EntityType) (int, error) {
	records, err := s.store.Load(ctx, entities.CollectionFor(entityType))
	if err != nil {
		return 0, fmt.Errorf("loading collection: %w", err)
	}

	var (
		texts    []string
		eligible []entities.Record
	)
	for i := range records {
		text := entityText(records[i])
		if text == "" {
			continue
		}
		texts = append(texts, text)
		eligible = append(eligible, records[i])
	}
	if len(eligible) == 0 {
		return 0, nil
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding batch: %w", err)
	}

	vectors := make([]entities.EntityVector, len(eligible))
	for i := range eligible {
		vectors[i] = entities.EntityVector{
			EntityType: entityType,
			EntityID:   eligible[i].ID,
			Text:       texts[i],
			Embedding:  embeddings[i],
		}
	}
	if err := s.vectorDB.SaveBatch(ctx, vectors); err != nil {
		return 0, fmt.Errorf("saving entity vectors: %w", err)
	}
	return len(vectors), nil
}

// Suggest returns candidate relationships for an entity, ordered by
// similarity. Candidates whose type combination fits no registered
// relationship type are dropped, as is the entity itself.
func (s *SuggestionService) Suggest(ctx context.Context, entityType entities.EntityType, record entities.Record, limit int) ([]entities.Suggestion, error) {
	text := entityText(record)
	if text == "" {
		return nil, fmt.Errorf("entity %q has no text to embed", record.ID)
	}

	embedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding entity %q: %w", record.ID, err)
	}

	// Over-fetch: the query entity itself and unmappable hits get dropped.
	hits, err := s.vectorDB.Search(ctx, embedding, limit*2+1)
	if err != nil {
		return nil, fmt.Errorf("searching similar entities: %w", err)
	}

	suggestions := make([]entities.Suggestion, 0, limit)
	for _, hit := range hits {
		if hit.EntityID == record.ID {
			continue
		}
		relType, sourceType, sourceID, targetType, targetID, ok := orientPair(entityType, record.ID, hit.EntityType, hit.EntityID)
		if !ok {
			continue
		}
		suggestions = append(suggestions, entities.Suggestion{
			Type:       relType,
			SourceType: sourceType,
			SourceID:   sourceID,
			TargetType: targetType,
			TargetID:   targetID,
			Confidence: float64(hit.Score),
			Reasoning:  fmt.Sprintf("similar content to %s %q", hit.EntityType, firstLine(hit.Text)),
		})
		if len(suggestions) == limit {
			break
		}
	}
	return suggestions, nil
}

// orientPair finds a registered relationship type that admits the two
// entity types, trying both orientations.
func orientPair(aType entities.EntityType, aID string, bType entities.EntityType, bID string) (entities.RelationType, entities.EntityType, string, entities.EntityType, string, bool) {
	for _, name := range entities.RelationTypeNames() {
		relType := entities.RelationType(name)
		cfg, _ := entities.TypeConfigFor(relType)
		if cfg.AllowsSource(aType) && cfg.AllowsTarget(bType) {
			return relType, aType, aID, bType, bID, true
		}
		if cfg.AllowsSource(bType) && cfg.AllowsTarget(aType) {
			return relType, bType, bID, aType, aID, true
		}
	}
	return "", "", "", "", "", false
}

// entityText builds the text to embed from the fields the workspace
// subsystems commonly store.
func entityText(record entities.Record) string {
	var parts []string
	for _, field := range []string{"title", "name", "content", "description", "summary"} {
		if v := record.Field(field); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 60 {
		s = s[:60]
	}
	return s
}

package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/weavehq/weave/internal/domain/entities"
	"github.com/weavehq/weave/internal/domain/ports"
	"github.com/weavehq/weave/pkg/logger"
)

// AddRequest describes a relationship to create.
type AddRequest struct {
	SourceType entities.EntityType
	SourceID   string
	TargetType entities.EntityType
	TargetID   string
	Type       entities.RelationType
	Metadata   *entities.Metadata
}

// Query filters GetRelationships results. Zero values mean no filter.
type Query struct {
	EntityType   entities.EntityType
	RelationType entities.RelationType
}

// RelatedEntity is a resolved entity on the far side of a relationship.
type RelatedEntity struct {
	EntityType   entities.EntityType   `json:"entity_type"`
	Record       entities.Record       `json:"record"`
	Relationship entities.Relationship `json:"relationship"`
}

// RelationshipEvent is the payload emitted on add and remove. Mirror is nil
// for non-bidirectional types and for mirrors that were already gone.
type RelationshipEvent struct {
	Relationship entities.Relationship  `json:"relationship"`
	Mirror       *entities.Relationship `json:"mirror,omitempty"`
}

// Manager orchestrates relationship writes: registry validation, the
// idempotency check, strategy hooks, the storage transaction, post-commit
// index maintenance, and event emission. A single mutex serializes the
// check-then-write sequence so concurrent adds for the same pair cannot
// both pass the duplicate check.
type Manager struct {
	store      ports.CollectionStore
	events     ports.EventSink
	strategies map[entities.RelationType]Strategy
	log        *zap.Logger

	mu    sync.Mutex
	index *Index
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithStrategy registers a strategy for a relationship type. Types without
// a registration use the no-op strategy.
func WithStrategy(relType entities.RelationType, s Strategy) ManagerOption {
	return func(m *Manager) {
		m.strategies[relType] = s
	}
}

// WithLogger overrides the default logger.
func WithLogger(log *zap.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = log
	}
}

// NewManager builds a Manager and eagerly rebuilds the index from persisted
// collections. It fails fast if the store is unreachable; collections that
// do not exist yet are expected on new installs and are skipped.
func NewManager(ctx context.Context, store ports.CollectionStore, events ports.EventSink, opts ...ManagerOption) (*Manager, error) {
	m := &Manager{
		store:      store,
		events:     events,
		strategies: make(map[entities.RelationType]Strategy),
		log:        logger.Get(),
	}
	for _, opt := range opts {
		opt(m)
	}

	initial, err := loadCanonical(ctx, store, m.log)
	if err != nil {
		return nil, fmt.Errorf("rebuilding relationship index: %w", err)
	}
	m.index = NewIndex(initial)

	m.log.Info("relationship index rebuilt",
		zap.Int("relationships", m.index.Len()))
	return m, nil
}

// loadCanonical scans every known collection concurrently and gathers the
// canonical relationships persisted under source entities.
func loadCanonical(ctx context.Context, store ports.CollectionStore, log *zap.Logger) ([]entities.Relationship, error) {
	var (
		mu  sync.Mutex
		out []entities.Relationship
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, entityType := range entities.KnownEntityTypes() {
		collection := entities.CollectionFor(entityType)
		g.Go(func() error {
			records, err := store.Load(gctx, collection)
			if errors.Is(err, ports.ErrCollectionNotFound) {
				log.Debug("collection not present yet, skipping", zap.String("collection", collection))
				return nil
			}
			if err != nil {
				return fmt.Errorf("loading collection %q: %w", collection, err)
			}

			var canonical []entities.Relationship
			for i := range records {
				for _, rel := range records[i].Relationships {
					if rel.Canonical {
						canonical = append(canonical, rel)
					}
				}
			}

			mu.Lock()
			out = append(out, canonical...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Manager) strategyFor(relType entities.RelationType) Strategy {
	if s, ok := m.strategies[relType]; ok {
		return s
	}
	return NoopStrategy{}
}

// AddRelationship validates and creates a relationship. The operation is
// idempotent: an existing canonical relationship for the same pair and type
// is returned unchanged with no write and no event, so callers may retry
// freely.
func (m *Manager) AddRelationship(ctx context.Context, req AddRequest) (*entities.Relationship, error) {
	cfg, ok := entities.TypeConfigFor(req.Type)
	if !ok {
		return nil, entities.NewValidationError("unknown relationship type %q (valid: %v)", req.Type, entities.RelationTypeNames())
	}
	if !cfg.AllowsSource(req.SourceType) {
		return nil, entities.NewValidationError("source type %q not allowed for %q (allowed: %v)", req.SourceType, req.Type, cfg.SourceTypes)
	}
	if !cfg.AllowsTarget(req.TargetType) {
		return nil, entities.NewValidationError("target type %q not allowed for %q (allowed: %v)", req.TargetType, req.Type, cfg.TargetTypes)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Idempotency: an existing canonical relationship wins over the new
	// call's metadata, which is discarded.
	if existing, ok := m.index.GetBetween(req.SourceID, req.TargetID, req.Type); ok {
		m.log.Debug("relationship already exists, returning existing",
			zap.String("id", existing.ID),
			zap.String("type", string(req.Type)))
		return &existing, nil
	}

	rel := entities.Relationship{
		ID:         uuid.New().String(),
		Type:       req.Type,
		SourceType: req.SourceType,
		SourceID:   req.SourceID,
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		Metadata:   mergeMetadata(req.Metadata),
		Canonical:  true,
	}

	strategy := m.strategyFor(req.Type)
	if err := strategy.Validate(ctx, &rel); err != nil {
		return nil, entities.NewValidationError("strategy rejected %s relationship: %v", req.Type, err)
	}
	if err := strategy.BeforeAdd(ctx, &rel); err != nil {
		return nil, fmt.Errorf("before-add hook: %w", err)
	}

	txID, err := m.store.Begin(ctx)
	if err != nil {
		return nil, &entities.TransactionError{Op: "begin", RelType: req.Type, SourceID: req.SourceID, TargetID: req.TargetID, Err: err}
	}

	var mirror *entities.Relationship
	err = func() error {
		if err := m.appendToEntity(ctx, txID, req.SourceType, req.SourceID, rel); err != nil {
			return err
		}
		if cfg.Bidirectional {
			reversed := entities.Relationship{
				ID:         uuid.New().String(),
				Type:       rel.Type,
				SourceType: rel.TargetType,
				SourceID:   rel.TargetID,
				TargetType: rel.SourceType,
				TargetID:   rel.SourceID,
				Metadata:   rel.Metadata,
				Canonical:  false,
			}
			if err := m.appendToEntity(ctx, txID, req.TargetType, req.TargetID, reversed); err != nil {
				return err
			}
			mirror = &reversed
		}
		return m.store.Commit(ctx, txID)
	}()
	if err != nil {
		if rbErr := m.store.Rollback(ctx, txID); rbErr != nil {
			m.log.Warn("rollback failed", zap.String("tx", txID), zap.Error(rbErr))
		}
		return nil, classify(err, "add", &rel)
	}

	// Only the canonical record is indexed, and only after commit.
	m.index.Add(rel)

	if err := strategy.AfterAdd(ctx, &rel); err != nil {
		// Post-commit hook failures are non-fatal: the write already
		// succeeded and there is no compensating transaction.
		m.log.Warn("after-add hook failed", zap.String("id", rel.ID), zap.Error(err))
	}

	m.emit(ports.EventRelationshipAdded, RelationshipEvent{Relationship: rel, Mirror: mirror})

	m.log.Info("relationship added",
		zap.String("id", rel.ID),
		zap.String("type", string(rel.Type)),
		zap.String("source", rel.SourceID),
		zap.String("target", rel.TargetID),
		zap.Bool("bidirectional", cfg.Bidirectional))
	return &rel, nil
}

// RemoveRelationship deletes a relationship and, for bidirectional types,
// its persisted mirror, in one transaction. Removing an id that is not
// indexed is a successful no-op.
func (m *Manager) RemoveRelationship(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rel, ok := m.index.GetByID(id)
	if !ok {
		m.log.Debug("relationship not found, nothing to remove", zap.String("id", id))
		return nil
	}

	cfg, _ := entities.TypeConfigFor(rel.Type)

	strategy := m.strategyFor(rel.Type)
	if err := strategy.BeforeRemove(ctx, &rel); err != nil {
		return fmt.Errorf("before-remove hook: %w", err)
	}

	txID, err := m.store.Begin(ctx)
	if err != nil {
		return &entities.TransactionError{Op: "begin", RelType: rel.Type, SourceID: rel.SourceID, TargetID: rel.TargetID, Err: err}
	}

	var mirror *entities.Relationship
	err = func() error {
		if err := m.removeFromEntity(ctx, txID, rel.SourceType, rel.SourceID, rel.ID); err != nil {
			return err
		}
		if cfg.Bidirectional {
			found, err := m.removeMirror(ctx, txID, rel)
			if err != nil {
				return err
			}
			mirror = found
		}
		return m.store.Commit(ctx, txID)
	}()
	if err != nil {
		if rbErr := m.store.Rollback(ctx, txID); rbErr != nil {
			m.log.Warn("rollback failed", zap.String("tx", txID), zap.Error(rbErr))
		}
		return classify(err, "remove", &rel)
	}

	m.index.Remove(rel.ID)

	if err := strategy.AfterRemove(ctx, &rel); err != nil {
		m.log.Warn("after-remove hook failed", zap.String("id", rel.ID), zap.Error(err))
	}

	m.emit(ports.EventRelationshipRemoved, RelationshipEvent{Relationship: rel, Mirror: mirror})

	m.log.Info("relationship removed",
		zap.String("id", rel.ID),
		zap.String("type", string(rel.Type)))
	return nil
}

// GetRelationships returns the indexed relationships touching an entity,
// with optional in-memory filters. Pure and synchronous.
func (m *Manager) GetRelationships(entityID string, q Query) []entities.Relationship {
	m.mu.Lock()
	rels := m.index.GetByEntity(entityID)
	m.mu.Unlock()

	if q.EntityType == "" && q.RelationType == "" {
		return rels
	}

	filtered := make([]entities.Relationship, 0, len(rels))
	for _, rel := range rels {
		if q.RelationType != "" && rel.Type != q.RelationType {
			continue
		}
		if q.EntityType != "" && rel.SourceType != q.EntityType && rel.TargetType != q.EntityType {
			continue
		}
		filtered = append(filtered, rel)
	}
	return filtered
}

// RelatedEntities resolves the entity on the far side of each relationship
// touching entityID, loading owning collections from the store. Entities
// that cannot be found are skipped, not failed.
func (m *Manager) RelatedEntities(ctx context.Context, entityID string, relType entities.RelationType) ([]RelatedEntity, error) {
	rels := m.GetRelationships(entityID, Query{RelationType: relType})

	loaded := make(map[string][]entities.Record)
	out := make([]RelatedEntity, 0, len(rels))

	for _, rel := range rels {
		otherType, otherID := rel.OtherEnd(entityID)
		collection := entities.CollectionFor(otherType)

		records, ok := loaded[collection]
		if !ok {
			var err error
			records, err = m.store.Load(ctx, collection)
			if errors.Is(err, ports.ErrCollectionNotFound) {
				records = nil
			} else if err != nil {
				return nil, fmt.Errorf("loading collection %q: %w", collection, err)
			}
			loaded[collection] = records
		}

		for i := range records {
			if records[i].ID == otherID {
				out = append(out, RelatedEntity{
					EntityType:   otherType,
					Record:       records[i],
					Relationship: rel,
				})
				break
			}
		}
	}
	return out, nil
}

// GetByID returns an indexed relationship by id.
func (m *Manager) GetByID(id string) (entities.Relationship, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index.GetByID(id)
}

// Count returns the number of canonical relationships.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index.Len()
}

// appendToEntity loads the owning collection, appends the relationship to
// the entity's sequence, and stages the overwrite. A missing collection or
// entity surfaces as EntityNotFoundError.
func (m *Manager) appendToEntity(ctx context.Context, txID string, entityType entities.EntityType, entityID string, rel entities.Relationship) error {
	collection := entities.CollectionFor(entityType)

	records, err := m.store.Load(ctx, collection)
	if errors.Is(err, ports.ErrCollectionNotFound) {
		return &entities.EntityNotFoundError{EntityType: entityType, EntityID: entityID, Collection: collection}
	}
	if err != nil {
		return fmt.Errorf("loading collection %q: %w", collection, err)
	}

	found := false
	for i := range records {
		if records[i].ID == entityID {
			records[i].AppendRelationship(rel)
			found = true
			break
		}
	}
	if !found {
		return &entities.EntityNotFoundError{EntityType: entityType, EntityID: entityID, Collection: collection}
	}

	return m.store.StageWrite(ctx, txID, ports.WriteOp{
		Collection: collection,
		EntityID:   entityID,
		Records:    records,
	})
}

// removeFromEntity filters a relationship out of the entity's sequence and
// stages the overwrite. Missing collections or entities are treated as
// already removed; removal must never fail on stale state.
func (m *Manager) removeFromEntity(ctx context.Context, txID string, entityType entities.EntityType, entityID, relID string) error {
	collection := entities.CollectionFor(entityType)

	records, err := m.store.Load(ctx, collection)
	if errors.Is(err, ports.ErrCollectionNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading collection %q: %w", collection, err)
	}

	changed := false
	for i := range records {
		if records[i].ID == entityID {
			changed = records[i].RemoveRelationship(relID)
			break
		}
	}
	if !changed {
		return nil
	}

	return m.store.StageWrite(ctx, txID, ports.WriteOp{
		Collection: collection,
		EntityID:   entityID,
		Records:    records,
	})
}

// removeMirror finds the non-canonical reverse record under the target
// entity and stages its removal in the same transaction, if present.
func (m *Manager) removeMirror(ctx context.Context, txID string, rel entities.Relationship) (*entities.Relationship, error) {
	collection := entities.CollectionFor(rel.TargetType)

	records, err := m.store.Load(ctx, collection)
	if errors.Is(err, ports.ErrCollectionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading collection %q: %w", collection, err)
	}

	var mirror *entities.Relationship
	for i := range records {
		if records[i].ID != rel.TargetID {
			continue
		}
		for j := range records[i].Relationships {
			candidate := records[i].Relationships[j]
			if !candidate.Canonical &&
				candidate.Type == rel.Type &&
				candidate.SourceID == rel.TargetID &&
				candidate.TargetID == rel.SourceID {
				found := candidate
				mirror = &found
				break
			}
		}
		if mirror != nil {
			records[i].RemoveRelationship(mirror.ID)
		}
		break
	}
	if mirror == nil {
		return nil, nil
	}

	err = m.store.StageWrite(ctx, txID, ports.WriteOp{
		Collection: collection,
		EntityID:   rel.TargetID,
		Records:    records,
	})
	if err != nil {
		return nil, err
	}
	return mirror, nil
}

// emit sends an event to the sink, swallowing sink panics so notification
// failures never reach the caller of the mutating operation.
func (m *Manager) emit(event string, payload RelationshipEvent) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Warn("event sink failed", zap.String("event", event), zap.Any("panic", r))
		}
	}()
	m.events.Emit(event, payload)
}

// mergeMetadata fills request metadata with defaults: manual source and a
// current timestamp.
func mergeMetadata(meta *entities.Metadata) entities.Metadata {
	merged := entities.Metadata{}
	if meta != nil {
		merged = *meta
	}
	if merged.Source == "" {
		merged.Source = entities.SourceManual
	}
	if merged.CreatedAt.IsZero() {
		merged.CreatedAt = time.Now().UTC()
	}
	return merged
}

// classify rethrows validation and not-found errors verbatim so callers can
// discriminate cause, and wraps everything else in a TransactionError.
func classify(err error, op string, rel *entities.Relationship) error {
	var validationErr *entities.ValidationError
	var notFoundErr *entities.EntityNotFoundError
	if errors.As(err, &validationErr) || errors.As(err, &notFoundErr) {
		return err
	}
	return &entities.TransactionError{
		Op:       op,
		RelType:  rel.Type,
		SourceID: rel.SourceID,
		TargetID: rel.TargetID,
		Err:      err,
	}
}

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/weavehq/weave/internal/domain/entities"
	"github.com/weavehq/weave/internal/domain/mocks"
	"github.com/weavehq/weave/internal/domain/ports"
)

// hookStrategy records hook invocations and fails where configured.
type hookStrategy struct {
	NoopStrategy
	validateErr     error
	beforeAddErr    error
	afterAddErr     error
	beforeRemoveErr error
	afterRemoveErr  error
	calls           []string
}

func (s *hookStrategy) Validate(_ context.Context, _ *entities.Relationship) error {
	s.calls = append(s.calls, "validate")
	return s.validateErr
}

func (s *hookStrategy) BeforeAdd(_ context.Context, _ *entities.Relationship) error {
	s.calls = append(s.calls, "beforeAdd")
	return s.beforeAddErr
}

func (s *hookStrategy) AfterAdd(_ context.Context, _ *entities.Relationship) error {
	s.calls = append(s.calls, "afterAdd")
	return s.afterAddErr
}

func (s *hookStrategy) BeforeRemove(_ context.Context, _ *entities.Relationship) error {
	s.calls = append(s.calls, "beforeRemove")
	return s.beforeRemoveErr
}

func (s *hookStrategy) AfterRemove(_ context.Context, _ *entities.Relationship) error {
	s.calls = append(s.calls, "afterRemove")
	return s.afterRemoveErr
}

func record(id, title string) entities.Record {
	r := entities.Record{ID: id}
	r.SetField("title", title)
	return r
}

// setupManagerTest seeds a store with one task and one note and builds a
// manager around it.
func setupManagerTest(t *testing.T, opts ...ManagerOption) (*Manager, *mocks.CollectionStore, *mocks.EventSink) {
	t.Helper()

	store := mocks.NewCollectionStore()
	store.Seed("tasks", record("t1", "Ship the report"))
	store.Seed("notes", record("n1", "Report outline"))

	sink := mocks.NewEventSink()
	opts = append(opts, WithLogger(zap.NewNop()))

	mgr, err := NewManager(context.Background(), store, sink, opts...)
	require.NoError(t, err)
	return mgr, store, sink
}

func taskNoteRequest() AddRequest {
	return AddRequest{
		SourceType: entities.EntityTask,
		SourceID:   "t1",
		TargetType: entities.EntityNote,
		TargetID:   "n1",
		Type:       entities.RelationTaskNote,
	}
}

func TestManager_AddRelationship(t *testing.T) {
	ctx := context.Background()

	t.Run("bidirectional add writes canonical and mirror", func(t *testing.T) {
		mgr, store, sink := setupManagerTest(t)

		rel, err := mgr.AddRelationship(ctx, taskNoteRequest())
		require.NoError(t, err)
		require.NotNil(t, rel)

		assert.NotEmpty(t, rel.ID)
		assert.True(t, rel.Canonical)
		assert.Equal(t, "t1", rel.SourceID)
		assert.Equal(t, "n1", rel.TargetID)
		assert.Equal(t, entities.SourceManual, rel.Metadata.Source)
		assert.False(t, rel.Metadata.CreatedAt.IsZero())

		task, ok := store.Record("tasks", "t1")
		require.True(t, ok)
		require.Len(t, task.Relationships, 1)
		assert.True(t, task.Relationships[0].Canonical)

		note, ok := store.Record("notes", "n1")
		require.True(t, ok)
		require.Len(t, note.Relationships, 1)
		mirror := note.Relationships[0]
		assert.False(t, mirror.Canonical)
		assert.Equal(t, "n1", mirror.SourceID)
		assert.Equal(t, "t1", mirror.TargetID)
		assert.Equal(t, rel.Type, mirror.Type)
		assert.NotEqual(t, rel.ID, mirror.ID)
		assert.Equal(t, rel.Metadata.CreatedAt, mirror.Metadata.CreatedAt)

		events := sink.Named(ports.EventRelationshipAdded)
		require.Len(t, events, 1)
		payload := events[0].Payload.(RelationshipEvent)
		assert.Equal(t, rel.ID, payload.Relationship.ID)
		require.NotNil(t, payload.Mirror)
		assert.Equal(t, mirror.ID, payload.Mirror.ID)

		assert.Equal(t, 1, mgr.Count())
	})

	t.Run("non-bidirectional add writes a single record", func(t *testing.T) {
		mgr, store, sink := setupManagerTest(t)
		store.Seed("files", record("f1", "report.pdf"))

		rel, err := mgr.AddRelationship(ctx, AddRequest{
			SourceType: entities.EntityFile,
			SourceID:   "f1",
			TargetType: entities.EntityTask,
			TargetID:   "t1",
			Type:       entities.RelationFileAttachment,
		})
		require.NoError(t, err)
		assert.True(t, rel.Canonical)

		file, ok := store.Record("files", "f1")
		require.True(t, ok)
		assert.Len(t, file.Relationships, 1)

		task, ok := store.Record("tasks", "t1")
		require.True(t, ok)
		assert.Empty(t, task.Relationships, "no mirror for non-bidirectional types")

		events := sink.Named(ports.EventRelationshipAdded)
		require.Len(t, events, 1)
		assert.Nil(t, events[0].Payload.(RelationshipEvent).Mirror)
	})

	t.Run("re-add returns the existing relationship unchanged", func(t *testing.T) {
		mgr, store, sink := setupManagerTest(t)

		first, err := mgr.AddRelationship(ctx, taskNoteRequest())
		require.NoError(t, err)

		confidence := 0.9
		req := taskNoteRequest()
		req.Metadata = &entities.Metadata{
			Source:     entities.SourceAI,
			Confidence: &confidence,
			Reasoning:  "looks related",
		}
		second, err := mgr.AddRelationship(ctx, req)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, entities.SourceManual, second.Metadata.Source, "new call's metadata is discarded")
		assert.Nil(t, second.Metadata.Confidence)

		assert.Equal(t, 1, mgr.Count())
		assert.Equal(t, 1, store.Commits, "no second write")
		assert.Len(t, sink.Named(ports.EventRelationshipAdded), 1, "no second event")
	})

	t.Run("metadata is merged with defaults", func(t *testing.T) {
		mgr, _, _ := setupManagerTest(t)

		confidence := 0.72
		req := taskNoteRequest()
		req.Metadata = &entities.Metadata{
			Source:     entities.SourceAI,
			Confidence: &confidence,
			Reasoning:  "shared topic",
			CreatedBy:  "assistant",
		}
		rel, err := mgr.AddRelationship(ctx, req)
		require.NoError(t, err)

		assert.Equal(t, entities.SourceAI, rel.Metadata.Source)
		require.NotNil(t, rel.Metadata.Confidence)
		assert.InDelta(t, 0.72, *rel.Metadata.Confidence, 1e-9)
		assert.Equal(t, "shared topic", rel.Metadata.Reasoning)
		assert.False(t, rel.Metadata.CreatedAt.IsZero())
	})

	t.Run("unknown relationship type", func(t *testing.T) {
		mgr, store, _ := setupManagerTest(t)

		req := taskNoteRequest()
		req.Type = "task-owns-note"
		_, err := mgr.AddRelationship(ctx, req)

		var validationErr *entities.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, validationErr.Reason, "unknown relationship type")
		assert.Zero(t, store.Commits, "no storage writes on validation failure")
	})

	t.Run("disallowed source type", func(t *testing.T) {
		mgr, store, _ := setupManagerTest(t)

		req := taskNoteRequest()
		req.SourceType = entities.EntityNote
		_, err := mgr.AddRelationship(ctx, req)

		var validationErr *entities.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, validationErr.Reason, "source type")
		assert.Zero(t, store.Commits)
	})

	t.Run("missing target entity rolls back the source write", func(t *testing.T) {
		mgr, store, sink := setupManagerTest(t)

		req := taskNoteRequest()
		req.TargetID = "n-missing"
		_, err := mgr.AddRelationship(ctx, req)

		var notFoundErr *entities.EntityNotFoundError
		require.ErrorAs(t, err, &notFoundErr)
		assert.Equal(t, "n-missing", notFoundErr.EntityID)

		assert.Equal(t, 1, store.Rollbacks)
		task, _ := store.Record("tasks", "t1")
		assert.Empty(t, task.Relationships, "staged source write must not be visible")
		assert.Zero(t, mgr.Count())
		assert.Empty(t, sink.Events)
	})

	t.Run("missing collection surfaces as entity not found", func(t *testing.T) {
		mgr, store, _ := setupManagerTest(t)
		store.Seed("contacts", record("c1", "Ada"))

		_, err := mgr.AddRelationship(ctx, AddRequest{
			SourceType: entities.EntityContact,
			SourceID:   "c1",
			TargetType: entities.EntityCompany,
			TargetID:   "co1",
			Type:       entities.RelationContactCompany,
		})

		var notFoundErr *entities.EntityNotFoundError
		require.ErrorAs(t, err, &notFoundErr)
		assert.Equal(t, "companies", notFoundErr.Collection)
		assert.Equal(t, 1, store.Rollbacks)
	})

	t.Run("staging failure on the mirror write is atomic", func(t *testing.T) {
		mgr, store, _ := setupManagerTest(t)
		store.StageErrOn = "notes"

		_, err := mgr.AddRelationship(ctx, taskNoteRequest())

		var txErr *entities.TransactionError
		require.ErrorAs(t, err, &txErr)
		assert.Equal(t, "add", txErr.Op)

		assert.Equal(t, 1, store.Rollbacks)
		task, _ := store.Record("tasks", "t1")
		assert.Empty(t, task.Relationships)
		note, _ := store.Record("notes", "n1")
		assert.Empty(t, note.Relationships)
		assert.Zero(t, mgr.Count())
	})

	t.Run("commit failure wraps the cause", func(t *testing.T) {
		mgr, store, _ := setupManagerTest(t)
		cause := errors.New("disk full")
		store.CommitErr = cause

		_, err := mgr.AddRelationship(ctx, taskNoteRequest())

		var txErr *entities.TransactionError
		require.ErrorAs(t, err, &txErr)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, 1, store.Rollbacks)
		assert.Zero(t, mgr.Count())
	})

	t.Run("event sink failure does not fail the add", func(t *testing.T) {
		mgr, _, sink := setupManagerTest(t)
		sink.Panic = true

		rel, err := mgr.AddRelationship(ctx, taskNoteRequest())
		require.NoError(t, err)
		assert.NotNil(t, rel)
		assert.Equal(t, 1, mgr.Count())
	})
}

func TestManager_Strategies(t *testing.T) {
	ctx := context.Background()

	t.Run("validate rejection becomes a validation error", func(t *testing.T) {
		strategy := &hookStrategy{validateErr: errors.New("note is archived")}
		mgr, store, _ := setupManagerTest(t, WithStrategy(entities.RelationTaskNote, strategy))

		_, err := mgr.AddRelationship(ctx, taskNoteRequest())

		var validationErr *entities.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, validationErr.Reason, "note is archived")
		assert.Zero(t, store.Commits)
	})

	t.Run("before-add failure aborts before any write", func(t *testing.T) {
		strategy := &hookStrategy{beforeAddErr: errors.New("hook down")}
		mgr, store, _ := setupManagerTest(t, WithStrategy(entities.RelationTaskNote, strategy))

		_, err := mgr.AddRelationship(ctx, taskNoteRequest())
		require.Error(t, err)

		assert.Zero(t, store.Commits)
		assert.Zero(t, store.Rollbacks, "no transaction was opened")
		assert.Equal(t, []string{"validate", "beforeAdd"}, strategy.calls)
	})

	t.Run("after-add failure is non-fatal", func(t *testing.T) {
		strategy := &hookStrategy{afterAddErr: errors.New("webhook timeout")}
		mgr, _, sink := setupManagerTest(t, WithStrategy(entities.RelationTaskNote, strategy))

		rel, err := mgr.AddRelationship(ctx, taskNoteRequest())
		require.NoError(t, err)

		_, ok := mgr.GetByID(rel.ID)
		assert.True(t, ok, "committed write stays")
		assert.Len(t, sink.Named(ports.EventRelationshipAdded), 1)
	})

	t.Run("before-remove failure keeps the relationship", func(t *testing.T) {
		strategy := &hookStrategy{beforeRemoveErr: errors.New("locked")}
		mgr, _, _ := setupManagerTest(t, WithStrategy(entities.RelationTaskNote, strategy))

		rel, err := mgr.AddRelationship(ctx, taskNoteRequest())
		require.NoError(t, err)

		err = mgr.RemoveRelationship(ctx, rel.ID)
		require.Error(t, err)
		_, ok := mgr.GetByID(rel.ID)
		assert.True(t, ok)
	})

	t.Run("after-remove failure is non-fatal", func(t *testing.T) {
		strategy := &hookStrategy{afterRemoveErr: errors.New("webhook timeout")}
		mgr, _, _ := setupManagerTest(t, WithStrategy(entities.RelationTaskNote, strategy))

		rel, err := mgr.AddRelationship(ctx, taskNoteRequest())
		require.NoError(t, err)

		require.NoError(t, mgr.RemoveRelationship(ctx, rel.ID))
		_, ok := mgr.GetByID(rel.ID)
		assert.False(t, ok)
	})
}

func TestManager_RemoveRelationship(t *testing.T) {
	ctx := context.Background()

	t.Run("removes canonical and mirror", func(t *testing.T) {
		mgr, store, sink := setupManagerTest(t)

		rel, err := mgr.AddRelationship(ctx, taskNoteRequest())
		require.NoError(t, err)

		require.NoError(t, mgr.RemoveRelationship(ctx, rel.ID))

		task, _ := store.Record("tasks", "t1")
		assert.Empty(t, task.Relationships)
		note, _ := store.Record("notes", "n1")
		assert.Empty(t, note.Relationships)
		assert.Zero(t, mgr.Count())
		assert.Empty(t, mgr.GetRelationships("t1", Query{}))
		assert.Empty(t, mgr.GetRelationships("n1", Query{}))

		events := sink.Named(ports.EventRelationshipRemoved)
		require.Len(t, events, 1)
		payload := events[0].Payload.(RelationshipEvent)
		assert.Equal(t, rel.ID, payload.Relationship.ID)
		assert.NotNil(t, payload.Mirror)
	})

	t.Run("removing an unknown id is a successful no-op", func(t *testing.T) {
		mgr, store, sink := setupManagerTest(t)

		require.NoError(t, mgr.RemoveRelationship(ctx, "does-not-exist"))
		assert.Zero(t, store.Commits)
		assert.Empty(t, sink.Events)
	})

	t.Run("stale mirror does not fail removal", func(t *testing.T) {
		mgr, store, sink := setupManagerTest(t)

		rel, err := mgr.AddRelationship(ctx, taskNoteRequest())
		require.NoError(t, err)

		// Simulate another writer having already stripped the mirror.
		note, _ := store.Record("notes", "n1")
		store.Collections["notes"] = []entities.Record{{ID: note.ID, Extra: note.Extra}}

		require.NoError(t, mgr.RemoveRelationship(ctx, rel.ID))
		assert.Zero(t, mgr.Count())

		events := sink.Named(ports.EventRelationshipRemoved)
		require.Len(t, events, 1)
		assert.Nil(t, events[0].Payload.(RelationshipEvent).Mirror)
	})

	t.Run("commit failure rolls back and keeps the index", func(t *testing.T) {
		mgr, store, _ := setupManagerTest(t)

		rel, err := mgr.AddRelationship(ctx, taskNoteRequest())
		require.NoError(t, err)

		store.CommitErr = errors.New("io error")
		err = mgr.RemoveRelationship(ctx, rel.ID)

		var txErr *entities.TransactionError
		require.ErrorAs(t, err, &txErr)
		_, ok := mgr.GetByID(rel.ID)
		assert.True(t, ok, "index unchanged after failed remove")
	})
}

func TestManager_Queries(t *testing.T) {
	ctx := context.Background()

	t.Run("get relationships filters by relation type", func(t *testing.T) {
		mgr, store, _ := setupManagerTest(t)
		store.Seed("sessions", record("s1", "Tuesday deep work"))

		_, err := mgr.AddRelationship(ctx, taskNoteRequest())
		require.NoError(t, err)
		_, err = mgr.AddRelationship(ctx, AddRequest{
			SourceType: entities.EntityTask,
			SourceID:   "t1",
			TargetType: entities.EntitySession,
			TargetID:   "s1",
			Type:       entities.RelationTaskSession,
		})
		require.NoError(t, err)

		assert.Len(t, mgr.GetRelationships("t1", Query{}), 2)
		assert.Len(t, mgr.GetRelationships("t1", Query{RelationType: entities.RelationTaskNote}), 1)
		assert.Len(t, mgr.GetRelationships("t1", Query{EntityType: entities.EntitySession}), 1)
		assert.Empty(t, mgr.GetRelationships("t1", Query{EntityType: entities.EntityGoal}))
	})

	t.Run("mirror is visible from the target side", func(t *testing.T) {
		mgr, _, _ := setupManagerTest(t)

		rel, err := mgr.AddRelationship(ctx, taskNoteRequest())
		require.NoError(t, err)

		// The index holds the canonical copy; querying from the note side
		// returns the same canonical relationship.
		fromNote := mgr.GetRelationships("n1", Query{})
		require.Len(t, fromNote, 1)
		assert.Equal(t, rel.ID, fromNote[0].ID)
		assert.Equal(t, "t1", fromNote[0].SourceID)
	})

	t.Run("related entities resolves far-side records", func(t *testing.T) {
		mgr, _, _ := setupManagerTest(t)

		_, err := mgr.AddRelationship(ctx, taskNoteRequest())
		require.NoError(t, err)

		related, err := mgr.RelatedEntities(ctx, "t1", "")
		require.NoError(t, err)
		require.Len(t, related, 1)
		assert.Equal(t, entities.EntityNote, related[0].EntityType)
		assert.Equal(t, "n1", related[0].Record.ID)
		assert.Equal(t, "Report outline", related[0].Record.Field("title"))
	})

	t.Run("related entities skips records that are gone", func(t *testing.T) {
		mgr, store, _ := setupManagerTest(t)

		_, err := mgr.AddRelationship(ctx, taskNoteRequest())
		require.NoError(t, err)

		store.Collections["notes"] = nil

		related, err := mgr.RelatedEntities(ctx, "t1", "")
		require.NoError(t, err)
		assert.Empty(t, related)
	})
}

func TestManager_IndexRebuild(t *testing.T) {
	ctx := context.Background()

	t.Run("startup load indexes only canonical records", func(t *testing.T) {
		mgr, store, sink := setupManagerTest(t)

		rel, err := mgr.AddRelationship(ctx, taskNoteRequest())
		require.NoError(t, err)

		// A fresh manager over the same store sees the persisted state.
		rebuilt, err := NewManager(ctx, store, sink, WithLogger(zap.NewNop()))
		require.NoError(t, err)

		assert.Equal(t, 1, rebuilt.Count())
		got, ok := rebuilt.GetByID(rel.ID)
		require.True(t, ok)
		assert.True(t, got.Canonical)

		between, ok := rebuilt.index.GetBetween("n1", "t1", entities.RelationTaskNote)
		require.True(t, ok)
		assert.Equal(t, rel.ID, between.ID)
	})

	t.Run("empty store builds an empty index", func(t *testing.T) {
		store := mocks.NewCollectionStore()
		mgr, err := NewManager(ctx, store, mocks.NewEventSink(), WithLogger(zap.NewNop()))
		require.NoError(t, err)
		assert.Zero(t, mgr.Count())
	})

	t.Run("store failure fails construction", func(t *testing.T) {
		store := mocks.NewCollectionStore()
		store.LoadErr = errors.New("db unreachable")

		_, err := NewManager(ctx, store, mocks.NewEventSink(), WithLogger(zap.NewNop()))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rebuilding relationship index")
	})
}

package entities

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionFor(t *testing.T) {
	t.Run("mapped types", func(t *testing.T) {
		assert.Equal(t, "tasks", CollectionFor(EntityTask))
		assert.Equal(t, "companies", CollectionFor(EntityCompany))
		assert.Equal(t, "goals", CollectionFor(EntityGoal))
	})

	t.Run("unmapped types pass through", func(t *testing.T) {
		assert.Equal(t, "widget", CollectionFor(EntityType("widget")))
	})
}

func TestRecord_JSONRoundTrip(t *testing.T) {
	t.Run("unknown fields survive decode and encode", func(t *testing.T) {
		raw := `{
			"id": "t1",
			"title": "Ship the report",
			"status": "open",
			"priority": 2,
			"tags": ["work", "q3"],
			"relationships": [{
				"id": "r1",
				"type": "task-note",
				"source_type": "task",
				"source_id": "t1",
				"target_type": "note",
				"target_id": "n1",
				"metadata": {"source": "manual", "created_at": "2025-06-01T10:00:00Z"},
				"canonical": true
			}]
		}`

		var rec Record
		require.NoError(t, json.Unmarshal([]byte(raw), &rec))

		assert.Equal(t, "t1", rec.ID)
		require.Len(t, rec.Relationships, 1)
		assert.Equal(t, RelationTaskNote, rec.Relationships[0].Type)
		assert.True(t, rec.Relationships[0].Canonical)
		assert.Equal(t, "Ship the report", rec.Field("title"))

		encoded, err := json.Marshal(rec)
		require.NoError(t, err)

		var out map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(encoded, &out))
		assert.JSONEq(t, `"open"`, string(out["status"]))
		assert.JSONEq(t, `2`, string(out["priority"]))
		assert.JSONEq(t, `["work","q3"]`, string(out["tags"]))
	})

	t.Run("nil relationships encode as an empty sequence", func(t *testing.T) {
		encoded, err := json.Marshal(Record{ID: "n1"})
		require.NoError(t, err)
		assert.Contains(t, string(encoded), `"relationships":[]`)
	})

	t.Run("field helpers", func(t *testing.T) {
		var rec Record
		rec.SetField("title", "Outline")
		assert.Equal(t, "Outline", rec.Field("title"))
		assert.Empty(t, rec.Field("missing"))
	})
}

func TestRecord_Relationships(t *testing.T) {
	rel := Relationship{
		ID:         "r1",
		Type:       RelationTaskNote,
		SourceType: EntityTask,
		SourceID:   "t1",
		TargetType: EntityNote,
		TargetID:   "n1",
		Metadata:   Metadata{Source: SourceManual, CreatedAt: time.Now()},
		Canonical:  true,
	}

	t.Run("append and remove", func(t *testing.T) {
		rec := Record{ID: "t1"}
		rec.AppendRelationship(rel)
		require.Len(t, rec.Relationships, 1)

		assert.True(t, rec.RemoveRelationship("r1"))
		assert.Empty(t, rec.Relationships)
	})

	t.Run("remove of an absent id reports false", func(t *testing.T) {
		rec := Record{ID: "t1"}
		rec.AppendRelationship(rel)

		assert.False(t, rec.RemoveRelationship("other"))
		assert.Len(t, rec.Relationships, 1)
	})
}

func TestRelationship_OtherEnd(t *testing.T) {
	rel := Relationship{
		SourceType: EntityTask, SourceID: "t1",
		TargetType: EntityNote, TargetID: "n1",
	}

	entityType, id := rel.OtherEnd("t1")
	assert.Equal(t, EntityNote, entityType)
	assert.Equal(t, "n1", id)

	entityType, id = rel.OtherEnd("n1")
	assert.Equal(t, EntityTask, entityType)
	assert.Equal(t, "t1", id)

	assert.True(t, rel.Touches("t1"))
	assert.True(t, rel.Touches("n1"))
	assert.False(t, rel.Touches("x"))
}

package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeConfigFor(t *testing.T) {
	t.Run("known type", func(t *testing.T) {
		cfg, ok := TypeConfigFor(RelationTaskNote)
		require.True(t, ok)
		assert.True(t, cfg.Bidirectional)
		assert.True(t, cfg.AllowsSource(EntityTask))
		assert.True(t, cfg.AllowsTarget(EntityNote))
		assert.False(t, cfg.AllowsSource(EntityNote))
		assert.False(t, cfg.AllowsTarget(EntityTask))
	})

	t.Run("unknown type", func(t *testing.T) {
		_, ok := TypeConfigFor("task-owns-note")
		assert.False(t, ok)
	})

	t.Run("file attachments are one-directional", func(t *testing.T) {
		cfg, ok := TypeConfigFor(RelationFileAttachment)
		require.True(t, ok)
		assert.False(t, cfg.Bidirectional)
		assert.True(t, cfg.AllowsTarget(EntityTask))
		assert.True(t, cfg.AllowsTarget(EntityNote))
		assert.True(t, cfg.AllowsTarget(EntitySession))
	})

	t.Run("topic refs admit multiple sources", func(t *testing.T) {
		cfg, ok := TypeConfigFor(RelationTopicRef)
		require.True(t, ok)
		assert.True(t, cfg.AllowsSource(EntityTask))
		assert.True(t, cfg.AllowsSource(EntityNote))
		assert.True(t, cfg.AllowsSource(EntitySession))
		assert.False(t, cfg.AllowsSource(EntityTopic))
	})
}

func TestParseRelationType(t *testing.T) {
	rt, ok := ParseRelationType("task-note")
	require.True(t, ok)
	assert.Equal(t, RelationTaskNote, rt)

	_, ok = ParseRelationType("nonsense")
	assert.False(t, ok)
}

func TestRelationTypeNames(t *testing.T) {
	names := RelationTypeNames()
	assert.Len(t, names, 8)
	assert.Contains(t, names, "task-note")
	assert.Contains(t, names, "file-attachment")
	// Sorted for stable help output.
	for i := 1; i < len(names); i++ {
		assert.Less(t, names[i-1], names[i])
	}
}

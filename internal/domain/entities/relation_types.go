package entities

import "sort"

// TypeConfig is the registry entry for a relationship type: which entity
// types may appear on each side, and whether a mirror record is written
// under the target. Entries are immutable after process start.
type TypeConfig struct {
	SourceTypes   []EntityType
	TargetTypes   []EntityType
	Bidirectional bool
}

// AllowsSource reports whether t may appear on the source side.
func (c TypeConfig) AllowsSource(t EntityType) bool {
	return containsType(c.SourceTypes, t)
}

// AllowsTarget reports whether t may appear on the target side.
func (c TypeConfig) AllowsTarget(t EntityType) bool {
	return containsType(c.TargetTypes, t)
}

func containsType(types []EntityType, t EntityType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

// relationTypes is the closed registry of relationship types.
var relationTypes = map[RelationType]TypeConfig{
	RelationTaskNote: {
		SourceTypes:   []EntityType{EntityTask},
		TargetTypes:   []EntityType{EntityNote},
		Bidirectional: true,
	},
	RelationTaskSession: {
		SourceTypes:   []EntityType{EntityTask},
		TargetTypes:   []EntityType{EntitySession},
		Bidirectional: true,
	},
	RelationNoteSession: {
		SourceTypes:   []EntityType{EntityNote},
		TargetTypes:   []EntityType{EntitySession},
		Bidirectional: true,
	},
	RelationTopicRef: {
		SourceTypes:   []EntityType{EntityTask, EntityNote, EntitySession},
		TargetTypes:   []EntityType{EntityTopic},
		Bidirectional: true,
	},
	RelationContactCompany: {
		SourceTypes:   []EntityType{EntityContact},
		TargetTypes:   []EntityType{EntityCompany},
		Bidirectional: true,
	},
	RelationProjectTask: {
		SourceTypes:   []EntityType{EntityProject},
		TargetTypes:   []EntityType{EntityTask},
		Bidirectional: true,
	},
	RelationProjectGoal: {
		SourceTypes:   []EntityType{EntityProject},
		TargetTypes:   []EntityType{EntityGoal},
		Bidirectional: true,
	},
	// Attachments are traversed from the file side only.
	RelationFileAttachment: {
		SourceTypes:   []EntityType{EntityFile},
		TargetTypes:   []EntityType{EntityTask, EntityNote, EntitySession},
		Bidirectional: false,
	},
}

// TypeConfigFor returns the registry entry for a relationship type.
func TypeConfigFor(relType RelationType) (TypeConfig, bool) {
	cfg, ok := relationTypes[relType]
	return cfg, ok
}

// RelationTypeNames returns the names of all registered relationship types,
// sorted for stable help output.
func RelationTypeNames() []string {
	names := make([]string, 0, len(relationTypes))
	for t := range relationTypes {
		names = append(names, string(t))
	}
	sort.Strings(names)
	return names
}

// ParseRelationType validates a string against the registry.
func ParseRelationType(s string) (RelationType, bool) {
	rt := RelationType(s)
	_, ok := relationTypes[rt]
	return rt, ok
}

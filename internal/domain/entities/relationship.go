package entities

import "time"

// RelationType defines the kind of relationship between entities.
type RelationType string

const (
	RelationTaskNote       RelationType = "task-note"
	RelationTaskSession    RelationType = "task-session"
	RelationNoteSession    RelationType = "note-session"
	RelationTopicRef       RelationType = "topic-ref"
	RelationContactCompany RelationType = "contact-company"
	RelationProjectTask    RelationType = "project-task"
	RelationProjectGoal    RelationType = "project-goal"
	RelationFileAttachment RelationType = "file-attachment"
)

// RelationSource records how a relationship came to exist.
type RelationSource string

const (
	SourceManual RelationSource = "manual"
	SourceAI     RelationSource = "ai"
)

// Metadata carries provenance for a relationship.
type Metadata struct {
	Source     RelationSource `json:"source"`
	CreatedAt  time.Time      `json:"created_at"`
	Confidence *float64       `json:"confidence,omitempty"`
	Reasoning  string         `json:"reasoning,omitempty"`
	CreatedBy  string         `json:"created_by,omitempty"`
}

// Relationship represents a directed, typed link between two entities.
// The canonical record lives under the source entity; for bidirectional
// types a non-canonical mirror with source and target swapped lives under
// the target entity so it can be traversed from that side.
type Relationship struct {
	ID         string       `json:"id"`
	Type       RelationType `json:"type"`
	SourceType EntityType   `json:"source_type"`
	SourceID   string       `json:"source_id"`
	TargetType EntityType   `json:"target_type"`
	TargetID   string       `json:"target_id"`
	Metadata   Metadata     `json:"metadata"`
	Canonical  bool         `json:"canonical"`
}

// OtherEnd returns the entity type and id on the side of the relationship
// that is not entityID. When entityID is the source, the target is returned.
func (r *Relationship) OtherEnd(entityID string) (EntityType, string) {
	if r.SourceID == entityID {
		return r.TargetType, r.TargetID
	}
	return r.SourceType, r.SourceID
}

// Touches reports whether the relationship has entityID on either side.
func (r *Relationship) Touches(entityID string) bool {
	return r.SourceID == entityID || r.TargetID == entityID
}

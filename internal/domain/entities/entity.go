package entities

import "encoding/json"

// EntityType tags the kind of workspace entity on either side of a
// relationship.
type EntityType string

const (
	EntityTask    EntityType = "task"
	EntityNote    EntityType = "note"
	EntitySession EntityType = "session"
	EntityTopic   EntityType = "topic"
	EntityCompany EntityType = "company"
	EntityContact EntityType = "contact"
	EntityFile    EntityType = "file"
	EntityProject EntityType = "project"
	EntityGoal    EntityType = "goal"
)

// collections maps entity types to the collection that persists them.
var collections = map[EntityType]string{
	EntityTask:    "tasks",
	EntityNote:    "notes",
	EntitySession: "sessions",
	EntityTopic:   "topics",
	EntityCompany: "companies",
	EntityContact: "contacts",
	EntityFile:    "files",
	EntityProject: "projects",
	EntityGoal:    "goals",
}

// CollectionFor returns the collection name that stores entities of the
// given type. Unmapped types pass through as their own name.
func CollectionFor(entityType EntityType) string {
	if name, ok := collections[entityType]; ok {
		return name
	}
	return string(entityType)
}

// KnownEntityTypes returns all entity types with a mapped collection.
func KnownEntityTypes() []EntityType {
	types := make([]EntityType, 0, len(collections))
	for t := range collections {
		types = append(types, t)
	}
	return types
}

// Record is a persisted entity as the relationship layer sees it: an id, its
// relationship sequence, and whatever other fields the owning subsystem
// stores. Unknown fields survive a decode/encode round-trip untouched so the
// relationship layer never destroys entity data it does not understand.
type Record struct {
	ID            string
	Relationships []Relationship
	Extra         map[string]json.RawMessage
}

// UnmarshalJSON decodes a record, keeping fields other than id and
// relationships in Extra.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if v, ok := raw["id"]; ok {
		if err := json.Unmarshal(v, &r.ID); err != nil {
			return err
		}
		delete(raw, "id")
	}
	if v, ok := raw["relationships"]; ok {
		if err := json.Unmarshal(v, &r.Relationships); err != nil {
			return err
		}
		delete(raw, "relationships")
	}

	r.Extra = raw
	return nil
}

// MarshalJSON re-assembles the record including preserved extra fields.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(r.Extra)+2)
	for k, v := range r.Extra {
		out[k] = v
	}

	id, err := json.Marshal(r.ID)
	if err != nil {
		return nil, err
	}
	out["id"] = id

	rels := r.Relationships
	if rels == nil {
		rels = []Relationship{}
	}
	encoded, err := json.Marshal(rels)
	if err != nil {
		return nil, err
	}
	out["relationships"] = encoded

	return json.Marshal(out)
}

// Field returns a string-valued extra field, or "" if absent or not a string.
func (r *Record) Field(name string) string {
	raw, ok := r.Extra[name]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// SetField sets a string-valued extra field.
func (r *Record) SetField(name, value string) {
	if r.Extra == nil {
		r.Extra = make(map[string]json.RawMessage)
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return
	}
	r.Extra[name] = encoded
}

// AppendRelationship adds a relationship to the record's sequence.
func (r *Record) AppendRelationship(rel Relationship) {
	r.Relationships = append(r.Relationships, rel)
}

// RemoveRelationship filters the relationship with the given id out of the
// record's sequence. Returns true if an entry was removed.
func (r *Record) RemoveRelationship(id string) bool {
	// Fresh slice: loaded records may alias committed storage state, so an
	// in-place filter could leak uncommitted changes.
	kept := make([]Relationship, 0, len(r.Relationships))
	removed := false
	for i := range r.Relationships {
		if r.Relationships[i].ID == id {
			removed = true
			continue
		}
		kept = append(kept, r.Relationships[i])
	}
	r.Relationships = kept
	return removed
}

package entities

// EntityVector is an entity's embedded text, stored in the vector database
// for similarity lookups.
type EntityVector struct {
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	Text       string     `json:"text"`
	Embedding  []float32  `json:"-"`
}

// EntityHit is a similarity search result.
type EntityHit struct {
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	Text       string     `json:"text"`
	Score      float32    `json:"score"`
}

// Suggestion is a candidate relationship proposed from vector similarity.
// Applying a suggestion creates a relationship with Source = ai and the
// suggestion's confidence and reasoning carried into the metadata.
type Suggestion struct {
	Type       RelationType `json:"type"`
	SourceType EntityType   `json:"source_type"`
	SourceID   string       `json:"source_id"`
	TargetType EntityType   `json:"target_type"`
	TargetID   string       `json:"target_id"`
	Confidence float64      `json:"confidence"`
	Reasoning  string       `json:"reasoning"`
}

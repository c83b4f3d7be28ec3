package ports

// Event names emitted by the relationship manager.
const (
	EventRelationshipAdded   = "relationship:added"
	EventRelationshipRemoved = "relationship:removed"
)

// EventSink receives domain notifications. Emit is fire-and-forget: sink
// failures must never propagate to the operation that triggered them.
type EventSink interface {
	Emit(event string, payload any)
}

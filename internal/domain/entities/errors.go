package entities

import "fmt"

// ValidationError reports a relationship request that was rejected before
// any write: unknown type, disallowed entity-type combination, or a
// strategy veto.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid relationship: %s", e.Reason)
}

// NewValidationError builds a ValidationError with a formatted reason.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// EntityNotFoundError reports that an entity (or its collection) was absent
// at write time. Surfaced after the transaction has been rolled back.
type EntityNotFoundError struct {
	EntityType EntityType
	EntityID   string
	Collection string
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("entity not found: %s %q in collection %q", e.EntityType, e.EntityID, e.Collection)
}

// TransactionError wraps any other failure during the transactional write
// or commit phase, with enough context to identify the operation.
type TransactionError struct {
	Op       string
	RelType  RelationType
	SourceID string
	TargetID string
	Err      error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction failed during %s (%s %s -> %s): %v", e.Op, e.RelType, e.SourceID, e.TargetID, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

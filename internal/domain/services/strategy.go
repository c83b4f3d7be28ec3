package services

import (
	"context"

	"github.com/weavehq/weave/internal/domain/entities"
)

// Strategy is the per-relationship-type hook set. Validate and BeforeAdd /
// BeforeRemove run before any transactional write and abort the operation
// on error. AfterAdd / AfterRemove run after commit; their errors are
// logged and never roll back the committed write.
type Strategy interface {
	Validate(ctx context.Context, rel *entities.Relationship) error
	BeforeAdd(ctx context.Context, rel *entities.Relationship) error
	AfterAdd(ctx context.Context, rel *entities.Relationship) error
	BeforeRemove(ctx context.Context, rel *entities.Relationship) error
	AfterRemove(ctx context.Context, rel *entities.Relationship) error
}

// NoopStrategy implements Strategy with no-ops. Embed it to override only
// the hooks a type needs; it is also the implicit strategy for types with
// no registration.
type NoopStrategy struct{}

// Validate accepts every relationship.
func (NoopStrategy) Validate(_ context.Context, _ *entities.Relationship) error { return nil }

// BeforeAdd does nothing.
func (NoopStrategy) BeforeAdd(_ context.Context, _ *entities.Relationship) error { return nil }

// AfterAdd does nothing.
func (NoopStrategy) AfterAdd(_ context.Context, _ *entities.Relationship) error { return nil }

// BeforeRemove does nothing.
func (NoopStrategy) BeforeRemove(_ context.Context, _ *entities.Relationship) error { return nil }

// AfterRemove does nothing.
func (NoopStrategy) AfterRemove(_ context.Context, _ *entities.Relationship) error { return nil }

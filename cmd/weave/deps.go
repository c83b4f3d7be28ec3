package main

import (
	"context"
	"fmt"
	"os"

	"github.com/weavehq/weave/internal/application/handlers"
	"github.com/weavehq/weave/internal/domain/services"
	"github.com/weavehq/weave/internal/infrastructure/collectionstore/sqlite"
	"github.com/weavehq/weave/internal/infrastructure/config"
	embedder "github.com/weavehq/weave/internal/infrastructure/embedder/openai"
	"github.com/weavehq/weave/internal/infrastructure/events"
	"github.com/weavehq/weave/internal/infrastructure/vectordb/qdrant"
	"github.com/weavehq/weave/pkg/logger"
)

// Deps holds high-level dependencies for commands. Only handlers are
// exposed, services and stores stay internal.
type Deps struct {
	Config        *config.Config
	Relationships *handlers.RelationshipHandler
	Entities      *handlers.EntityHandler
}

// internalDeps holds all dependencies including low-level components.
type internalDeps struct {
	Deps
	store       *sqlite.Store
	manager     *services.Manager
	suggestions *services.SuggestionService
	broadcaster *events.Broadcaster
	vectorRepo  *qdrant.Repository
}

// withDeps loads config and builds dependencies, then calls the provided
// function. It handles cleanup automatically.
func withDeps(ctx context.Context, fn func(*Deps) error) error {
	return withInternalDeps(ctx, func(d *internalDeps) error {
		return fn(&d.Deps)
	})
}

// withInternalDeps provides access to all dependencies including low-level
// components. Used by commands that need direct service access.
func withInternalDeps(ctx context.Context, fn func(*internalDeps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Env); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Get()

	store, err := sqlite.NewStore(ctx, cfg.SQLite)
	if err != nil {
		return fmt.Errorf("opening collection store: %w", err)
	}
	defer store.Close()

	broadcaster := events.NewBroadcaster(log)
	sink := events.Multi{events.NewLoggingSink(log), broadcaster}

	manager, err := services.NewManager(ctx, store, sink, services.WithLogger(log))
	if err != nil {
		return fmt.Errorf("creating relationship manager: %w", err)
	}

	// Suggestions need an embedding provider; without one the rest of the
	// CLI still works.
	var suggestions *services.SuggestionService
	var vectorRepo *qdrant.Repository
	if cfg.Embedder.APIKey != "" {
		emb, err := embedder.NewEmbedder(cfg.Embedder)
		if err != nil {
			return fmt.Errorf("creating embedder: %w", err)
		}

		vectorRepo, err = qdrant.NewRepository(cfg.Qdrant)
		if err != nil {
			return fmt.Errorf("creating qdrant repository: %w", err)
		}
		defer vectorRepo.Close()

		suggestions = services.NewSuggestionService(emb, vectorRepo, store)
	}

	deps := &internalDeps{
		Deps: Deps{
			Config:        cfg,
			Relationships: handlers.NewRelationshipHandler(manager, store, suggestions),
			Entities:      handlers.NewEntityHandler(store, suggestions, log),
		},
		store:       store,
		manager:     manager,
		suggestions: suggestions,
		broadcaster: broadcaster,
		vectorRepo:  vectorRepo,
	}

	return fn(deps)
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/weavehq/weave/internal/infrastructure/collectionstore/sqlite"
	"github.com/weavehq/weave/internal/infrastructure/config"
	embedder "github.com/weavehq/weave/internal/infrastructure/embedder/openai"
	"github.com/weavehq/weave/internal/infrastructure/vectordb/qdrant"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new weave database",
		Long:  "Creates a .weave directory with default configuration and sets up the SQLite database. If an embedding API key is available, the Qdrant collection is created too.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	if config.Exists(cwd) {
		return fmt.Errorf("weave already initialized in %s", cwd)
	}

	if err := config.Save(cwd, config.Default()); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	fmt.Printf("Created %s\n", config.ConfigFilePath(cwd))

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := sqlite.NewStore(ctx, cfg.SQLite)
	if err != nil {
		return fmt.Errorf("creating collection store: %w", err)
	}
	defer store.Close()
	fmt.Printf("Created database: %s\n", store.Path())

	if cfg.Embedder.APIKey != "" {
		repo, err := qdrant.NewRepository(cfg.Qdrant)
		if err != nil {
			return fmt.Errorf("connecting to qdrant: %w", err)
		}
		defer repo.Close()

		if err := repo.EnsureCollection(ctx, embedder.VectorSize); err != nil {
			return fmt.Errorf("creating collection: %w", err)
		}
		fmt.Printf("Created Qdrant collection: %s\n", cfg.Qdrant.Collection)
	}

	fmt.Println("Weave initialized successfully!")
	return nil
}

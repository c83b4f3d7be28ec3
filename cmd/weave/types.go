package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/weavehq/weave/internal/domain/entities"
)

func newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the registered relationship types",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range entities.RelationTypeNames() {
				cfg, ok := entities.TypeConfigFor(entities.RelationType(name))
				if !ok {
					continue
				}

				direction := "one-way"
				if cfg.Bidirectional {
					direction = "bidirectional"
				}
				fmt.Printf("%s (%s)\n", name, direction)
				fmt.Printf("  sources: %s\n", joinTypes(cfg.SourceTypes))
				fmt.Printf("  targets: %s\n", joinTypes(cfg.TargetTypes))
			}
			return nil
		},
	}
}

func joinTypes(types []entities.EntityType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

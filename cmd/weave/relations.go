package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weavehq/weave/internal/application/handlers"
)

func newRelationsCmd() *cobra.Command {
	var relType string
	var entityType string

	cmd := &cobra.Command{
		Use:   "relations <entity-id>",
		Short: "List relationships for an entity",
		Long: `Lists all relationships touching an entity, from either side.

Examples:
  weave relations t1
  weave relations t1 --type task-note
  weave relations t1 --entity-type session`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				result, err := d.Relationships.HandleList(cmd.Context(), args[0], handlers.ListOptions{
					Type:       relType,
					EntityType: entityType,
				})
				if err != nil {
					return fmt.Errorf("listing relationships: %w", err)
				}

				if result.Count == 0 {
					fmt.Printf("No relationships found for %s.\n", args[0])
					return nil
				}

				fmt.Printf("Relationships for %s (%d):\n", args[0], result.Count)
				for _, rel := range result.Relationships {
					fmt.Printf("  %s:%s -[%s]-> %s:%s", rel.SourceType, rel.SourceID, rel.Type, rel.TargetType, rel.TargetID)
					if rel.Metadata.Source != "" {
						fmt.Printf("  (%s)", rel.Metadata.Source)
					}
					fmt.Printf("\n    id: %s\n", rel.ID)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&relType, "type", "", "Filter by relationship type")
	cmd.Flags().StringVar(&entityType, "entity-type", "", "Filter by entity type on either end")

	return cmd
}

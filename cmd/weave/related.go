package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRelatedCmd() *cobra.Command {
	var relType string

	cmd := &cobra.Command{
		Use:   "related <entity-id>",
		Short: "Show the entities related to an entity",
		Long: `Resolves the entity on the far side of each relationship and prints it.

Examples:
  weave related t1
  weave related t1 --type task-note`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				related, err := d.Relationships.HandleRelated(cmd.Context(), args[0], relType)
				if err != nil {
					return fmt.Errorf("resolving related entities: %w", err)
				}

				if len(related) == 0 {
					fmt.Printf("No related entities found for %s.\n", args[0])
					return nil
				}

				for _, r := range related {
					label := recordLabel(r.Record)
					if label == "" {
						label = r.Record.ID
					}
					fmt.Printf("%s  %s  (%s, via %s)\n", r.EntityType, label, r.Record.ID, r.Relationship.Type)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&relType, "type", "", "Filter by relationship type")

	return cmd
}

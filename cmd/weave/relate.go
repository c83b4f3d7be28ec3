package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/weavehq/weave/internal/application/handlers"
	"github.com/weavehq/weave/internal/domain/entities"
)

func newRelateCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "relate <source-type>:<source-id> <relation-type> <target-type>:<target-id>",
		Short: "Create a relationship between two entities",
		Long: fmt.Sprintf(`Creates a typed relationship link between two entities. Bidirectional
types also write a mirror entry under the target, so the link is visible
from both sides.

Valid relationship types:
  %s

Examples:
  weave relate task:t1 task-note note:n1
  weave relate file:f1 file-attachment task:t1
  weave relate contact:c1 contact-company company:co1 --reason "works there"`,
			strings.Join(entities.RelationTypeNames(), ", ")),
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			sourceType, sourceID, err := splitEntityRef(args[0])
			if err != nil {
				return err
			}
			targetType, targetID, err := splitEntityRef(args[2])
			if err != nil {
				return err
			}

			return withDeps(cmd.Context(), func(d *Deps) error {
				rel, err := d.Relationships.HandleAdd(cmd.Context(), handlers.AddParams{
					SourceType: sourceType,
					SourceID:   sourceID,
					TargetType: targetType,
					TargetID:   targetID,
					Type:       args[1],
					Reasoning:  reason,
				})
				if err != nil {
					return fmt.Errorf("creating relationship: %w", err)
				}

				fmt.Printf("Created relationship: %s\n", rel.ID)
				fmt.Printf("  %s:%s -[%s]-> %s:%s\n", rel.SourceType, rel.SourceID, rel.Type, rel.TargetType, rel.TargetID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Why the entities are related")

	return cmd
}

// splitEntityRef parses "type:id" arguments.
func splitEntityRef(ref string) (string, string, error) {
	entityType, id, ok := strings.Cut(ref, ":")
	if !ok || entityType == "" || id == "" {
		return "", "", fmt.Errorf("invalid entity reference %q (expected type:id)", ref)
	}
	return entityType, id, nil
}

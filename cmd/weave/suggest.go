package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newSuggestCmd() *cobra.Command {
	var limit int
	var apply bool

	cmd := &cobra.Command{
		Use:   "suggest <entity-type>:<entity-id>",
		Short: "Suggest relationships from content similarity",
		Long: `Proposes relationships for an entity based on vector similarity of its
content. Requires an embedding API key (OPENAI_API_KEY or the config file).

With --apply, each suggestion is offered interactively for acceptance.

Examples:
  weave suggest task:t1
  weave suggest note:n1 --limit 10 --apply`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType, entityID, err := splitEntityRef(args[0])
			if err != nil {
				return err
			}

			return withDeps(cmd.Context(), func(d *Deps) error {
				suggestions, err := d.Relationships.HandleSuggest(cmd.Context(), entityType, entityID, limit)
				if err != nil {
					return fmt.Errorf("suggesting relationships: %w", err)
				}

				if len(suggestions) == 0 {
					fmt.Println("No suggestions found.")
					return nil
				}

				reader := bufio.NewReader(os.Stdin)
				for i, s := range suggestions {
					fmt.Printf("%d. %s:%s -[%s]-> %s:%s (%.0f%%)\n",
						i+1, s.SourceType, s.SourceID, s.Type, s.TargetType, s.TargetID, s.Confidence*100)
					if s.Reasoning != "" {
						fmt.Printf("   %s\n", s.Reasoning)
					}

					if !apply {
						continue
					}

					fmt.Print("   Accept? [y/N] ")
					answer, err := reader.ReadString('\n')
					if err != nil {
						return fmt.Errorf("reading answer: %w", err)
					}
					if strings.TrimSpace(strings.ToLower(answer)) != "y" {
						continue
					}

					rel, err := d.Relationships.HandleApplySuggestion(cmd.Context(), s)
					if err != nil {
						return fmt.Errorf("applying suggestion: %w", err)
					}
					fmt.Printf("   Created relationship: %s\n", rel.ID)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 5, "Maximum number of suggestions")
	cmd.Flags().BoolVar(&apply, "apply", false, "Interactively accept suggestions")

	return cmd
}

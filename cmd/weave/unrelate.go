package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUnrelateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unrelate <relationship-id>",
		Short: "Remove a relationship",
		Long:  "Removes a relationship by its ID, including the mirror entry of bidirectional types.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				if err := d.Relationships.HandleRemove(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("removing relationship: %w", err)
				}
				fmt.Printf("Removed relationship: %s\n", args[0])
				return nil
			})
		},
	}
}

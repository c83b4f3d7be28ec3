package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/weavehq/weave/internal/domain/entities"
)

func newEntitiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entities",
		Short: "Manage entity records",
	}

	cmd.AddCommand(
		newEntitiesCreateCmd(),
		newEntitiesListCmd(),
		newEntitiesShowCmd(),
		newEntitiesReindexCmd(),
	)

	return cmd
}

func newEntitiesCreateCmd() *cobra.Command {
	var fields []string

	cmd := &cobra.Command{
		Use:   "create <entity-type>",
		Short: "Create an entity record",
		Long: `Creates a new entity record with the given fields.

Examples:
  weave entities create task --field title="Ship the report" --field status=open
  weave entities create note --field title="Report outline"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed := make(map[string]string, len(fields))
			for _, f := range fields {
				name, value, ok := strings.Cut(f, "=")
				if !ok {
					return fmt.Errorf("invalid field %q (expected name=value)", f)
				}
				parsed[name] = value
			}

			return withDeps(cmd.Context(), func(d *Deps) error {
				record, err := d.Entities.HandleCreate(cmd.Context(), args[0], parsed)
				if err != nil {
					return fmt.Errorf("creating entity: %w", err)
				}
				fmt.Printf("Created %s: %s\n", args[0], record.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVar(&fields, "field", nil, "Field as name=value (repeatable)")

	return cmd
}

func newEntitiesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <entity-type>",
		Short: "List entity records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				records, err := d.Entities.HandleList(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("listing entities: %w", err)
				}
				if len(records) == 0 {
					fmt.Printf("No %s records found.\n", args[0])
					return nil
				}
				for i := range records {
					fmt.Printf("%s  %s\n", records[i].ID, recordLabel(records[i]))
				}
				return nil
			})
		},
	}
}

func newEntitiesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <entity-type> <id>",
		Short: "Show an entity record with its relationships",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				record, err := d.Entities.HandleGet(cmd.Context(), args[0], args[1])
				if err != nil {
					return fmt.Errorf("loading entity: %w", err)
				}

				fmt.Printf("%s %s\n", args[0], record.ID)
				if label := recordLabel(*record); label != "" {
					fmt.Printf("  %s\n", label)
				}
				if len(record.Relationships) > 0 {
					fmt.Printf("  relationships:\n")
					for _, rel := range record.Relationships {
						otherType, otherID := rel.OtherEnd(record.ID)
						fmt.Printf("    %s -> %s %s (%s)\n", rel.Type, otherType, otherID, rel.ID)
					}
				}
				return nil
			})
		},
	}
}

func newEntitiesReindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex <entity-type>",
		Short: "Re-embed all records of a type for suggestions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				count, err := d.Entities.HandleReindex(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("reindexing: %w", err)
				}
				fmt.Printf("Indexed %d %s records.\n", count, args[0])
				return nil
			})
		},
	}
}

func recordLabel(record entities.Record) string {
	for _, field := range []string{"title", "name", "summary"} {
		if v := record.Field(field); v != "" {
			return v
		}
	}
	return ""
}

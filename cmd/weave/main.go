// Package main provides the entry point for the weave CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// A missing .env file is fine.
	_ = godotenv.Load()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:     "weave",
		Short:   "Typed relationship links between your tasks, notes, sessions, and more",
		Version: version,
	}

	rootCmd.AddCommand(
		newInitCmd(),
		newEntitiesCmd(),
		newRelateCmd(),
		newUnrelateCmd(),
		newRelationsCmd(),
		newRelatedCmd(),
		newSuggestCmd(),
		newServeCmd(),
		newTypesCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weavehq/weave/internal/server"
	"github.com/weavehq/weave/pkg/logger"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Serves the relationship graph over HTTP, including a websocket event
stream at /ws. Stops on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInternalDeps(cmd.Context(), func(d *internalDeps) error {
				cfg := d.Config.Server
				if addr != "" {
					cfg.Addr = addr
				}

				srv := server.New(cfg, d.Relationships, d.Entities, d.broadcaster, logger.Get())
				fmt.Printf("Serving on %s\n", cfg.Addr)
				return srv.Run(cmd.Context())
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")

	return cmd
}

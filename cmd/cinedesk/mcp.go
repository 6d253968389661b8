package main

import (
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/cinedesk/cinedesk/internal/mcp"
	"github.com/cinedesk/cinedesk/internal/notification"
	"github.com/cinedesk/cinedesk/internal/render"
)

// newMCPServeCmd returns the "mcp-serve" subcommand.
// It starts an MCP server over stdin/stdout exposing the catalog as tools.
func newMCPServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-serve",
		Short: "Start MCP server over stdio",
		Long:  "Expose list_movies and upload_csv as MCP tools over stdin/stdout.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			// stdout carries the protocol.
			logger := setupLogger(cfg, os.Stderr)

			srv := mcpserver.NewServer(mcpserver.Deps{
				Catalog:   initCatalog(cfg, logger),
				Notifier:  notification.NewLog(logger),
				Formatter: render.NewFormatter(cfg.UI.DateLayout),
				Version:   version,
			}, logger)
			return srv.ServeStdio(cmd.Context())
		},
	}
}

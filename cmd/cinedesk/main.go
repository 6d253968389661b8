package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cinedesk/cinedesk/internal/config"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styleError.Render(err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cinedesk",
		Short: "Terminal client for the movie catalog",
		Long: "CineDesk browses a movie catalog REST API: search, filter, sort and page through\n" +
			"movies, and import new ones from CSV files. The same catalog is also available\n" +
			"through a Telegram bot and an MCP tool server.",
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to configuration file")

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	rootCmd.AddCommand(
		newVersionCmd(),
		newBrowseCmd(),
		newMoviesCmd(),
		newUploadCmd(),
		newStatusCmd(),
		newBotCmd(),
		newMCPServeCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "CineDesk v%s\n", version)
		},
	}
}

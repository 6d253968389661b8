package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/cinedesk/cinedesk/internal/catalog"
)

var errCatalogUnhealthy = errors.New("catalog API is not healthy")

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check that the catalog API is reachable",
		Long:  "Probe the movie list and CSV upload endpoints and report their status and latency.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.OutOrStdout())
		},
	}
}

func runStatus(out io.Writer) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg, os.Stderr)
	client := initCatalog(cfg, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	results := client.CheckHealth(ctx)

	fmt.Fprintln(out, styleHeader.Render("Catalog "+sanitizeURL(cfg.Catalog.BaseURL)))
	for _, r := range results {
		fmt.Fprintln(out, formatHealth(r))
	}

	if !catalog.Healthy(results) {
		return errCatalogUnhealthy
	}
	return nil
}

func formatHealth(r catalog.Health) string {
	mark, color := "✓", lipgloss.Color("10") // green
	if !r.Healthy {
		mark, color = "✗", lipgloss.Color("9") // red
	}
	markStyle := lipgloss.NewStyle().Foreground(color)
	nameStyle := lipgloss.NewStyle().Bold(true).Width(8)

	line := fmt.Sprintf("%s %s", markStyle.Render(mark), nameStyle.Render(r.Name))
	if r.Status > 0 {
		line += "  " + styleDim.Render(fmt.Sprintf("HTTP %d", r.Status))
	}
	if r.Latency > 0 {
		line += "  " + styleDim.Render(formatLatency(r.Latency))
	}
	if r.Error != "" {
		line += "  " + styleError.Render(r.Error)
	}
	return line
}

func formatLatency(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return "<1ms"
	}
}

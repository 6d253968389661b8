package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cinedesk/cinedesk/internal/catalog"
	"github.com/cinedesk/cinedesk/internal/config"
	"github.com/cinedesk/cinedesk/internal/httpclient"
	"github.com/cinedesk/cinedesk/internal/render"
	"github.com/cinedesk/cinedesk/internal/upload"
)

// Lipgloss styles used across commands.
var (
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	styleInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // blue
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray

	styleActivePage = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true) // cyan bold
	styleFocused    = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))            // magenta
	styleSelected   = lipgloss.NewStyle().Reverse(true)                               // pagination cursor

	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("5")).
			MarginBottom(1)
)

// loadConfig loads and validates the configuration file.
// Only a missing file at the default path falls back to the defaults.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

// setupLogger configures logging. Full-screen commands pass a nil fallback
// so records never reach the terminal unless a log file is configured.
func setupLogger(cfg *config.Config, fallback io.Writer) *slog.Logger {
	return config.SetupLogger(cfg.App, fallback)
}

// httpConfig derives the HTTP client settings from the catalog section.
func httpConfig(cfg *config.Config) httpclient.Config {
	hc := httpclient.DefaultConfig()
	hc.MaxAttempts = cfg.Catalog.MaxAttempts
	hc.Timeout = cfg.Catalog.Timeout
	hc.RequestsPerSecond = cfg.Catalog.RequestsPerSecond
	return hc
}

// initCatalog creates the catalog REST client.
func initCatalog(cfg *config.Config, logger *slog.Logger) *catalog.Client {
	c := catalog.New(cfg.Catalog.BaseURL, httpConfig(cfg), cfg.Catalog.CacheTTL, logger)
	logger.Info("catalog client initialized", slog.String("url", sanitizeURL(cfg.Catalog.BaseURL)))
	return c
}

// sanitizeURL strips credentials, query params, and fragment from a URL for safe logging.
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || u.Scheme == "" {
		return "<redacted>"
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// renderPagination draws the pagination strip, e.g. "<  1  [2]  3  >".
// The button at cursor is drawn selected; pass -1 for none.
func renderPagination(buttons []render.Button, cursor int) string {
	parts := make([]string, 0, len(buttons))
	for i, b := range buttons {
		label := b.Label
		if b.Active {
			label = "[" + label + "]"
		}
		switch {
		case i == cursor:
			parts = append(parts, styleSelected.Render(label))
		case b.Active:
			parts = append(parts, styleActivePage.Render(label))
		case b.Disabled:
			parts = append(parts, styleDim.Render(label))
		default:
			parts = append(parts, label)
		}
	}
	return strings.Join(parts, "  ")
}

// renderMessage styles an upload message by kind.
func renderMessage(msg upload.Message) string {
	switch msg.Kind {
	case upload.MessageSuccess:
		return styleSuccess.Render(msg.Text)
	case upload.MessageError:
		return styleError.Render(msg.Text)
	default:
		return ""
	}
}

// shownPage returns the page of the page button labeled label, or 0 when the
// strip does not show it.
func shownPage(buttons []render.Button, label string) int {
	for _, b := range buttons {
		if b.Kind == render.ButtonPage && b.Label == label {
			return b.Page
		}
	}
	return 0
}

// activeIndex returns the index of the current page button, or 0.
func activeIndex(buttons []render.Button) int {
	for i, b := range buttons {
		if b.Active {
			return i
		}
	}
	return 0
}

// stepCursor moves from i to the nearest enabled button in direction step.
// The cursor stays put at either end.
func stepCursor(buttons []render.Button, i, step int) int {
	for j := i + step; j >= 0 && j < len(buttons); j += step {
		if !buttons[j].Disabled {
			return j
		}
	}
	return i
}

// targetPage returns the page a prev/next control leads to, or 0 when it is disabled.
func targetPage(buttons []render.Button, kind render.ButtonKind) int {
	for _, b := range buttons {
		if b.Kind == kind && !b.Disabled {
			return b.Page
		}
	}
	return 0
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/cinedesk/cinedesk/internal/catalog"
	"github.com/cinedesk/cinedesk/internal/core"
	"github.com/cinedesk/cinedesk/internal/listing"
	"github.com/cinedesk/cinedesk/internal/notification"
	"github.com/cinedesk/cinedesk/internal/render"
)

// moviesOptions holds the flags of the movies command.
type moviesOptions struct {
	query  core.Query
	asJSON bool
}

func newMoviesCmd() *cobra.Command {
	opts := &moviesOptions{}

	cmd := &cobra.Command{
		Use:   "movies",
		Short: "Print one page of the movie catalog",
		Long:  "Fetch a single page of movies with optional filters and print it as a table.",
		Example: `  cinedesk movies --search "star wars" --sort -revenue
  cinedesk movies --lang fr --page 2
  cinedesk movies --date 2010-07-16 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			return runMovies(cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.query.Search, "search", "s", "", "match title or original title")
	f.StringVar(&opts.query.Ordering, "sort", "", "sort key: "+strings.Join(catalog.OrderingOptions()[1:], ", "))
	f.StringVar(&opts.query.ReleaseDate, "date", "", "release date, YYYY-MM-DD")
	f.StringVar(&opts.query.Language, "lang", "", "original language code")
	f.IntVarP(&opts.query.Page, "page", "p", 1, "page number")
	f.BoolVar(&opts.asJSON, "json", false, "print the raw page as JSON")
	return cmd
}

func (o *moviesOptions) validate() error {
	if o.query.Ordering != "" && !slices.Contains(catalog.OrderingOptions(), o.query.Ordering) {
		return fmt.Errorf("unknown sort key %q", o.query.Ordering)
	}
	if o.query.Page < 1 {
		return fmt.Errorf("page must be at least 1")
	}
	return nil
}

func runMovies(out io.Writer, opts *moviesOptions) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg, os.Stderr)
	client := initCatalog(cfg, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	lister := listing.New(client, notification.NewLog(logger), logger)
	result := lister.Load(ctx, opts.query)
	if result.Err != nil {
		return fmt.Errorf("list movies: %w", result.Err)
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Page)
	}

	fmt.Fprintln(out, renderMoviesPage(render.NewFormatter(cfg.UI.DateLayout), result.Page))
	return nil
}

// renderMoviesPage draws a page as a bordered table followed by the pagination strip.
func renderMoviesPage(f *render.Formatter, page *core.Page) string {
	if len(page.Results) == 0 {
		return styleDim.Render("No movies found.")
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := ltable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styleDim).
		Headers(render.Columns...).
		Rows(f.Rows(page.Results)...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == ltable.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	summary := styleDim.Render(fmt.Sprintf("page %d of %d · %d movies", page.CurrentPage, page.NumPages, page.Count))
	return t.Render() + "\n" +
		renderPagination(render.Pagination(page.NumPages, page.CurrentPage), -1) + "\n" +
		summary
}

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cinedesk/cinedesk/internal/catalog"
	"github.com/cinedesk/cinedesk/internal/core"
	"github.com/cinedesk/cinedesk/internal/listing"
	"github.com/cinedesk/cinedesk/internal/render"
	"github.com/cinedesk/cinedesk/internal/upload"
)

// Deps holds the catalog dependencies for MCP tool handlers.
type Deps struct {
	Catalog   core.Catalog
	Notifier  core.Notifier // may be nil
	Formatter *render.Formatter
	Version   string
}

// Server wraps an MCP SDK server with the catalog tool handlers.
type Server struct {
	server *mcpsdk.Server
	deps   Deps
	logger *slog.Logger
}

// NewServer creates an MCP server with all catalog tools registered.
func NewServer(deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Formatter == nil {
		deps.Formatter = render.NewFormatter("")
	}
	if deps.Version == "" {
		deps.Version = "dev"
	}

	s := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "cinedesk",
			Version: deps.Version,
		},
		&mcpsdk.ServerOptions{Logger: logger},
	)

	srv := &Server{server: s, deps: deps, logger: logger}
	srv.registerTools()
	return srv
}

// ServeStdio runs the MCP server over stdin/stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.server.Run(ctx, &mcpsdk.StdioTransport{})
}

// MCPServer returns the underlying MCP SDK server (for testing).
func (s *Server) MCPServer() *mcpsdk.Server {
	return s.server
}

func (s *Server) registerTools() {
	s.server.AddTool(listMoviesTool(), s.handleListMovies)
	s.server.AddTool(uploadCSVTool(), s.handleUploadCSV)
}

func listMoviesTool() *mcpsdk.Tool {
	orderings := make([]any, 0, len(catalog.OrderingOptions()))
	for _, o := range catalog.OrderingOptions() {
		orderings = append(orderings, o)
	}

	return &mcpsdk.Tool{
		Name: "list_movies",
		Description: "List one page (10 rows) of the movie catalog. Filters are optional and combine. " +
			"Returns the movies, display rows, the total count and the pagination window.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"search": map[string]any{
					"type":        "string",
					"description": "Text matched against title and original title",
				},
				"ordering": map[string]any{
					"type":        "string",
					"description": "Sort key, prefix with - for descending",
					"enum":        orderings,
				},
				"release_date": map[string]any{
					"type":        "string",
					"description": "Exact release date, YYYY-MM-DD",
				},
				"language": map[string]any{
					"type":        "string",
					"description": "Original language code, e.g. en",
				},
				"page": map[string]any{
					"type":        "integer",
					"description": "1-based page number, defaults to 1",
				},
			},
		},
	}
}

func uploadCSVTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "upload_csv",
		Description: "Import movies into the catalog from a CSV file. Pass either a local file path or the CSV content with a file name.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "Path of a CSV file on this machine",
				},
				"content": map[string]any{
					"type":        "string",
					"description": "CSV text to upload instead of a file",
				},
				"filename": map[string]any{
					"type":        "string",
					"description": "File name sent with content, defaults to upload.csv",
				},
			},
		},
	}
}

// listResult is the list_movies tool output.
type listResult struct {
	Count       int          `json:"count"`
	NumPages    int          `json:"num_pages"`
	CurrentPage int          `json:"current_page"`
	Pages       []int        `json:"pages"`
	Columns     []string     `json:"columns"`
	Rows        [][]string   `json:"rows"`
	Movies      []core.Movie `json:"movies"`
}

// uploadResult is the upload_csv tool output.
type uploadResult struct {
	Status  string `json:"status"` // failures are returned as tool errors
	Message string `json:"message"`
}

func (s *Server) handleListMovies(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Catalog == nil {
		return toolError("catalog client not configured"), nil
	}

	var args struct {
		Search      string `json:"search"`
		Ordering    string `json:"ordering"`
		ReleaseDate string `json:"release_date"`
		Language    string `json:"language"`
		Page        int    `json:"page"`
	}
	if err := unmarshalArgs(req.Params.Arguments, &args); err != nil {
		return toolError(err.Error()), nil
	}
	if args.Ordering != "" && !slices.Contains(catalog.OrderingOptions(), args.Ordering) {
		return toolError(fmt.Sprintf("unknown ordering %q", args.Ordering)), nil
	}
	if d := strings.TrimSpace(args.ReleaseDate); d != "" {
		if _, err := time.Parse(time.DateOnly, d); err != nil {
			return toolError("release_date must be YYYY-MM-DD"), nil
		}
	}

	// Each call gets its own list state so concurrent calls never go stale.
	lister := listing.New(s.deps.Catalog, s.deps.Notifier, s.logger)
	out := lister.Load(ctx, core.Query{
		Search:      args.Search,
		Ordering:    args.Ordering,
		ReleaseDate: args.ReleaseDate,
		Language:    args.Language,
		Page:        args.Page,
	})
	if out.Err != nil {
		return toolError(fmt.Sprintf("list movies failed: %v", out.Err)), nil
	}

	page := out.Page
	return toolJSON(listResult{
		Count:       page.Count,
		NumPages:    page.NumPages,
		CurrentPage: page.CurrentPage,
		Pages:       render.PageNumbers(render.Pagination(page.NumPages, page.CurrentPage)),
		Columns:     render.Columns,
		Rows:        s.deps.Formatter.Rows(page.Results),
		Movies:      page.Results,
	})
}

func (s *Server) handleUploadCSV(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Catalog == nil {
		return toolError("catalog client not configured"), nil
	}

	var args struct {
		Path     string `json:"path"`
		Content  string `json:"content"`
		Filename string `json:"filename"`
	}
	if err := unmarshalArgs(req.Params.Arguments, &args); err != nil {
		return toolError(err.Error()), nil
	}
	if (args.Path == "") == (args.Content == "") {
		return toolError("upload_csv requires exactly one of 'path' or 'content'"), nil
	}

	ctrl := upload.New(s.deps.Catalog, s.deps.Notifier, s.logger)
	ctrl.Begin()

	var res upload.Result
	if args.Path != "" {
		res = ctrl.Submit(ctx, args.Path)
	} else {
		name := args.Filename
		if name == "" {
			name = "upload.csv"
		}
		res = ctrl.SubmitReader(ctx, name, strings.NewReader(args.Content))
	}

	if res.Message.Kind == upload.MessageError {
		text := res.Message.Text
		if res.Err != nil {
			text = fmt.Sprintf("%s (%v)", text, res.Err)
		}
		return toolError(text), nil
	}
	return toolJSON(uploadResult{Status: "success", Message: res.Message.Text})
}

// Helper functions.

// unmarshalArgs decodes tool arguments; absent arguments decode to zero values.
func unmarshalArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// toolJSON marshals v to JSON and returns it as text content.
func toolJSON(v any) (*mcpsdk.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, nil
}

// toolError returns a tool result indicating an error.
func toolError(msg string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: msg}},
		IsError: true,
	}
}

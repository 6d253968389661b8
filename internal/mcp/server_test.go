package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cinedesk/cinedesk/internal/core"
)

// mockCatalog implements core.Catalog for testing.
type mockCatalog struct {
	mu        sync.Mutex
	page      *core.Page
	listErr   error
	lastQuery core.Query
	uploadRes *core.UploadResult
	uploadErr error
	uploaded  string
	filename  string
}

func (m *mockCatalog) ListMovies(_ context.Context, q core.Query) (*core.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastQuery = q
	return m.page, m.listErr
}

func (m *mockCatalog) UploadCSV(_ context.Context, filename string, r io.Reader) (*core.UploadResult, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filename = filename
	m.uploaded = string(b)
	return m.uploadRes, m.uploadErr
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func callTool(t *testing.T, srv *Server, toolName string, args map[string]any) *mcpsdk.CallToolResult {
	t.Helper()
	ctx := context.Background()

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()

	_, err := srv.MCPServer().Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("call tool %s: %v", toolName, err)
	}
	return result
}

func resultText(t *testing.T, result *mcpsdk.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("expected 1 content block, got %d", len(result.Content))
	}
	text, ok := result.Content[0].(*mcpsdk.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return text.Text
}

func TestListMovies(t *testing.T) {
	t.Parallel()
	cat := &mockCatalog{page: &core.Page{
		Count:       42,
		NumPages:    5,
		CurrentPage: 4,
		Results: []core.Movie{
			{ID: 1, Title: "Heat", OriginalTitle: "Heat", ReleaseDate: "1995-12-15", Budget: 60000000, VoteAverage: "7.9"},
		},
	}}
	srv := NewServer(Deps{Catalog: cat}, discardLogger)

	result := callTool(t, srv, "list_movies", map[string]any{
		"search":   "heat",
		"ordering": "-vote_average",
		"language": "en",
		"page":     4,
	})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", resultText(t, result))
	}

	var got listResult
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if got.Count != 42 || got.NumPages != 5 || got.CurrentPage != 4 {
		t.Errorf("envelope = %+v", got)
	}
	if want := []int{1, 2, 3, 4, 5}; len(got.Pages) != len(want) || got.Pages[0] != 1 || got.Pages[4] != 5 {
		t.Errorf("pages = %v, want %v", got.Pages, want)
	}
	if len(got.Rows) != 1 || got.Rows[0][2] != "12/15/1995" || got.Rows[0][3] != "$60,000,000" {
		t.Errorf("rows = %v", got.Rows)
	}
	if len(got.Movies) != 1 || got.Movies[0].VoteAverage != "7.9" {
		t.Errorf("movies = %+v", got.Movies)
	}

	want := core.Query{Search: "heat", Ordering: "-vote_average", Language: "en", Page: 4}
	if cat.lastQuery != want {
		t.Errorf("query = %+v, want %+v", cat.lastQuery, want)
	}
}

func TestListMovies_Defaults(t *testing.T) {
	t.Parallel()
	cat := &mockCatalog{page: &core.Page{NumPages: 1, CurrentPage: 1}}
	srv := NewServer(Deps{Catalog: cat}, discardLogger)

	result := callTool(t, srv, "list_movies", map[string]any{})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", resultText(t, result))
	}
	if cat.lastQuery != (core.Query{Page: 1}) {
		t.Errorf("query = %+v", cat.lastQuery)
	}
}

func TestListMovies_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		catalog core.Catalog
		args    map[string]any
		want    string
	}{
		{
			name: "no catalog",
			args: map[string]any{},
			want: "not configured",
		},
		{
			name:    "bad ordering",
			catalog: &mockCatalog{},
			args:    map[string]any{"ordering": "title"},
			want:    "unknown ordering",
		},
		{
			name:    "bad date",
			catalog: &mockCatalog{},
			args:    map[string]any{"release_date": "16/07/2010"},
			want:    "YYYY-MM-DD",
		},
		{
			name:    "catalog failure",
			catalog: &mockCatalog{listErr: errors.New("catalog API error 500")},
			args:    map[string]any{},
			want:    "list movies failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := NewServer(Deps{Catalog: tt.catalog}, discardLogger)
			result := callTool(t, srv, "list_movies", tt.args)
			if !result.IsError {
				t.Fatal("expected error result")
			}
			if text := resultText(t, result); !strings.Contains(text, tt.want) {
				t.Errorf("error = %q, want it to contain %q", text, tt.want)
			}
		})
	}
}

func TestUploadCSV_Content(t *testing.T) {
	t.Parallel()
	cat := &mockCatalog{uploadRes: &core.UploadResult{Message: "CSV uploaded and processed successfully"}}
	srv := NewServer(Deps{Catalog: cat}, discardLogger)

	result := callTool(t, srv, "upload_csv", map[string]any{"content": "title\nHeat\n"})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", resultText(t, result))
	}

	var got uploadResult
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Status != "success" || got.Message != "CSV uploaded and processed successfully" {
		t.Errorf("result = %+v", got)
	}
	if cat.filename != "upload.csv" || cat.uploaded != "title\nHeat\n" {
		t.Errorf("uploaded %q as %q", cat.uploaded, cat.filename)
	}
}

func TestUploadCSV_Path(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "movies.csv")
	if err := os.WriteFile(path, []byte("title\nAlien\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cat := &mockCatalog{uploadRes: &core.UploadResult{Message: "ok"}}
	srv := NewServer(Deps{Catalog: cat}, discardLogger)

	result := callTool(t, srv, "upload_csv", map[string]any{"path": path})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", resultText(t, result))
	}
	if cat.filename != "movies.csv" {
		t.Errorf("filename = %q", cat.filename)
	}
}

func TestUploadCSV_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		catalog *mockCatalog
		args    map[string]any
		want    string
	}{
		{
			name:    "server rejects",
			catalog: &mockCatalog{uploadRes: &core.UploadResult{Error: "bad file"}},
			args:    map[string]any{"content": "x"},
			want:    "bad file",
		},
		{
			name:    "transport failure",
			catalog: &mockCatalog{uploadErr: errors.New("connection refused")},
			args:    map[string]any{"content": "x"},
			want:    "An error occurred. (connection refused)",
		},
		{
			name:    "neither path nor content",
			catalog: &mockCatalog{},
			args:    map[string]any{},
			want:    "exactly one",
		},
		{
			name:    "both path and content",
			catalog: &mockCatalog{},
			args:    map[string]any{"path": "a.csv", "content": "x"},
			want:    "exactly one",
		},
		{
			name:    "missing file",
			catalog: &mockCatalog{uploadRes: &core.UploadResult{Message: "ok"}},
			args:    map[string]any{"path": "/nonexistent/movies.csv"},
			want:    "An error occurred.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := NewServer(Deps{Catalog: tt.catalog}, discardLogger)
			result := callTool(t, srv, "upload_csv", tt.args)
			if !result.IsError {
				t.Fatal("expected error result")
			}
			if text := resultText(t, result); !strings.Contains(text, tt.want) {
				t.Errorf("error = %q, want it to contain %q", text, tt.want)
			}
		})
	}
}

func TestToolsRegistered(t *testing.T) {
	t.Parallel()
	srv := NewServer(Deps{Catalog: &mockCatalog{}}, discardLogger)
	ctx := context.Background()

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()
	if _, err := srv.MCPServer().Connect(ctx, serverTransport, nil); err != nil {
		t.Fatalf("server connect: %v", err)
	}
	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	res, err := session.ListTools(ctx, &mcpsdk.ListToolsParams{})
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	names := map[string]bool{}
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"list_movies", "upload_csv"} {
		if !names[want] {
			t.Errorf("tool %s not registered", want)
		}
	}
}

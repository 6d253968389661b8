package listing

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/cinedesk/cinedesk/internal/core"
)

type fakeCatalog struct {
	mu      sync.Mutex
	queries []core.Query
	pages   map[int]*core.Page
	err     error
}

func (f *fakeCatalog) ListMovies(_ context.Context, q core.Query) (*core.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.pages[q.Page]; ok {
		return p, nil
	}
	return &core.Page{NumPages: 1, CurrentPage: 1}, nil
}

func (f *fakeCatalog) UploadCSV(context.Context, string, io.Reader) (*core.UploadResult, error) {
	return nil, errors.New("not implemented")
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []core.Notice
}

func (r *recordingNotifier) Notify(_ context.Context, n core.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func testPage(current, total int, titles ...string) *core.Page {
	p := &core.Page{NumPages: total, CurrentPage: current, Count: len(titles)}
	for _, title := range titles {
		p.Results = append(p.Results, core.Movie{Title: title})
	}
	return p
}

func TestLister_Load(t *testing.T) {
	t.Parallel()

	cat := &fakeCatalog{pages: map[int]*core.Page{2: testPage(2, 3, "Alien")}}
	l := New(cat, nil, nil)

	out := l.Load(context.Background(), core.Query{Search: "alien", Page: 2})
	if out.Stale || out.Err != nil {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Page.Results[0].Title != "Alien" {
		t.Errorf("title = %q", out.Page.Results[0].Title)
	}
	if got := l.Query(); got.Page != 2 || got.Search != "alien" {
		t.Errorf("query = %+v", got)
	}
	if l.Page() != out.Page {
		t.Error("accepted page not stored")
	}
}

func TestLister_BeginClampsPage(t *testing.T) {
	t.Parallel()

	l := New(&fakeCatalog{}, nil, nil)
	if tk := l.Begin(core.Query{Page: 0}); tk.Query.Page != 1 {
		t.Errorf("page = %d, want 1", tk.Query.Page)
	}
	if tk := l.Begin(core.Query{Page: -4}); tk.Query.Page != 1 {
		t.Errorf("page = %d, want 1", tk.Query.Page)
	}
}

func TestLister_StaleResponseDiscarded(t *testing.T) {
	t.Parallel()

	l := New(&fakeCatalog{}, nil, nil)
	ctx := context.Background()

	first := l.Begin(core.Query{Search: "a", Page: 1})
	second := l.Begin(core.Query{Search: "ab", Page: 1})

	// The newer response arrives first, then the older one.
	newer := l.Complete(ctx, second, testPage(1, 1, "Abyss"), nil)
	if newer.Stale {
		t.Fatal("latest response marked stale")
	}
	older := l.Complete(ctx, first, testPage(1, 4, "Alien", "Amadeus"), nil)
	if !older.Stale {
		t.Fatal("older response was applied")
	}
	if older.Page != nil {
		t.Error("stale outcome carries a page")
	}

	if got := l.Page().Results[0].Title; got != "Abyss" {
		t.Errorf("current page title = %q, want Abyss", got)
	}
	if got := l.Query().Search; got != "ab" {
		t.Errorf("query search = %q, want ab", got)
	}
}

func TestLister_StaleErrorNotReported(t *testing.T) {
	t.Parallel()

	n := &recordingNotifier{}
	l := New(&fakeCatalog{}, n, nil)
	ctx := context.Background()

	old := l.Begin(core.Query{Page: 1})
	l.Begin(core.Query{Page: 2})

	out := l.Complete(ctx, old, nil, errors.New("boom"))
	if !out.Stale || out.Err != nil {
		t.Errorf("outcome = %+v, want stale without error", out)
	}
	if len(n.notices) != 0 {
		t.Errorf("got %d notices, want 0", len(n.notices))
	}
}

func TestLister_ErrorKeepsPreviousPage(t *testing.T) {
	t.Parallel()

	cat := &fakeCatalog{pages: map[int]*core.Page{1: testPage(1, 2, "Heat")}}
	n := &recordingNotifier{}
	l := New(cat, n, nil)
	ctx := context.Background()

	if out := l.Load(ctx, core.Query{Page: 1}); out.Err != nil {
		t.Fatalf("first load: %v", out.Err)
	}

	cat.err = errors.New("connection refused")
	out := l.GoTo(ctx, 2)
	if out.Err == nil {
		t.Fatal("expected error")
	}
	if got := l.Page().Results[0].Title; got != "Heat" {
		t.Errorf("page replaced on error, title = %q", got)
	}
	if len(n.notices) != 1 {
		t.Fatalf("got %d notices, want 1", len(n.notices))
	}
	if n.notices[0].Source != Source || n.notices[0].Level != core.LevelError {
		t.Errorf("notice = %+v", n.notices[0])
	}
}

func TestLister_GoToKeepsFilters(t *testing.T) {
	t.Parallel()

	cat := &fakeCatalog{pages: map[int]*core.Page{3: testPage(3, 5)}}
	l := New(cat, nil, nil)
	ctx := context.Background()

	l.Load(ctx, core.Query{Search: "war", Ordering: "-budget", Language: "en", Page: 1})
	l.GoTo(ctx, 3)

	last := cat.queries[len(cat.queries)-1]
	want := core.Query{Search: "war", Ordering: "-budget", Language: "en", Page: 3}
	if last != want {
		t.Errorf("query = %+v, want %+v", last, want)
	}
}

func TestLister_NilPageIsError(t *testing.T) {
	t.Parallel()

	l := New(&fakeCatalog{}, nil, nil)
	tk := l.Begin(core.Query{Page: 1})
	if out := l.Complete(context.Background(), tk, nil, nil); out.Err == nil {
		t.Error("expected error for nil page")
	}
}

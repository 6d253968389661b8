// Package listing holds the movie list view-model shared by every frontend.
package listing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cinedesk/cinedesk/internal/core"
)

// Source identifies list notices.
const Source = "list"

// Ticket identifies one issued list request.
type Ticket struct {
	Seq   uint64
	Query core.Query
}

// Outcome is the result of completing a ticket.
type Outcome struct {
	Stale bool       // a newer request was issued; the response was dropped
	Page  *core.Page // set when the response was accepted
	Err   error      // set when the latest request failed
}

// Lister owns the current query and page. Only the response of the most
// recently issued request is ever applied.
type Lister struct {
	catalog  core.Catalog
	notifier core.Notifier
	logger   *slog.Logger

	mu    sync.Mutex
	query core.Query
	page  *core.Page
	seq   uint64
}

// New creates a Lister. notifier may be nil.
func New(catalog core.Catalog, notifier core.Notifier, logger *slog.Logger) *Lister {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lister{
		catalog:  catalog,
		notifier: notifier,
		logger:   logger,
		query:    core.Query{Page: 1},
	}
}

// Begin records q as the current query and stamps a new ticket for it.
// Any ticket issued earlier becomes stale.
func (l *Lister) Begin(q core.Query) Ticket {
	if q.Page < 1 {
		q.Page = 1
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	l.query = q
	return Ticket{Seq: l.seq, Query: q}
}

// Fetch runs the request described by t.
func (l *Lister) Fetch(ctx context.Context, t Ticket) (*core.Page, error) {
	page, err := l.catalog.ListMovies(ctx, t.Query)
	if err != nil {
		return nil, fmt.Errorf("fetch page %d: %w", t.Query.Page, err)
	}
	return page, nil
}

// Complete applies the response for t unless a newer ticket exists.
// Failures of the latest request are reported to the notifier; the
// previously accepted page is kept.
func (l *Lister) Complete(ctx context.Context, t Ticket, page *core.Page, err error) Outcome {
	l.mu.Lock()
	if t.Seq != l.seq {
		l.mu.Unlock()
		l.logger.Debug("discarding stale movie page",
			slog.Uint64("seq", t.Seq),
			slog.Int("page", t.Query.Page),
		)
		return Outcome{Stale: true}
	}
	if err == nil && page == nil {
		err = fmt.Errorf("fetch page %d: empty response", t.Query.Page)
	}
	if err != nil {
		l.mu.Unlock()
		l.report(ctx, err)
		return Outcome{Err: err}
	}

	l.page = page
	if page.CurrentPage >= 1 {
		l.query.Page = page.CurrentPage
	}
	l.mu.Unlock()
	return Outcome{Page: page}
}

// Load issues, runs and completes a request for q.
func (l *Lister) Load(ctx context.Context, q core.Query) Outcome {
	t := l.Begin(q)
	page, err := l.Fetch(ctx, t)
	return l.Complete(ctx, t, page, err)
}

// GoTo loads another page of the current query.
func (l *Lister) GoTo(ctx context.Context, page int) Outcome {
	return l.Load(ctx, l.Query().WithPage(page))
}

// Query returns the current query.
func (l *Lister) Query() core.Query {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.query
}

// Page returns the last accepted page, or nil.
func (l *Lister) Page() *core.Page {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.page
}

func (l *Lister) report(ctx context.Context, err error) {
	l.logger.Warn("movie list request failed", slog.String("error", err.Error()))
	if l.notifier == nil {
		return
	}
	l.notifier.Notify(ctx, core.Notice{
		Source: Source,
		Level:  core.LevelError,
		Text:   err.Error(),
		Err:    err,
	})
}

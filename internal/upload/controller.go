// Package upload drives a CSV upload: loader, message and form reset.
package upload

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cinedesk/cinedesk/internal/core"
)

// Source identifies upload notices.
const Source = "upload"

// GenericError is shown when the request itself failed.
const GenericError = "An error occurred."

// MessageKind selects how a message is styled.
type MessageKind int

const (
	MessageNone MessageKind = iota
	MessageSuccess
	MessageError
)

// Message is the text shown under the upload form.
type Message struct {
	Text string
	Kind MessageKind
}

// State is what the upload form displays.
type State struct {
	Loading bool
	Message Message
}

// Result is the settled state of one upload.
type Result struct {
	Message   Message
	ResetForm bool  // clear the file input
	Err       error // transport or local failure behind GenericError
}

// Controller runs uploads against the catalog.
type Controller struct {
	catalog  core.Catalog
	notifier core.Notifier
	logger   *slog.Logger

	mu    sync.Mutex
	state State
}

// New creates a Controller. notifier may be nil.
func New(catalog core.Catalog, notifier core.Notifier, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{catalog: catalog, notifier: notifier, logger: logger}
}

// Begin shows the loader and clears the previous message.
func (c *Controller) Begin() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = State{Loading: true}
	return c.state
}

// State returns the current display state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit uploads the file at path.
func (c *Controller) Submit(ctx context.Context, path string) Result {
	path = strings.TrimSpace(path)
	if path == "" {
		return c.Resolve(ctx, nil, fmt.Errorf("no file selected"))
	}
	f, err := os.Open(path)
	if err != nil {
		return c.Resolve(ctx, nil, fmt.Errorf("open %s: %w", path, err))
	}
	defer f.Close()
	return c.SubmitReader(ctx, filepath.Base(path), f)
}

// SubmitReader uploads the contents of r under filename.
func (c *Controller) SubmitReader(ctx context.Context, filename string, r io.Reader) Result {
	res, err := c.catalog.UploadCSV(ctx, filename, r)
	return c.Resolve(ctx, res, err)
}

// Resolve settles an upload: the loader is hidden and the message set from
// the response. A server error keeps the form, a success resets it, any
// other failure shows GenericError.
func (c *Controller) Resolve(ctx context.Context, res *core.UploadResult, err error) Result {
	var out Result
	switch {
	case err != nil:
		out = Result{Message: Message{Text: GenericError, Kind: MessageError}, Err: err}
	case res == nil:
		out = Result{
			Message: Message{Text: GenericError, Kind: MessageError},
			Err:     fmt.Errorf("empty upload response"),
		}
	case res.Error != "":
		out = Result{Message: Message{Text: res.Error, Kind: MessageError}}
	default:
		out = Result{Message: Message{Text: res.Message, Kind: MessageSuccess}, ResetForm: true}
	}

	c.mu.Lock()
	c.state = State{Message: out.Message}
	c.mu.Unlock()

	c.report(ctx, out)
	return out
}

func (c *Controller) report(ctx context.Context, out Result) {
	n := core.Notice{Source: Source, Level: core.LevelInfo, Text: out.Message.Text, Err: out.Err}
	if out.Message.Kind == MessageError {
		n.Level = core.LevelError
	}

	attrs := []any{slog.String("message", out.Message.Text)}
	switch {
	case out.Err != nil:
		c.logger.Error("csv upload failed", append(attrs, slog.String("error", out.Err.Error()))...)
	case n.Level == core.LevelError:
		c.logger.Warn("csv upload rejected", attrs...)
	default:
		c.logger.Info("csv upload accepted", attrs...)
	}

	if c.notifier != nil {
		c.notifier.Notify(ctx, n)
	}
}

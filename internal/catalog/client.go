package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/cinedesk/cinedesk/internal/core"
	"github.com/cinedesk/cinedesk/internal/httpclient"
)

const (
	uploadPath = "/api/upload_csv/"

	// uploadField is the multipart field the server reads the file from.
	uploadField = "file"

	maxErrorBody = 512
)

// Client is a REST client for the movie catalog API.
type Client struct {
	baseURL string
	http    *httpclient.Client
	cache   *pageCache // nil when caching is disabled
	logger  *slog.Logger
}

var _ core.Catalog = (*Client)(nil)

// New creates a catalog client. cacheTTL <= 0 disables the page cache.
func New(baseURL string, httpCfg httpclient.Config, cacheTTL time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpclient.New(httpCfg, logger),
		logger:  logger,
	}
	if cacheTTL > 0 {
		c.cache = newPageCache(cacheTTL)
	}
	return c
}

// ListMovies fetches one page of the movie list.
func (c *Client) ListMovies(ctx context.Context, q core.Query) (*core.Page, error) {
	path := BuildPath(q)
	if c.cache != nil {
		if page, ok := c.cache.Get(path); ok {
			c.logger.Debug("movie page served from cache", slog.String("path", path))
			return page, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("catalog API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var page core.Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode movie page: %w", err)
	}

	if c.cache != nil {
		c.cache.Set(path, &page)
	}
	return &page, nil
}

// UploadCSV posts the file as multipart form data. The response body is decoded
// whatever the status code: the server reports rejections as {"error": ...}.
// A non-nil error means the request could not be sent or the body was not JSON.
func (c *Client) UploadCSV(ctx context.Context, filename string, r io.Reader) (*core.UploadResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(uploadField, filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("read upload file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadPath, bytes.NewReader(body.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload csv: %w", err)
	}
	defer resp.Body.Close()

	var decoded struct {
		core.UploadResult
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode upload response (HTTP %d): %w", resp.StatusCode, err)
	}

	result := decoded.UploadResult
	if resp.StatusCode >= http.StatusBadRequest && result.Error == "" {
		result.Error = decoded.Detail
		if result.Error == "" {
			result.Error = fmt.Sprintf("upload rejected: HTTP %d", resp.StatusCode)
		}
		result.Message = ""
	}

	if result.Error == "" && c.cache != nil {
		c.cache.Clear()
	}

	c.logger.Info("csv upload finished",
		slog.String("file", filepath.Base(filename)),
		slog.Int("status", resp.StatusCode),
		slog.Bool("rejected", result.Error != ""),
	)
	return &result, nil
}

package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cinedesk/cinedesk/internal/core"
)

// Probe names reported by CheckHealth.
const (
	ProbeMovies = "movies"
	ProbeUpload = "upload"
)

// Health holds the result of a single endpoint probe. Any status below 500
// counts as healthy: a 405 from the upload endpoint still means the API answered.
type Health struct {
	Name     string
	Endpoint string
	Healthy  bool
	Status   int // 0 if unreachable
	Error    string
	Latency  time.Duration
}

type probe struct {
	name   string
	method string
	path   string
}

// probes lists the endpoints the client depends on. The upload endpoint is
// probed with OPTIONS so nothing is imported.
var probes = []probe{
	{name: ProbeMovies, method: http.MethodGet, path: BuildPath(core.Query{Page: 1})},
	{name: ProbeUpload, method: http.MethodOptions, path: uploadPath},
}

// CheckHealth probes every catalog endpoint concurrently and returns the
// results in a fixed order: movies, then upload. The page cache is bypassed.
func (c *Client) CheckHealth(ctx context.Context) []Health {
	results := make([]Health, len(probes))

	var wg sync.WaitGroup
	wg.Add(len(probes))
	for i, p := range probes {
		go func(idx int, p probe) {
			defer wg.Done()
			results[idx] = c.check(ctx, p)

			r := results[idx]
			c.logger.Debug("health probe",
				slog.String("endpoint", r.Name),
				slog.Bool("healthy", r.Healthy),
				slog.Int("status", r.Status),
				slog.Duration("latency", r.Latency),
				slog.String("error", r.Error),
			)
		}(i, p)
	}
	wg.Wait()
	return results
}

func (c *Client) check(ctx context.Context, p probe) Health {
	url := c.baseURL + p.path
	result := Health{Name: p.name, Endpoint: url}
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, p.method, url, http.NoBody)
	if err != nil {
		result.Error = fmt.Errorf("create request: %w", err).Error()
		return result
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	result.Latency = time.Since(start)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer resp.Body.Close()

	result.Status = resp.StatusCode
	result.Healthy = resp.StatusCode < http.StatusInternalServerError
	if !result.Healthy {
		result.Error = fmt.Sprintf("unhealthy status: %d", resp.StatusCode)
	}
	return result
}

// Healthy reports whether every probe succeeded.
func Healthy(results []Health) bool {
	for _, r := range results {
		if !r.Healthy {
			return false
		}
	}
	return len(results) > 0
}

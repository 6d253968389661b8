package catalog

import (
	"context"
	"net/http"
	"testing"

	"github.com/cinedesk/cinedesk/internal/httpclient"
)

func TestCheckHealth_AllHealthy(t *testing.T) {
	c := newTestClient(t, 0, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(pageJSON))
	}))

	results := c.CheckHealth(context.Background())
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Name != ProbeMovies || results[1].Name != ProbeUpload {
		t.Errorf("unexpected order: %q, %q", results[0].Name, results[1].Name)
	}
	for _, r := range results {
		if !r.Healthy || r.Status != http.StatusOK || r.Error != "" {
			t.Errorf("probe %s = %+v, want healthy", r.Name, r)
		}
	}
	if !Healthy(results) {
		t.Error("Healthy() = false, want true")
	}
}

func TestCheckHealth_ClientErrorStillHealthy(t *testing.T) {
	c := newTestClient(t, 0, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))

	for _, r := range c.CheckHealth(context.Background()) {
		if !r.Healthy {
			t.Errorf("probe %s: status 405 should count as healthy", r.Name)
		}
	}
}

func TestCheckHealth_ServerError(t *testing.T) {
	c := newTestClient(t, 0, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))

	results := c.CheckHealth(context.Background())
	if results[0].Healthy {
		t.Error("movies probe should be unhealthy on 502")
	}
	if results[0].Error != "unhealthy status: 502" {
		t.Errorf("error = %q", results[0].Error)
	}
	if !results[1].Healthy {
		t.Error("upload probe should be healthy")
	}
	if Healthy(results) {
		t.Error("Healthy() = true, want false")
	}
}

func TestCheckHealth_Unreachable(t *testing.T) {
	c := New("http://127.0.0.1:1", httpclient.DefaultConfig(), 0, testLogger())

	for _, r := range c.CheckHealth(context.Background()) {
		if r.Healthy || r.Status != 0 || r.Error == "" {
			t.Errorf("probe %s = %+v, want unreachable", r.Name, r)
		}
	}
}

func TestHealthy_Empty(t *testing.T) {
	if Healthy(nil) {
		t.Error("Healthy(nil) = true, want false")
	}
}

package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/b9ops/dashboard/pkg/config"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := New(&config.ScraperConfig{
		BaseURL:        server.URL,
		RequestTimeout: time.Second,
	})
	return client, server
}

func TestClient_StatusDetailed(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/scraper/status-detailed" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method: %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"running": true, "status": "scraping", "subreddits_processed": 120, "queue_depth": 14}`))
	}))
	defer server.Close()

	status, err := client.StatusDetailed(context.Background())
	if err != nil {
		t.Fatalf("StatusDetailed() error = %v", err)
	}
	if !status.Running || status.Status != "scraping" {
		t.Errorf("Status = %+v, want running scraping", status)
	}
	if status.SubredditsProcessed != 120 || status.QueueDepth != 14 {
		t.Errorf("counters = %d/%d, want 120/14", status.SubredditsProcessed, status.QueueDepth)
	}
}

func TestClient_StartStop(t *testing.T) {
	var paths []string
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	if err := client.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := client.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if len(paths) != 2 || paths[0] != "/scraper/start" || paths[1] != "/scraper/stop" {
		t.Errorf("requested paths = %v", paths)
	}
}

func TestClient_ErrorStatus(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	if _, err := client.StatusDetailed(context.Background()); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestClient_UnreachableService(t *testing.T) {
	client := New(&config.ScraperConfig{
		BaseURL:        "http://127.0.0.1:1", // nothing listens here
		RequestTimeout: 200 * time.Millisecond,
	})

	if _, err := client.StatusDetailed(context.Background()); err == nil {
		t.Error("expected error for unreachable service")
	}
}

func TestStoppedStatus(t *testing.T) {
	status := StoppedStatus()
	if status.Running {
		t.Error("synthetic status must report not running")
	}
	if status.Status != "stopped" {
		t.Errorf("synthetic status = %q, want %q", status.Status, "stopped")
	}
}

package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"cinelog/internal/clients/metadata"
	"cinelog/internal/config"
	"cinelog/internal/core"
	"cinelog/internal/database"
	"cinelog/internal/database/models"
	"cinelog/internal/handlers"
	"cinelog/internal/utils"
)

type stubProvider struct{}

func (stubProvider) Search(ctx context.Context, query string, kind models.MediaKind) ([]metadata.Summary, error) {
	return []metadata.Summary{{ID: 550, Kind: kind, Title: "Fight Club", Year: 1999}}, nil
}

func (stubProvider) Discover(ctx context.Context, kind models.MediaKind, filters map[string]string) ([]metadata.Summary, error) {
	return []metadata.Summary{{ID: 550, Kind: kind, Title: "Fight Club", Year: 1999}}, nil
}

func (stubProvider) Trending(ctx context.Context, kind models.MediaKind, window string) ([]metadata.Summary, error) {
	return []metadata.Summary{{ID: 550, Kind: kind, Title: "Fight Club", Year: 1999}}, nil
}

func (stubProvider) Fetch(ctx context.Context, id int64, kind models.MediaKind) (*models.MediaItem, error) {
	if id == 999 {
		return nil, fmt.Errorf("%w: %s %d", metadata.ErrNotFound, kind, id)
	}
	return &models.MediaItem{ProviderID: id, Kind: kind, Title: "Fight Club"}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := database.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.RunMigrations(db, nil); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	cfg := &config.Config{}
	logger := utils.NewLogger(false, nil)
	manager := core.NewManagerWithDeps(cfg, db, stubProvider{}, nil, logger)

	srv := httptest.NewServer(handlers.NewServer(cfg, manager, nil, logger).Router())
	t.Cleanup(srv.Close)
	return srv
}

func decodeErrorEnvelope(t *testing.T, resp *http.Response) map[string]string {
	t.Helper()
	var envelope map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	return envelope
}

func TestSearchReturnsSummaries(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/search?query=fight+club&kind=movie")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var results []metadata.Summary
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		t.Fatalf("failed to decode results: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Fight Club" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestSearchWithoutQueryIs400(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/search?kind=movie")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if envelope := decodeErrorEnvelope(t, resp); envelope["kind"] != "invalid_parameters" {
		t.Fatalf("unexpected envelope: %v", envelope)
	}
}

func TestDetailsUnknownIDIs404(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/details/movie/999")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if envelope := decodeErrorEnvelope(t, resp); envelope["kind"] != "not_found" {
		t.Fatalf("unexpected envelope: %v", envelope)
	}
}

func TestAddWatchlistIs201(t *testing.T) {
	srv := newTestServer(t)

	body := bytes.NewBufferString(`{"id": 550, "kind": "movie", "status": "Watching"}`)
	resp, err := http.Post(srv.URL+"/api/v1/watchlist", "application/json", body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var entry models.WatchlistEntry
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		t.Fatalf("failed to decode entry: %v", err)
	}
	if entry.Status != models.StatusWatching {
		t.Fatalf("expected status Watching, got %s", entry.Status)
	}
}

func TestUpdateAbsentEntryIs404(t *testing.T) {
	srv := newTestServer(t)

	body := bytes.NewBufferString(`{"status": "Watched"}`)
	req, err := http.NewRequest(http.MethodPatch, srv.URL+"/api/v1/watchlist/movie/550", body)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if envelope := decodeErrorEnvelope(t, resp); envelope["kind"] != "entry_not_found" {
		t.Fatalf("unexpected envelope: %v", envelope)
	}
}

func TestRemoveAbsentEntryIs204(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/watchlist/movie/550", nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
}

func TestEmptyWatchlistIsEmptyArray(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/watchlist")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if got := strings.TrimSpace(string(body)); got != "[]" {
		t.Fatalf("expected empty array, got %q", got)
	}
}

func TestInvalidKindIs400(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/trending/documentary/day")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestRequestIDHeaderIsSet(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/watchlist")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatal("expected X-Request-Id header on every response")
	}

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/watchlist", nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("X-Request-Id", "caller-id")
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp2.Body.Close()

	if got := resp2.Header.Get("X-Request-Id"); got != "caller-id" {
		t.Fatalf("expected caller-supplied request id to be echoed, got %q", got)
	}
}

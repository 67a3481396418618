package web

import (
	"context"
	"encoding/json"
	"image"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mholecy/photo-triage/internal/analysis"
	"github.com/mholecy/photo-triage/internal/categories"
	"github.com/mholecy/photo-triage/internal/classify"
	"github.com/mholecy/photo-triage/internal/duplicates"
	"github.com/mholecy/photo-triage/internal/photos"
	"github.com/mholecy/photo-triage/internal/pressure"
	"github.com/mholecy/photo-triage/internal/scan"
	"github.com/mholecy/photo-triage/internal/store"
	"github.com/mholecy/photo-triage/internal/store/mock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testSource is a tiny in-memory photo library for handler tests.
type testSource struct {
	refs []photos.Ref
}

func (s *testSource) Enumerate(ctx context.Context, filter photos.Filter) ([]photos.Ref, error) {
	excluded := filter.Excluded()
	var out []photos.Ref
	for _, ref := range s.refs {
		if _, skip := excluded[ref.ID]; !skip {
			out = append(out, ref)
		}
	}
	return out, nil
}

func (s *testSource) LoadThumbnail(ctx context.Context, ref photos.Ref, maxSize int) (image.Image, error) {
	return image.NewGray(image.Rect(0, 0, 8, 8)), nil
}

func (s *testSource) ModificationTime(ctx context.Context, ref photos.Ref) (time.Time, error) {
	return ref.CreatedAt, nil
}

func (s *testSource) Resolve(ctx context.Context, ids []string) ([]photos.Ref, error) {
	byID := map[string]photos.Ref{}
	for _, ref := range s.refs {
		byID[ref.ID] = ref
	}
	var out []photos.Ref
	for _, id := range ids {
		if ref, ok := byID[id]; ok {
			out = append(out, ref)
		}
	}
	return out, nil
}

func newTestServer(t *testing.T) (*Server, *mock.Store, *testSource) {
	t.Helper()
	logger := discardLogger()
	cache := mock.New()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	source := &testSource{refs: []photos.Ref{
		{ID: "p1.jpg", Path: "/lib/p1.jpg", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "p2.jpg", Path: "/lib/p2.jpg", CreatedAt: base.Add(time.Hour)},
		{ID: "p3.jpg", Path: "/lib/p3.jpg", CreatedAt: base},
	}}

	pipeline := analysis.New(classify.NewHeuristic(), analysis.Tuning{}, logger)
	analyzer := scan.NewAnalyzer(source, cache, pipeline, logger)
	orchestrator := scan.NewOrchestrator(source, cache, analyzer, &pressure.Static{}, logger)
	clusterer := duplicates.New(cache, 0, logger)

	h := &Handlers{
		Orchestrator: orchestrator,
		Cache:        cache,
		Index:        categories.NewIndex(cache, source, logger),
		Clusterer:    clusterer,
		Searcher:     store.NewSearcher(cache),
		People:       nil,
		Logger:       logger,
	}
	server := NewServer("127.0.0.1", 0, h, logger)
	t.Cleanup(orchestrator.Cancel)
	return server, cache, source
}

func doRequest(t *testing.T, server *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("health = %d, want 200", rec.Code)
	}
}

func TestScanStatusIdle(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/scan", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var p scan.Progress
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if p.IsScanning {
		t.Error("IsScanning = true before any scan")
	}
}

func TestStartScan(t *testing.T) {
	server, cache, source := newTestServer(t)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/scan", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("start = %d, want 202", rec.Code)
	}

	deadline := time.After(5 * time.Second)
	for cache.Len() != len(source.refs) {
		select {
		case <-deadline:
			t.Fatalf("scan did not finish, cache = %d", cache.Len())
		case <-time.After(time.Millisecond):
		}
	}
}

func TestCancelScan(t *testing.T) {
	server, _, _ := newTestServer(t)

	doRequest(t, server, http.MethodPost, "/api/v1/scan", "")
	rec := doRequest(t, server, http.MethodDelete, "/api/v1/scan", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel = %d, want 200", rec.Code)
	}

	var p scan.Progress
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	if p.IsScanning {
		t.Error("IsScanning = true after cancel")
	}
}

func TestListCategory(t *testing.T) {
	server, cache, _ := newTestServer(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, id := range []string{"p1.jpg", "p3.jpg", "deleted.jpg"} {
		err := cache.Upsert(ctx, &store.Result{
			PhotoID:    id,
			Categories: []store.Category{store.CategoryBlurry},
			AnalyzedAt: now,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	rec := doRequest(t, server, http.MethodGet, "/api/v1/categories/blurry", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Category string          `json:"category"`
		Photos   []photoResponse `json:"photos"`
		Count    int             `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 2 {
		t.Errorf("count = %d, want 2 live photos (deleted.jpg dropped)", resp.Count)
	}
	if resp.Photos[0].ID != "p1.jpg" {
		t.Errorf("photos[0] = %q, want newest first", resp.Photos[0].ID)
	}
}

func TestListCategoryUnknown(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/categories/nonsense", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown category = %d, want 400", rec.Code)
	}
}

func TestListDuplicates(t *testing.T) {
	server, cache, _ := newTestServer(t)
	ctx := context.Background()
	now := time.Now().UTC()

	prints := map[string][]float32{
		"p1.jpg": {1, 0, 0, 0},
		"p2.jpg": {0.99, 0.02, 0, 0},
		"p3.jpg": {0, 1, 0, 0},
	}
	for id, print := range prints {
		if err := cache.Upsert(ctx, &store.Result{PhotoID: id, FeaturePrint: print, AnalyzedAt: now}); err != nil {
			t.Fatal(err)
		}
	}

	rec := doRequest(t, server, http.MethodGet, "/api/v1/duplicates", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("duplicates = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Groups [][]string `json:"groups"`
		Count  int        `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 1 || len(resp.Groups[0]) != 2 {
		t.Errorf("groups = %v, want one pair", resp.Groups)
	}
}

func TestFindSimilar(t *testing.T) {
	server, cache, _ := newTestServer(t)
	ctx := context.Background()
	now := time.Now().UTC()

	prints := map[string][]float32{
		"p1.jpg": {1, 0, 0, 0},
		"p2.jpg": {0.95, 0.1, 0, 0},
	}
	for id, print := range prints {
		if err := cache.Upsert(ctx, &store.Result{PhotoID: id, FeaturePrint: print, AnalyzedAt: now}); err != nil {
			t.Fatal(err)
		}
	}

	rec := doRequest(t, server, http.MethodPost, "/api/v1/photos/similar", `{"photo_id":"p1.jpg"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("similar = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Matches []store.SimilarMatch `json:"matches"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Matches) != 1 || resp.Matches[0].PhotoID != "p2.jpg" {
		t.Errorf("matches = %v, want p2.jpg", resp.Matches)
	}
}

func TestFindSimilarValidation(t *testing.T) {
	server, _, _ := newTestServer(t)

	if rec := doRequest(t, server, http.MethodPost, "/api/v1/photos/similar", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("missing photo_id = %d, want 400", rec.Code)
	}
	if rec := doRequest(t, server, http.MethodPost, "/api/v1/photos/similar", `{"photo_id":"unknown"}`); rec.Code != http.StatusNotFound {
		t.Errorf("unknown photo = %d, want 404", rec.Code)
	}
	if rec := doRequest(t, server, http.MethodPost, "/api/v1/photos/similar", `not json`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad body = %d, want 400", rec.Code)
	}
}

func TestStats(t *testing.T) {
	server, cache, _ := newTestServer(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, id := range []string{"p1.jpg", "p2.jpg"} {
		err := cache.Upsert(ctx, &store.Result{
			PhotoID:    id,
			Categories: []store.Category{store.CategoryScenery},
			AnalyzedAt: now,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	rec := doRequest(t, server, http.MethodGet, "/api/v1/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("stats = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		AnalyzedPhotos int            `json:"analyzed_photos"`
		ByCategory     map[string]int `json:"by_category"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.AnalyzedPhotos != 2 {
		t.Errorf("analyzed_photos = %d, want 2", resp.AnalyzedPhotos)
	}
	if resp.ByCategory["scenery"] != 2 {
		t.Errorf("by_category = %v, want scenery 2", resp.ByCategory)
	}
}

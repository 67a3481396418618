package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mholecy/photo-triage/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "cache.db"), nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResult(photoID string, analyzedAt time.Time) *store.Result {
	return &store.Result{
		PhotoID:         photoID,
		Categories:      []store.Category{store.CategoryBlurry, store.CategoryScenery},
		BlurScore:       0.85,
		BrightnessScore: 0.42,
		HasQRCode:       true,
		SceneLabels:     []string{"sky", "ocean"},
		FeaturePrint:    []float32{0.1, -0.2, 0.3, 0.4},
		AnalyzedAt:      analyzedAt,
	}
}

func TestUpsertGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	analyzedAt := time.Date(2026, 8, 1, 3, 0, 0, 0, time.UTC)

	want := sampleResult("2026/IMG_0001.jpg", analyzedAt)
	if err := s.Upsert(ctx, want); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	got, err := s.Get(ctx, want.PhotoID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got == nil {
		t.Fatal("Get() = nil after Upsert")
	}

	if got.BlurScore != want.BlurScore || got.BrightnessScore != want.BrightnessScore {
		t.Errorf("scores = %v/%v, want %v/%v", got.BlurScore, got.BrightnessScore, want.BlurScore, want.BrightnessScore)
	}
	if !got.HasQRCode {
		t.Error("HasQRCode lost in round trip")
	}
	if len(got.SceneLabels) != 2 || got.SceneLabels[0] != "sky" {
		t.Errorf("SceneLabels = %v, want %v", got.SceneLabels, want.SceneLabels)
	}
	if len(got.FeaturePrint) != 4 || got.FeaturePrint[1] != -0.2 {
		t.Errorf("FeaturePrint = %v, want %v", got.FeaturePrint, want.FeaturePrint)
	}
	if !got.AnalyzedAt.Equal(analyzedAt) {
		t.Errorf("AnalyzedAt = %v, want %v", got.AnalyzedAt, analyzedAt)
	}
	if !got.HasCategory(store.CategoryBlurry) || !got.HasCategory(store.CategoryScenery) {
		t.Errorf("Categories = %v, want blurry and scenery", got.Categories)
	}
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got != nil {
		t.Errorf("Get(absent) = %v, want nil", got)
	}
}

func TestUpsertReplacesCategories(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	r := sampleResult("p1", now)
	if err := s.Upsert(ctx, r); err != nil {
		t.Fatal(err)
	}

	// Re-analysis drops the blurry tag.
	r.Categories = []store.Category{store.CategoryScenery}
	if err := s.Upsert(ctx, r); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if got.HasCategory(store.CategoryBlurry) {
		t.Errorf("Categories = %v, blurry should have been replaced", got.Categories)
	}
}

func TestMissing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, id := range []string{"a", "c"} {
		if err := s.Upsert(ctx, &store.Result{PhotoID: id, AnalyzedAt: now}); err != nil {
			t.Fatal(err)
		}
	}

	missing, err := s.Missing(ctx, []string{"a", "b", "c", "d"})
	if err != nil {
		t.Fatalf("Missing() error: %v", err)
	}
	if len(missing) != 2 || missing[0] != "b" || missing[1] != "d" {
		t.Errorf("Missing() = %v, want [b d] in input order", missing)
	}

	missing, err = s.Missing(ctx, nil)
	if err != nil || len(missing) != 0 {
		t.Errorf("Missing(nil) = %v, %v, want empty", missing, err)
	}
}

func TestIDsMatching(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	rows := []*store.Result{
		{PhotoID: "p1", Categories: []store.Category{store.CategoryBlurry}, AnalyzedAt: base},
		{PhotoID: "p2", Categories: []store.Category{store.CategoryScenery}, AnalyzedAt: base.Add(time.Second)},
		{PhotoID: "p3", Categories: []store.Category{store.CategoryBlurry}, AnalyzedAt: base.Add(2 * time.Second)},
	}
	if err := s.UpsertBatch(ctx, rows); err != nil {
		t.Fatal(err)
	}

	ids, err := s.IDsMatching(ctx, store.CategoryBlurry)
	if err != nil {
		t.Fatalf("IDsMatching() error: %v", err)
	}
	if len(ids) != 2 || ids[0] != "p1" || ids[1] != "p3" {
		t.Errorf("IDsMatching(blurry) = %v, want [p1 p3]", ids)
	}

	ids, err = s.IDsMatching(ctx, store.CategoryQRCode)
	if err != nil || len(ids) != 0 {
		t.Errorf("IDsMatching(qr_code) = %v, %v, want empty", ids, err)
	}
}

func TestIDsWithFeaturePrintOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	rows := []*store.Result{
		{PhotoID: "newer", FeaturePrint: []float32{1}, AnalyzedAt: base.Add(time.Hour)},
		{PhotoID: "older", FeaturePrint: []float32{1}, AnalyzedAt: base},
		{PhotoID: "noprint", AnalyzedAt: base.Add(2 * time.Hour)},
		{PhotoID: "b-same-time", FeaturePrint: []float32{1}, AnalyzedAt: base},
	}
	if err := s.UpsertBatch(ctx, rows); err != nil {
		t.Fatal(err)
	}

	ids, err := s.IDsWithFeaturePrint(ctx)
	if err != nil {
		t.Fatalf("IDsWithFeaturePrint() error: %v", err)
	}

	want := []string{"b-same-time", "older", "newer"}
	if len(ids) != len(want) {
		t.Fatalf("IDsWithFeaturePrint() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestStatistics(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	rows := []*store.Result{
		{PhotoID: "p1", Categories: []store.Category{store.CategoryBlurry, store.CategoryUnwanted}, AnalyzedAt: now},
		{PhotoID: "p2", Categories: []store.Category{store.CategoryBlurry}, AnalyzedAt: now},
		{PhotoID: "p3", AnalyzedAt: now},
	}
	if err := s.UpsertBatch(ctx, rows); err != nil {
		t.Fatal(err)
	}

	stats, err := s.Statistics(ctx)
	if err != nil {
		t.Fatalf("Statistics() error: %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("Total = %d, want 3", stats.Total)
	}
	if stats.ByCategory[store.CategoryBlurry] != 2 {
		t.Errorf("blurry count = %d, want 2", stats.ByCategory[store.CategoryBlurry])
	}
	if stats.ByCategory[store.CategoryUnwanted] != 1 {
		t.Errorf("unwanted count = %d, want 1", stats.ByCategory[store.CategoryUnwanted])
	}
}

func TestAddRemoveCategory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, id := range []string{"p1", "p2"} {
		if err := s.Upsert(ctx, &store.Result{PhotoID: id, AnalyzedAt: now}); err != nil {
			t.Fatal(err)
		}
	}

	// "ghost" has no cached entry and must be skipped, not created.
	if err := s.AddCategory(ctx, []string{"p1", "p2", "ghost"}, store.CategoryDuplicate); err != nil {
		t.Fatalf("AddCategory() error: %v", err)
	}

	ids, err := s.IDsMatching(ctx, store.CategoryDuplicate)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Errorf("IDsMatching(duplicate) = %v, want [p1 p2]", ids)
	}

	if err := s.RemoveCategory(ctx, store.CategoryDuplicate); err != nil {
		t.Fatalf("RemoveCategory() error: %v", err)
	}
	ids, err = s.IDsMatching(ctx, store.CategoryDuplicate)
	if err != nil || len(ids) != 0 {
		t.Errorf("after RemoveCategory: IDsMatching = %v, %v, want empty", ids, err)
	}
}

func TestInvalidateStale(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	analyzedAt := time.Date(2026, 8, 1, 3, 0, 0, 0, time.UTC)

	if err := s.Upsert(ctx, &store.Result{PhotoID: "p1", AnalyzedAt: analyzedAt}); err != nil {
		t.Fatal(err)
	}

	// Photo untouched since analysis: entry stays.
	if err := s.InvalidateStale(ctx, "p1", analyzedAt.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Get(ctx, "p1"); got == nil {
		t.Fatal("fresh entry was invalidated")
	}

	// Photo edited after analysis: entry goes.
	if err := s.InvalidateStale(ctx, "p1", analyzedAt.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Get(ctx, "p1"); got != nil {
		t.Error("stale entry survived invalidation")
	}
}

func TestClearAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := s.Upsert(ctx, sampleResult("p1", now)); err != nil {
		t.Fatal(err)
	}
	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll() error: %v", err)
	}

	stats, err := s.Statistics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 0 {
		t.Errorf("Total after ClearAll = %d, want 0", stats.Total)
	}
	if got, _ := s.Get(ctx, "p1"); got != nil {
		t.Error("entry survived ClearAll")
	}
}

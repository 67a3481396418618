package scan

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mholecy/photo-triage/internal/photos"
	"github.com/mholecy/photo-triage/internal/pressure"
	"github.com/mholecy/photo-triage/internal/store/mock"
)

func newTestOrchestrator(source *fakeSource, cache *mock.Store, oracle pressure.Oracle) *Orchestrator {
	analyzer, _ := newTestAnalyzer(source, cache)
	o := NewOrchestrator(source, cache, analyzer, oracle, discardLogger())
	o.pauseInterval = 5 * time.Millisecond
	o.yieldInterval = time.Millisecond
	return o
}

func TestRunAnalyzesWholeLibrary(t *testing.T) {
	source := newLibrary(45) // spans multiple batches
	cache := mock.New()
	o := newTestOrchestrator(source, cache, &pressure.Static{})

	if err := o.Run(context.Background(), photos.Filter{}, nil); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if cache.Len() != 45 {
		t.Errorf("cache holds %d entries after scan, want 45", cache.Len())
	}

	final := o.Progress()
	if final.IsScanning {
		t.Error("still scanning after Run returned")
	}
}

func TestRunRespectsFilter(t *testing.T) {
	source := newLibrary(5)
	cache := mock.New()
	o := newTestOrchestrator(source, cache, &pressure.Static{})

	filter := photos.Filter{ExcludeIDs: []string{source.refs[0].ID, source.refs[1].ID}}
	if err := o.Run(context.Background(), filter, nil); err != nil {
		t.Fatal(err)
	}

	if cache.Len() != 3 {
		t.Errorf("cache holds %d entries, want 3 after exclusions", cache.Len())
	}
}

func TestRunReportsProgress(t *testing.T) {
	source := newLibrary(25)
	cache := mock.New()
	o := newTestOrchestrator(source, cache, &pressure.Static{})

	var snapshots []Progress
	err := o.Run(context.Background(), photos.Filter{}, func(p Progress) {
		snapshots = append(snapshots, p)
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(snapshots) == 0 {
		t.Fatal("no progress updates delivered")
	}

	var sawTotal, sawComplete bool
	for _, p := range snapshots {
		if p.TotalPhotos == 25 {
			sawTotal = true
		}
		if p.AnalyzedPhotos == 25 {
			sawComplete = true
		}
		if p.AnalyzedPhotos > p.TotalPhotos {
			t.Errorf("analyzed %d > total %d", p.AnalyzedPhotos, p.TotalPhotos)
		}
	}
	if !sawTotal {
		t.Error("no snapshot carried the full total")
	}
	if !sawComplete {
		t.Error("no snapshot showed completion")
	}
}

func TestRunSkipsCachedPhotos(t *testing.T) {
	source := newLibrary(10)
	cache := mock.New()
	o := newTestOrchestrator(source, cache, &pressure.Static{})
	ctx := context.Background()

	if err := o.Run(ctx, photos.Filter{}, nil); err != nil {
		t.Fatal(err)
	}

	// Second run: everything cached, total should be zero.
	var last Progress
	err := o.Run(ctx, photos.Filter{}, func(p Progress) { last = p })
	if err != nil {
		t.Fatal(err)
	}
	if last.TotalPhotos != 0 {
		t.Errorf("second scan total = %d, want 0 (fully cached library)", last.TotalPhotos)
	}
}

// settableOracle is an oracle whose answers can be flipped mid-scan without
// racing the scan goroutine.
type settableOracle struct {
	thermal atomic.Int32
}

func (s *settableOracle) ThermalState() pressure.ThermalState {
	return pressure.ThermalState(s.thermal.Load())
}

func (s *settableOracle) MemoryPressure() bool { return false }

func TestScanPausesWhileWarm(t *testing.T) {
	source := newLibrary(30)
	cache := mock.New()
	oracle := &settableOracle{}
	oracle.thermal.Store(int32(pressure.ThermalSerious))
	o := newTestOrchestrator(source, cache, oracle)

	o.Start(context.Background(), photos.Filter{})

	// The scan should reach the paused phase and hold there.
	deadline := time.After(2 * time.Second)
	for o.Progress().Phase != PhasePaused {
		select {
		case <-deadline:
			t.Fatalf("scan never paused, phase = %q", o.Progress().Phase)
		case <-time.After(time.Millisecond):
		}
	}
	if cache.Len() != 0 {
		t.Errorf("cache holds %d entries while paused before the first batch", cache.Len())
	}

	// Device cools down: the scan resumes and finishes.
	oracle.thermal.Store(int32(pressure.ThermalNominal))
	deadline = time.After(5 * time.Second)
	for cache.Len() != 30 {
		select {
		case <-deadline:
			t.Fatalf("scan did not finish after cooldown, cache = %d", cache.Len())
		case <-time.After(time.Millisecond):
		}
	}
	o.Cancel()
}

func TestCancelStopsScan(t *testing.T) {
	source := newLibrary(200)
	cache := mock.New()
	o := newTestOrchestrator(source, cache, &pressure.Static{})

	o.Start(context.Background(), photos.Filter{})
	o.Cancel()

	if cache.Len() == 200 {
		t.Skip("scan finished before cancellation could land")
	}
	if o.Progress().IsScanning {
		t.Error("IsScanning = true after Cancel returned")
	}
}

func TestStartReplacesRunningScan(t *testing.T) {
	source := newLibrary(40)
	cache := mock.New()
	o := newTestOrchestrator(source, cache, &pressure.Static{})
	ctx := context.Background()

	o.Start(ctx, photos.Filter{})
	o.Start(ctx, photos.Filter{}) // cancels and replaces the first scan

	deadline := time.After(5 * time.Second)
	for cache.Len() != 40 {
		select {
		case <-deadline:
			t.Fatalf("replacement scan did not finish, cache = %d", cache.Len())
		case <-time.After(time.Millisecond):
		}
	}
	o.Cancel()
}

func TestMemoryPressureCancelsScan(t *testing.T) {
	source := newLibrary(500)
	cache := mock.New()
	oracle := &pressure.Static{Memory: true}
	o := newTestOrchestrator(source, cache, oracle)

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go o.WatchMemoryPressure(watchCtx, time.Millisecond)

	o.Start(context.Background(), photos.Filter{})

	deadline := time.After(5 * time.Second)
	for o.Progress().IsScanning {
		select {
		case <-deadline:
			t.Fatal("scan survived memory pressure")
		case <-time.After(time.Millisecond):
		}
	}
	if cache.Len() == 500 {
		t.Error("scan completed despite memory pressure")
	}
}

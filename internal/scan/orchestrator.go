package scan

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mholecy/photo-triage/internal/constants"
	"github.com/mholecy/photo-triage/internal/logging"
	"github.com/mholecy/photo-triage/internal/photos"
	"github.com/mholecy/photo-triage/internal/pressure"
	"github.com/mholecy/photo-triage/internal/store"
)

// Scan phases reported through the progress snapshot.
const (
	PhasePreparing = "Preparing scan..."
	PhaseScanning  = "Analyzing photos..."
	PhasePaused    = "Paused (device is warm)"
)

// Orchestrator drives foreground scans: it enumerates the library, feeds
// batches to the analyzer, pauses while the device is warm, and broadcasts
// progress. At most one scan runs at a time; starting a new one cancels and
// waits out the previous.
type Orchestrator struct {
	source   photos.Source
	cache    store.Writer
	analyzer *Analyzer
	oracle   pressure.Oracle
	logger   *slog.Logger
	progress progressState

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	// sleep intervals, shortened in tests
	pauseInterval time.Duration
	yieldInterval time.Duration
}

// NewOrchestrator creates a foreground scan orchestrator.
func NewOrchestrator(source photos.Source, cache store.Writer, analyzer *Analyzer, oracle pressure.Oracle, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		source:        source,
		cache:         cache,
		analyzer:      analyzer,
		oracle:        oracle,
		logger:        logger,
		pauseInterval: constants.ThermalPauseInterval,
		yieldInterval: constants.InterBatchYield,
	}
}

// Progress returns the latest progress snapshot.
func (o *Orchestrator) Progress() Progress {
	return o.progress.Current()
}

// Subscribe returns a channel of progress snapshots for live listeners.
func (o *Orchestrator) Subscribe() chan Progress {
	return o.progress.Subscribe()
}

// Unsubscribe removes a progress listener.
func (o *Orchestrator) Unsubscribe(ch chan Progress) {
	o.progress.Unsubscribe(ch)
}

// Start launches a scan in the background. A scan already in flight is
// canceled and fully drained first, so two scans never interleave writes.
func (o *Orchestrator) Start(ctx context.Context, filter photos.Filter) {
	o.Cancel()

	scanCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	o.mu.Lock()
	o.cancel = cancel
	o.done = done
	o.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()
		if err := o.run(scanCtx, filter); err != nil {
			o.logger.Error("scan failed", "error", err)
		}
	}()
}

// Run performs a scan synchronously, for CLI use. The onProgress callback,
// when non-nil, receives every progress update.
func (o *Orchestrator) Run(ctx context.Context, filter photos.Filter, onProgress func(Progress)) error {
	o.Cancel()

	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	defer close(done)

	o.mu.Lock()
	o.cancel = cancel
	o.done = done
	o.mu.Unlock()

	var sub chan Progress
	var drained chan struct{}
	if onProgress != nil {
		sub = o.progress.Subscribe()
		drained = make(chan struct{})
		go func() {
			defer close(drained)
			for p := range sub {
				onProgress(p)
			}
		}()
	}

	err := o.run(scanCtx, filter)

	if sub != nil {
		o.progress.Unsubscribe(sub)
		<-drained
	}
	return err
}

// Cancel stops the in-flight scan, if any, and waits for it to wind down.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	cancel, done := o.cancel, o.done
	o.cancel, o.done = nil, nil
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// run is the scan loop. Cancellation is a normal outcome, not an error.
func (o *Orchestrator) run(ctx context.Context, filter photos.Filter) error {
	runID := uuid.New().String()
	logger := logging.WithRunID(o.logger, runID)

	o.progress.set(Progress{RunID: runID, IsScanning: true, Phase: PhasePreparing})
	defer o.progress.set(Progress{})

	refs, err := o.source.Enumerate(ctx, filter)
	if err != nil {
		return fmt.Errorf("could not enumerate photo library: %w", err)
	}

	ids := make([]string, len(refs))
	byID := make(map[string]photos.Ref, len(refs))
	for i, ref := range refs {
		ids[i] = ref.ID
		byID[ref.ID] = ref
	}

	missing, err := o.cache.Missing(ctx, ids)
	if err != nil {
		return fmt.Errorf("could not compute cache miss set: %w", err)
	}

	logger.Info("scan started", "library", len(refs), "pending", len(missing))
	if len(missing) == 0 {
		return nil
	}

	o.progress.update(func(p *Progress) {
		p.Phase = PhaseScanning
		p.TotalPhotos = len(missing)
	})

	for start := 0; start < len(missing); start += constants.ScanBatchSize {
		if ctx.Err() != nil {
			logger.Info("scan canceled", "analyzed", o.progress.Current().AnalyzedPhotos)
			return nil
		}

		if !o.waitWhileWarm(ctx, logger) {
			logger.Info("scan canceled while paused")
			return nil
		}

		end := min(start+constants.ScanBatchSize, len(missing))
		batch := make([]photos.Ref, 0, end-start)
		for _, id := range missing[start:end] {
			batch = append(batch, byID[id])
		}

		o.analyzer.AnalyzeBatch(ctx, batch)
		o.progress.update(func(p *Progress) {
			p.AnalyzedPhotos += len(batch)
		})

		if end < len(missing) {
			select {
			case <-ctx.Done():
			case <-time.After(o.yieldInterval):
			}
		}
	}

	logger.Info("scan finished", "analyzed", len(missing))
	return nil
}

// waitWhileWarm blocks while the device is thermally throttling, flipping the
// progress phase to paused. Returns false when the context is canceled.
func (o *Orchestrator) waitWhileWarm(ctx context.Context, logger *slog.Logger) bool {
	paused := false
	for o.oracle.ThermalState().Throttling() {
		if !paused {
			paused = true
			logger.Info("scan paused", "thermal_state", o.oracle.ThermalState().String())
			o.progress.update(func(p *Progress) { p.Phase = PhasePaused })
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(o.pauseInterval):
		}
	}

	if paused {
		logger.Info("scan resumed")
		o.progress.update(func(p *Progress) { p.Phase = PhaseScanning })
	}
	return true
}

// WatchMemoryPressure cancels the in-flight foreground scan whenever the
// oracle reports memory pressure. Blocks until ctx is canceled; run it as a
// standing goroutine next to the orchestrator.
func (o *Orchestrator) WatchMemoryPressure(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if o.oracle.MemoryPressure() && o.Progress().IsScanning {
				o.logger.Warn("memory pressure, canceling scan")
				o.Cancel()
			}
		}
	}
}

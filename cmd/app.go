package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mholecy/photo-triage/internal/analysis"
	"github.com/mholecy/photo-triage/internal/classify"
	"github.com/mholecy/photo-triage/internal/config"
	"github.com/mholecy/photo-triage/internal/duplicates"
	"github.com/mholecy/photo-triage/internal/logging"
	"github.com/mholecy/photo-triage/internal/photos"
	"github.com/mholecy/photo-triage/internal/pressure"
	"github.com/mholecy/photo-triage/internal/scan"
	"github.com/mholecy/photo-triage/internal/store"
	"github.com/mholecy/photo-triage/internal/store/postgres"
	"github.com/mholecy/photo-triage/internal/store/sqlite"
)

// app bundles the wired-up engine for a CLI command run.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	cache        store.Store
	source       *photos.Filesystem
	pipeline     *analysis.Pipeline
	analyzer     *scan.Analyzer
	orchestrator *scan.Orchestrator
	clusterer    *duplicates.Clusterer
	oracle       pressure.Oracle
}

// newApp loads configuration and wires up the analysis engine. The returned
// app holds an open cache; callers must Close it.
func newApp(ctx context.Context) (*app, error) {
	cfg := config.Load()
	logger := logging.NewLogger(cfg.Log.Level)

	if cfg.Library.Path == "" {
		return nil, errors.New("PHOTO_LIBRARY_PATH environment variable is required")
	}

	source, err := photos.NewFilesystem(cfg.Library.Path)
	if err != nil {
		return nil, fmt.Errorf("could not open photo library: %w", err)
	}

	cache, err := openCache(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var classifier classify.Provider
	if cfg.Classifier.URL != "" {
		classifier = classify.NewVisionServer(cfg.Classifier.URL, cfg.Classifier.Model)
	} else {
		classifier = classify.NewHeuristic()
	}

	oracle := pressure.NewSystem(cfg.Scan.MemoryFraction)
	tuning := analysis.Tuning{
		BlurThreshold:   cfg.Tuning.Categories.BlurThreshold,
		DarkThreshold:   cfg.Tuning.Categories.DarkThreshold,
		BrightThreshold: cfg.Tuning.Categories.BrightThreshold,
		SceneryKeywords: cfg.Tuning.SceneryKeywords,
	}
	pipeline := analysis.New(classifier, tuning, logging.WithComponent(logger, "analysis"))
	analyzer := scan.NewAnalyzer(source, cache, pipeline, logging.WithComponent(logger, "analyzer"))
	orchestrator := scan.NewOrchestrator(source, cache, analyzer, oracle, logging.WithComponent(logger, "scan"))
	clusterer := duplicates.New(cache, cfg.Tuning.Categories.DuplicateDistance, logging.WithComponent(logger, "duplicates"))

	return &app{
		cfg:          cfg,
		logger:       logger,
		cache:        cache,
		source:       source,
		pipeline:     pipeline,
		analyzer:     analyzer,
		orchestrator: orchestrator,
		clusterer:    clusterer,
		oracle:       oracle,
	}, nil
}

// people returns the external people album, or nil when none is configured.
func (a *app) people() photos.People {
	if a.cfg.Library.PeopleDir == "" {
		return nil
	}
	return photos.NewFolderAlbum(a.cfg.Library.PeopleDir)
}

// Close releases the cache backend.
func (a *app) Close() {
	if err := a.cache.Close(); err != nil {
		a.logger.Warn("could not close cache", "error", err)
	}
}

// openCache selects the cache backend: PostgreSQL when DATABASE_URL is set,
// otherwise the on-device SQLite file.
func openCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	if cfg.Cache.DatabaseURL != "" {
		pool, err := postgres.NewPool(&cfg.Cache)
		if err != nil {
			return nil, fmt.Errorf("could not connect to PostgreSQL: %w", err)
		}
		if err := pool.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("could not migrate database: %w", err)
		}
		return postgres.NewStore(pool), nil
	}

	cache, err := sqlite.New(cfg.Cache.Path, logging.WithComponent(logger, "sqlite"))
	if err != nil {
		return nil, fmt.Errorf("could not open cache at %s: %w", logging.SanitizePath(cfg.Cache.Path), err)
	}
	logger.Debug("cache opened", "path", logging.SanitizePath(cfg.Cache.Path))
	return cache, nil
}

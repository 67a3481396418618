// Package sqlite implements the analysis result cache on an embedded SQLite
// database. This is the primary on-device backend: a single file, WAL mode,
// one writer connection.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mholecy/photo-triage/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a SQLite-backed store.Store.
type Store struct {
	conn   *sql.DB
	logger *slog.Logger
}

// New opens (and if needed creates) the cache database at dbPath and applies
// pending migrations.
func New(dbPath string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// modernc sqlite serializes access per connection; a single connection
	// is the write-serialization point required by the cache contract.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping cache database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	s := &Store{conn: conn, logger: logger}

	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	if _, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS _migrations (
			name       TEXT PRIMARY KEY,
			applied_at INTEGER NOT NULL DEFAULT (unixepoch())
		)
	`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()

		var applied int
		if err := s.conn.QueryRow("SELECT COUNT(*) FROM _migrations WHERE name = ?", name).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if applied > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.conn.Exec(string(content)); err != nil {
			return fmt.Errorf("execute migration %s: %w", name, err)
		}
		if _, err := s.conn.Exec("INSERT INTO _migrations (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}

		if s.logger != nil {
			s.logger.Info("applied migration", "name", name)
		}
	}

	return nil
}

// Get retrieves a result by photo ID, returns nil if not found.
func (s *Store) Get(ctx context.Context, photoID string) (*store.Result, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT photo_id, blur_score, brightness_score, has_qr_code, scene_labels, feature_print, analyzed_at
		FROM results
		WHERE photo_id = ?
	`, photoID)

	result, err := scanResult(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query result: %w", err)
	}

	if err := s.loadCategories(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (*store.Result, error) {
	var r store.Result
	var hasQR int
	var labelsJSON string
	var print []byte
	var analyzedAt int64

	err := row.Scan(&r.PhotoID, &r.BlurScore, &r.BrightnessScore, &hasQR, &labelsJSON, &print, &analyzedAt)
	if err != nil {
		return nil, err
	}

	r.HasQRCode = hasQR != 0
	if err := json.Unmarshal([]byte(labelsJSON), &r.SceneLabels); err != nil {
		return nil, fmt.Errorf("decode scene labels: %w", err)
	}
	r.FeaturePrint = store.DecodeFeaturePrint(print)
	r.AnalyzedAt = time.Unix(0, analyzedAt).UTC()
	return &r, nil
}

func (s *Store) loadCategories(ctx context.Context, r *store.Result) error {
	rows, err := s.conn.QueryContext(ctx,
		"SELECT category FROM result_categories WHERE photo_id = ? ORDER BY rowid", r.PhotoID)
	if err != nil {
		return fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return fmt.Errorf("scan category: %w", err)
		}
		r.Categories = append(r.Categories, store.Category(c))
	}
	return rows.Err()
}

// Missing returns the subset of photoIDs with no cached entry, in input order.
func (s *Store) Missing(ctx context.Context, photoIDs []string) ([]string, error) {
	if len(photoIDs) == 0 {
		return []string{}, nil
	}

	// Chunked lookups keep the IN list under SQLite's parameter limit.
	present := make(map[string]struct{}, len(photoIDs))
	const chunkSize = 500
	for start := 0; start < len(photoIDs); start += chunkSize {
		end := min(start+chunkSize, len(photoIDs))
		chunk := photoIDs[start:end]

		query := "SELECT photo_id FROM results WHERE photo_id IN (?" +
			strings.Repeat(",?", len(chunk)-1) + ")"
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}

		rows, err := s.conn.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("query present ids: %w", err)
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan photo id: %w", err)
			}
			present[id] = struct{}{}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("iterate present ids: %w", err)
		}
		rows.Close()
	}

	missing := []string{}
	for _, id := range photoIDs {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// IDsMatching returns all photo IDs tagged with the category.
func (s *Store) IDsMatching(ctx context.Context, category store.Category) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT rc.photo_id
		FROM result_categories rc
		JOIN results r ON r.photo_id = rc.photo_id
		WHERE rc.category = ?
		ORDER BY r.analyzed_at, rc.photo_id
	`, string(category))
	if err != nil {
		return nil, fmt.Errorf("query matching ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan photo id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// IDsWithFeaturePrint returns photo IDs with a stored feature print, ordered
// by analysis time then photo ID.
func (s *Store) IDsWithFeaturePrint(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT photo_id FROM results
		WHERE feature_print IS NOT NULL
		ORDER BY analyzed_at, photo_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query feature print ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan photo id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Statistics counts rows and per-category membership with count queries.
func (s *Store) Statistics(ctx context.Context) (*store.Statistics, error) {
	stats := &store.Statistics{ByCategory: make(map[store.Category]int)}

	if err := s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM results").Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("count results: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx,
		"SELECT category, COUNT(*) FROM result_categories GROUP BY category")
	if err != nil {
		return nil, fmt.Errorf("count categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c string
		var n int
		if err := rows.Scan(&c, &n); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		stats.ByCategory[store.Category(c)] = n
	}
	return stats, rows.Err()
}

// Upsert inserts or replaces a single result by photo ID.
func (s *Store) Upsert(ctx context.Context, result *store.Result) error {
	return s.UpsertBatch(ctx, []*store.Result{result})
}

// UpsertBatch inserts or replaces results inside one transaction, so readers
// observe either all rows of the batch or none of them.
func (s *Store) UpsertBatch(ctx context.Context, results []*store.Result) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	for _, r := range results {
		labelsJSON, err := json.Marshal(r.SceneLabels)
		if err != nil {
			return fmt.Errorf("encode scene labels: %w", err)
		}
		if r.SceneLabels == nil {
			labelsJSON = []byte("[]")
		}

		hasQR := 0
		if r.HasQRCode {
			hasQR = 1
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO results (photo_id, blur_score, brightness_score, has_qr_code, scene_labels, feature_print, analyzed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(photo_id) DO UPDATE SET
				blur_score = excluded.blur_score,
				brightness_score = excluded.brightness_score,
				has_qr_code = excluded.has_qr_code,
				scene_labels = excluded.scene_labels,
				feature_print = excluded.feature_print,
				analyzed_at = excluded.analyzed_at
		`, r.PhotoID, r.BlurScore, r.BrightnessScore, hasQR, string(labelsJSON),
			store.EncodeFeaturePrint(r.FeaturePrint), r.AnalyzedAt.UnixNano()); err != nil {
			return fmt.Errorf("upsert result %s: %w", r.PhotoID, err)
		}

		if _, err := tx.ExecContext(ctx,
			"DELETE FROM result_categories WHERE photo_id = ?", r.PhotoID); err != nil {
			return fmt.Errorf("clear categories %s: %w", r.PhotoID, err)
		}
		for _, c := range r.Categories {
			if _, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO result_categories (photo_id, category) VALUES (?, ?)",
				r.PhotoID, string(c)); err != nil {
				return fmt.Errorf("insert category %s/%s: %w", r.PhotoID, c, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// AddCategory tags every listed photo's cached result with the category.
// IDs without a cached entry are skipped.
func (s *Store) AddCategory(ctx context.Context, photoIDs []string, category store.Category) error {
	if len(photoIDs) == 0 {
		return nil
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tag: %w", err)
	}
	defer tx.Rollback()

	for _, id := range photoIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO result_categories (photo_id, category)
			SELECT photo_id, ? FROM results WHERE photo_id = ?
		`, string(category), id); err != nil {
			return fmt.Errorf("tag %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tag: %w", err)
	}
	return nil
}

// RemoveCategory strips the category from every cached result.
func (s *Store) RemoveCategory(ctx context.Context, category store.Category) error {
	if _, err := s.conn.ExecContext(ctx,
		"DELETE FROM result_categories WHERE category = ?", string(category)); err != nil {
		return fmt.Errorf("remove category %s: %w", category, err)
	}
	return nil
}

// InvalidateStale deletes the entry if the photo was modified after it was
// analyzed.
func (s *Store) InvalidateStale(ctx context.Context, photoID string, libraryModTime time.Time) error {
	if _, err := s.conn.ExecContext(ctx,
		"DELETE FROM results WHERE photo_id = ? AND analyzed_at < ?",
		photoID, libraryModTime.UnixNano()); err != nil {
		return fmt.Errorf("invalidate %s: %w", photoID, err)
	}
	return nil
}

// ClearAll deletes every cached entry.
func (s *Store) ClearAll(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, "DELETE FROM results"); err != nil {
		return fmt.Errorf("clear results: %w", err)
	}
	return nil
}

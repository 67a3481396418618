package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/mholecy/photo-triage/internal/store"
)

// Store is a PostgreSQL-backed store.Store.
type Store struct {
	pool *Pool
}

// NewStore creates a result store on top of an initialized pool.
func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Get retrieves a result by photo ID, returns nil if not found.
func (s *Store) Get(ctx context.Context, photoID string) (*store.Result, error) {
	query := `
		SELECT photo_id, blur_score, brightness_score, has_qr_code, scene_labels, feature_print, analyzed_at
		FROM results
		WHERE photo_id = $1
	`

	var r store.Result
	var labels pq.StringArray
	var vec *pgvector.Vector

	err := s.pool.db.QueryRowContext(ctx, query, photoID).Scan(
		&r.PhotoID,
		&r.BlurScore,
		&r.BrightnessScore,
		&r.HasQRCode,
		&labels,
		&vec,
		&r.AnalyzedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query result: %w", err)
	}

	r.SceneLabels = labels
	if vec != nil {
		r.FeaturePrint = vec.Slice()
	}
	r.AnalyzedAt = r.AnalyzedAt.UTC()

	if err := s.loadCategories(ctx, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) loadCategories(ctx context.Context, r *store.Result) error {
	rows, err := s.pool.db.QueryContext(ctx,
		"SELECT category FROM result_categories WHERE photo_id = $1 ORDER BY category", r.PhotoID)
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

	rows, err := s.pool.db.QueryContext(ctx,
		"SELECT photo_id FROM results WHERE photo_id = ANY($1)", pq.Array(photoIDs))
	if err != nil {
		return nil, fmt.Errorf("query present ids: %w", err)
	}
	defer rows.Close()

	present := make(map[string]struct{}, len(photoIDs))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan photo id: %w", err)
		}
		present[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate present ids: %w", err)
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
	rows, err := s.pool.db.QueryContext(ctx, `
		SELECT rc.photo_id
		FROM result_categories rc
		JOIN results r ON r.photo_id = rc.photo_id
		WHERE rc.category = $1
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
	rows, err := s.pool.db.QueryContext(ctx, `
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

	if err := s.pool.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM results").Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("count results: %w", err)
	}

	rows, err := s.pool.db.QueryContext(ctx,
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

// UpsertBatch inserts or replaces results inside one transaction.
func (s *Store) UpsertBatch(ctx context.Context, results []*store.Result) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := s.pool.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	for _, r := range results {
		var vec any
		if len(r.FeaturePrint) > 0 {
			v := pgvector.NewVector(r.FeaturePrint)
			vec = v
		}

		labels := r.SceneLabels
		if labels == nil {
			labels = []string{}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO results (photo_id, blur_score, brightness_score, has_qr_code, scene_labels, feature_print, analyzed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (photo_id) DO UPDATE SET
				blur_score = EXCLUDED.blur_score,
				brightness_score = EXCLUDED.brightness_score,
				has_qr_code = EXCLUDED.has_qr_code,
				scene_labels = EXCLUDED.scene_labels,
				feature_print = EXCLUDED.feature_print,
				analyzed_at = EXCLUDED.analyzed_at
		`, r.PhotoID, r.BlurScore, r.BrightnessScore, r.HasQRCode,
			pq.Array(labels), vec, r.AnalyzedAt); err != nil {
			return fmt.Errorf("upsert result %s: %w", r.PhotoID, err)
		}

		if _, err := tx.ExecContext(ctx,
			"DELETE FROM result_categories WHERE photo_id = $1", r.PhotoID); err != nil {
			return fmt.Errorf("clear categories %s: %w", r.PhotoID, err)
		}
		for _, c := range r.Categories {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO result_categories (photo_id, category)
				VALUES ($1, $2)
				ON CONFLICT DO NOTHING
			`, r.PhotoID, string(c)); err != nil {
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
func (s *Store) AddCategory(ctx context.Context, photoIDs []string, category store.Category) error {
	if len(photoIDs) == 0 {
		return nil
	}
	if _, err := s.pool.db.ExecContext(ctx, `
		INSERT INTO result_categories (photo_id, category)
		SELECT photo_id, $1 FROM results WHERE photo_id = ANY($2)
		ON CONFLICT DO NOTHING
	`, string(category), pq.Array(photoIDs)); err != nil {
		return fmt.Errorf("tag category %s: %w", category, err)
	}
	return nil
}

// RemoveCategory strips the category from every cached result.
func (s *Store) RemoveCategory(ctx context.Context, category store.Category) error {
	if _, err := s.pool.db.ExecContext(ctx,
		"DELETE FROM result_categories WHERE category = $1", string(category)); err != nil {
		return fmt.Errorf("remove category %s: %w", category, err)
	}
	return nil
}

// InvalidateStale deletes the entry if the photo was modified after analysis.
func (s *Store) InvalidateStale(ctx context.Context, photoID string, libraryModTime time.Time) error {
	if _, err := s.pool.db.ExecContext(ctx,
		"DELETE FROM results WHERE photo_id = $1 AND analyzed_at < $2",
		photoID, libraryModTime); err != nil {
		return fmt.Errorf("invalidate %s: %w", photoID, err)
	}
	return nil
}

// ClearAll deletes every cached entry.
func (s *Store) ClearAll(ctx context.Context) error {
	if _, err := s.pool.db.ExecContext(ctx, "DELETE FROM results"); err != nil {
		return fmt.Errorf("clear results: %w", err)
	}
	return nil
}

// FindSimilar returns up to limit photo IDs whose feature prints are within
// maxDistance of the query, nearest first, using the pgvector cosine operator.
func (s *Store) FindSimilar(ctx context.Context, query []float32, limit int, maxDistance float64) ([]string, []float64, error) {
	vec := pgvector.NewVector(query)

	rows, err := s.pool.db.QueryContext(ctx, `
		SELECT photo_id, feature_print <=> $1 AS distance
		FROM results
		WHERE feature_print IS NOT NULL
		  AND feature_print <=> $1 <= $2
		ORDER BY distance
		LIMIT $3
	`, vec, maxDistance, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("similarity query: %w", err)
	}
	defer rows.Close()

	var ids []string
	var distances []float64
	for rows.Next() {
		var id string
		var d float64
		if err := rows.Scan(&id, &d); err != nil {
			return nil, nil, fmt.Errorf("scan similarity row: %w", err)
		}
		ids = append(ids, id)
		distances = append(distances, d)
	}
	return ids, distances, rows.Err()
}

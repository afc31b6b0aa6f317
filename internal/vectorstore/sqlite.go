package vectorstore

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
)

// SQLiteStore implements Store on a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings.
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// WAL keeps readers unblocked during batch commits.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

// NewSQLiteStore opens (creating if needed) the store at dbPath and applies
// schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	if err := applyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Upsert writes all records as one transaction. The id uniqueness
// constraint makes re-upserting an existing id overwrite in place rather
// than duplicate. A failure rolls back the whole set so the caller's batch
// commit stays all-or-nothing.
func (s *SQLiteStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrWrite, err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `
		INSERT INTO code_chunks (id, content, category, origin_path, vector, dimension, provider, model)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			category = excluded.category,
			origin_path = excluded.origin_path,
			vector = excluded.vector,
			dimension = excluded.dimension,
			provider = excluded.provider,
			model = excluded.model
	`
	for _, rec := range records {
		if _, err := tx.ExecContext(ctx, query,
			rec.ID, rec.Text, rec.Category, rec.OriginPath,
			serializeVector(rec.Vector), len(rec.Vector), rec.Provider, rec.Model); err != nil {
			return fmt.Errorf("%w: upsert %s: %v", ErrWrite, rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrWrite, err)
	}
	return nil
}

// ListIDs returns the store's full key set.
func (s *SQLiteStore) ListIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM code_chunks`)
	if err != nil {
		return nil, fmt.Errorf("list ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// SortedIDs returns all ids in lexical order, for inventory output.
func (s *SQLiteStore) SortedIDs(ctx context.Context) ([]string, error) {
	set, err := s.ListIDs(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Count returns the number of stored records.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM code_chunks`).Scan(&n)
	return n, err
}

// QuerySimilar returns the k records most similar to vector by cosine
// similarity, ties broken by id ordering. When the sqlite-vec extension is
// available the ranking runs in SQL; otherwise all candidate vectors are
// scored in Go.
func (s *SQLiteStore) QuerySimilar(ctx context.Context, vector []float32, k int) ([]Match, error) {
	if k <= 0 {
		return []Match{}, nil
	}
	if VectorExtensionAvailable {
		return s.querySimilarOptimized(ctx, vector, k)
	}
	return s.querySimilarFallback(ctx, vector, k)
}

// querySimilarOptimized computes distance at the database layer.
// vec_distance_cosine returns distance (lower is better); converting to
// 1 - distance keeps scores aligned with the fallback path.
func (s *SQLiteStore) querySimilarOptimized(ctx context.Context, vector []float32, k int) ([]Match, error) {
	const query = `
		SELECT id, content, category, origin_path,
		       1.0 - vec_distance_cosine(vector, ?) AS similarity
		FROM code_chunks
		WHERE dimension = ?
		ORDER BY similarity DESC, id ASC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, serializeVector(vector), len(vector), k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]Match, 0, k)
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.Text, &m.Category, &m.OriginPath, &m.Score); err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

// querySimilarFallback scores every stored vector in Go.
func (s *SQLiteStore) querySimilarFallback(ctx context.Context, vector []float32, k int) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, category, origin_path, vector FROM code_chunks WHERE dimension = ?`,
		len(vector))
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var candidates []Match
	for rows.Next() {
		var m Match
		var blob []byte
		if err := rows.Scan(&m.ID, &m.Text, &m.Category, &m.OriginPath, &blob); err != nil {
			return nil, err
		}
		m.Score = cosineSimilarity(vector, deserializeVector(blob))
		candidates = append(candidates, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ID < candidates[j].ID
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	return candidates[:k], nil
}

package memory

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite.
// Records are stored as JSON payloads keyed by session or project;
// similarity search is performed in application memory using cosine
// similarity, which is suitable for per-project item counts (< 10K).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore connected to the given database path.
// The path should be a file path (e.g., "./data.db") or ":memory:" for an
// in-memory database. It opens the connection and verifies connectivity
// with a ping.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	// Enable WAL mode and foreign keys for better performance and data integrity
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// InitSchema creates the necessary tables if they don't exist.
// This should be called after creating a new SQLiteStore.
func (s *SQLiteStore) InitSchema(ctx context.Context) error {
	schema := `
		-- One record per extracted session, keyed by session id
		CREATE TABLE IF NOT EXISTS extractions (
			session_id TEXT PRIMARY KEY,
			project TEXT NOT NULL,
			extracted_at TEXT NOT NULL,
			payload TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_extractions_project ON extractions(project);

		-- Current consolidated memory, one row per project
		CREATE TABLE IF NOT EXISTS project_memory (
			project TEXT PRIMARY KEY,
			generated_at TEXT NOT NULL,
			payload TEXT NOT NULL
		);

		-- Archived memory versions, retained on every overwrite
		CREATE TABLE IF NOT EXISTS memory_history (
			snapshot_id TEXT PRIMARY KEY,
			project TEXT NOT NULL,
			archived_at TEXT NOT NULL,
			payload TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_history_project ON memory_history(project);

		-- Generated artifact bundles
		CREATE TABLE IF NOT EXISTS bundles (
			run_id TEXT PRIMARY KEY,
			project TEXT NOT NULL,
			generated_at TEXT NOT NULL,
			payload TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_bundles_project ON bundles(project);

		-- Embedded memory items for similarity search
		CREATE TABLE IF NOT EXISTS memory_index (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			project TEXT NOT NULL,
			kind TEXT NOT NULL,
			item_text TEXT NOT NULL,
			detail TEXT,
			embedding BLOB
		);

		CREATE INDEX IF NOT EXISTS idx_memory_index_project ON memory_index(project);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// HasExtraction reports whether a session has already been extracted.
func (s *SQLiteStore) HasExtraction(ctx context.Context, project, sessionID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM extractions WHERE session_id = ? AND project = ?`,
		sessionID, project,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query extraction index: %w", err)
	}
	return true, nil
}

// PutExtraction persists one session extraction, replacing any previous
// record for the same session.
func (s *SQLiteStore) PutExtraction(ctx context.Context, ext *SessionExtraction) error {
	payload, err := json.Marshal(ext)
	if err != nil {
		return fmt.Errorf("failed to encode extraction: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO extractions (session_id, project, extracted_at, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			project = excluded.project,
			extracted_at = excluded.extracted_at,
			payload = excluded.payload
	`, ext.SessionID, ext.Project, ext.ExtractedAt.Format(time.RFC3339), payload)
	if err != nil {
		return fmt.Errorf("failed to save extraction: %w", err)
	}

	return nil
}

// ListExtractions returns all extractions for a project ordered by
// extraction time, oldest first.
func (s *SQLiteStore) ListExtractions(ctx context.Context, project string) ([]SessionExtraction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM extractions
		WHERE project = ?
		ORDER BY extracted_at, session_id
	`, project)
	if err != nil {
		return nil, fmt.Errorf("failed to query extractions: %w", err)
	}
	defer rows.Close()

	var extractions []SessionExtraction
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan extraction: %w", err)
		}
		var ext SessionExtraction
		if err := json.Unmarshal(payload, &ext); err != nil {
			return nil, fmt.Errorf("failed to decode extraction: %w", err)
		}
		extractions = append(extractions, ext)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating extractions: %w", err)
	}

	return extractions, nil
}

// ListProjects returns the names of all projects with extractions.
func (s *SQLiteStore) ListProjects(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT project FROM extractions ORDER BY project`)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, nil
}

// GetMemory returns the current consolidated memory for a project.
func (s *SQLiteStore) GetMemory(ctx context.Context, project string) (*ProjectMemory, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM project_memory WHERE project = ?`, project,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query project memory: %w", err)
	}

	var mem ProjectMemory
	if err := json.Unmarshal(payload, &mem); err != nil {
		return nil, fmt.Errorf("failed to decode project memory: %w", err)
	}

	return &mem, nil
}

// PutMemory replaces the consolidated memory for a project, archiving the
// previous version under snapshotID.
func (s *SQLiteStore) PutMemory(ctx context.Context, mem *ProjectMemory, snapshotID string) error {
	payload, err := json.Marshal(mem)
	if err != nil {
		return fmt.Errorf("failed to encode project memory: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Archive the current version before overwriting
	var prev []byte
	err = tx.QueryRowContext(ctx,
		`SELECT payload FROM project_memory WHERE project = ?`, mem.Project,
	).Scan(&prev)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to read previous memory: %w", err)
	}
	if prev != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO memory_history (snapshot_id, project, archived_at, payload)
			VALUES (?, ?, ?, ?)
		`, snapshotID, mem.Project, time.Now().UTC().Format(time.RFC3339), prev)
		if err != nil {
			return fmt.Errorf("failed to archive previous memory: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO project_memory (project, generated_at, payload)
		VALUES (?, ?, ?)
		ON CONFLICT(project) DO UPDATE SET
			generated_at = excluded.generated_at,
			payload = excluded.payload
	`, mem.Project, mem.GeneratedAt.Format(time.RFC3339), payload)
	if err != nil {
		return fmt.Errorf("failed to save project memory: %w", err)
	}

	return tx.Commit()
}

// PutBundle persists a generated-artifact bundle.
func (s *SQLiteStore) PutBundle(ctx context.Context, bundle *Bundle) error {
	payload, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("failed to encode bundle: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO bundles (run_id, project, generated_at, payload)
		VALUES (?, ?, ?, ?)
	`, bundle.RunID, bundle.Project, bundle.GeneratedAt.Format(time.RFC3339), payload)
	if err != nil {
		return fmt.Errorf("failed to save bundle: %w", err)
	}

	return nil
}

// GetBundle returns the most recent bundle for a project.
func (s *SQLiteStore) GetBundle(ctx context.Context, project string) (*Bundle, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM bundles
		WHERE project = ?
		ORDER BY generated_at DESC, run_id DESC
		LIMIT 1
	`, project).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query bundle: %w", err)
	}

	var bundle Bundle
	if err := json.Unmarshal(payload, &bundle); err != nil {
		return nil, fmt.Errorf("failed to decode bundle: %w", err)
	}

	return &bundle, nil
}

// IndexItems replaces the similarity-search index for a project.
func (s *SQLiteStore) IndexItems(ctx context.Context, project string, items []IndexedItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM memory_index WHERE project = ?`, project); err != nil {
		return fmt.Errorf("failed to clear memory index: %w", err)
	}

	for _, item := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO memory_index (project, kind, item_text, detail, embedding)
			VALUES (?, ?, ?, ?, ?)
		`, project, string(item.Kind), item.Text, item.Detail, encodeVector(item.Vector))
		if err != nil {
			return fmt.Errorf("failed to index item: %w", err)
		}
	}

	return tx.Commit()
}

// hitWithScore is an internal type for sorting hits by similarity score.
type hitWithScore struct {
	Hit
	score float32
}

// SearchItems finds indexed memory items similar to the query vector using
// cosine similarity. Unlike PostgreSQL with pgvector, this implementation
// loads all embeddings into memory and computes similarity scores in the
// application layer. Results are ordered by similarity (most similar
// first) and limited to the specified count.
func (s *SQLiteStore) SearchItems(ctx context.Context, project string, queryVector []float32, limit int) ([]Hit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, item_text, detail, embedding
		FROM memory_index
		WHERE project = ? AND embedding IS NOT NULL
	`, project)
	if err != nil {
		return nil, fmt.Errorf("failed to query memory index: %w", err)
	}
	defer rows.Close()

	var results []hitWithScore
	for rows.Next() {
		var hit Hit
		var kind string
		var detail sql.NullString
		var embeddingBlob []byte
		if err := rows.Scan(&kind, &hit.Text, &detail, &embeddingBlob); err != nil {
			return nil, fmt.Errorf("failed to scan indexed item: %w", err)
		}
		hit.Kind = ItemKind(kind)
		hit.Detail = detail.String

		storedVector := decodeVector(embeddingBlob)
		if len(storedVector) > 0 && len(storedVector) == len(queryVector) {
			similarity := cosineSimilarity(queryVector, storedVector)
			hit.Similarity = similarity
			results = append(results, hitWithScore{Hit: hit, score: similarity})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating indexed items: %w", err)
	}

	// Sort by similarity score (highest first)
	sort.Slice(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	topK := min(limit, len(results))
	hits := make([]Hit, topK)
	for i := range topK {
		hits[i] = results[i].Hit
	}

	return hits, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// encodeVector converts a float32 slice to a byte slice for storage.
// Each float32 is encoded as 4 bytes in little-endian format.
func encodeVector(v []float32) []byte {
	if v == nil {
		return nil
	}
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeVector converts a byte slice back to a float32 slice.
func decodeVector(b []byte) []float32 {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		bits := binary.LittleEndian.Uint32(b[i*4:])
		v[i] = math.Float32frombits(bits)
	}
	return v
}

// cosineSimilarity calculates the cosine similarity between two vectors.
// The result is in range [-1, 1]. For normalized embedding vectors this is
// equivalent to dot product.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}

// Ensure SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)

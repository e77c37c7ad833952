// Package sqlite is a persistent vector index backed by a local SQLite file.
// Vectors are stored as BLOBs and similarity is computed brute force in Go;
// for the per-user corpus sizes this service handles that is plenty.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite"

	"ragserver/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS namespaces (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT UNIQUE NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS records (
    namespace_id INTEGER NOT NULL,
    record_id TEXT NOT NULL,
    document TEXT NOT NULL,
    filename TEXT NOT NULL,
    chunk_number INTEGER NOT NULL,
    vector BLOB NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (namespace_id, record_id)
);

CREATE INDEX IF NOT EXISTS idx_records_namespace ON records(namespace_id);
`

// Index wraps the SQLite connection.
type Index struct {
	db *sql.DB
}

// Open creates the database file (and its directory) if needed and applies
// the schema.
func Open(path string) (*Index, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create index directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open index database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply index schema: %w", err)
	}
	return &Index{db: db}, nil
}

func (ix *Index) Close() error { return ix.db.Close() }

func (ix *Index) EnsureNamespace(ctx context.Context, namespace string) error {
	_, err := ix.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO namespaces (name) VALUES (?)`, namespace)
	if err != nil {
		return fmt.Errorf("ensure namespace: %w", err)
	}
	return nil
}

func (ix *Index) namespaceID(ctx context.Context, namespace string) (int64, bool, error) {
	var id int64
	err := ix.db.QueryRowContext(ctx,
		`SELECT id FROM namespaces WHERE name = ?`, namespace).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("resolve namespace: %w", err)
	}
	return id, true, nil
}

func (ix *Index) Upsert(ctx context.Context, namespace string, records []domain.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := ix.EnsureNamespace(ctx, namespace); err != nil {
		return err
	}
	nsID, _, err := ix.namespaceID(ctx, namespace)
	if err != nil {
		return err
	}
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	for _, r := range records {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO records (namespace_id, record_id, document, filename, chunk_number, vector)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(namespace_id, record_id) DO UPDATE SET
				document = excluded.document,
				filename = excluded.filename,
				chunk_number = excluded.chunk_number,
				vector = excluded.vector
		`, nsID, r.ID, r.Text, r.Metadata.Filename, r.Metadata.ChunkNumber, serializeVector(r.Embedding)); err != nil {
			tx.Rollback()
			return fmt.Errorf("upsert record %s: %w", r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

func (ix *Index) Search(ctx context.Context, namespace string, vector []float64, k int) ([]domain.QueryResult, error) {
	nsID, ok, err := ix.namespaceID(ctx, namespace)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	rows, err := ix.db.QueryContext(ctx, `
		SELECT record_id, document, filename, chunk_number, vector
		FROM records WHERE namespace_id = ?
	`, nsID)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var results []domain.QueryResult
	for rows.Next() {
		var (
			res domain.QueryResult
			buf []byte
		)
		if err := rows.Scan(&res.ID, &res.Document, &res.Metadata.Filename, &res.Metadata.ChunkNumber, &buf); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		res.Distance = cosineDistance(vector, deserializeVector(buf))
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	if k > 0 && k < len(results) {
		results = results[:k]
	}
	return results, nil
}

func (ix *Index) Metadatas(ctx context.Context, namespace string) ([]domain.Metadata, error) {
	nsID, ok, err := ix.namespaceID(ctx, namespace)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	rows, err := ix.db.QueryContext(ctx, `
		SELECT filename, chunk_number FROM records WHERE namespace_id = ?
	`, nsID)
	if err != nil {
		return nil, fmt.Errorf("query metadatas: %w", err)
	}
	defer rows.Close()

	var metas []domain.Metadata
	for rows.Next() {
		var m domain.Metadata
		if err := rows.Scan(&m.Filename, &m.ChunkNumber); err != nil {
			return nil, fmt.Errorf("scan metadata: %w", err)
		}
		metas = append(metas, m)
	}
	return metas, rows.Err()
}

func (ix *Index) DeleteNamespace(ctx context.Context, namespace string) error {
	nsID, ok, err := ix.namespaceID(ctx, namespace)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE namespace_id = ?`, nsID); err != nil {
		tx.Rollback()
		return fmt.Errorf("delete records: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM namespaces WHERE id = ?`, nsID); err != nil {
		tx.Rollback()
		return fmt.Errorf("delete namespace: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

func serializeVector(v []float64) []byte {
	buf := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(x))
	}
	return buf
}

func deserializeVector(buf []byte) []float64 {
	v := make([]float64, len(buf)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return v
}

func cosineDistance(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

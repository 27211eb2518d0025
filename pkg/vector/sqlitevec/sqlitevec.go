// Package sqlitevec provides a SQLite-backed vector driver using sqlite-vec.
//
// Chunks live in a single table keyed by (collection, chunk_id). Metadata is
// stored as JSON and filtered with json_extract before vectors are ranked with
// vec_distance_cosine, so the owner filter is applied ahead of top-k.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/studyrag/pkg/vector"
)

// Driver implements vector.Driver using SQLite with sqlite-vec.
type Driver struct {
	db         *sql.DB
	dimensions int
	logger     *slog.Logger
}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

const schema = `
CREATE TABLE IF NOT EXISTS vec_chunks (
	rowid INTEGER PRIMARY KEY AUTOINCREMENT,
	collection TEXT NOT NULL,
	chunk_id TEXT NOT NULL,
	content TEXT NOT NULL DEFAULT '',
	metadata TEXT NOT NULL DEFAULT '{}',
	embedding BLOB NOT NULL,
	UNIQUE(collection, chunk_id)
);
CREATE INDEX IF NOT EXISTS idx_vec_chunks_collection ON vec_chunks(collection);
`

// NewDriver creates a new SQLite vector driver backed by sqlite-vec.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if c.Dimensions == 0 {
		return nil, fmt.Errorf("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", vector.ErrConnection, err)
	}

	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	// Verify sqlite-vec is loaded
	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating chunks table: %w", err)
	}

	logger.Info("sqlite-vec vector driver initialized",
		"db_path", c.DBPath,
		"dimensions", c.Dimensions,
		"vec_version", vecVersion,
	)

	return &Driver{
		db:         db,
		dimensions: int(c.Dimensions),
		logger:     logger,
	}, nil
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// deserializeFloat32 converts a little-endian byte slice back to a float32 slice.
func deserializeFloat32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d: must be divisible by 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// Upsert stores documents with their embeddings in one transaction.
// If a chunk with the same ID already exists in the collection, it is replaced.
func (d *Driver) Upsert(ctx context.Context, collection string, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	if err := vector.ValidateDocuments(docs); err != nil {
		return err
	}
	if got := len(docs[0].Embedding); got != d.dimensions {
		return fmt.Errorf("%w: got %d dimensions, store is configured for %d",
			vector.ErrDimensionMismatch, got, d.dimensions)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vec_chunks (collection, chunk_id, content, metadata, embedding)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(collection, chunk_id) DO UPDATE SET
			content = excluded.content,
			metadata = excluded.metadata,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, doc := range docs {
		meta := doc.Metadata
		if meta == nil {
			meta = map[string]string{}
		}
		metaJSON, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("encoding metadata for chunk %s: %w", doc.ID, err)
		}

		if _, err := stmt.ExecContext(ctx,
			collection, doc.ID, doc.Text, string(metaJSON), serializeFloat32(doc.Embedding),
		); err != nil {
			return fmt.Errorf("upserting chunk %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("upserted chunks to sqlite-vec",
		"collection", collection,
		"count", len(docs),
	)

	return nil
}

// Query finds the topK most similar chunks matching filter.
func (d *Driver) Query(ctx context.Context, collection string, embedding []float32, topK int, filter vector.Filter) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = 10
	}
	if len(embedding) != d.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, store is configured for %d",
			vector.ErrDimensionMismatch, len(embedding), d.dimensions)
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	where, args := whereClause(collection, filter)

	query := `
		SELECT chunk_id, content, metadata, embedding,
			vec_distance_cosine(embedding, ?) AS distance
		FROM vec_chunks
		WHERE ` + where + `
		ORDER BY distance ASC, rowid ASC
		LIMIT ?`

	queryArgs := make([]any, 0, len(args)+2)
	queryArgs = append(queryArgs, serializeFloat32(embedding))
	queryArgs = append(queryArgs, args...)
	queryArgs = append(queryArgs, topK)

	rows, err := d.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var results []vector.QueryResult
	for rows.Next() {
		var (
			id, content, metaJSON string
			blob                  []byte
			distance              float64
		)
		if err := rows.Scan(&id, &content, &metaJSON, &blob, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}

		meta := map[string]string{}
		if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
			return nil, fmt.Errorf("decoding metadata for chunk %s: %w", id, err)
		}

		emb, err := deserializeFloat32(blob)
		if err != nil {
			return nil, fmt.Errorf("decoding embedding for chunk %s: %w", id, err)
		}

		results = append(results, vector.QueryResult{
			Document: vector.Document{
				ID:        id,
				Text:      content,
				Embedding: emb,
				Metadata:  meta,
			},
			// Cosine distance is 1 - similarity.
			Score: float32(1.0 - distance),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	d.logger.Debug("queried sqlite-vec",
		"collection", collection,
		"filter", filter.String(),
		"results", len(results),
	)

	return results, nil
}

// Delete removes every chunk in collection matching filter.
func (d *Driver) Delete(ctx context.Context, collection string, filter vector.Filter) error {
	if filter.IsEmpty() {
		return vector.ErrEmptyFilter
	}
	if err := filter.Validate(); err != nil {
		return err
	}

	where, args := whereClause(collection, filter)
	res, err := d.db.ExecContext(ctx, `DELETE FROM vec_chunks WHERE `+where, args...)
	if err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}

	n, _ := res.RowsAffected()
	d.logger.Debug("deleted chunks from sqlite-vec",
		"collection", collection,
		"filter", filter.String(),
		"count", n,
	)

	return nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return d.db.Close()
}

// whereClause renders filter as SQL over the JSON metadata column.
// Keys are validated by Filter.Validate so they are safe inside a JSON path.
// A chunk missing a NotEqual key counts as not equal.
func whereClause(collection string, filter vector.Filter) (string, []any) {
	conds := []string{"collection = ?"}
	args := []any{collection}

	for _, k := range filter.EqualKeys() {
		conds = append(conds, "json_extract(metadata, ?) = ?")
		args = append(args, jsonPath(k), filter.Equal[k])
	}
	for _, k := range filter.NotEqualKeys() {
		conds = append(conds, "(json_extract(metadata, ?) IS NULL OR json_extract(metadata, ?) != ?)")
		args = append(args, jsonPath(k), jsonPath(k), filter.NotEqual[k])
	}

	return strings.Join(conds, " AND "), args
}

func jsonPath(key string) string {
	return `$."` + key + `"`
}

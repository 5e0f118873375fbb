// Package chunk persists embedded chunks and answers nearest-neighbor queries
// over them, on SQLite or on Valkey.
package chunk

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kailas-cloud/mechmind/internal/db"
	"github.com/kailas-cloud/mechmind/internal/domain"
)

// SQLRepo stores chunks in the chunks table and ranks them in process.
type SQLRepo struct {
	db     *sql.DB
	dim    int
	metric domain.Metric
}

// NewSQL creates a repository for vectors of the given dimension.
func NewSQL(conn *sql.DB, dim int, metric domain.Metric) *SQLRepo {
	return &SQLRepo{db: conn, dim: dim, metric: metric}
}

// Insert persists one chunk and returns its sequence number.
func (r *SQLRepo) Insert(ctx context.Context, source, text string, vector []float32) (int64, error) {
	if len(vector) != r.dim {
		return 0, fmt.Errorf("%w: got %d, want %d", domain.ErrVectorDimMismatch, len(vector), r.dim)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO chunks (source, content, vector, dim) VALUES (?, ?, ?, ?)`,
		source, text, domain.VectorToBytes(vector), len(vector))
	if err != nil {
		return 0, &db.Error{Op: db.OpInsert, Err: err}
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return 0, &db.Error{Op: db.OpInsert, Err: err}
	}
	return seq, nil
}

// Nearest returns the k closest chunks, ascending by distance, ties by sequence.
// An empty table yields an empty result.
func (r *SQLRepo) Nearest(ctx context.Context, vector []float32, k int) ([]domain.Neighbor, error) {
	if len(vector) != r.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", domain.ErrVectorDimMismatch, len(vector), r.dim)
	}
	if k <= 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `SELECT seq, content, vector FROM chunks WHERE dim = ? ORDER BY seq`, r.dim)
	if err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	defer rows.Close()

	var hits []domain.Neighbor
	for rows.Next() {
		var (
			n    domain.Neighbor
			blob []byte
		)
		if err := rows.Scan(&n.Seq, &n.Text, &blob); err != nil {
			return nil, &db.Error{Op: db.OpSelect, Err: err}
		}
		stored, err := domain.BytesToVector(blob)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", n.Seq, err)
		}
		n.Distance = r.metric.Distance(vector, stored)
		hits = append(hits, n)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}

	domain.SortNeighbors(hits)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Count returns the number of stored chunks.
func (r *SQLRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, &db.Error{Op: db.OpSelect, Err: err}
	}
	return n, nil
}

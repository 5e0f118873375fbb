package chunk

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/kailas-cloud/mechmind/internal/db"
	"github.com/kailas-cloud/mechmind/internal/domain"
	"github.com/kailas-cloud/mechmind/internal/logger"
)

// valkeyStore is the consumer interface for the Valkey-backed repository (ISP).
type valkeyStore interface {
	Incr(ctx context.Context, key string) (int64, error)
	Counter(ctx context.Context, key string) (int64, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

const (
	fieldContent = "content"
	fieldSource  = "source"
	fieldSeq     = "seq"
	fieldVector  = "vector"
)

// ValkeyRepo stores chunks as hashes covered by an FT vector index.
type ValkeyRepo struct {
	store     valkeyStore
	dim       int
	metric    domain.Metric
	keyPrefix string
	seqKey    string
	indexName string
	hnsw      HNSWConfig
}

// HNSWConfig holds HNSW index parameters. Zero M keeps the FLAT index.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// NewValkey creates a repository. prefix namespaces all keys, e.g. "mechmind:".
func NewValkey(s valkeyStore, prefix string, dim int, metric domain.Metric) *ValkeyRepo {
	return &ValkeyRepo{
		store:     s,
		dim:       dim,
		metric:    metric,
		keyPrefix: prefix + "chunk:",
		seqKey:    prefix + "chunk_seq",
		indexName: prefix + "chunks:idx",
	}
}

// WithHNSW switches the index to HNSW.
func (r *ValkeyRepo) WithHNSW(cfg HNSWConfig) *ValkeyRepo {
	r.hnsw = cfg
	return r
}

// EnsureIndex creates the vector index if it does not exist yet.
func (r *ValkeyRepo) EnsureIndex(ctx context.Context) error {
	b := db.NewIndex(r.indexName).
		Prefix(r.keyPrefix).
		Numeric(fieldSeq).
		Tag(fieldSource)
	if r.hnsw.M > 0 {
		b = b.VectorHNSW(fieldVector, r.dim, distanceMetric(r.metric), r.hnsw.M, r.hnsw.EFConstruct)
	} else {
		b = b.VectorFlat(fieldVector, r.dim, distanceMetric(r.metric))
	}
	def, err := b.Build()
	if err != nil {
		return fmt.Errorf("build index definition: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Insert persists one chunk and returns its sequence number.
func (r *ValkeyRepo) Insert(ctx context.Context, source, text string, vector []float32) (int64, error) {
	if len(vector) != r.dim {
		return 0, fmt.Errorf("%w: got %d, want %d", domain.ErrVectorDimMismatch, len(vector), r.dim)
	}

	seq, err := r.store.Incr(ctx, r.seqKey)
	if err != nil {
		return 0, fmt.Errorf("allocate seq: %w", err)
	}

	fields := map[string]string{
		fieldContent: text,
		fieldSource:  source,
		fieldSeq:     strconv.FormatInt(seq, 10),
		fieldVector:  string(domain.VectorToBytes(vector)),
	}
	if err := r.store.HSet(ctx, r.keyPrefix+strconv.FormatInt(seq, 10), fields); err != nil {
		return 0, fmt.Errorf("store chunk %d: %w", seq, err)
	}
	return seq, nil
}

// Nearest runs a KNN query and normalises scores to the domain metric.
func (r *ValkeyRepo) Nearest(ctx context.Context, vector []float32, k int) ([]domain.Neighbor, error) {
	if len(vector) != r.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", domain.ErrVectorDimMismatch, len(vector), r.dim)
	}
	if k <= 0 {
		return nil, nil
	}

	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName,
		Vector:       vector,
		K:            k,
		ReturnFields: []string{fieldContent, fieldSeq},
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("knn search: %w", err)
	}

	hits := make([]domain.Neighbor, 0, len(res.Entries))
	for _, e := range res.Entries {
		seq, err := strconv.ParseInt(e.Fields[fieldSeq], 10, 64)
		if err != nil {
			logger.FromContext(ctx).Warn("Dropping chunk hit with unparsable seq",
				zap.String("key", e.Key),
				zap.String("seq", e.Fields[fieldSeq]),
			)
			continue
		}
		hits = append(hits, domain.Neighbor{
			Seq:      seq,
			Text:     e.Fields[fieldContent],
			Distance: r.distance(e.Score),
		})
	}

	domain.SortNeighbors(hits)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Count returns the number of inserted chunks.
func (r *ValkeyRepo) Count(ctx context.Context) (int, error) {
	n, err := r.store.Counter(ctx, r.seqKey)
	if err != nil {
		return 0, fmt.Errorf("read chunk counter: %w", err)
	}
	return int(n), nil
}

// distance converts a server score. L2 scores are squared on the server.
func (r *ValkeyRepo) distance(score float64) float64 {
	if r.metric == domain.MetricL2 {
		return math.Sqrt(math.Max(score, 0))
	}
	return score
}

func distanceMetric(m domain.Metric) db.DistanceMetric {
	switch m {
	case domain.MetricCosine:
		return db.DistanceCosine
	case domain.MetricIP:
		return db.DistanceIP
	default:
		return db.DistanceL2
	}
}

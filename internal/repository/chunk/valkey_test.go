package chunk

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/mechmind/internal/db"
	"github.com/kailas-cloud/mechmind/internal/domain"
	"github.com/kailas-cloud/mechmind/internal/logger"
)

type mockValkeyStore struct {
	seq       int64
	hashes    map[string]map[string]string
	createErr error
	searchRes *db.SearchResult
	searchErr error
	lastKNN   *db.KNNQuery
	lastIndex *db.IndexDefinition
}

func newMockValkeyStore() *mockValkeyStore {
	return &mockValkeyStore{hashes: map[string]map[string]string{}}
}

func (m *mockValkeyStore) Incr(_ context.Context, _ string) (int64, error) {
	m.seq++
	return m.seq, nil
}

func (m *mockValkeyStore) Counter(_ context.Context, _ string) (int64, error) {
	return m.seq, nil
}

func (m *mockValkeyStore) HSet(_ context.Context, key string, fields map[string]string) error {
	m.hashes[key] = fields
	return nil
}

func (m *mockValkeyStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	m.lastIndex = def
	return m.createErr
}

func (m *mockValkeyStore) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	m.lastKNN = q
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if m.searchRes == nil {
		return &db.SearchResult{}, nil
	}
	return m.searchRes, nil
}

func TestValkeyRepo_InsertWritesHash(t *testing.T) {
	s := newMockValkeyStore()
	repo := NewValkey(s, "mm:", 2, domain.MetricL2)

	seq, err := repo.Insert(context.Background(), "b31.pdf", "hello", []float32{1, 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seq != 1 {
		t.Errorf("seq = %d, want 1", seq)
	}

	h, ok := s.hashes["mm:chunk:1"]
	if !ok {
		t.Fatalf("hash not written, got keys %v", s.hashes)
	}
	if h[fieldContent] != "hello" || h[fieldSource] != "b31.pdf" || h[fieldSeq] != "1" {
		t.Errorf("unexpected hash fields: %v", h)
	}
	vec, err := domain.BytesToVector([]byte(h[fieldVector]))
	if err != nil || len(vec) != 2 || vec[1] != 2 {
		t.Errorf("vector round trip failed: %v %v", vec, err)
	}
}

func TestValkeyRepo_InsertDimMismatch(t *testing.T) {
	s := newMockValkeyStore()
	repo := NewValkey(s, "mm:", 3, domain.MetricL2)

	_, err := repo.Insert(context.Background(), "", "x", []float32{1})
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Errorf("expected ErrVectorDimMismatch, got %v", err)
	}
	if s.seq != 0 {
		t.Error("seq must not advance on rejected insert")
	}
}

func TestValkeyRepo_EnsureIndexIdempotent(t *testing.T) {
	s := newMockValkeyStore()
	s.createErr = db.ErrIndexExists
	repo := NewValkey(s, "mm:", 4, domain.MetricCosine)

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("existing index should be ok: %v", err)
	}
	if s.lastIndex.Name != "mm:chunks:idx" {
		t.Errorf("index name = %q", s.lastIndex.Name)
	}
	v := s.lastIndex.Fields[len(s.lastIndex.Fields)-1]
	if v.VectorDistance != db.DistanceCosine || v.VectorDim != 4 {
		t.Errorf("unexpected vector field: %+v", v)
	}
}

func TestValkeyRepo_EnsureIndexHNSW(t *testing.T) {
	s := newMockValkeyStore()
	repo := NewValkey(s, "mm:", 8, domain.MetricL2).WithHNSW(HNSWConfig{M: 16, EFConstruct: 200})

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("EnsureIndex: %v", err)
	}
	v := s.lastIndex.Fields[len(s.lastIndex.Fields)-1]
	if v.VectorAlgo != db.VectorHNSW || v.VectorM != 16 || v.VectorEFConstruct != 200 {
		t.Errorf("unexpected vector field: %+v", v)
	}
}

func TestValkeyRepo_NearestL2TakesSqrtAndBreaksTies(t *testing.T) {
	s := newMockValkeyStore()
	s.searchRes = &db.SearchResult{Total: 3, Entries: []db.SearchEntry{
		{Key: "mm:chunk:7", Score: 4, Fields: map[string]string{fieldSeq: "7", fieldContent: "later"}},
		{Key: "mm:chunk:2", Score: 4, Fields: map[string]string{fieldSeq: "2", fieldContent: "earlier"}},
		{Key: "mm:chunk:5", Score: 1, Fields: map[string]string{fieldSeq: "5", fieldContent: "closest"}},
	}}
	repo := NewValkey(s, "mm:", 2, domain.MetricL2)

	hits, err := repo.Nearest(context.Background(), []float32{0, 0}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	want := []string{"closest", "earlier", "later"}
	for i, w := range want {
		if hits[i].Text != w {
			t.Errorf("hits[%d] = %q, want %q", i, hits[i].Text, w)
		}
	}
	if math.Abs(hits[0].Distance-1) > 1e-9 || math.Abs(hits[1].Distance-2) > 1e-9 {
		t.Errorf("expected sqrt of squared L2, got %v, %v", hits[0].Distance, hits[1].Distance)
	}
	if s.lastKNN.K != 3 || s.lastKNN.IndexName != "mm:chunks:idx" {
		t.Errorf("unexpected query: %+v", s.lastKNN)
	}
}

func TestValkeyRepo_NearestLogsUnparsableSeq(t *testing.T) {
	s := newMockValkeyStore()
	s.searchRes = &db.SearchResult{Total: 2, Entries: []db.SearchEntry{
		{Key: "mm:chunk:x", Score: 1, Fields: map[string]string{fieldSeq: "x", fieldContent: "broken"}},
		{Key: "mm:chunk:3", Score: 2, Fields: map[string]string{fieldSeq: "3", fieldContent: "kept"}},
	}}
	repo := NewValkey(s, "mm:", 2, domain.MetricL2)

	core, logs := observer.New(zapcore.WarnLevel)
	ctx := logger.ContextWithLogger(context.Background(), zap.New(core))

	hits, err := repo.Nearest(ctx, []float32{0, 0}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 || hits[0].Text != "kept" {
		t.Fatalf("expected only the parsable hit, got %+v", hits)
	}

	entries := logs.FilterMessage("Dropping chunk hit with unparsable seq").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["key"]; got != "mm:chunk:x" {
		t.Errorf("logged key = %v", got)
	}
}

func TestValkeyRepo_NearestMissingIndexIsEmpty(t *testing.T) {
	s := newMockValkeyStore()
	s.searchErr = db.ErrIndexNotFound
	repo := NewValkey(s, "mm:", 2, domain.MetricL2)

	hits, err := repo.Nearest(context.Background(), []float32{1, 1}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits, got %v", hits)
	}
}

func TestValkeyRepo_NearestPropagatesErrors(t *testing.T) {
	s := newMockValkeyStore()
	s.searchErr = errors.New("connection refused")
	repo := NewValkey(s, "mm:", 2, domain.MetricL2)

	if _, err := repo.Nearest(context.Background(), []float32{1, 1}, 3); err == nil {
		t.Fatal("expected error")
	}
}

func TestValkeyRepo_Count(t *testing.T) {
	s := newMockValkeyStore()
	repo := NewValkey(s, "mm:", 1, domain.MetricL2)
	ctx := context.Background()

	for range 3 {
		if _, err := repo.Insert(ctx, "", "x", []float32{1}); err != nil {
			t.Fatal(err)
		}
	}
	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
}

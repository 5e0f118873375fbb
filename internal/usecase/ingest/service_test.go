package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/mechmind/internal/domain"
	"github.com/kailas-cloud/mechmind/internal/metrics"
)

// --- Mocks ---

// wordSplitter yields one chunk per whitespace-separated word.
type wordSplitter struct{}

func (wordSplitter) Split(text string) []domain.Chunk {
	words := strings.Fields(text)
	chunks := make([]domain.Chunk, len(words))
	for i, w := range words {
		chunks[i] = domain.Chunk{Text: w, Position: i}
	}
	return chunks
}

type mockEmbedder struct {
	calls   [][]string
	failOn  int // 1-based call number that fails, 0 = never
	dropOne bool
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.calls = append(m.calls, texts)
	if m.failOn == len(m.calls) {
		return domain.BatchEmbeddingResult{}, domain.ErrEmbeddingFailed
	}
	n := len(texts)
	if m.dropOne {
		n--
	}
	vecs := make([][]float32, n)
	for i := range vecs {
		vecs[i] = []float32{float32(len(texts[i]))}
	}
	return domain.BatchEmbeddingResult{Embeddings: vecs, TotalTokens: len(texts)}, nil
}

type stored struct {
	source string
	text   string
	vector []float32
}

type mockStore struct {
	rows      []stored
	insertErr error
}

func (m *mockStore) Insert(_ context.Context, source, text string, vector []float32) (int64, error) {
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	m.rows = append(m.rows, stored{source, text, vector})
	return int64(len(m.rows)), nil
}

type mockReader struct {
	text     string
	err      error
	lastPath string
}

func (m *mockReader) ExtractText(_ context.Context, path string) (string, error) {
	m.lastPath = path
	return m.text, m.err
}

// --- Tests ---

func TestIngestText_Batches(t *testing.T) {
	emb := &mockEmbedder{}
	store := &mockStore{}
	svc := New(wordSplitter{}, emb, store, nil, Options{BatchSize: 2})

	storedBefore := testutil.ToFloat64(metrics.IngestChunksTotal.WithLabelValues("stored"))

	rep, err := svc.IngestText(context.Background(), "notes.txt", "a bb ccc dddd eeeee")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Chunks != 5 || rep.Stored != 5 || rep.Batches != 3 {
		t.Errorf("unexpected report: %+v", rep)
	}
	if rep.EmbeddingTokens != 5 {
		t.Errorf("tokens = %d, want 5", rep.EmbeddingTokens)
	}
	if rep.IngestID == "" || rep.Source != "notes.txt" {
		t.Errorf("missing id or source: %+v", rep)
	}
	if len(emb.calls) != 3 || len(emb.calls[2]) != 1 {
		t.Errorf("unexpected batches: %v", emb.calls)
	}
	if store.rows[3].text != "dddd" || store.rows[3].vector[0] != 4 || store.rows[3].source != "notes.txt" {
		t.Errorf("unexpected stored row: %+v", store.rows[3])
	}

	if got := testutil.ToFloat64(metrics.IngestChunksTotal.WithLabelValues("stored")) - storedBefore; got != 5 {
		t.Errorf("stored counter delta = %v, want 5", got)
	}
}

func TestIngestText_StopsOnEmbeddingFailure(t *testing.T) {
	emb := &mockEmbedder{failOn: 2}
	store := &mockStore{}
	svc := New(wordSplitter{}, emb, store, nil, Options{BatchSize: 2})

	failedBefore := testutil.ToFloat64(metrics.IngestChunksTotal.WithLabelValues("failed"))

	rep, err := svc.IngestText(context.Background(), "doc", "a b c d e")
	if !errors.Is(err, domain.ErrEmbeddingFailed) {
		t.Fatalf("expected ErrEmbeddingFailed, got %v", err)
	}
	if rep.Stored != 2 || len(store.rows) != 2 {
		t.Errorf("expected 2 stored before failure, got report %+v", rep)
	}
	if len(emb.calls) != 2 {
		t.Errorf("expected run to stop after failing batch, got %d calls", len(emb.calls))
	}
	if got := testutil.ToFloat64(metrics.IngestChunksTotal.WithLabelValues("failed")) - failedBefore; got != 3 {
		t.Errorf("failed counter delta = %v, want 3", got)
	}
}

func TestIngestText_EmbeddingCountMismatch(t *testing.T) {
	svc := New(wordSplitter{}, &mockEmbedder{dropOne: true}, &mockStore{}, nil, Options{})

	_, err := svc.IngestText(context.Background(), "doc", "a b")
	if !errors.Is(err, domain.ErrEmbeddingFailed) {
		t.Fatalf("expected ErrEmbeddingFailed, got %v", err)
	}
}

func TestIngestText_StoreError(t *testing.T) {
	store := &mockStore{insertErr: domain.ErrVectorDimMismatch}
	svc := New(wordSplitter{}, &mockEmbedder{}, store, nil, Options{})

	rep, err := svc.IngestText(context.Background(), "doc", "a b")
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
	if rep.Stored != 0 {
		t.Errorf("stored = %d, want 0", rep.Stored)
	}
}

func TestIngestText_Empty(t *testing.T) {
	emb := &mockEmbedder{}
	svc := New(wordSplitter{}, emb, &mockStore{}, nil, Options{})

	rep, err := svc.IngestText(context.Background(), "doc", "   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Chunks != 0 || len(emb.calls) != 0 {
		t.Errorf("expected no work, got %+v with %d calls", rep, len(emb.calls))
	}
}

func TestIngestText_CanceledContext(t *testing.T) {
	emb := &mockEmbedder{}
	svc := New(wordSplitter{}, emb, &mockStore{}, nil, Options{RequestsPerSecond: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.IngestText(ctx, "doc", "a b")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(emb.calls) != 0 {
		t.Errorf("embedder should not be called")
	}
}

func TestIngestPDF(t *testing.T) {
	reader := &mockReader{text: "pipe stress"}
	store := &mockStore{}
	svc := New(wordSplitter{}, &mockEmbedder{}, store, reader, Options{})

	rep, err := svc.IngestPDF(context.Background(), "/data/docs/Pipe-Stress-Analysis.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reader.lastPath != "/data/docs/Pipe-Stress-Analysis.pdf" {
		t.Errorf("reader got path %q", reader.lastPath)
	}
	if rep.Source != "Pipe-Stress-Analysis.pdf" || rep.Stored != 2 {
		t.Errorf("unexpected report: %+v", rep)
	}
}

func TestIngestPDF_ReaderError(t *testing.T) {
	svc := New(wordSplitter{}, &mockEmbedder{}, &mockStore{}, &mockReader{err: errors.New("broken xref")}, Options{})

	if _, err := svc.IngestPDF(context.Background(), "x.pdf"); err == nil {
		t.Fatal("expected error")
	}
}

func TestIngestPDF_NoReader(t *testing.T) {
	svc := New(wordSplitter{}, &mockEmbedder{}, &mockStore{}, nil, Options{})

	if _, err := svc.IngestPDF(context.Background(), "x.pdf"); !errors.Is(err, ErrNoDocumentReader) {
		t.Fatalf("expected ErrNoDocumentReader, got %v", err)
	}
}

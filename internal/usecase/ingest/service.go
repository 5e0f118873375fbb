// Package ingest turns documents into stored, embedded chunks.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/mechmind/internal/domain"
	"github.com/kailas-cloud/mechmind/internal/logger"
	"github.com/kailas-cloud/mechmind/internal/metrics"
)

// DefaultBatchSize is the number of chunks embedded per provider call.
const DefaultBatchSize = 64

// ErrNoDocumentReader is returned by IngestPDF when no reader is configured.
var ErrNoDocumentReader = errors.New("no document reader configured")

// Options tune an ingestion run.
type Options struct {
	BatchSize int
	// RequestsPerSecond caps embedding calls. Zero or less means unlimited.
	RequestsPerSecond float64
}

// Report summarizes an ingestion run. On failure it tells how far the run got.
type Report struct {
	IngestID        string
	Source          string
	Chunks          int
	Stored          int
	Batches         int
	EmbeddingTokens int
	Duration        time.Duration
}

// Service runs ingestion.
type Service struct {
	splitter  Splitter
	embedder  Embedder
	store     ChunkStore
	reader    DocumentReader
	batchSize int
	limiter   *rate.Limiter
}

// New creates an ingestion service. reader may be nil when only text is ingested.
func New(splitter Splitter, embedder Embedder, store ChunkStore, reader DocumentReader, opts Options) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	return &Service{
		splitter:  splitter,
		embedder:  embedder,
		store:     store,
		reader:    reader,
		batchSize: opts.BatchSize,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// IngestPDF extracts the document text and ingests it under the file's base name.
func (s *Service) IngestPDF(ctx context.Context, path string) (Report, error) {
	if s.reader == nil {
		return Report{}, ErrNoDocumentReader
	}
	text, err := s.reader.ExtractText(ctx, path)
	if err != nil {
		return Report{}, fmt.Errorf("extract text: %w", err)
	}
	return s.IngestText(ctx, filepath.Base(path), text)
}

// IngestText chunks text, embeds the chunks batch by batch and stores them.
// The run stops at the first failing batch; chunks stored before it are kept.
func (s *Service) IngestText(ctx context.Context, source, text string) (Report, error) {
	start := time.Now()
	rep := Report{IngestID: uuid.NewString(), Source: source}
	ctx = logger.With(ctx, zap.String("ingest_id", rep.IngestID), zap.String("source", source))
	log := logger.FromContext(ctx)

	chunks := s.splitter.Split(text)
	rep.Chunks = len(chunks)

	err := s.run(ctx, source, chunks, &rep)
	rep.Duration = time.Since(start)

	if failed := rep.Chunks - rep.Stored; failed > 0 {
		metrics.IngestChunksTotal.WithLabelValues("failed").Add(float64(failed))
	}

	if err != nil {
		log.Error("Ingestion failed",
			zap.Int("chunks", rep.Chunks),
			zap.Int("stored", rep.Stored),
			zap.Duration("duration", rep.Duration),
			zap.Error(err),
		)
		return rep, err
	}

	log.Info("Ingestion finished",
		zap.Int("chunks", rep.Chunks),
		zap.Int("stored", rep.Stored),
		zap.Int("batches", rep.Batches),
		zap.Int("embedding_tokens", rep.EmbeddingTokens),
		zap.Duration("duration", rep.Duration),
	)
	return rep, nil
}

func (s *Service) run(ctx context.Context, source string, chunks []domain.Chunk, rep *Report) error {
	log := logger.FromContext(ctx)

	for from := 0; from < len(chunks); from += s.batchSize {
		to := min(from+s.batchSize, len(chunks))
		batch := chunks[from:to]

		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("wait for rate limiter: %w", err)
		}

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		res, err := s.embedder.BatchEmbed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed chunks %d-%d: %w", from, to-1, err)
		}
		if len(res.Embeddings) != len(batch) {
			return fmt.Errorf("%w: expected %d embeddings, got %d", domain.ErrEmbeddingFailed, len(batch), len(res.Embeddings))
		}
		rep.Batches++
		rep.EmbeddingTokens += res.TotalTokens

		for i, c := range batch {
			if _, err := s.store.Insert(ctx, source, c.Text, res.Embeddings[i]); err != nil {
				return fmt.Errorf("store chunk %d: %w", c.Position, err)
			}
			rep.Stored++
			metrics.IngestChunksTotal.WithLabelValues("stored").Inc()
		}

		log.Info("Batch stored",
			zap.Int("from", from),
			zap.Int("to", to),
			zap.Int("tokens", res.TotalTokens),
		)
	}
	return nil
}

package ingest

import (
	"context"

	"github.com/kailas-cloud/mechmind/internal/domain"
)

// Splitter cuts text into chunks.
type Splitter interface {
	Split(text string) []domain.Chunk
}

// Embedder vectorizes a batch of chunk texts.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// ChunkStore persists embedded chunks.
type ChunkStore interface {
	Insert(ctx context.Context, source, text string, vector []float32) (int64, error)
}

// DocumentReader extracts plain text from a document on disk.
type DocumentReader interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

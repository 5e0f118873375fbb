package answer

import (
	"context"

	"github.com/kailas-cloud/mechmind/internal/domain"
)

// ClauseMatcher finds clauses for a question.
type ClauseMatcher interface {
	MatchID(ctx context.Context, question string) (domain.Clause, bool, error)
	BestKeywordMatch(ctx context.Context, question string) (domain.Clause, bool, error)
}

// VectorIndex is the read side of the chunk store.
type VectorIndex interface {
	Nearest(ctx context.Context, vector []float32, k int) ([]domain.Neighbor, error)
	Count(ctx context.Context) (int, error)
}

// Embedder vectorizes the question.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Completer summarizes retrieved context.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (domain.CompletionResult, error)
}

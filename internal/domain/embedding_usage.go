package domain

import "context"

type usageKey struct{}

// Usage collects provider token usage for a single request.
// The handler puts a pointer into the context, the resolver adds to it,
// and the handler reads it back for response headers.
type Usage struct {
	EmbeddingTokens  int
	CompletionTokens int
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *Usage) {
	u := &Usage{}
	return context.WithValue(ctx, usageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *Usage {
	u, _ := ctx.Value(usageKey{}).(*Usage)
	return u
}

// AddEmbedding records embedding tokens. Safe on a nil receiver.
func (u *Usage) AddEmbedding(n int) {
	if u != nil {
		u.EmbeddingTokens += n
	}
}

// AddCompletion records completion tokens. Safe on a nil receiver.
func (u *Usage) AddCompletion(n int) {
	if u != nil {
		u.CompletionTokens += n
	}
}

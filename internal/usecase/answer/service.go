// Package answer resolves a question into an answer through ordered stages:
// exact clause id, clause keywords, nearest chunks (raw or summarized) and a
// fixed fallback.
package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/mechmind/internal/domain"
	"github.com/kailas-cloud/mechmind/internal/logger"
	"github.com/kailas-cloud/mechmind/internal/metrics"
)

// Mode selects how stage 3 turns retrieved chunks into an answer.
type Mode string

const (
	// ModeSummarize passes cleaned chunk text to the completer.
	ModeSummarize Mode = "summarize"
	// ModeRaw returns the chunk texts as they are.
	ModeRaw Mode = "raw"
)

// Defaults.
const (
	DefaultTopK           = 3
	DefaultMaxQuestionLen = 2000
)

// DefaultSystemPrompt instructs the completer for pipe stress questions.
const DefaultSystemPrompt = "You are an expert in ASME B31.3 process piping and pipe stress analysis. " +
	"Answer the question using only the provided context. " +
	"If the context does not contain the answer, say so briefly."

// Options tune the resolver.
type Options struct {
	Mode           Mode
	TopK           int
	ClauseMatching bool
	MaxQuestionLen int
	SystemPrompt   string
}

// Service resolves questions. Any collaborator may be nil, which disables its stage.
type Service struct {
	clauses   ClauseMatcher
	vectors   VectorIndex
	embedder  Embedder
	completer Completer
	opts      Options
}

// New creates a resolver.
func New(clauses ClauseMatcher, vectors VectorIndex, embedder Embedder, completer Completer, opts Options) *Service {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.MaxQuestionLen <= 0 {
		opts.MaxQuestionLen = DefaultMaxQuestionLen
	}
	if opts.Mode == "" {
		opts.Mode = ModeSummarize
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = DefaultSystemPrompt
	}
	return &Service{
		clauses:   clauses,
		vectors:   vectors,
		embedder:  embedder,
		completer: completer,
		opts:      opts,
	}
}

// Resolve runs the stages in order and returns the first answer produced.
func (s *Service) Resolve(ctx context.Context, question string) (domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.Answer{}, fmt.Errorf("%w: question is empty", domain.ErrInvalidQuestion)
	}
	if n := utf8.RuneCountInString(question); n > s.opts.MaxQuestionLen {
		return domain.Answer{}, fmt.Errorf("%w: %d characters exceeds %d", domain.ErrInvalidQuestion, n, s.opts.MaxQuestionLen)
	}

	ans, err := s.resolve(ctx, question)
	if err != nil {
		return domain.Answer{}, err
	}

	metrics.AnswersTotal.WithLabelValues(string(ans.Stage)).Inc()
	logger.FromContext(ctx).Info("Answer resolved",
		zap.String("stage", string(ans.Stage)),
		zap.Int("citations", len(ans.Citations)),
	)
	return ans, nil
}

func (s *Service) resolve(ctx context.Context, question string) (domain.Answer, error) {
	if s.opts.ClauseMatching && s.clauses != nil {
		c, ok, err := s.clauses.MatchID(ctx, question)
		if err != nil {
			return domain.Answer{}, fmt.Errorf("match clause id: %w", err)
		}
		if ok {
			return clauseAnswer(c, domain.StageClauseID), nil
		}

		c, ok, err = s.clauses.BestKeywordMatch(ctx, question)
		if err != nil {
			return domain.Answer{}, fmt.Errorf("match clause keywords: %w", err)
		}
		if ok {
			return clauseAnswer(c, domain.StageKeyword), nil
		}
	}

	if s.vectors != nil && s.embedder != nil {
		ans, ok, err := s.vectorAnswer(ctx, question)
		if err != nil {
			return domain.Answer{}, err
		}
		if ok {
			return ans, nil
		}
	}

	return domain.Answer{Text: domain.NoMatchAnswer, Citations: []string{}, Stage: domain.StageFallback}, nil
}

func (s *Service) vectorAnswer(ctx context.Context, question string) (domain.Answer, bool, error) {
	n, err := s.vectors.Count(ctx)
	if err != nil {
		return domain.Answer{}, false, fmt.Errorf("count chunks: %w", err)
	}
	if n == 0 {
		return domain.Answer{}, false, nil
	}

	emb, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return domain.Answer{}, false, fmt.Errorf("embed question: %w", err)
	}

	hits, err := s.vectors.Nearest(ctx, emb.Embedding, s.opts.TopK)
	if errors.Is(err, domain.ErrVectorDimMismatch) {
		// the provider returned a vector the index was not built for
		return domain.Answer{}, false, fmt.Errorf("%w: query vector: %v", domain.ErrEmbeddingFailed, err)
	}
	if err != nil {
		return domain.Answer{}, false, fmt.Errorf("nearest chunks: %w", err)
	}
	if len(hits) == 0 {
		return domain.Answer{}, false, nil
	}

	citations := make([]string, len(hits))
	texts := make([]string, len(hits))
	for i, h := range hits {
		citations[i] = fmt.Sprintf("%.4f", h.Distance)
		texts[i] = h.Text
	}

	if s.opts.Mode == ModeRaw || s.completer == nil {
		return domain.Answer{Text: strings.Join(texts, "\n\n"), Citations: citations, Stage: domain.StageVector}, true, nil
	}

	userPrompt := "Context:\n" + CleanText(strings.Join(texts, " ")) + "\n\nQuestion: " + question
	res, err := s.completer.Complete(ctx, s.opts.SystemPrompt, userPrompt)
	if err != nil {
		return domain.Answer{}, false, fmt.Errorf("summarize: %w", err)
	}
	domain.UsageFromContext(ctx).AddCompletion(res.TotalTokens)

	return domain.Answer{Text: res.Text, Citations: citations, Stage: domain.StageSummary}, true, nil
}

func clauseAnswer(c domain.Clause, stage domain.Stage) domain.Answer {
	return domain.Answer{Text: c.Answer(), Citations: []string{c.ID}, Stage: stage}
}

package domain

import "errors"

var (
	// ErrEmbeddingFailed signals an embedding provider failure.
	ErrEmbeddingFailed = errors.New("embedding failed")
	// ErrCompletionFailed signals an LLM provider failure.
	ErrCompletionFailed = errors.New("completion failed")
	// ErrVectorDimMismatch signals a vector whose length differs from the store dimension.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrClauseNotFound signals a missing clause.
	ErrClauseNotFound = errors.New("clause not found")
	// ErrClauseExists signals a duplicate clause identifier.
	ErrClauseExists = errors.New("clause already exists")
	// ErrInvalidClause signals a clause that fails validation.
	ErrInvalidClause = errors.New("invalid clause")
	// ErrInvalidQuestion signals an empty or oversized question.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrInvalidChunking signals an unusable chunk size / overlap pair.
	ErrInvalidChunking = errors.New("invalid chunking configuration")
)

// Package chunker splits extracted document text into overlapping fixed-size chunks.
package chunker

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/mechmind/internal/domain"
)

const (
	// DefaultChunkSize is the default number of characters per chunk.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the default number of characters shared by neighbors.
	DefaultChunkOverlap = 100
)

// defaultSeparators are tried in order; the first one found inside the
// search window wins. Paragraphs beat lines, lines beat sentences, sentences
// beat clauses, clauses beat words. No match means a hard split.
var defaultSeparators = []string{"\n\n", "\n", ". ", "? ", "! ", "; ", ", ", " "}

// Splitter cuts text into chunks of at most size runes. Consecutive chunks
// share exactly overlap runes, so dropping the first overlap runes of every
// chunk but the first and concatenating rebuilds the input.
type Splitter struct {
	size       int
	overlap    int
	separators [][]rune
}

// New creates a Splitter. overlap must be in [0, size).
func New(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidChunking, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap must be in [0, %d), got %d", domain.ErrInvalidChunking, size, overlap)
	}

	seps := make([][]rune, len(defaultSeparators))
	for i, s := range defaultSeparators {
		seps[i] = []rune(s)
	}
	return &Splitter{size: size, overlap: overlap, separators: seps}, nil
}

// Size returns the maximum chunk length in runes.
func (s *Splitter) Size() int { return s.size }

// Overlap returns the number of runes shared by consecutive chunks.
func (s *Splitter) Overlap() int { return s.overlap }

// Split returns the ordered chunks of text. Blank input yields no chunks.
func (s *Splitter) Split(text string) []domain.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	n := len(runes)

	chunks := make([]domain.Chunk, 0, n/(s.size-s.overlap)+1)
	start := 0
	for {
		end := start + s.size
		if end >= n {
			chunks = append(chunks, domain.Chunk{Text: string(runes[start:n]), Position: len(chunks)})
			return chunks
		}

		cut := s.breakpoint(runes, start, end)
		chunks = append(chunks, domain.Chunk{Text: string(runes[start:cut]), Position: len(chunks)})
		start = cut - s.overlap
	}
}

// breakpoint picks the cut position in (start, end]. The cut never lands
// before start+overlap+1 so the next window always moves forward, and not
// before the middle of the window so chunks stay reasonably full.
func (s *Splitter) breakpoint(runes []rune, start, end int) int {
	minCut := start + s.overlap + 1
	if half := start + s.size/2; half > minCut {
		minCut = half
	}

	for _, sep := range s.separators {
		for p := end; p >= minCut; p-- {
			if hasSuffixAt(runes, p, sep) {
				return p
			}
		}
	}
	return end
}

// hasSuffixAt reports whether runes[:p] ends with sep.
func hasSuffixAt(runes []rune, p int, sep []rune) bool {
	if p < len(sep) {
		return false
	}
	for i, r := range sep {
		if runes[p-len(sep)+i] != r {
			return false
		}
	}
	return true
}

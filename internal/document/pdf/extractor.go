// Package pdf extracts plain text from PDF documents.
package pdf

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	pdfreader "github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

var pageMarkerPattern = regexp.MustCompile(`Page \d+`)

// Page is the normalised text of one page.
type Page struct {
	Number int
	Text   string
}

// Extractor reads PDF files from disk. Glyph codes are decoded through each
// font's encoding or ToUnicode CMap.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor creates an extractor. A nil logger discards diagnostics.
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// ExtractText returns the non-empty pages of the document joined by newlines.
func (e *Extractor) ExtractText(ctx context.Context, path string) (string, error) {
	pages, err := e.ExtractPages(ctx, path)
	if err != nil {
		return "", err
	}
	return JoinPages(pages), nil
}

// ExtractPages returns one entry per page in page order. Pages without text,
// or whose content cannot be decoded, have an empty Text.
func (e *Extractor) ExtractPages(ctx context.Context, path string) ([]Page, error) {
	f, r, err := pdfreader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read pdf %s: %w", path, err)
	}
	defer f.Close()

	total := r.NumPage()
	pages := make([]Page, 0, total)
	failed := 0
	for n := 1; n <= total; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := r.Page(n).GetPlainText(nil)
		if err != nil {
			failed++
			e.logger.Warn("Skipping undecodable PDF page",
				zap.String("path", path),
				zap.Int("page", n),
				zap.Error(err),
			)
		}
		pages = append(pages, Page{Number: n, Text: NormalizePage(text)})
	}

	e.logger.Debug("PDF extracted",
		zap.String("path", path),
		zap.Int("pages", total),
		zap.Int("failed_pages", failed),
	)
	return pages, nil
}

// NormalizePage collapses whitespace, drops glyphs without a Unicode mapping
// and removes "Page N" markers.
func NormalizePage(text string) string {
	text = strings.Map(func(r rune) rune {
		if r == unicode.ReplacementChar {
			return -1
		}
		return r
	}, text)
	text = strings.Join(strings.Fields(text), " ")
	text = pageMarkerPattern.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

// JoinPages concatenates page texts, one line per page. Empty pages are skipped.
func JoinPages(pages []Page) string {
	var b strings.Builder
	for _, p := range pages {
		if p.Text == "" {
			continue
		}
		b.WriteString(p.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

package chunkers

import (
	"strings"

	"github.com/custodia-labs/librarian/internal/core/domain"
	"github.com/custodia-labs/librarian/internal/core/ports/driven"
)

// DefaultRecursiveMaxTokens is the fallback splitter's token budget.
const DefaultRecursiveMaxTokens = 700

// recursiveSeparators is the granularity ladder: blank line, then line.
// Pieces still over budget after both are cut by character count.
var recursiveSeparators = []string{"\n\n", "\n"}

// Ensure RecursiveSplitter implements the interface.
var _ driven.Chunker = (*RecursiveSplitter)(nil)

// RecursiveSplitter splits on decreasing granularity until every piece
// fits the token budget, then packs adjacent pieces back together up to
// the budget. Fallback strategy for content with no structural cues.
type RecursiveSplitter struct {
	maxTokens int
}

// RecursiveOption configures the recursive splitter.
type RecursiveOption func(*RecursiveSplitter)

// WithRecursiveMaxTokens sets the per-chunk token budget.
func WithRecursiveMaxTokens(n int) RecursiveOption {
	return func(c *RecursiveSplitter) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// NewRecursive creates a recursive splitter with the given options.
func NewRecursive(opts ...RecursiveOption) *RecursiveSplitter {
	c := &RecursiveSplitter{maxTokens: DefaultRecursiveMaxTokens}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the strategy identifier.
func (c *RecursiveSplitter) Name() string { return string(domain.StrategyRecursive) }

// Chunk splits text into budget-sized drafts.
func (c *RecursiveSplitter) Chunk(text string, _ map[string]any) ([]domain.ChunkDraft, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	pieces := c.split(text, recursiveSeparators)

	var (
		drafts  []domain.ChunkDraft
		current []string
		tokens  float64
		index   int
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		drafts = append(drafts, domain.ChunkDraft{
			Content:  strings.Join(current, "\n"),
			Index:    index,
			Metadata: map[string]any{},
		})
		index++
		current = nil
		tokens = 0
	}

	for _, piece := range pieces {
		t := EstimateTokens(piece)
		if len(current) > 0 && tokens+t > float64(c.maxTokens) {
			flush()
		}
		current = append(current, piece)
		tokens += t
	}
	flush()

	return drafts, nil
}

// split recursively cuts text until every piece fits the budget. The
// word-based estimator cannot see oversized unbroken runs, so a
// character cap (~4 chars per token) backs it up.
func (c *RecursiveSplitter) split(text string, seps []string) []string {
	if EstimateTokens(text) <= float64(c.maxTokens) && len(text) <= c.maxTokens*4 {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}

	if len(seps) == 0 {
		return c.splitByChars(text)
	}

	var out []string
	for _, part := range strings.Split(text, seps[0]) {
		out = append(out, c.split(part, seps[1:])...)
	}
	return out
}

// splitByChars is the last resort for a single oversized line. The
// character limit approximates the token budget at ~4 chars per token.
func (c *RecursiveSplitter) splitByChars(text string) []string {
	limit := c.maxTokens * 4
	if limit <= 0 {
		limit = 1
	}
	var out []string
	runes := []rune(text)
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

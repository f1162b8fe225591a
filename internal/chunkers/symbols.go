package chunkers

import (
	"strings"

	"github.com/custodia-labs/librarian/internal/core/domain"
	"github.com/custodia-labs/librarian/internal/core/ports/driven"
)

// Symbol chunker defaults.
const (
	DefaultSymbolMaxTokens = 900
	DefaultMinSymbolChars  = 200
)

// symbolPrefixes mark lines that start a new symbol definition.
var symbolPrefixes = []string{"def ", "class ", "async def ", "func ", "type "}

// Ensure SymbolChunker implements the interface.
var _ driven.Chunker = (*SymbolChunker)(nil)

// SymbolChunker splits source code on function/class definitions,
// merging trivially small bodies with the following symbol to avoid
// degenerate tiny chunks. Files with no recognisable symbols fall back
// to fixed-size recursive splitting.
type SymbolChunker struct {
	maxTokens int
	minChars  int
}

// SymbolOption configures the symbol chunker.
type SymbolOption func(*SymbolChunker)

// WithSymbolMaxTokens sets the token budget used by the fallback splitter.
func WithSymbolMaxTokens(n int) SymbolOption {
	return func(c *SymbolChunker) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithMinSymbolChars sets the character floor below which a symbol body
// merges with its successor.
func WithMinSymbolChars(n int) SymbolOption {
	return func(c *SymbolChunker) {
		if n > 0 {
			c.minChars = n
		}
	}
}

// NewSymbols creates a symbol chunker with the given options.
func NewSymbols(opts ...SymbolOption) *SymbolChunker {
	c := &SymbolChunker{
		maxTokens: DefaultSymbolMaxTokens,
		minChars:  DefaultMinSymbolChars,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the strategy identifier.
func (c *SymbolChunker) Name() string { return string(domain.StrategySymbols) }

// Chunk splits code on symbol boundaries. Each draft records its
// 1-based line range and the first enclosed symbol name.
func (c *SymbolChunker) Chunk(text string, _ map[string]any) ([]domain.ChunkDraft, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	if !hasSymbols(text) {
		return c.fallback(text)
	}

	lines := strings.Split(text, "\n")
	var (
		drafts    []domain.ChunkDraft
		current   []string
		lineStart = 1
		index     int
	)

	flush := func(lineEnd int) {
		if len(current) == 0 {
			return
		}
		content := strings.Join(current, "\n")
		meta := map[string]any{
			domain.MetaLineStart: lineStart,
			domain.MetaLineEnd:   lineEnd,
		}
		if name := firstSymbolName(current); name != "" {
			meta[domain.MetaSymbol] = name
		}
		drafts = append(drafts, domain.ChunkDraft{Content: content, Index: index, Metadata: meta})
		index++
		current = nil
		lineStart = lineEnd + 1
	}

	for i, line := range lines {
		if isSymbolStart(line) && len(strings.Join(current, "\n")) > c.minChars {
			flush(i) // lines are 0-based here, i == previous line's 1-based number
		}
		current = append(current, line)
	}
	flush(len(lines))

	return drafts, nil
}

// fallback handles files with no recognisable symbols.
func (c *SymbolChunker) fallback(text string) ([]domain.ChunkDraft, error) {
	return NewRecursive(WithRecursiveMaxTokens(c.maxTokens)).Chunk(text, nil)
}

func hasSymbols(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		if isSymbolStart(line) {
			return true
		}
	}
	return false
}

func isSymbolStart(line string) bool {
	stripped := strings.TrimLeft(line, " \t")
	for _, prefix := range symbolPrefixes {
		if strings.HasPrefix(stripped, prefix) {
			return true
		}
	}
	return false
}

// firstSymbolName returns the name of the first symbol defined in the
// given lines, or empty for a preamble with no definitions.
func firstSymbolName(lines []string) string {
	for _, line := range lines {
		if !isSymbolStart(line) {
			continue
		}
		return symbolName(line)
	}
	return ""
}

// symbolName extracts the identifier from a definition line.
func symbolName(line string) string {
	rest := strings.TrimLeft(line, " \t")
	for _, prefix := range []string{"async def ", "def ", "class ", "func ", "type "} {
		if strings.HasPrefix(rest, prefix) {
			rest = strings.TrimPrefix(rest, prefix)
			break
		}
	}
	// Skip a Go method receiver.
	if strings.HasPrefix(rest, "(") {
		if end := strings.Index(rest, ")"); end >= 0 {
			rest = strings.TrimLeft(rest[end+1:], " ")
		}
	}
	end := strings.IndexAny(rest, "(:[{ \t")
	if end == -1 {
		return rest
	}
	return rest[:end]
}

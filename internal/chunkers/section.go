package chunkers

import (
	"strings"

	"github.com/custodia-labs/librarian/internal/core/domain"
	"github.com/custodia-labs/librarian/internal/core/ports/driven"
)

// Section chunker defaults.
const (
	DefaultMaxTokens     = 700
	DefaultOverlapTokens = 80
)

// Ensure SectionChunker implements the interface.
var _ driven.Chunker = (*SectionChunker)(nil)

// SectionChunker splits long-form documents on structural boundaries
// (page breaks, paragraph breaks), then greedily packs paragraphs into
// chunks up to an estimated token budget. A new chunk is seeded with a
// trailing overlap from the previous one so a search hit near a
// boundary still retrieves surrounding meaning.
type SectionChunker struct {
	maxTokens     int
	overlapTokens int
}

// SectionOption configures the section chunker.
type SectionOption func(*SectionChunker)

// WithMaxTokens sets the per-chunk token budget.
func WithMaxTokens(n int) SectionOption {
	return func(c *SectionChunker) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithOverlapTokens sets the target overlap between adjacent chunks.
func WithOverlapTokens(n int) SectionOption {
	return func(c *SectionChunker) {
		if n >= 0 {
			c.overlapTokens = n
		}
	}
}

// NewSection creates a section chunker with the given options.
func NewSection(opts ...SectionOption) *SectionChunker {
	c := &SectionChunker{
		maxTokens:     DefaultMaxTokens,
		overlapTokens: DefaultOverlapTokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlapTokens >= c.maxTokens {
		c.overlapTokens = c.maxTokens / 4
	}
	return c
}

// Name returns the strategy identifier.
func (c *SectionChunker) Name() string { return string(domain.StrategySection) }

// paragraph is one structural unit with its 1-based source page.
type paragraph struct {
	text string
	page int
}

// Chunk splits text into packed, overlapping drafts. Page boundaries
// (form feeds inserted by the extraction lane) are hard chunk
// boundaries; paragraph packing happens within a page.
func (c *SectionChunker) Chunk(text string, metadata map[string]any) ([]domain.ChunkDraft, error) {
	paras := splitParagraphs(text)
	if len(paras) == 0 {
		return nil, nil
	}

	ocrPages := ocrPageSet(metadata)

	var (
		drafts  []domain.ChunkDraft
		overlap []paragraph
		fresh   []paragraph
		tokens  float64
		index   int
	)

	flush := func() {
		if len(fresh) == 0 {
			return
		}
		all := make([]string, 0, len(overlap)+len(fresh))
		for _, p := range overlap {
			all = append(all, p.text)
		}
		for _, p := range fresh {
			all = append(all, p.text)
		}

		meta := map[string]any{domain.MetaPage: fresh[0].page}
		for _, p := range fresh {
			if ocrPages[p.page] {
				meta[domain.MetaOCR] = true
				break
			}
		}

		drafts = append(drafts, domain.ChunkDraft{
			Content:  strings.Join(all, "\n\n"),
			Index:    index,
			Metadata: meta,
		})
		index++

		overlap = tailParagraphs(append(overlap, fresh...), c.overlapTokens)
		fresh = nil
		tokens = 0
		for _, p := range overlap {
			tokens += EstimateTokens(p.text)
		}
	}

	for _, para := range paras {
		paraTokens := EstimateTokens(para.text)
		if len(fresh) > 0 {
			overBudget := tokens+paraTokens > float64(c.maxTokens)
			pageBreak := para.page != fresh[len(fresh)-1].page
			if overBudget || pageBreak {
				flush()
			}
		}
		fresh = append(fresh, para)
		tokens += paraTokens
	}
	flush()

	return drafts, nil
}

// splitParagraphs breaks text into paragraphs, tracking source pages
// across form feeds.
func splitParagraphs(text string) []paragraph {
	var paras []paragraph
	for pageNum, pageText := range strings.Split(text, "\f") {
		for _, p := range strings.Split(pageText, "\n\n") {
			if strings.TrimSpace(p) == "" {
				continue
			}
			paras = append(paras, paragraph{text: strings.TrimRight(p, "\n"), page: pageNum + 1})
		}
	}
	return paras
}

// tailParagraphs works backwards through paragraphs collecting as many
// whole paragraphs as fit within the target token budget.
func tailParagraphs(paras []paragraph, targetTokens int) []paragraph {
	if len(paras) == 0 || targetTokens <= 0 {
		return nil
	}
	var (
		tail   []paragraph
		tokens float64
	)
	for i := len(paras) - 1; i >= 0; i-- {
		t := EstimateTokens(paras[i].text)
		if tokens+t > float64(targetTokens) {
			break
		}
		tail = append([]paragraph{paras[i]}, tail...)
		tokens += t
	}
	return tail
}

// ocrPageSet reads the extraction lane's OCR page list from metadata.
func ocrPageSet(metadata map[string]any) map[int]bool {
	set := make(map[int]bool)
	if metadata == nil {
		return set
	}
	switch pages := metadata["ocr_pages"].(type) {
	case []int:
		for _, p := range pages {
			set[p] = true
		}
	case []any:
		for _, v := range pages {
			if p, ok := v.(int); ok {
				set[p] = true
			}
			if p, ok := v.(float64); ok {
				set[int(p)] = true
			}
		}
	}
	return set
}

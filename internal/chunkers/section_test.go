package chunkers

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/librarian/internal/core/domain"
)

// longDocument builds n paragraphs of w words each.
func longDocument(n, w int) string {
	paras := make([]string, n)
	for i := range paras {
		words := make([]string, w)
		for j := range words {
			words[j] = fmt.Sprintf("word%d-%d", i, j)
		}
		paras[i] = strings.Join(words, " ")
	}
	return strings.Join(paras, "\n\n")
}

func TestSectionChunker_Empty(t *testing.T) {
	c := NewSection()

	drafts, err := c.Chunk("", nil)
	require.NoError(t, err)
	assert.Empty(t, drafts)

	drafts, err = c.Chunk("\n\n  \n\n", nil)
	require.NoError(t, err)
	assert.Empty(t, drafts)
}

func TestSectionChunker_SingleChunkUnderBudget(t *testing.T) {
	c := NewSection()

	drafts, err := c.Chunk("First paragraph.\n\nSecond paragraph.", nil)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, 0, drafts[0].Index)
	assert.Equal(t, 1, drafts[0].Metadata[domain.MetaPage])
	assert.Contains(t, drafts[0].Content, "First paragraph.")
	assert.Contains(t, drafts[0].Content, "Second paragraph.")
}

func TestSectionChunker_RespectsBudget(t *testing.T) {
	c := NewSection(WithMaxTokens(100), WithOverlapTokens(20))

	drafts, err := c.Chunk(longDocument(20, 20), nil)
	require.NoError(t, err)
	require.Greater(t, len(drafts), 1)

	// Each chunk stays within the budget plus one paragraph of
	// overflow tolerance (the estimator is a heuristic).
	paraTokens := 20 * wordsToTokensRatio
	for _, d := range drafts {
		assert.LessOrEqual(t, EstimateTokens(d.Content), 100+paraTokens+float64(20))
	}

	// Ordinals strictly increase from zero.
	for i, d := range drafts {
		assert.Equal(t, i, d.Index)
	}
}

func TestSectionChunker_OverlapSharedText(t *testing.T) {
	c := NewSection(WithMaxTokens(60), WithOverlapTokens(15))

	drafts, err := c.Chunk(longDocument(12, 10), nil)
	require.NoError(t, err)
	require.Greater(t, len(drafts), 1)

	for i := 0; i < len(drafts)-1; i++ {
		tail := drafts[i].Content
		head := drafts[i+1].Content
		// The next chunk is seeded with the previous chunk's trailing
		// paragraph(s).
		paras := strings.Split(tail, "\n\n")
		last := paras[len(paras)-1]
		assert.True(t, strings.HasPrefix(head, last),
			"chunk %d head should start with chunk %d tail", i+1, i)
	}
}

func TestSectionChunker_NoOverlapWhenZero(t *testing.T) {
	c := NewSection(WithMaxTokens(60), WithOverlapTokens(0))

	drafts, err := c.Chunk(longDocument(12, 10), nil)
	require.NoError(t, err)
	require.Greater(t, len(drafts), 1)

	// With zero overlap every paragraph appears exactly once.
	joined := strings.Join(draftContents(drafts), "\n\n")
	for i := 0; i < 12; i++ {
		marker := fmt.Sprintf("word%d-0 ", i)
		assert.Equal(t, 1, strings.Count(joined, marker), marker)
	}
}

func TestSectionChunker_Deterministic(t *testing.T) {
	c := NewSection(WithMaxTokens(80), WithOverlapTokens(20))
	doc := longDocument(15, 12)

	a, err := c.Chunk(doc, nil)
	require.NoError(t, err)
	b, err := c.Chunk(doc, nil)
	require.NoError(t, err)

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Content, b[i].Content)
		assert.Equal(t, a[i].Index, b[i].Index)
	}
}

func TestSectionChunker_PageBoundariesAndOCRTag(t *testing.T) {
	c := NewSection()
	text := "Hello world\fGoodbye world"
	meta := map[string]any{"ocr_pages": []int{2}}

	drafts, err := c.Chunk(text, meta)
	require.NoError(t, err)
	require.Len(t, drafts, 2)

	assert.Equal(t, 1, drafts[0].Metadata[domain.MetaPage])
	assert.NotContains(t, drafts[0].Metadata, domain.MetaOCR)

	assert.Equal(t, 2, drafts[1].Metadata[domain.MetaPage])
	assert.Equal(t, true, drafts[1].Metadata[domain.MetaOCR])
	assert.Contains(t, drafts[1].Content, "Goodbye world")
}

func draftContents(drafts []domain.ChunkDraft) []string {
	out := make([]string, len(drafts))
	for i, d := range drafts {
		out[i] = d.Content
	}
	return out
}

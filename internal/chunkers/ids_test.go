package chunkers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/librarian/internal/core/domain"
)

func TestChunkID_Deterministic(t *testing.T) {
	a := ChunkID("abc123", "section", 0)
	b := ChunkID("abc123", "section", 0)
	assert.Equal(t, a, b)

	_, err := uuid.Parse(a)
	require.NoError(t, err)
}

func TestChunkID_DistinctInputs(t *testing.T) {
	base := ChunkID("abc123", "section", 0)

	assert.NotEqual(t, base, ChunkID("abc123", "section", 1))
	assert.NotEqual(t, base, ChunkID("abc123", "symbols", 0))
	assert.NotEqual(t, base, ChunkID("def456", "section", 0))
}

func TestMaterialize(t *testing.T) {
	drafts := []domain.ChunkDraft{
		{Content: "one", Index: 0, Metadata: map[string]any{domain.MetaPage: 1}},
		{Content: "two", Index: 1, Metadata: map[string]any{domain.MetaPage: 2}},
	}

	chunks := Materialize(drafts, "hash1", "papers", "section")
	require.Len(t, chunks, 2)

	for i, c := range chunks {
		assert.Equal(t, ChunkID("hash1", "section", i), c.ID)
		assert.Equal(t, "hash1", c.FileHash)
		assert.Equal(t, "papers", c.CorpusID)
		assert.Equal(t, i, c.Index)
	}
	assert.Equal(t, "one", chunks[0].Content)
	assert.Equal(t, 1, chunks[0].Metadata[domain.MetaPage])
}

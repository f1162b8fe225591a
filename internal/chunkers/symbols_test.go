package chunkers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/librarian/internal/core/domain"
)

const pythonSource = `"""Module docstring."""
import os

def first(a, b):
    # A body long enough that the next symbol starts a new chunk. The
    # padding below pushes it past the minimum character floor.
    x = a + b
    y = x * 2
    z = " padding padding padding padding padding padding padding "
    return y + len(z)

def second(c):
    return c - 1
`

const goSource = `package store

func NewStore(path string) *Store {
	// enough body text to clear the character floor for the following
	// definition, padding padding padding padding padding padding
	// padding padding padding padding padding padding padding padding
	return &Store{path: path}
}

func (s *Store) Save(rec Record) error {
	return nil
}
`

func TestSymbolChunker_SplitsOnDefinitions(t *testing.T) {
	c := NewSymbols(WithMinSymbolChars(100))

	drafts, err := c.Chunk(pythonSource, nil)
	require.NoError(t, err)
	require.Len(t, drafts, 2)

	assert.Contains(t, drafts[0].Content, "def first")
	assert.Contains(t, drafts[1].Content, "def second")
	assert.Equal(t, "first", drafts[0].Metadata[domain.MetaSymbol])
	assert.Equal(t, "second", drafts[1].Metadata[domain.MetaSymbol])

	// Line ranges are 1-based, contiguous, and cover the file.
	assert.Equal(t, 1, drafts[0].Metadata[domain.MetaLineStart])
	end0 := drafts[0].Metadata[domain.MetaLineEnd].(int)
	assert.Equal(t, end0+1, drafts[1].Metadata[domain.MetaLineStart])
	assert.Equal(t, len(strings.Split(pythonSource, "\n")), drafts[1].Metadata[domain.MetaLineEnd])
}

func TestSymbolChunker_GoMethodReceiver(t *testing.T) {
	c := NewSymbols(WithMinSymbolChars(100))

	drafts, err := c.Chunk(goSource, nil)
	require.NoError(t, err)
	require.Len(t, drafts, 2)

	assert.Equal(t, "NewStore", drafts[0].Metadata[domain.MetaSymbol])
	assert.Equal(t, "Save", drafts[1].Metadata[domain.MetaSymbol])
}

func TestSymbolChunker_MergesSmallBodies(t *testing.T) {
	// With a high floor, the first body is too small to stand alone
	// and merges with the following symbol.
	c := NewSymbols(WithMinSymbolChars(10_000))

	drafts, err := c.Chunk(pythonSource, nil)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Contains(t, drafts[0].Content, "def first")
	assert.Contains(t, drafts[0].Content, "def second")
}

func TestSymbolChunker_FallbackWithoutSymbols(t *testing.T) {
	c := NewSymbols(WithSymbolMaxTokens(20))

	text := strings.Repeat("plain line with several words here\n", 30)
	drafts, err := c.Chunk(text, nil)
	require.NoError(t, err)
	require.Greater(t, len(drafts), 1)

	for i, d := range drafts {
		assert.Equal(t, i, d.Index)
		assert.NotContains(t, d.Metadata, domain.MetaSymbol)
	}
}

func TestSymbolChunker_Empty(t *testing.T) {
	c := NewSymbols()
	drafts, err := c.Chunk("  \n\t\n", nil)
	require.NoError(t, err)
	assert.Empty(t, drafts)
}

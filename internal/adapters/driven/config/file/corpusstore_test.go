package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/librarian/internal/core/domain"
)

func writeCorpusFile(t *testing.T, root, id, content string) {
	t.Helper()
	dir := filepath.Join(root, "corpora", id)
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "corpus.yaml"), []byte(content), 0o600))
}

func TestCorpusStore_Get(t *testing.T) {
	root := t.TempDir()
	writeCorpusFile(t, root, "handbook", `
description: Company handbook
source_dir: /data/handbook
chunking:
  strategy: section
  max_tokens: 500
  overlap_tokens: 50
answer:
  provider: ollama
  model: llama3.2
retain_on_missing: true
max_retries: 5
`)

	store := NewCorpusStore(root)
	corpus, err := store.Get(context.Background(), "handbook")
	require.NoError(t, err)
	assert.Equal(t, "handbook", corpus.ID)
	assert.Equal(t, "Company handbook", corpus.Description)
	assert.Equal(t, "/data/handbook", corpus.SourceDir)
	assert.Equal(t, domain.StrategySection, corpus.Chunking.Strategy)
	assert.Equal(t, 500, corpus.Chunking.MaxTokens)
	assert.Equal(t, "llama3.2", corpus.Answer.Model)
	assert.True(t, corpus.RetainOnMissing)
	assert.Equal(t, 5, corpus.MaxRetries)
}

func TestCorpusStore_Get_DefaultSourceDir(t *testing.T) {
	root := t.TempDir()
	writeCorpusFile(t, root, "notes", "description: Notes\n")

	store := NewCorpusStore(root)
	corpus, err := store.Get(context.Background(), "notes")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "corpora", "notes", "source"), corpus.SourceDir)
}

func TestCorpusStore_Get_NotFound(t *testing.T) {
	store := NewCorpusStore(t.TempDir())
	_, err := store.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCorpusStore_Get_InvalidID(t *testing.T) {
	store := NewCorpusStore(t.TempDir())
	_, err := store.Get(context.Background(), "../escape")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCorpusStore_List(t *testing.T) {
	root := t.TempDir()
	writeCorpusFile(t, root, "beta", "description: B\n")
	writeCorpusFile(t, root, "alpha", "description: A\n")

	// Directories without a definition are skipped.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "corpora", "empty"), 0o700))

	store := NewCorpusStore(root)
	corpora, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, corpora, 2)
	assert.Equal(t, "alpha", corpora[0].ID)
	assert.Equal(t, "beta", corpora[1].ID)
}

func TestCorpusStore_List_NoRoot(t *testing.T) {
	store := NewCorpusStore(filepath.Join(t.TempDir(), "missing"))
	corpora, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, corpora)
}

func TestCorpusStore_SaveRoundTrip(t *testing.T) {
	root := t.TempDir()
	store := NewCorpusStore(root)

	in := domain.Corpus{
		ID:          "research",
		Description: "Research papers",
		SourceDir:   "/data/papers",
		Chunking:    domain.ChunkingConfig{Strategy: domain.StrategyRecursive},
	}
	require.NoError(t, store.Save(context.Background(), in))

	out, err := store.Get(context.Background(), "research")
	require.NoError(t, err)
	assert.Equal(t, in.Description, out.Description)
	assert.Equal(t, in.SourceDir, out.SourceDir)
	assert.Equal(t, domain.StrategyRecursive, out.Chunking.Strategy)
}

func TestCorpusStore_Save_InvalidID(t *testing.T) {
	store := NewCorpusStore(t.TempDir())
	err := store.Save(context.Background(), domain.Corpus{ID: "bad id!"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/librarian/internal/core/domain"
)

// mockCorpusStore implements driven.CorpusStore for testing.
type mockCorpusStore struct {
	corpora map[string]domain.Corpus
}

func (m *mockCorpusStore) Get(_ context.Context, id string) (*domain.Corpus, error) {
	corpus, ok := m.corpora[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &corpus, nil
}

func (m *mockCorpusStore) List(_ context.Context) ([]domain.Corpus, error) {
	var out []domain.Corpus
	for _, c := range m.corpora {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCorpusStore) Save(_ context.Context, corpus domain.Corpus) error {
	m.corpora[corpus.ID] = corpus
	return nil
}

func setupCorpusTest() (*mockCorpusStore, func()) {
	old := corpusStore
	mock := &mockCorpusStore{corpora: make(map[string]domain.Corpus)}
	corpusStore = mock
	corpusSource = ""
	corpusDescription = ""
	corpusStrategy = ""
	corpusRetain = false
	return mock, func() {
		corpusStore = old
	}
}

func TestCorpusCmd_ListEmpty(t *testing.T) {
	_, cleanup := setupCorpusTest()
	defer cleanup()

	out, err := execute("corpus", "list")
	assert.NoError(t, err)
	assert.Contains(t, out, "No corpora configured")
}

func TestCorpusCmd_List(t *testing.T) {
	mock, cleanup := setupCorpusTest()
	defer cleanup()
	mock.corpora["handbook"] = domain.Corpus{
		ID:          "handbook",
		SourceDir:   "/docs/handbook",
		Description: "Employee handbook",
	}

	out, err := execute("corpus", "list")
	assert.NoError(t, err)
	assert.Contains(t, out, "handbook")
	assert.Contains(t, out, "/docs/handbook")
	assert.Contains(t, out, "Employee handbook")
}

func TestCorpusCmd_Add(t *testing.T) {
	mock, cleanup := setupCorpusTest()
	defer cleanup()

	out, err := execute("corpus", "add", "handbook",
		"--source", "/docs/handbook",
		"--description", "Employee handbook",
		"--strategy", "section",
		"--retain-on-missing")
	assert.NoError(t, err)
	assert.Contains(t, out, "Corpus handbook registered.")

	saved, ok := mock.corpora["handbook"]
	require.True(t, ok)
	assert.Equal(t, "/docs/handbook", saved.SourceDir)
	assert.Equal(t, "Employee handbook", saved.Description)
	assert.Equal(t, domain.StrategySection, saved.Chunking.Strategy)
	assert.True(t, saved.RetainOnMissing)
}

func TestCorpusCmd_AddInvalidID(t *testing.T) {
	_, cleanup := setupCorpusTest()
	defer cleanup()

	_, err := execute("corpus", "add", "bad/id")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCorpusCmd_StoreNotConfigured(t *testing.T) {
	old := corpusStore
	corpusStore = nil
	defer func() { corpusStore = old }()

	_, err := execute("corpus", "list")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

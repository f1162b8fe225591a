package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/librarian/internal/core/domain"
	"github.com/custodia-labs/librarian/internal/core/ports/driven"
)

// corpusFileName is the definition file inside each corpus directory.
const corpusFileName = "corpus.yaml"

// Ensure CorpusStore implements the interface.
var _ driven.CorpusStore = (*CorpusStore)(nil)

// CorpusStore reads corpus definitions from
// <library_root>/corpora/<id>/corpus.yaml.
type CorpusStore struct {
	root string
}

// NewCorpusStore creates a corpus store rooted at libraryRoot.
func NewCorpusStore(libraryRoot string) *CorpusStore {
	return &CorpusStore{root: filepath.Join(libraryRoot, "corpora")}
}

// Get returns one corpus by id.
func (s *CorpusStore) Get(_ context.Context, id string) (*domain.Corpus, error) {
	if err := domain.ValidateCorpusID(id); err != nil {
		return nil, err
	}

	path := filepath.Join(s.root, id, corpusFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("corpus %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var corpus domain.Corpus
	if err := yaml.Unmarshal(data, &corpus); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	// The directory name is authoritative for the id.
	corpus.ID = id
	if corpus.SourceDir == "" {
		corpus.SourceDir = filepath.Join(s.root, id, "source")
	}
	return &corpus, nil
}

// List returns all configured corpora, sorted by directory name.
func (s *CorpusStore) List(ctx context.Context) ([]domain.Corpus, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", s.root, err)
	}

	var corpora []domain.Corpus
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		corpus, err := s.Get(ctx, entry.Name())
		if err != nil {
			// Directories without a definition file are skipped.
			continue
		}
		corpora = append(corpora, *corpus)
	}
	return corpora, nil
}

// Save persists a corpus definition, creating its directory tree.
func (s *CorpusStore) Save(_ context.Context, corpus domain.Corpus) error {
	if err := domain.ValidateCorpusID(corpus.ID); err != nil {
		return err
	}

	dir := filepath.Join(s.root, corpus.ID)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating corpus directory: %w", err)
	}

	data, err := yaml.Marshal(corpus)
	if err != nil {
		return fmt.Errorf("encoding corpus: %w", err)
	}

	path := filepath.Join(dir, corpusFileName)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

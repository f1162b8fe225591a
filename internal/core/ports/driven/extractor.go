package driven

import (
	"context"

	"github.com/custodia-labs/librarian/internal/core/domain"
)

// ExtractResult is the output of the extraction lane: plain text plus
// extraction metadata (page counts, OCR usage, title/author).
// Page boundaries in Text are marked with form feeds.
type ExtractResult struct {
	Text     string
	Metadata map[string]any
}

// Extractor converts a file's bytes into plain text according to its
// content class.
type Extractor interface {
	Extract(ctx context.Context, path string, class domain.ContentClass) (*ExtractResult, error)
}

// Chunker splits extracted text into ordered, bounded drafts with
// lineage metadata. Implementations must be deterministic: identical
// input and config reproduce an identical draft sequence.
type Chunker interface {
	// Name returns the strategy identifier used in chunk id derivation.
	Name() string

	// Chunk splits text into drafts. The metadata map carries
	// extraction facts the chunker may use for lineage (page breaks).
	Chunk(text string, metadata map[string]any) ([]domain.ChunkDraft, error)
}

// CorpusStore supplies corpus definitions with resolved settings.
// The core only reads resolved values; parsing lives in the adapter.
type CorpusStore interface {
	// Get returns one corpus by id, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Corpus, error)

	// List returns all configured corpora.
	List(ctx context.Context) ([]domain.Corpus, error)

	// Save persists a corpus definition.
	Save(ctx context.Context, corpus domain.Corpus) error
}

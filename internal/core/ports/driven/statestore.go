package driven

import (
	"context"

	"github.com/custodia-labs/librarian/internal/core/domain"
)

// StateStore is the single writer of truth for file records, chunks,
// sources, and ingest jobs. Implementations must serialize writes per
// file record while allowing concurrent reads; the authoritative copy of
// chunk text lives here, the vector store holds a rebuildable derivative.
type StateStore interface {
	// GetFile retrieves a file record by content hash.
	// Returns domain.ErrNotFound when the hash is unknown.
	GetFile(ctx context.Context, hash string) (*domain.FileRecord, error)

	// SaveFile inserts or updates a file record keyed by hash.
	SaveFile(ctx context.Context, rec *domain.FileRecord) error

	// ListFiles returns all file records for a corpus.
	ListFiles(ctx context.Context, corpusID string) ([]domain.FileRecord, error)

	// ReplaceChunks atomically replaces the chunk set for a file.
	// Stale chunk ids from a prior chunking must not survive.
	ReplaceChunks(ctx context.Context, fileHash string, chunks []domain.Chunk) error

	// GetChunks returns the chunk set for a file ordered by index.
	GetChunks(ctx context.Context, fileHash string) ([]domain.Chunk, error)

	// SaveSource records a corpus registration (description + config
	// snapshot). Idempotent per source id.
	SaveSource(ctx context.Context, src *domain.Source) error

	// ListSources returns all registered sources.
	ListSources(ctx context.Context) ([]domain.Source, error)

	// CreateJob records the start of an ingest run.
	CreateJob(ctx context.Context, job *domain.IngestJob) error

	// FinishJob finalises a run. Finished jobs are never mutated again.
	FinishJob(ctx context.Context, job *domain.IngestJob) error

	// ListJobs returns the most recent jobs for a corpus, newest first.
	ListJobs(ctx context.Context, corpusID string, limit int) ([]domain.IngestJob, error)

	// Close releases resources.
	Close() error
}

package driving

import (
	"context"

	"github.com/custodia-labs/librarian/internal/core/domain"
)

// IngestStatus describes the ingest state of a corpus.
type IngestStatus struct {
	CorpusID string

	// Running is true while a run holds the corpus lock.
	Running bool

	// Counts groups known files by status.
	Counts map[domain.FileStatus]int

	// DeadLetters are files failed past the retry ceiling, requiring
	// operator intervention.
	DeadLetters []domain.FileRecord

	// LastJob is the most recent ingest job, if any.
	LastJob *domain.IngestJob
}

// IngestOrchestrator drives ingestion runs.
type IngestOrchestrator interface {
	// RunOnce executes one ingestion run for a corpus: scan, dedupe,
	// extract, chunk, embed, upsert, record. Returns
	// domain.ErrRunInProgress if the corpus is already being ingested.
	RunOnce(ctx context.Context, corpusID string) (*domain.RunSummary, error)

	// RunAll runs every configured corpus sequentially and returns the
	// per-corpus summaries for those that ran.
	RunAll(ctx context.Context) (map[string]*domain.RunSummary, error)

	// Status reports the ingest state of a corpus.
	Status(ctx context.Context, corpusID string) (*IngestStatus, error)
}

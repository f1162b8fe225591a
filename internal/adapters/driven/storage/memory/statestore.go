// Package memory provides in-memory implementations of the driven
// storage ports, used by service tests and for ephemeral runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/librarian/internal/core/domain"
	"github.com/custodia-labs/librarian/internal/core/ports/driven"
)

// Ensure StateStore implements the interface.
var _ driven.StateStore = (*StateStore)(nil)

// StateStore is an in-memory implementation of driven.StateStore.
type StateStore struct {
	mu      sync.RWMutex
	files   map[string]domain.FileRecord
	chunks  map[string][]domain.Chunk
	sources map[string]domain.Source
	jobs    map[string]domain.IngestJob
}

// NewStateStore creates a new in-memory state store.
func NewStateStore() *StateStore {
	return &StateStore{
		files:   make(map[string]domain.FileRecord),
		chunks:  make(map[string][]domain.Chunk),
		sources: make(map[string]domain.Source),
		jobs:    make(map[string]domain.IngestJob),
	}
}

// GetFile retrieves a file record by content hash.
func (s *StateStore) GetFile(_ context.Context, hash string) (*domain.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.files[hash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// SaveFile inserts or updates a file record keyed by hash.
func (s *StateStore) SaveFile(_ context.Context, rec *domain.FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	s.files[rec.Hash] = *rec
	return nil
}

// ListFiles returns all file records for a corpus, ordered by path.
func (s *StateStore) ListFiles(_ context.Context, corpusID string) ([]domain.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var records []domain.FileRecord
	for _, rec := range s.files {
		if rec.CorpusID == corpusID {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })
	return records, nil
}

// ReplaceChunks atomically replaces the chunk set for a file.
func (s *StateStore) ReplaceChunks(_ context.Context, fileHash string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]domain.Chunk, len(chunks))
	copy(copied, chunks)
	sort.Slice(copied, func(i, j int) bool { return copied[i].Index < copied[j].Index })
	s.chunks[fileHash] = copied
	return nil
}

// GetChunks returns the chunk set for a file ordered by index.
func (s *StateStore) GetChunks(_ context.Context, fileHash string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.chunks[fileHash]
	chunks := make([]domain.Chunk, len(stored))
	copy(chunks, stored)
	return chunks, nil
}

// SaveSource stores or updates a corpus registration.
func (s *StateStore) SaveSource(_ context.Context, src *domain.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if src.CreatedAt.IsZero() {
		src.CreatedAt = now
	}
	src.UpdatedAt = now
	s.sources[src.ID] = *src
	return nil
}

// ListSources returns all registered sources ordered by id.
func (s *StateStore) ListSources(_ context.Context) ([]domain.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sources []domain.Source
	for _, src := range s.sources {
		sources = append(sources, src)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].ID < sources[j].ID })
	return sources, nil
}

// CreateJob records the start of an ingest run.
func (s *StateStore) CreateJob(_ context.Context, job *domain.IngestJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		return domain.ErrAlreadyExists
	}
	s.jobs[job.ID] = *job
	return nil
}

// FinishJob finalises a run.
func (s *StateStore) FinishJob(_ context.Context, job *domain.IngestJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.jobs[job.ID]
	if !ok || !existing.FinishedAt.IsZero() {
		return domain.ErrNotFound
	}
	s.jobs[job.ID] = *job
	return nil
}

// ListJobs returns the most recent jobs for a corpus, newest first.
func (s *StateStore) ListJobs(_ context.Context, corpusID string, limit int) ([]domain.IngestJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var jobs []domain.IngestJob
	for _, job := range s.jobs {
		if job.CorpusID == corpusID {
			jobs = append(jobs, job)
		}
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].StartedAt.After(jobs[j].StartedAt) })
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

// Close is a no-op for the in-memory store.
func (s *StateStore) Close() error {
	return nil
}

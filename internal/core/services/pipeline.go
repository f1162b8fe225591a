package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/librarian/internal/chunkers"
	"github.com/custodia-labs/librarian/internal/core/domain"
	"github.com/custodia-labs/librarian/internal/core/ports/driven"
	"github.com/custodia-labs/librarian/internal/core/ports/driving"
	"github.com/custodia-labs/librarian/internal/hashing"
	"github.com/custodia-labs/librarian/internal/logger"
)

// Default pipeline tuning values.
const (
	DefaultWorkers        = 4
	DefaultMaxRetries     = 3
	DefaultEmbedBatchSize = 32
)

// Ensure Pipeline implements the interface.
var _ driving.IngestOrchestrator = (*Pipeline)(nil)

// PipelineConfig tunes the ingest pipeline.
type PipelineConfig struct {
	// Workers bounds files processed in parallel.
	Workers int

	// MaxRetries is the failure ceiling before a file becomes a dead
	// letter. Corpora may override it.
	MaxRetries int

	// EmbedBatchSize bounds texts per embedding request.
	EmbedBatchSize int
}

// Pipeline coordinates ingestion: scan, hash, extract, chunk, embed,
// upsert, record. File identity is the content hash, so renames and
// re-runs are cheap and chunk ids are stable.
type Pipeline struct {
	corpora   driven.CorpusStore
	store     driven.StateStore
	vectors   driven.VectorStore
	embedder  driven.EmbeddingService
	extractor driven.Extractor
	registry  *chunkers.Registry
	cfg       PipelineConfig

	// Run lock, one holder per corpus.
	mu         sync.Mutex
	activeRuns map[string]bool
}

// NewPipeline creates an ingest pipeline.
func NewPipeline(
	corpora driven.CorpusStore,
	store driven.StateStore,
	vectors driven.VectorStore,
	embedder driven.EmbeddingService,
	extractor driven.Extractor,
	registry *chunkers.Registry,
	cfg PipelineConfig,
) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = DefaultEmbedBatchSize
	}

	return &Pipeline{
		corpora:    corpora,
		store:      store,
		vectors:    vectors,
		embedder:   embedder,
		extractor:  extractor,
		registry:   registry,
		cfg:        cfg,
		activeRuns: make(map[string]bool),
	}
}

// workItem is one file claimed by a run. Files with identical bytes
// collapse into a single item; extra paths ride along for the record.
type workItem struct {
	path     string
	hash     string
	class    domain.ContentClass
	size     int64
	modified time.Time
}

// runCounters accumulates the run summary across workers.
type runCounters struct {
	mu      sync.Mutex
	summary domain.RunSummary
}

func (c *runCounters) add(outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch outcome {
	case "succeeded":
		c.summary.Succeeded++
	case "failed":
		c.summary.Failed++
	case "skipped":
		c.summary.Skipped++
	}
}

// RunOnce executes one ingestion run for a corpus.
func (p *Pipeline) RunOnce(ctx context.Context, corpusID string) (*domain.RunSummary, error) {
	// 1. Resolve the corpus definition
	corpus, err := p.corpora.Get(ctx, corpusID)
	if err != nil {
		return nil, fmt.Errorf("get corpus: %w", err)
	}

	// 2. Acquire the per-corpus run lock
	if !p.acquire(corpusID) {
		return nil, fmt.Errorf("corpus %s: %w", corpusID, domain.ErrRunInProgress)
	}
	defer p.release(corpusID)

	// 3. Snapshot the corpus registration for audit
	if err := p.store.SaveSource(ctx, &domain.Source{
		ID:          corpus.ID,
		Description: corpus.Description,
		Config: map[string]any{
			"source_dir":        corpus.SourceDir,
			"chunk_strategy":    string(corpus.Chunking.Strategy),
			"retain_on_missing": corpus.RetainOnMissing,
		},
	}); err != nil {
		return nil, fmt.Errorf("save source: %w", err)
	}

	// 4. Open the job record
	job := &domain.IngestJob{
		ID:        uuid.NewString(),
		CorpusID:  corpus.ID,
		StartedAt: time.Now().UTC(),
		Status:    domain.JobRunning,
	}
	if err := p.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	logger.Section("Ingest " + corpus.ID)

	// 5. Scan and hash the source directory
	items, scanned, err := p.scan(ctx, corpus)
	counters := &runCounters{}
	counters.summary.Scanned = scanned
	if err == nil {
		// Duplicate content collapses to one item; the extras count
		// as skipped.
		counters.summary.Skipped += scanned - len(items)

		// 6. Process files with bounded parallelism
		err = p.processAll(ctx, corpus, items, counters)
	}

	// 7. Reconcile records whose files left the disk
	if err == nil {
		seen := make(map[string]bool, len(items))
		for _, item := range items {
			seen[item.hash] = true
		}
		err = p.reconcileMissing(ctx, corpus, seen)
	}

	// 8. Close the job record
	job.FinishedAt = time.Now().UTC()
	job.Summary = counters.summary
	job.Status = domain.JobCompleted
	if err != nil {
		job.Status = domain.JobAborted
	}
	if finishErr := p.store.FinishJob(ctx, job); finishErr != nil {
		logger.Warn("Failed to finalise job %s: %v", job.ID, finishErr)
	}

	if err != nil {
		return nil, err
	}

	logger.Info("Ingest complete: %d scanned, %d succeeded, %d failed, %d skipped",
		counters.summary.Scanned, counters.summary.Succeeded,
		counters.summary.Failed, counters.summary.Skipped)

	summary := counters.summary
	return &summary, nil
}

// RunAll runs every configured corpus sequentially. Corpora already
// being ingested are skipped; other failures abort their corpus but
// not the rest.
func (p *Pipeline) RunAll(ctx context.Context) (map[string]*domain.RunSummary, error) {
	corpora, err := p.corpora.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list corpora: %w", err)
	}

	summaries := make(map[string]*domain.RunSummary)
	var errs []error
	for _, corpus := range corpora {
		summary, err := p.RunOnce(ctx, corpus.ID)
		if err != nil {
			if errors.Is(err, domain.ErrRunInProgress) {
				logger.Warn("Corpus %s already running, skipped", corpus.ID)
				continue
			}
			errs = append(errs, fmt.Errorf("corpus %s: %w", corpus.ID, err))
			continue
		}
		summaries[corpus.ID] = summary
	}
	return summaries, errors.Join(errs...)
}

// Status reports the ingest state of a corpus.
func (p *Pipeline) Status(ctx context.Context, corpusID string) (*driving.IngestStatus, error) {
	corpus, err := p.corpora.Get(ctx, corpusID)
	if err != nil {
		return nil, fmt.Errorf("get corpus: %w", err)
	}

	records, err := p.store.ListFiles(ctx, corpus.ID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	status := &driving.IngestStatus{
		CorpusID: corpus.ID,
		Running:  p.running(corpus.ID),
		Counts:   make(map[domain.FileStatus]int),
	}
	maxRetries := p.retryCeiling(corpus)
	for _, rec := range records {
		status.Counts[rec.Status]++
		if rec.DeadLetter(maxRetries) {
			status.DeadLetters = append(status.DeadLetters, rec)
		}
	}

	jobs, err := p.store.ListJobs(ctx, corpus.ID, 1)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	if len(jobs) > 0 {
		status.LastJob = &jobs[0]
	}
	return status, nil
}

// acquire takes the run lock for a corpus.
func (p *Pipeline) acquire(corpusID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.activeRuns[corpusID] {
		return false
	}
	p.activeRuns[corpusID] = true
	return true
}

func (p *Pipeline) release(corpusID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.activeRuns, corpusID)
}

func (p *Pipeline) running(corpusID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.activeRuns[corpusID]
}

func (p *Pipeline) retryCeiling(corpus *domain.Corpus) int {
	if corpus.MaxRetries > 0 {
		return corpus.MaxRetries
	}
	return p.cfg.MaxRetries
}

// scan walks the source directory and hashes every supported file.
// Files with identical bytes collapse into one work item. The returned
// count is the number of supported files observed on disk.
func (p *Pipeline) scan(ctx context.Context, corpus *domain.Corpus) ([]workItem, int, error) {
	var items []workItem
	byHash := make(map[string]bool)
	scanned := 0

	err := filepath.WalkDir(corpus.SourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}

		class, ok := domain.ClassForPath(path)
		if !ok {
			return nil
		}
		scanned++

		hash, err := hashing.File(path)
		if err != nil {
			return fmt.Errorf("hashing %s: %w", path, err)
		}
		if byHash[hash] {
			logger.Debug("Duplicate content at %s, skipping", path)
			return nil
		}
		byHash[hash] = true

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}

		items = append(items, workItem{
			path:     path,
			hash:     hash,
			class:    class,
			size:     info.Size(),
			modified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("scanning %s: %w", corpus.SourceDir, err)
	}

	logger.Info("Scanned %d files (%d distinct) in %s", scanned, len(items), corpus.SourceDir)
	return items, scanned, nil
}

// processAll runs the worker pool. Individual file failures are
// recorded in the state store, not propagated; only cancellation stops
// the run.
func (p *Pipeline) processAll(ctx context.Context, corpus *domain.Corpus, items []workItem, counters *runCounters) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	for _, item := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			counters.add(p.processFile(ctx, corpus, item))
			return nil
		})
	}
	return g.Wait()
}

// processFile moves one file through the state machine and returns the
// summary outcome: "succeeded", "failed", or "skipped".
func (p *Pipeline) processFile(ctx context.Context, corpus *domain.Corpus, item workItem) string {
	rec, err := p.store.GetFile(ctx, item.hash)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		rec = &domain.FileRecord{
			Hash:     item.hash,
			CorpusID: corpus.ID,
			Status:   domain.StatusPending,
		}
	case err != nil:
		logger.Warn("Lookup failed for %s: %v", item.path, err)
		return "failed"
	}

	// Observation facts refresh on every run regardless of outcome.
	rec.Path = item.path
	rec.SizeBytes = item.size
	rec.LastModified = item.modified

	if rec.Status == domain.StatusSuccess {
		// Same bytes already ingested; a rename still updates the path.
		if err := p.store.SaveFile(ctx, rec); err != nil {
			logger.Warn("Path refresh failed for %s: %v", item.path, err)
		}
		return "skipped"
	}
	if rec.DeadLetter(p.retryCeiling(corpus)) {
		logger.Debug("Dead letter %s (%d failures), skipping", item.path, rec.FailureCount)
		return "skipped"
	}

	if !rec.Status.CanTransition(domain.StatusProcessing) {
		logger.Warn("File %s in state %s cannot start processing", item.path, rec.Status)
		return "skipped"
	}
	rec.Status = domain.StatusProcessing
	rec.LastAttemptAt = time.Now().UTC()
	if err := p.store.SaveFile(ctx, rec); err != nil {
		logger.Warn("Claim failed for %s: %v", item.path, err)
		return "failed"
	}

	if err := p.ingestFile(ctx, corpus, rec, item); err != nil {
		p.recordFailure(ctx, corpus, rec, err)
		return "failed"
	}

	rec.Status = domain.StatusSuccess
	rec.FailureCount = 0
	rec.LastError = ""
	if err := p.store.SaveFile(ctx, rec); err != nil {
		logger.Warn("Commit failed for %s: %v", item.path, err)
		return "failed"
	}
	logger.Debug("Ingested %s", item.path)
	return "succeeded"
}

// ingestFile extracts, chunks, embeds, and upserts one file. The
// vector upsert completes before the caller writes SUCCESS, so a crash
// in between re-runs the file rather than losing vectors.
func (p *Pipeline) ingestFile(ctx context.Context, corpus *domain.Corpus, rec *domain.FileRecord, item workItem) error {
	result, err := p.extractor.Extract(ctx, item.path, item.class)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	rec.Metadata = result.Metadata

	chunker, err := p.registry.ForCorpus(corpus, item.class)
	if err != nil {
		return domain.Permanent(err)
	}

	drafts, err := chunker.Chunk(result.Text, result.Metadata)
	if err != nil {
		return fmt.Errorf("chunk: %w", err)
	}

	chunks := chunkers.Materialize(drafts, item.hash, corpus.ID, chunker.Name())
	if err := p.store.ReplaceChunks(ctx, item.hash, chunks); err != nil {
		return fmt.Errorf("store chunks: %w", err)
	}
	if len(chunks) == 0 {
		logger.Debug("No chunks for %s", item.path)
		return nil
	}

	if err := p.vectors.EnsureCollection(ctx, corpus.ID, p.embedder.Dimensions()); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}

	fileName := filepath.Base(item.path)
	for start := 0; start < len(chunks); start += p.cfg.EmbedBatchSize {
		end := min(start+p.cfg.EmbedBatchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Content
		}
		vectors, err := p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed batch: %w", err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embed batch: expected %d vectors, got %d", len(batch), len(vectors))
		}

		points := make([]driven.VectorPoint, len(batch))
		for i, chunk := range batch {
			points[i] = driven.VectorPoint{
				ID:      chunk.ID,
				Vector:  vectors[i],
				Payload: chunkPayload(chunk, fileName),
			}
		}
		if err := p.vectors.Upsert(ctx, corpus.ID, points); err != nil {
			return fmt.Errorf("upsert points: %w", err)
		}
	}
	return nil
}

// chunkPayload builds the citation payload stored alongside a vector.
func chunkPayload(chunk domain.Chunk, fileName string) map[string]any {
	payload := map[string]any{
		"content":           chunk.Content,
		"file_hash":         chunk.FileHash,
		"chunk_index":       chunk.Index,
		domain.MetaFileName: fileName,
	}
	for k, v := range chunk.Metadata {
		payload[k] = v
	}
	return payload
}

// recordFailure moves a record to FAILED. A permanent failure jumps
// straight to the retry ceiling so the file becomes a dead letter.
func (p *Pipeline) recordFailure(ctx context.Context, corpus *domain.Corpus, rec *domain.FileRecord, cause error) {
	logger.Warn("Processing failed for %s: %v", rec.Path, cause)

	rec.Status = domain.StatusFailed
	rec.FailureCount++
	if domain.IsPermanent(cause) {
		ceiling := p.retryCeiling(corpus)
		if rec.FailureCount < ceiling {
			rec.FailureCount = ceiling
		}
	}
	rec.LastError = cause.Error()

	if err := p.store.SaveFile(ctx, rec); err != nil {
		logger.Warn("Failure record for %s not saved: %v", rec.Path, err)
	}
}

// reconcileMissing handles records whose content left the disk, either
// because the file was deleted or because it was edited in place and
// now carries a different hash. With retain_on_missing the record keeps
// its status; otherwise it is disabled and its vectors removed best
// effort.
func (p *Pipeline) reconcileMissing(ctx context.Context, corpus *domain.Corpus, seen map[string]bool) error {
	records, err := p.store.ListFiles(ctx, corpus.ID)
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}

	for _, rec := range records {
		if seen[rec.Hash] || rec.Status == domain.StatusDisabled {
			continue
		}
		// The path may still exist with different bytes after an
		// in-place edit, so a stat is not enough: only a matching
		// re-hash proves the recorded content is still on disk.
		if hash, err := hashing.File(rec.Path); err == nil && hash == rec.Hash {
			continue
		}

		if corpus.RetainOnMissing {
			logger.Debug("Content for %s gone, record retained", rec.Path)
			continue
		}

		logger.Info("Content for %s gone, disabling record", rec.Path)
		rec.Status = domain.StatusDisabled
		if err := p.store.SaveFile(ctx, &rec); err != nil {
			return fmt.Errorf("disable %s: %w", rec.Hash, err)
		}

		chunks, err := p.store.GetChunks(ctx, rec.Hash)
		if err != nil {
			logger.Warn("Chunks for %s not listed: %v", rec.Hash, err)
			continue
		}
		if len(chunks) == 0 {
			continue
		}
		ids := make([]string, len(chunks))
		for i, chunk := range chunks {
			ids[i] = chunk.ID
		}
		// The state store stays authoritative; leftover points are
		// overwritten on any future re-ingest of the same bytes.
		if err := p.vectors.DeletePoints(ctx, corpus.ID, ids); err != nil {
			logger.Warn("Vector cleanup for %s failed: %v", rec.Hash, err)
		}
	}
	return nil
}

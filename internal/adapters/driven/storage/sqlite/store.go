package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/librarian/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/librarian/internal/core/domain"
	"github.com/custodia-labs/librarian/internal/core/ports/driven"
)

// Store is the SQLite-backed implementation of driven.StateStore.
type Store struct {
	db   *sql.DB
	path string
}

var _ driven.StateStore = (*Store)(nil)

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.librarian/data/state.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".librarian", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "state.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== File Records ====================

// GetFile retrieves a file record by content hash.
func (s *Store) GetFile(ctx context.Context, hash string) (*domain.FileRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT file_hash, file_path, corpus_id, size_bytes, last_modified, status,
			failure_count, last_error, last_attempt_at, created_at, updated_at, metadata_json
		FROM files WHERE file_hash = ?
	`, hash)

	return scanFile(row)
}

// SaveFile inserts or updates a file record keyed by hash.
func (s *Store) SaveFile(ctx context.Context, rec *domain.FileRecord) error {
	metadataJSON, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO files (file_hash, file_path, corpus_id, size_bytes, last_modified, status,
			failure_count, last_error, last_attempt_at, created_at, updated_at, metadata_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_hash) DO UPDATE SET
			file_path = excluded.file_path,
			corpus_id = excluded.corpus_id,
			size_bytes = excluded.size_bytes,
			last_modified = excluded.last_modified,
			status = excluded.status,
			failure_count = excluded.failure_count,
			last_error = excluded.last_error,
			last_attempt_at = excluded.last_attempt_at,
			updated_at = excluded.updated_at,
			metadata_json = excluded.metadata_json
	`, rec.Hash, rec.Path, rec.CorpusID, rec.SizeBytes, nullTime(rec.LastModified),
		string(rec.Status), rec.FailureCount, rec.LastError, nullTime(rec.LastAttemptAt),
		rec.CreatedAt, rec.UpdatedAt, string(metadataJSON))

	if err != nil {
		return fmt.Errorf("saving file record: %w", err)
	}
	return nil
}

// ListFiles returns all file records for a corpus.
func (s *Store) ListFiles(ctx context.Context, corpusID string) ([]domain.FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT file_hash, file_path, corpus_id, size_bytes, last_modified, status,
			failure_count, last_error, last_attempt_at, created_at, updated_at, metadata_json
		FROM files WHERE corpus_id = ?
		ORDER BY file_path
	`, corpusID)
	if err != nil {
		return nil, fmt.Errorf("querying files: %w", err)
	}
	defer rows.Close()

	var records []domain.FileRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		rec, err := scanFileRows(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating files: %w", err)
	}

	return records, nil
}

// ==================== Chunks ====================

// ReplaceChunks atomically replaces the chunk set for a file.
func (s *Store) ReplaceChunks(ctx context.Context, fileHash string, chunks []domain.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE file_hash = ?", fileHash); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (chunk_id, file_hash, corpus_id, chunk_index, content, metadata_json)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.FileHash, chunk.CorpusID,
			chunk.Index, chunk.Content, string(metadataJSON)); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunks returns the chunk set for a file ordered by index.
func (s *Store) GetChunks(ctx context.Context, fileHash string) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_id, file_hash, corpus_id, chunk_index, content, metadata_json
		FROM chunks WHERE file_hash = ?
		ORDER BY chunk_index
	`, fileHash)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		var metadataJSON string
		if err := rows.Scan(&chunk.ID, &chunk.FileHash, &chunk.CorpusID,
			&chunk.Index, &chunk.Content, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}

		if metadataJSON != "" {
			if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
			}
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// ==================== Sources ====================

// SaveSource stores or updates a corpus registration.
func (s *Store) SaveSource(ctx context.Context, src *domain.Source) error {
	configJSON, err := json.Marshal(src.Config)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	now := time.Now().UTC()
	if src.CreatedAt.IsZero() {
		src.CreatedAt = now
	}
	src.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sources (id, description, config, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			description = excluded.description,
			config = excluded.config,
			updated_at = excluded.updated_at
	`, src.ID, src.Description, string(configJSON), src.CreatedAt, src.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving source: %w", err)
	}
	return nil
}

// ListSources returns all registered sources.
func (s *Store) ListSources(ctx context.Context) ([]domain.Source, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, config, created_at, updated_at
		FROM sources ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.Source //nolint:prealloc // size unknown from query
	for rows.Next() {
		var src domain.Source
		var configJSON string
		var createdAt, updatedAt sql.NullTime
		if err := rows.Scan(&src.ID, &src.Description, &configJSON, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}

		if err := json.Unmarshal([]byte(configJSON), &src.Config); err != nil {
			return nil, fmt.Errorf("unmarshaling config: %w", err)
		}
		if createdAt.Valid {
			src.CreatedAt = createdAt.Time
		}
		if updatedAt.Valid {
			src.UpdatedAt = updatedAt.Time
		}
		sources = append(sources, src)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sources: %w", err)
	}

	return sources, nil
}

// ==================== Ingest Jobs ====================

// CreateJob records the start of an ingest run.
func (s *Store) CreateJob(ctx context.Context, job *domain.IngestJob) error {
	summaryJSON, err := json.Marshal(job.Summary)
	if err != nil {
		return fmt.Errorf("marshalling summary: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ingest_jobs (job_id, corpus_id, started_at, finished_at, status, summary_json)
		VALUES (?, ?, ?, ?, ?, ?)
	`, job.ID, job.CorpusID, job.StartedAt, nullTime(job.FinishedAt), string(job.Status),
		string(summaryJSON))

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("job %s: %w", job.ID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("creating job: %w", err)
	}
	return nil
}

// FinishJob finalises a run.
func (s *Store) FinishJob(ctx context.Context, job *domain.IngestJob) error {
	summaryJSON, err := json.Marshal(job.Summary)
	if err != nil {
		return fmt.Errorf("marshalling summary: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE ingest_jobs SET finished_at = ?, status = ?, summary_json = ?
		WHERE job_id = ? AND finished_at IS NULL
	`, nullTime(job.FinishedAt), string(job.Status), string(summaryJSON), job.ID)

	if err != nil {
		return fmt.Errorf("finishing job: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job %s: %w", job.ID, domain.ErrNotFound)
	}
	return nil
}

// ListJobs returns the most recent jobs for a corpus, newest first.
func (s *Store) ListJobs(ctx context.Context, corpusID string, limit int) ([]domain.IngestJob, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT job_id, corpus_id, started_at, finished_at, status, summary_json
		FROM ingest_jobs WHERE corpus_id = ?
		ORDER BY started_at DESC
		LIMIT ?
	`, corpusID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.IngestJob //nolint:prealloc // size unknown from query
	for rows.Next() {
		var job domain.IngestJob
		var status, summaryJSON string
		var finishedAt sql.NullTime
		if err := rows.Scan(&job.ID, &job.CorpusID, &job.StartedAt, &finishedAt, &status,
			&summaryJSON); err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		job.Status = domain.JobStatus(status)
		if finishedAt.Valid {
			job.FinishedAt = finishedAt.Time
		}
		if summaryJSON != "" {
			if err := json.Unmarshal([]byte(summaryJSON), &job.Summary); err != nil {
				return nil, fmt.Errorf("unmarshaling summary: %w", err)
			}
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating jobs: %w", err)
	}

	return jobs, nil
}

// ==================== Helper Functions ====================

// scanFile scans a single file row.
func scanFile(row *sql.Row) (*domain.FileRecord, error) {
	var rec domain.FileRecord
	var status, metadataJSON string
	var lastModified, lastAttemptAt sql.NullTime

	if err := row.Scan(&rec.Hash, &rec.Path, &rec.CorpusID, &rec.SizeBytes,
		&lastModified, &status, &rec.FailureCount, &rec.LastError,
		&lastAttemptAt, &rec.CreatedAt, &rec.UpdatedAt, &metadataJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning file record: %w", err)
	}

	return finishFile(&rec, status, metadataJSON, lastModified, lastAttemptAt)
}

// scanFileRows scans a file record from *sql.Rows.
func scanFileRows(rows *sql.Rows) (*domain.FileRecord, error) {
	var rec domain.FileRecord
	var status, metadataJSON string
	var lastModified, lastAttemptAt sql.NullTime

	if err := rows.Scan(&rec.Hash, &rec.Path, &rec.CorpusID, &rec.SizeBytes,
		&lastModified, &status, &rec.FailureCount, &rec.LastError,
		&lastAttemptAt, &rec.CreatedAt, &rec.UpdatedAt, &metadataJSON); err != nil {
		return nil, fmt.Errorf("scanning file record: %w", err)
	}

	return finishFile(&rec, status, metadataJSON, lastModified, lastAttemptAt)
}

func finishFile(rec *domain.FileRecord, status, metadataJSON string, lastModified, lastAttemptAt sql.NullTime) (*domain.FileRecord, error) {
	rec.Status = domain.FileStatus(status)
	if lastModified.Valid {
		rec.LastModified = lastModified.Time
	}
	if lastAttemptAt.Valid {
		rec.LastAttemptAt = lastAttemptAt.Time
	}
	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &rec.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}
	return rec, nil
}

// nullTime converts a zero time to NULL for storage.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// isUniqueViolation reports whether err is a primary key conflict.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

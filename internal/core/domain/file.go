package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// FileStatus is the processing state of a known file.
type FileStatus string

const (
	// StatusPending marks a file observed but not yet processed.
	StatusPending FileStatus = "PENDING"

	// StatusProcessing marks a file claimed by a running ingest.
	StatusProcessing FileStatus = "PROCESSING"

	// StatusSuccess marks a file fully extracted, chunked, embedded,
	// and upserted. Re-entered only when the content hash changes.
	StatusSuccess FileStatus = "SUCCESS"

	// StatusFailed marks a file whose last attempt errored. Retried on
	// the next run until the retry ceiling, then left as a dead letter.
	StatusFailed FileStatus = "FAILED"

	// StatusDisabled marks a file removed from disk with
	// retain_on_missing off. Retained for audit, excluded from retrieval.
	StatusDisabled FileStatus = "DISABLED"
)

// Valid reports whether s is a known status.
func (s FileStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusSuccess, StatusFailed, StatusDisabled:
		return true
	}
	return false
}

// CanTransition reports whether the state machine permits moving from s
// to target. Any state may transition to DISABLED.
func (s FileStatus) CanTransition(target FileStatus) bool {
	if target == StatusDisabled {
		return true
	}
	switch s {
	case StatusPending, StatusFailed, StatusSuccess, StatusDisabled:
		return target == StatusProcessing
	case StatusProcessing:
		return target == StatusSuccess || target == StatusFailed
	}
	return false
}

// FileRecord is the durable record of a known file, keyed by its content
// hash. A file copied or moved without byte changes shares its record.
type FileRecord struct {
	// Hash is the hex SHA-256 digest of the file bytes. Primary key.
	Hash string

	// Path is the most recently observed location. May change across
	// runs without triggering reprocessing.
	Path string

	// CorpusID is the owning corpus.
	CorpusID string

	// SizeBytes is the file size at last observation.
	SizeBytes int64

	// LastModified is the file mtime at last observation.
	LastModified time.Time

	// Status is the current lifecycle state.
	Status FileStatus

	// FailureCount counts consecutive failed attempts. Reset on success.
	FailureCount int

	// LastError describes the most recent failure.
	LastError string

	// LastAttemptAt is when processing last started for this file.
	LastAttemptAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	// Metadata holds extraction facts (page counts, OCR usage, title).
	Metadata map[string]any
}

// DeadLetter reports whether the record has exhausted its retries and
// requires operator intervention.
func (r *FileRecord) DeadLetter(maxRetries int) bool {
	return r.Status == StatusFailed && maxRetries > 0 && r.FailureCount >= maxRetries
}

// ContentClass describes how a file's bytes become text.
type ContentClass string

const (
	// ClassText is plain prose read directly as UTF-8.
	ClassText ContentClass = "text"

	// ClassCode is source code read directly as UTF-8.
	ClassCode ContentClass = "code"

	// ClassPDF is extracted page by page with an OCR fallback.
	ClassPDF ContentClass = "pdf"
)

// classByExtension is the scan-stage allow-list. Extensions outside this
// map never reach the extraction lane.
var classByExtension = map[string]ContentClass{
	".txt": ClassText,
	".md":  ClassText,
	".py":  ClassCode,
	".go":  ClassCode,
	".pdf": ClassPDF,
}

// ClassForPath returns the content class for a file path, or false when
// the extension is not supported.
func ClassForPath(path string) (ContentClass, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	class, ok := classByExtension[ext]
	return class, ok
}

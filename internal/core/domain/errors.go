package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown content class or strategy.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrRunInProgress indicates an ingest run for the corpus is
	// already executing. Concurrency is within a run, not across runs.
	ErrRunInProgress = errors.New("ingest run in progress")

	// ErrInvalidTransition indicates a file status change the state
	// machine does not permit.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured; ingestion and retrieval both require it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGenerationUnavailable indicates no answering model could be
	// resolved for a query.
	ErrGenerationUnavailable = errors.New("generation service unavailable")
)

// PermanentError marks a per-file failure that retrying cannot fix
// (corrupt file, unsupported structure). The pipeline counts such
// failures against the retry ceiling immediately.
type PermanentError struct {
	Err error
}

// Permanent wraps err as a permanent per-file failure.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

func (e *PermanentError) Error() string { return e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// IsPermanent reports whether err is marked permanent.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

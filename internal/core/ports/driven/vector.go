package driven

import "context"

// VectorPoint is one chunk ready for upsert: a deterministic id, its
// embedding, and a citation payload.
type VectorPoint struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// VectorHit is a ranked similarity search result.
type VectorHit struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// VectorStore provides nearest-neighbour search over chunk embeddings,
// one collection per corpus. It holds a derived, rebuildable copy of
// chunk text and is never authoritative for existence: on any
// inconsistency the state store wins and re-upsert is safe because
// chunk ids are deterministic.
type VectorStore interface {
	// EnsureCollection creates the corpus collection if missing.
	EnsureCollection(ctx context.Context, corpusID string, dimensions int) error

	// CollectionExists reports whether the corpus collection exists.
	CollectionExists(ctx context.Context, corpusID string) (bool, error)

	// Upsert inserts or replaces points by id. Safe for concurrent
	// calls with distinct ids.
	Upsert(ctx context.Context, corpusID string, points []VectorPoint) error

	// Search returns the topK nearest points to the query vector in
	// descending similarity order. Returns domain.ErrNotFound when the
	// collection does not exist.
	Search(ctx context.Context, corpusID string, vector []float32, topK int) ([]VectorHit, error)

	// DeletePoints removes points by id. Missing ids are not an error.
	DeletePoints(ctx context.Context, corpusID string, ids []string) error

	// Close releases resources.
	Close() error
}

package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/librarian/internal/core/ports/driven"
)

// QueryRequest is one retrieval-augmented question.
type QueryRequest struct {
	// CorpusID scopes retrieval. Empty means no retrieval: the model
	// answers ad hoc.
	CorpusID string

	// Query is the user's question.
	Query string

	// Model overrides the answering model for this request.
	Model string

	// TopK caps retrieved chunks. Zero means the engine default.
	TopK int
}

// QueryResult carries the generated answer together with the raw hits
// so callers can render citations.
type QueryResult struct {
	Query   string
	Hits    []driven.VectorHit
	Answer  string
	Elapsed time.Duration
}

// QueryEngine answers questions grounded in a corpus.
type QueryEngine interface {
	Answer(ctx context.Context, req QueryRequest) (*QueryResult, error)
}

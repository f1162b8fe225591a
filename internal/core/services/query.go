package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/librarian/internal/core/domain"
	"github.com/custodia-labs/librarian/internal/core/ports/driven"
	"github.com/custodia-labs/librarian/internal/core/ports/driving"
	"github.com/custodia-labs/librarian/internal/logger"
)

// Default query tuning values.
const (
	DefaultTopK = 5

	// maxContextChars bounds the excerpt block handed to the model.
	maxContextChars = 12000
)

// ragSystemPrompt grounds answers in retrieved excerpts.
const ragSystemPrompt = "You are an intelligent librarian assistant. " +
	"Answer the user question based ONLY on the provided context excerpts. " +
	"If the answer is not in the context, say you don't know. " +
	"Cite sources when possible."

// chatSystemPrompt applies when no excerpts are available.
const chatSystemPrompt = "You are a helpful AI assistant."

// Ensure QueryEngine implements the interface.
var _ driving.QueryEngine = (*QueryEngine)(nil)

// QueryEngine answers questions grounded in a corpus: embed the
// question, search the corpus collection, and generate an answer from
// the retrieved excerpts.
type QueryEngine struct {
	corpora   driven.CorpusStore
	embedder  driven.EmbeddingService
	vectors   driven.VectorStore
	generator driven.GenerationService
	factory   driven.GenerationFactory
	topK      int
}

// NewQueryEngine creates a query engine. The generator is the default
// answering model; the factory builds models for corpus personas and
// per-request overrides and may be nil to disable both.
func NewQueryEngine(
	corpora driven.CorpusStore,
	embedder driven.EmbeddingService,
	vectors driven.VectorStore,
	generator driven.GenerationService,
	factory driven.GenerationFactory,
	topK int,
) *QueryEngine {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &QueryEngine{
		corpora:   corpora,
		embedder:  embedder,
		vectors:   vectors,
		generator: generator,
		factory:   factory,
		topK:      topK,
	}
}

// Answer runs one retrieval-augmented query.
func (e *QueryEngine) Answer(ctx context.Context, req driving.QueryRequest) (*driving.QueryResult, error) {
	start := time.Now()

	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	var corpus *domain.Corpus
	if req.CorpusID != "" {
		var err error
		corpus, err = e.corpora.Get(ctx, req.CorpusID)
		if err != nil {
			return nil, fmt.Errorf("get corpus: %w", err)
		}
	}

	// 1. Embed and search when a corpus scopes the question
	var hits []driven.VectorHit
	if corpus != nil {
		var err error
		hits, err = e.retrieve(ctx, corpus.ID, req)
		if err != nil {
			return nil, err
		}
	}

	// 2. Resolve the answering model
	generator, err := e.resolveGenerator(req, corpus)
	if err != nil {
		return nil, err
	}

	// 3. Generate the answer
	system, prompt := buildPrompts(req.Query, hits)
	answer, err := generator.Generate(ctx, prompt, driven.GenerateOptions{System: system})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
	}

	return &driving.QueryResult{
		Query:   req.Query,
		Hits:    hits,
		Answer:  answer,
		Elapsed: time.Since(start),
	}, nil
}

// retrieve embeds the question and searches the corpus collection. A
// corpus with no collection yet yields no hits rather than an error.
func (e *QueryEngine) retrieve(ctx context.Context, corpusID string, req driving.QueryRequest) ([]driven.VectorHit, error) {
	exists, err := e.vectors.CollectionExists(ctx, corpusID)
	if err != nil {
		return nil, fmt.Errorf("check collection: %w", err)
	}
	if !exists {
		logger.Warn("Corpus %s has no indexed content yet", corpusID)
		return nil, nil
	}

	vector, err := e.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	topK := req.TopK
	if topK <= 0 {
		topK = e.topK
	}

	hits, err := e.vectors.Search(ctx, corpusID, vector, topK)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("search: %w", err)
	}
	logger.Info("Retrieved %d excerpts from %s", len(hits), corpusID)
	return hits, nil
}

// resolveGenerator picks the answering model: request override first,
// then the corpus persona, then the default.
func (e *QueryEngine) resolveGenerator(req driving.QueryRequest, corpus *domain.Corpus) (driven.GenerationService, error) {
	if req.Model != "" && e.factory != nil {
		provider, model := splitModelRef(req.Model)
		generator, err := e.factory(provider, model, "")
		if err != nil {
			logger.Warn("Model override %s unavailable, using default: %v", req.Model, err)
		} else {
			return generator, nil
		}
	}

	if corpus != nil && !corpus.Answer.IsZero() && e.factory != nil {
		generator, err := e.factory(corpus.Answer.Provider, corpus.Answer.Model, corpus.Answer.BaseURL)
		if err != nil {
			logger.Warn("Corpus model %s/%s unavailable, using default: %v",
				corpus.Answer.Provider, corpus.Answer.Model, err)
		} else {
			return generator, nil
		}
	}

	if e.generator == nil {
		return nil, fmt.Errorf("%w: no answering model configured", domain.ErrGenerationUnavailable)
	}
	return e.generator, nil
}

// splitModelRef parses "provider/model" overrides. A bare model name
// defaults to ollama.
func splitModelRef(ref string) (provider, model string) {
	if p, m, found := strings.Cut(ref, "/"); found {
		return p, m
	}
	return "ollama", ref
}

// buildPrompts formats retrieved excerpts into the grounded prompt.
// Without hits the engine falls back to plain chat.
func buildPrompts(query string, hits []driven.VectorHit) (system, prompt string) {
	if len(hits) == 0 {
		return chatSystemPrompt, query
	}

	var parts []string
	total := 0
	for _, hit := range hits {
		part := fmt.Sprintf("[%s]:\n%s", citation(hit), payloadString(hit.Payload, "content"))
		if total+len(part) > maxContextChars {
			break
		}
		parts = append(parts, part)
		total += len(part)
	}

	context := strings.Join(parts, "\n\n")
	return ragSystemPrompt, fmt.Sprintf("Context:\n%s\n\nQuestion: %s\n\nAnswer:", context, query)
}

// citation renders the source label for one hit.
func citation(hit driven.VectorHit) string {
	fileName := payloadString(hit.Payload, domain.MetaFileName)
	if fileName == "" {
		fileName = "unknown"
	}

	section := "?"
	if page, ok := payloadNumber(hit.Payload, domain.MetaPage); ok {
		section = fmt.Sprintf("%d", page)
	} else if index, ok := payloadNumber(hit.Payload, "chunk_index"); ok {
		section = fmt.Sprintf("%d", index)
	}

	return fmt.Sprintf("File: %s (Section %s)", fileName, section)
}

func payloadString(payload map[string]any, key string) string {
	if payload == nil {
		return ""
	}
	s, _ := payload[key].(string)
	return s
}

func payloadNumber(payload map[string]any, key string) (int, bool) {
	if payload == nil {
		return 0, false
	}
	switch v := payload[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// Package qdrant provides a minimal REST client for the Qdrant vector
// database. One collection per corpus, cosine distance, deterministic
// point ids so re-upsert after a partial failure is safe.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/librarian/internal/core/domain"
	"github.com/custodia-labs/librarian/internal/core/ports/driven"
)

// DefaultTimeout bounds each request to Qdrant.
const DefaultTimeout = 30 * time.Second

// Config holds connection settings for a Qdrant instance.
type Config struct {
	// URL is the base URL, e.g. "http://localhost:6333".
	URL string

	// APIKey is sent in the api-key header when set.
	APIKey string

	// Prefix is prepended to corpus ids to form collection names.
	Prefix string

	// Timeout bounds each HTTP request. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is a Qdrant-backed vector store.
type Store struct {
	cfg    Config
	client *http.Client

	// known caches collections confirmed to exist, keyed by name.
	mu    sync.RWMutex
	known map[string]bool
}

// NewStore creates a Qdrant store.
func NewStore(cfg Config) *Store {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	return &Store{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		known:  make(map[string]bool),
	}
}

// CollectionName returns the collection name for a corpus.
func (s *Store) CollectionName(corpusID string) string {
	if s.cfg.Prefix == "" {
		return corpusID
	}
	return s.cfg.Prefix + "_" + corpusID
}

// EnsureCollection creates the corpus collection if missing.
func (s *Store) EnsureCollection(ctx context.Context, corpusID string, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive", domain.ErrInvalidInput)
	}

	name := s.CollectionName(corpusID)

	s.mu.RLock()
	cached := s.known[name]
	s.mu.RUnlock()
	if cached {
		return nil
	}

	exists, err := s.collectionExists(ctx, name)
	if err != nil {
		return err
	}

	if !exists {
		body := map[string]any{
			"vectors": map[string]any{
				"size":     dimensions,
				"distance": "Cosine",
			},
		}
		if err := s.doJSON(ctx, http.MethodPut, "/collections/"+name, body, nil); err != nil {
			return fmt.Errorf("creating collection %s: %w", name, err)
		}
	}

	s.mu.Lock()
	s.known[name] = true
	s.mu.Unlock()
	return nil
}

// CollectionExists reports whether the corpus collection exists.
func (s *Store) CollectionExists(ctx context.Context, corpusID string) (bool, error) {
	name := s.CollectionName(corpusID)

	s.mu.RLock()
	cached := s.known[name]
	s.mu.RUnlock()
	if cached {
		return true, nil
	}

	exists, err := s.collectionExists(ctx, name)
	if err != nil {
		return false, err
	}
	if exists {
		s.mu.Lock()
		s.known[name] = true
		s.mu.Unlock()
	}
	return exists, nil
}

func (s *Store) collectionExists(ctx context.Context, name string) (bool, error) {
	status, err := s.do(ctx, http.MethodGet, "/collections/"+name, nil, nil)
	if err != nil {
		return false, fmt.Errorf("checking collection %s: %w", name, err)
	}
	switch {
	case status == http.StatusNotFound:
		return false, nil
	case status >= 300:
		return false, fmt.Errorf("checking collection %s: status %d", name, status)
	}
	return true, nil
}

// Upsert inserts or replaces points by id.
func (s *Store) Upsert(ctx context.Context, corpusID string, points []driven.VectorPoint) error {
	if len(points) == 0 {
		return nil
	}

	name := s.CollectionName(corpusID)
	qdrantPoints := make([]map[string]any, len(points))
	for i, p := range points {
		qdrantPoints[i] = map[string]any{
			"id":      p.ID,
			"vector":  p.Vector,
			"payload": p.Payload,
		}
	}

	body := map[string]any{"points": qdrantPoints}
	if err := s.doJSON(ctx, http.MethodPut, "/collections/"+name+"/points?wait=true", body, nil); err != nil {
		return fmt.Errorf("upserting %d points into %s: %w", len(points), name, err)
	}
	return nil
}

// Search returns the topK nearest points in descending similarity order.
func (s *Store) Search(ctx context.Context, corpusID string, vector []float32, topK int) ([]driven.VectorHit, error) {
	if topK <= 0 {
		topK = 5
	}

	name := s.CollectionName(corpusID)
	body := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}

	var resp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}

	status, err := s.do(ctx, http.MethodPost, "/collections/"+name+"/points/search", body, &resp)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", name, err)
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	if status >= 300 {
		return nil, fmt.Errorf("searching %s: status %d", name, status)
	}

	hits := make([]driven.VectorHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hits = append(hits, driven.VectorHit{
			ID:      fmt.Sprintf("%v", r.ID),
			Score:   r.Score,
			Payload: r.Payload,
		})
	}
	return hits, nil
}

// DeletePoints removes points by id. Missing ids are not an error.
func (s *Store) DeletePoints(ctx context.Context, corpusID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	name := s.CollectionName(corpusID)
	body := map[string]any{"points": ids}
	status, err := s.do(ctx, http.MethodPost, "/collections/"+name+"/points/delete?wait=true", body, nil)
	if err != nil {
		return fmt.Errorf("deleting points from %s: %w", name, err)
	}
	// A missing collection means there is nothing to delete.
	if status == http.StatusNotFound {
		return nil
	}
	if status >= 300 {
		return fmt.Errorf("deleting points from %s: status %d", name, status)
	}
	return nil
}

// Close releases resources.
func (s *Store) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// doJSON performs a request and fails on any non-2xx status.
func (s *Store) doJSON(ctx context.Context, method, path string, body, out any) error {
	status, err := s.do(ctx, method, path, body, out)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("%s %s: status %d", method, path, status)
	}
	return nil
}

// do performs a request, decodes the response into out when provided,
// and returns the HTTP status code.
func (s *Store) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.cfg.URL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.cfg.APIKey != "" {
		req.Header.Set("api-key", s.cfg.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
